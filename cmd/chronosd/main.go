// Command chronosd runs the chronos facade behind an admin HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/minisource/chronos"
	"github.com/minisource/chronos/config"
	"github.com/minisource/chronos/diagnostic"
	"github.com/minisource/chronos/history"
	"github.com/minisource/chronos/internal/httpapi"
	"github.com/minisource/chronos/pool"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg := config.LoadConfig()

	sink, cleanup := buildDiagnosticSink(cfg, logger)
	defer cleanup()
	chronos.SetDiagnosticSink(sink)

	if cfg.Scheduler.WorkerCount > 0 {
		if err := chronos.InitExecutionPool(pool.NewWorkerPool(cfg.Scheduler.WorkerCount)); err != nil {
			logger.Error("failed to install execution pool", "error", err)
			os.Exit(1)
		}
	}

	// Touch the facade once so the coordinator is running before the HTTP
	// server starts accepting requests.
	chronos.GetAllTasks()

	app := fiber.New(fiber.Config{
		AppName:      "chronos",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	httpapi.SetupRouter(app, &httpapi.Handlers{
		Task:   httpapi.NewTaskHandler(),
		Health: httpapi.NewHealthHandler(chronos.IsRunning),
	})

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		logger.Info("chronosd listening", "addr", addr)
		if err := app.Listen(addr); err != nil {
			logger.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down chronosd")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	chronos.Shutdown(true)
	logger.Info("chronosd stopped")
}

// buildDiagnosticSink selects stderr or redis per cfg.Scheduler.DiagnosticSink,
// optionally layering the Postgres execution-history recorder on top when
// cfg.History.Enabled. Returns a cleanup func to release any connections.
func buildDiagnosticSink(cfg *config.Config, logger *slog.Logger) (diagnostic.Sink, func()) {
	base := diagnostic.NewStderrSink()
	cleanup := func() {}

	var sink diagnostic.Sink = base
	if cfg.Scheduler.DiagnosticSink == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		sink = diagnostic.NewRedisSink(client, cfg.Redis.Channel, base)
		prev := cleanup
		cleanup = func() { prev(); client.Close() }
	}

	if cfg.History.Enabled {
		db, err := history.Open(history.ConnectionConfig{
			Host:               cfg.History.Host,
			Port:               cfg.History.Port,
			User:               cfg.History.User,
			Password:           cfg.History.Password,
			DBName:             cfg.History.DBName,
			SSLMode:            cfg.History.SSLMode,
			MaxIdleConns:       cfg.History.MaxIdleConns,
			MaxOpenConns:       cfg.History.MaxOpenConns,
			MaxLifetimeMinutes: cfg.History.MaxLifetimeMinutes,
		})
		if err != nil {
			logger.Warn("history recorder disabled", "error", err)
			return sink, cleanup
		}
		sink = history.NewRecorder(db, sink)
		prev := cleanup
		cleanup = func() {
			prev()
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
	}

	return sink, cleanup
}
