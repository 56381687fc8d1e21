// Package config loads chronosd's environment-driven configuration.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Scheduler SchedulerConfig
	Redis     RedisConfig
	History   HistoryConfig
}

// ServerConfig binds the optional admin HTTP API.
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// SchedulerConfig selects the execution pool and diagnostic sink the
// facade is initialized with.
type SchedulerConfig struct {
	// WorkerCount, if > 0, selects a bounded pool.WorkerPool of this size;
	// 0 keeps the default unbounded pool.GoroutinePool.
	WorkerCount int

	// DiagnosticSink is "stderr" (default) or "redis".
	DiagnosticSink string
}

// RedisConfig is only consulted when Scheduler.DiagnosticSink == "redis".
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Channel  string
}

// HistoryConfig is only consulted when Enabled is true.
type HistoryConfig struct {
	Enabled bool

	Host               string
	Port               string
	User               string
	Password           string
	DBName             string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	MaxLifetimeMinutes int
}

// LoadConfig loads configuration, discarding any error (matching the
// teacher's permissive top-level entrypoint helper).
func LoadConfig() *Config {
	cfg, _ := Load()
	return cfg
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:            getEnvInt("SERVER_PORT", 5030),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Scheduler: SchedulerConfig{
			WorkerCount:    getEnvInt("CHRONOS_WORKER_COUNT", 0),
			DiagnosticSink: getEnv("CHRONOS_DIAGNOSTIC_SINK", "stderr"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 2),
			Channel:  getEnv("REDIS_DIAGNOSTIC_CHANNEL", "chronos:diagnostics"),
		},
		History: HistoryConfig{
			Enabled:            getEnvBool("HISTORY_ENABLED", false),
			Host:               getEnv("POSTGRES_HOST", "localhost"),
			Port:               getEnv("POSTGRES_PORT", "5432"),
			User:               getEnv("POSTGRES_USER", "chronos_user"),
			Password:           getEnv("POSTGRES_PASSWORD", "chronos_password"),
			DBName:             getEnv("POSTGRES_DB", "chronos_db"),
			SSLMode:            getEnv("POSTGRES_SSL_MODE", "disable"),
			MaxOpenConns:       getEnvInt("POSTGRES_MAX_OPEN_CONNS", 25),
			MaxIdleConns:       getEnvInt("POSTGRES_MAX_IDLE_CONNS", 10),
			MaxLifetimeMinutes: getEnvInt("POSTGRES_MAX_LIFETIME_MINS", 30),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
