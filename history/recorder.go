// Package history is an optional, write-only audit sink: it appends the
// diagnostic event stream (recovered panics, pool rejections) to a daily
// per-task aggregate in Postgres. It is not a job store — chronos's
// scheduler state is never read from or written to this table, and a
// Recorder failure is reported to a fallback sink rather than surfaced to
// the coordinator.
package history

import (
	"context"
	"time"

	"github.com/minisource/chronos/diagnostic"
	"gorm.io/gorm"
)

// Recorder implements diagnostic.Sink, persisting each event as an upsert
// against the (task_id, date) aggregate row.
type Recorder struct {
	db       *gorm.DB
	fallback diagnostic.Sink
}

// NewRecorder builds a Recorder. fallback receives events this Recorder
// itself fails to persist, and must be non-nil.
func NewRecorder(db *gorm.DB, fallback diagnostic.Sink) *Recorder {
	return &Recorder{db: db, fallback: fallback}
}

// Log implements diagnostic.Sink.
func (r *Recorder) Log(level diagnostic.Level, message string, fields map[string]any) {
	taskID, _ := fields["task_id"].(string)
	if taskID == "" {
		return
	}

	if err := r.record(taskID, level); err != nil {
		r.fallback.Log(diagnostic.LevelWarn, "history: failed to persist event", map[string]any{
			"task_id": taskID,
			"error":   err.Error(),
		})
	}
}

func (r *Recorder) record(taskID string, level diagnostic.Level) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	date := time.Now().UTC().Truncate(24 * time.Hour)

	var existing DailyStat
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND date = ?", taskID, date).
		First(&existing).Error

	if err == gorm.ErrRecordNotFound {
		stat := DailyStat{
			TaskID:     taskID,
			Date:       date,
			EventCount: 1,
		}
		if level == diagnostic.LevelError {
			stat.FailureCount = 1
		}
		return r.db.WithContext(ctx).Create(&stat).Error
	}
	if err != nil {
		return err
	}

	updates := map[string]any{"event_count": gorm.Expr("event_count + 1")}
	if level == diagnostic.LevelError {
		updates["failure_count"] = gorm.Expr("failure_count + 1")
	}

	return r.db.WithContext(ctx).
		Model(&DailyStat{}).
		Where("id = ?", existing.ID).
		Updates(updates).Error
}

// Stats returns the recorded daily aggregates for a task over the last
// days days, newest first.
func (r *Recorder) Stats(ctx context.Context, taskID string, days int) ([]DailyStat, error) {
	var stats []DailyStat
	since := time.Now().UTC().AddDate(0, 0, -days)

	err := r.db.WithContext(ctx).
		Where("task_id = ? AND date >= ?", taskID, since).
		Order("date DESC").
		Find(&stats).Error
	return stats, err
}
