package history

import "time"

// DailyStat is the per-task, per-day aggregate row, trimmed from the
// teacher's JobHistory model down to what a diagnostic-event stream (rather
// than a full job-execution ledger) can actually populate.
type DailyStat struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	TaskID string   `gorm:"type:varchar(255);not null;index:idx_history_task"`
	Date  time.Time `gorm:"type:date;not null;index:idx_history_date"`

	EventCount   int64 `gorm:"default:0"`
	FailureCount int64 `gorm:"default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (DailyStat) TableName() string {
	return "task_history"
}
