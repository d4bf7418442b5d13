package models

import "time"

// ScheduleMarker persists the last time a gated cron job actually ran,
// keeping the job itself stateless and safe to re-run.
type ScheduleMarker struct {
	JobName   string    `gorm:"column:job_name;primaryKey"`
	LastRunAt time.Time `gorm:"column:last_run_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
