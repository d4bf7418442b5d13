package cron

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mercaline/marketsplit-backend/pkg/db/models"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// MarkerRepository reads and writes schedule markers so interval-gated
// jobs survive worker restarts.
type MarkerRepository struct {
	db *gorm.DB
}

// NewMarkerRepository builds a marker repository bound to the provided DB.
func NewMarkerRepository(db *gorm.DB) *MarkerRepository {
	return &MarkerRepository{db: db}
}

// LastRun returns when the named job last ran, or nil if it never has.
func (r *MarkerRepository) LastRun(ctx context.Context, jobName string) (*time.Time, error) {
	var marker models.ScheduleMarker
	err := r.db.WithContext(ctx).First(&marker, "job_name = ?", jobName).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	at := marker.LastRunAt
	return &at, nil
}

// Record upserts the job's last-run timestamp.
func (r *MarkerRepository) Record(ctx context.Context, jobName string, at time.Time) error {
	marker := models.ScheduleMarker{JobName: jobName, LastRunAt: at}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_run_at", "updated_at"}),
		}).
		Create(&marker).Error
}
