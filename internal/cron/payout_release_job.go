package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/mercaline/marketsplit-backend/internal/payouts"
	"github.com/mercaline/marketsplit-backend/pkg/logger"
)

const payoutReleaseJobName = "payout-release"

type payoutProcessor interface {
	ProcessScheduledPayouts(ctx context.Context) (*payouts.ScheduledRunResult, error)
}

type markerStore interface {
	LastRun(ctx context.Context, jobName string) (*time.Time, error)
	Record(ctx context.Context, jobName string, at time.Time) error
}

// PayoutReleaseJobParams configure the scheduled escrow release.
type PayoutReleaseJobParams struct {
	Logger   *logger.Logger
	Payouts  payoutProcessor
	Markers  markerStore
	Interval time.Duration
}

// NewPayoutReleaseJob builds the cron job that moves held payouts to
// PENDING once the configured escrow interval has elapsed.
func NewPayoutReleaseJob(params PayoutReleaseJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payouts == nil {
		return nil, fmt.Errorf("payout processor required")
	}
	if params.Markers == nil {
		return nil, fmt.Errorf("marker store required")
	}
	if params.Interval <= 0 {
		return nil, fmt.Errorf("release interval must be positive")
	}
	return &payoutReleaseJob{
		logg:     params.Logger,
		payouts:  params.Payouts,
		markers:  params.Markers,
		interval: params.Interval,
		now:      time.Now,
	}, nil
}

type payoutReleaseJob struct {
	logg     *logger.Logger
	payouts  payoutProcessor
	markers  markerStore
	interval time.Duration
	now      func() time.Time
}

func (j *payoutReleaseJob) Name() string { return payoutReleaseJobName }

func (j *payoutReleaseJob) Run(ctx context.Context) error {
	now := j.now().UTC()

	lastRun, err := j.markers.LastRun(ctx, payoutReleaseJobName)
	if err != nil {
		return fmt.Errorf("read schedule marker: %w", err)
	}
	if lastRun != nil && now.Sub(*lastRun) < j.interval {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"last_run": lastRun,
			"interval": j.interval.String(),
		})
		j.logg.Info(logCtx, "payout release interval not elapsed; skipping")
		return nil
	}

	result, err := j.payouts.ProcessScheduledPayouts(ctx)
	if err != nil {
		return fmt.Errorf("process scheduled payouts: %w", err)
	}
	if err := j.markers.Record(ctx, payoutReleaseJobName, now); err != nil {
		return fmt.Errorf("record schedule marker: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"payouts_released":   result.TotalProcessed,
		"sellers_affected":   result.SellersAffected,
		"total_amount_cents": result.TotalAmountCents,
	})
	j.logg.Info(logCtx, "payout release run complete")
	return nil
}
