package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/logger"
)

const (
	defaultRetentionDays     = 30
	defaultRetentionMinTries = 10
	outboxRetentionJobName   = "outbox-retention"
	outboxRetentionDayLength = 24 * time.Hour
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPurger interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

// OutboxRetentionJobParams configure the outbox retention job. MaxAttempts
// mirrors the publisher limit: rows that reached it are dead-lettered and
// safe to purge.
type OutboxRetentionJobParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Repository    outboxPurger
	RetentionDays int
	MaxAttempts   int
	Now           func() time.Time
}

// NewOutboxRetentionJob purges outbox rows that were published, or gave up,
// more than RetentionDays ago. Unpublished rows below MaxAttempts are kept.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	days := params.RetentionDays
	if days <= 0 {
		days = defaultRetentionDays
	}
	maxAttempts := params.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultRetentionMinTries
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &outboxRetentionJob{
		logg:        params.Logger,
		db:          params.DB,
		repo:        params.Repository,
		days:        days,
		maxAttempts: maxAttempts,
		now:         now,
	}, nil
}

type outboxRetentionJob struct {
	logg        *logger.Logger
	db          txRunner
	repo        outboxPurger
	days        int
	maxAttempts int
	now         func() time.Time
}

func (j *outboxRetentionJob) Name() string { return outboxRetentionJobName }

func (j *outboxRetentionJob) cutoff() time.Time {
	return j.now().UTC().Add(-time.Duration(j.days) * outboxRetentionDayLength)
}

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.cutoff()
	var purged int64
	if err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeletePublishedBefore(ctx, tx, cutoff, j.maxAttempts)
		if err != nil {
			return err
		}
		purged = rows
		return nil
	}); err != nil {
		return fmt.Errorf("purge outbox before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":      cutoff,
		"retainDays":  j.days,
		"maxAttempts": j.maxAttempts,
		"rowsPurged":  purged,
	}), "outbox retention purge complete")
	return nil
}
