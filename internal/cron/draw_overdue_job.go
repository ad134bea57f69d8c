package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/db/models"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/enums"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/logger"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/outbox"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/outbox/payloads"
)

const (
	drawOverdueJobName      = "draw-overdue"
	defaultDrawOverdueBatch = 100
)

type overdueGameFinder interface {
	FindDrawOverdue(ctx context.Context, now time.Time, limit int) ([]models.Game, error)
}

type onceEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// DrawOverdueJobParams configure the draw-overdue job.
type DrawOverdueJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Games     overdueGameFinder
	Outbox    onceEmitter
	BatchSize int
	Now       func() time.Time
}

// NewDrawOverdueJob flags games whose draw date passed without winning
// numbers. Each game gets at most one game_draw_overdue event; the job never
// creates, draws or settles games.
func NewDrawOverdueJob(params DrawOverdueJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Games == nil {
		return nil, fmt.Errorf("games repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultDrawOverdueBatch
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &drawOverdueJob{
		logg:   params.Logger,
		db:     params.DB,
		games:  params.Games,
		outbox: params.Outbox,
		batch:  batch,
		now:    now,
	}, nil
}

type drawOverdueJob struct {
	logg   *logger.Logger
	db     txRunner
	games  overdueGameFinder
	outbox onceEmitter
	batch  int
	now    func() time.Time
}

func (j *drawOverdueJob) Name() string { return drawOverdueJobName }

func (j *drawOverdueJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	overdue, err := j.games.FindDrawOverdue(ctx, now, j.batch)
	if err != nil {
		return fmt.Errorf("find draw overdue games: %w", err)
	}

	var runErr error
	flagged := 0
	for _, game := range overdue {
		if err := ctx.Err(); err != nil {
			runErr = multierr.Append(runErr, err)
			break
		}
		if err := j.flag(ctx, game, now); err != nil {
			runErr = multierr.Append(runErr, fmt.Errorf("game %s: %w", game.ID, err))
			continue
		}
		flagged++
		gameCtx := j.logg.WithGameID(ctx, game.ID.String())
		j.logg.Warn(j.logg.WithFields(gameCtx, map[string]any{
			"year":       game.Year,
			"weekNumber": game.WeekNumber,
			"drawDate":   game.DrawDate,
		}), "game draw overdue")
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"overdue": len(overdue),
		"flagged": flagged,
	}), "draw overdue scan complete")
	return runErr
}

func (j *drawOverdueJob) flag(ctx context.Context, game models.Game, now time.Time) error {
	payload := payloads.GameDrawOverdueEvent{
		GameID:     game.ID,
		Year:       game.Year,
		WeekNumber: game.WeekNumber,
		DetectedAt: now,
	}
	if game.DrawDate != nil {
		payload.DrawDate = game.DrawDate.UTC()
	}
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		return j.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventGameDrawOverdue,
			AggregateType: enums.AggregateGame,
			AggregateID:   game.ID,
			Data:          payload,
			Version:       1,
			OccurredAt:    now,
		})
	})
}
