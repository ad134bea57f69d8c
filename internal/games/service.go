package games

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/db"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/db/models"
	pkgerrors "github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/errors"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/logger"
)

const maxCreateAttempts = 3

// Service owns the weekly game timeline.
type Service interface {
	GetOrCreateCurrentGame(ctx context.Context) (*models.Game, error)
	GetOrCreateGamesForWeeks(ctx context.Context, n int) ([]models.Game, error)
	FindCurrentGame(ctx context.Context) (*GameView, error)
	GetGame(ctx context.Context, id uuid.UUID) (*GameView, error)
	View(ctx context.Context, game models.Game) (*GameView, error)
	RecordInPersonResults(ctx context.Context, gameID uuid.UUID, winners, prizePool int) (*GameView, error)
}

type service struct {
	repo   Repository
	policy *Policy
	logg   *logger.Logger
	now    func() time.Time
}

// Option customises the scheduler.
type Option func(*service)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the scheduler with its repository and weekly policy.
func NewService(repo Repository, policy *Policy, logg *logger.Logger, opts ...Option) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("game repository required")
	}
	if policy == nil {
		return nil, fmt.Errorf("weekly policy required")
	}
	s := &service{
		repo:   repo,
		policy: policy,
		logg:   logg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GetOrCreateCurrentGame returns the earliest bettable game, creating the
// next one when none exists.
func (s *service) GetOrCreateCurrentGame(ctx context.Context) (*models.Game, error) {
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		now := s.now()
		game, err := s.repo.FindFirstBettable(ctx, now)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not load current game")
		}
		if game != nil {
			return game, nil
		}

		candidate := s.policy.WeekAt(now)
		for !s.policy.Schedule(candidate).Deadline.After(now) {
			candidate = candidate.Next()
		}
		latest, err := s.repo.FindLatest(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not load latest game")
		}
		if latest != nil {
			if week := (Week{Year: latest.Year, Number: latest.WeekNumber}); week.Compare(candidate) >= 0 {
				candidate = week.Next()
			}
		}

		game, err = s.ensureWeek(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if game.CanBet(s.now()) {
			return game, nil
		}
		if s.logg != nil {
			s.logg.Warn(s.logg.WithGameID(ctx, game.ID.String()), fmt.Sprintf("game for %s no longer bettable after creation, retrying", candidate))
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNoFutureGame, "no bettable game available")
}

// GetOrCreateGamesForWeeks returns n consecutive games starting at the current
// bettable one, creating any missing weeks.
func (s *service) GetOrCreateGamesForWeeks(ctx context.Context, n int) ([]models.Game, error) {
	if n < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "week count must be at least 1")
	}
	current, err := s.GetOrCreateCurrentGame(ctx)
	if err != nil {
		return nil, err
	}
	games := make([]models.Game, 0, n)
	games = append(games, *current)

	week := Week{Year: current.Year, Number: current.WeekNumber}
	for len(games) < n {
		week = week.Next()
		game, err := s.ensureWeek(ctx, week)
		if err != nil {
			return nil, err
		}
		games = append(games, *game)
	}
	return games, nil
}

// ensureWeek inserts the week's game if missing and re-reads the stored row.
func (s *service) ensureWeek(ctx context.Context, week Week) (*models.Game, error) {
	schedule := s.policy.Schedule(week)
	draw := schedule.Draw
	candidate := &models.Game{
		Year:        week.Year,
		WeekNumber:  week.Number,
		StartTime:   schedule.Start,
		BetDeadline: schedule.Deadline,
		DrawDate:    &draw,
	}
	if err := s.repo.InsertIfAbsent(ctx, candidate); err != nil && !db.IsUniqueViolation(err, yearWeekConstraint) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not create game")
	}
	game, err := s.repo.FindByWeek(ctx, week)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not load game")
	}
	if game == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("game for %s missing after insert", week))
	}
	return game, nil
}

func (s *service) FindCurrentGame(ctx context.Context) (*GameView, error) {
	game, err := s.repo.FindFirstBettable(ctx, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not load current game")
	}
	if game == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no bettable game yet")
	}
	return s.View(ctx, *game)
}

func (s *service) GetGame(ctx context.Context, id uuid.UUID) (*GameView, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "game id is required")
	}
	game, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not load game")
	}
	if game == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "game not found")
	}
	return s.View(ctx, *game)
}

// View attaches revenue and settlement state to a game row.
func (s *service) View(ctx context.Context, game models.Game) (*GameView, error) {
	revenue, err := s.repo.Revenue(ctx, game.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not compute revenue")
	}
	settled, err := s.repo.IsSettled(ctx, game.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not load settlement")
	}
	view := NewGameView(game, settled, revenue, s.now())
	return &view, nil
}

func (s *service) RecordInPersonResults(ctx context.Context, gameID uuid.UUID, winners, prizePool int) (*GameView, error) {
	if gameID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "game id is required")
	}
	if winners < 0 || prizePool < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "in-person winners and prize pool must not be negative")
	}
	game, err := s.repo.FindByID(ctx, gameID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not load game")
	}
	if game == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "game not found")
	}
	settled, err := s.repo.IsSettled(ctx, gameID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not load settlement")
	}
	if settled {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadySettled, "game already settled")
	}
	rows, err := s.repo.SetInPersonResults(ctx, gameID, winners, prizePool)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not record in-person results")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadySettled, "game already settled")
	}
	game.InPersonWinners = &winners
	game.InPersonPrizePool = &prizePool
	return s.View(ctx, *game)
}
