package bets

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/internal/games"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/internal/ledger"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/db"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/db/models"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/enums"
	pkgerrors "github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/errors"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/logger"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/metrics"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/outbox"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/outbox/payloads"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/pagination"
)

const (
	defaultTxTimeout      = 3 * time.Second
	defaultMaxSeriesWeeks = 52
	playerRole            = enums.AccountRolePlayer
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type scheduler interface {
	GetOrCreateCurrentGame(ctx context.Context) (*models.Game, error)
	GetOrCreateGamesForWeeks(ctx context.Context, n int) ([]models.Game, error)
}

type gameLocker interface {
	WithTx(tx *gorm.DB) games.Repository
}

// Service places and cancels wagers.
type Service interface {
	PlaceBet(ctx context.Context, accountID uuid.UUID, numbers []int, price int) (*PlacedBet, error)
	PlaceBetSeries(ctx context.Context, accountID uuid.UUID, numbers []int, pricePerWeek, repeatWeeks int) (*PlacedSeries, error)
	CancelBet(ctx context.Context, accountID, betID uuid.UUID) (*CancelledBet, error)
	CancelSeries(ctx context.Context, accountID, seriesID uuid.UUID) ([]CancelledBet, error)
	ListBets(ctx context.Context, accountID uuid.UUID, params pagination.Params) (*BetPage, error)
}

// PlacedBet describes a committed wager.
type PlacedBet struct {
	WagerID          uuid.UUID `json:"wagerId"`
	GameID           uuid.UUID `json:"gameId"`
	CanonicalNumbers string    `json:"canonicalNumbers"`
	Count            int       `json:"count"`
	Price            int       `json:"price"`
	CreatedAt        time.Time `json:"createdAt"`
}

// PlacedSeries lists the wagers of a multi-week purchase in game order.
// SeriesID is nil when a single week was requested.
type PlacedSeries struct {
	SeriesID *uuid.UUID  `json:"seriesId"`
	Bets     []PlacedBet `json:"bets"`
}

// WagerIDs returns the bet ids in game order.
func (p PlacedSeries) WagerIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(p.Bets))
	for i, bet := range p.Bets {
		ids[i] = bet.WagerID
	}
	return ids
}

// CancelledBet describes a refunded wager.
type CancelledBet struct {
	WagerID       uuid.UUID `json:"wagerId"`
	GameID        uuid.UUID `json:"gameId"`
	RefundEntryID uuid.UUID `json:"refundEntryId"`
	Amount        int       `json:"amount"`
	CancelledAt   time.Time `json:"cancelledAt"`
}

// ServiceParams wires the wager engine.
type ServiceParams struct {
	TX             db.TxRunner
	Repository     Repository
	Ledger         ledger.Service
	Scheduler      scheduler
	Games          gameLocker
	Outbox         outboxPublisher
	Prices         PriceSchedule
	MaxSeriesWeeks int
	TxTimeout      time.Duration
	RetryAttempts  int
	Metrics        *metrics.WagerMetrics
	Logger         *logger.Logger
	Now            func() time.Time
}

type service struct {
	tx             db.TxRunner
	repo           Repository
	ledger         ledger.Service
	scheduler      scheduler
	games          gameLocker
	outbox         outboxPublisher
	prices         PriceSchedule
	maxSeriesWeeks int
	txTimeout      time.Duration
	retryAttempts  int
	metrics        *metrics.WagerMetrics
	logg           *logger.Logger
	now            func() time.Time
}

// NewService builds the wager engine.
func NewService(params ServiceParams) (Service, error) {
	if params.TX == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("bet repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Scheduler == nil {
		return nil, fmt.Errorf("game scheduler required")
	}
	if params.Games == nil {
		return nil, fmt.Errorf("game repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if len(params.Prices) == 0 {
		return nil, fmt.Errorf("price schedule required")
	}
	maxWeeks := params.MaxSeriesWeeks
	if maxWeeks <= 0 {
		maxWeeks = defaultMaxSeriesWeeks
	}
	timeout := params.TxTimeout
	if timeout <= 0 {
		timeout = defaultTxTimeout
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		tx:             params.TX,
		repo:           params.Repository,
		ledger:         params.Ledger,
		scheduler:      params.Scheduler,
		games:          params.Games,
		outbox:         params.Outbox,
		prices:         params.Prices,
		maxSeriesWeeks: maxWeeks,
		txTimeout:      timeout,
		retryAttempts:  params.RetryAttempts,
		metrics:        params.Metrics,
		logg:           params.Logger,
		now:            now,
	}, nil
}

func (s *service) PlaceBet(ctx context.Context, accountID uuid.UUID, numbers []int, price int) (*PlacedBet, error) {
	start := time.Now()
	placed, err := s.placeBet(ctx, accountID, numbers, price)
	s.metrics.ObserveBet(metrics.BetKindSingle, err, time.Since(start), price)
	if err != nil {
		return nil, s.surface(ctx, err, "could not place bet")
	}
	s.logInfo(ctx, accountID, map[string]any{"bet_id": placed.WagerID.String(), "game_id": placed.GameID.String(), "price": price}, "bet placed")
	return placed, nil
}

func (s *service) placeBet(ctx context.Context, accountID uuid.UUID, numbers []int, price int) (*PlacedBet, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	selection, err := s.prices.Validate(numbers, price)
	if err != nil {
		return nil, err
	}
	if err := s.checkBalance(ctx, accountID, price); err != nil {
		return nil, err
	}
	game, err := s.scheduler.GetOrCreateCurrentGame(ctx)
	if err != nil {
		return nil, err
	}
	if !game.CanBet(s.now()) {
		return nil, bettingClosed(game)
	}

	var placed *PlacedBet
	err = s.inTx(ctx, func(tx *gorm.DB) error {
		if err := s.lockFunds(ctx, tx, accountID, price); err != nil {
			return err
		}
		if err := s.lockBettable(ctx, tx, game.ID); err != nil {
			return err
		}
		bet, err := s.insertBet(ctx, tx, accountID, game.ID, selection.String(), selection.Count(), price, nil)
		if err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBetPlaced,
			AggregateType: enums.AggregateBet,
			AggregateID:   bet.ID,
			Actor:         &outbox.ActorRef{AccountID: accountID, Role: playerRole.String()},
			Data: payloads.BetPlacedEvent{
				BetID:         bet.ID,
				AccountID:     accountID,
				GameID:        game.ID,
				LedgerEntryID: bet.LedgerEntryID,
				Numbers:       bet.SelectedNumbers,
				Count:         bet.NumberCount,
				Price:         bet.Price,
				PlacedAt:      bet.CreatedAt,
			},
			Version: 1,
		}); err != nil {
			return fmt.Errorf("emit bet placed: %w", err)
		}
		placed = toPlacedBet(bet)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

func (s *service) PlaceBetSeries(ctx context.Context, accountID uuid.UUID, numbers []int, pricePerWeek, repeatWeeks int) (*PlacedSeries, error) {
	if repeatWeeks == 1 {
		placed, err := s.PlaceBet(ctx, accountID, numbers, pricePerWeek)
		if err != nil {
			return nil, err
		}
		return &PlacedSeries{Bets: []PlacedBet{*placed}}, nil
	}

	start := time.Now()
	series, err := s.placeSeries(ctx, accountID, numbers, pricePerWeek, repeatWeeks)
	s.metrics.ObserveBet(metrics.BetKindSeries, err, time.Since(start), pricePerWeek*repeatWeeks)
	if err != nil {
		return nil, s.surface(ctx, err, "could not place bet series")
	}
	s.logInfo(ctx, accountID, map[string]any{"series_id": series.SeriesID.String(), "weeks": repeatWeeks}, "bet series placed")
	return series, nil
}

func (s *service) placeSeries(ctx context.Context, accountID uuid.UUID, numbers []int, pricePerWeek, repeatWeeks int) (*PlacedSeries, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	selection, err := s.prices.Validate(numbers, pricePerWeek)
	if err != nil {
		return nil, err
	}
	if repeatWeeks < 1 || repeatWeeks > s.maxSeriesWeeks {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("repeat weeks must be between 1 and %d", s.maxSeriesWeeks))
	}
	total := pricePerWeek * repeatWeeks
	if err := s.checkBalance(ctx, accountID, total); err != nil {
		return nil, err
	}

	resolved, err := s.scheduler.GetOrCreateGamesForWeeks(ctx, repeatWeeks)
	if err != nil {
		return nil, err
	}
	if err := checkSeriesGames(resolved, repeatWeeks); err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithAccountID(ctx, accountID.String()), "scheduler returned an invalid series", err)
		}
		return nil, err
	}

	seriesID := uuid.New()
	series := &PlacedSeries{SeriesID: &seriesID, Bets: make([]PlacedBet, 0, repeatWeeks)}
	err = s.inTx(ctx, func(tx *gorm.DB) error {
		series.Bets = series.Bets[:0]
		if err := s.lockFunds(ctx, tx, accountID, total); err != nil {
			return err
		}
		betIDs := make([]uuid.UUID, 0, repeatWeeks)
		gameIDs := make([]uuid.UUID, 0, repeatWeeks)
		for _, game := range resolved {
			if err := s.lockBettable(ctx, tx, game.ID); err != nil {
				return err
			}
			bet, err := s.insertBet(ctx, tx, accountID, game.ID, selection.String(), selection.Count(), pricePerWeek, &seriesID)
			if err != nil {
				return err
			}
			betIDs = append(betIDs, bet.ID)
			gameIDs = append(gameIDs, game.ID)
			series.Bets = append(series.Bets, *toPlacedBet(bet))
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBetSeriesPlaced,
			AggregateType: enums.AggregateBetSeries,
			AggregateID:   seriesID,
			Actor:         &outbox.ActorRef{AccountID: accountID, Role: playerRole.String()},
			Data: payloads.BetSeriesPlacedEvent{
				SeriesID:     seriesID,
				AccountID:    accountID,
				BetIDs:       betIDs,
				GameIDs:      gameIDs,
				Numbers:      selection.String(),
				PricePerWeek: pricePerWeek,
				Weeks:        repeatWeeks,
				PlacedAt:     s.now().UTC(),
			},
			Version: 1,
		}); err != nil {
			return fmt.Errorf("emit bet series placed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return series, nil
}

func checkSeriesGames(resolved []models.Game, weeks int) error {
	if len(resolved) != weeks {
		return pkgerrors.New(pkgerrors.CodeScheduling, fmt.Sprintf("scheduler returned %d games for %d weeks", len(resolved), weeks))
	}
	seen := make(map[uuid.UUID]struct{}, len(resolved))
	for i, game := range resolved {
		if _, dup := seen[game.ID]; dup {
			return pkgerrors.New(pkgerrors.CodeScheduling, "scheduler returned a duplicate game")
		}
		seen[game.ID] = struct{}{}
		if i > 0 {
			prev := games.Week{Year: resolved[i-1].Year, Number: resolved[i-1].WeekNumber}
			if prev.Next() != (games.Week{Year: game.Year, Number: game.WeekNumber}) {
				return pkgerrors.New(pkgerrors.CodeScheduling, "scheduler returned non-consecutive weeks")
			}
		}
	}
	return nil
}

func (s *service) CancelBet(ctx context.Context, accountID, betID uuid.UUID) (*CancelledBet, error) {
	if accountID == uuid.Nil || betID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id and bet id are required")
	}
	bet, err := s.repo.FindByID(ctx, betID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not load bet")
	}
	if bet == nil || bet.AccountID != accountID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bet not found")
	}
	if bet.DeletedAt != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "bet already cancelled")
	}

	var cancelled *CancelledBet
	err = s.inTx(ctx, func(tx *gorm.DB) error {
		if err := s.ledger.LockAccount(ctx, tx, accountID); err != nil {
			return err
		}
		if err := s.lockBettable(ctx, tx, bet.GameID); err != nil {
			return err
		}
		result, err := s.cancelOne(ctx, tx, *bet)
		if err != nil {
			return err
		}
		cancelled = result
		return nil
	})
	if err != nil {
		return nil, s.surface(ctx, err, "could not cancel bet")
	}
	s.metrics.IncCancelled(1)
	s.logInfo(ctx, accountID, map[string]any{"bet_id": betID.String()}, "bet cancelled")
	return cancelled, nil
}

func (s *service) CancelSeries(ctx context.Context, accountID, seriesID uuid.UUID) ([]CancelledBet, error) {
	if accountID == uuid.Nil || seriesID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id and series id are required")
	}

	var cancelled []CancelledBet
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		cancelled = cancelled[:0]
		if err := s.ledger.LockAccount(ctx, tx, accountID); err != nil {
			return err
		}
		live, err := s.repo.WithTx(tx).ListLiveBySeries(ctx, accountID, seriesID)
		if err != nil {
			return fmt.Errorf("list series bets: %w", err)
		}
		for _, bet := range live {
			if err := s.lockBettable(ctx, tx, bet.GameID); err != nil {
				if pkgerrors.Is(err, pkgerrors.CodeBettingClosed) {
					continue
				}
				return err
			}
			result, err := s.cancelOne(ctx, tx, bet)
			if err != nil {
				return err
			}
			cancelled = append(cancelled, *result)
		}
		if len(cancelled) == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "no cancellable bets in series")
		}
		return nil
	})
	if err != nil {
		return nil, s.surface(ctx, err, "could not cancel bet series")
	}
	s.metrics.IncCancelled(len(cancelled))
	s.logInfo(ctx, accountID, map[string]any{"series_id": seriesID.String(), "cancelled": len(cancelled)}, "bet series cancelled")
	return cancelled, nil
}

// cancelOne soft-deletes the bet and refunds its price. The caller holds the
// account and game locks.
func (s *service) cancelOne(ctx context.Context, tx *gorm.DB, bet models.Bet) (*CancelledBet, error) {
	at := s.now().UTC()
	rows, err := s.repo.WithTx(tx).SoftDelete(ctx, bet.ID, at)
	if err != nil {
		return nil, fmt.Errorf("soft delete bet: %w", err)
	}
	if rows != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "bet already cancelled")
	}
	refund, err := s.ledger.RecordRefund(ctx, tx, bet.AccountID, bet.Price)
	if err != nil {
		return nil, err
	}
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventBetCancelled,
		AggregateType: enums.AggregateBet,
		AggregateID:   bet.ID,
		Actor:         &outbox.ActorRef{AccountID: bet.AccountID, Role: playerRole.String()},
		Data: payloads.BetCancelledEvent{
			BetID:         bet.ID,
			AccountID:     bet.AccountID,
			GameID:        bet.GameID,
			SeriesID:      bet.SeriesID,
			RefundEntryID: refund.ID,
			Amount:        refund.Amount,
			CancelledAt:   at,
		},
		Version: 1,
	}); err != nil {
		return nil, fmt.Errorf("emit bet cancelled: %w", err)
	}
	return &CancelledBet{
		WagerID:       bet.ID,
		GameID:        bet.GameID,
		RefundEntryID: refund.ID,
		Amount:        refund.Amount,
		CancelledAt:   at,
	}, nil
}

func (s *service) checkBalance(ctx context.Context, accountID uuid.UUID, cost int) error {
	balance, err := s.ledger.GetBalance(ctx, accountID)
	if err != nil {
		return err
	}
	if balance < cost {
		return insufficientFunds()
	}
	return nil
}

// lockFunds serialises the account and re-checks the balance inside tx.
func (s *service) lockFunds(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, cost int) error {
	if err := s.ledger.LockAccount(ctx, tx, accountID); err != nil {
		return err
	}
	balance, err := s.ledger.GetBalanceTx(ctx, tx, accountID)
	if err != nil {
		return fmt.Errorf("balance in tx: %w", err)
	}
	if balance < cost {
		return insufficientFunds()
	}
	return nil
}

// lockBettable takes a shared lock on the game so a concurrent draw waits for
// this transaction, then re-checks that bets are still accepted.
func (s *service) lockBettable(ctx context.Context, tx *gorm.DB, gameID uuid.UUID) error {
	game, err := s.games.WithTx(tx).FindByIDForShare(ctx, gameID)
	if err != nil {
		return fmt.Errorf("lock game: %w", err)
	}
	if game == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "game not found")
	}
	if !game.CanBet(s.now()) {
		return bettingClosed(game)
	}
	return nil
}

func (s *service) insertBet(ctx context.Context, tx *gorm.DB, accountID, gameID uuid.UUID, numbers string, count, price int, seriesID *uuid.UUID) (*models.Bet, error) {
	entry, err := s.ledger.RecordPurchase(ctx, tx, accountID, price)
	if err != nil {
		return nil, err
	}
	bet := &models.Bet{
		AccountID:       accountID,
		GameID:          gameID,
		LedgerEntryID:   entry.ID,
		SelectedNumbers: numbers,
		NumberCount:     count,
		Price:           price,
		SeriesID:        seriesID,
	}
	if err := s.repo.WithTx(tx).Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("insert bet: %w", err)
	}
	return bet, nil
}

func (s *service) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()
	return db.RetryTx(txCtx, s.tx, s.retryAttempts, fn)
}

// surface passes typed errors through and hides everything else behind a
// generic internal error.
func (s *service) surface(ctx context.Context, err error, message string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if s.logg != nil {
		s.logg.Error(ctx, message, err)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, message)
}

func (s *service) logInfo(ctx context.Context, accountID uuid.UUID, fields map[string]any, msg string) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithAccountID(ctx, accountID.String())
	s.logg.Info(s.logg.WithFields(logCtx, fields), msg)
}

func insufficientFunds() error {
	return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "insufficient funds")
}

func bettingClosed(game *models.Game) error {
	return pkgerrors.New(pkgerrors.CodeBettingClosed, "betting is closed for this game").
		WithDetails(map[string]any{"gameId": game.ID, "year": game.Year, "weekNumber": game.WeekNumber})
}

func toPlacedBet(bet *models.Bet) *PlacedBet {
	return &PlacedBet{
		WagerID:          bet.ID,
		GameID:           bet.GameID,
		CanonicalNumbers: bet.SelectedNumbers,
		Count:            bet.NumberCount,
		Price:            bet.Price,
		CreatedAt:        bet.CreatedAt,
	}
}
