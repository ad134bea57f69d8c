package draws

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/internal/bets"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/internal/games"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/db"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/db/models"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/enums"
	pkgerrors "github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/errors"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/logger"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/metrics"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/outbox"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/outbox/payloads"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/types"
)

const (
	defaultTxTimeout = 10 * time.Second
	adminRole        = enums.AccountRoleAdmin
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type gameViewer interface {
	View(ctx context.Context, game models.Game) (*games.GameView, error)
}

// Service fixes winning numbers and settles drawn games.
type Service interface {
	DrawWinningNumbers(ctx context.Context, gameID uuid.UUID, winningNumbers string, adminID uuid.UUID) (*games.GameView, error)
	Settle(ctx context.Context, gameID, adminID uuid.UUID) (*SettlementResult, error)
	GetSettlement(ctx context.Context, gameID uuid.UUID) (*SettlementResult, error)
}

// WinningBet is one digital bet that matched the draw.
type WinningBet struct {
	BetID     uuid.UUID `json:"betId"`
	AccountID uuid.UUID `json:"accountId"`
	Numbers   string    `json:"numbers"`
	Winnings  int       `json:"winnings"`
}

// SettlementResult is the persisted prize distribution of a game.
type SettlementResult struct {
	GameID          uuid.UUID    `json:"gameId"`
	WinningNumbers  string       `json:"winningNumbers"`
	Revenue         int          `json:"revenue"`
	PrizePool       int          `json:"prizePool"`
	DigitalWinners  int          `json:"digitalWinners"`
	InPersonWinners int          `json:"inPersonWinners"`
	ShareAmount     int          `json:"shareAmount"`
	Remainder       int          `json:"remainder"`
	RemainderBetID  *uuid.UUID   `json:"remainderBetId"`
	WinningBets     []WinningBet `json:"winningBets"`
	SettledBy       uuid.UUID    `json:"settledBy"`
	SettledAt       time.Time    `json:"settledAt"`
}

// ServiceParams wires the draw and settlement engine.
type ServiceParams struct {
	TX            db.TxRunner
	Repository    Repository
	Games         games.Repository
	Bets          bets.Repository
	Views         gameViewer
	Outbox        outboxPublisher
	PrizeShare    decimal.Decimal
	TxTimeout     time.Duration
	RetryAttempts int
	Metrics       *metrics.WagerMetrics
	Logger        *logger.Logger
	Now           func() time.Time
}

type service struct {
	tx            db.TxRunner
	repo          Repository
	games         games.Repository
	bets          bets.Repository
	views         gameViewer
	outbox        outboxPublisher
	prizeShare    decimal.Decimal
	txTimeout     time.Duration
	retryAttempts int
	metrics       *metrics.WagerMetrics
	logg          *logger.Logger
	now           func() time.Time
}

// NewService builds the draw and settlement engine.
func NewService(params ServiceParams) (Service, error) {
	if params.TX == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("settlement repository required")
	}
	if params.Games == nil {
		return nil, fmt.Errorf("game repository required")
	}
	if params.Bets == nil {
		return nil, fmt.Errorf("bet repository required")
	}
	if params.Views == nil {
		return nil, fmt.Errorf("game viewer required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if !params.PrizeShare.IsPositive() || params.PrizeShare.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("prize share must be in (0,1], got %s", params.PrizeShare)
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
		tx:            params.TX,
		repo:          params.Repository,
		games:         params.Games,
		bets:          params.Bets,
		views:         params.Views,
		outbox:        params.Outbox,
		prizeShare:    params.PrizeShare,
		txTimeout:     timeout,
		retryAttempts: params.RetryAttempts,
		metrics:       params.Metrics,
		logg:          params.Logger,
		now:           now,
	}, nil
}

func (s *service) DrawWinningNumbers(ctx context.Context, gameID uuid.UUID, winningNumbers string, adminID uuid.UUID) (*games.GameView, error) {
	game, err := s.draw(ctx, gameID, winningNumbers, adminID)
	s.metrics.ObserveDraw(err)
	if err != nil {
		return nil, s.surface(ctx, err, "could not draw winning numbers")
	}
	if s.logg != nil {
		logCtx := s.logg.WithGameID(ctx, game.ID.String())
		s.logg.Info(s.logg.WithField(logCtx, "winning_numbers", *game.WinningNumbers), "winning numbers drawn")
	}
	return s.views.View(ctx, *game)
}

func (s *service) draw(ctx context.Context, gameID uuid.UUID, raw string, adminID uuid.UUID) (*models.Game, error) {
	if gameID == uuid.Nil || adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "game id and admin id are required")
	}

	var drawn *models.Game
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		repo := s.games.WithTx(tx)
		game, err := repo.FindByIDForUpdate(ctx, gameID)
		if err != nil {
			return fmt.Errorf("lock game: %w", err)
		}
		if game == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "game not found")
		}
		if game.IsDrawn() {
			return pkgerrors.New(pkgerrors.CodeAlreadyDrawn, "winning numbers already drawn").
				WithDetails(map[string]any{"winningNumbers": *game.WinningNumbers})
		}
		winning, err := types.ParseWinningNumbers(raw)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInvalidWinningNumbers, err, err.Error())
		}

		at := s.now().UTC()
		canonical := winning.String()
		rows, err := repo.SetWinningNumbers(ctx, game.ID, canonical, adminID, at)
		if err != nil {
			return fmt.Errorf("set winning numbers: %w", err)
		}
		if rows != 1 {
			return pkgerrors.New(pkgerrors.CodeAlreadyDrawn, "winning numbers already drawn")
		}
		game.WinningNumbers = &canonical
		game.DrawnAt = &at
		game.DrawnBy = &adminID

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventGameDrawn,
			AggregateType: enums.AggregateGame,
			AggregateID:   game.ID,
			Actor:         &outbox.ActorRef{AccountID: adminID, Role: adminRole.String()},
			Data: payloads.GameDrawnEvent{
				GameID:         game.ID,
				Year:           game.Year,
				WeekNumber:     game.WeekNumber,
				WinningNumbers: canonical,
				DrawnBy:        adminID,
				DrawnAt:        at,
			},
			Version: 1,
		}); err != nil {
			return fmt.Errorf("emit game drawn: %w", err)
		}
		drawn = game
		return nil
	})
	if err != nil {
		return nil, err
	}
	return drawn, nil
}

func (s *service) Settle(ctx context.Context, gameID, adminID uuid.UUID) (*SettlementResult, error) {
	result, err := s.settle(ctx, gameID, adminID)
	if err != nil {
		s.metrics.ObserveSettlement(err, 0, 0)
		return nil, s.surface(ctx, err, "could not settle game")
	}
	s.metrics.ObserveSettlement(nil, result.PrizePool, len(result.WinningBets))
	if s.logg != nil {
		logCtx := s.logg.WithGameID(ctx, gameID.String())
		s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
			"prize_pool":      result.PrizePool,
			"digital_winners": result.DigitalWinners,
			"share_amount":    result.ShareAmount,
		}), "game settled")
	}
	return result, nil
}

func (s *service) settle(ctx context.Context, gameID, adminID uuid.UUID) (*SettlementResult, error) {
	if gameID == uuid.Nil || adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "game id and admin id are required")
	}

	var result *SettlementResult
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		gameRepo := s.games.WithTx(tx)
		game, err := gameRepo.FindByIDForUpdate(ctx, gameID)
		if err != nil {
			return fmt.Errorf("lock game: %w", err)
		}
		if game == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "game not found")
		}
		if !game.IsDrawn() {
			return pkgerrors.New(pkgerrors.CodeGameNotDrawn, "game has not been drawn")
		}
		existing, err := s.repo.WithTx(tx).FindByGameID(ctx, game.ID)
		if err != nil {
			return fmt.Errorf("load settlement: %w", err)
		}
		if existing != nil {
			return pkgerrors.New(pkgerrors.CodeAlreadySettled, "game already settled")
		}

		winning, err := types.ParseWinningNumbers(*game.WinningNumbers)
		if err != nil {
			return fmt.Errorf("stored winning numbers: %w", err)
		}
		live, err := s.bets.WithTx(tx).ListLiveByGame(ctx, game.ID)
		if err != nil {
			return fmt.Errorf("list bets: %w", err)
		}
		winners := make([]models.Bet, 0)
		winnerIDs := make([]uuid.UUID, 0)
		for _, bet := range live {
			selection, err := types.ParseSelection(bet.SelectedNumbers)
			if err != nil {
				return fmt.Errorf("stored selection of bet %s: %w", bet.ID, err)
			}
			if winning.IsGuessedBy(selection) {
				winners = append(winners, bet)
				winnerIDs = append(winnerIDs, bet.ID)
			}
		}

		revenue, err := gameRepo.Revenue(ctx, game.ID)
		if err != nil {
			return fmt.Errorf("revenue: %w", err)
		}
		payout := ComputePayout(PayoutInput{
			Revenue:           revenue,
			PrizeShare:        s.prizeShare,
			InPersonWinners:   derefInt(game.InPersonWinners),
			InPersonPrizePool: derefInt(game.InPersonPrizePool),
			WinningBetIDs:     winnerIDs,
		})

		betRepo := s.bets.WithTx(tx)
		for _, bet := range live {
			amount, won := payout.Winnings[bet.ID]
			if err := betRepo.SetOutcome(ctx, bet.ID, won, amount); err != nil {
				return fmt.Errorf("set outcome of bet %s: %w", bet.ID, err)
			}
		}

		settlement := &models.Settlement{
			GameID:          game.ID,
			Revenue:         revenue,
			PrizePool:       payout.PrizePool,
			DigitalWinners:  len(winners),
			InPersonWinners: derefInt(game.InPersonWinners),
			ShareAmount:     payout.ShareAmount,
			Remainder:       payout.Remainder,
			RemainderBetID:  payout.RemainderBetID,
			SettledBy:       adminID,
			SettledAt:       s.now().UTC(),
		}
		if err := s.repo.WithTx(tx).Create(ctx, settlement); err != nil {
			if db.IsUniqueViolation(err, settlementGameConstraint) {
				return pkgerrors.New(pkgerrors.CodeAlreadySettled, "game already settled")
			}
			return fmt.Errorf("insert settlement: %w", err)
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventGameSettled,
			AggregateType: enums.AggregateGame,
			AggregateID:   game.ID,
			Actor:         &outbox.ActorRef{AccountID: adminID, Role: adminRole.String()},
			Data: payloads.GameSettledEvent{
				GameID:          game.ID,
				Revenue:         revenue,
				PrizePool:       payout.PrizePool,
				DigitalWinners:  len(winners),
				InPersonWinners: settlement.InPersonWinners,
				ShareAmount:     payout.ShareAmount,
				Remainder:       payout.Remainder,
				WinningBetIDs:   winnerIDs,
				SettledAt:       settlement.SettledAt,
			},
			Version: 1,
		}); err != nil {
			return fmt.Errorf("emit game settled: %w", err)
		}

		result = toResult(settlement, winning.String(), winners, payout.Winnings)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) GetSettlement(ctx context.Context, gameID uuid.UUID) (*SettlementResult, error) {
	if gameID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "game id is required")
	}
	game, err := s.games.FindByID(ctx, gameID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not load game")
	}
	if game == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "game not found")
	}
	settlement, err := s.repo.FindByGameID(ctx, gameID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not load settlement")
	}
	if settlement == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "game not settled")
	}
	live, err := s.bets.ListLiveByGame(ctx, gameID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not load bets")
	}
	winners := make([]models.Bet, 0)
	winnings := make(map[uuid.UUID]int)
	for _, bet := range live {
		if bet.IsWinning {
			winners = append(winners, bet)
			winnings[bet.ID] = bet.Winnings
		}
	}
	numbers := ""
	if game.WinningNumbers != nil {
		numbers = *game.WinningNumbers
	}
	return toResult(settlement, numbers, winners, winnings), nil
}

func (s *service) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()
	return db.RetryTx(txCtx, s.tx, s.retryAttempts, fn)
}

func (s *service) surface(ctx context.Context, err error, message string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if s.logg != nil {
		s.logg.Error(ctx, message, err)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, message)
}

func toResult(settlement *models.Settlement, winningNumbers string, winners []models.Bet, winnings map[uuid.UUID]int) *SettlementResult {
	out := &SettlementResult{
		GameID:          settlement.GameID,
		WinningNumbers:  winningNumbers,
		Revenue:         settlement.Revenue,
		PrizePool:       settlement.PrizePool,
		DigitalWinners:  settlement.DigitalWinners,
		InPersonWinners: settlement.InPersonWinners,
		ShareAmount:     settlement.ShareAmount,
		Remainder:       settlement.Remainder,
		RemainderBetID:  settlement.RemainderBetID,
		WinningBets:     make([]WinningBet, 0, len(winners)),
		SettledBy:       settlement.SettledBy,
		SettledAt:       settlement.SettledAt,
	}
	for _, bet := range winners {
		out.WinningBets = append(out.WinningBets, WinningBet{
			BetID:     bet.ID,
			AccountID: bet.AccountID,
			Numbers:   bet.SelectedNumbers,
			Winnings:  winnings[bet.ID],
		})
	}
	return out
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
