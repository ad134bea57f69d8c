package payloads

import (
	"time"

	"github.com/google/uuid"
)

// BetPlacedEvent is emitted once a single-week wager is committed.
type BetPlacedEvent struct {
	BetID         uuid.UUID `json:"betId"`
	AccountID     uuid.UUID `json:"accountId"`
	GameID        uuid.UUID `json:"gameId"`
	LedgerEntryID uuid.UUID `json:"ledgerEntryId"`
	Numbers       string    `json:"numbers"`
	Count         int       `json:"count"`
	Price         int       `json:"price"`
	PlacedAt      time.Time `json:"placedAt"`
}

// BetSeriesPlacedEvent covers every wager of a multi-week purchase.
type BetSeriesPlacedEvent struct {
	SeriesID     uuid.UUID   `json:"seriesId"`
	AccountID    uuid.UUID   `json:"accountId"`
	BetIDs       []uuid.UUID `json:"betIds"`
	GameIDs      []uuid.UUID `json:"gameIds"`
	Numbers      string      `json:"numbers"`
	PricePerWeek int         `json:"pricePerWeek"`
	Weeks        int         `json:"weeks"`
	PlacedAt     time.Time   `json:"placedAt"`
}

// BetCancelledEvent reports a soft-deleted wager and its refund entry.
type BetCancelledEvent struct {
	BetID         uuid.UUID  `json:"betId"`
	AccountID     uuid.UUID  `json:"accountId"`
	GameID        uuid.UUID  `json:"gameId"`
	SeriesID      *uuid.UUID `json:"seriesId,omitempty"`
	RefundEntryID uuid.UUID  `json:"refundEntryId"`
	Amount        int        `json:"amount"`
	CancelledAt   time.Time  `json:"cancelledAt"`
}

// GameDrawnEvent announces the winning numbers of a game.
type GameDrawnEvent struct {
	GameID         uuid.UUID `json:"gameId"`
	Year           int       `json:"year"`
	WeekNumber     int       `json:"weekNumber"`
	WinningNumbers string    `json:"winningNumbers"`
	DrawnBy        uuid.UUID `json:"drawnBy"`
	DrawnAt        time.Time `json:"drawnAt"`
}

// GameSettledEvent summarises the prize distribution of a game.
type GameSettledEvent struct {
	GameID          uuid.UUID   `json:"gameId"`
	Revenue         int         `json:"revenue"`
	PrizePool       int         `json:"prizePool"`
	DigitalWinners  int         `json:"digitalWinners"`
	InPersonWinners int         `json:"inPersonWinners"`
	ShareAmount     int         `json:"shareAmount"`
	Remainder       int         `json:"remainder"`
	WinningBetIDs   []uuid.UUID `json:"winningBetIds"`
	SettledAt       time.Time   `json:"settledAt"`
}

// GameDrawOverdueEvent flags a game whose draw date passed without a draw.
type GameDrawOverdueEvent struct {
	GameID     uuid.UUID `json:"gameId"`
	Year       int       `json:"year"`
	WeekNumber int       `json:"weekNumber"`
	DrawDate   time.Time `json:"drawDate"`
	DetectedAt time.Time `json:"detectedAt"`
}
