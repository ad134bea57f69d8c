package games

import (
	"time"

	"github.com/google/uuid"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/db/models"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/enums"
)

// StateOf derives the lifecycle state from persisted facts and the clock.
// Open holds exactly when the game accepts bets, which includes a future
// week that was created early and is already bettable before it starts.
func StateOf(game models.Game, settled bool, now time.Time) enums.GameState {
	switch {
	case settled:
		return enums.GameStateSettled
	case game.IsDrawn():
		return enums.GameStateDrawn
	case game.CanBet(now):
		return enums.GameStateOpen
	case now.Before(game.StartTime):
		return enums.GameStateScheduled
	default:
		return enums.GameStateClosed
	}
}

// GameView is the API representation of a game with its derived fields.
type GameView struct {
	ID                uuid.UUID       `json:"id"`
	Year              int             `json:"year"`
	WeekNumber        int             `json:"weekNumber"`
	StartTime         time.Time       `json:"startTime"`
	BetDeadline       time.Time       `json:"betDeadline"`
	DrawDate          *time.Time      `json:"drawDate,omitempty"`
	WinningNumbers    *string         `json:"winningNumbers"`
	InPersonWinners   *int            `json:"inPersonWinners"`
	InPersonPrizePool *int            `json:"inPersonPrizePool"`
	DrawnAt           *time.Time      `json:"drawnAt,omitempty"`
	IsDrawn           bool            `json:"isDrawn"`
	CanBet            bool            `json:"canBet"`
	State             enums.GameState `json:"state"`
	Revenue           int             `json:"revenue"`
}

// NewGameView projects a game row into its API view.
func NewGameView(game models.Game, settled bool, revenue int, now time.Time) GameView {
	return GameView{
		ID:                game.ID,
		Year:              game.Year,
		WeekNumber:        game.WeekNumber,
		StartTime:         game.StartTime,
		BetDeadline:       game.BetDeadline,
		DrawDate:          game.DrawDate,
		WinningNumbers:    game.WinningNumbers,
		InPersonWinners:   game.InPersonWinners,
		InPersonPrizePool: game.InPersonPrizePool,
		DrawnAt:           game.DrawnAt,
		IsDrawn:           game.IsDrawn(),
		CanBet:            game.CanBet(now),
		State:             StateOf(game, settled, now),
		Revenue:           revenue,
	}
}
