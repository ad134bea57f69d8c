package enums

// GameState is derived from persisted game facts and the clock; it is never stored.
type GameState string

const (
	GameStateScheduled GameState = "scheduled"
	GameStateOpen      GameState = "open"
	GameStateClosed    GameState = "closed"
	GameStateDrawn     GameState = "drawn"
	GameStateSettled   GameState = "settled"
)
