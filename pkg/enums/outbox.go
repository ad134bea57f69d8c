package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateBet       OutboxAggregateType = "bet"
	AggregateBetSeries OutboxAggregateType = "bet_series"
	AggregateGame      OutboxAggregateType = "game"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateBet,
	AggregateBetSeries,
	AggregateGame,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventBetPlaced       OutboxEventType = "bet_placed"
	EventBetSeriesPlaced OutboxEventType = "bet_series_placed"
	EventBetCancelled    OutboxEventType = "bet_cancelled"
	EventGameDrawn       OutboxEventType = "game_drawn"
	EventGameSettled     OutboxEventType = "game_settled"
	EventGameDrawOverdue OutboxEventType = "game_draw_overdue"
)

var validOutboxEventTypes = []OutboxEventType{
	EventBetPlaced,
	EventBetSeriesPlaced,
	EventBetCancelled,
	EventGameDrawn,
	EventGameSettled,
	EventGameDrawOverdue,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
