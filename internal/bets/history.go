package bets

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/db/models"
	pkgerrors "github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/errors"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/pagination"
)

// BetView is one row of a player's bet history.
type BetView struct {
	WagerID     uuid.UUID  `json:"wagerId"`
	GameID      uuid.UUID  `json:"gameId"`
	SeriesID    *uuid.UUID `json:"seriesId,omitempty"`
	Numbers     string     `json:"numbers"`
	Count       int        `json:"count"`
	Price       int        `json:"price"`
	IsWinning   bool       `json:"isWinning"`
	Winnings    int        `json:"winnings"`
	CreatedAt   time.Time  `json:"createdAt"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
}

// BetPage is a cursor page of bet history. Cursor is empty on the last page.
type BetPage struct {
	Bets   []BetView `json:"bets"`
	Cursor string    `json:"cursor"`
}

func (s *service) ListBets(ctx context.Context, accountID uuid.UUID, params pagination.Params) (*BetPage, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListByAccount(ctx, accountID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, s.surface(ctx, err, "could not list bets")
	}

	page := &BetPage{Bets: make([]BetView, 0, len(rows))}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[limit-1]
		page.Cursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	for _, row := range rows {
		page.Bets = append(page.Bets, toBetView(row))
	}
	return page, nil
}

func toBetView(bet models.Bet) BetView {
	return BetView{
		WagerID:     bet.ID,
		GameID:      bet.GameID,
		SeriesID:    bet.SeriesID,
		Numbers:     bet.SelectedNumbers,
		Count:       bet.NumberCount,
		Price:       bet.Price,
		IsWinning:   bet.IsWinning,
		Winnings:    bet.Winnings,
		CreatedAt:   bet.CreatedAt,
		CancelledAt: bet.DeletedAt,
	}
}
