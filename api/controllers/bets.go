package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/api/responses"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/api/validators"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/internal/bets"
	pkgerrors "github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/errors"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/logger"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/pagination"
)

type betPlacer interface {
	PlaceBet(ctx context.Context, accountID uuid.UUID, numbers []int, price int) (*bets.PlacedBet, error)
	PlaceBetSeries(ctx context.Context, accountID uuid.UUID, numbers []int, pricePerWeek, repeatWeeks int) (*bets.PlacedSeries, error)
}

type betCanceller interface {
	CancelBet(ctx context.Context, accountID, betID uuid.UUID) (*bets.CancelledBet, error)
	CancelSeries(ctx context.Context, accountID, seriesID uuid.UUID) ([]bets.CancelledBet, error)
}

type betLister interface {
	ListBets(ctx context.Context, accountID uuid.UUID, params pagination.Params) (*bets.BetPage, error)
}

// Selection and price rules live in the wager engine so they surface as
// INVALID_SELECTION rather than generic validation failures.
type placeBetRequest struct {
	Numbers     []int `json:"numbers" validate:"required"`
	Count       int   `json:"count"`
	Price       int   `json:"price"`
	RepeatWeeks int   `json:"repeatWeeks" validate:"omitempty,min=1"`
}

type placeBetResponse struct {
	Success          bool        `json:"success"`
	Message          string      `json:"message"`
	WagerID          uuid.UUID   `json:"wagerId"`
	CanonicalNumbers string      `json:"canonicalNumbers"`
	Count            int         `json:"count"`
	Price            int         `json:"price"`
	CreatedAt        time.Time   `json:"createdAt"`
	WagerIDs         []uuid.UUID `json:"wagerIds,omitempty"`
	SeriesID         *uuid.UUID  `json:"seriesId,omitempty"`
}

// PlaceBet debits the caller and records a wager on the current game, or on
// repeatWeeks consecutive games.
func PlaceBet(svc betPlacer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := callerID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placeBetRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Count != len(payload.Numbers) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInvalidSelection, "count must match the number of selected numbers").
				WithDetails(map[string]any{"count": payload.Count, "numbers": len(payload.Numbers)}))
			return
		}

		if payload.RepeatWeeks <= 1 {
			placed, err := svc.PlaceBet(r.Context(), accountID, payload.Numbers, payload.Price)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccessStatus(w, http.StatusCreated, newPlaceBetResponse(*placed, "bet placed"))
			return
		}

		series, err := svc.PlaceBetSeries(r.Context(), accountID, payload.Numbers, payload.Price, payload.RepeatWeeks)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(series.Bets) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeScheduling, "series produced no bets"))
			return
		}
		resp := newPlaceBetResponse(series.Bets[0], "bet series placed")
		resp.WagerIDs = series.WagerIDs()
		resp.SeriesID = series.SeriesID
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}

func newPlaceBetResponse(bet bets.PlacedBet, message string) placeBetResponse {
	return placeBetResponse{
		Success:          true,
		Message:          message,
		WagerID:          bet.WagerID,
		CanonicalNumbers: bet.CanonicalNumbers,
		Count:            bet.Count,
		Price:            bet.Price,
		CreatedAt:        bet.CreatedAt,
	}
}

// CancelBet refunds one of the caller's bets while its game is still open.
func CancelBet(svc betCanceller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := callerID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		betID, err := validators.ParseUUIDParam(r, "betId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cancelled, err := svc.CancelBet(r.Context(), accountID, betID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cancelled)
	}
}

type cancelSeriesResponse struct {
	SeriesID  uuid.UUID           `json:"seriesId"`
	Cancelled []bets.CancelledBet `json:"cancelled"`
	WagerIDs  []uuid.UUID         `json:"wagerIds"`
}

// CancelSeries refunds every still-open bet of a series.
func CancelSeries(svc betCanceller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := callerID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		seriesID, err := validators.ParseUUIDParam(r, "seriesId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cancelled, err := svc.CancelSeries(r.Context(), accountID, seriesID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ids := make([]uuid.UUID, len(cancelled))
		for i, bet := range cancelled {
			ids[i] = bet.WagerID
		}
		responses.WriteSuccess(w, cancelSeriesResponse{SeriesID: seriesID, Cancelled: cancelled, WagerIDs: ids})
	}
}

// ListBets pages the caller's bet history.
func ListBets(svc betLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := callerID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListBets(r.Context(), accountID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
