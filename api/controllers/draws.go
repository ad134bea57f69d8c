package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/api/responses"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/api/validators"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/internal/draws"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/internal/games"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/logger"
)

type drawService interface {
	DrawWinningNumbers(ctx context.Context, gameID uuid.UUID, winningNumbers string, adminID uuid.UUID) (*games.GameView, error)
	Settle(ctx context.Context, gameID, adminID uuid.UUID) (*draws.SettlementResult, error)
	GetSettlement(ctx context.Context, gameID uuid.UUID) (*draws.SettlementResult, error)
}

type drawRequest struct {
	WinningNumbers string `json:"winningNumbers" validate:"required"`
}

// AdminDraw fixes a game's winning numbers and closes it for betting.
func AdminDraw(svc drawService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := callerID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		gameID, err := validators.ParseUUIDParam(r, "gameId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload drawRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.DrawWinningNumbers(r.Context(), gameID, payload.WinningNumbers, adminID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AdminSettle distributes the prize pool of a drawn game exactly once.
func AdminSettle(svc drawService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := callerID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		gameID, err := validators.ParseUUIDParam(r, "gameId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Settle(r.Context(), gameID, adminID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminGetSettlement(svc drawService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, err := validators.ParseUUIDParam(r, "gameId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.GetSettlement(r.Context(), gameID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
