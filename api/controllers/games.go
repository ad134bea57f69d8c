package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/api/responses"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/api/validators"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/internal/games"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/logger"
)

type gameReader interface {
	FindCurrentGame(ctx context.Context) (*games.GameView, error)
	GetGame(ctx context.Context, id uuid.UUID) (*games.GameView, error)
}

type inPersonRecorder interface {
	RecordInPersonResults(ctx context.Context, gameID uuid.UUID, winners, prizePool int) (*games.GameView, error)
}

// CurrentGame returns the game bets currently attach to. It never creates one.
func CurrentGame(svc gameReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.FindCurrentGame(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func AdminGetGame(svc gameReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, err := validators.ParseUUIDParam(r, "gameId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.GetGame(r.Context(), gameID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type inPersonRequest struct {
	InPersonWinners   *int `json:"inPersonWinners" validate:"required,gte=0"`
	InPersonPrizePool *int `json:"inPersonPrizePool" validate:"required,gte=0"`
}

// AdminRecordInPerson stores the paper-ticket results of a game before it
// is settled.
func AdminRecordInPerson(svc inPersonRecorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, err := validators.ParseUUIDParam(r, "gameId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload inPersonRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.RecordInPersonResults(r.Context(), gameID, *payload.InPersonWinners, *payload.InPersonPrizePool)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
