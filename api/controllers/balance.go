package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/api/responses"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/logger"
)

type balanceReader interface {
	GetBalance(ctx context.Context, accountID uuid.UUID) (int, error)
}

type balanceResponse struct {
	AccountID uuid.UUID `json:"accountId"`
	Balance   int       `json:"balance"`
}

// Balance returns the caller's derived balance.
func Balance(svc balanceReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := callerID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		balance, err := svc.GetBalance(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balanceResponse{AccountID: accountID, Balance: balance})
	}
}
