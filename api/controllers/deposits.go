package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/api/responses"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/api/validators"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/internal/ledger"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/db/models"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/enums"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/logger"
)

type depositRecorder interface {
	RecordDeposit(ctx context.Context, input ledger.RecordDepositInput) (*models.LedgerEntry, error)
}

// ledgerTransition is one of the admin status transitions on an entry.
type ledgerTransition func(ctx context.Context, entryID uuid.UUID) (*models.LedgerEntry, error)

type depositRequest struct {
	Amount             int    `json:"amount" validate:"required,gt=0"`
	MobilePayReference *int64 `json:"mobilePayReference" validate:"omitempty,gt=0"`
}

type ledgerEntryResponse struct {
	ID                 uuid.UUID               `json:"id"`
	AccountID          uuid.UUID               `json:"accountId"`
	Amount             int                     `json:"amount"`
	Type               enums.LedgerEntryType   `json:"type"`
	Status             enums.LedgerEntryStatus `json:"status"`
	MobilePayReference *int64                  `json:"mobilePayReference,omitempty"`
	CreatedAt          time.Time               `json:"createdAt"`
	UpdatedAt          time.Time               `json:"updatedAt"`
}

func newLedgerEntryResponse(entry *models.LedgerEntry) ledgerEntryResponse {
	return ledgerEntryResponse{
		ID:                 entry.ID,
		AccountID:          entry.AccountID,
		Amount:             entry.Amount,
		Type:               entry.Type,
		Status:             entry.Status,
		MobilePayReference: entry.MobilePayReference,
		CreatedAt:          entry.CreatedAt,
		UpdatedAt:          entry.UpdatedAt,
	}
}

// Deposit records a pending deposit for the caller. It only counts toward
// the balance once an admin accepts it.
func Deposit(svc depositRecorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := callerID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload depositRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entry, err := svc.RecordDeposit(r.Context(), ledger.RecordDepositInput{
			AccountID:          accountID,
			Amount:             payload.Amount,
			MobilePayReference: payload.MobilePayReference,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newLedgerEntryResponse(entry))
	}
}

// AdminLedgerTransition applies accept, reject or cancel to a ledger entry.
func AdminLedgerTransition(transition ledgerTransition, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entryID, err := validators.ParseUUIDParam(r, "entryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entry, err := transition(r.Context(), entryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newLedgerEntryResponse(entry))
	}
}
