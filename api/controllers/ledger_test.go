package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/internal/ledger"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/db/models"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/enums"
	pkgerrors "github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/errors"
)

type stubLedger struct {
	balance int
	entry   *models.LedgerEntry
	err     error
	input   ledger.RecordDepositInput
}

func (s *stubLedger) GetBalance(ctx context.Context, accountID uuid.UUID) (int, error) {
	return s.balance, s.err
}

func (s *stubLedger) RecordDeposit(ctx context.Context, input ledger.RecordDepositInput) (*models.LedgerEntry, error) {
	s.input = input
	return s.entry, s.err
}

func (s *stubLedger) AcceptDeposit(ctx context.Context, entryID uuid.UUID) (*models.LedgerEntry, error) {
	return s.entry, s.err
}

func TestBalanceReturnsDerivedBalance(t *testing.T) {
	accountID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil)
	req = asAccount(req, accountID, enums.AccountRolePlayer)
	rec := httptest.NewRecorder()

	Balance(&stubLedger{balance: 180}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var resp balanceResponse
	decodeData(t, rec, &resp)
	if resp.Balance != 180 || resp.AccountID != accountID {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestDepositRecordsPendingEntry(t *testing.T) {
	accountID := uuid.New()
	ref := int64(778899)
	svc := &stubLedger{entry: &models.LedgerEntry{
		ID:                 uuid.New(),
		AccountID:          accountID,
		Amount:             200,
		Type:               enums.LedgerEntryTypeDeposit,
		Status:             enums.LedgerEntryStatusPending,
		MobilePayReference: &ref,
	}}
	req := newJSONRequest(t, http.MethodPost, "/api/v1/deposits", map[string]any{
		"amount":             200,
		"mobilePayReference": ref,
	})
	req = asAccount(req, accountID, enums.AccountRolePlayer)
	rec := httptest.NewRecorder()

	Deposit(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if svc.input.AccountID != accountID || svc.input.Amount != 200 {
		t.Fatalf("unexpected input %+v", svc.input)
	}
	if svc.input.MobilePayReference == nil || *svc.input.MobilePayReference != ref {
		t.Fatalf("expected reference %d", ref)
	}
	var resp ledgerEntryResponse
	decodeData(t, rec, &resp)
	if resp.Status != enums.LedgerEntryStatusPending {
		t.Fatalf("expected pending got %s", resp.Status)
	}
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	svc := &stubLedger{}
	req := newJSONRequest(t, http.MethodPost, "/api/v1/deposits", map[string]any{"amount": -5})
	req = asAccount(req, uuid.New(), enums.AccountRolePlayer)
	rec := httptest.NewRecorder()

	Deposit(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.input.AccountID != uuid.Nil {
		t.Fatalf("service must not be called")
	}
}

func TestAdminLedgerTransition(t *testing.T) {
	entryID := uuid.New()
	svc := &stubLedger{entry: &models.LedgerEntry{ID: entryID, Status: enums.LedgerEntryStatusAccepted}}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/ledger/"+entryID.String()+"/accept", nil)
	req = withURLParams(req, map[string]string{"entryId": entryID.String()})
	rec := httptest.NewRecorder()

	AdminLedgerTransition(svc.AcceptDeposit, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var resp ledgerEntryResponse
	decodeData(t, rec, &resp)
	if resp.ID != entryID || resp.Status != enums.LedgerEntryStatusAccepted {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAdminLedgerTransitionStateConflict(t *testing.T) {
	entryID := uuid.New()
	svc := &stubLedger{err: pkgerrors.New(pkgerrors.CodeStateConflict, "entry is not pending")}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/ledger/"+entryID.String()+"/accept", nil)
	req = withURLParams(req, map[string]string{"entryId": entryID.String()})
	rec := httptest.NewRecorder()

	AdminLedgerTransition(svc.AcceptDeposit, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
}
