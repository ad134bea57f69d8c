package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/db/models"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/enums"
	pkgerrors "github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/errors"
)

// Service exposes balance queries, the tx-scoped debit/credit helpers used by
// the wager engine, and the status transitions driven by deposit intake.
type Service interface {
	GetBalance(ctx context.Context, accountID uuid.UUID) (int, error)

	LockAccount(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) error
	GetBalanceTx(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) (int, error)
	RecordPurchase(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, amount int) (*models.LedgerEntry, error)
	RecordRefund(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, amount int) (*models.LedgerEntry, error)

	RecordDeposit(ctx context.Context, input RecordDepositInput) (*models.LedgerEntry, error)
	AcceptDeposit(ctx context.Context, entryID uuid.UUID) (*models.LedgerEntry, error)
	RejectDeposit(ctx context.Context, entryID uuid.UUID) (*models.LedgerEntry, error)
	CancelEntry(ctx context.Context, entryID uuid.UUID) (*models.LedgerEntry, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// RecordDepositInput captures a deposit reported by the intake workflow.
type RecordDepositInput struct {
	AccountID          uuid.UUID `json:"accountId"`
	Amount             int       `json:"amount"`
	MobilePayReference *int64    `json:"mobilePayReference,omitempty"`
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) GetBalance(ctx context.Context, accountID uuid.UUID) (int, error) {
	if accountID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	balance, err := s.repo.Balance(ctx, accountID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not compute balance")
	}
	return balance, nil
}

func (s *service) LockAccount(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) error {
	if err := s.repo.WithTx(tx).LockAccount(ctx, accountID); err != nil {
		return fmt.Errorf("lock account %s: %w", accountID, err)
	}
	return nil
}

func (s *service) GetBalanceTx(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) (int, error) {
	return s.repo.WithTx(tx).Balance(ctx, accountID)
}

// RecordPurchase inserts an accepted purchase. Sufficiency is the caller's
// concern and must be checked under LockAccount in the same transaction.
func (s *service) RecordPurchase(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, amount int) (*models.LedgerEntry, error) {
	return s.recordAccepted(ctx, tx, accountID, amount, enums.LedgerEntryTypePurchase)
}

func (s *service) RecordRefund(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, amount int) (*models.LedgerEntry, error) {
	return s.recordAccepted(ctx, tx, accountID, amount, enums.LedgerEntryTypeRefund)
}

func (s *service) recordAccepted(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, amount int, entryType enums.LedgerEntryType) (*models.LedgerEntry, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if accountID == uuid.Nil {
		return nil, fmt.Errorf("account id is required")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%s amount must be positive, got %d", entryType, amount)
	}
	entry := &models.LedgerEntry{
		AccountID: accountID,
		Amount:    amount,
		Type:      entryType,
		Status:    enums.LedgerEntryStatusAccepted,
	}
	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("insert %s entry: %w", entryType, err)
	}
	return entry, nil
}

func (s *service) RecordDeposit(ctx context.Context, input RecordDepositInput) (*models.LedgerEntry, error) {
	if input.AccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deposit amount must be positive")
	}
	entry := &models.LedgerEntry{
		AccountID:          input.AccountID,
		Amount:             input.Amount,
		Type:               enums.LedgerEntryTypeDeposit,
		Status:             enums.LedgerEntryStatusPending,
		MobilePayReference: input.MobilePayReference,
	}
	// A deposit may be the account's first row.
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.EnsureAccount(ctx, input.AccountID); err != nil {
			return err
		}
		return repo.Create(ctx, entry)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not record deposit")
	}
	return entry, nil
}

func (s *service) AcceptDeposit(ctx context.Context, entryID uuid.UUID) (*models.LedgerEntry, error) {
	return s.transition(ctx, entryID, enums.LedgerEntryStatusAccepted)
}

func (s *service) RejectDeposit(ctx context.Context, entryID uuid.UUID) (*models.LedgerEntry, error) {
	return s.transition(ctx, entryID, enums.LedgerEntryStatusRejected)
}

// CancelEntry soft-deletes an accepted deposit. Purchases and refunds are tied
// to bets and are reversed through bet cancellation instead.
func (s *service) CancelEntry(ctx context.Context, entryID uuid.UUID) (*models.LedgerEntry, error) {
	return s.transition(ctx, entryID, enums.LedgerEntryStatusCancelled)
}

func (s *service) transition(ctx context.Context, entryID uuid.UUID, to enums.LedgerEntryStatus) (*models.LedgerEntry, error) {
	if entryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ledger entry id is required")
	}

	var updated *models.LedgerEntry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		entry, err := repo.FindByIDForUpdate(ctx, entryID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not load ledger entry")
		}
		if entry == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "ledger entry not found")
		}
		if entry.Type != enums.LedgerEntryTypeDeposit {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only deposits change status").
				WithDetails(map[string]any{"type": entry.Type})
		}
		if !entry.Status.CanTransitionTo(to) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move entry from %s to %s", entry.Status, to)).
				WithDetails(map[string]any{"from": entry.Status, "to": to})
		}

		if to == enums.LedgerEntryStatusCancelled {
			if err := repo.LockAccount(ctx, entry.AccountID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not lock account")
			}
			balance, err := repo.Balance(ctx, entry.AccountID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not compute balance")
			}
			if balance < entry.Amount {
				return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "cancelling this deposit would overdraw the account")
			}
		}

		rows, err := repo.UpdateStatus(ctx, entry.ID, entry.Status, to)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not update ledger entry")
		}
		if rows != 1 {
			return pkgerrors.New(pkgerrors.CodeConflict, "ledger entry changed concurrently")
		}
		entry.Status = to
		updated = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
