package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/db/models"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/enums"
)

// Repository manages persistence for ledger entries and account lock rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.LedgerEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.LedgerEntryStatus) (int64, error)
	Balance(ctx context.Context, accountID uuid.UUID) (int, error)
	EnsureAccount(ctx context.Context, accountID uuid.UUID) error
	LockAccount(ctx context.Context, accountID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error) {
	return r.find(r.db.WithContext(ctx), id)
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *repository) find(q *gorm.DB, id uuid.UUID) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := q.Where("id = ?", id).Take(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.LedgerEntryStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

// Balance sums accepted deposits and refunds minus every purchase.
func (r *repository) Balance(ctx context.Context, accountID uuid.UUID) (int, error) {
	var balance int
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COALESCE(SUM(CASE WHEN type IN (?, ?) AND status = ? THEN amount ELSE 0 END), 0)
			- COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0)
		FROM ledger_entries
		WHERE account_id = ?`,
		enums.LedgerEntryTypeDeposit,
		enums.LedgerEntryTypeRefund,
		enums.LedgerEntryStatusAccepted,
		enums.LedgerEntryTypePurchase,
		accountID,
	).Scan(&balance).Error
	return balance, err
}

// EnsureAccount inserts the account anchor row every ledger entry references.
func (r *repository) EnsureAccount(ctx context.Context, accountID uuid.UUID) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Account{ID: accountID}).Error
}

// LockAccount upserts the account anchor row and takes a row lock on it for
// the remainder of the transaction.
func (r *repository) LockAccount(ctx context.Context, accountID uuid.UUID) error {
	if err := r.EnsureAccount(ctx, accountID); err != nil {
		return err
	}
	var account models.Account
	return r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", accountID).
		Take(&account).Error
}
