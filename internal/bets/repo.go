package bets

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/db/models"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/pagination"
)

// Repository manages persistence for bets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, bet *models.Bet) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Bet, error)
	ListLiveBySeries(ctx context.Context, accountID, seriesID uuid.UUID) ([]models.Bet, error)
	ListLiveByGame(ctx context.Context, gameID uuid.UUID) ([]models.Bet, error)
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	SetOutcome(ctx context.Context, id uuid.UUID, isWinning bool, winnings int) error
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Bet, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a bet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, bet *models.Bet) error {
	return r.db.WithContext(ctx).Create(bet).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Bet, error) {
	var bet models.Bet
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&bet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bet, nil
}

func (r *repository) ListLiveBySeries(ctx context.Context, accountID, seriesID uuid.UUID) ([]models.Bet, error) {
	var bets []models.Bet
	err := r.db.WithContext(ctx).
		Select("bets.*").
		Joins("JOIN games ON games.id = bets.game_id").
		Where("bets.account_id = ? AND bets.series_id = ? AND bets.deleted_at IS NULL", accountID, seriesID).
		Order("games.year ASC").
		Order("games.week_number ASC").
		Find(&bets).Error
	return bets, err
}

// ListLiveByGame returns the game's non-deleted bets ordered by id.
func (r *repository) ListLiveByGame(ctx context.Context, gameID uuid.UUID) ([]models.Bet, error) {
	var bets []models.Bet
	err := r.db.WithContext(ctx).
		Where("game_id = ? AND deleted_at IS NULL", gameID).
		Order("id ASC").
		Find(&bets).Error
	return bets, err
}

// SoftDelete marks the bet deleted unless it already is.
func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Bet{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", at.UTC())
	return res.RowsAffected, res.Error
}

func (r *repository) SetOutcome(ctx context.Context, id uuid.UUID, isWinning bool, winnings int) error {
	return r.db.WithContext(ctx).
		Model(&models.Bet{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_winning": isWinning,
			"winnings":   winnings,
		}).Error
}

// ListByAccount pages an account's bets newest first, cancelled ones
// included. It returns up to limit rows strictly after cursor.
func (r *repository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Bet, error) {
	query := r.db.WithContext(ctx).Where("account_id = ?", accountID)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var bets []models.Bet
	err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&bets).Error
	return bets, err
}
