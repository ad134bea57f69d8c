package games

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/db/models"
)

const yearWeekConstraint = "ux_games_year_week"

// Repository manages persistence for games.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	InsertIfAbsent(ctx context.Context, game *models.Game) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Game, error)
	FindByIDForShare(ctx context.Context, id uuid.UUID) (*models.Game, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Game, error)
	FindByWeek(ctx context.Context, week Week) (*models.Game, error)
	FindFirstBettable(ctx context.Context, now time.Time) (*models.Game, error)
	FindLatest(ctx context.Context) (*models.Game, error)
	FindDrawOverdue(ctx context.Context, now time.Time, limit int) ([]models.Game, error)
	SetWinningNumbers(ctx context.Context, id uuid.UUID, numbers string, drawnBy uuid.UUID, drawnAt time.Time) (int64, error)
	SetInPersonResults(ctx context.Context, id uuid.UUID, winners, prizePool int) (int64, error)
	Revenue(ctx context.Context, gameID uuid.UUID) (int, error)
	IsSettled(ctx context.Context, gameID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a game repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// InsertIfAbsent inserts the game unless its (year, week) already exists. A
// skipped insert is not an error; callers re-read by week.
func (r *repository) InsertIfAbsent(ctx context.Context, game *models.Game) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "year"}, {Name: "week_number"}},
			DoNothing: true,
		}).
		Create(game).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	return first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *repository) FindByIDForShare(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	return first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "SHARE"}).Where("id = ?", id))
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	return first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

func (r *repository) FindByWeek(ctx context.Context, week Week) (*models.Game, error) {
	return first(r.db.WithContext(ctx).Where("year = ? AND week_number = ?", week.Year, week.Number))
}

func (r *repository) FindFirstBettable(ctx context.Context, now time.Time) (*models.Game, error) {
	return first(r.db.WithContext(ctx).
		Where("winning_numbers IS NULL AND bet_deadline > ?", now.UTC()).
		Order("year ASC").
		Order("week_number ASC"))
}

func (r *repository) FindLatest(ctx context.Context) (*models.Game, error) {
	return first(r.db.WithContext(ctx).
		Order("year DESC").
		Order("week_number DESC"))
}

func (r *repository) FindDrawOverdue(ctx context.Context, now time.Time, limit int) ([]models.Game, error) {
	var games []models.Game
	q := r.db.WithContext(ctx).
		Where("winning_numbers IS NULL AND draw_date IS NOT NULL AND draw_date < ?", now.UTC()).
		Order("year ASC").
		Order("week_number ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}

// SetWinningNumbers writes the draw result only while the game is undrawn.
func (r *repository) SetWinningNumbers(ctx context.Context, id uuid.UUID, numbers string, drawnBy uuid.UUID, drawnAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Game{}).
		Where("id = ? AND winning_numbers IS NULL", id).
		Updates(map[string]any{
			"winning_numbers": numbers,
			"drawn_by":        drawnBy,
			"drawn_at":        drawnAt.UTC(),
		})
	return res.RowsAffected, res.Error
}

// SetInPersonResults updates the in-person figures unless a settlement row
// already exists for the game.
func (r *repository) SetInPersonResults(ctx context.Context, id uuid.UUID, winners, prizePool int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Game{}).
		Where("id = ? AND NOT EXISTS (SELECT 1 FROM settlements s WHERE s.game_id = ?)", id, id).
		Updates(map[string]any{
			"in_person_winners":    winners,
			"in_person_prize_pool": prizePool,
		})
	return res.RowsAffected, res.Error
}

// Revenue sums the funding entries of the game's live bets. Settlement uses
// the same figure.
func (r *repository) Revenue(ctx context.Context, gameID uuid.UUID) (int, error) {
	var revenue int
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(le.amount), 0)
		FROM bets b
		JOIN ledger_entries le ON le.id = b.ledger_entry_id
		WHERE b.game_id = ? AND b.deleted_at IS NULL`, gameID).
		Scan(&revenue).Error
	return revenue, err
}

func (r *repository) IsSettled(ctx context.Context, gameID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Settlement{}).
		Where("game_id = ?", gameID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func first(q *gorm.DB) (*models.Game, error) {
	var game models.Game
	if err := q.Take(&game).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &game, nil
}
