package repository

import (
	"context"
	"fmt"

	"tourlink/internal/data/entity"
	"tourlink/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type GuideRepository interface {
	Create(ctx context.Context, guide *entity.Guide) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Guide, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Guide, error)

	// IncrementStats bumps the lifetime booking counter and revenue total.
	// Called only from the booking-completion transaction.
	IncrementStats(ctx context.Context, id uuid.UUID, revenue float64) (bool, error)
}

type guideRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewGuideRepository(db database.Querier, log *zap.Logger) GuideRepository {
	return &guideRepository{
		db:  db,
		log: log.With(zap.String("repository", "guide")),
	}
}

func (r *guideRepository) Create(ctx context.Context, guide *entity.Guide) error {
	query := `
		INSERT INTO guides (id, user_id, name, bio, city, country, total_bookings, total_revenue, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		guide.ID,
		guide.UserID,
		guide.Name,
		guide.Bio,
		guide.City,
		guide.Country,
		guide.TotalBookings,
		guide.TotalRevenue,
		guide.CreatedAt,
		guide.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create guide profile",
			zap.Error(err),
			zap.String("user_id", guide.UserID.String()),
		)
		return fmt.Errorf("create guide profile for user %s: %w", guide.UserID.String(), err)
	}

	return nil
}

func (r *guideRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Guide, error) {
	query := `
		SELECT id, user_id, name, bio, city, country, total_bookings, total_revenue, created_at, updated_at, deleted_at
		FROM guides
		WHERE id = $1
	`

	return r.scanOne(ctx, query, id.String(), id)
}

func (r *guideRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Guide, error) {
	query := `
		SELECT id, user_id, name, bio, city, country, total_bookings, total_revenue, created_at, updated_at, deleted_at
		FROM guides
		WHERE user_id = $1 AND deleted_at IS NULL
	`

	return r.scanOne(ctx, query, userID.String(), userID)
}

func (r *guideRepository) IncrementStats(ctx context.Context, id uuid.UUID, revenue float64) (bool, error) {
	query := `
		UPDATE guides
		SET total_bookings = total_bookings + 1,
		    total_revenue = total_revenue + $2,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(ctx, query, id, revenue)
	if err != nil {
		r.log.Error("Failed to increment guide stats",
			zap.Error(err),
			zap.String("guide_id", id.String()),
			zap.Float64("revenue", revenue),
		)
		return false, fmt.Errorf("increment stats for guide %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *guideRepository) scanOne(ctx context.Context, query, key string, arg any) (*entity.Guide, error) {
	var guide entity.Guide
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&guide.ID,
		&guide.UserID,
		&guide.Name,
		&guide.Bio,
		&guide.City,
		&guide.Country,
		&guide.TotalBookings,
		&guide.TotalRevenue,
		&guide.CreatedAt,
		&guide.UpdatedAt,
		&guide.DeletedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find guide",
			zap.Error(err),
			zap.String("key", key),
		)
		return nil, fmt.Errorf("find guide %s: %w", key, err)
	}

	return &guide, nil
}
