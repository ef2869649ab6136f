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

type TouristRepository interface {
	Create(ctx context.Context, tourist *entity.Tourist) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Tourist, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Tourist, error)

	// IncrementToursBooked bumps the lifetime counter. Called only from the
	// booking-completion transaction.
	IncrementToursBooked(ctx context.Context, id uuid.UUID) (bool, error)
}

type touristRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewTouristRepository(db database.Querier, log *zap.Logger) TouristRepository {
	return &touristRepository{
		db:  db,
		log: log.With(zap.String("repository", "tourist")),
	}
}

func (r *touristRepository) Create(ctx context.Context, tourist *entity.Tourist) error {
	query := `
		INSERT INTO tourists (id, user_id, name, nationality, total_tours_booked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		tourist.ID,
		tourist.UserID,
		tourist.Name,
		tourist.Nationality,
		tourist.TotalToursBooked,
		tourist.CreatedAt,
		tourist.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create tourist profile",
			zap.Error(err),
			zap.String("user_id", tourist.UserID.String()),
		)
		return fmt.Errorf("create tourist profile for user %s: %w", tourist.UserID.String(), err)
	}

	return nil
}

func (r *touristRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Tourist, error) {
	query := `
		SELECT id, user_id, name, nationality, total_tours_booked, created_at, updated_at, deleted_at
		FROM tourists
		WHERE id = $1 AND deleted_at IS NULL
	`

	return r.scanOne(ctx, query, id.String(), id)
}

func (r *touristRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Tourist, error) {
	query := `
		SELECT id, user_id, name, nationality, total_tours_booked, created_at, updated_at, deleted_at
		FROM tourists
		WHERE user_id = $1 AND deleted_at IS NULL
	`

	return r.scanOne(ctx, query, userID.String(), userID)
}

func (r *touristRepository) IncrementToursBooked(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE tourists
		SET total_tours_booked = total_tours_booked + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to increment tours booked",
			zap.Error(err),
			zap.String("tourist_id", id.String()),
		)
		return false, fmt.Errorf("increment tours booked for tourist %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *touristRepository) scanOne(ctx context.Context, query, key string, arg any) (*entity.Tourist, error) {
	var tourist entity.Tourist
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&tourist.ID,
		&tourist.UserID,
		&tourist.Name,
		&tourist.Nationality,
		&tourist.TotalToursBooked,
		&tourist.CreatedAt,
		&tourist.UpdatedAt,
		&tourist.DeletedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find tourist",
			zap.Error(err),
			zap.String("key", key),
		)
		return nil, fmt.Errorf("find tourist %s: %w", key, err)
	}

	return &tourist, nil
}
