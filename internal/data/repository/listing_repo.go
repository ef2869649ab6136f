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

// ListingFilter narrows catalog queries. Zero values mean no filter.
type ListingFilter struct {
	City    string
	Country string
}

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error)
	FindActive(ctx context.Context, filter ListingFilter, limit, offset int) ([]*entity.Listing, error)
	CountActive(ctx context.Context, filter ListingFilter) (int64, error)
}

type listingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewListingRepository(db database.Querier, log *zap.Logger) ListingRepository {
	return &listingRepository{
		db:  db,
		log: log.With(zap.String("repository", "listing")),
	}
}

const listingColumns = `id, guide_id, title, description, city, country, price_per_person,
		max_group_size, duration_hours, meeting_point, is_active, created_at, updated_at, deleted_at`

func (r *listingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	query := `
		INSERT INTO listings (id, guide_id, title, description, city, country, price_per_person,
		                      max_group_size, duration_hours, meeting_point, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.Exec(ctx, query,
		listing.ID,
		listing.GuideID,
		listing.Title,
		listing.Description,
		listing.City,
		listing.Country,
		listing.PricePerPerson,
		listing.MaxGroupSize,
		listing.DurationHours,
		listing.MeetingPoint,
		listing.IsActive,
		listing.CreatedAt,
		listing.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create listing",
			zap.Error(err),
			zap.String("guide_id", listing.GuideID.String()),
			zap.String("title", listing.Title),
		)
		return fmt.Errorf("create listing %s: %w", listing.Title, err)
	}

	return nil
}

func (r *listingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`

	var listing entity.Listing
	err := r.db.QueryRow(ctx, query, id).Scan(
		&listing.ID,
		&listing.GuideID,
		&listing.Title,
		&listing.Description,
		&listing.City,
		&listing.Country,
		&listing.PricePerPerson,
		&listing.MaxGroupSize,
		&listing.DurationHours,
		&listing.MeetingPoint,
		&listing.IsActive,
		&listing.CreatedAt,
		&listing.UpdatedAt,
		&listing.DeletedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find listing by ID",
			zap.Error(err),
			zap.String("listing_id", id.String()),
		)
		return nil, fmt.Errorf("find listing by ID %s: %w", id.String(), err)
	}

	return &listing, nil
}

func (r *listingRepository) FindActive(ctx context.Context, filter ListingFilter, limit, offset int) ([]*entity.Listing, error) {
	query := `SELECT ` + listingColumns + `
		FROM listings
		WHERE is_active = TRUE AND deleted_at IS NULL
		  AND ($1 = '' OR city = $1)
		  AND ($2 = '' OR country = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, filter.City, filter.Country, limit, offset)
	if err != nil {
		r.log.Error("Failed to find active listings",
			zap.Error(err),
			zap.String("city", filter.City),
			zap.String("country", filter.Country),
		)
		return nil, fmt.Errorf("find active listings: %w", err)
	}
	defer rows.Close()

	var listings []*entity.Listing
	for rows.Next() {
		var listing entity.Listing
		err := rows.Scan(
			&listing.ID,
			&listing.GuideID,
			&listing.Title,
			&listing.Description,
			&listing.City,
			&listing.Country,
			&listing.PricePerPerson,
			&listing.MaxGroupSize,
			&listing.DurationHours,
			&listing.MeetingPoint,
			&listing.IsActive,
			&listing.CreatedAt,
			&listing.UpdatedAt,
			&listing.DeletedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan listing row", zap.Error(err))
			return nil, fmt.Errorf("scan listing row: %w", err)
		}
		listings = append(listings, &listing)
	}

	// Check for errors during iteration (not just database errors)
	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate listings rows: %w", err)
	}

	return listings, nil
}

func (r *listingRepository) CountActive(ctx context.Context, filter ListingFilter) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM listings
		WHERE is_active = TRUE AND deleted_at IS NULL
		  AND ($1 = '' OR city = $1)
		  AND ($2 = '' OR country = $2)
	`

	var count int64
	err := r.db.QueryRow(ctx, query, filter.City, filter.Country).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count active listings", zap.Error(err))
		return 0, fmt.Errorf("count active listings: %w", err)
	}

	return count, nil
}
