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

// BookingFilter narrows booking list queries; the zero value matches
// every booking.
type BookingFilter struct {
	Status entity.BookingStatus
}

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByTouristID(ctx context.Context, touristID uuid.UUID, filter BookingFilter, limit, offset int) ([]*entity.Booking, error)
	CountByTouristID(ctx context.Context, touristID uuid.UUID, filter BookingFilter) (int64, error)
	FindByGuideID(ctx context.Context, guideID uuid.UUID, filter BookingFilter, limit, offset int) ([]*entity.Booking, error)
	CountByGuideID(ctx context.Context, guideID uuid.UUID, filter BookingFilter) (int64, error)
	FindByListingID(ctx context.Context, listingID uuid.UUID, filter BookingFilter, limit, offset int) ([]*entity.Booking, error)
	CountByListingID(ctx context.Context, listingID uuid.UUID, filter BookingFilter) (int64, error)

	// Conditional writes. Each takes the expected prior status so concurrent
	// transitions race deterministically: exactly one caller sees true, the
	// rest see false and must re-read to diagnose.
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to entity.BookingStatus) (bool, error)
	CancelFrom(ctx context.Context, id uuid.UUID, from entity.BookingStatus, reason string) (bool, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status entity.PaymentStatus) error
}

type bookingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewBookingRepository(db database.Querier, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, tourist_id, guide_id, listing_id, booking_date, number_of_people,
		total_amount, special_requests, status, payment_status, cancellation_reason,
		created_at, updated_at, deleted_at`

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, tourist_id, guide_id, listing_id, booking_date, number_of_people,
		                      total_amount, special_requests, status, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.TouristID,
		booking.GuideID,
		booking.ListingID,
		booking.BookingDate,
		booking.NumberOfPeople,
		booking.TotalAmount,
		booking.SpecialRequests,
		booking.Status,
		booking.PaymentStatus,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("tourist_id", booking.TouristID.String()),
			zap.String("listing_id", booking.ListingID.String()),
		)
		return fmt.Errorf("create booking for listing %s: %w", booking.ListingID.String(), err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var booking entity.Booking
	err := r.db.QueryRow(ctx, query, id).Scan(
		&booking.ID,
		&booking.TouristID,
		&booking.GuideID,
		&booking.ListingID,
		&booking.BookingDate,
		&booking.NumberOfPeople,
		&booking.TotalAmount,
		&booking.SpecialRequests,
		&booking.Status,
		&booking.PaymentStatus,
		&booking.CancellationReason,
		&booking.CreatedAt,
		&booking.UpdatedAt,
		&booking.DeletedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return &booking, nil
}

func (r *bookingRepository) FindByTouristID(ctx context.Context, touristID uuid.UUID, filter BookingFilter, limit, offset int) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE tourist_id = $1 AND deleted_at IS NULL
		  AND ($2 = '' OR status = $2)
		ORDER BY booking_date DESC
		LIMIT $3 OFFSET $4
	`

	return r.findMany(ctx, query, "tourist_id", touristID, filter, limit, offset)
}

func (r *bookingRepository) CountByTouristID(ctx context.Context, touristID uuid.UUID, filter BookingFilter) (int64, error) {
	query := `
		SELECT COUNT(*) FROM bookings
		WHERE tourist_id = $1 AND deleted_at IS NULL
		  AND ($2 = '' OR status = $2)
	`
	return r.count(ctx, query, "tourist_id", touristID, filter)
}

func (r *bookingRepository) FindByGuideID(ctx context.Context, guideID uuid.UUID, filter BookingFilter, limit, offset int) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE guide_id = $1 AND deleted_at IS NULL
		  AND ($2 = '' OR status = $2)
		ORDER BY booking_date DESC
		LIMIT $3 OFFSET $4
	`

	return r.findMany(ctx, query, "guide_id", guideID, filter, limit, offset)
}

func (r *bookingRepository) CountByGuideID(ctx context.Context, guideID uuid.UUID, filter BookingFilter) (int64, error) {
	query := `
		SELECT COUNT(*) FROM bookings
		WHERE guide_id = $1 AND deleted_at IS NULL
		  AND ($2 = '' OR status = $2)
	`
	return r.count(ctx, query, "guide_id", guideID, filter)
}

func (r *bookingRepository) FindByListingID(ctx context.Context, listingID uuid.UUID, filter BookingFilter, limit, offset int) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE listing_id = $1 AND deleted_at IS NULL
		  AND ($2 = '' OR status = $2)
		ORDER BY booking_date DESC
		LIMIT $3 OFFSET $4
	`

	return r.findMany(ctx, query, "listing_id", listingID, filter, limit, offset)
}

func (r *bookingRepository) CountByListingID(ctx context.Context, listingID uuid.UUID, filter BookingFilter) (int64, error) {
	query := `
		SELECT COUNT(*) FROM bookings
		WHERE listing_id = $1 AND deleted_at IS NULL
		  AND ($2 = '' OR status = $2)
	`
	return r.count(ctx, query, "listing_id", listingID, filter)
}

func (r *bookingRepository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to entity.BookingStatus) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(ctx, query, id, from, to)
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return false, fmt.Errorf("update booking %s status %s -> %s: %w", id.String(), string(from), string(to), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) CancelFrom(ctx context.Context, id uuid.UUID, from entity.BookingStatus, reason string) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $3, cancellation_reason = $4, updated_at = NOW()
		WHERE id = $1 AND status = $2 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(ctx, query, id, from, entity.BookingStatusCancelled, reason)
	if err != nil {
		r.log.Error("Failed to cancel booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("from", string(from)),
		)
		return false, fmt.Errorf("cancel booking %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status entity.PaymentStatus) error {
	query := `UPDATE bookings SET payment_status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		r.log.Error("Failed to update booking payment status",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("payment_status", string(status)),
		)
		return fmt.Errorf("update booking %s payment status to %s: %w", id.String(), string(status), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", id.String())
	}

	return nil
}

func (r *bookingRepository) findMany(ctx context.Context, query, key string, id uuid.UUID, filter BookingFilter, limit, offset int) ([]*entity.Booking, error) {
	rows, err := r.db.Query(ctx, query, id, filter.Status, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings",
			zap.Error(err),
			zap.String(key, id.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings by %s %s: %w", key, id.String(), err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		var booking entity.Booking
		err := rows.Scan(
			&booking.ID,
			&booking.TouristID,
			&booking.GuideID,
			&booking.ListingID,
			&booking.BookingDate,
			&booking.NumberOfPeople,
			&booking.TotalAmount,
			&booking.SpecialRequests,
			&booking.Status,
			&booking.PaymentStatus,
			&booking.CancellationReason,
			&booking.CreatedAt,
			&booking.UpdatedAt,
			&booking.DeletedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, &booking)
	}

	// Check for errors during iteration (not just database errors)
	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate bookings rows: %w", err)
	}

	return bookings, nil
}

func (r *bookingRepository) count(ctx context.Context, query, key string, id uuid.UUID, filter BookingFilter) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, query, id, filter.Status).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings",
			zap.Error(err),
			zap.String(key, id.String()),
		)
		return 0, fmt.Errorf("count bookings by %s %s: %w", key, id.String(), err)
	}

	return count, nil
}
