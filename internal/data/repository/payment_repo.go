package repository

import (
	"context"
	"errors"
	"fmt"

	"tourlink/internal/data/entity"
	"tourlink/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// ErrDuplicateBookingPayment reports a second payment row for a booking,
// rejected by the unique index on booking_id.
var ErrDuplicateBookingPayment = errors.New("payment already exists for booking")

// PaymentFilter narrows payment list queries; the zero value matches
// every payment.
type PaymentFilter struct {
	Status entity.PaymentStatus
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error)
	FindByIntentID(ctx context.Context, intentID string) (*entity.Payment, error)
	FindByTouristID(ctx context.Context, touristID uuid.UUID, filter PaymentFilter, limit, offset int) ([]*entity.Payment, error)
	CountByTouristID(ctx context.Context, touristID uuid.UUID, filter PaymentFilter) (int64, error)
	FindByGuideID(ctx context.Context, guideID uuid.UUID, filter PaymentFilter, limit, offset int) ([]*entity.Payment, error)
	CountByGuideID(ctx context.Context, guideID uuid.UUID, filter PaymentFilter) (int64, error)

	// Reconciliation writes. Each is conditional on the stored status so
	// replayed webhook deliveries converge instead of overwriting.
	SetIntentID(ctx context.Context, bookingID uuid.UUID, intentID string) (bool, error)
	MarkCompletedByIntentID(ctx context.Context, intentID string) (uuid.UUID, bool, error)
	MarkFailedByIntentID(ctx context.Context, intentID string) (uuid.UUID, bool, error)
	MarkRefunded(ctx context.Context, id uuid.UUID, refundAmount float64) (bool, error)
}

type paymentRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewPaymentRepository(db database.Querier, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

const paymentColumns = `id, booking_id, amount, currency, gateway_session_id, gateway_payment_intent_id,
		checkout_url, status, refund_amount, paid_at, refunded_at, created_at, updated_at, deleted_at`

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (id, booking_id, amount, currency, gateway_session_id,
		                      gateway_payment_intent_id, checkout_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.Amount,
		payment.Currency,
		payment.GatewaySessionID,
		payment.GatewayPaymentIntentID,
		payment.CheckoutURL,
		payment.Status,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("create payment for booking %s: %w", payment.BookingID.String(), ErrDuplicateBookingPayment)
		}
		r.log.Error("Failed to create payment",
			zap.Error(err),
			zap.String("booking_id", payment.BookingID.String()),
		)
		return fmt.Errorf("create payment for booking %s: %w", payment.BookingID.String(), err)
	}

	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return r.scanOne(ctx, query, id.String(), id)
}

func (r *paymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1`
	return r.scanOne(ctx, query, bookingID.String(), bookingID)
}

func (r *paymentRepository) FindByIntentID(ctx context.Context, intentID string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway_payment_intent_id = $1`
	return r.scanOne(ctx, query, intentID, intentID)
}

func (r *paymentRepository) FindByTouristID(ctx context.Context, touristID uuid.UUID, filter PaymentFilter, limit, offset int) ([]*entity.Payment, error) {
	query := `
		SELECT p.id, p.booking_id, p.amount, p.currency, p.gateway_session_id, p.gateway_payment_intent_id,
		       p.checkout_url, p.status, p.refund_amount, p.paid_at, p.refunded_at, p.created_at, p.updated_at, p.deleted_at
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE b.tourist_id = $1
		  AND ($2 = '' OR p.status = $2)
		ORDER BY p.created_at DESC
		LIMIT $3 OFFSET $4
	`

	return r.findMany(ctx, query, "tourist_id", touristID, filter, limit, offset)
}

func (r *paymentRepository) CountByTouristID(ctx context.Context, touristID uuid.UUID, filter PaymentFilter) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE b.tourist_id = $1
		  AND ($2 = '' OR p.status = $2)
	`
	return r.count(ctx, query, "tourist_id", touristID, filter)
}

func (r *paymentRepository) FindByGuideID(ctx context.Context, guideID uuid.UUID, filter PaymentFilter, limit, offset int) ([]*entity.Payment, error) {
	query := `
		SELECT p.id, p.booking_id, p.amount, p.currency, p.gateway_session_id, p.gateway_payment_intent_id,
		       p.checkout_url, p.status, p.refund_amount, p.paid_at, p.refunded_at, p.created_at, p.updated_at, p.deleted_at
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE b.guide_id = $1
		  AND ($2 = '' OR p.status = $2)
		ORDER BY p.created_at DESC
		LIMIT $3 OFFSET $4
	`

	return r.findMany(ctx, query, "guide_id", guideID, filter, limit, offset)
}

func (r *paymentRepository) CountByGuideID(ctx context.Context, guideID uuid.UUID, filter PaymentFilter) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE b.guide_id = $1
		  AND ($2 = '' OR p.status = $2)
	`
	return r.count(ctx, query, "guide_id", guideID, filter)
}

func (r *paymentRepository) SetIntentID(ctx context.Context, bookingID uuid.UUID, intentID string) (bool, error) {
	// A terminal payment keeps whatever linkage it completed with; the
	// session-completed event may arrive after intent-succeeded.
	query := `
		UPDATE payments
		SET gateway_payment_intent_id = $2, updated_at = NOW()
		WHERE booking_id = $1 AND status NOT IN ($3, $4)
	`

	result, err := r.db.Exec(ctx, query, bookingID, intentID,
		entity.PaymentStatusCompleted, entity.PaymentStatusRefunded)
	if err != nil {
		r.log.Error("Failed to set payment intent ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("intent_id", intentID),
		)
		return false, fmt.Errorf("set intent ID for booking %s: %w", bookingID.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *paymentRepository) MarkCompletedByIntentID(ctx context.Context, intentID string) (uuid.UUID, bool, error) {
	query := `
		UPDATE payments
		SET status = $2, paid_at = NOW(), updated_at = NOW()
		WHERE gateway_payment_intent_id = $1 AND status NOT IN ($2, $3)
		RETURNING booking_id
	`

	var bookingID uuid.UUID
	err := r.db.QueryRow(ctx, query, intentID,
		entity.PaymentStatusCompleted, entity.PaymentStatusRefunded).Scan(&bookingID)

	if err == pgx.ErrNoRows {
		return uuid.Nil, false, nil
	}
	if err != nil {
		r.log.Error("Failed to mark payment completed",
			zap.Error(err),
			zap.String("intent_id", intentID),
		)
		return uuid.Nil, false, fmt.Errorf("mark payment completed for intent %s: %w", intentID, err)
	}

	return bookingID, true, nil
}

func (r *paymentRepository) MarkFailedByIntentID(ctx context.Context, intentID string) (uuid.UUID, bool, error) {
	// Only a still-pending payment can fail; completed payments ignore late
	// failure events.
	query := `
		UPDATE payments
		SET status = $2, updated_at = NOW()
		WHERE gateway_payment_intent_id = $1 AND status = $3
		RETURNING booking_id
	`

	var bookingID uuid.UUID
	err := r.db.QueryRow(ctx, query, intentID,
		entity.PaymentStatusFailed, entity.PaymentStatusPending).Scan(&bookingID)

	if err == pgx.ErrNoRows {
		return uuid.Nil, false, nil
	}
	if err != nil {
		r.log.Error("Failed to mark payment failed",
			zap.Error(err),
			zap.String("intent_id", intentID),
		)
		return uuid.Nil, false, fmt.Errorf("mark payment failed for intent %s: %w", intentID, err)
	}

	return bookingID, true, nil
}

func (r *paymentRepository) MarkRefunded(ctx context.Context, id uuid.UUID, refundAmount float64) (bool, error) {
	query := `
		UPDATE payments
		SET status = $2, refund_amount = $3, refunded_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $4
	`

	result, err := r.db.Exec(ctx, query, id,
		entity.PaymentStatusRefunded, refundAmount, entity.PaymentStatusCompleted)
	if err != nil {
		r.log.Error("Failed to mark payment refunded",
			zap.Error(err),
			zap.String("payment_id", id.String()),
			zap.Float64("refund_amount", refundAmount),
		)
		return false, fmt.Errorf("mark payment %s refunded: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *paymentRepository) scanOne(ctx context.Context, query, key string, arg any) (*entity.Payment, error) {
	var payment entity.Payment
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.Amount,
		&payment.Currency,
		&payment.GatewaySessionID,
		&payment.GatewayPaymentIntentID,
		&payment.CheckoutURL,
		&payment.Status,
		&payment.RefundAmount,
		&payment.PaidAt,
		&payment.RefundedAt,
		&payment.CreatedAt,
		&payment.UpdatedAt,
		&payment.DeletedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment",
			zap.Error(err),
			zap.String("key", key),
		)
		return nil, fmt.Errorf("find payment %s: %w", key, err)
	}

	return &payment, nil
}

func (r *paymentRepository) findMany(ctx context.Context, query, key string, id uuid.UUID, filter PaymentFilter, limit, offset int) ([]*entity.Payment, error) {
	rows, err := r.db.Query(ctx, query, id, filter.Status, limit, offset)
	if err != nil {
		r.log.Error("Failed to find payments",
			zap.Error(err),
			zap.String(key, id.String()),
		)
		return nil, fmt.Errorf("find payments by %s %s: %w", key, id.String(), err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		var payment entity.Payment
		err := rows.Scan(
			&payment.ID,
			&payment.BookingID,
			&payment.Amount,
			&payment.Currency,
			&payment.GatewaySessionID,
			&payment.GatewayPaymentIntentID,
			&payment.CheckoutURL,
			&payment.Status,
			&payment.RefundAmount,
			&payment.PaidAt,
			&payment.RefundedAt,
			&payment.CreatedAt,
			&payment.UpdatedAt,
			&payment.DeletedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan payment row", zap.Error(err))
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, &payment)
	}

	// Check for errors during iteration (not just database errors)
	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate payments rows: %w", err)
	}

	return payments, nil
}

func (r *paymentRepository) count(ctx context.Context, query, key string, id uuid.UUID, filter PaymentFilter) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, query, id, filter.Status).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count payments",
			zap.Error(err),
			zap.String(key, id.String()),
		)
		return 0, fmt.Errorf("count payments by %s %s: %w", key, id.String(), err)
	}

	return count, nil
}
