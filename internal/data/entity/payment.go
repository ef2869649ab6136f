package entity

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// Terminal payment statuses never change again except COMPLETED -> REFUNDED.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusRefunded
}

// Payment is the single payment row per booking (booking_id unique).
// Mutated only by the webhook reconciler and the refund processor.
type Payment struct {
	Base
	BookingID              uuid.UUID     `db:"booking_id"`
	Amount                 float64       `db:"amount"`
	Currency               string        `db:"currency"`
	GatewaySessionID       string        `db:"gateway_session_id"`
	GatewayPaymentIntentID *string       `db:"gateway_payment_intent_id"`
	CheckoutURL            *string       `db:"checkout_url"`
	Status                 PaymentStatus `db:"status"`
	RefundAmount           *float64      `db:"refund_amount"`
	PaidAt                 *time.Time    `db:"paid_at"`
	RefundedAt             *time.Time    `db:"refunded_at"`
}
