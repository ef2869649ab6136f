package response

import (
	"time"

	"tourlink/internal/data/entity"
)

type PaymentResponse struct {
	ID                     string               `json:"id"`
	BookingID              string               `json:"booking_id"`
	Amount                 float64              `json:"amount"`
	Currency               string               `json:"currency"`
	Status                 entity.PaymentStatus `json:"status"`
	GatewaySessionID       string               `json:"gateway_session_id,omitempty"`
	GatewayPaymentIntentID *string              `json:"gateway_payment_intent_id,omitempty"`
	CheckoutURL            *string              `json:"checkout_url,omitempty"`
	RefundAmount           *float64             `json:"refund_amount,omitempty"`
	PaidAt                 *time.Time           `json:"paid_at,omitempty"`
	RefundedAt             *time.Time           `json:"refunded_at,omitempty"`
	CreatedAt              time.Time            `json:"created_at"`
}

type RefundResponse struct {
	PaymentResponse
	GatewayRefundID string `json:"gateway_refund_id"`
}

func PaymentToResponse(payment *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                     payment.ID.String(),
		BookingID:              payment.BookingID.String(),
		Amount:                 payment.Amount,
		Currency:               payment.Currency,
		Status:                 payment.Status,
		GatewaySessionID:       payment.GatewaySessionID,
		GatewayPaymentIntentID: payment.GatewayPaymentIntentID,
		CheckoutURL:            payment.CheckoutURL,
		RefundAmount:           payment.RefundAmount,
		PaidAt:                 payment.PaidAt,
		RefundedAt:             payment.RefundedAt,
		CreatedAt:              payment.CreatedAt,
	}
}
