package request

type CreatePaymentRequest struct {
	BookingID  string `json:"booking_id" validate:"required,uuid4"`
	SuccessURL string `json:"success_url,omitempty" validate:"omitempty,url"`
	CancelURL  string `json:"cancel_url,omitempty" validate:"omitempty,url"`
}

type RefundRequest struct {
	Amount *float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Reason string   `json:"reason,omitempty"`
}

type PaymentFilterRequest struct {
	PaginatedRequest
	Status string `json:"status,omitempty" validate:"omitempty,oneof=PENDING COMPLETED FAILED REFUNDED"`
}
