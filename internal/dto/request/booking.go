package request

type CreateBookingRequest struct {
	ListingID       string  `json:"listing_id" validate:"required,uuid4"`
	BookingDate     string  `json:"booking_date" validate:"required"`
	NumberOfPeople  int     `json:"number_of_people" validate:"required,min=1"`
	SpecialRequests *string `json:"special_requests,omitempty"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACCEPTED DECLINED"`
}

type CancelBookingRequest struct {
	CancellationReason string `json:"cancellation_reason" validate:"required,min=3"`
}

type BookingFilterRequest struct {
	PaginatedRequest
	Status string `json:"status,omitempty" validate:"omitempty,oneof=PENDING ACCEPTED DECLINED COMPLETED CANCELLED"`
}
