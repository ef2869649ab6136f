package response

import (
	"time"

	"tourlink/internal/data/entity"
)

type BookingResponse struct {
	ID                 string               `json:"id"`
	TouristID          string               `json:"tourist_id"`
	GuideID            string               `json:"guide_id"`
	ListingID          string               `json:"listing_id"`
	ListingTitle       string               `json:"listing_title,omitempty"`
	City               string               `json:"city,omitempty"`
	Country            string               `json:"country,omitempty"`
	BookingDate        time.Time            `json:"booking_date"`
	NumberOfPeople     int                  `json:"number_of_people"`
	TotalAmount        float64              `json:"total_amount"`
	SpecialRequests    *string              `json:"special_requests,omitempty"`
	Status             entity.BookingStatus `json:"status"`
	PaymentStatus      entity.PaymentStatus `json:"payment_status"`
	CancellationReason *string              `json:"cancellation_reason,omitempty"`
	Payment            *PaymentResponse     `json:"payment,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
}

func BookingToResponse(booking *entity.Booking, listing *entity.Listing) BookingResponse {
	resp := BookingResponse{
		ID:                 booking.ID.String(),
		TouristID:          booking.TouristID.String(),
		GuideID:            booking.GuideID.String(),
		ListingID:          booking.ListingID.String(),
		BookingDate:        booking.BookingDate,
		NumberOfPeople:     booking.NumberOfPeople,
		TotalAmount:        booking.TotalAmount,
		SpecialRequests:    booking.SpecialRequests,
		Status:             booking.Status,
		PaymentStatus:      booking.PaymentStatus,
		CancellationReason: booking.CancellationReason,
		CreatedAt:          booking.CreatedAt,
	}

	if listing != nil {
		resp.ListingTitle = listing.Title
		resp.City = listing.City
		resp.Country = listing.Country
	}

	return resp
}
