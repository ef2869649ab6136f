package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusAccepted  BookingStatus = "ACCEPTED"
	BookingStatusDeclined  BookingStatus = "DECLINED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// bookingTransitions is the closed transition table. A status not present
// as a key is terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:  {BookingStatusAccepted, BookingStatusDeclined, BookingStatusCancelled},
	BookingStatusAccepted: {BookingStatusCompleted, BookingStatusCancelled},
}

// CanTransitionTo reports whether the table allows moving from s to target.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted from s.
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

type Booking struct {
	Base
	TouristID          uuid.UUID     `db:"tourist_id"`
	GuideID            uuid.UUID     `db:"guide_id"`
	ListingID          uuid.UUID     `db:"listing_id"`
	BookingDate        time.Time     `db:"booking_date"`
	NumberOfPeople     int           `db:"number_of_people"`
	TotalAmount        float64       `db:"total_amount"`
	SpecialRequests    *string       `db:"special_requests"`
	Status             BookingStatus `db:"status"`
	PaymentStatus      PaymentStatus `db:"payment_status"`
	CancellationReason *string       `db:"cancellation_reason"`
}
