package entity

import (
	"github.com/google/uuid"
)

// Guide is the guide-side profile. TotalBookings and TotalRevenue are
// lifetime counters incremented only when a booking completes.
type Guide struct {
	Base
	UserID        uuid.UUID `db:"user_id"`
	Name          string    `db:"name"`
	Bio           *string   `db:"bio"`
	City          string    `db:"city"`
	Country       string    `db:"country"`
	TotalBookings int       `db:"total_bookings"`
	TotalRevenue  float64   `db:"total_revenue"`
}
