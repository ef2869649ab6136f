package entity

import (
	"github.com/google/uuid"
)

type Listing struct {
	Base
	GuideID        uuid.UUID `db:"guide_id"`
	Title          string    `db:"title"`
	Description    string    `db:"description"`
	City           string    `db:"city"`
	Country        string    `db:"country"`
	PricePerPerson float64   `db:"price_per_person"`
	MaxGroupSize   int       `db:"max_group_size"`
	DurationHours  int       `db:"duration_hours"`
	MeetingPoint   string    `db:"meeting_point"`
	IsActive       bool      `db:"is_active"`
}

// Available reports whether the listing can accept new bookings.
func (l *Listing) Available() bool {
	return l.IsActive && l.DeletedAt == nil
}
