package entity

import (
	"github.com/google/uuid"
)

type Tourist struct {
	Base
	UserID           uuid.UUID `db:"user_id"`
	Name             string    `db:"name"`
	Nationality      *string   `db:"nationality"`
	TotalToursBooked int       `db:"total_tours_booked"`
}
