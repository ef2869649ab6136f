package response

import (
	"time"

	"tourlink/internal/data/entity"
)

type ListingResponse struct {
	ID             string    `json:"id"`
	GuideID        string    `json:"guide_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	City           string    `json:"city"`
	Country        string    `json:"country"`
	PricePerPerson float64   `json:"price_per_person"`
	MaxGroupSize   int       `json:"max_group_size"`
	DurationHours  int       `json:"duration_hours"`
	MeetingPoint   string    `json:"meeting_point"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

func ListingToResponse(listing *entity.Listing) ListingResponse {
	return ListingResponse{
		ID:             listing.ID.String(),
		GuideID:        listing.GuideID.String(),
		Title:          listing.Title,
		Description:    listing.Description,
		City:           listing.City,
		Country:        listing.Country,
		PricePerPerson: listing.PricePerPerson,
		MaxGroupSize:   listing.MaxGroupSize,
		DurationHours:  listing.DurationHours,
		MeetingPoint:   listing.MeetingPoint,
		IsActive:       listing.IsActive,
		CreatedAt:      listing.CreatedAt,
	}
}
