package request

type CreateListingRequest struct {
	Title          string  `json:"title" validate:"required,min=3,max=200"`
	Description    string  `json:"description" validate:"required,min=10"`
	City           string  `json:"city" validate:"required"`
	Country        string  `json:"country" validate:"required"`
	PricePerPerson float64 `json:"price_per_person" validate:"required,gt=0"`
	MaxGroupSize   int     `json:"max_group_size" validate:"required,min=1,max=100"`
	DurationHours  int     `json:"duration_hours" validate:"required,min=1"`
	MeetingPoint   string  `json:"meeting_point" validate:"required"`
}

type ListingFilterRequest struct {
	PaginatedRequest
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}
