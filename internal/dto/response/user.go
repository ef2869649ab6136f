package response

import (
	"time"

	"tourlink/internal/data/entity"
)

type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`

	// Profile stats, filled per role
	TotalToursBooked *int     `json:"total_tours_booked,omitempty"`
	TotalBookings    *int     `json:"total_bookings,omitempty"`
	TotalRevenue     *float64 `json:"total_revenue,omitempty"`
}

func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}
