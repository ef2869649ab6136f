package request

type RegisterRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=100"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Phone    *string `json:"phone,omitempty"`
	Role     string  `json:"role" validate:"required,oneof=tourist guide"`

	// Guide-only profile fields
	Bio     *string `json:"bio,omitempty"`
	City    string  `json:"city,omitempty"`
	Country string  `json:"country,omitempty"`

	// Tourist-only profile fields
	Nationality *string `json:"nationality,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
