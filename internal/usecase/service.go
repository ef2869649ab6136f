package usecase

import (
	"tourlink/internal/data/repository"
	"tourlink/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth    AuthService
	User    UserService
	Listing ListingService
	Booking BookingService
	Payment PaymentService
}

func NewService(repo *repository.Repository, config *utils.Config, gw PaymentGateway, log *zap.Logger) *Service {
	return &Service{
		Auth:    NewAuthService(repo, config, log),
		User:    NewUserService(repo, log),
		Listing: NewListingService(repo, log),
		Booking: NewBookingService(repo, log),
		Payment: NewPaymentService(repo, gw, config, log),
	}
}
