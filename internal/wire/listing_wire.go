package wire

import (
	"tourlink/internal/adaptor"
	"tourlink/internal/data/entity"
	"tourlink/internal/data/repository"
	"tourlink/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireListing(
	r chi.Router,
	listingHandler *adaptor.ListingHandler,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/listings - Browse the catalog
	r.Get("/api/listings", listingHandler.GetListings)

	// GET /api/listings/{id} - Listing details
	r.Get("/api/listings/{id}", listingHandler.GetListingByID)

	// ==================== GUIDE ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo, log))
		r.Use(middleware.RequireRole(log, string(entity.RoleGuide), string(entity.RoleAdmin)))

		// POST /api/listings - Publish a new listing
		r.Post("/api/listings", listingHandler.CreateListing)

		// GET /api/listings/{id}/bookings - Bookings against one listing
		r.Get("/api/listings/{id}/bookings", bookingHandler.GetListingBookings)
	})
}
