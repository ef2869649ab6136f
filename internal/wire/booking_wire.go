package wire

import (
	"tourlink/internal/adaptor"
	"tourlink/internal/data/entity"
	"tourlink/internal/data/repository"
	"tourlink/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo, log))

		// GET /api/bookings/my - Booking history for the caller's role
		r.Get("/api/bookings/my", bookingHandler.GetMyBookings)

		// GET /api/bookings/{id} - Booking details (participants only)
		r.Get("/api/bookings/{id}", bookingHandler.GetBookingByID)

		// DELETE /api/bookings/{id} - Cancel with a reason
		r.Delete("/api/bookings/{id}", bookingHandler.CancelBooking)
	})

	// ==================== TOURIST ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo, log))
		r.Use(middleware.RequireRole(log, string(entity.RoleTourist)))

		// POST /api/bookings - Request a new booking
		r.Post("/api/bookings", bookingHandler.CreateBooking)
	})

	// ==================== GUIDE ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo, log))
		r.Use(middleware.RequireRole(log, string(entity.RoleGuide)))

		// PATCH /api/bookings/{id}/status - Accept or decline a request
		r.Patch("/api/bookings/{id}/status", bookingHandler.UpdateBookingStatus)

		// PATCH /api/bookings/{id}/complete - Mark a tour as done
		r.Patch("/api/bookings/{id}/complete", bookingHandler.CompleteBooking)
	})
}
