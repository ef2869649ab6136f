package wire

import (
	"tourlink/internal/adaptor"
	"tourlink/internal/data/entity"
	"tourlink/internal/data/repository"
	"tourlink/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// POST /api/payments/webhook - Gateway event delivery, verified by
	// signature rather than session.
	r.Post("/api/payments/webhook", paymentHandler.Webhook)

	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo, log))

		// GET /api/payments/my - Payment history for the caller's role
		r.Get("/api/payments/my", paymentHandler.GetMyPayments)

		// GET /api/payments/{id} - Payment details (participants only)
		r.Get("/api/payments/{id}", paymentHandler.GetPaymentByID)
	})

	// ==================== TOURIST ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo, log))
		r.Use(middleware.RequireRole(log, string(entity.RoleTourist)))

		// POST /api/payments - Open a checkout session for a booking
		r.Post("/api/payments", paymentHandler.CreatePayment)
	})

	// ==================== GUIDE / ADMIN ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo, log))
		r.Use(middleware.RequireRole(log, string(entity.RoleGuide), string(entity.RoleAdmin)))

		// POST /api/payments/{id}/refund - Refund a completed payment
		r.Post("/api/payments/{id}/refund", paymentHandler.Refund)
	})
}
