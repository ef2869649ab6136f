package wire

import (
	"tourlink/internal/adaptor"
	"tourlink/internal/data/repository"
	"tourlink/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireUser(
	r chi.Router,
	userHandler *adaptor.UserHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo, log))

		// GET /api/users/me - Current profile with role stats
		r.Get("/api/users/me", userHandler.GetMe)
	})
}
