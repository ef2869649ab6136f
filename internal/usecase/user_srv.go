package usecase

import (
	"context"
	"fmt"

	"tourlink/internal/data/entity"
	"tourlink/internal/data/repository"
	"tourlink/internal/dto/response"
	"tourlink/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserService interface {
	GetMe(ctx context.Context, userID string) (*response.UserResponse, error)
}

type userService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewUserService(repo *repository.Repository, log *zap.Logger) UserService {
	return &userService{
		repo: repo,
		log:  log.With(zap.String("service", "user")),
	}
}

func (s *userService) GetMe(ctx context.Context, userID string) (*response.UserResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperror.Validation("invalid user ID format %s", userID)
	}

	user, err := s.repo.User.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("user %s not found", userID)
	}

	resp := response.UserToResponse(user)

	switch user.Role {
	case entity.RoleTourist:
		tourist, err := s.repo.Tourist.FindByUserID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolve tourist profile: %w", err)
		}
		if tourist != nil {
			resp.TotalToursBooked = &tourist.TotalToursBooked
		}
	case entity.RoleGuide:
		guide, err := s.repo.Guide.FindByUserID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolve guide profile: %w", err)
		}
		if guide != nil {
			resp.TotalBookings = &guide.TotalBookings
			resp.TotalRevenue = &guide.TotalRevenue
		}
	}

	return &resp, nil
}
