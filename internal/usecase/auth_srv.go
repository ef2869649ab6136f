package usecase

import (
	"context"
	"fmt"
	"time"

	"tourlink/internal/data/entity"
	"tourlink/internal/data/repository"
	"tourlink/internal/dto/request"
	"tourlink/internal/dto/response"
	"tourlink/pkg/apperror"
	"tourlink/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
	Logout(ctx context.Context, token string) error
}

type authService struct {
	repo   *repository.Repository
	config *utils.Config
	log    *zap.Logger
}

func NewAuthService(repo *repository.Repository, config *utils.Config, log *zap.Logger) AuthService {
	return &authService{
		repo:   repo,
		config: config,
		log:    log.With(zap.String("service", "auth")),
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Register validation failed", zap.Any("errors", errs))
		return nil, apperror.Validation("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	existing, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, apperror.Conflict("email %s is already registered", req.Email)
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashed,
		Phone:        req.Phone,
		Role:         entity.UserRole(req.Role),
		IsActive:     true,
	}

	var profileID uuid.UUID

	// User and role profile commit together.
	err = s.repo.Tx.WithinTx(ctx, func(r *repository.Repository) error {
		if err := r.User.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		switch user.Role {
		case entity.RoleGuide:
			guide := &entity.Guide{
				Base: entity.Base{
					ID:        uuid.New(),
					CreatedAt: now,
					UpdatedAt: now,
				},
				UserID:  user.ID,
				Name:    req.Name,
				Bio:     req.Bio,
				City:    req.City,
				Country: req.Country,
			}
			if err := r.Guide.Create(ctx, guide); err != nil {
				return fmt.Errorf("create guide profile: %w", err)
			}
			profileID = guide.ID
		default:
			tourist := &entity.Tourist{
				Base: entity.Base{
					ID:        uuid.New(),
					CreatedAt: now,
					UpdatedAt: now,
				},
				UserID:      user.ID,
				Name:        req.Name,
				Nationality: req.Nationality,
			}
			if err := r.Tourist.Create(ctx, tourist); err != nil {
				return fmt.Errorf("create tourist profile: %w", err)
			}
			profileID = tourist.ID
		}

		return nil
	})
	if err != nil {
		s.log.Error("Registration failed", zap.Error(err), zap.String("email", req.Email))
		return nil, err
	}

	session, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", req.Role),
	)

	return &response.AuthResponse{
		UserID:    user.ID.String(),
		ProfileID: profileID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		Token:     session.Token.String(),
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperror.Validation("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	user, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, apperror.Authorization("invalid email or password")
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		s.log.Warn("Login failed", zap.String("email", req.Email))
		return nil, apperror.Authorization("invalid email or password")
	}

	session, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	profileID := s.lookupProfileID(ctx, user)

	s.log.Info("User logged in", zap.String("user_id", user.ID.String()))

	return &response.AuthResponse{
		UserID:    user.ID.String(),
		ProfileID: profileID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		Token:     session.Token.String(),
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return apperror.Authorization("missing session token")
	}

	if err := s.repo.Session.Revoke(ctx, token); err != nil {
		return apperror.Authorization("invalid session")
	}

	return nil
}

func (s *authService) openSession(ctx context.Context, userID uuid.UUID) (*entity.Session, error) {
	session := &entity.Session{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     uuid.New(),
		ExpiresAt: time.Now().Add(time.Duration(s.config.Session.ExpiryHours) * time.Hour),
		CreatedAt: time.Now(),
	}

	if err := s.repo.Session.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	return session, nil
}

func (s *authService) lookupProfileID(ctx context.Context, user *entity.User) string {
	switch user.Role {
	case entity.RoleTourist:
		if tourist, err := s.repo.Tourist.FindByUserID(ctx, user.ID); err == nil && tourist != nil {
			return tourist.ID.String()
		}
	case entity.RoleGuide:
		if guide, err := s.repo.Guide.FindByUserID(ctx, user.ID); err == nil && guide != nil {
			return guide.ID.String()
		}
	}
	return ""
}
