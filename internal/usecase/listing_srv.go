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

type ListingService interface {
	CreateListing(ctx context.Context, userID string, req *request.CreateListingRequest) (*response.ListingResponse, error)
	GetListingByID(ctx context.Context, listingID string) (*response.ListingResponse, error)
	GetListings(ctx context.Context, req *request.ListingFilterRequest) (*response.PaginatedResponse[response.ListingResponse], error)
}

type listingService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewListingService(repo *repository.Repository, log *zap.Logger) ListingService {
	return &listingService{
		repo: repo,
		log:  log.With(zap.String("service", "listing")),
	}
}

func (s *listingService) CreateListing(ctx context.Context, userID string, req *request.CreateListingRequest) (*response.ListingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create listing validation failed", zap.Any("errors", errs))
		return nil, apperror.Validation("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperror.Validation("invalid user ID format %s", userID)
	}

	guide, err := s.repo.Guide.FindByUserID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve guide profile: %w", err)
	}
	if guide == nil {
		return nil, apperror.Authorization("guide profile required")
	}

	now := time.Now()
	listing := &entity.Listing{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		GuideID:        guide.ID,
		Title:          req.Title,
		Description:    req.Description,
		City:           req.City,
		Country:        req.Country,
		PricePerPerson: req.PricePerPerson,
		MaxGroupSize:   req.MaxGroupSize,
		DurationHours:  req.DurationHours,
		MeetingPoint:   req.MeetingPoint,
		IsActive:       true,
	}

	if err := s.repo.Listing.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}

	s.log.Info("Listing created",
		zap.String("listing_id", listing.ID.String()),
		zap.String("guide_id", guide.ID.String()),
		zap.String("title", listing.Title),
	)

	resp := response.ListingToResponse(listing)
	return &resp, nil
}

func (s *listingService) GetListingByID(ctx context.Context, listingID string) (*response.ListingResponse, error) {
	id, err := uuid.Parse(listingID)
	if err != nil {
		return nil, apperror.Validation("invalid listing ID format %s", listingID)
	}

	listing, err := s.repo.Listing.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find listing: %w", err)
	}
	if listing == nil || listing.DeletedAt != nil {
		return nil, apperror.NotFound("listing %s not found", listingID)
	}

	resp := response.ListingToResponse(listing)
	return &resp, nil
}

func (s *listingService) GetListings(ctx context.Context, req *request.ListingFilterRequest) (*response.PaginatedResponse[response.ListingResponse], error) {
	filter := repository.ListingFilter{
		City:    req.City,
		Country: req.Country,
	}

	listings, err := s.repo.Listing.FindActive(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("find listings: %w", err)
	}

	total, err := s.repo.Listing.CountActive(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}

	responses := make([]response.ListingResponse, len(listings))
	for i, listing := range listings {
		responses[i] = response.ListingToResponse(listing)
	}

	return response.NewPaginatedResponse(responses, req.Page, req.PerPage, total), nil
}
