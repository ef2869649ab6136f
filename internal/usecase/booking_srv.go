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

type BookingService interface {
	CreateBooking(ctx context.Context, userID string, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetMyBookings(ctx context.Context, userID string, req *request.BookingFilterRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	GetBookingByID(ctx context.Context, userID, bookingID string) (*response.BookingResponse, error)
	UpdateBookingStatus(ctx context.Context, userID, bookingID string, req *request.UpdateBookingStatusRequest) (*response.BookingResponse, error)
	CompleteBooking(ctx context.Context, userID, bookingID string) (*response.BookingResponse, error)
	CancelBooking(ctx context.Context, userID, bookingID string, req *request.CancelBookingRequest) (*response.BookingResponse, error)
	GetListingBookings(ctx context.Context, userID, listingID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
}

type bookingService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewBookingService(repo *repository.Repository, log *zap.Logger) BookingService {
	return &bookingService{
		repo: repo,
		log:  log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, userID string, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, apperror.Validation("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	tourist, err := s.resolveTourist(ctx, userID)
	if err != nil {
		return nil, err
	}

	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		return nil, apperror.Validation("invalid listing ID format %s", req.ListingID)
	}

	bookingDate, err := parseBookingDate(req.BookingDate)
	if err != nil {
		return nil, apperror.Validation("invalid booking date %s", req.BookingDate)
	}

	// Catalog guards, checked before any write
	listing, err := s.repo.Listing.FindByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("check listing: %w", err)
	}
	if listing == nil {
		return nil, apperror.NotFound("listing %s not found", req.ListingID)
	}
	if !listing.Available() {
		return nil, apperror.Validation("listing is not available")
	}

	guide, err := s.repo.Guide.FindByID(ctx, listing.GuideID)
	if err != nil {
		return nil, fmt.Errorf("check guide: %w", err)
	}
	if guide == nil || guide.DeletedAt != nil {
		return nil, apperror.Validation("guide is not available")
	}

	if !bookingDate.After(time.Now()) {
		return nil, apperror.Validation("booking date must be in the future")
	}

	if req.NumberOfPeople > listing.MaxGroupSize {
		return nil, apperror.Validation("number of people exceeds maximum group size of %d", listing.MaxGroupSize)
	}

	// totalAmount is fixed here and never recalculated, even if the listing
	// price changes later.
	totalAmount := listing.PricePerPerson * float64(req.NumberOfPeople)

	now := time.Now()
	booking := &entity.Booking{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		TouristID:       tourist.ID,
		GuideID:         listing.GuideID,
		ListingID:       listingID,
		BookingDate:     bookingDate,
		NumberOfPeople:  req.NumberOfPeople,
		TotalAmount:     totalAmount,
		SpecialRequests: req.SpecialRequests,
		Status:          entity.BookingStatusPending,
		PaymentStatus:   entity.PaymentStatusPending,
	}

	if err := s.repo.Booking.Create(ctx, booking); err != nil {
		s.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("tourist_id", tourist.ID.String()),
			zap.String("listing_id", req.ListingID),
		)
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("tourist_id", tourist.ID.String()),
		zap.String("listing_id", req.ListingID),
		zap.Int("number_of_people", req.NumberOfPeople),
		zap.Float64("total_amount", totalAmount),
	)

	resp := response.BookingToResponse(booking, listing)
	return &resp, nil
}

func (s *bookingService) GetMyBookings(ctx context.Context, userID string, req *request.BookingFilterRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperror.Validation("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	filter := repository.BookingFilter{Status: entity.BookingStatus(req.Status)}
	limit := req.Limit()
	offset := req.Offset()

	var bookings []*entity.Booking
	var total int64

	switch user.Role {
	case entity.RoleTourist:
		tourist, err := s.resolveTourist(ctx, userID)
		if err != nil {
			return nil, err
		}
		bookings, err = s.repo.Booking.FindByTouristID(ctx, tourist.ID, filter, limit, offset)
		if err != nil {
			return nil, fmt.Errorf("get tourist bookings: %w", err)
		}
		total, err = s.repo.Booking.CountByTouristID(ctx, tourist.ID, filter)
		if err != nil {
			return nil, fmt.Errorf("count tourist bookings: %w", err)
		}
	case entity.RoleGuide:
		guide, err := s.resolveGuide(ctx, userID)
		if err != nil {
			return nil, err
		}
		bookings, err = s.repo.Booking.FindByGuideID(ctx, guide.ID, filter, limit, offset)
		if err != nil {
			return nil, fmt.Errorf("get guide bookings: %w", err)
		}
		total, err = s.repo.Booking.CountByGuideID(ctx, guide.ID, filter)
		if err != nil {
			return nil, fmt.Errorf("count guide bookings: %w", err)
		}
	default:
		return nil, apperror.Authorization("no bookings for role %s", string(user.Role))
	}

	return response.NewPaginatedResponse(s.toBookingResponses(ctx, bookings), req.Page, req.PerPage, total), nil
}

func (s *bookingService) GetBookingByID(ctx context.Context, userID, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeParticipant(ctx, userID, booking, "view"); err != nil {
		return nil, err
	}

	listing, err := s.repo.Listing.FindByID(ctx, booking.ListingID)
	if err != nil {
		s.log.Warn("Failed to load listing for booking response",
			zap.Error(err),
			zap.String("booking_id", bookingID),
		)
	}
	resp := response.BookingToResponse(booking, listing)

	payment, err := s.repo.Payment.FindByBookingID(ctx, booking.ID)
	if err != nil {
		s.log.Warn("Failed to load payment for booking response",
			zap.Error(err),
			zap.String("booking_id", bookingID),
		)
	}
	if payment != nil {
		paymentResp := response.PaymentToResponse(payment)
		resp.Payment = &paymentResp
	}

	return &resp, nil
}

func (s *bookingService) UpdateBookingStatus(ctx context.Context, userID, bookingID string, req *request.UpdateBookingStatusRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperror.Validation("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	guide, err := s.resolveGuide(ctx, userID)
	if err != nil {
		return nil, err
	}

	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.GuideID != guide.ID {
		return nil, apperror.Authorization("you are not authorized to update this booking")
	}

	target := entity.BookingStatus(req.Status)
	if !booking.Status.CanTransitionTo(target) {
		return nil, s.transitionConflict(booking.Status, target)
	}

	// Conditional write: only one of two racing transitions lands.
	updated, err := s.repo.Booking.UpdateStatusFrom(ctx, booking.ID, entity.BookingStatusPending, target)
	if err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	if !updated {
		return nil, s.staleTransition(ctx, booking.ID, target)
	}

	s.log.Info("Booking status updated",
		zap.String("booking_id", bookingID),
		zap.String("status", string(target)),
		zap.String("guide_id", guide.ID.String()),
	)

	return s.GetBookingByID(ctx, userID, bookingID)
}

func (s *bookingService) CompleteBooking(ctx context.Context, userID, bookingID string) (*response.BookingResponse, error) {
	guide, err := s.resolveGuide(ctx, userID)
	if err != nil {
		return nil, err
	}

	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.GuideID != guide.ID {
		return nil, apperror.Authorization("you are not authorized to complete this booking")
	}

	if !booking.Status.CanTransitionTo(entity.BookingStatusCompleted) {
		return nil, s.transitionConflict(booking.Status, entity.BookingStatusCompleted)
	}

	// Completion and both stat counters commit together or not at all.
	err = s.repo.Tx.WithinTx(ctx, func(r *repository.Repository) error {
		updated, err := r.Booking.UpdateStatusFrom(ctx, booking.ID, entity.BookingStatusAccepted, entity.BookingStatusCompleted)
		if err != nil {
			return fmt.Errorf("complete booking: %w", err)
		}
		if !updated {
			return s.staleTransition(ctx, booking.ID, entity.BookingStatusCompleted)
		}

		if ok, err := r.Guide.IncrementStats(ctx, booking.GuideID, booking.TotalAmount); err != nil {
			return fmt.Errorf("update guide stats: %w", err)
		} else if !ok {
			return fmt.Errorf("guide %s not found for stats update", booking.GuideID.String())
		}

		if ok, err := r.Tourist.IncrementToursBooked(ctx, booking.TouristID); err != nil {
			return fmt.Errorf("update tourist stats: %w", err)
		} else if !ok {
			return fmt.Errorf("tourist %s not found for stats update", booking.TouristID.String())
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Booking completed",
		zap.String("booking_id", bookingID),
		zap.String("guide_id", booking.GuideID.String()),
		zap.Float64("total_amount", booking.TotalAmount),
	)

	return s.GetBookingByID(ctx, userID, bookingID)
}

func (s *bookingService) CancelBooking(ctx context.Context, userID, bookingID string, req *request.CancelBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperror.Validation("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeParticipant(ctx, userID, booking, "cancel"); err != nil {
		return nil, err
	}

	if !booking.Status.CanTransitionTo(entity.BookingStatusCancelled) {
		return nil, s.transitionConflict(booking.Status, entity.BookingStatusCancelled)
	}

	updated, err := s.repo.Booking.CancelFrom(ctx, booking.ID, booking.Status, req.CancellationReason)
	if err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}
	if !updated {
		return nil, s.staleTransition(ctx, booking.ID, entity.BookingStatusCancelled)
	}

	s.log.Info("Booking cancelled",
		zap.String("booking_id", bookingID),
		zap.String("reason", req.CancellationReason),
	)

	fresh, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	listing, err := s.repo.Listing.FindByID(ctx, fresh.ListingID)
	if err != nil {
		s.log.Warn("Failed to load listing for booking response",
			zap.Error(err),
			zap.String("booking_id", bookingID),
		)
	}
	resp := response.BookingToResponse(fresh, listing)
	return &resp, nil
}

func (s *bookingService) GetListingBookings(ctx context.Context, userID, listingID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	guide, err := s.resolveGuide(ctx, userID)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(listingID)
	if err != nil {
		return nil, apperror.Validation("invalid listing ID format %s", listingID)
	}

	listing, err := s.repo.Listing.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("check listing: %w", err)
	}
	if listing == nil {
		return nil, apperror.NotFound("listing %s not found", listingID)
	}
	if listing.GuideID != guide.ID {
		return nil, apperror.Authorization("you are not authorized to view bookings for this listing")
	}

	bookings, err := s.repo.Booking.FindByListingID(ctx, id, repository.BookingFilter{}, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("get listing bookings: %w", err)
	}
	total, err := s.repo.Booking.CountByListingID(ctx, id, repository.BookingFilter{})
	if err != nil {
		return nil, fmt.Errorf("count listing bookings: %w", err)
	}

	return response.NewPaginatedResponse(s.toBookingResponses(ctx, bookings), req.Page, req.PerPage, total), nil
}

// ==================== HELPER METHODS ====================

func (s *bookingService) findUser(ctx context.Context, userID string) (*entity.User, error) {
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

	return user, nil
}

func (s *bookingService) resolveTourist(ctx context.Context, userID string) (*entity.Tourist, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperror.Validation("invalid user ID format %s", userID)
	}

	tourist, err := s.repo.Tourist.FindByUserID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve tourist profile: %w", err)
	}
	if tourist == nil {
		return nil, apperror.Authorization("tourist profile required")
	}

	return tourist, nil
}

func (s *bookingService) resolveGuide(ctx context.Context, userID string) (*entity.Guide, error) {
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

	return guide, nil
}

func (s *bookingService) findBooking(ctx context.Context, bookingID string) (*entity.Booking, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, apperror.Validation("invalid booking ID format %s", bookingID)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil || booking.DeletedAt != nil {
		return nil, apperror.NotFound("booking %s not found", bookingID)
	}

	return booking, nil
}

// authorizeParticipant allows the booking's tourist or guide through.
func (s *bookingService) authorizeParticipant(ctx context.Context, userID string, booking *entity.Booking, action string) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}

	switch user.Role {
	case entity.RoleTourist:
		tourist, err := s.repo.Tourist.FindByUserID(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("resolve tourist profile: %w", err)
		}
		if tourist != nil && tourist.ID == booking.TouristID {
			return nil
		}
	case entity.RoleGuide:
		guide, err := s.repo.Guide.FindByUserID(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("resolve guide profile: %w", err)
		}
		if guide != nil && guide.ID == booking.GuideID {
			return nil
		}
	case entity.RoleAdmin:
		return nil
	}

	return apperror.Authorization("you are not authorized to %s this booking", action)
}

func (s *bookingService) transitionConflict(current, requested entity.BookingStatus) error {
	if current.IsTerminal() {
		return apperror.Conflict("booking is in terminal state %s, cannot transition to %s", string(current), string(requested))
	}
	return apperror.Conflict("cannot transition booking from %s to %s", string(current), string(requested))
}

// staleTransition turns a lost conditional write into a conflict naming the
// state the winner left behind.
func (s *bookingService) staleTransition(ctx context.Context, id uuid.UUID, requested entity.BookingStatus) error {
	fresh, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil || fresh == nil {
		return apperror.Conflict("booking state changed concurrently, cannot transition to %s", string(requested))
	}
	return s.transitionConflict(fresh.Status, requested)
}

func (s *bookingService) toBookingResponses(ctx context.Context, bookings []*entity.Booking) []response.BookingResponse {
	responses := make([]response.BookingResponse, len(bookings))
	for i, booking := range bookings {
		listing, err := s.repo.Listing.FindByID(ctx, booking.ListingID)
		if err != nil {
			s.log.Warn("Failed to load listing for booking response",
				zap.Error(err),
				zap.String("booking_id", booking.ID.String()),
			)
		}
		responses[i] = response.BookingToResponse(booking, listing)

		payment, err := s.repo.Payment.FindByBookingID(ctx, booking.ID)
		if err != nil {
			s.log.Warn("Failed to load payment for booking response",
				zap.Error(err),
				zap.String("booking_id", booking.ID.String()),
			)
		}
		if payment != nil {
			paymentResp := response.PaymentToResponse(payment)
			responses[i].Payment = &paymentResp
		}
	}
	return responses
}

func parseBookingDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
