package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"tourlink/internal/data/entity"
	"tourlink/internal/data/repository"
	"tourlink/internal/dto/request"
	"tourlink/internal/dto/response"
	"tourlink/pkg/apperror"
	"tourlink/pkg/gateway"
	"tourlink/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const paymentCurrency = "usd"

// metadataBookingID is the metadata key linking a checkout session back to
// the booking it pays for.
const metadataBookingID = "bookingId"

// PaymentGateway is the provider surface the payment service needs.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, params gateway.CheckoutParams) (*gateway.CheckoutSessionRef, error)
	CreateRefund(ctx context.Context, params gateway.RefundParams) (*gateway.Refund, error)
	VerifyWebhookSignature(rawBody []byte, header string) bool
}

type PaymentService interface {
	CreatePayment(ctx context.Context, userID string, req *request.CreatePaymentRequest) (*response.PaymentResponse, error)
	GetPaymentByID(ctx context.Context, userID, paymentID string) (*response.PaymentResponse, error)
	GetMyPayments(ctx context.Context, userID string, req *request.PaymentFilterRequest) (*response.PaginatedResponse[response.PaymentResponse], error)
	Refund(ctx context.Context, userID, paymentID string, req *request.RefundRequest) (*response.RefundResponse, error)

	// HandleWebhook applies one gateway event delivery. Safe under duplicate
	// and out-of-order redelivery; rawBody must be the unmodified request
	// body the signature was computed over.
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) error
}

type paymentService struct {
	repo    *repository.Repository
	gateway PaymentGateway
	config  *utils.Config
	log     *zap.Logger
}

func NewPaymentService(repo *repository.Repository, gw PaymentGateway, config *utils.Config, log *zap.Logger) PaymentService {
	return &paymentService{
		repo:    repo,
		gateway: gw,
		config:  config,
		log:     log.With(zap.String("service", "payment")),
	}
}

func (s *paymentService) CreatePayment(ctx context.Context, userID string, req *request.CreatePaymentRequest) (*response.PaymentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create payment validation failed", zap.Any("errors", errs))
		return nil, apperror.Validation("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperror.Validation("invalid user ID format %s", userID)
	}

	tourist, err := s.repo.Tourist.FindByUserID(ctx, userUUID)
	if err != nil {
		return nil, fmt.Errorf("resolve tourist profile: %w", err)
	}
	if tourist == nil {
		return nil, apperror.Authorization("tourist profile required")
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, apperror.Validation("invalid booking ID format %s", req.BookingID)
	}

	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil || booking.DeletedAt != nil {
		return nil, apperror.NotFound("booking %s not found", req.BookingID)
	}

	if booking.TouristID != tourist.ID {
		return nil, apperror.Authorization("you are not authorized to pay for this booking")
	}

	if booking.Status != entity.BookingStatusAccepted {
		return nil, apperror.Conflict("booking status is %s, only accepted bookings can be paid for", string(booking.Status))
	}

	// Idempotent re-entry: a second request before the first session
	// resolves returns the existing session instead of opening another.
	existing, err := s.repo.Payment.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("check existing payment: %w", err)
	}
	if existing != nil {
		if existing.Status == entity.PaymentStatusCompleted {
			return nil, apperror.Conflict("this booking has already been paid")
		}
		resp := response.PaymentToResponse(existing)
		return &resp, nil
	}

	listing, err := s.repo.Listing.FindByID(ctx, booking.ListingID)
	if err != nil {
		return nil, fmt.Errorf("find listing: %w", err)
	}

	productName := "Tour booking"
	if listing != nil {
		productName = listing.Title
	}

	user, err := s.repo.User.FindByID(ctx, userUUID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	customerEmail := ""
	if user != nil {
		customerEmail = user.Email
	}

	successURL := req.SuccessURL
	if successURL == "" {
		successURL = fmt.Sprintf("%s/bookings/%s?payment=success", s.config.App.FrontendURL, booking.ID.String())
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = fmt.Sprintf("%s/bookings/%s?payment=cancelled", s.config.App.FrontendURL, booking.ID.String())
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, gateway.CheckoutParams{
		AmountMinor:        int64(math.Round(booking.TotalAmount * 100)),
		Currency:           paymentCurrency,
		ProductName:        productName,
		ProductDescription: fmt.Sprintf("Booking for %d people", booking.NumberOfPeople),
		CustomerEmail:      customerEmail,
		SuccessURL:         successURL,
		CancelURL:          cancelURL,
		Metadata: map[string]string{
			metadataBookingID: booking.ID.String(),
			"touristId":       booking.TouristID.String(),
			"guideId":         booking.GuideID.String(),
		},
	})
	if err != nil {
		s.log.Error("Checkout session creation failed",
			zap.Error(err),
			zap.String("booking_id", req.BookingID),
		)
		return nil, apperror.Gateway(err, "failed to create checkout session")
	}

	now := time.Now()
	payment := &entity.Payment{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		BookingID:        bookingID,
		Amount:           booking.TotalAmount,
		Currency:         paymentCurrency,
		GatewaySessionID: session.ID,
		CheckoutURL:      &session.URL,
		Status:           entity.PaymentStatusPending,
	}

	if err := s.repo.Payment.Create(ctx, payment); err != nil {
		// A concurrent request won the unique booking_id race; hand back its
		// session rather than failing the caller.
		if errors.Is(err, repository.ErrDuplicateBookingPayment) {
			winner, findErr := s.repo.Payment.FindByBookingID(ctx, bookingID)
			if findErr == nil && winner != nil {
				resp := response.PaymentToResponse(winner)
				return &resp, nil
			}
		}
		return nil, fmt.Errorf("create payment: %w", err)
	}

	s.log.Info("Payment session created",
		zap.String("payment_id", payment.ID.String()),
		zap.String("booking_id", req.BookingID),
		zap.String("session_id", session.ID),
		zap.Float64("amount", payment.Amount),
	)

	resp := response.PaymentToResponse(payment)
	return &resp, nil
}

func (s *paymentService) GetPaymentByID(ctx context.Context, userID, paymentID string) (*response.PaymentResponse, error) {
	id, err := uuid.Parse(paymentID)
	if err != nil {
		return nil, apperror.Validation("invalid payment ID format %s", paymentID)
	}

	payment, err := s.repo.Payment.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}
	if payment == nil {
		return nil, apperror.NotFound("payment %s not found", paymentID)
	}

	booking, err := s.repo.Booking.FindByID(ctx, payment.BookingID)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, apperror.NotFound("booking for payment %s not found", paymentID)
	}

	if err := s.authorizeParticipant(ctx, userID, booking); err != nil {
		return nil, err
	}

	resp := response.PaymentToResponse(payment)
	return &resp, nil
}

func (s *paymentService) GetMyPayments(ctx context.Context, userID string, req *request.PaymentFilterRequest) (*response.PaginatedResponse[response.PaymentResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperror.Validation("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperror.Validation("invalid user ID format %s", userID)
	}

	user, err := s.repo.User.FindByID(ctx, userUUID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("user %s not found", userID)
	}

	filter := repository.PaymentFilter{Status: entity.PaymentStatus(req.Status)}
	limit := req.Limit()
	offset := req.Offset()

	var payments []*entity.Payment
	var total int64

	switch user.Role {
	case entity.RoleTourist:
		tourist, err := s.repo.Tourist.FindByUserID(ctx, userUUID)
		if err != nil {
			return nil, fmt.Errorf("resolve tourist profile: %w", err)
		}
		if tourist == nil {
			return nil, apperror.Authorization("tourist profile required")
		}
		payments, err = s.repo.Payment.FindByTouristID(ctx, tourist.ID, filter, limit, offset)
		if err != nil {
			return nil, fmt.Errorf("get tourist payments: %w", err)
		}
		total, err = s.repo.Payment.CountByTouristID(ctx, tourist.ID, filter)
		if err != nil {
			return nil, fmt.Errorf("count tourist payments: %w", err)
		}
	case entity.RoleGuide:
		guide, err := s.repo.Guide.FindByUserID(ctx, userUUID)
		if err != nil {
			return nil, fmt.Errorf("resolve guide profile: %w", err)
		}
		if guide == nil {
			return nil, apperror.Authorization("guide profile required")
		}
		payments, err = s.repo.Payment.FindByGuideID(ctx, guide.ID, filter, limit, offset)
		if err != nil {
			return nil, fmt.Errorf("get guide payments: %w", err)
		}
		total, err = s.repo.Payment.CountByGuideID(ctx, guide.ID, filter)
		if err != nil {
			return nil, fmt.Errorf("count guide payments: %w", err)
		}
	default:
		return nil, apperror.Authorization("no payments for role %s", string(user.Role))
	}

	responses := make([]response.PaymentResponse, len(payments))
	for i, payment := range payments {
		responses[i] = response.PaymentToResponse(payment)
	}

	return response.NewPaginatedResponse(responses, req.Page, req.PerPage, total), nil
}

func (s *paymentService) Refund(ctx context.Context, userID, paymentID string, req *request.RefundRequest) (*response.RefundResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperror.Validation("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	id, err := uuid.Parse(paymentID)
	if err != nil {
		return nil, apperror.Validation("invalid payment ID format %s", paymentID)
	}

	payment, err := s.repo.Payment.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}
	if payment == nil {
		return nil, apperror.NotFound("payment %s not found", paymentID)
	}

	if payment.Status == entity.PaymentStatusRefunded {
		return nil, apperror.Conflict("payment has already been refunded")
	}
	if payment.Status != entity.PaymentStatusCompleted {
		return nil, apperror.Conflict("payment status is %s, only completed payments can be refunded", string(payment.Status))
	}

	booking, err := s.repo.Booking.FindByID(ctx, payment.BookingID)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, apperror.NotFound("booking for payment %s not found", paymentID)
	}

	if err := s.authorizeRefund(ctx, userID, booking); err != nil {
		return nil, err
	}

	refundAmount := payment.Amount
	if req.Amount != nil {
		refundAmount = *req.Amount
	}
	// Rejected before any gateway call
	if refundAmount > payment.Amount {
		return nil, apperror.Validation("refund amount %.2f cannot exceed payment amount %.2f", refundAmount, payment.Amount)
	}

	if payment.GatewayPaymentIntentID == nil {
		return nil, apperror.Conflict("payment intent not linked, cannot refund")
	}

	refund, err := s.gateway.CreateRefund(ctx, gateway.RefundParams{
		PaymentIntentID: *payment.GatewayPaymentIntentID,
		AmountMinor:     int64(math.Round(refundAmount * 100)),
		Reason:          req.Reason,
	})
	if err != nil {
		s.log.Error("Gateway refund failed",
			zap.Error(err),
			zap.String("payment_id", paymentID),
		)
		return nil, apperror.Gateway(err, "failed to process refund")
	}

	updated, err := s.repo.Payment.MarkRefunded(ctx, payment.ID, refundAmount)
	if err != nil {
		return nil, fmt.Errorf("mark payment refunded: %w", err)
	}
	if !updated {
		return nil, apperror.Conflict("payment was refunded concurrently")
	}

	s.log.Info("Payment refunded",
		zap.String("payment_id", paymentID),
		zap.String("refund_id", refund.ID),
		zap.Float64("refund_amount", refundAmount),
	)

	fresh, err := s.repo.Payment.FindByID(ctx, payment.ID)
	if err != nil || fresh == nil {
		return nil, fmt.Errorf("reload refunded payment: %w", err)
	}

	return &response.RefundResponse{
		PaymentResponse: response.PaymentToResponse(fresh),
		GatewayRefundID: refund.ID,
	}, nil
}

// ==================== WEBHOOK RECONCILER ====================

func (s *paymentService) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	if !s.gateway.VerifyWebhookSignature(rawBody, signature) {
		// One opaque rejection for bad signature and malformed header alike.
		return apperror.Gateway(nil, "webhook verification failed")
	}

	event, err := gateway.ParseEvent(rawBody)
	if err != nil {
		// Same opaque rejection: a signed-but-garbled body must not be
		// distinguishable from a signature failure.
		s.log.Warn("Webhook body unparseable after valid signature", zap.Error(err))
		return apperror.Gateway(nil, "webhook verification failed")
	}

	switch event.Type {
	case gateway.EventCheckoutSessionCompleted:
		return s.applySessionCompleted(ctx, event)
	case gateway.EventPaymentIntentSucceeded:
		return s.applyIntentSucceeded(ctx, event)
	case gateway.EventPaymentIntentFailed:
		return s.applyIntentFailed(ctx, event)
	default:
		// Unknown kinds are dropped without error so the provider does not
		// keep redelivering them.
		s.log.Info("Unhandled webhook event type",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
		)
		return nil
	}
}

// applySessionCompleted links the checkout session's payment intent to our
// payment row. May arrive before or after intent-succeeded.
func (s *paymentService) applySessionCompleted(ctx context.Context, event *gateway.Event) error {
	session, err := event.CheckoutSession()
	if err != nil {
		s.log.Warn("Dropping session-completed event with bad payload",
			zap.Error(err),
			zap.String("event_id", event.ID),
		)
		return nil
	}

	bookingIDStr, ok := session.Metadata[metadataBookingID]
	if !ok || bookingIDStr == "" {
		s.log.Warn("Dropping session-completed event without booking metadata",
			zap.String("event_id", event.ID),
			zap.String("session_id", session.ID),
		)
		return nil
	}

	bookingID, err := uuid.Parse(bookingIDStr)
	if err != nil {
		s.log.Warn("Dropping session-completed event with invalid booking ID",
			zap.String("event_id", event.ID),
			zap.String("booking_id", bookingIDStr),
		)
		return nil
	}

	if session.PaymentIntent == "" {
		s.log.Warn("Dropping session-completed event without payment intent",
			zap.String("event_id", event.ID),
			zap.String("session_id", session.ID),
		)
		return nil
	}

	linked, err := s.repo.Payment.SetIntentID(ctx, bookingID, session.PaymentIntent)
	if err != nil {
		return fmt.Errorf("link payment intent: %w", err)
	}
	if !linked {
		// Payment missing or already terminal; either way redelivery of this
		// event has nothing left to do.
		s.log.Warn("No pending payment to link for session-completed event",
			zap.String("event_id", event.ID),
			zap.String("booking_id", bookingIDStr),
		)
		return nil
	}

	s.log.Info("Payment intent linked",
		zap.String("booking_id", bookingIDStr),
		zap.String("intent_id", session.PaymentIntent),
	)
	return nil
}

// applyIntentSucceeded marks the payment completed and cascades the
// booking's payment status, atomically. Duplicates converge to a no-op.
func (s *paymentService) applyIntentSucceeded(ctx context.Context, event *gateway.Event) error {
	intent, err := event.PaymentIntent()
	if err != nil {
		s.log.Warn("Dropping intent-succeeded event with bad payload",
			zap.Error(err),
			zap.String("event_id", event.ID),
		)
		return nil
	}

	payment, err := s.repo.Payment.FindByIntentID(ctx, intent.ID)
	if err != nil {
		return fmt.Errorf("find payment by intent: %w", err)
	}
	if payment == nil {
		// Best effort: the intent linkage may not exist yet if this event
		// outran session-completed; the provider's redelivery will retry.
		s.log.Warn("No payment found for intent-succeeded event",
			zap.String("event_id", event.ID),
			zap.String("intent_id", intent.ID),
		)
		return nil
	}
	if payment.Status == entity.PaymentStatusCompleted {
		s.log.Info("Duplicate intent-succeeded event ignored",
			zap.String("event_id", event.ID),
			zap.String("intent_id", intent.ID),
		)
		return nil
	}

	var won bool
	err = s.repo.Tx.WithinTx(ctx, func(r *repository.Repository) error {
		bookingID, updated, err := r.Payment.MarkCompletedByIntentID(ctx, intent.ID)
		if err != nil {
			return err
		}
		if !updated {
			// A concurrent delivery completed it between our read and write.
			return nil
		}
		won = true
		return r.Booking.UpdatePaymentStatus(ctx, bookingID, entity.PaymentStatusCompleted)
	})
	if err != nil {
		return fmt.Errorf("apply intent-succeeded: %w", err)
	}

	if !won {
		s.log.Info("Duplicate intent-succeeded event ignored",
			zap.String("event_id", event.ID),
			zap.String("intent_id", intent.ID),
		)
		return nil
	}

	s.log.Info("Payment completed",
		zap.String("payment_id", payment.ID.String()),
		zap.String("booking_id", payment.BookingID.String()),
		zap.String("intent_id", intent.ID),
	)
	return nil
}

// applyIntentFailed marks a still-pending payment failed. The booking stays
// ACCEPTED so the tourist can retry paying.
func (s *paymentService) applyIntentFailed(ctx context.Context, event *gateway.Event) error {
	intent, err := event.PaymentIntent()
	if err != nil {
		s.log.Warn("Dropping intent-failed event with bad payload",
			zap.Error(err),
			zap.String("event_id", event.ID),
		)
		return nil
	}

	payment, err := s.repo.Payment.FindByIntentID(ctx, intent.ID)
	if err != nil {
		return fmt.Errorf("find payment by intent: %w", err)
	}
	if payment == nil {
		s.log.Warn("No payment found for intent-failed event",
			zap.String("event_id", event.ID),
			zap.String("intent_id", intent.ID),
		)
		return nil
	}

	var won bool
	err = s.repo.Tx.WithinTx(ctx, func(r *repository.Repository) error {
		bookingID, updated, err := r.Payment.MarkFailedByIntentID(ctx, intent.ID)
		if err != nil {
			return err
		}
		if !updated {
			// Already completed or already failed; late failure events lose.
			return nil
		}
		won = true
		return r.Booking.UpdatePaymentStatus(ctx, bookingID, entity.PaymentStatusFailed)
	})
	if err != nil {
		return fmt.Errorf("apply intent-failed: %w", err)
	}

	if !won {
		s.log.Info("Stale intent-failed event ignored",
			zap.String("event_id", event.ID),
			zap.String("intent_id", intent.ID),
		)
		return nil
	}

	s.log.Info("Payment marked failed",
		zap.String("payment_id", payment.ID.String()),
		zap.String("intent_id", intent.ID),
	)
	return nil
}

// ==================== HELPER METHODS ====================

func (s *paymentService) authorizeParticipant(ctx context.Context, userID string, booking *entity.Booking) error {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return apperror.Validation("invalid user ID format %s", userID)
	}

	user, err := s.repo.User.FindByID(ctx, userUUID)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return apperror.NotFound("user %s not found", userID)
	}

	switch user.Role {
	case entity.RoleTourist:
		tourist, err := s.repo.Tourist.FindByUserID(ctx, userUUID)
		if err != nil {
			return fmt.Errorf("resolve tourist profile: %w", err)
		}
		if tourist != nil && tourist.ID == booking.TouristID {
			return nil
		}
	case entity.RoleGuide:
		guide, err := s.repo.Guide.FindByUserID(ctx, userUUID)
		if err != nil {
			return fmt.Errorf("resolve guide profile: %w", err)
		}
		if guide != nil && guide.ID == booking.GuideID {
			return nil
		}
	case entity.RoleAdmin:
		return nil
	}

	return apperror.Authorization("you are not authorized to view this payment")
}

func (s *paymentService) authorizeRefund(ctx context.Context, userID string, booking *entity.Booking) error {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return apperror.Validation("invalid user ID format %s", userID)
	}

	user, err := s.repo.User.FindByID(ctx, userUUID)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return apperror.NotFound("user %s not found", userID)
	}

	if user.Role == entity.RoleAdmin {
		return nil
	}

	guide, err := s.repo.Guide.FindByUserID(ctx, userUUID)
	if err != nil {
		return fmt.Errorf("resolve guide profile: %w", err)
	}
	if guide != nil && guide.ID == booking.GuideID {
		return nil
	}

	return apperror.Authorization("you are not authorized to refund this payment")
}
