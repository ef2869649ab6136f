package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"tourlink/internal/data/entity"
	"tourlink/internal/dto/request"
	"tourlink/pkg/apperror"
	"tourlink/pkg/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func signedEvent(t *testing.T, eventType string, object map[string]any) ([]byte, string) {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"id":   "evt_" + eventType,
		"type": eventType,
		"data": map[string]any{"object": object},
	})
	require.NoError(t, err)
	return body, gateway.SignPayload(body, "1700000000", testWebhookSecret)
}

func TestCreatePayment_OpensCheckoutSession(t *testing.T) {
	f := newFixture()
	touristUser, tourist := f.seedTourist()
	_, guide := f.seedGuide()
	listing := f.seedListing(guide, 60, 8)
	booking := f.seedBooking(tourist, guide, listing, entity.BookingStatusAccepted)

	resp, err := f.svc.Payment.CreatePayment(context.Background(), touristUser.ID.String(), &request.CreatePaymentRequest{
		BookingID: booking.ID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, entity.PaymentStatusPending, resp.Status)
	assert.Equal(t, booking.TotalAmount, resp.Amount)
	require.NotNil(t, resp.CheckoutURL)

	require.Len(t, f.gateway.checkouts, 1)
	checkout := f.gateway.checkouts[0]
	assert.Equal(t, int64(12000), checkout.AmountMinor)
	assert.Equal(t, "usd", checkout.Currency)
	assert.Equal(t, booking.ID.String(), checkout.Metadata["bookingId"])
}

func TestCreatePayment_PendingBookingRejected(t *testing.T) {
	f := newFixture()
	touristUser, tourist := f.seedTourist()
	_, guide := f.seedGuide()
	listing := f.seedListing(guide, 60, 8)
	booking := f.seedBooking(tourist, guide, listing, entity.BookingStatusPending)

	_, err := f.svc.Payment.CreatePayment(context.Background(), touristUser.ID.String(), &request.CreatePaymentRequest{
		BookingID: booking.ID.String(),
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	assert.Empty(t, f.gateway.checkouts)
}

func TestCreatePayment_SecondCallReturnsExistingSession(t *testing.T) {
	f := newFixture()
	touristUser, tourist := f.seedTourist()
	_, guide := f.seedGuide()
	listing := f.seedListing(guide, 60, 8)
	booking := f.seedBooking(tourist, guide, listing, entity.BookingStatusAccepted)

	first, err := f.svc.Payment.CreatePayment(context.Background(), touristUser.ID.String(), &request.CreatePaymentRequest{
		BookingID: booking.ID.String(),
	})
	require.NoError(t, err)

	second, err := f.svc.Payment.CreatePayment(context.Background(), touristUser.ID.String(), &request.CreatePaymentRequest{
		BookingID: booking.ID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.GatewaySessionID, second.GatewaySessionID)
	// Only the first call reached the provider.
	assert.Len(t, f.gateway.checkouts, 1)
}

func TestCreatePayment_AlreadyPaidConflicts(t *testing.T) {
	f := newFixture()
	touristUser, tourist := f.seedTourist()
	_, guide := f.seedGuide()
	listing := f.seedListing(guide, 60, 8)
	booking := f.seedBooking(tourist, guide, listing, entity.BookingStatusAccepted)
	f.seedPayment(booking, entity.PaymentStatusCompleted, "pi_paid")

	_, err := f.svc.Payment.CreatePayment(context.Background(), touristUser.ID.String(), &request.CreatePaymentRequest{
		BookingID: booking.ID.String(),
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestCreatePayment_NotBookingOwner(t *testing.T) {
	f := newFixture()
	_, tourist := f.seedTourist()
	otherUser, _ := f.seedTourist()
	_, guide := f.seedGuide()
	listing := f.seedListing(guide, 60, 8)
	booking := f.seedBooking(tourist, guide, listing, entity.BookingStatusAccepted)

	_, err := f.svc.Payment.CreatePayment(context.Background(), otherUser.ID.String(), &request.CreatePaymentRequest{
		BookingID: booking.ID.String(),
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindAuthorization))
}

func TestCreatePayment_GatewayFailure(t *testing.T) {
	f := newFixture()
	touristUser, tourist := f.seedTourist()
	_, guide := f.seedGuide()
	listing := f.seedListing(guide, 60, 8)
	booking := f.seedBooking(tourist, guide, listing, entity.BookingStatusAccepted)

	f.gateway.failCheckout = true

	_, err := f.svc.Payment.CreatePayment(context.Background(), touristUser.ID.String(), &request.CreatePaymentRequest{
		BookingID: booking.ID.String(),
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindGateway))

	// No half-created payment row.
	payment, err := f.repo.Payment.FindByBookingID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Nil(t, payment)
}

func TestWebhook_BadSignatureMutatesNothing(t *testing.T) {
	f := newFixture()
	_, tourist := f.seedTourist()
	_, guide := f.seedGuide()
	listing := f.seedListing(guide, 60, 8)
	booking := f.seedBooking(tourist, guide, listing, entity.BookingStatusAccepted)
	payment := f.seedPayment(booking, entity.PaymentStatusPending, "pi_target")

	body, _ := signedEvent(t, "payment_intent.succeeded", map[string]any{"id": "pi_target"})

	err := f.svc.Payment.HandleWebhook(context.Background(), body, "t=1700000000,v1=deadbeef")
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindGateway))

	fresh, err := f.repo.Payment.FindByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPending, fresh.Status)
}

func TestWebhook_SessionCompletedLinksIntent(t *testing.T) {
	f := newFixture()
	_, tourist := f.seedTourist()
	_, guide := f.seedGuide()
	listing := f.seedListing(guide, 60, 8)
	booking := f.seedBooking(tourist, guide, listing, entity.BookingStatusAccepted)
	payment := f.seedPayment(booking, entity.PaymentStatusPending, "")

	body, sig := signedEvent(t, "checkout.session.completed", map[string]any{
		"id":             payment.GatewaySessionID,
		"payment_intent": "pi_linked",
		"metadata":       map[string]string{"bookingId": booking.ID.String()},
	})

	require.NoError(t, f.svc.Payment.HandleWebhook(context.Background(), body, sig))

	fresh, err := f.repo.Payment.FindByID(context.Background(), payment.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh.GatewayPaymentIntentID)
	assert.Equal(t, "pi_linked", *fresh.GatewayPaymentIntentID)
}

func TestWebhook_SessionCompletedWithoutMetadataDropped(t *testing.T) {
	f := newFixture()

	body, sig := signedEvent(t, "checkout.session.completed", map[string]any{
		"id":             "cs_orphan",
		"payment_intent": "pi_orphan",
	})

	// Best effort: unparseable linkage is logged and dropped, not an error.
	assert.NoError(t, f.svc.Payment.HandleWebhook(context.Background(), body, sig))
}

func TestWebhook_IntentSucceededCompletesPaymentAndBooking(t *testing.T) {
	f := newFixture()
	_, tourist := f.seedTourist()
	_, guide := f.seedGuide()
	listing := f.seedListing(guide, 60, 8)
	booking := f.seedBooking(tourist, guide, listing, entity.BookingStatusAccepted)
	payment := f.seedPayment(booking, entity.PaymentStatusPending, "pi_done")

	body, sig := signedEvent(t, "payment_intent.succeeded", map[string]any{"id": "pi_done"})
	require.NoError(t, f.svc.Payment.HandleWebhook(context.Background(), body, sig))

	freshPayment, err := f.repo.Payment.FindByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusCompleted, freshPayment.Status)
	assert.NotNil(t, freshPayment.PaidAt)

	freshBooking, err := f.repo.Booking.FindByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusCompleted, freshBooking.PaymentStatus)
	// Booking status itself is untouched by payment events.
	assert.Equal(t, entity.BookingStatusAccepted, freshBooking.Status)
}

func TestWebhook_DuplicateIntentSucceededIsNoOp(t *testing.T) {
	f := newFixture()
	_, tourist := f.seedTourist()
	_, guide := f.seedGuide()
	listing := f.seedListing(guide, 60, 8)
	booking := f.seedBooking(tourist, guide, listing, entity.BookingStatusAccepted)
	payment := f.seedPayment(booking, entity.PaymentStatusPending, "pi_dup")

	body, sig := signedEvent(t, "payment_intent.succeeded", map[string]any{"id": "pi_dup"})

	require.NoError(t, f.svc.Payment.HandleWebhook(context.Background(), body, sig))
	firstState, err := f.repo.Payment.FindByID(context.Background(), payment.ID)
	require.NoError(t, err)

	// Redelivery of the same event converges to the same state.
	require.NoError(t, f.svc.Payment.HandleWebhook(context.Background(), body, sig))
	secondState, err := f.repo.Payment.FindByID(context.Background(), payment.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.PaymentStatusCompleted, secondState.Status)
	assert.Equal(t, firstState.PaidAt, secondState.PaidAt)
}

func TestWebhook_CompletionRaceLoserDoesNotLogCompleted(t *testing.T) {
	f := newFixture()
	_, tourist := f.seedTourist()
	_, guide := f.seedGuide()
	listing := f.seedListing(guide, 60, 8)
	booking := f.seedBooking(tourist, guide, listing, entity.BookingStatusAccepted)
	payment := f.seedPayment(booking, entity.PaymentStatusPending, "pi_race")

	core, logs := observer.New(zap.InfoLevel)
	svc := NewPaymentService(f.repo, f.gateway, f.config, zap.New(core))

	// A concurrent delivery completes the payment between this handler's
	// read and its conditional write.
	racerPaidAt := time.Now().Add(-time.Minute)
	f.store.beforeMarkCompleted = func() {
		f.store.mu.Lock()
		defer f.store.mu.Unlock()
		stored := f.store.payments[payment.ID]
		stored.Status = entity.PaymentStatusCompleted
		stored.PaidAt = &racerPaidAt
	}

	body, sig := signedEvent(t, "payment_intent.succeeded", map[string]any{"id": "pi_race"})
	require.NoError(t, svc.HandleWebhook(context.Background(), body, sig))

	stored, err := f.repo.Payment.FindByID(context.Background(), payment.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PaidAt)
	assert.True(t, stored.PaidAt.Equal(racerPaidAt))

	assert.Equal(t, 0, logs.FilterMessage("Payment completed").Len())
	assert.Equal(t, 1, logs.FilterMessage("Duplicate intent-succeeded event ignored").Len())
}

func TestWebhook_IntentFailedMarksFailedBookingStaysAccepted(t *testing.T) {
	f := newFixture()
	_, tourist := f.seedTourist()
	_, guide := f.seedGuide()
	listing := f.seedListing(guide, 60, 8)
	booking := f.seedBooking(tourist, guide, listing, entity.BookingStatusAccepted)
	payment := f.seedPayment(booking, entity.PaymentStatusPending, "pi_fail")

	body, sig := signedEvent(t, "payment_intent.payment_failed", map[string]any{"id": "pi_fail"})
	require.NoError(t, f.svc.Payment.HandleWebhook(context.Background(), body, sig))

	freshPayment, err := f.repo.Payment.FindByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusFailed, freshPayment.Status)

	freshBooking, err := f.repo.Booking.FindByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusAccepted, freshBooking.Status)
	assert.Equal(t, entity.PaymentStatusFailed, freshBooking.PaymentStatus)
}

func TestWebhook_LateFailureAfterCompletionIgnored(t *testing.T) {
	f := newFixture()
	_, tourist := f.seedTourist()
	_, guide := f.seedGuide()
	listing := f.seedListing(guide, 60, 8)
	booking := f.seedBooking(tourist, guide, listing, entity.BookingStatusAccepted)
	payment := f.seedPayment(booking, entity.PaymentStatusCompleted, "pi_settled")

	body, sig := signedEvent(t, "payment_intent.payment_failed", map[string]any{"id": "pi_settled"})
	require.NoError(t, f.svc.Payment.HandleWebhook(context.Background(), body, sig))

	fresh, err := f.repo.Payment.FindByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusCompleted, fresh.Status)
}

func TestWebhook_UnknownEventTypeDropped(t *testing.T) {
	f := newFixture()

	body, sig := signedEvent(t, "customer.created", map[string]any{"id": "cus_1"})
	assert.NoError(t, f.svc.Payment.HandleWebhook(context.Background(), body, sig))
}

func TestWebhook_UnknownIntentDropped(t *testing.T) {
	f := newFixture()

	body, sig := signedEvent(t, "payment_intent.succeeded", map[string]any{"id": "pi_nobody"})
	assert.NoError(t, f.svc.Payment.HandleWebhook(context.Background(), body, sig))
}

func TestGetMyPayments_StatusFilter(t *testing.T) {
	f := newFixture()
	touristUser, tourist := f.seedTourist()
	_, guide := f.seedGuide()
	listing := f.seedListing(guide, 60, 8)
	pending := f.seedBooking(tourist, guide, listing, entity.BookingStatusAccepted)
	paid := f.seedBooking(tourist, guide, listing, entity.BookingStatusAccepted)
	f.seedPayment(pending, entity.PaymentStatusPending, "")
	completed := f.seedPayment(paid, entity.PaymentStatusCompleted, "pi_done")

	resp, err := f.svc.Payment.GetMyPayments(context.Background(), touristUser.ID.String(), &request.PaymentFilterRequest{
		PaginatedRequest: request.PaginatedRequest{Page: 1, PerPage: 10},
		Status:           "COMPLETED",
	})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, completed.ID.String(), resp.Data[0].ID)
	assert.Equal(t, int64(1), resp.Pagination.Total)

	all, err := f.svc.Payment.GetMyPayments(context.Background(), touristUser.ID.String(), &request.PaymentFilterRequest{
		PaginatedRequest: request.PaginatedRequest{Page: 1, PerPage: 10},
	})
	require.NoError(t, err)
	assert.Len(t, all.Data, 2)

	_, err = f.svc.Payment.GetMyPayments(context.Background(), touristUser.ID.String(), &request.PaymentFilterRequest{
		PaginatedRequest: request.PaginatedRequest{Page: 1, PerPage: 10},
		Status:           "PAID",
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestRefund_FullAmount(t *testing.T) {
	f := newFixture()
	_, tourist := f.seedTourist()
	guideUser, guide := f.seedGuide()
	listing := f.seedListing(guide, 60, 8)
	booking := f.seedBooking(tourist, guide, listing, entity.BookingStatusAccepted)
	payment := f.seedPayment(booking, entity.PaymentStatusCompleted, "pi_refundable")

	resp, err := f.svc.Payment.Refund(context.Background(), guideUser.ID.String(), payment.ID.String(), &request.RefundRequest{
		Reason: "tour cancelled by guide",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.PaymentStatusRefunded, resp.Status)
	require.NotNil(t, resp.RefundAmount)
	assert.Equal(t, payment.Amount, *resp.RefundAmount)
	assert.NotEmpty(t, resp.GatewayRefundID)

	require.Len(t, f.gateway.refunds, 1)
	assert.Equal(t, "pi_refundable", f.gateway.refunds[0].PaymentIntentID)
	assert.Equal(t, int64(12000), f.gateway.refunds[0].AmountMinor)
}

func TestRefund_PartialAmount(t *testing.T) {
	f := newFixture()
	_, tourist := f.seedTourist()
	guideUser, guide := f.seedGuide()
	listing := f.seedListing(guide, 60, 8)
	booking := f.seedBooking(tourist, guide, listing, entity.BookingStatusAccepted)
	payment := f.seedPayment(booking, entity.PaymentStatusCompleted, "pi_partial")

	amount := 50.0
	resp, err := f.svc.Payment.Refund(context.Background(), guideUser.ID.String(), payment.ID.String(), &request.RefundRequest{
		Amount: &amount,
	})
	require.NoError(t, err)

	require.NotNil(t, resp.RefundAmount)
	assert.Equal(t, 50.0, *resp.RefundAmount)
	require.Len(t, f.gateway.refunds, 1)
	assert.Equal(t, int64(5000), f.gateway.refunds[0].AmountMinor)
}

func TestRefund_OverAmountRejectedBeforeGateway(t *testing.T) {
	f := newFixture()
	_, tourist := f.seedTourist()
	guideUser, guide := f.seedGuide()
	listing := f.seedListing(guide, 60, 8)
	booking := f.seedBooking(tourist, guide, listing, entity.BookingStatusAccepted)
	payment := f.seedPayment(booking, entity.PaymentStatusCompleted, "pi_over")

	amount := payment.Amount + 0.01
	_, err := f.svc.Payment.Refund(context.Background(), guideUser.ID.String(), payment.ID.String(), &request.RefundRequest{
		Amount: &amount,
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Empty(t, f.gateway.refunds)
}

func TestRefund_DoubleRefundConflicts(t *testing.T) {
	f := newFixture()
	_, tourist := f.seedTourist()
	guideUser, guide := f.seedGuide()
	listing := f.seedListing(guide, 60, 8)
	booking := f.seedBooking(tourist, guide, listing, entity.BookingStatusAccepted)
	payment := f.seedPayment(booking, entity.PaymentStatusCompleted, "pi_twice")

	_, err := f.svc.Payment.Refund(context.Background(), guideUser.ID.String(), payment.ID.String(), &request.RefundRequest{})
	require.NoError(t, err)

	_, err = f.svc.Payment.Refund(context.Background(), guideUser.ID.String(), payment.ID.String(), &request.RefundRequest{})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	assert.Len(t, f.gateway.refunds, 1)
}

func TestRefund_PendingPaymentRejected(t *testing.T) {
	f := newFixture()
	_, tourist := f.seedTourist()
	guideUser, guide := f.seedGuide()
	listing := f.seedListing(guide, 60, 8)
	booking := f.seedBooking(tourist, guide, listing, entity.BookingStatusAccepted)
	payment := f.seedPayment(booking, entity.PaymentStatusPending, "pi_unpaid")

	_, err := f.svc.Payment.Refund(context.Background(), guideUser.ID.String(), payment.ID.String(), &request.RefundRequest{})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestRefund_TouristForbidden(t *testing.T) {
	f := newFixture()
	touristUser, tourist := f.seedTourist()
	_, guide := f.seedGuide()
	listing := f.seedListing(guide, 60, 8)
	booking := f.seedBooking(tourist, guide, listing, entity.BookingStatusAccepted)
	payment := f.seedPayment(booking, entity.PaymentStatusCompleted, "pi_mine")

	_, err := f.svc.Payment.Refund(context.Background(), touristUser.ID.String(), payment.ID.String(), &request.RefundRequest{})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindAuthorization))
}

func TestRefund_GatewayFailureKeepsCompleted(t *testing.T) {
	f := newFixture()
	_, tourist := f.seedTourist()
	guideUser, guide := f.seedGuide()
	listing := f.seedListing(guide, 60, 8)
	booking := f.seedBooking(tourist, guide, listing, entity.BookingStatusAccepted)
	payment := f.seedPayment(booking, entity.PaymentStatusCompleted, "pi_flaky")

	f.gateway.failRefund = true

	_, err := f.svc.Payment.Refund(context.Background(), guideUser.ID.String(), payment.ID.String(), &request.RefundRequest{})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindGateway))

	fresh, err := f.repo.Payment.FindByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusCompleted, fresh.Status)
}

func TestFullPaymentFlow(t *testing.T) {
	f := newFixture()
	touristUser, _ := f.seedTourist()
	guideUser, guide := f.seedGuide()
	listing := f.seedListing(guide, 100, 10)

	// Tourist requests, guide accepts.
	created, err := f.svc.Booking.CreateBooking(context.Background(), touristUser.ID.String(), &request.CreateBookingRequest{
		ListingID:      listing.ID.String(),
		BookingDate:    time.Now().Add(240 * time.Hour).Format("2006-01-02"),
		NumberOfPeople: 2,
	})
	require.NoError(t, err)

	_, err = f.svc.Booking.UpdateBookingStatus(context.Background(), guideUser.ID.String(), created.ID, &request.UpdateBookingStatusRequest{Status: "ACCEPTED"})
	require.NoError(t, err)

	// Tourist opens checkout.
	paymentResp, err := f.svc.Payment.CreatePayment(context.Background(), touristUser.ID.String(), &request.CreatePaymentRequest{
		BookingID: created.ID,
	})
	require.NoError(t, err)

	// Provider confirms via webhooks, session first then intent.
	sessionBody, sessionSig := signedEvent(t, "checkout.session.completed", map[string]any{
		"id":             paymentResp.GatewaySessionID,
		"payment_intent": "pi_flow",
		"metadata":       map[string]string{"bookingId": created.ID},
	})
	require.NoError(t, f.svc.Payment.HandleWebhook(context.Background(), sessionBody, sessionSig))

	intentBody, intentSig := signedEvent(t, "payment_intent.succeeded", map[string]any{"id": "pi_flow"})
	require.NoError(t, f.svc.Payment.HandleWebhook(context.Background(), intentBody, intentSig))

	paid, err := f.svc.Booking.GetBookingByID(context.Background(), touristUser.ID.String(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusCompleted, paid.PaymentStatus)
	require.NotNil(t, paid.Payment)
	assert.Equal(t, entity.PaymentStatusCompleted, paid.Payment.Status)

	// Guide runs the tour and completes it.
	completed, err := f.svc.Booking.CompleteBooking(context.Background(), guideUser.ID.String(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCompleted, completed.Status)

	freshGuide, err := f.repo.Guide.FindByID(context.Background(), guide.ID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, freshGuide.TotalRevenue)
}
