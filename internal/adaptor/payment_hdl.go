package adaptor

import (
	"encoding/json"
	"io"
	"net/http"

	"tourlink/internal/dto/request"
	"tourlink/internal/usecase"
	"tourlink/pkg/apperror"
	"tourlink/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SignatureHeader carries the gateway's webhook signature.
const SignatureHeader = "Gateway-Signature"

// Webhook bodies above this size are rejected before reading them in full.
const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// CreatePayment handles POST /api/payments (tourist only)
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	payment, err := h.service.CreatePayment(r.Context(), userID.String(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create payment")
		return
	}

	utils.ResponseCreated(w, "success", payment)
}

// GetMyPayments handles GET /api/payments/my (protected)
func (h *PaymentHandler) GetMyPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	query := r.URL.Query()
	req := &request.PaymentFilterRequest{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("per_page"), 10),
		},
		Status: query.Get("status"),
	}

	payments, err := h.service.GetMyPayments(r.Context(), userID.String(), req)
	if err != nil {
		writeServiceError(w, h.log, err, "get payments")
		return
	}

	utils.ResponseSuccess(w, "success", payments)
}

// GetPaymentByID handles GET /api/payments/{id} (protected)
func (h *PaymentHandler) GetPaymentByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	paymentID := chi.URLParam(r, "id")
	if paymentID == "" {
		utils.ResponseBadRequest(w, "Payment ID is required", nil)
		return
	}

	payment, err := h.service.GetPaymentByID(r.Context(), userID.String(), paymentID)
	if err != nil {
		writeServiceError(w, h.log, err, "get payment by ID")
		return
	}

	utils.ResponseSuccess(w, "success", payment)
}

// Refund handles POST /api/payments/{id}/refund (guide or admin)
func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	paymentID := chi.URLParam(r, "id")
	if paymentID == "" {
		utils.ResponseBadRequest(w, "Payment ID is required", nil)
		return
	}

	var req request.RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	refund, err := h.service.Refund(r.Context(), userID.String(), paymentID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "refund payment")
		return
	}

	utils.ResponseSuccess(w, "success", refund)
}

// Webhook handles POST /api/payments/webhook (public, signature-verified).
// The raw body must reach the verifier untouched.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.log.Warn("Failed to read webhook body", zap.Error(err))
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	err = h.service.HandleWebhook(r.Context(), rawBody, r.Header.Get(SignatureHeader))
	if err != nil {
		// Verification failures get a 400 and no retry; anything else is a
		// transient failure the provider should redeliver.
		if apperror.Is(err, apperror.KindGateway) {
			h.log.Warn("Webhook rejected", zap.Error(err))
			utils.ResponseBadRequest(w, "Webhook verification failed", nil)
			return
		}
		h.log.Error("Webhook processing failed", zap.Error(err))
		utils.ResponseInternalError(w, "Webhook processing failed")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}
