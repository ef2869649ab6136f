package adaptor

import (
	"encoding/json"
	"net/http"

	"tourlink/internal/dto/request"
	"tourlink/internal/usecase"
	"tourlink/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ListingHandler struct {
	service usecase.ListingService
	log     *zap.Logger
}

func NewListingHandler(service usecase.ListingService, log *zap.Logger) *ListingHandler {
	return &ListingHandler{
		service: service,
		log:     log.With(zap.String("handler", "listing")),
	}
}

// CreateListing handles POST /api/listings (guide only)
func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	listing, err := h.service.CreateListing(r.Context(), userID.String(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create listing")
		return
	}

	utils.ResponseCreated(w, "success", listing)
}

// GetListings handles GET /api/listings (public)
func (h *ListingHandler) GetListings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.ListingFilterRequest{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("per_page"), 10),
		},
		City:    query.Get("city"),
		Country: query.Get("country"),
	}

	listings, err := h.service.GetListings(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err, "get listings")
		return
	}

	utils.ResponseSuccess(w, "success", listings)
}

// GetListingByID handles GET /api/listings/{id} (public)
func (h *ListingHandler) GetListingByID(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "id")
	if listingID == "" {
		utils.ResponseBadRequest(w, "Listing ID is required", nil)
		return
	}

	listing, err := h.service.GetListingByID(r.Context(), listingID)
	if err != nil {
		writeServiceError(w, h.log, err, "get listing by ID")
		return
	}

	utils.ResponseSuccess(w, "success", listing)
}
