package adaptor

import (
	"encoding/json"
	"net/http"

	"rental-booking/internal/dto/request"
	"rental-booking/internal/usecase"
	"rental-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// CheckAvailability handles GET /api/units/{unitID}/availability (public)
func (h *BookingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.StayRequest{
		CheckIn:  query.Get("check_in"),
		CheckOut: query.Get("check_out"),
	}

	result, err := h.service.CheckAvailability(r.Context(), chi.URLParam(r, "unitID"), req)
	if err != nil {
		writeServiceError(w, h.log, err, "check availability")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

// QuotePrice handles GET /api/units/{unitID}/quote (public)
func (h *BookingHandler) QuotePrice(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.QuoteRequest{
		StayRequest: request.StayRequest{
			CheckIn:  query.Get("check_in"),
			CheckOut: query.Get("check_out"),
		},
		Adults:   utils.ParseInt(query.Get("adults"), 1),
		Children: utils.ParseInt(query.Get("children"), 0),
		Infants:  utils.ParseInt(query.Get("infants"), 0),
	}

	quote, err := h.service.QuotePrice(r.Context(), chi.URLParam(r, "unitID"), req)
	if err != nil {
		writeServiceError(w, h.log, err, "quote price")
		return
	}

	utils.ResponseSuccess(w, "success", quote)
}

// GetCalendar handles GET /api/units/{unitID}/calendar?months= (public)
func (h *BookingHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	months := utils.ParseInt(r.URL.Query().Get("months"), 0)

	calendar, err := h.service.GetCalendar(r.Context(), chi.URLParam(r, "unitID"), months)
	if err != nil {
		writeServiceError(w, h.log, err, "get calendar")
		return
	}

	utils.ResponseSuccess(w, "success", calendar)
}

// GetAvailableRanges handles GET /api/units/{unitID}/available-ranges?days= (public)
func (h *BookingHandler) GetAvailableRanges(w http.ResponseWriter, r *http.Request) {
	days := utils.ParseInt(r.URL.Query().Get("days"), 0)

	ranges, err := h.service.GetAvailableRanges(r.Context(), chi.URLParam(r, "unitID"), days)
	if err != nil {
		writeServiceError(w, h.log, err, "get available ranges")
		return
	}

	utils.ResponseSuccess(w, "success", ranges)
}

// CreateBooking handles POST /api/units/{unitID}/bookings (protected)
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.Reserve(r.Context(), chi.URLParam(r, "unitID"), userID.String(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "success", booking)
}

// GetBooking handles GET /api/bookings/{id} (protected, guest or host)
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	booking, err := h.service.GetBooking(r.Context(), chi.URLParam(r, "id"), userID.String())
	if err != nil {
		writeServiceError(w, h.log, err, "get booking")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// GetUserBookings handles GET /api/user/bookings?role=guest|host (protected)
func (h *BookingHandler) GetUserBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	query := r.URL.Query()
	req := &request.ListBookingsRequest{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("per_page"), 10),
		},
		Role: query.Get("role"),
	}

	bookings, err := h.service.ListBookings(r.Context(), userID.String(), req)
	if err != nil {
		writeServiceError(w, h.log, err, "get user bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// Transition handles POST /api/bookings/{id}/transitions (protected)
func (h *BookingHandler) Transition(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.Transition(r.Context(), chi.URLParam(r, "id"), userID.String(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "transition booking")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}
