package adaptor

import (
	"net/http"

	"rental-booking/internal/dto/request"
	"rental-booking/internal/usecase"
	"rental-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

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

// InitiatePayment handles POST /api/bookings/{id}/payment (protected)
func (h *PaymentHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	session, err := h.service.InitiatePayment(r.Context(), chi.URLParam(r, "id"), userID.String())
	if err != nil {
		writeServiceError(w, h.log, err, "initiate payment")
		return
	}

	utils.ResponseSuccess(w, "success", session)
}

// PaymentReturn handles GET /api/payments/return?order_id=&booking_id= (public).
// The provider redirects here; the charge is verified server side before anything changes.
func (h *PaymentHandler) PaymentReturn(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.PaymentReturnRequest{
		OrderID:   query.Get("order_id"),
		BookingID: query.Get("booking_id"),
	}

	booking, err := h.service.ConfirmSettlement(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err, "confirm settlement")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}
