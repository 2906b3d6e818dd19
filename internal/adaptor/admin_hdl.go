package adaptor

import (
	"net/http"

	"rental-booking/internal/usecase"
	"rental-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AdminHandler struct {
	payment usecase.PaymentService
	sweep   usecase.SweepService
	log     *zap.Logger
}

func NewAdminHandler(payment usecase.PaymentService, sweep usecase.SweepService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		payment: payment,
		sweep:   sweep,
		log:     log.With(zap.String("handler", "admin")),
	}
}

// RetryRefund handles POST /api/admin/bookings/{id}/refund (admin only)
func (h *AdminHandler) RetryRefund(w http.ResponseWriter, r *http.Request) {
	booking, err := h.payment.RetryRefund(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "retry refund")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// Sweep handles POST /api/admin/bookings/sweep (admin only)
func (h *AdminHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweep.Sweep(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "sweep bookings")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}
