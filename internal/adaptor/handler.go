package adaptor

import (
	"net/http"

	"rental-booking/internal/usecase"
	"rental-booking/pkg/apperr"
	"rental-booking/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Booking *BookingHandler
	Payment *PaymentHandler
	Admin   *AdminHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Booking: NewBookingHandler(service.Booking, log),
		Payment: NewPaymentHandler(service.Payment, log),
		Admin:   NewAdminHandler(service.Payment, service.Sweep, log),
	}
}

// writeServiceError maps a classified service error onto the response envelope.
// Unclassified errors are logged in full and hidden behind a 500.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	kind := apperr.Kind(err)
	if kind == nil {
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	if kind.Code >= http.StatusInternalServerError {
		log.Error(operation+" failed - "+kind.Kind,
			zap.Error(err),
			zap.String("operation", operation))
	} else {
		log.Warn(operation+" failed - "+kind.Kind,
			zap.Error(err),
			zap.String("operation", operation))
	}

	var fields any
	if f := apperr.Fields(err); len(f) > 0 {
		fields = f
	}
	utils.ResponseError(w, kind.Code, kind.Kind, kind.Message, nil, fields)
}
