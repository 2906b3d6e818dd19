package wire

import (
	"rental-booking/internal/adaptor"
	"rental-booking/internal/data/repository"
	"rental-booking/pkg/middleware"
	"rental-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	r.Route("/api/units/{unitID}", func(r chi.Router) {
		r.Get("/availability", bookingHandler.CheckAvailability)
		r.Get("/quote", bookingHandler.QuotePrice)
		r.Get("/calendar", bookingHandler.GetCalendar)
		r.Get("/available-ranges", bookingHandler.GetAvailableRanges)

		// POST /api/units/{unitID}/bookings - reserve dates, booking starts in pending_payment
		r.With(middleware.AuthSession(repo.Session, log)).Post("/bookings", bookingHandler.CreateBooking)
	})

	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		r.Get("/api/user/bookings", bookingHandler.GetUserBookings)
		r.Get("/api/bookings/{id}", bookingHandler.GetBooking)

		// POST /api/bookings/{id}/transitions - accept | reject | cancel
		r.Post("/api/bookings/{id}/transitions", bookingHandler.Transition)
	})
}
