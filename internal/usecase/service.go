package usecase

import (
	"time"

	"rental-booking/internal/data/repository"
	"rental-booking/internal/payment"
	"rental-booking/internal/pricing"
	"rental-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Booking BookingService
	Payment PaymentService
	Sweep   SweepService
}

func NewService(repo *repository.Repository, provider payment.Provider, cooldown Cooldown, config *utils.Config, log *zap.Logger) *Service {
	fees := pricing.FeePolicy{
		ServiceFeeRate: config.Booking.ServiceFeeRate,
		CleaningFee:    config.Booking.CleaningFee,
		Currency:       config.Booking.Currency,
	}

	refunds := &refunder{
		repo:     repo,
		provider: provider,
		currency: config.Booking.Currency,
		log:      log.With(zap.String("service", "refund")),
		now:      func() time.Time { return time.Now().UTC() },
	}

	settlement := newSettler(repo, refunds, log)

	return &Service{
		Booking: NewBookingService(repo, fees, provider.Name(), config.Booking.CalendarMaxMonths, refunds, log),
		Payment: NewPaymentService(repo, provider, cooldown, config.Payment.Cooldown, settlement, refunds, log),
		Sweep:   NewSweepService(repo, provider, settlement, config.Sweep.PendingPaymentTTL, log),
	}
}
