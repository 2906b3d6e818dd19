package usecase

import (
	"context"
	"errors"
	"time"

	"rental-booking/internal/data/entity"
	"rental-booking/internal/data/repository"
	"rental-booking/internal/lifecycle"
	"rental-booking/pkg/apperr"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const settleAttempts = 2

// settler records a settled charge against its booking. The payment return and
// the expiry sweep both go through it, so a charge that lands after the booking
// expired is still recorded and refunded.
type settler struct {
	repo    *repository.Repository
	refunds *refunder
	log     *zap.Logger
	now     func() time.Time
}

func newSettler(repo *repository.Repository, refunds *refunder, log *zap.Logger) *settler {
	return &settler{
		repo:    repo,
		refunds: refunds,
		log:     log.With(zap.String("service", "settlement")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// awaitingSettlement reports whether a charge on b may still need recording:
// the booking is waiting for it, or it expired with the charge in flight.
func awaitingSettlement(b *entity.Booking) bool {
	if b.Payment.OrderID == nil || b.Payment.Status == entity.PaymentStatusPaid {
		return false
	}
	switch b.Status {
	case entity.BookingStatusPendingPayment:
		return true
	case entity.BookingStatusCancelled:
		return b.Cancellation != nil && b.Cancellation.CancelledBy == entity.CancelledBySystem
	}
	return false
}

// settle moves booking to paid, or cancels it with a full refund when the
// dates were taken or the booking already expired. A booking that no longer
// awaits settlement is returned as stored.
func (s *settler) settle(ctx context.Context, booking *entity.Booking, transactionRef string) (*entity.Booking, error) {
	var (
		result  *entity.Booking
		applied bool
		err     error
	)
	for attempt := 1; attempt <= settleAttempts; attempt++ {
		result, applied, err = s.settleOnce(ctx, booking, transactionRef)
		if !errors.Is(err, apperr.ErrConflict) {
			break
		}
		s.log.Warn("Settlement raced a status change",
			zap.String("booking_id", booking.ID.String()),
			zap.Int("attempt", attempt),
		)
	}
	if err != nil {
		s.log.Error("Settlement failed",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
		)
		return nil, err
	}
	if !applied {
		return result, nil
	}

	if result.Status == entity.BookingStatusCancelled {
		s.log.Warn("Settled charge refunded, booking no longer holds the dates",
			zap.String("booking_id", result.ID.String()),
			zap.String("rental_unit_id", result.RentalUnitID.String()),
			zap.String("reason", result.Cancellation.Reason),
		)
		// The cancellation is committed; an unclaimed refund stays open for RetryRefund.
		result, _ = s.refunds.initiate(ctx, result)
	} else {
		s.log.Info("Booking settled",
			zap.String("booking_id", result.ID.String()),
			zap.String("status", string(result.Status)),
		)
	}

	return result, nil
}

func (s *settler) settleOnce(ctx context.Context, booking *entity.Booking, transactionRef string) (*entity.Booking, bool, error) {
	var (
		result  *entity.Booking
		applied bool
	)

	err := s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if _, err := tx.RentalUnit.LockByID(ctx, booking.RentalUnitID); err != nil {
			return err
		}

		current, err := loadBooking(ctx, tx, booking.ID)
		if err != nil {
			return err
		}
		if !awaitingSettlement(current) {
			result = current
			return nil
		}

		event := lifecycle.EventLateSettle
		if current.Status == entity.BookingStatusPendingPayment {
			holds, err := tx.Booking.FindActiveHolds(ctx, current.RentalUnitID, current.CheckIn, current.CheckOut, &current.ID)
			if err != nil {
				return err
			}
			event = lifecycle.EventSettle
			if len(holds) > 0 {
				event = lifecycle.EventVoid
			}
		}

		outcome, err := lifecycle.Apply(current, lifecycle.Command{
			Event:          event,
			Actor:          lifecycle.SystemActor(),
			At:             s.now(),
			TransactionRef: transactionRef,
		})
		if err != nil {
			return err
		}

		if err := tx.Booking.Update(ctx, outcome.Booking, outcome.From); err != nil {
			return err
		}

		ref := transactionRef
		if err := tx.PaymentLog.Create(ctx, &entity.PaymentLog{
			BaseSimple:      entity.BaseSimple{ID: uuid.New(), CreatedAt: s.now()},
			BookingID:       current.ID,
			UserID:          &current.GuestID,
			Amount:          current.Pricing.Total,
			Currency:        current.Pricing.Currency,
			Provider:        current.Payment.Provider,
			ProviderOrderID: current.Payment.OrderID,
			ProviderRef:     &ref,
			Status:          entity.PaymentLogStatusSuccess,
			Type:            entity.PaymentLogTypePayment,
		}); err != nil {
			return err
		}

		result = outcome.Booking
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return result, applied, nil
}
