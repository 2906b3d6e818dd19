package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rental-booking/internal/data/entity"
	"rental-booking/internal/data/repository"
	"rental-booking/internal/payment"
	"rental-booking/pkg/apperr"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// refunder initiates provider refunds for bookings whose cancellation owes money.
// It runs after the state change commits; a failed call leaves refundStatus=failed
// for RetryRefund to pick up.
type refunder struct {
	repo     *repository.Repository
	provider payment.Provider
	currency string
	log      *zap.Logger
	now      func() time.Time
}

// initiate claims the refund (pending|failed -> processing) before the provider
// is called, so at most one caller ever pays it out. A lost claim returns
// ErrConflict together with the unchanged booking.
func (r *refunder) initiate(ctx context.Context, b *entity.Booking) (*entity.Booking, error) {
	c := b.Cancellation
	if c == nil || c.RefundAmount <= 0 {
		return b, nil
	}
	if c.RefundStatus != entity.RefundStatusPending && c.RefundStatus != entity.RefundStatusFailed {
		return b, nil
	}

	if err := r.repo.Booking.UpdateRefund(ctx, b.ID, c.RefundStatus, entity.RefundStatusProcessing, nil); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			r.log.Info("Refund already claimed", zap.String("booking_id", b.ID.String()))
			return b, err
		}
		r.log.Error("Failed to claim refund", zap.Error(err), zap.String("booking_id", b.ID.String()))
		return b, err
	}

	entry := &entity.PaymentLog{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: r.now()},
		BookingID:  b.ID,
		UserID:     &b.GuestID,
		Amount:     c.RefundAmount,
		Currency:   r.currency,
		Provider:   r.provider.Name(),
		Type:       entity.PaymentLogTypeRefund,
	}
	if b.Pricing.Currency != "" {
		entry.Currency = b.Pricing.Currency
	}

	next := b.Clone()
	next.Cancellation.RefundStatus = entity.RefundStatusProcessing

	ref, err := r.provider.Refund(ctx, b.ID, c.RefundAmount)
	if err != nil {
		r.log.Error("Refund initiation failed",
			zap.Error(err),
			zap.String("booking_id", b.ID.String()),
			zap.Int64("amount", c.RefundAmount),
		)
		msg := err.Error()
		entry.Status = entity.PaymentLogStatusFailed
		entry.ErrorMessage = &msg
		next.Cancellation.RefundStatus = entity.RefundStatusFailed
		r.record(ctx, b.ID, entity.RefundStatusFailed, nil)
	} else {
		entry.Status = entity.PaymentLogStatusInitiated
		entry.ProviderRef = &ref
		next.Cancellation.RefundRef = &ref
		r.record(ctx, b.ID, entity.RefundStatusProcessing, &ref)
	}

	if err := r.repo.PaymentLog.Create(ctx, entry); err != nil {
		r.log.Warn("Failed to append refund log", zap.Error(err), zap.String("booking_id", b.ID.String()))
	}

	r.log.Info("Refund requested",
		zap.String("booking_id", b.ID.String()),
		zap.String("refund_status", string(next.Cancellation.RefundStatus)),
		zap.Int64("amount", c.RefundAmount),
	)

	return next, nil
}

// record settles a claimed refund. Only the claimant writes from processing,
// so a failure here is logged for reconciliation rather than retried.
func (r *refunder) record(ctx context.Context, id uuid.UUID, status entity.RefundStatus, ref *string) {
	if err := r.repo.Booking.UpdateRefund(ctx, id, entity.RefundStatusProcessing, status, ref); err != nil {
		r.log.Error("Failed to record refund outcome",
			zap.Error(fmt.Errorf("refund of booking %s: %w", id.String(), err)),
			zap.String("refund_status", string(status)),
		)
	}
}
