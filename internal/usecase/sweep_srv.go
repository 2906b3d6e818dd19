package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rental-booking/internal/data/entity"
	"rental-booking/internal/data/repository"
	"rental-booking/internal/dto/response"
	"rental-booking/internal/lifecycle"
	"rental-booking/internal/payment"
	"rental-booking/pkg/apperr"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const sweepBatchSize = 500

// SweepService runs the time-driven transitions. Every method is safe to run
// repeatedly and concurrently: rows are moved with a compare-and-swap, so a
// booking already moved by someone else is skipped.
type SweepService interface {
	CompleteElapsed(ctx context.Context) (int, error)
	ExpireStale(ctx context.Context) (int, error)
	Sweep(ctx context.Context) (*response.SweepResponse, error)
}

type sweepService struct {
	repo       *repository.Repository
	provider   payment.Provider
	settlement *settler
	pendingTTL time.Duration
	log        *zap.Logger
	now        func() time.Time
}

func NewSweepService(repo *repository.Repository, provider payment.Provider, settlement *settler, pendingTTL time.Duration, log *zap.Logger) SweepService {
	return &sweepService{
		repo:       repo,
		provider:   provider,
		settlement: settlement,
		pendingTTL: pendingTTL,
		log:        log.With(zap.String("service", "sweep")),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *sweepService) CompleteElapsed(ctx context.Context) (int, error) {
	now := s.now()

	bookings, err := s.repo.Booking.FindElapsedConfirmed(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("find elapsed bookings: %w", err)
	}

	moved := s.apply(ctx, bookings, lifecycle.EventComplete, now)
	if moved > 0 {
		s.log.Info("Completed elapsed bookings", zap.Int("count", moved))
	}
	return moved, nil
}

// ExpireStale cancels pending bookings past the payment window. A booking with
// a charge in flight is checked with the provider first: a settled charge is
// recorded instead, and a booking whose charge cannot be queried is left for
// the next run.
func (s *sweepService) ExpireStale(ctx context.Context) (int, error) {
	if s.pendingTTL <= 0 {
		return 0, nil
	}
	now := s.now()

	bookings, err := s.repo.Booking.FindStalePending(ctx, now.Add(-s.pendingTTL), sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("find stale pending bookings: %w", err)
	}

	expire := make([]*entity.Booking, 0, len(bookings))
	settled := 0
	for _, b := range bookings {
		if b.Payment.OrderID == nil {
			expire = append(expire, b)
			continue
		}

		status, err := s.provider.QueryChargeStatus(ctx, *b.Payment.OrderID)
		if err != nil {
			s.log.Warn("Charge status unavailable, expiry deferred",
				zap.Error(err),
				zap.String("booking_id", b.ID.String()),
				zap.String("order_id", *b.Payment.OrderID),
			)
			continue
		}
		if !status.Settled {
			expire = append(expire, b)
			continue
		}

		if _, err := s.settlement.settle(ctx, b, status.TransactionRef); err != nil {
			continue
		}
		settled++
	}

	moved := s.apply(ctx, expire, lifecycle.EventExpire, now)
	if moved > 0 || settled > 0 {
		s.log.Info("Expired stale pending bookings",
			zap.Int("count", moved),
			zap.Int("settled", settled),
		)
	}
	return moved, nil
}

func (s *sweepService) Sweep(ctx context.Context) (*response.SweepResponse, error) {
	result := &response.SweepResponse{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.CompleteElapsed(gctx)
		result.Completed = n
		return err
	})
	g.Go(func() error {
		n, err := s.ExpireStale(gctx)
		result.Expired = n
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *sweepService) apply(ctx context.Context, bookings []*entity.Booking, event lifecycle.Event, now time.Time) int {
	moved := 0
	for _, b := range bookings {
		outcome, err := lifecycle.Apply(b, lifecycle.Command{
			Event: event,
			Actor: lifecycle.SystemActor(),
			At:    now,
		})
		if err != nil {
			s.log.Warn("Sweep skipped booking",
				zap.Error(err),
				zap.String("booking_id", b.ID.String()),
				zap.String("event", string(event)),
			)
			continue
		}

		if err := s.repo.Booking.Update(ctx, outcome.Booking, outcome.From); err != nil {
			if errors.Is(err, apperr.ErrConflict) {
				continue
			}
			s.log.Error("Sweep update failed",
				zap.Error(err),
				zap.String("booking_id", b.ID.String()),
				zap.String("event", string(event)),
			)
			continue
		}
		moved++
	}
	return moved
}
