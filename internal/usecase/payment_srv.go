package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rental-booking/internal/data/entity"
	"rental-booking/internal/data/repository"
	"rental-booking/internal/dto/request"
	"rental-booking/internal/dto/response"
	"rental-booking/internal/payment"
	"rental-booking/pkg/apperr"
	"rental-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentService interface {
	InitiatePayment(ctx context.Context, bookingID, guestID string) (*response.PaymentSessionResponse, error)
	ConfirmSettlement(ctx context.Context, req *request.PaymentReturnRequest) (*response.BookingResponse, error)
	RetryRefund(ctx context.Context, bookingID string) (*response.BookingResponse, error)
}

type paymentService struct {
	repo       *repository.Repository
	provider   payment.Provider
	cooldown   Cooldown
	window     time.Duration
	settlement *settler
	refunds    *refunder
	log        *zap.Logger
	now        func() time.Time
}

func NewPaymentService(repo *repository.Repository, provider payment.Provider, cooldown Cooldown, window time.Duration, settlement *settler, refunds *refunder, log *zap.Logger) PaymentService {
	return &paymentService{
		repo:       repo,
		provider:   provider,
		cooldown:   cooldown,
		window:     window,
		settlement: settlement,
		refunds:    refunds,
		log:        log.With(zap.String("service", "payment")),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// InitiatePayment opens (or reuses) a provider charge for a pending booking.
// A provider failure leaves the booking untouched and retryable.
func (s *paymentService) InitiatePayment(ctx context.Context, bookingID, guestID string) (*response.PaymentSessionResponse, error) {
	id, err := parseID("booking_id", bookingID)
	if err != nil {
		return nil, err
	}
	guest, err := parseID("guest_id", guestID)
	if err != nil {
		return nil, err
	}

	booking, err := loadBooking(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if booking.GuestID != guest {
		return nil, fmt.Errorf("%w: only the guest can pay for booking %s", apperr.ErrUnauthorized, bookingID)
	}
	if booking.Status != entity.BookingStatusPendingPayment {
		return nil, fmt.Errorf("%w: booking is %s", apperr.ErrInvalidTransition, booking.Status.DisplayStatus())
	}

	if s.cooldown != nil && s.window > 0 {
		ok, err := s.cooldown.Acquire(ctx, guest.String(), "payment:"+booking.ID.String(), s.window)
		if err != nil {
			s.log.Warn("Payment cooldown unavailable, continuing", zap.Error(err))
		} else if !ok {
			return nil, apperr.ErrRateLimited
		}
	}

	if booking.Payment.OrderID != nil && booking.Payment.SessionToken != nil {
		s.log.Info("Reusing payment session",
			zap.String("booking_id", bookingID),
			zap.String("order_id", *booking.Payment.OrderID),
		)
		return sessionResponse(booking, *booking.Payment.OrderID, *booking.Payment.SessionToken, true), nil
	}

	now := s.now()
	orderID := utils.GenerateOrderID(booking.ID, now)

	charge, err := s.provider.CreateCharge(ctx, payment.ChargeRequest{
		BookingID: booking.ID,
		OrderID:   orderID,
		Amount:    booking.Pricing.Total,
		Currency:  booking.Pricing.Currency,
		Customer:  payment.Customer{ID: guest},
	})
	if err != nil {
		s.log.Error("Create charge failed",
			zap.Error(err),
			zap.String("booking_id", bookingID),
			zap.String("order_id", orderID),
		)
		s.appendLog(ctx, booking, orderID, nil, entity.PaymentLogStatusFailed, err)
		return nil, fmt.Errorf("%w: create charge: %v", apperr.ErrUpstreamPayment, err)
	}

	err = s.repo.Booking.AttachPaymentSession(ctx, booking.ID, charge.OrderID, charge.SessionToken, now)
	if errors.Is(err, apperr.ErrConflict) {
		// Another initiation attached its session first; hand that one out instead.
		s.log.Warn("Payment session raced, discarding new charge",
			zap.String("booking_id", bookingID),
			zap.String("order_id", charge.OrderID),
		)
		current, loadErr := loadBooking(ctx, s.repo, booking.ID)
		if loadErr != nil {
			return nil, loadErr
		}
		if current.Status != entity.BookingStatusPendingPayment || current.Payment.OrderID == nil || current.Payment.SessionToken == nil {
			return nil, err
		}
		return sessionResponse(current, *current.Payment.OrderID, *current.Payment.SessionToken, true), nil
	}
	if err != nil {
		return nil, err
	}

	next := booking.Clone()
	next.Payment.OrderID = &charge.OrderID
	next.Payment.SessionToken = &charge.SessionToken
	next.UpdatedAt = now

	s.appendLog(ctx, booking, charge.OrderID, nil, entity.PaymentLogStatusInitiated, nil)

	s.log.Info("Payment session created",
		zap.String("booking_id", bookingID),
		zap.String("order_id", charge.OrderID),
		zap.Int64("amount", booking.Pricing.Total),
	)

	return sessionResponse(next, charge.OrderID, charge.SessionToken, false), nil
}

// ConfirmSettlement asks the provider whether the charge settled and, if so,
// moves the booking to paid. When an active hold took the dates in the
// meantime, or the booking expired first, it stays cancelled and the charge
// is refunded in full.
func (s *paymentService) ConfirmSettlement(ctx context.Context, req *request.PaymentReturnRequest) (*response.BookingResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	id, err := parseID("booking_id", req.BookingID)
	if err != nil {
		return nil, err
	}

	booking, err := loadBooking(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if booking.Payment.OrderID == nil || *booking.Payment.OrderID != req.OrderID {
		return nil, fmt.Errorf("%w: order %s for booking %s", apperr.ErrNotFound, req.OrderID, req.BookingID)
	}

	if !awaitingSettlement(booking) {
		resp := response.BookingToResponse(booking, booking.GuestID)
		return &resp, nil
	}

	status, err := s.provider.QueryChargeStatus(ctx, req.OrderID)
	if err != nil {
		s.log.Error("Query charge status failed",
			zap.Error(err),
			zap.String("booking_id", req.BookingID),
			zap.String("order_id", req.OrderID),
		)
		return nil, fmt.Errorf("%w: query charge: %v", apperr.ErrUpstreamPayment, err)
	}

	if !status.Settled {
		s.log.Info("Charge not settled yet", zap.String("order_id", req.OrderID))
		resp := response.BookingToResponse(booking, booking.GuestID)
		return &resp, nil
	}

	settled, err := s.settlement.settle(ctx, booking, status.TransactionRef)
	if err != nil {
		return nil, err
	}

	resp := response.BookingToResponse(settled, settled.GuestID)
	return &resp, nil
}

func (s *paymentService) RetryRefund(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	id, err := parseID("booking_id", bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := loadBooking(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	c := booking.Cancellation
	if c == nil || c.RefundAmount <= 0 ||
		(c.RefundStatus != entity.RefundStatusPending && c.RefundStatus != entity.RefundStatusFailed) {
		return nil, fmt.Errorf("%w: booking %s has no outstanding refund", apperr.ErrInvalidTransition, bookingID)
	}

	next, err := s.refunds.initiate(ctx, booking)
	if err != nil {
		return nil, err
	}

	resp := response.BookingToResponse(next, uuid.Nil)
	return &resp, nil
}

func (s *paymentService) appendLog(ctx context.Context, b *entity.Booking, orderID string, ref *string, status entity.PaymentLogStatus, cause error) {
	entry := &entity.PaymentLog{
		BaseSimple:      entity.BaseSimple{ID: uuid.New(), CreatedAt: s.now()},
		BookingID:       b.ID,
		UserID:          &b.GuestID,
		Amount:          b.Pricing.Total,
		Currency:        b.Pricing.Currency,
		Provider:        s.provider.Name(),
		ProviderOrderID: &orderID,
		ProviderRef:     ref,
		Status:          status,
		Type:            entity.PaymentLogTypePayment,
	}
	if cause != nil {
		msg := cause.Error()
		entry.ErrorMessage = &msg
	}

	if err := s.repo.PaymentLog.Create(ctx, entry); err != nil {
		s.log.Warn("Failed to append payment log", zap.Error(err), zap.String("booking_id", b.ID.String()))
	}
}

func sessionResponse(b *entity.Booking, orderID, token string, reused bool) *response.PaymentSessionResponse {
	return &response.PaymentSessionResponse{
		BookingID:    b.ID.String(),
		Provider:     b.Payment.Provider,
		OrderID:      orderID,
		SessionToken: token,
		Amount:       b.Pricing.Total,
		Currency:     b.Pricing.Currency,
		Reused:       reused,
	}
}
