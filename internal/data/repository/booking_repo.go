package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rental-booking/internal/data/entity"
	"rental-booking/pkg/apperr"
	"rental-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByOrderID(ctx context.Context, orderID string) (*entity.Booking, error)
	FindByGuestID(ctx context.Context, guestID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByGuestID(ctx context.Context, guestID uuid.UUID) (int64, error)
	FindByHostID(ctx context.Context, hostID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByHostID(ctx context.Context, hostID uuid.UUID) (int64, error)

	// Update writes the mutable columns only if the stored status is still expected.
	Update(ctx context.Context, booking *entity.Booking, expected entity.BookingStatus) error
	// AttachPaymentSession stores the first charge opened for a pending booking.
	AttachPaymentSession(ctx context.Context, id uuid.UUID, orderID, sessionToken string, updatedAt time.Time) error
	// UpdateRefund moves the refund sub-record only if its stored status is still expected.
	UpdateRefund(ctx context.Context, id uuid.UUID, expected, status entity.RefundStatus, ref *string) error

	// Business queries
	FindActiveHolds(ctx context.Context, unitID uuid.UUID, from, to time.Time, excludeID *uuid.UUID) ([]*entity.Booking, error)
	FindElapsedConfirmed(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error)
	FindStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*entity.Booking, error)
}

type bookingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewBookingRepository(db database.Querier, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, rental_unit_id, guest_id, host_id, check_in, check_out,
		       adults, children, infants, pricing, status,
		       payment_provider, payment_order_id, payment_session_token, payment_status,
		       payment_paid_at, payment_transaction_ref,
		       cancelled_by, cancelled_at, cancel_reason, refund_status, refund_amount, refund_ref,
		       guest_message, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*entity.Booking, error) {
	var (
		b            entity.Booking
		cancelledBy  *string
		cancelledAt  *time.Time
		cancelReason *string
		refundStatus *string
		refundAmount *int64
		refundRef    *string
	)

	err := row.Scan(
		&b.ID,
		&b.RentalUnitID,
		&b.GuestID,
		&b.HostID,
		&b.CheckIn,
		&b.CheckOut,
		&b.Occupancy.Adults,
		&b.Occupancy.Children,
		&b.Occupancy.Infants,
		&b.Pricing,
		&b.Status,
		&b.Payment.Provider,
		&b.Payment.OrderID,
		&b.Payment.SessionToken,
		&b.Payment.Status,
		&b.Payment.PaidAt,
		&b.Payment.TransactionRef,
		&cancelledBy,
		&cancelledAt,
		&cancelReason,
		&refundStatus,
		&refundAmount,
		&refundRef,
		&b.GuestMessage,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if cancelledBy != nil {
		c := &entity.Cancellation{
			CancelledBy:  entity.CancelledBy(*cancelledBy),
			RefundStatus: entity.RefundStatusNone,
			RefundRef:    refundRef,
		}
		if cancelledAt != nil {
			c.CancelledAt = *cancelledAt
		}
		if cancelReason != nil {
			c.Reason = *cancelReason
		}
		if refundStatus != nil {
			c.RefundStatus = entity.RefundStatus(*refundStatus)
		}
		if refundAmount != nil {
			c.RefundAmount = *refundAmount
		}
		b.Cancellation = c
	}

	return &b, nil
}

// cancellationArgs flattens the optional sub-record into nullable columns.
func cancellationArgs(c *entity.Cancellation) (by *string, at *time.Time, reason *string, status *string, amount *int64, ref *string) {
	if c == nil {
		return nil, nil, nil, nil, nil, nil
	}
	cancelledBy := string(c.CancelledBy)
	refundStatus := string(c.RefundStatus)
	return &cancelledBy, &c.CancelledAt, &c.Reason, &refundStatus, &c.RefundAmount, c.RefundRef
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, rental_unit_id, guest_id, host_id, check_in, check_out,
		                      adults, children, infants, pricing, status,
		                      payment_provider, payment_status, guest_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.RentalUnitID,
		booking.GuestID,
		booking.HostID,
		booking.CheckIn,
		booking.CheckOut,
		booking.Occupancy.Adults,
		booking.Occupancy.Children,
		booking.Occupancy.Infants,
		booking.Pricing,
		booking.Status,
		booking.Payment.Provider,
		booking.Payment.Status,
		booking.GuestMessage,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("rental_unit_id", booking.RentalUnitID.String()),
			zap.String("guest_id", booking.GuestID.String()),
		)
		return mapPgError(fmt.Errorf("create booking %s: %w", booking.ID.String(), err))
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByOrderID(ctx context.Context, orderID string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE payment_order_id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by order ID",
			zap.Error(err),
			zap.String("order_id", orderID),
		)
		return nil, fmt.Errorf("find booking by order ID %s: %w", orderID, err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByGuestID(ctx context.Context, guestID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE guest_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, "find bookings by guest ID", query, guestID, limit, offset)
}

func (r *bookingRepository) CountByGuestID(ctx context.Context, guestID uuid.UUID) (int64, error) {
	return r.count(ctx, "count bookings by guest ID", `SELECT COUNT(*) FROM bookings WHERE guest_id = $1`, guestID)
}

func (r *bookingRepository) FindByHostID(ctx context.Context, hostID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE host_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, "find bookings by host ID", query, hostID, limit, offset)
}

func (r *bookingRepository) CountByHostID(ctx context.Context, hostID uuid.UUID) (int64, error) {
	return r.count(ctx, "count bookings by host ID", `SELECT COUNT(*) FROM bookings WHERE host_id = $1`, hostID)
}

func (r *bookingRepository) Update(ctx context.Context, booking *entity.Booking, expected entity.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $3, payment_order_id = $4, payment_session_token = $5, payment_status = $6,
		    payment_paid_at = $7, payment_transaction_ref = $8,
		    cancelled_by = $9, cancelled_at = $10, cancel_reason = $11,
		    refund_status = $12, refund_amount = $13, refund_ref = $14, updated_at = $15
		WHERE id = $1 AND status = $2
	`

	by, at, reason, refundStatus, refundAmount, refundRef := cancellationArgs(booking.Cancellation)

	result, err := r.db.Exec(ctx, query,
		booking.ID,
		expected,
		booking.Status,
		booking.Payment.OrderID,
		booking.Payment.SessionToken,
		booking.Payment.Status,
		booking.Payment.PaidAt,
		booking.Payment.TransactionRef,
		by,
		at,
		reason,
		refundStatus,
		refundAmount,
		refundRef,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("expected_status", string(expected)),
			zap.String("status", string(booking.Status)),
		)
		return mapPgError(fmt.Errorf("update booking %s: %w", booking.ID.String(), err))
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: booking %s is no longer %s", apperr.ErrConflict, booking.ID.String(), expected)
	}

	return nil
}

func (r *bookingRepository) AttachPaymentSession(ctx context.Context, id uuid.UUID, orderID, sessionToken string, updatedAt time.Time) error {
	query := `
		UPDATE bookings
		SET payment_order_id = $2, payment_session_token = $3, updated_at = $4
		WHERE id = $1 AND status = $5 AND payment_order_id IS NULL
	`

	result, err := r.db.Exec(ctx, query, id, orderID, sessionToken, updatedAt, entity.BookingStatusPendingPayment)
	if err != nil {
		r.log.Error("Failed to attach payment session",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("order_id", orderID),
		)
		return fmt.Errorf("attach payment session to booking %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: booking %s already has a payment session or is no longer pending", apperr.ErrConflict, id.String())
	}

	return nil
}

func (r *bookingRepository) UpdateRefund(ctx context.Context, id uuid.UUID, expected, status entity.RefundStatus, ref *string) error {
	query := `
		UPDATE bookings
		SET refund_status = $3, refund_ref = COALESCE($4, refund_ref), updated_at = NOW()
		WHERE id = $1 AND refund_status = $2
	`

	result, err := r.db.Exec(ctx, query, id, expected, status, ref)
	if err != nil {
		r.log.Error("Failed to update refund status",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("refund_status", string(status)),
		)
		return fmt.Errorf("update refund of booking %s to %s: %w", id.String(), string(status), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: refund of booking %s is no longer %s", apperr.ErrConflict, id.String(), expected)
	}

	return nil
}

func (r *bookingRepository) FindActiveHolds(ctx context.Context, unitID uuid.UUID, from, to time.Time, excludeID *uuid.UUID) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE rental_unit_id = $1
		  AND status IN ('paid', 'confirmed')
		  AND check_in < $3
		  AND check_out > $2
		  AND ($4::uuid IS NULL OR id <> $4)
		ORDER BY check_in
	`
	return r.list(ctx, "find active holds", query, unitID, from, to, excludeID)
}

func (r *bookingRepository) FindElapsedConfirmed(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'confirmed' AND check_out < $1
		ORDER BY check_out
		LIMIT $2
	`
	return r.list(ctx, "find elapsed confirmed bookings", query, now, limit)
}

func (r *bookingRepository) FindStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'pending_payment' AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`
	return r.list(ctx, "find stale pending bookings", query, createdBefore, limit)
}

func (r *bookingRepository) list(ctx context.Context, op, query string, args ...any) ([]*entity.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to "+op, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	bookings := []*entity.Booking{}
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookings, nil
}

func (r *bookingRepository) count(ctx context.Context, op, query string, id uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, query, id).Scan(&count); err != nil {
		r.log.Error("Failed to "+op,
			zap.Error(err),
			zap.String("id", id.String()),
		)
		return 0, fmt.Errorf("%s %s: %w", op, id.String(), err)
	}
	return count, nil
}
