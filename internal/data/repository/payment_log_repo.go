package repository

import (
	"context"
	"fmt"

	"rental-booking/internal/data/entity"
	"rental-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentLogRepository interface {
	Create(ctx context.Context, entry *entity.PaymentLog) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.PaymentLog, error)
}

type paymentLogRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewPaymentLogRepository(db database.Querier, log *zap.Logger) PaymentLogRepository {
	return &paymentLogRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment_log")),
	}
}

func (r *paymentLogRepository) Create(ctx context.Context, entry *entity.PaymentLog) error {
	query := `
		INSERT INTO payment_logs (id, booking_id, user_id, amount, currency, provider,
		                          provider_order_id, provider_ref, status, type, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.BookingID,
		entry.UserID,
		entry.Amount,
		entry.Currency,
		entry.Provider,
		entry.ProviderOrderID,
		entry.ProviderRef,
		entry.Status,
		entry.Type,
		entry.ErrorMessage,
		entry.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create payment log",
			zap.Error(err),
			zap.String("booking_id", entry.BookingID.String()),
			zap.String("type", string(entry.Type)),
		)
		return fmt.Errorf("create payment log for booking %s: %w", entry.BookingID.String(), err)
	}

	return nil
}

func (r *paymentLogRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.PaymentLog, error) {
	query := `
		SELECT id, booking_id, user_id, amount, currency, provider, provider_order_id,
		       provider_ref, status, type, error_message, created_at
		FROM payment_logs
		WHERE booking_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find payment logs by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find payment logs by booking ID %s: %w", bookingID.String(), err)
	}
	defer rows.Close()

	entries := []*entity.PaymentLog{}
	for rows.Next() {
		var entry entity.PaymentLog
		err := rows.Scan(
			&entry.ID,
			&entry.BookingID,
			&entry.UserID,
			&entry.Amount,
			&entry.Currency,
			&entry.Provider,
			&entry.ProviderOrderID,
			&entry.ProviderRef,
			&entry.Status,
			&entry.Type,
			&entry.ErrorMessage,
			&entry.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan payment log row", zap.Error(err))
			return nil, fmt.Errorf("scan payment log row: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
