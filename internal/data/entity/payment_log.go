package entity

import (
	"github.com/google/uuid"
)

type PaymentLogType string

const (
	PaymentLogTypePayment PaymentLogType = "payment"
	PaymentLogTypeRefund  PaymentLogType = "refund"
)

type PaymentLogStatus string

const (
	PaymentLogStatusInitiated PaymentLogStatus = "initiated"
	PaymentLogStatusPending   PaymentLogStatus = "pending"
	PaymentLogStatusSuccess   PaymentLogStatus = "success"
	PaymentLogStatusFailed    PaymentLogStatus = "failed"
)

// PaymentLog is an append-only record of every provider interaction.
type PaymentLog struct {
	BaseSimple
	BookingID       uuid.UUID        `db:"booking_id"`
	UserID          *uuid.UUID       `db:"user_id"`
	Amount          int64            `db:"amount"`
	Currency        string           `db:"currency"`
	Provider        string           `db:"provider"`
	ProviderOrderID *string          `db:"provider_order_id"`
	ProviderRef     *string          `db:"provider_ref"`
	Status          PaymentLogStatus `db:"status"`
	Type            PaymentLogType   `db:"type"`
	ErrorMessage    *string          `db:"error_message"`
}
