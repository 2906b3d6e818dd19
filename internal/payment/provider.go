// Package payment is the boundary to the payment provider. Booking code depends
// on Provider only; the gateway's wire protocol lives behind it.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrUnknownOrder = errors.New("payment: unknown order")

type Customer struct {
	ID uuid.UUID
}

type ChargeRequest struct {
	BookingID uuid.UUID
	OrderID   string
	Amount    int64
	Currency  string
	Customer  Customer
}

type Charge struct {
	OrderID      string
	SessionToken string
}

type ChargeStatus struct {
	Settled        bool
	TransactionRef string
}

type Provider interface {
	Name() string
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	QueryChargeStatus(ctx context.Context, orderID string) (*ChargeStatus, error)
	// Refund only initiates; completion is reported out of band.
	Refund(ctx context.Context, bookingID uuid.UUID, amount int64) (string, error)
}

// NewProvider builds the provider named in config.
func NewProvider(name string, autoSettle bool) (Provider, error) {
	switch name {
	case "", SandboxName:
		return NewSandbox(autoSettle), nil
	}
	return nil, fmt.Errorf("unsupported payment provider %q", name)
}
