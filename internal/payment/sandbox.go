package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

const SandboxName = "sandbox"

type sandboxCharge struct {
	req     ChargeRequest
	settled bool
	ref     string
}

// Sandbox is an in-memory provider for development. With autoSettle every
// charge settles as soon as it is created; otherwise call Settle.
type Sandbox struct {
	mu         sync.Mutex
	autoSettle bool
	charges    map[string]*sandboxCharge
	refunds    map[string]int64
}

func NewSandbox(autoSettle bool) *Sandbox {
	return &Sandbox{
		autoSettle: autoSettle,
		charges:    make(map[string]*sandboxCharge),
		refunds:    make(map[string]int64),
	}
}

func (s *Sandbox) Name() string {
	return SandboxName
}

func (s *Sandbox) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("sandbox: amount must be positive, got %d", req.Amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := &sandboxCharge{req: req}
	if s.autoSettle {
		c.settled = true
		c.ref = "txn_" + uuid.NewString()
	}
	s.charges[req.OrderID] = c

	return &Charge{
		OrderID:      req.OrderID,
		SessionToken: "sess_" + uuid.NewString(),
	}, nil
}

func (s *Sandbox) QueryChargeStatus(ctx context.Context, orderID string) (*ChargeStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.charges[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOrder, orderID)
	}
	return &ChargeStatus{Settled: c.settled, TransactionRef: c.ref}, nil
}

func (s *Sandbox) Refund(ctx context.Context, bookingID uuid.UUID, amount int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ref := "rfnd_" + uuid.NewString()
	s.refunds[ref] = amount
	return ref, nil
}

// Settle marks a charge as paid, as if the customer completed checkout.
func (s *Sandbox) Settle(orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.charges[orderID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOrder, orderID)
	}
	c.settled = true
	c.ref = "txn_" + uuid.NewString()
	return nil
}

// Refunded returns the total refunded through this sandbox.
func (s *Sandbox) Refunded() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, amount := range s.refunds {
		total += amount
	}
	return total
}
