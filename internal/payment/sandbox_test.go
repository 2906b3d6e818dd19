package payment

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chargeReq(orderID string, amount int64) ChargeRequest {
	return ChargeRequest{
		BookingID: uuid.New(),
		OrderID:   orderID,
		Amount:    amount,
		Currency:  "INR",
		Customer:  Customer{ID: uuid.New()},
	}
}

func TestSandbox_ManualSettle(t *testing.T) {
	ctx := context.Background()
	s := NewSandbox(false)

	charge, err := s.CreateCharge(ctx, chargeReq("order_1", 5824))
	require.NoError(t, err)
	assert.Equal(t, "order_1", charge.OrderID)
	assert.NotEmpty(t, charge.SessionToken)

	status, err := s.QueryChargeStatus(ctx, "order_1")
	require.NoError(t, err)
	assert.False(t, status.Settled)
	assert.Empty(t, status.TransactionRef)

	require.NoError(t, s.Settle("order_1"))

	status, err = s.QueryChargeStatus(ctx, "order_1")
	require.NoError(t, err)
	assert.True(t, status.Settled)
	assert.NotEmpty(t, status.TransactionRef)
}

func TestSandbox_AutoSettle(t *testing.T) {
	ctx := context.Background()
	s := NewSandbox(true)

	_, err := s.CreateCharge(ctx, chargeReq("order_2", 100))
	require.NoError(t, err)

	status, err := s.QueryChargeStatus(ctx, "order_2")
	require.NoError(t, err)
	assert.True(t, status.Settled)
}

func TestSandbox_Errors(t *testing.T) {
	ctx := context.Background()
	s := NewSandbox(false)

	_, err := s.CreateCharge(ctx, chargeReq("order_3", 0))
	assert.Error(t, err)

	_, err = s.QueryChargeStatus(ctx, "missing")
	assert.ErrorIs(t, err, ErrUnknownOrder)
	assert.ErrorIs(t, s.Settle("missing"), ErrUnknownOrder)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.CreateCharge(cancelled, chargeReq("order_4", 10))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSandbox_ConcurrentRefunds(t *testing.T) {
	s := NewSandbox(false)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref, err := s.Refund(context.Background(), uuid.New(), 50)
			assert.NoError(t, err)
			assert.NotEmpty(t, ref)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), s.Refunded())
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider("sandbox", true)
	require.NoError(t, err)
	assert.Equal(t, SandboxName, p.Name())

	_, err = NewProvider("stripe", false)
	assert.Error(t, err)
}
