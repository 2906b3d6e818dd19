package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"rental-booking/internal/dto/response"
	"rental-booking/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingSweep struct {
	completed atomic.Int32
	expired   atomic.Int32
	err       error
}

func (s *countingSweep) CompleteElapsed(context.Context) (int, error) {
	s.completed.Add(1)
	return 0, s.err
}

func (s *countingSweep) ExpireStale(context.Context) (int, error) {
	s.expired.Add(1)
	return 0, s.err
}

func (s *countingSweep) Sweep(context.Context) (*response.SweepResponse, error) {
	return &response.SweepResponse{}, s.err
}

func TestRunFiresJobsUntilCancelled(t *testing.T) {
	sweep := &countingSweep{}
	s := NewScheduler(sweep, utils.SweepConfig{CompleteSpec: "@every 1s", ExpireSpec: "@every 1s"}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		return sweep.completed.Load() > 0 && sweep.expired.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := NewScheduler(&countingSweep{}, utils.SweepConfig{CompleteSpec: "every now and then", ExpireSpec: "@every 5m"}, zap.NewNop())

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "completion sweep")
}

func TestJobErrorsAreSwallowed(t *testing.T) {
	sweep := &countingSweep{err: errors.New("db down")}
	s := NewScheduler(sweep, utils.SweepConfig{}, zap.NewNop())

	assert.NotPanics(t, func() {
		s.completeElapsed(context.Background())
		s.expireStale(context.Background())
	})
	assert.Equal(t, int32(1), sweep.completed.Load())
	assert.Equal(t, int32(1), sweep.expired.Load())
}
