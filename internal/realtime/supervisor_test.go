package realtime

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"glovy/backend/internal/config"
	"glovy/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

// TestBackoff verifies the doubling schedule and its cap.
func TestBackoff(t *testing.T) {
	assert.Equal(t, 5*time.Second, Backoff(0))
	assert.Equal(t, 10*time.Second, Backoff(1))
	assert.Equal(t, 20*time.Second, Backoff(2))
	assert.Equal(t, 40*time.Second, Backoff(3))
	assert.Equal(t, 160*time.Second, Backoff(5))
	assert.Equal(t, config.MaxReconnectDelay, Backoff(6))
	assert.Equal(t, config.MaxReconnectDelay, Backoff(20))
}

// TestStartFailsFastOnInitialDialError verifies a startup connect failure is
// returned to the caller instead of being retried.
func TestStartFailsFastOnInitialDialError(t *testing.T) {
	s := &Supervisor{events: make(chan models.Message, 1)}
	s.Dial = func(ctx context.Context) (*Subscription, error) {
		return nil, errors.New("feed unavailable")
	}

	err := s.Start(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "disconnected", s.State())
}

// TestScheduleReconnectSingleFlight verifies a second trigger during an
// in-flight reconnect is a no-op.
func TestScheduleReconnectSingleFlight(t *testing.T) {
	var dials atomic.Int32
	dialStarted := make(chan struct{})
	release := make(chan struct{})

	s := &Supervisor{events: make(chan models.Message, 1)}
	s.Dial = func(ctx context.Context) (*Subscription, error) {
		if dials.Add(1) == 1 {
			close(dialStarted)
		}
		<-release
		return nil, errors.New("still down")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.ScheduleReconnect(ctx, "transport closed")

	select {
	case <-dialStarted:
	case <-time.After(time.Second):
		t.Fatal("reconnect sequence did not start")
	}

	// Redundant trigger while the first sequence holds the guard.
	s.ScheduleReconnect(ctx, "health check")

	cancel()
	close(release)

	assert.Eventually(t, func() bool { return dials.Load() == 1 },
		time.Second, 10*time.Millisecond, "second trigger must not dial")
}

// TestScheduleReconnectEstablishes verifies a successful reconnect installs
// the new subscription and resets the attempt counter.
func TestScheduleReconnectEstablishes(t *testing.T) {
	s := &Supervisor{events: make(chan models.Message, 1)}
	s.attempts = 4
	s.Dial = func(ctx context.Context) (*Subscription, error) {
		return &Subscription{
			state: StateJoined,
			done:  make(chan struct{}),
		}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.ScheduleReconnect(ctx, "transport closed")

	assert.Eventually(t, func() bool { return s.State() == "joined" },
		time.Second, 10*time.Millisecond)

	s.mu.Lock()
	attempts := s.attempts
	s.mu.Unlock()
	assert.Zero(t, attempts, "attempt counter resets on success")
}
