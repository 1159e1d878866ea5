package realtime

import (
	"context"
	"log"
	"sync"
	"time"

	"glovy/backend/internal/config"
	"glovy/backend/internal/models"
)

// DialFunc establishes one subscription. The supervisor holds it as a field
// so tests can connect to nothing.
type DialFunc func(ctx context.Context) (*Subscription, error)

// Supervisor owns the lifecycle of the feed subscription: absent a fatal
// startup error, the process eventually has a live subscription, and exactly
// one reconnect sequence runs at a time.
type Supervisor struct {
	Dial DialFunc

	events chan models.Message

	// reconnectMu is the single-flight guard: the holder runs the full
	// unsubscribe/connect/backoff sequence, every other trigger is
	// redundant and returns immediately.
	reconnectMu sync.Mutex

	mu       sync.Mutex
	sub      *Subscription
	attempts int
}

// NewSupervisor builds a supervisor dialing the configured feed. Events are
// delivered on a bounded queue consumed by the dispatcher.
func NewSupervisor(cfg *config.Config) *Supervisor {
	s := &Supervisor{
		events: make(chan models.Message, config.EventQueueSize),
	}
	s.Dial = func(ctx context.Context) (*Subscription, error) {
		return Dial(ctx, cfg.RealtimeURL, cfg.RealtimeKey, cfg.Persona, s.events)
	}
	return s
}

// Events returns the queue of qualifying inbound messages.
func (s *Supervisor) Events() <-chan models.Message {
	return s.events
}

// Start establishes the initial subscription and starts the health monitor.
// An initial connect failure is returned to the caller: startup faults fail
// the process fast instead of running half-initialized. Everything after
// startup routes through ScheduleReconnect and is never fatal.
func (s *Supervisor) Start(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return err
	}
	go s.healthLoop(ctx)
	return nil
}

// Stop tears down the current subscription.
func (s *Supervisor) Stop() {
	if sub := s.current(); sub != nil {
		sub.Unsubscribe()
	}
}

// State describes the current subscription for the health endpoint.
func (s *Supervisor) State() string {
	sub := s.current()
	if sub == nil {
		return "disconnected"
	}
	return sub.State().String()
}

func (s *Supervisor) current() *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub
}

func (s *Supervisor) connect(ctx context.Context) error {
	sub, err := s.Dial(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sub = sub
	s.attempts = 0
	s.mu.Unlock()

	// Close/error callbacks from the transport are not always delivered,
	// but when they are, react immediately instead of waiting for the
	// health tick. The identity check skips handles already replaced.
	go func() {
		select {
		case <-sub.Done():
			if s.current() == sub {
				s.ScheduleReconnect(ctx, "transport closed")
			}
		case <-ctx.Done():
		}
	}()

	log.Printf("Realtime subscription established, listening for messages...")
	return nil
}

// ScheduleReconnect starts the reconnect sequence unless one is already in
// flight, in which case the trigger is redundant and this is a no-op.
func (s *Supervisor) ScheduleReconnect(ctx context.Context, reason string) {
	if !s.reconnectMu.TryLock() {
		log.Printf("Reconnect already in progress, ignoring trigger: %s", reason)
		return
	}

	log.Printf("WARNING: Realtime connection lost (%s), attempting to reconnect...", reason)

	go func() {
		defer s.reconnectMu.Unlock()

		for {
			if ctx.Err() != nil {
				log.Println("Reconnect cancelled")
				return
			}

			// Drop the stale handle, best effort.
			s.mu.Lock()
			old := s.sub
			s.sub = nil
			s.mu.Unlock()
			if old != nil {
				old.Unsubscribe()
			}

			if err := s.connect(ctx); err == nil {
				log.Println("Successfully reconnected to realtime feed")
				return
			} else {
				s.mu.Lock()
				delay := Backoff(s.attempts)
				s.attempts++
				s.mu.Unlock()

				log.Printf("ERROR: Reconnection attempt failed: %v", err)
				log.Printf("Will retry reconnection in %v", delay)

				select {
				case <-time.After(delay):
				case <-ctx.Done():
					log.Println("Reconnect retry cancelled")
					return
				}
			}
		}
	}()
}

// healthLoop periodically verifies the subscription is alive. It exists
// because transport close/error callbacks are unreliable; the periodic
// check is the backstop.
func (s *Supervisor) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Health monitor stopped")
			return
		case <-ticker.C:
			sub := s.current()
			if sub == nil {
				s.ScheduleReconnect(ctx, "no live subscription")
			} else if st := sub.State(); st != StateJoined {
				s.ScheduleReconnect(ctx, "subscription state "+st.String())
			}
		}
	}
}

// Backoff returns the delay before reconnect attempt n (zero-based):
// min(5s * 2^n, 300s).
func Backoff(attempt int) time.Duration {
	d := config.InitialReconnectDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= config.MaxReconnectDelay {
			return config.MaxReconnectDelay
		}
	}
	return d
}
