// Package broadcast publishes ephemeral typing indicators on per-match
// Redis pub/sub channels. Sends are best effort: a failed broadcast is the
// caller's to log and never affects the message pipeline.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// EventTyping is the event name the frontend subscribes to.
const EventTyping = "glovy-typing"

// TypingPayload is the broadcast body.
type TypingPayload struct {
	MessageID string  `json:"message_id"`
	IsTyping  bool    `json:"is_typing"`
	UserID    *string `json:"user_id"`
}

// Channel is an in-memory handle for one match's typing channel. Handles are
// advisory: the underlying transport can go stale without notifying the
// cache, so staleness is checked lazily on next use.
type Channel struct {
	Name string

	stale bool
	mu    sync.Mutex
}

func (c *Channel) markStale() {
	c.mu.Lock()
	c.stale = true
	c.mu.Unlock()
}

func (c *Channel) isStale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale
}

// Broadcaster is the side-channel interface the dispatcher consumes.
type Broadcaster interface {
	GetOrCreateChannel(ctx context.Context, matchID string) (*Channel, error)
	Send(ctx context.Context, ch *Channel, event string, payload TypingPayload) error
}

// Service реалізує Broadcaster поверх Redis Pub/Sub. Канали кешуються
// за matchID, щоб не пересоздавати їх на кожне повідомлення.
type Service struct {
	rdb *redis.Client

	mu       sync.Mutex
	channels map[string]*Channel
}

// NewService Constructor
func NewService(rdb *redis.Client) *Service {
	return &Service{
		rdb:      rdb,
		channels: make(map[string]*Channel),
	}
}

// GetOrCreateChannel повертає кешований канал для матчу, або створює новий,
// якщо кешований помічено як застарілий.
func (s *Service) GetOrCreateChannel(ctx context.Context, matchID string) (*Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.channels[matchID]; ok && !ch.isStale() {
		return ch, nil
	}

	// Перевірка транспорту перед видачею нового каналу.
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		delete(s.channels, matchID)
		return nil, fmt.Errorf("broadcast transport unavailable: %w", err)
	}

	ch := &Channel{Name: "typing:" + matchID}
	s.channels[matchID] = ch
	return ch, nil
}

// Send публікує подію в канал. Помилка позначає канал застарілим,
// щоб наступний виклик GetOrCreateChannel його пересоздав.
func (s *Service) Send(ctx context.Context, ch *Channel, event string, payload TypingPayload) error {
	if ch == nil {
		return nil
	}

	body, err := json.Marshal(struct {
		Event   string        `json:"event"`
		Payload TypingPayload `json:"payload"`
	}{Event: event, Payload: payload})
	if err != nil {
		return err
	}

	if err := s.rdb.Publish(ctx, ch.Name, string(body)).Err(); err != nil {
		ch.markStale()
		return err
	}

	log.Printf("Sent %s broadcast on %s, is_typing=%v, message_id=%s", event, ch.Name, payload.IsTyping, payload.MessageID)
	return nil
}
