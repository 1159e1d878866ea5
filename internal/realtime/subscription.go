// Package realtime maintains the websocket subscription to the message
// feed and supervises its reconnection.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"glovy/backend/internal/models"

	"github.com/gorilla/websocket"
)

const (
	topicMessages = "realtime:public:messages"
	topicPhoenix  = "phoenix"

	writeWait       = 10 * time.Second
	joinWait        = 10 * time.Second
	heartbeatPeriod = 25 * time.Second
	maxFrameSize    = 1 << 20
)

// State is the explicit capability surface of the transport: the supervisor
// never probes the underlying socket.
type State int

const (
	StateUnknown State = iota
	StateJoined
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	}
	return "unknown"
}

// phxFrame is the wire envelope of the feed protocol.
type phxFrame struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref"`
}

type changePayload struct {
	Data struct {
		Type   string          `json:"type"`
		Record json.RawMessage `json:"record"`
	} `json:"data"`
}

// Subscription is one live subscription to the inbound message feed.
// Parsed, qualifying events are pushed onto the shared events queue; the
// dispatcher consumes them from the other end.
type Subscription struct {
	conn      *websocket.Conn
	events    chan<- models.Message
	coachRole string

	writeMu sync.Mutex

	stateMu sync.Mutex
	state   State

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the feed, joins the messages topic, and starts the read
// and heartbeat loops. It returns only after the join is acknowledged.
func Dial(ctx context.Context, url, apiKey, coachRole string, events chan<- models.Message) (*Subscription, error) {
	addr := url
	if apiKey != "" {
		addr += "?apikey=" + apiKey
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial realtime feed: %w", err)
	}
	conn.SetReadLimit(maxFrameSize)

	s := &Subscription{
		conn:      conn,
		events:    events,
		coachRole: coachRole,
		state:     StateUnknown,
		done:      make(chan struct{}),
	}

	join := map[string]any{
		"config": map[string]any{
			"postgres_changes": []map[string]string{
				{"event": "INSERT", "schema": "public", "table": "messages"},
			},
		},
	}
	if err := s.writeFrame(topicMessages, "phx_join", join); err != nil {
		conn.Close()
		return nil, fmt.Errorf("join messages topic: %w", err)
	}

	if err := s.awaitJoinReply(); err != nil {
		conn.Close()
		return nil, err
	}
	s.setState(StateJoined)

	go s.readLoop()
	go s.heartbeatLoop()

	return s, nil
}

// awaitJoinReply blocks until the feed acknowledges the join.
func (s *Subscription) awaitJoinReply() error {
	s.conn.SetReadDeadline(time.Now().Add(joinWait))
	defer s.conn.SetReadDeadline(time.Time{})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read join reply: %w", err)
		}
		var frame phxFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		if frame.Event != "phx_reply" {
			continue
		}
		var reply struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(frame.Payload, &reply); err != nil || reply.Status != "ok" {
			return fmt.Errorf("join rejected: %s", string(frame.Payload))
		}
		return nil
	}
}

// State reports the current transport state.
func (s *Subscription) State() State {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *Subscription) setState(st State) {
	s.stateMu.Lock()
	s.state = st
	s.stateMu.Unlock()
}

// Done is closed when the subscription stops for any reason.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Unsubscribe leaves the topic (best effort) and tears the connection down.
func (s *Subscription) Unsubscribe() {
	_ = s.writeFrame(topicMessages, "phx_leave", map[string]any{})
	s.shutdown(StateClosed)
}

func (s *Subscription) shutdown(st State) {
	s.closeOnce.Do(func() {
		s.setState(st)
		s.conn.Close()
		close(s.done)
	})
}

func (s *Subscription) readLoop() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WARNING: Realtime read error: %v", err)
				s.shutdown(StateErrored)
			} else {
				s.shutdown(StateClosed)
			}
			return
		}

		var frame phxFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Printf("WARNING: Malformed realtime frame dropped: %v", err)
			continue
		}

		switch frame.Event {
		case "postgres_changes":
			s.handleChange(frame.Payload)
		case "phx_error":
			log.Printf("WARNING: Realtime channel error: %s", string(frame.Payload))
			s.shutdown(StateErrored)
			return
		case "phx_close":
			log.Printf("Realtime channel closed by server")
			s.shutdown(StateClosed)
			return
		default:
			// phx_reply / heartbeat acks
		}
	}
}

// handleChange parses one change notification and enqueues it if it
// qualifies. A malformed payload is logged and dropped: retry has no
// defined semantics for a payload that cannot be parsed.
func (s *Subscription) handleChange(payload json.RawMessage) {
	var change changePayload
	if err := json.Unmarshal(payload, &change); err != nil {
		log.Printf("WARNING: Malformed change payload dropped: %v", err)
		return
	}
	if change.Data.Type != "INSERT" {
		return
	}

	var msg models.Message
	if err := json.Unmarshal(change.Data.Record, &msg); err != nil {
		log.Printf("WARNING: Malformed message record dropped: %v", err)
		return
	}

	if !Actionable(msg, s.coachRole) {
		return
	}

	log.Printf("New message received: %s", msg.ID)
	select {
	case s.events <- msg:
	case <-s.done:
	}
}

// Actionable filters events before they reach the dispatcher: the coach's
// own inserts and system notifications never re-enter the pipeline. This is
// the self-feedback-loop guard, not a business rule.
func Actionable(msg models.Message, coachRole string) bool {
	if msg.SenderRole == coachRole || msg.SenderRole == models.RoleSystem {
		return false
	}
	return true
}

func (s *Subscription) heartbeatLoop() {
	ticker := time.NewTicker(heartbeatPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.writeFrame(topicPhoenix, "heartbeat", map[string]any{}); err != nil {
				log.Printf("WARNING: Realtime heartbeat failed: %v", err)
				s.shutdown(StateErrored)
				return
			}
		}
	}
}

func (s *Subscription) writeFrame(topic, event string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(phxFrame{
		Topic:   topic,
		Event:   event,
		Payload: body,
	})
}
