package realtime

import (
	"encoding/json"
	"testing"

	"glovy/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

// TestActionable verifies the self-feedback-loop guard: the coach's own
// inserts and system notifications never re-enter the pipeline.
func TestActionable(t *testing.T) {
	assert.True(t, Actionable(models.Message{SenderRole: models.RoleInitiator}, "Glovy"))
	assert.True(t, Actionable(models.Message{SenderRole: models.RoleInvitee}, "Glovy"))

	assert.False(t, Actionable(models.Message{SenderRole: "Glovy"}, "Glovy"))
	assert.False(t, Actionable(models.Message{SenderRole: models.RoleSystem}, "Glovy"))
}

func changeJSON(t *testing.T, changeType string, msg models.Message) json.RawMessage {
	t.Helper()
	record, err := json.Marshal(msg)
	assert.NoError(t, err)

	payload, err := json.Marshal(map[string]any{
		"data": map[string]any{
			"type":   changeType,
			"record": json.RawMessage(record),
		},
	})
	assert.NoError(t, err)
	return payload
}

// TestHandleChangeEnqueuesInserts verifies a qualifying INSERT reaches the
// event queue.
func TestHandleChangeEnqueuesInserts(t *testing.T) {
	events := make(chan models.Message, 1)
	s := &Subscription{
		events:    events,
		coachRole: "Glovy",
		done:      make(chan struct{}),
	}

	s.handleChange(changeJSON(t, "INSERT", models.Message{
		ID:         "msg-1",
		MatchID:    "match-1",
		SenderRole: models.RoleInitiator,
		Body:       "Hello there!",
	}))

	select {
	case msg := <-events:
		assert.Equal(t, "msg-1", msg.ID)
		assert.Equal(t, models.RoleInitiator, msg.SenderRole)
	default:
		t.Fatal("expected the insert to be enqueued")
	}
}

// TestHandleChangeDropsNonQualifying verifies non-INSERT changes, coach
// echoes, system messages, and malformed payloads are all dropped.
func TestHandleChangeDropsNonQualifying(t *testing.T) {
	events := make(chan models.Message, 4)
	s := &Subscription{
		events:    events,
		coachRole: "Glovy",
		done:      make(chan struct{}),
	}

	s.handleChange(changeJSON(t, "UPDATE", models.Message{ID: "m1", SenderRole: models.RoleInitiator}))
	s.handleChange(changeJSON(t, "DELETE", models.Message{ID: "m2", SenderRole: models.RoleInvitee}))
	s.handleChange(changeJSON(t, "INSERT", models.Message{ID: "m3", SenderRole: "Glovy"}))
	s.handleChange(changeJSON(t, "INSERT", models.Message{ID: "m4", SenderRole: models.RoleSystem}))
	s.handleChange(json.RawMessage(`{"data": {"type": "INSERT", "record": "not an object"}}`))
	s.handleChange(json.RawMessage(`not json at all`))

	assert.Empty(t, events, "nothing should have been enqueued")
}
