package coach

import (
	"context"

	"glovy/backend/internal/models"
)

// Context is the structured conversation context handed to the classifier
// and generator: who is talking, about what, what was said so far, and the
// newest message under consideration.
type Context struct {
	Match      *models.Match
	Initiator  *models.Profile
	Invitee    *models.Profile
	History    []models.Message
	NewMessage models.Message
}

// Classifier maps conversation context to exactly one trigger from the
// closed taxonomy. Implementations must already coerce out-of-taxonomy
// output (models.ParseTrigger); the dispatcher additionally treats any
// error as models.TriggerSilent.
type Classifier interface {
	Classify(ctx context.Context, cc Context) (models.Trigger, error)
}

// Generator produces the coach's reply text. GenerateWhisper addresses the
// requesting participant in second person and is only seen by them.
type Generator interface {
	GenerateMessage(ctx context.Context, cc Context, trigger models.Trigger) (string, error)
	GenerateWhisper(ctx context.Context, cc Context) (string, error)
}

// Notifier pushes high-urgency escalation notices to a human moderator.
// Calls are detached and best effort.
type Notifier interface {
	NotifyEscalation(matchID string, trigger models.Trigger, tier string)
}
