package coach

import (
	"log"
	"strings"

	"glovy/backend/internal/models"
)

// Urgency tiers attached to a positive decision.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Decision is the policy's verdict for one classified message.
type Decision struct {
	Respond bool
	Urgency Urgency
}

// Policy decides whether the coach interjects. It is a pure function of
// (trigger, phase, history): no I/O, so it can run on every dispatch.
// The history window must include the coach's own messages, otherwise the
// cooldown check has nothing to look at.
//
// The rule order is escalation-first, cooldown-second: safety triggers
// bypass every throttle, routine engagement triggers are throttled so the
// coach doesn't dominate the conversation.
type Policy struct {
	// Persona identifies the coach's own messages in history for the
	// cooldown check.
	Persona string
	// MinMessages is the minimum number of participant messages before
	// responding to non-high-priority triggers in the live phase.
	MinMessages int
	// CooldownLookback is how many trailing messages to scan for a recent
	// coach reply.
	CooldownLookback int
}

// Decide evaluates the intervention rules in priority order.
func (p *Policy) Decide(trigger models.Trigger, phase models.Phase, history []models.Message) Decision {
	// 1. Silent never gets a response.
	if trigger == models.TriggerSilent {
		return Decision{Respond: false}
	}

	// 2. High-priority triggers always respond, regardless of phase or history.
	if trigger.IsHighPriority() {
		return Decision{Respond: true, Urgency: UrgencyHigh}
	}

	// 3. Before the conversation proper the coach is more talkative.
	if phase == models.PhasePreIntro {
		return Decision{Respond: true, Urgency: p.urgencyFor(trigger)}
	}

	// 4. During wrap-up only high-priority triggers get through,
	// and those were already handled above.
	if phase == models.PhaseWrapUp {
		return Decision{Respond: false}
	}

	// 5. Live phase.
	if n := p.participantMessages(history); n < p.MinMessages {
		log.Printf("Policy: not enough participant messages yet (%d < %d)", n, p.MinMessages)
		return Decision{Respond: false}
	}

	if p.respondedRecently(history) {
		log.Printf("Policy: coach responded recently, skipping")
		return Decision{Respond: false}
	}

	if trigger.NeedsIntervention() || isConversationStuck(history, 5, p.Persona) {
		return Decision{Respond: true, Urgency: UrgencyMedium}
	}

	// Default: any remaining non-silent trigger gets a response.
	return Decision{Respond: true, Urgency: p.urgencyFor(trigger)}
}

func (p *Policy) urgencyFor(trigger models.Trigger) Urgency {
	if trigger.NeedsIntervention() {
		return UrgencyMedium
	}
	return UrgencyLow
}

// participantMessages counts the non-coach messages in the window.
func (p *Policy) participantMessages(history []models.Message) int {
	n := 0
	for _, msg := range history {
		if msg.SenderRole != p.Persona {
			n++
		}
	}
	return n
}

// respondedRecently reports whether the coach appears among the last
// CooldownLookback messages.
func (p *Policy) respondedRecently(history []models.Message) bool {
	lookback := p.CooldownLookback
	if lookback <= 0 {
		lookback = 3
	}
	start := len(history) - lookback
	if start < 0 {
		start = 0
	}
	for _, msg := range history[start:] {
		if msg.SenderRole == p.Persona {
			return true
		}
	}
	return false
}

// isConversationStuck flags a window of very short or repetitive messages.
func isConversationStuck(history []models.Message, lookback int, persona string) bool {
	if len(history) < lookback {
		return false
	}
	recent := history[len(history)-lookback:]

	short := 0
	bodies := make(map[string]bool, len(recent))
	total := 0
	for _, msg := range recent {
		if msg.SenderRole == persona {
			continue
		}
		total++
		if len(strings.Fields(msg.Body)) < 3 {
			short++
		}
		bodies[strings.ToLower(msg.Body)] = true
	}

	if short >= 3 {
		return true
	}
	return total > 0 && float64(len(bodies)) < float64(total)*0.5
}
