package coach_test

import (
	"testing"

	"glovy/backend/internal/coach"
	"glovy/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func newTestPolicy() *coach.Policy {
	return &coach.Policy{
		Persona:          "Glovy",
		MinMessages:      2,
		CooldownLookback: 3,
	}
}

func historyOf(bodies ...string) []models.Message {
	msgs := make([]models.Message, 0, len(bodies))
	roles := []string{models.RoleInitiator, models.RoleInvitee}
	for i, body := range bodies {
		msgs = append(msgs, models.Message{
			SenderRole: roles[i%2],
			Body:       body,
		})
	}
	return msgs
}

// TestPolicySilentNeverResponds verifies silent is a hard stop in every phase.
func TestPolicySilentNeverResponds(t *testing.T) {
	p := newTestPolicy()
	history := historyOf("Hello there, how are you?", "I am doing fine, thanks for asking.")

	for _, phase := range []models.Phase{models.PhasePreIntro, models.PhaseLive, models.PhaseWrapUp} {
		d := p.Decide(models.TriggerSilent, phase, history)
		assert.False(t, d.Respond, "silent must not respond in phase %s", phase)
	}
}

// TestPolicyHighPriorityAlwaysResponds verifies safety triggers bypass
// phase gates, the history minimum, and the cooldown.
func TestPolicyHighPriorityAlwaysResponds(t *testing.T) {
	p := newTestPolicy()

	// Empty history, wrap_up phase: the least favorable gate combination.
	d := p.Decide(models.TriggerAttackHuman, models.PhaseWrapUp, nil)
	assert.True(t, d.Respond)
	assert.Equal(t, coach.UrgencyHigh, d.Urgency)

	// Coach just replied; cooldown must not mute a safety trigger.
	recent := historyOf("You always ruin everything for everyone.", "That is not fair at all.")
	recent = append(recent, models.Message{SenderRole: "Glovy", Body: "Let's reset the tone."})
	d = p.Decide(models.TriggerContemptOrInsult, models.PhaseLive, recent)
	assert.True(t, d.Respond)
	assert.Equal(t, coach.UrgencyHigh, d.Urgency)
}

// TestPolicyPreIntroIsTalkative verifies any non-silent trigger responds
// before the conversation proper, even with no history.
func TestPolicyPreIntroIsTalkative(t *testing.T) {
	p := newTestPolicy()

	d := p.Decide(models.TriggerPositiveBehavior, models.PhasePreIntro, nil)
	assert.True(t, d.Respond)
	assert.Equal(t, coach.UrgencyLow, d.Urgency)

	d = p.Decide(models.TriggerVagueOrAbstract, models.PhasePreIntro, nil)
	assert.True(t, d.Respond)
	assert.Equal(t, coach.UrgencyMedium, d.Urgency, "intervention triggers carry medium urgency")
}

// TestPolicyWrapUpMutesRoutineTriggers verifies only high-priority triggers
// get through during wrap-up.
func TestPolicyWrapUpMutesRoutineTriggers(t *testing.T) {
	p := newTestPolicy()
	history := historyOf(
		"It was really nice talking about all of this today.",
		"Yes, I learned quite a lot from this conversation.",
		"We should definitely talk again sometime soon.",
	)

	d := p.Decide(models.TriggerPositiveBehavior, models.PhaseWrapUp, history)
	assert.False(t, d.Respond)

	d = p.Decide(models.TriggerStuckOrLooping, models.PhaseWrapUp, history)
	assert.False(t, d.Respond)
}

// TestPolicyLiveMinMessages verifies the history minimum in the live phase.
func TestPolicyLiveMinMessages(t *testing.T) {
	p := newTestPolicy()

	d := p.Decide(models.TriggerOverGeneralization, models.PhaseLive, historyOf("Hi!"))
	assert.False(t, d.Respond, "one message is below the minimum")

	d = p.Decide(models.TriggerOverGeneralization, models.PhaseLive,
		historyOf("You always say things like that.", "No I really do not, come on."))
	assert.True(t, d.Respond)
	assert.Equal(t, coach.UrgencyLow, d.Urgency)
}

// TestPolicyMinMessagesIgnoresCoach verifies coach replies do not count
// toward the live-phase history minimum.
func TestPolicyMinMessagesIgnoresCoach(t *testing.T) {
	p := newTestPolicy()

	history := []models.Message{
		{SenderRole: models.RoleInitiator, Body: "Hello, are you there?"},
		{SenderRole: "Glovy", Body: "Welcome, both of you!"},
		{SenderRole: "Glovy", Body: "Take your time getting started."},
	}

	d := p.Decide(models.TriggerOverGeneralization, models.PhaseLive, history)
	assert.False(t, d.Respond, "one participant message is below the minimum")
}

// TestPolicyCooldown verifies a recent coach message mutes routine triggers.
func TestPolicyCooldown(t *testing.T) {
	p := newTestPolicy()

	history := historyOf(
		"I think we should talk about the budget for next month.",
		"Sure, I have been meaning to bring that up as well.",
	)
	history = append(history, models.Message{SenderRole: "Glovy", Body: "Great start, keep going!"})

	d := p.Decide(models.TriggerLowEnergyEngagement, models.PhaseLive, history)
	assert.False(t, d.Respond, "coach replied within the lookback window")

	// Push the coach message out of the lookback window.
	history = append(history,
		models.Message{SenderRole: models.RoleInitiator, Body: "So about the rent increase this year."},
		models.Message{SenderRole: models.RoleInvitee, Body: "Right, that caught me off guard too."},
		models.Message{SenderRole: models.RoleInitiator, Body: "I was thinking we could renegotiate it."},
	)
	d = p.Decide(models.TriggerLowEnergyEngagement, models.PhaseLive, history)
	assert.True(t, d.Respond)
	assert.Equal(t, coach.UrgencyMedium, d.Urgency)
}

// TestPolicyStuckConversation verifies the short-message heuristic promotes
// a routine trigger to an intervention.
func TestPolicyStuckConversation(t *testing.T) {
	p := newTestPolicy()

	stuck := historyOf("ok", "sure", "fine", "ok", "yes")
	d := p.Decide(models.TriggerOverGeneralization, models.PhaseLive, stuck)
	assert.True(t, d.Respond)
	assert.Equal(t, coach.UrgencyMedium, d.Urgency, "stuck conversation promotes urgency")
}
