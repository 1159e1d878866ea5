package coach

import (
	"math/rand/v2"

	"glovy/backend/internal/analysis"
	"glovy/backend/internal/models"
)

// Pre-authored replies for behaviors whose intervention wording is
// well-characterized and repetitive. Serving these in-process avoids the
// generator's network round trip and its tail latency.

var interruptionResponses = []string{
	"Let's pause so they can finish—your turn is next.",
	"Hold up! Let them finish their thought first.",
	"Whoa there! One at a time—let's hear them out.",
	"Time out! Finish your point, then it's their turn.",
}

var interruptionWhispers = []string{
	"Jot your point; mirror first, then add it.",
	"Take a breath. Listen, then respond.",
	"Write it down if you need to—we'll get to it.",
}

var contemptResponses = []string{
	"Flag on tone—try a respectful rephrase.",
	"Whoa, that tone won't help. Let's reset with respect.",
	"Time out! That language isn't constructive. Try 'I feel...' instead.",
	"Penalty on the play! Name the impact, not the insult.",
}

var contemptWhispers = []string{
	"Name impact, not insult. e.g., 'I felt anxious about the purchase.'",
	"Try: 'When X happens, I feel Y' instead of name-calling.",
	"Focus on your feeling, not their character.",
}

var stonewallingResponses = []string{
	"I'm sensing withdrawal. Want a brief breather, or restate the last point?",
	"Check-in: Still with us? Want to pause or continue?",
	"I see you pulling back. Take a moment if needed, or let's try one more exchange.",
	"On a scale of 1 to 'throwing in the towel,' where are we? Let's reset.",
}

var positiveReinforcement = []string{
	"BEAUTIFUL! Did you see that? An actual 'I feel' statement!",
	"Hold up, hold up! That was some solid active listening right there!",
	"That's what I'm talking about! You just turned a complaint into a request.",
	"Clear mirroring—nice. Keep that up!",
	"That's like turning water into wine, but for relationships!",
}

var escalationLow = []string{
	"Slow down—one at a time.",
	"Let's take a breath. We're getting heated.",
	"Pump the brakes—let's reset the tone.",
}

var escalationModerate = []string{
	"Let's try a 10-second reset breath together.",
	"Okay, emotional temperature check—we're approaching 'hangry' levels here.",
	"I'm sensing we've entered the 'loud equals right' zone. Volume doesn't win arguments.",
}

var escalationSevere = []string{
	"Time-out recommended. Pause and return when ready.",
	"RED FLAG! We've entered dangerous territory. Let's step back.",
	"STOP! That language is relationship nuclear codes. Let's reset with respect.",
	"This is a private space. Take the time you need.",
}

var patternRepetition = []string{
	"Interesting! This is your third lap around the same argument. It's like watching NASCAR but with feelings.",
	"I'm getting déjà vu here—didn't we do this dance before? Let's try a new tune.",
	"Classic pattern alert! Same song, different verse. Time for a new approach.",
	"Okay, that round was like watching two people try to fold a fitted sheet—lots of effort, minimal progress.",
}

// defaultTemplateTriggers is the fast-path set when GLOVY_TEMPLATE_TRIGGERS
// is not configured.
var defaultTemplateTriggers = []string{
	string(models.TriggerInterruption),
	string(models.TriggerContemptOrInsult),
	string(models.TriggerStonewallingOrWithdrawal),
	string(models.TriggerPositiveBehavior),
}

// TemplateBank serves fixed per-trigger reply sets. Everything outside its
// eligible set is delegated to the external generator.
type TemplateBank struct {
	eligible map[models.Trigger]bool
}

// NewTemplateBank builds a bank with the given eligible trigger labels,
// falling back to the default fast-path set when none are configured.
func NewTemplateBank(triggers []string) *TemplateBank {
	if len(triggers) == 0 {
		triggers = defaultTemplateTriggers
	}
	eligible := make(map[models.Trigger]bool, len(triggers))
	for _, t := range triggers {
		eligible[models.Trigger(t)] = true
	}
	return &TemplateBank{eligible: eligible}
}

// Eligible reports whether the trigger/tier pair is served from templates.
// Escalation detected on the fast path is template-eligible at any tier.
func (b *TemplateBank) Eligible(trigger models.Trigger, behavior analysis.Behavior, tier analysis.Tier) bool {
	if b.eligible[trigger] {
		return true
	}
	if behavior == analysis.BehaviorEscalation && tier != analysis.TierNone {
		return true
	}
	return false
}

// Pick draws uniformly at random from the trigger's set. Whisper variants
// use a distinct second-person-addressed set where one exists. Returns ""
// when the bank has nothing for the trigger.
func (b *TemplateBank) Pick(trigger models.Trigger, behavior analysis.Behavior, tier analysis.Tier, whisper bool) string {
	var set []string

	switch {
	case behavior == analysis.BehaviorEscalation:
		switch tier {
		case analysis.TierSevere:
			set = escalationSevere
		case analysis.TierModerate:
			set = escalationModerate
		default:
			set = escalationLow
		}
	case behavior == analysis.BehaviorRepetition:
		set = patternRepetition
	case trigger == models.TriggerInterruption:
		set = interruptionResponses
		if whisper {
			set = interruptionWhispers
		}
	case trigger == models.TriggerContemptOrInsult:
		set = contemptResponses
		if whisper {
			set = contemptWhispers
		}
	case trigger == models.TriggerStonewallingOrWithdrawal:
		set = stonewallingResponses
	case trigger == models.TriggerPositiveBehavior:
		set = positiveReinforcement
	}

	if len(set) == 0 {
		return ""
	}
	return set[rand.IntN(len(set))]
}
