package models

import "strings"

// Trigger is the single classified label describing the dominant
// conversational event in the newest message. It is an ephemeral
// classification result, never persisted.
type Trigger string

const (
	TriggerSilent                   Trigger = "silent"
	TriggerAttackHuman              Trigger = "attack_human"
	TriggerContemptOrInsult         Trigger = "contempt_or_insult"
	TriggerStonewallingOrWithdrawal Trigger = "stonewalling_or_withdrawal"
	TriggerDefensiveness            Trigger = "defensiveness"
	TriggerOverGeneralization       Trigger = "over_generalization"
	TriggerInterruption             Trigger = "interruption"
	TriggerVagueOrAbstract          Trigger = "vague_or_abstract"
	TriggerLowEnergyEngagement      Trigger = "low_energy_engagement"
	TriggerStuckOrLooping           Trigger = "stuck_or_looping"
	TriggerDirectRequestForHelp     Trigger = "direct_request_for_help"
	TriggerInviteeSilence           Trigger = "invitee_silence"
	TriggerInitiatorSilence         Trigger = "initiator_silence"
	TriggerPositiveBehavior         Trigger = "positive_behavior"
)

// AllTriggers is the closed taxonomy the classifier must choose from.
var AllTriggers = []Trigger{
	TriggerSilent,
	TriggerAttackHuman,
	TriggerContemptOrInsult,
	TriggerStonewallingOrWithdrawal,
	TriggerDefensiveness,
	TriggerOverGeneralization,
	TriggerInterruption,
	TriggerVagueOrAbstract,
	TriggerLowEnergyEngagement,
	TriggerStuckOrLooping,
	TriggerDirectRequestForHelp,
	TriggerInviteeSilence,
	TriggerInitiatorSilence,
	TriggerPositiveBehavior,
}

// highPriorityTriggers always warrant a response, regardless of phase or
// history. Safety and escalation bypass every throttle.
var highPriorityTriggers = map[Trigger]bool{
	TriggerAttackHuman:              true,
	TriggerContemptOrInsult:         true,
	TriggerStonewallingOrWithdrawal: true,
	TriggerDefensiveness:            true,
	TriggerDirectRequestForHelp:     true,
}

// interventionTriggers indicate the conversation is struggling and the
// coach should step in during the live phase.
var interventionTriggers = map[Trigger]bool{
	TriggerStuckOrLooping:      true,
	TriggerVagueOrAbstract:     true,
	TriggerLowEnergyEngagement: true,
	TriggerInviteeSilence:      true,
	TriggerInitiatorSilence:    true,
}

// IsHighPriority reports whether the trigger is in the always-respond set.
func (t Trigger) IsHighPriority() bool { return highPriorityTriggers[t] }

// NeedsIntervention reports whether the trigger is in the secondary
// "conversation is struggling" set.
func (t Trigger) NeedsIntervention() bool { return interventionTriggers[t] }

// ParseTrigger coerces raw classifier output into the closed taxonomy.
// The model is instructed to answer with a single label, but the raw text
// can carry markdown fences, quotes, or trailing explanation. Anything that
// cannot be matched exactly or by substring against known labels is coerced
// to TriggerSilent: an unparseable classification must never be treated as
// actionable.
func ParseTrigger(raw string) Trigger {
	s := strings.TrimSpace(raw)

	// Strip markdown code fences and their language tags.
	for strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.Index(s, "\n"); i >= 0 && !strings.Contains(s[:i], " ") {
			s = s[i+1:]
		}
	}
	s = strings.ReplaceAll(s, "```", "")
	s = strings.Trim(s, "\"'` \t\r\n")

	// Keep only the first line / sentence / clause.
	for _, sep := range []string{"\n", ".", ","} {
		if i := strings.Index(s, sep); i >= 0 {
			s = s[:i]
		}
	}
	s = strings.ToLower(strings.TrimSpace(s))

	for _, valid := range AllTriggers {
		if s == string(valid) {
			return valid
		}
	}

	// Best-effort substring match against known labels.
	for _, valid := range AllTriggers {
		if s == "" {
			break
		}
		if strings.Contains(s, string(valid)) || strings.Contains(string(valid), s) {
			return valid
		}
	}

	return TriggerSilent
}
