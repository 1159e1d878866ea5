// Package analysis does fast pattern-based behavior detection so the
// dispatcher can pick an escalation tier without waiting on the classifier.
package analysis

import (
	"regexp"
	"strings"

	"glovy/backend/internal/models"
)

// Behavior names overlap the trigger taxonomy where a regex can spot the
// same thing; BehaviorEscalation and BehaviorRepetition have no trigger
// counterpart and only exist on this fast path.
type Behavior string

const (
	BehaviorNone         Behavior = ""
	BehaviorInterruption Behavior = "interruption"
	BehaviorContempt     Behavior = "contempt_or_insult"
	BehaviorStonewalling Behavior = "stonewalling_or_withdrawal"
	BehaviorEscalation   Behavior = "escalation"
	BehaviorPositive     Behavior = "positive_behavior"
	BehaviorRepetition   Behavior = "pattern_repetition"
)

// Tier grades how hot the detected behavior is.
type Tier string

const (
	TierNone     Tier = "none"
	TierLow      Tier = "low"
	TierModerate Tier = "moderate"
	TierSevere   Tier = "severe"
)

var interruptionPatterns = []string{
	`wait\s+`,
	`hold\s+on`,
	`let\s+me\s+finish`,
	`you\s+always`,
	`you\s+never`,
	`stop\s+interrupting`,
}

var contemptPatterns = []string{
	`\b(stupid|idiot|moron|dumb|ridiculous|pathetic)\b`,
	`eye\s*roll`,
	`whatever`,
	`i\s+don'?t\s+care`,
	`you'?re\s+impossible`,
	`sarcasm`,
	`obviously`,
	`of\s+course`,
}

var stonewallingPatterns = []string{
	`^\.\.\.$`,
	`^\.$`,
	`fine`,
	`whatever\s+you\s+want`,
	`i'?m\s+done`,
	`i'?m\s+out`,
	`not\s+talking`,
	`silent\s+treatment`,
}

var escalationPatterns = []string{
	`divorce`,
	`break\s+up`,
	`i'?m\s+leaving`,
	`fuck\s+you`,
	`i\s+hate\s+you`,
	`you'?re\s+the\s+worst`,
	`i'?m\s+done\s+with\s+this`,
}

var positivePatterns = []string{
	`i\s+feel\s+`,
	`i\s+understand`,
	`i\s+hear\s+you`,
	`that\s+makes\s+sense`,
	`thank\s+you\s+for`,
	`i\s+appreciate`,
	`you'?re\s+right`,
	`i\s+see\s+your\s+point`,
}

// Detector matches messages against precompiled behavior patterns.
type Detector struct {
	interruptionRe *regexp.Regexp
	contemptRe     *regexp.Regexp
	stonewallingRe *regexp.Regexp
	escalationRe   *regexp.Regexp
	positiveRe     *regexp.Regexp

	coachRole string
}

// NewDetector compiles the pattern sets. coachRole is excluded from the
// repetition check so the coach's own replies don't count as loops.
func NewDetector(coachRole string) *Detector {
	compile := func(patterns []string) *regexp.Regexp {
		return regexp.MustCompile("(?i)" + strings.Join(patterns, "|"))
	}
	return &Detector{
		interruptionRe: compile(interruptionPatterns),
		contemptRe:     compile(contemptPatterns),
		stonewallingRe: compile(stonewallingPatterns),
		escalationRe:   compile(escalationPatterns),
		positiveRe:     compile(positivePatterns),
		coachRole:      coachRole,
	}
}

// Detect returns the first matching behavior, highest severity first.
func (d *Detector) Detect(body string, history []models.Message) (Behavior, Tier) {
	lower := strings.ToLower(body)

	if d.escalationRe.MatchString(lower) {
		return BehaviorEscalation, TierSevere
	}

	if d.contemptRe.MatchString(lower) {
		for _, ind := range []string{"hate", "worst", "impossible", "ridiculous"} {
			if strings.Contains(lower, ind) {
				return BehaviorContempt, TierSevere
			}
		}
		return BehaviorContempt, TierModerate
	}

	if d.stonewallingRe.MatchString(lower) {
		for _, ind := range []string{"i'm done", "i'm out", "not talking"} {
			if strings.Contains(lower, ind) {
				return BehaviorStonewalling, TierSevere
			}
		}
		return BehaviorStonewalling, TierModerate
	}

	if d.interruptionRe.MatchString(lower) {
		return BehaviorInterruption, TierLow
	}

	if d.positiveRe.MatchString(lower) {
		return BehaviorPositive, TierNone
	}

	if d.detectRepetition(history, 5) {
		return BehaviorRepetition, TierModerate
	}

	return BehaviorNone, TierNone
}

// detectRepetition checks whether the participants keep opening messages
// the same way over the lookback window.
func (d *Detector) detectRepetition(history []models.Message, lookback int) bool {
	if len(history) < lookback {
		return false
	}

	recent := history[len(history)-lookback:]
	var starts []string
	for _, msg := range recent {
		if msg.SenderRole == d.coachRole {
			continue
		}
		words := strings.Fields(strings.ToLower(strings.TrimSpace(msg.Body)))
		if len(words) >= 3 {
			starts = append(starts, strings.Join(words[:3], " "))
		}
	}
	if len(starts) < 3 {
		return false
	}

	unique := make(map[string]bool, len(starts))
	for _, s := range starts {
		unique[s] = true
	}
	return float64(len(unique)) < float64(len(starts))*0.5
}
