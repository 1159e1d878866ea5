package coach_test

import (
	"testing"

	"glovy/backend/internal/analysis"
	"glovy/backend/internal/coach"
	"glovy/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

// TestTemplateBankDefaultEligibility verifies the default fast-path set.
func TestTemplateBankDefaultEligibility(t *testing.T) {
	bank := coach.NewTemplateBank(nil)

	eligible := []models.Trigger{
		models.TriggerInterruption,
		models.TriggerContemptOrInsult,
		models.TriggerStonewallingOrWithdrawal,
		models.TriggerPositiveBehavior,
	}
	for _, trigger := range eligible {
		assert.True(t, bank.Eligible(trigger, analysis.BehaviorNone, analysis.TierNone),
			"%s should be template-eligible by default", trigger)
	}

	generatorOnly := []models.Trigger{
		models.TriggerAttackHuman,
		models.TriggerDefensiveness,
		models.TriggerVagueOrAbstract,
		models.TriggerStuckOrLooping,
	}
	for _, trigger := range generatorOnly {
		assert.False(t, bank.Eligible(trigger, analysis.BehaviorNone, analysis.TierNone),
			"%s should go to the generator", trigger)
	}
}

// TestTemplateBankConfiguredEligibility verifies the configured set replaces
// the default one entirely.
func TestTemplateBankConfiguredEligibility(t *testing.T) {
	bank := coach.NewTemplateBank([]string{string(models.TriggerInterruption)})

	assert.True(t, bank.Eligible(models.TriggerInterruption, analysis.BehaviorNone, analysis.TierNone))
	assert.False(t, bank.Eligible(models.TriggerContemptOrInsult, analysis.BehaviorNone, analysis.TierNone))
}

// TestTemplateBankEscalationAlwaysEligible verifies fast-path escalation is
// served from templates at any tier, regardless of the configured set.
func TestTemplateBankEscalationAlwaysEligible(t *testing.T) {
	bank := coach.NewTemplateBank([]string{string(models.TriggerInterruption)})

	for _, tier := range []analysis.Tier{analysis.TierLow, analysis.TierModerate, analysis.TierSevere} {
		assert.True(t, bank.Eligible(models.TriggerAttackHuman, analysis.BehaviorEscalation, tier),
			"escalation at tier %s should be template-eligible", tier)
	}
	assert.False(t, bank.Eligible(models.TriggerAttackHuman, analysis.BehaviorEscalation, analysis.TierNone))
}

// TestTemplateBankPick verifies Pick draws a non-empty reply for every
// eligible trigger and an empty string for everything else.
func TestTemplateBankPick(t *testing.T) {
	bank := coach.NewTemplateBank(nil)

	for _, trigger := range []models.Trigger{
		models.TriggerInterruption,
		models.TriggerContemptOrInsult,
		models.TriggerStonewallingOrWithdrawal,
		models.TriggerPositiveBehavior,
	} {
		assert.NotEmpty(t, bank.Pick(trigger, analysis.BehaviorNone, analysis.TierNone, false),
			"%s should have a broadcast template", trigger)
	}

	assert.Empty(t, bank.Pick(models.TriggerVagueOrAbstract, analysis.BehaviorNone, analysis.TierNone, false),
		"triggers without a set yield empty")
}

// TestTemplateBankWhisperVariants verifies whisper picks come from the
// second-person sets where one exists.
func TestTemplateBankWhisperVariants(t *testing.T) {
	bank := coach.NewTemplateBank(nil)

	// Whisper sets are small; sample repeatedly to cover them.
	broadcastSeen := map[string]bool{}
	for i := 0; i < 50; i++ {
		broadcastSeen[bank.Pick(models.TriggerContemptOrInsult, analysis.BehaviorNone, analysis.TierNone, false)] = true
	}
	for i := 0; i < 50; i++ {
		whisper := bank.Pick(models.TriggerContemptOrInsult, analysis.BehaviorNone, analysis.TierNone, true)
		assert.NotEmpty(t, whisper)
		assert.False(t, broadcastSeen[whisper], "whisper %q must not come from the broadcast set", whisper)
	}
}

// TestTemplateBankEscalationTiers verifies every tier has a reply set.
func TestTemplateBankEscalationTiers(t *testing.T) {
	bank := coach.NewTemplateBank(nil)

	for _, tier := range []analysis.Tier{analysis.TierLow, analysis.TierModerate, analysis.TierSevere} {
		assert.NotEmpty(t, bank.Pick(models.TriggerAttackHuman, analysis.BehaviorEscalation, tier, false),
			"tier %s should have a reply set", tier)
	}

	assert.NotEmpty(t, bank.Pick(models.TriggerSilent, analysis.BehaviorRepetition, analysis.TierModerate, false),
		"repetition has its own reply set")
}
