package llm

import (
	"fmt"
	"strings"

	"glovy/backend/internal/coach"
	"glovy/backend/internal/models"
)

const classifierSystemPrompt = `You are the tone analyzer for Glovy, an AI coach moderating a live two-person conversation. Read the conversation and the newest message and answer with EXACTLY ONE label from this list, nothing else:

silent, attack_human, contempt_or_insult, stonewalling_or_withdrawal, defensiveness, over_generalization, interruption, vague_or_abstract, low_energy_engagement, stuck_or_looping, direct_request_for_help, invitee_silence, initiator_silence, positive_behavior

Answer "silent" when nothing in the newest message calls for the coach to step in.`

const messageSystemPrompt = `You are Glovy, a witty and smart AI coach sitting in on a two-person conversation. You interject briefly when the conversation needs it. Keep replies to at most two sentences, constructive, warm, and specific to what was just said. Address both participants.`

const whisperSystemPrompt = `You are Glovy, a witty and smart AI coach. One participant has privately asked you for advice; the other cannot see your reply. Address the requester directly in second person. Keep it to at most two sentences, practical and kind.`

// buildContext renders the shared conversation block: participants, subject,
// onboarding metadata, history transcript, and the newest message.
func buildContext(cc coach.Context) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Initiator: %s (id %s)\n", cc.Initiator.FullName, cc.Initiator.ID)
	fmt.Fprintf(&b, "Invitee: %s (id %s)\n", cc.Invitee.FullName, cc.Invitee.ID)
	fmt.Fprintf(&b, "Subject: %s\n", cc.Match.Subject)

	writeQA := func(who string, qa []models.QA) {
		if len(qa) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s onboarding answers:\n", who)
		for _, pair := range qa {
			fmt.Fprintf(&b, "- %s: %s\n", pair.Question, pair.Answer)
		}
	}
	writeQA("Initiator", cc.Match.Metadata.Initiator)
	writeQA("Invitee", cc.Match.Metadata.Invitee)

	if len(cc.History) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, msg := range cc.History {
			fmt.Fprintf(&b, "%s: %s\n", msg.SenderRole, msg.Body)
		}
	}

	fmt.Fprintf(&b, "\nNewest message (%s): %s\n", cc.NewMessage.SenderRole, cc.NewMessage.Body)
	return b.String()
}

func buildClassifierMessage(cc coach.Context) string {
	return buildContext(cc)
}

func buildGeneratorMessage(cc coach.Context, trigger models.Trigger) string {
	return buildContext(cc) + fmt.Sprintf("\nDetected trigger: %s\nWrite Glovy's reply.", trigger)
}

func buildWhisperMessage(cc coach.Context) string {
	requester := cc.NewMessage.SenderRole
	if requester == "" {
		requester = "the requesting participant"
	}
	return buildContext(cc) + fmt.Sprintf("\nThe newest message is a private request from %s. Write Glovy's whispered advice to them.", requester)
}
