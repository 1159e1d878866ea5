package models

import "time"

// Phase is the derived lifecycle stage of a match. It is never stored;
// it is recomputed from the match timestamps on every dispatch.
type Phase string

const (
	PhasePreIntro Phase = "pre_intro"
	PhaseLive     Phase = "live"
	PhaseWrapUp   Phase = "wrap_up"
)

// QA is one onboarding question/answer pair. The metadata lists are ordered;
// consumers iterate them positionally when building prompts.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// MatchMetadata holds the onboarding answers collected per participant.
type MatchMetadata struct {
	Initiator []QA `json:"initiator"`
	Invitee   []QA `json:"invitee"`
}

// Match represents a two-participant conversation the coach observes.
// Rows are created and mutated by the client application; this service
// only reads them.
type Match struct {
	// ID is the unique identifier for the match (UUID).
	ID string `gorm:"type:uuid;primaryKey" json:"id"`
	// InitiatorID is the profile ID of the participant who opened the match.
	InitiatorID string `gorm:"type:uuid;not null" json:"initiator_id"`
	// InviteeID is the profile ID of the participant who was invited.
	InviteeID string `gorm:"type:uuid;not null" json:"invitee_id"`
	// Subject is the free-text topic the participants agreed to talk about.
	Subject string `gorm:"type:text" json:"subject"`
	// Metadata contains the per-participant onboarding question/answer pairs.
	Metadata MatchMetadata `gorm:"serializer:json" json:"metadata"`
	// StartTime is set when the conversation proper begins.
	StartTime *time.Time `json:"start_time"`
	// EndTime is set when the conversation is wrapped up.
	EndTime *time.Time `json:"end_time"`
}

// Phase derives the current phase from the match timestamps.
func (m *Match) Phase() Phase {
	if m.StartTime == nil {
		return PhasePreIntro
	}
	if m.EndTime != nil {
		return PhaseWrapUp
	}
	return PhaseLive
}

// ParticipantRole maps a profile ID to its role in this match.
// Returns an empty string for IDs that are not participants.
func (m *Match) ParticipantRole(profileID string) string {
	switch profileID {
	case m.InitiatorID:
		return RoleInitiator
	case m.InviteeID:
		return RoleInvitee
	}
	return ""
}
