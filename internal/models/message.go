package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sender roles. The coach role is configurable (config.Config.Persona) and
// is compared against SenderRole at runtime; RoleSystem marks generated
// notifications that must never re-enter the pipeline.
const (
	RoleInitiator = "Initiator"
	RoleInvitee   = "Invitee"
	RoleSystem    = "System"
)

// Message represents one persisted chat message. Messages are immutable
// once created. Participant messages arrive through the client application;
// coach messages are inserted by this service with a nil SenderID.
type Message struct {
	// ID is the unique identifier for the message (UUID).
	ID string `gorm:"type:uuid;primaryKey" json:"id"`
	// MatchID is the match this message belongs to.
	MatchID string `gorm:"type:uuid;not null;index:idx_match_created" json:"match_id"`
	// SenderID is the profile ID of the sender. Nil for coach messages.
	SenderID *string `gorm:"type:uuid" json:"sender_id"`
	// SenderRole is one of the participant roles, the coach persona, or RoleSystem.
	SenderRole string `gorm:"type:text;not null" json:"sender_role"`
	// Body is the message text.
	Body string `gorm:"type:text;not null" json:"body"`
	// Persona is the coach persona name for coach messages, empty otherwise.
	Persona string `gorm:"type:text" json:"persona"`
	// IsWhisper marks a private coach reply visible only to RecipientID.
	IsWhisper bool `gorm:"not null;default:false" json:"is_whisper"`
	// RecipientID is set on whispers: the only participant who sees the message.
	RecipientID *string `gorm:"type:uuid" json:"recipient_id"`
	// CreatedAt orders messages within a match.
	CreatedAt time.Time `gorm:"index:idx_match_created" json:"created_at"`
}

// BeforeCreate — GORM hook. Генерує UUID, якщо ID ще не встановлено.
func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}
