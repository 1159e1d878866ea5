package storage

import (
	"context"
	"errors"
	"log"

	"glovy/backend/internal/config"
	"glovy/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// RecentMessagesOpts filters the history window.
type RecentMessagesOpts struct {
	// ExcludeSenderRole drops messages from the given role (typically the
	// coach persona, so the classifier sees only participant traffic).
	ExcludeSenderRole string
	// IncludeWhispers keeps private whisper messages in the window.
	// They are excluded by default: whispers are visible to one participant
	// only and must not leak into shared context.
	IncludeWhispers bool
}

// InsertCoachMessageParams describes one coach reply to persist.
type InsertCoachMessageParams struct {
	MatchID     string
	Body        string
	SenderRole  string
	Persona     string
	RecipientID *string
	IsWhisper   bool
}

// Storage is the narrow store interface the pipeline consumes. Reads fail
// soft: a missing row comes back as (nil, nil), never as an error, per the
// dispatcher's log-and-drop handling of dangling references.
type Storage interface {
	GetMatch(id string) (*models.Match, error)
	GetProfile(id string) (*models.Profile, error)
	GetRecentMessages(matchID string, limit int, opts RecentMessagesOpts) ([]models.Message, error)
	InsertCoachMessage(params InsertCoachMessageParams) (*models.Message, error)

	// MarkRepliedOnce atomically claims the "already replied to this
	// message" key for the given triggering message ID. It returns true
	// exactly once per ID; duplicate upstream deliveries get false.
	MarkRepliedOnce(messageID string) (bool, error)
}

// Service реалізує Storage поверх PostgreSQL (GORM) та Redis.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// GetMatch повертає матч за його ID, або nil якщо запис не знайдено.
func (s *Service) GetMatch(id string) (*models.Match, error) {
	var match models.Match

	err := s.DB.Where("id = ?", id).First(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to get match %s: %v", id, err)
		return nil, err
	}
	return &match, nil
}

// GetProfile повертає профіль учасника, або nil якщо запис не знайдено.
func (s *Service) GetProfile(id string) (*models.Profile, error) {
	var profile models.Profile

	err := s.DB.Where("id = ?", id).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to get profile %s: %v", id, err)
		return nil, err
	}
	return &profile, nil
}

// GetRecentMessages повертає останні повідомлення матчу в хронологічному
// порядку (найстаріше перше), з урахуванням фільтрів opts.
func (s *Service) GetRecentMessages(matchID string, limit int, opts RecentMessagesOpts) ([]models.Message, error) {
	var messages []models.Message

	q := s.DB.Where("match_id = ?", matchID)
	if opts.ExcludeSenderRole != "" {
		q = q.Where("sender_role <> ?", opts.ExcludeSenderRole)
	}
	if !opts.IncludeWhispers {
		q = q.Where("is_whisper = ?", false)
	}

	// Вибираємо останні N за часом створення, потім розвертаємо.
	if err := q.Order("created_at desc").Limit(limit).Find(&messages).Error; err != nil {
		log.Printf("ERROR: Failed to get recent messages for match %s: %v", matchID, err)
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// InsertCoachMessage зберігає відповідь коуча. SenderID завжди nil —
// коуч не є учасником.
func (s *Service) InsertCoachMessage(params InsertCoachMessageParams) (*models.Message, error) {
	msg := models.Message{
		MatchID:     params.MatchID,
		SenderID:    nil,
		SenderRole:  params.SenderRole,
		Body:        params.Body,
		Persona:     params.Persona,
		IsWhisper:   params.IsWhisper,
		RecipientID: params.RecipientID,
	}

	if err := s.DB.Create(&msg).Error; err != nil {
		log.Printf("ERROR: Failed to insert coach message for match %s: %v", params.MatchID, err)
		return nil, err
	}
	return &msg, nil
}

// MarkRepliedOnce ставить ключ дедуплікації в Redis через SETNX.
func (s *Service) MarkRepliedOnce(messageID string) (bool, error) {
	key := "glovy:replied:" + messageID
	ok, err := s.Redis.SetNX(s.Ctx, key, "1", config.RepliedKeyTTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}
