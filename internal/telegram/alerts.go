// Package telegram pushes escalation notices to a human moderator chat.
// The service is optional: when no bot token is configured the pipeline
// runs without it.
package telegram

import (
	"fmt"
	"log"

	"glovy/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AlertService sends moderator notifications through the Telegram Bot API.
type AlertService struct {
	BotAPI *tgbotapi.BotAPI
	ChatID int64
}

// NewAlertService creates the service and verifies the bot token.
func NewAlertService(token string, chatID int64) (*AlertService, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	log.Printf("✅ Authorized on account %s", bot.Self.UserName)

	return &AlertService{
		BotAPI: bot,
		ChatID: chatID,
	}, nil
}

// NotifyEscalation posts a high-urgency notice to the moderator chat.
// Errors are logged and swallowed: alerting never affects the pipeline.
func (s *AlertService) NotifyEscalation(matchID string, trigger models.Trigger, tier string) {
	text := fmt.Sprintf("⚠️ Escalation in match %s\nTrigger: %s\nTier: %s", matchID, trigger, tier)

	msg := tgbotapi.NewMessage(s.ChatID, text)
	if _, err := s.BotAPI.Send(msg); err != nil {
		log.Printf("WARNING: Failed to send escalation alert for match %s: %v", matchID, err)
	}
}
