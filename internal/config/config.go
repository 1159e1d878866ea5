package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// Reconnect supervisor
	InitialReconnectDelay = 5 * time.Second
	MaxReconnectDelay     = 300 * time.Second
	HealthCheckInterval   = 30 * time.Second

	// Dispatch
	HistoryLimit          = 20
	CoachCooldownLookback = 3
	ResponseSoftBudget    = 3 * time.Second
	EventQueueSize        = 256

	// Dedup
	RepliedKeyTTL = 24 * time.Hour
)

// Config holds everything read from the environment at startup.
type Config struct {
	Environment string

	DatabaseDSN   string
	RedisAddr     string
	RedisPassword string

	// Realtime message feed (websocket).
	RealtimeURL string
	RealtimeKey string

	GoogleAPIKey string

	// Persona is the coach's sender role on persisted messages.
	Persona string
	// MinMessages is the minimum history length before the coach responds
	// to non-high-priority triggers in the live phase.
	MinMessages int
	// TemplateTriggers lists the trigger labels served from the template
	// bank instead of the generator. The boundary is still being tuned,
	// hence configurable.
	TemplateTriggers []string

	JWTSecret string

	TelegramBotToken  string
	TelegramModChatID int64

	Port string
}

// Load читає конфігурацію з оточення, підставляючи значення за замовчуванням.
func Load() *Config {
	cfg := &Config{
		Environment:      getEnv("ENVIRONMENT", "development"),
		DatabaseDSN:      getEnv("DATABASE_DSN", "host=localhost user=user password=password dbname=glovydb port=5432 sslmode=disable"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6380"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RealtimeURL:      getEnv("REALTIME_URL", "ws://localhost:4000/realtime/v1/websocket"),
		RealtimeKey:      os.Getenv("REALTIME_KEY"),
		GoogleAPIKey:     os.Getenv("GOOGLE_API_KEY"),
		Persona:          getEnv("GLOVY_PERSONA", "Glovy"),
		MinMessages:      getEnvInt("GLOVY_MIN_MESSAGES", 2),
		JWTSecret:        getEnv("JWT_SECRET", "YOUR_ULTRA_SECRET_KEY_HERE"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		Port:             getEnv("PORT", "8080"),
	}

	if raw := os.Getenv("GLOVY_TEMPLATE_TRIGGERS"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				cfg.TemplateTriggers = append(cfg.TemplateTriggers, t)
			}
		}
	}

	if raw := os.Getenv("TELEGRAM_MOD_CHAT_ID"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			cfg.TelegramModChatID = id
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
