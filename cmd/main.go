package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"glovy/backend/internal/api/handler"
	"glovy/backend/internal/broadcast"
	"glovy/backend/internal/coach"
	"glovy/backend/internal/config"
	"glovy/backend/internal/llm"
	"glovy/backend/internal/models"
	"glovy/backend/internal/realtime"
	"glovy/backend/internal/storage"
	"glovy/backend/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	// 1. PostgreSQL
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	// 2. Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	// Перевірка з'єднання Redis
	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	// 3. Міграції (Створення таблиць)
	err = db.AutoMigrate(
		&models.Match{},
		&models.Profile{},
		&models.Message{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting Glovy Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Ініціалізація залежностей
	db, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db, rdb)
	b := broadcast.NewService(rdb)

	gemini, err := llm.NewClient(ctx, cfg.GoogleAPIKey)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}

	// 2. Ініціалізація пайплайна коуча
	processor := coach.NewProcessor(s, b, gemini, gemini, cfg)

	if cfg.TelegramBotToken != "" && cfg.TelegramModChatID != 0 {
		alerts, err := telegram.NewAlertService(cfg.TelegramBotToken, cfg.TelegramModChatID)
		if err != nil {
			log.Printf("WARNING: Failed to start Telegram alerts: %v", err)
		} else {
			processor.SetNotifier(alerts)
		}
	}

	// 3. Realtime-підписка та запуск основних Goroutines
	supervisor := realtime.NewSupervisor(cfg)
	if err := supervisor.Start(ctx); err != nil {
		log.Fatalf("Failed to start realtime subscription: %v", err)
	}
	defer supervisor.Stop()

	go processor.Run(ctx, supervisor.Events())

	// 4. Налаштування Gin та роутингу
	r := gin.Default()
	h := handler.NewHandler(processor, supervisor, cfg.JWTSecret)

	// Роути
	r.GET("/health", h.Health)
	r.GET("/api/v1/token", h.GetToken)
	r.POST("/api/v1/whisper", h.RequestWhisper)

	// Запуск HTTP-сервера
	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: HTTP server shutdown: %v", err)
	}
}
