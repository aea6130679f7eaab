package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BusySourceDB     = "db"
	BusySourceGoogle = "google"
)

type Config struct {
	Environment string
	LogLevel    string
	HTTPAddr    string
	DBDSN       string
	JWTSecret   string

	TelegramToken string
	PublicBaseURL string

	SendGridAPIKey string
	EmailFrom      string
	EmailFromName  string

	EnrichmentAPIKey  string
	EnrichmentBaseURL string
	EnrichmentModel   string

	GoogleCalendarBaseURL string
	BusySource            string

	DefaultTimezone *time.Location

	SideEffectWait     time.Duration
	SideEffectTimeout  time.Duration
	CompletionSchedule string
}

// Load читает конфигурацию из .env (если есть) и переменных окружения
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg := &Config{
		Environment:           getEnv("ENV", "development"),
		LogLevel:              os.Getenv("LOG_LEVEL"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		DBDSN:                 os.Getenv("DB_DSN"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		TelegramToken:         os.Getenv("TELEGRAM_TOKEN"),
		PublicBaseURL:         os.Getenv("PUBLIC_BASE_URL"),
		SendGridAPIKey:        os.Getenv("SENDGRID_API_KEY"),
		EmailFrom:             getEnv("EMAIL_FROM", "no-reply@example.com"),
		EmailFromName:         getEnv("EMAIL_FROM_NAME", "Advisor Scheduler"),
		EnrichmentAPIKey:      os.Getenv("ENRICHMENT_API_KEY"),
		EnrichmentBaseURL:     os.Getenv("ENRICHMENT_BASE_URL"),
		EnrichmentModel:       os.Getenv("ENRICHMENT_MODEL"),
		GoogleCalendarBaseURL: os.Getenv("GOOGLE_CALENDAR_BASE_URL"),
		BusySource:            strings.ToLower(getEnv("BUSY_SOURCE", BusySourceDB)),
		CompletionSchedule:    getEnv("COMPLETION_SCHEDULE", "*/15 * * * *"),
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	if cfg.BusySource != BusySourceDB && cfg.BusySource != BusySourceGoogle {
		return nil, fmt.Errorf("BUSY_SOURCE must be %q or %q, got %q", BusySourceDB, BusySourceGoogle, cfg.BusySource)
	}

	loc, err := time.LoadLocation(getEnv("DEFAULT_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("parse DEFAULT_TIMEZONE: %w", err)
	}
	cfg.DefaultTimezone = loc

	if cfg.SideEffectWait, err = getDuration("SIDE_EFFECT_WAIT", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.SideEffectTimeout, err = getDuration("SIDE_EFFECT_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	log.Printf("Config loaded (env=%s, busy_source=%s)\n", cfg.Environment, cfg.BusySource)

	return cfg, nil
}

// TelegramEnabled бот и уведомления в Telegram включены
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}

// EmailEnabled email уведомления включены
func (c *Config) EmailEnabled() bool {
	return c.SendGridAPIKey != ""
}

// EnrichmentEnabled обогащение ответов включено
func (c *Config) EnrichmentEnabled() bool {
	return c.EnrichmentAPIKey != ""
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
