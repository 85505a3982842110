package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"legalbridge.app/bridge/core/db"
)

// Config is built once at process start and passed explicitly into each
// component; core logic never reads the environment.
type Config struct {
	OTel    OTelConfig
	Jira    JiraConfig
	Notion  NotionConfig
	Webhook WebhookConfig
	Dedupe  DedupeConfig
	Env     string
	Port    string
	DB      db.Config
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type JiraConfig struct {
	Domain      string
	Email       string
	APIToken    string
	ProjectKey  string
	IssueType   string
	MaxAttempts int
}

type NotionConfig struct {
	APIKey string
}

type WebhookConfig struct {
	// TriggerStatus is the exact, case-sensitive status label that causes
	// ticket creation.
	TriggerStatus string
	// Secret, when set, must match the X-Bridge-Token header on every delivery.
	Secret string
}

type DedupeConfig struct {
	// RedisURL empty means the in-process guard; fine for a single replica,
	// required for anything more.
	RedisURL   string
	ReserveTTL time.Duration
	ConfirmTTL time.Duration
}

// Load loads configuration from environment variables. In development it
// first loads .env via godotenv.
func Load() (Config, error) {
	if getEnv("BRIDGE_ENV", "development") == "development" {
		_ = godotenv.Load(".env")
	}

	cfg := Config{
		Env:  getEnv("BRIDGE_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		DB: db.Config{
			DSN:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvInt32("DB_MAX_CONNS", 10),
			MinConns: getEnvInt32("DB_MIN_CONNS", 2),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "bridge"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		Jira: JiraConfig{
			Domain:      getEnv("JIRA_DOMAIN", ""),
			Email:       getEnv("JIRA_EMAIL", ""),
			APIToken:    getEnv("JIRA_API_TOKEN", ""),
			ProjectKey:  getEnv("JIRA_PROJECT_KEY", "MKTG"),
			IssueType:   getEnv("JIRA_ISSUE_TYPE", "Task"),
			MaxAttempts: getEnvInt("JIRA_MAX_ATTEMPTS", 3),
		},
		Notion: NotionConfig{
			APIKey: getEnv("NOTION_API_KEY", ""),
		},
		Webhook: WebhookConfig{
			TriggerStatus: getEnv("TRIGGER_STATUS", "Ready for Legal Review"),
			Secret:        getEnv("WEBHOOK_SECRET", ""),
		},
		Dedupe: DedupeConfig{
			RedisURL:   getEnv("REDIS_URL", ""),
			ReserveTTL: getEnvDuration("DEDUPE_RESERVE_TTL", 2*time.Minute),
			ConfirmTTL: time.Duration(getEnvInt("DEDUPE_TTL_HOURS", 72)) * time.Hour,
		},
	}

	if cfg.Jira.Domain == "" || cfg.Jira.Email == "" || cfg.Jira.APIToken == "" {
		return Config{}, fmt.Errorf("JIRA_DOMAIN, JIRA_EMAIL, and JIRA_API_TOKEN are required")
	}
	if cfg.Webhook.TriggerStatus == "" {
		return Config{}, fmt.Errorf("TRIGGER_STATUS must not be empty")
	}
	// Never expire inside the window of plausible duplicate deliveries.
	if cfg.Dedupe.ConfirmTTL < time.Hour {
		return Config{}, fmt.Errorf("DEDUPE_TTL_HOURS must be at least 1")
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c NotionConfig) Enabled() bool {
	return c.APIKey != ""
}

func (c Config) AuditEnabled() bool {
	return c.DB.DSN != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
