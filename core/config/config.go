package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env             string
	Port            string
	OTel            OTelConfig
	GitLab          GitLabConfig
	Asana           AsanaConfig
	Audit           AuditConfig
	UserMap         string
	UpstreamTimeout time.Duration
}

type GitLabConfig struct {
	WebhookSecret string
	APIToken      string
	BaseURL       string
	ProjectID     int
	ProjectPath   string
}

type AsanaConfig struct {
	// WebhookSecret is the secret Asana delivers during the webhook
	// handshake. When set, ordinary deliveries are verified against the
	// X-Hook-Signature header. Empty disables verification.
	WebhookSecret string
	Token         string
	BaseURL       string
	ProjectGID    string
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type AuditConfig struct {
	RedisURL string
	Stream   string
}

// Load loads configuration from environment variables.
// In development it falls back to a .env file in the working directory.
func Load() (Config, error) {
	if getEnv("RELAY_ENV", "development") == "development" {
		_ = godotenv.Load(".env")
	}

	cfg := Config{
		Env:  getEnv("RELAY_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "tasklink-relay"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		GitLab: GitLabConfig{
			WebhookSecret: getEnv("GITLAB_WEBHOOK_SECRET", ""),
			APIToken:      getEnv("GITLAB_API_TOKEN", ""),
			BaseURL:       getEnv("GITLAB_BASE_URL", "https://gitlab.com"),
			ProjectID:     getEnvInt("GITLAB_PROJECT_ID", 0),
			ProjectPath:   getEnv("GITLAB_PROJECT_PATH", ""),
		},
		Asana: AsanaConfig{
			WebhookSecret: getEnv("ASANA_WEBHOOK_SECRET", ""),
			Token:         getEnv("ASANA_TOKEN", ""),
			BaseURL:       getEnv("ASANA_BASE_URL", "https://app.asana.com/api/1.0"),
			ProjectGID:    getEnv("ASANA_PROJECT_GID", ""),
		},
		Audit: AuditConfig{
			RedisURL: getEnv("AUDIT_REDIS_URL", ""),
			Stream:   getEnv("AUDIT_REDIS_STREAM", "relay_deliveries"),
		},
		UserMap:         getEnv("GITLAB_TO_ASANA_USER_MAP", "{}"),
		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second),
	}

	if cfg.GitLab.WebhookSecret == "" {
		return Config{}, fmt.Errorf("GITLAB_WEBHOOK_SECRET is required")
	}
	if cfg.GitLab.APIToken == "" {
		return Config{}, fmt.Errorf("GITLAB_API_TOKEN is required")
	}
	if cfg.GitLab.ProjectID == 0 {
		return Config{}, fmt.Errorf("GITLAB_PROJECT_ID is required")
	}
	if cfg.GitLab.ProjectPath == "" {
		return Config{}, fmt.Errorf("GITLAB_PROJECT_PATH is required")
	}
	if cfg.Asana.Token == "" {
		return Config{}, fmt.Errorf("ASANA_TOKEN is required")
	}
	if cfg.Asana.ProjectGID == "" {
		return Config{}, fmt.Errorf("ASANA_PROJECT_GID is required")
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

func (c AuditConfig) Enabled() bool {
	return c.RedisURL != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
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
