package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
}

// BackendConfig describes the REST/Socket service every page talks to.
type BackendConfig struct {
	BaseURL   string
	SocketURL string
	Timeout   time.Duration
	PerPage   int
}

type SessionConfig struct {
	Secret       string
	CSRFKey      string
	CookieSecure bool
}

type ChatConfig struct {
	ReconnectMaxElapsed time.Duration
	DedupeTTL           time.Duration
}

type Config struct {
	Repositories RepositoriesConfig
	Backend      BackendConfig
	Session      SessionConfig
	Chat         ChatConfig
	AuditEnabled bool
	ServerPort   string
	MetricsAddr  string
	PprofAddr    string
	OTLPEndpoint string
	LogLevel     string
}

func Load() (*Config, error) {
	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5454"),
				DB:       getEnvOrDefault("POSTGRES_DB", "mixdesk_admin"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: 10,
				MinConns: 2,
			},
		},
		Backend: BackendConfig{
			BaseURL:   strings.TrimRight(getEnvOrDefault("BACKEND_BASE_URL", ""), "/"),
			SocketURL: getEnvOrDefault("BACKEND_SOCKET_URL", ""),
			Timeout:   getDurationOrDefault("BACKEND_TIMEOUT", 15*time.Second),
			PerPage:   clampPerPage(getIntOrDefault("PER_PAGE", defaultPerPage)),
		},
		Session: SessionConfig{
			Secret:       getEnvOrDefault("SESSION_SECRET", "change-me-session-secret-32-bytes!"),
			CSRFKey:      getEnvOrDefault("CSRF_KEY", "change-me-csrf-key-with-32-bytes!!"),
			CookieSecure: getBoolOrDefault("COOKIE_SECURE", false),
		},
		Chat: ChatConfig{
			ReconnectMaxElapsed: getDurationOrDefault("CHAT_RECONNECT_MAX", 2*time.Minute),
			DedupeTTL:           getDurationOrDefault("CHAT_DEDUPE_TTL", 10*time.Minute),
		},
		AuditEnabled: getBoolOrDefault("AUDIT_DB_ENABLED", false),
		ServerPort:   getEnvOrDefault("SERVER_PORT", "8091"),
		MetricsAddr:  getEnvOrDefault("METRICS_ADDR", ":9092"),
		PprofAddr:    getEnvOrDefault("PPROF_ADDR", ":6060"),
		OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("BACKEND_BASE_URL environment variable is required")
	}
	if cfg.Backend.SocketURL == "" {
		cfg.Backend.SocketURL = socketURLFromBase(cfg.Backend.BaseURL)
	}

	if cfg.AuditEnabled && cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required when AUDIT_DB_ENABLED is set")
	}

	return cfg, nil
}

// socketURLFromBase derives ws(s)://host/socket from the REST base URL.
func socketURLFromBase(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + hostOf(strings.TrimPrefix(base, "https://")) + "/socket"
	case strings.HasPrefix(base, "http://"):
		return "ws://" + hostOf(strings.TrimPrefix(base, "http://")) + "/socket"
	default:
		return base
	}
}

func hostOf(rest string) string {
	if i := strings.Index(rest, "/"); i >= 0 {
		return rest[:i]
	}
	return rest
}

func clampPerPage(n int) int {
	if n < 1 {
		return defaultPerPage
	}
	if n > maxPerPage {
		return maxPerPage
	}
	return n
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
