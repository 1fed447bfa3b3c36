package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds settings shared by the storefront binaries
type Config struct {
	AppEnv   string
	LogLevel string

	HTTPAddr    string
	WebDir      string
	CatalogFile string
	PageSize    int

	DatabaseURL  string
	KafkaBrokers []string
	KafkaTopic   string

	JWTSecret          string
	AccessTokenTTL     time.Duration
	PasswordResetDelay time.Duration

	SMTPHost string
	SMTPPort string
	SMTPFrom string
}

var ErrWeakJWTSecret = errors.New("JWT_SECRET must be at least 32 characters long")

// Load reads an optional .env file and then the environment.
// DATABASE_URL and KAFKA_BROKERS stay empty unless set: the API then runs on in-memory stores.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppEnv:      getEnv("APP_ENV", "dev"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		WebDir:      os.Getenv("WEB_DIR"),
		CatalogFile: os.Getenv("CATALOG_FILE"),
		PageSize:    getEnvInt("PAGE_SIZE", 12),

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "storefront-events"),

		JWTSecret:          os.Getenv("JWT_SECRET"),
		AccessTokenTTL:     getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		PasswordResetDelay: getEnvDuration("PASSWORD_RESET_DELAY", time.Second),

		SMTPHost: getEnv("SMTP_HOST", "localhost"),
		SMTPPort: getEnv("SMTP_PORT", "1025"),
		SMTPFrom: getEnv("SMTP_FROM", "noreply@example.com"),
	}

	if cfg.PageSize < 1 {
		return cfg, fmt.Errorf("PAGE_SIZE must be positive, got %d", cfg.PageSize)
	}
	return cfg, nil
}

// RequireJWTSecret validates the signing secret for binaries that issue tokens
func (c Config) RequireJWTSecret() error {
	if len(c.JWTSecret) < 32 {
		return ErrWeakJWTSecret
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
