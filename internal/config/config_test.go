package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "HTTP_ADDR", "PAGE_SIZE", "DATABASE_URL", "KAFKA_BROKERS", "ACCESS_TOKEN_TTL", "PASSWORD_RESET_DELAY"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 12, cfg.PageSize)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Nil(t, cfg.KafkaBrokers)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, time.Second, cfg.PasswordResetDelay)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("PAGE_SIZE", "6")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("ACCESS_TOKEN_TTL", "1h")
	t.Setenv("PASSWORD_RESET_DELAY", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 6, cfg.PageSize)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, time.Second, cfg.PasswordResetDelay)
}

func TestLoad_RejectsNonPositivePageSize(t *testing.T) {
	t.Setenv("PAGE_SIZE", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestRequireJWTSecret(t *testing.T) {
	assert.ErrorIs(t, Config{JWTSecret: "short"}.RequireJWTSecret(), ErrWeakJWTSecret)
	assert.NoError(t, Config{JWTSecret: "0123456789abcdef0123456789abcdef"}.RequireJWTSecret())
}
