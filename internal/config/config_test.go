package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "POSTGRES_DSN", "REDIS_ADDR", "KAFKA_BROKERS", "OPENAI_API_KEY", "AUTH_ADMIN_SECRET", "AUTH_ADMIN_SECRET_HASH"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 20*time.Second, cfg.Triage.Timeout())
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Auth.AdminSecretHash)
	assert.Equal(t, "ticket-events", cfg.Kafka.Topic)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("AUTH_ADMIN_SECRET", "s3cret")
	t.Setenv("AUTH_ADMIN_SECRET_HASH", "")
	t.Setenv("TRIAGE_TIMEOUT_SECONDS", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5*time.Second, cfg.Triage.Timeout())
	assert.NoError(t, bcrypt.CompareHashAndPassword(cfg.Auth.AdminSecretHash, []byte("s3cret")))
}

func TestLoad_RejectsBadInput(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("REDIS_DB", "0")
	t.Setenv("AUTH_ADMIN_SECRET_HASH", "not-a-bcrypt-hash")
	_, err = Load()
	assert.Error(t, err)
}
