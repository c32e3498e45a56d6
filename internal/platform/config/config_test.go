package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("STEWARD_ADDR", "")
	t.Setenv("JWT_SIGNING_KEY", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("AUDIT_RETENTION", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, DevSigningKey, cfg.JWTSigningKey)
	assert.Equal(t, 365*24*time.Hour, cfg.Audit.Retention)
	assert.Equal(t, 5*time.Second, cfg.TxTimeout)
	assert.Equal(t, "stewardship.audit.entries", cfg.Kafka.AuditTopic)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("AUDIT_RETENTION", "90d")
	t.Setenv("GROUP_EXPIRY_INTERVAL", "1m")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,192.168.0.0/16")
	t.Setenv("KAFKA_RETRIES", "7")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 90*24*time.Hour, cfg.Audit.Retention)
	assert.Equal(t, time.Minute, cfg.Groups.ExpiryInterval)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.0.0/16"}, cfg.TrustedProxies)
	assert.Equal(t, 7, cfg.Kafka.Retries)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("AUDIT_RETENTION", "forever")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "AUDIT_RETENTION")
}

func TestFromEnvRequiresKeyInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SIGNING_KEY", "")
	_, err := FromEnv()
	assert.Error(t, err)
}
