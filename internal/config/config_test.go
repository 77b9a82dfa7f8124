package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ADMISSION_MAX_PER_DAY", "")
	t.Setenv("ADMISSION_BACKEND", "")
	t.Setenv("AUTH_ENABLED", "")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "")
	t.Setenv("REDIS_DB", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Admission.MaxPerDay)
	assert.Equal(t, AdmissionBackendMemory, cfg.Admission.Backend)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ADMISSION_MAX_PER_DAY", "12")
	t.Setenv("ADMISSION_BACKEND", "REDIS")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_HOST", "")
	t.Setenv("REDIS_DB", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Admission.MaxPerDay)
	assert.Equal(t, AdmissionBackendRedis, cfg.Admission.Backend)
	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")
	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{Admission: AdmissionConfig{MaxPerDay: 5, Backend: AdmissionBackendMemory}}
	}

	require.NoError(t, base().Validate())

	cfg := base()
	cfg.Admission.MaxPerDay = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Admission.Backend = AdmissionBackendRedis
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Admission.Backend = "etcd"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Auth.Enabled = true
	cfg.Auth.StaffEmail = "ops@porto.pt"
	assert.Error(t, cfg.Validate())
}

func TestDurations(t *testing.T) {
	assert.Equal(t, time.Duration(0), AppConfig{}.RequestTimeout())
	assert.Equal(t, 72*time.Hour, AdmissionConfig{KeyTTLHours: 72}.KeyTTL())
	assert.Equal(t, time.Hour, GeoConfig{}.TTL())
	assert.Equal(t, 10*time.Minute, GeoConfig{TTLMinutes: 10}.TTL())
	assert.Equal(t, time.Duration(0), RateLimitConfig{}.IdleTTL())
	assert.Equal(t, 90*time.Second, RateLimitConfig{IdleSeconds: 90}.IdleTTL())
}
