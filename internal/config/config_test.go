package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FIREBASE_PROJECT_ID", "musa-test")
	t.Setenv("FIREBASE_DATABASE_URL", "https://musa-test.firebaseio.com")
	t.Setenv("CLIENT_URL", "https://app.example.com")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30, cfg.DeviceTokenTTLMinutes)
	assert.Equal(t, 5, cfg.DeviceRateLimit)
	assert.Equal(t, 24, cfg.DeviceRateWindowHours)
	assert.Equal(t, 7, cfg.InviteTTLDays)
	assert.Equal(t, 8, cfg.AccessCodeLength)
	assert.Equal(t, 50, cfg.GuardActivityListLimit)
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9999")
	t.Setenv("ACCESS_CODE_LENGTH", "10")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 10, cfg.AccessCodeLength)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoadConfigValidation(t *testing.T) {
	t.Run("missing project ID", func(t *testing.T) {
		t.Setenv("FIREBASE_PROJECT_ID", "")
		t.Setenv("FIREBASE_DATABASE_URL", "https://musa-test.firebaseio.com")
		t.Setenv("CLIENT_URL", "https://app.example.com")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "FIREBASE_PROJECT_ID")
	})

	t.Run("missing client URL", func(t *testing.T) {
		t.Setenv("FIREBASE_PROJECT_ID", "musa-test")
		t.Setenv("FIREBASE_DATABASE_URL", "https://musa-test.firebaseio.com")
		t.Setenv("CLIENT_URL", "")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "CLIENT_URL")
	})

	t.Run("code length too short", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("ACCESS_CODE_LENGTH", "4")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "ACCESS_CODE_LENGTH")
	})
}
