package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, "change-me", cfg.JWTSecret)
	assert.Equal(t, "http://localhost:8080", cfg.SiteURL)
	assert.Equal(t, 72*time.Hour, cfg.ActivationTokenTTL)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.False(t, cfg.ResetDB)
}

func TestFromViper_Environment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ACTIVATION_TOKEN_TTL", "1h")
	t.Setenv("RESET_DB", "true")

	v := viper.New()
	v.AutomaticEnv()
	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "secret", cfg.JWTSecret)
	assert.Equal(t, time.Hour, cfg.ActivationTokenTTL)
	assert.True(t, cfg.ResetDB)
}

func TestLoad(t *testing.T) {
	t.Setenv("SITE_URL", "https://ideas.example.com")

	cfg := Load()
	assert.Equal(t, "https://ideas.example.com", cfg.SiteURL)
}
