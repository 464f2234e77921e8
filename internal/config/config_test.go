package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg := Load()

	assert.NotNil(t, cfg)
	assert.Equal(t, "openai", cfg.InferenceBackend)
	assert.Equal(t, "gpt-4o", cfg.OpenAIModel)
	assert.Equal(t, "log.txt", cfg.LogPath)
	assert.Equal(t, 60*time.Second, cfg.InferenceTimeout)
	assert.NotEmpty(t, cfg.PhotoSpoolDir)
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("INFERENCE_BACKEND", "claude")
	t.Setenv("CLAUDE_API_KEY", "sk-test123")
	t.Setenv("INFERENCE_TIMEOUT", "5s")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("SESSION_MAX_ENTRIES", "50")
	t.Setenv("LOG_PATH", "/tmp/resale.log")

	cfg := Load()

	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, "claude", cfg.InferenceBackend)
	assert.Equal(t, "sk-test123", cfg.ClaudeAPIKey)
	assert.Equal(t, 5*time.Second, cfg.InferenceTimeout)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, 50, cfg.SessionMaxEntries)
	assert.Equal(t, "/tmp/resale.log", cfg.LogPath)
	require.NoError(t, cfg.Validate())
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("INFERENCE_TIMEOUT", "soon")
	t.Setenv("SESSION_MAX_ENTRIES", "-3")

	cfg := Load()

	assert.Equal(t, 60*time.Second, cfg.InferenceTimeout)
	assert.Equal(t, 10000, cfg.SessionMaxEntries)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing bot token",
			cfg:     Config{InferenceBackend: "ollama", SessionBackend: "memory"},
			wantErr: "BOT_TOKEN",
		},
		{
			name:    "openai without key",
			cfg:     Config{BotToken: "t", InferenceBackend: "openai", SessionBackend: "memory"},
			wantErr: "OPENAI_API_KEY",
		},
		{
			name:    "unknown backend",
			cfg:     Config{BotToken: "t", InferenceBackend: "bard", SessionBackend: "memory"},
			wantErr: "INFERENCE_BACKEND",
		},
		{
			name:    "unknown session backend",
			cfg:     Config{BotToken: "t", InferenceBackend: "ollama", SessionBackend: "redis"},
			wantErr: "SESSION_BACKEND",
		},
		{
			name: "ollama needs no key",
			cfg:  Config{BotToken: "t", InferenceBackend: "ollama", SessionBackend: "sqlite"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
