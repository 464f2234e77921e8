package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	BotToken          string
	InferenceBackend  string
	InferenceTimeout  time.Duration
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	ClaudeAPIKey      string
	ClaudeModel       string
	OllamaHost        string
	OllamaModel       string
	SessionBackend    string
	SessionDBPath     string
	SessionTTL        time.Duration
	SessionMaxEntries int
	LogPath           string
	PhotoSpoolDir     string
	HealthAddr        string
	LogLevel          string
	LogFile           string
}

func Load() *Config {
	return &Config{
		BotToken:          getEnv("BOT_TOKEN", ""),
		InferenceBackend:  getEnv("INFERENCE_BACKEND", "openai"),
		InferenceTimeout:  getDuration("INFERENCE_TIMEOUT", 60*time.Second),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		ClaudeAPIKey:      getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:       getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),
		OllamaHost:        getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:       getEnv("OLLAMA_MODEL", "llava"),
		SessionBackend:    getEnv("SESSION_BACKEND", "memory"),
		SessionDBPath:     getEnv("SESSION_DB_PATH", ":memory:"),
		SessionTTL:        getDuration("SESSION_TTL", 24*time.Hour),
		SessionMaxEntries: getInt("SESSION_MAX_ENTRIES", 10000),
		LogPath:           getEnv("LOG_PATH", "log.txt"),
		PhotoSpoolDir:     getEnv("PHOTO_SPOOL_DIR", filepath.Join(os.TempDir(), "flipcheck")),
		HealthAddr:        getEnv("HEALTH_ADDR", ""),
		LogLevel:          getEnv("APP_LOG_LEVEL", "info"),
		LogFile:           getEnv("APP_LOG_FILE", ""),
	}
}

// Validate reports missing credentials for the selected backends.
func (c *Config) Validate() error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, errors.New("BOT_TOKEN is required"))
	}
	switch c.InferenceBackend {
	case "openai":
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required when INFERENCE_BACKEND=openai"))
		}
	case "claude":
		if c.ClaudeAPIKey == "" {
			errs = append(errs, errors.New("CLAUDE_API_KEY is required when INFERENCE_BACKEND=claude"))
		}
	case "ollama":
	default:
		errs = append(errs, fmt.Errorf("unknown INFERENCE_BACKEND %q", c.InferenceBackend))
	}
	switch c.SessionBackend {
	case "memory", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func getInt(key string, defaultVal int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}
