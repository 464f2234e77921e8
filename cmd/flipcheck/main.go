package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/joho/godotenv/autoload"

	"github.com/vbonduro/flipcheck/internal/bot"
	"github.com/vbonduro/flipcheck/internal/config"
	"github.com/vbonduro/flipcheck/internal/db"
	"github.com/vbonduro/flipcheck/internal/inference"
	claudeinference "github.com/vbonduro/flipcheck/internal/inference/claude"
	ollamainference "github.com/vbonduro/flipcheck/internal/inference/ollama"
	openaiinference "github.com/vbonduro/flipcheck/internal/inference/openai"
	"github.com/vbonduro/flipcheck/internal/logging"
	"github.com/vbonduro/flipcheck/internal/logsink"
	"github.com/vbonduro/flipcheck/internal/photostore/local"
	"github.com/vbonduro/flipcheck/internal/service"
	"github.com/vbonduro/flipcheck/internal/session"
	"github.com/vbonduro/flipcheck/internal/session/memory"
	"github.com/vbonduro/flipcheck/internal/store"
	"github.com/vbonduro/flipcheck/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, closeSessions, err := newSessionStore(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize session store", "error", err)
		return
	}
	defer closeSessions()

	spool, err := local.NewSpool(cfg.PhotoSpoolDir)
	if err != nil {
		logger.Error("failed to initialize photo spool", "error", err)
		return
	}

	client, err := newInferenceClient(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize inference backend", "error", err)
		return
	}

	svc := service.NewResaleService(
		client,
		sessions,
		logsink.NewFileSink(cfg.LogPath),
		spool,
		cfg.InferenceTimeout,
		logger,
	)
	if n, err := svc.PurgeSpool(); err != nil {
		logger.Error("failed to purge photo spool", "error", err)
	} else if n > 0 {
		logger.Info("purged leftover spooled photos", "count", n)
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Error("failed to create telegram client", "error", err)
		return
	}
	logger.Info("authorized on telegram", "username", api.Self.UserName)

	if cfg.HealthAddr != "" {
		go func() {
			if err := web.NewServer(svc, logger).ListenAndServe(ctx, cfg.HealthAddr); err != nil {
				logger.Error("health server error", "error", err)
			}
		}()
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	b := bot.New(api, svc, filepath.Base(cfg.LogPath), logger)
	if err := b.Run(ctx, updates); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("bot error", "error", err)
	}
	logger.Info("bot stopped")
}

func newInferenceClient(cfg *config.Config, logger *slog.Logger) (inference.Client, error) {
	switch cfg.InferenceBackend {
	case "claude":
		logger.Info("using Claude inference backend", "model", cfg.ClaudeModel)
		return claudeinference.NewClient(cfg.ClaudeAPIKey, cfg.ClaudeModel), nil
	case "ollama":
		logger.Info("using Ollama inference backend", "model", cfg.OllamaModel)
		return ollamainference.NewClient(cfg.OllamaHost, cfg.OllamaModel)
	default:
		logger.Info("using OpenAI inference backend", "model", cfg.OpenAIModel)
		return openaiinference.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
	}
}

func newSessionStore(cfg *config.Config, logger *slog.Logger) (session.Store, func(), error) {
	if cfg.SessionBackend != "sqlite" {
		logger.Info("using in-memory session store", "ttl", cfg.SessionTTL.String(), "max_entries", cfg.SessionMaxEntries)
		return memory.NewStore(cfg.SessionMaxEntries, cfg.SessionTTL), func() {}, nil
	}

	database, err := db.Open(cfg.SessionDBPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("using sqlite session store", "path", cfg.SessionDBPath, "ttl", cfg.SessionTTL.String())
	return store.NewSessionStore(database, cfg.SessionMaxEntries, cfg.SessionTTL), closeDB(database, logger), nil
}

func closeDB(database *sql.DB, logger *slog.Logger) func() {
	return func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}
}
