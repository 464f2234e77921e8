// Package bot routes Telegram updates to the resale service.
package bot

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vbonduro/flipcheck/internal/logging"
)

// Action tags carried in inline button callback data.
const (
	ActionGenerateListing = "gen_description"
	ActionSaveLog         = "save_log"
	ActionReanalyze       = "reanalyze"
)

// messenger is the subset of *tgbotapi.BotAPI the router uses.
type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// resaleService is the subset of service.ResaleService the router uses.
type resaleService interface {
	AnalyzePhoto(ctx context.Context, userID int64, r io.Reader, mimeType string) (string, error)
	GenerateListing(ctx context.Context, userID int64) (string, error)
	SaveLog(ctx context.Context, userID int64) error
}

type Bot struct {
	api        messenger
	service    resaleService
	httpClient *http.Client
	maxPhoto   int64
	logName    string
	logger     *slog.Logger
	wg         sync.WaitGroup
}

// New returns a router. logName is the log file name shown to users after a
// successful save.
func New(api messenger, svc resaleService, logName string, logger *slog.Logger) *Bot {
	return &Bot{
		api:        api,
		service:    svc,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		maxPhoto:   maxPhotoSize,
		logName:    logName,
		logger:     logger,
	}
}

// Run handles updates until ctx is cancelled or the channel closes. Each
// update runs on its own goroutine; Run waits for in-flight handlers before
// returning.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	b.logger.Info("bot started, waiting for messages")
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	logger := logging.ForUpdate(b.logger, update.UpdateID)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panicked", "panic", r)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.onButton(ctx, update.CallbackQuery, logger)
	case update.Message != nil && len(update.Message.Photo) > 0:
		b.onPhoto(ctx, update.Message, logger)
	case update.Message != nil && update.Message.IsCommand():
		b.onCommand(update.Message, logger)
	case update.Message != nil && update.Message.Text != "":
		b.onText(update.Message, logger)
	}
}

// send delivers c and logs any API error. Telegram failures never abort a
// handler midway.
func (b *Bot) send(c tgbotapi.Chattable, logger *slog.Logger) {
	if _, err := b.api.Send(c); err != nil {
		logger.Error("failed to send telegram message", "error", err)
	}
}

// actionKeyboard is the three-button follow-up shown under every analysis.
func actionKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📌 Generate listing", ActionGenerateListing)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("💾 Save to log", ActionSaveLog)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔄 Reanalyze", ActionReanalyze)),
	)
}
