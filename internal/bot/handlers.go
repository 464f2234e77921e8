package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vbonduro/flipcheck/internal/inference"
)

// User-facing texts. Failures always map to one of these fixed strings; raw
// errors only go to the application log.
const (
	msgAnalyzing      = "🧠 AI analysis in progress..."
	msgResultHeader   = "🔍 AI result:\n\n"
	msgAnalysisFailed = "❌ Error during AI analysis."
	msgGenerating     = "📝 Generating title + description..."
	msgListingHeader  = "📌 Listing title & description:\n\n"
	msgListingFailed  = "❌ Could not generate the description."
	msgSaved          = "💾 Analysis saved to %s."
	msgSaveFailed     = "❌ Could not save the analysis."
	msgReanalyze      = "🔄 Send a new photo to start again!"
	msgSendPhoto      = "📸 Send me a photo for a full AI analysis 🔍"
)

// errPhotoTooLarge rejects downloads over the Bot API size limit instead of
// passing a cut-off image to the model.
var errPhotoTooLarge = errors.New("photo exceeds download limit")

const (
	// maxPhotoSize matches the Bot API download limit.
	maxPhotoSize = 20 * 1024 * 1024
	// maxMessageLength is Telegram's message size limit, in UTF-16 code units.
	maxMessageLength = 4096
)

func (b *Bot) onPhoto(ctx context.Context, msg *tgbotapi.Message, logger *slog.Logger) {
	userID := senderID(msg)
	logger = logger.With("user_id", userID, "chat_id", msg.Chat.ID)

	photo := largestPhoto(msg.Photo)
	body, mimeType, err := b.downloadPhoto(ctx, photo.FileID)
	if err != nil {
		logger.Error("photo download failed", "file_id", photo.FileID, "error", err)
		b.send(tgbotapi.NewMessage(msg.Chat.ID, msgAnalysisFailed), logger)
		return
	}
	defer func() {
		if err := body.Close(); err != nil {
			logger.Error("failed to close photo download", "error", err)
		}
	}()

	b.send(tgbotapi.NewMessage(msg.Chat.ID, msgAnalyzing), logger)

	result, err := b.service.AnalyzePhoto(ctx, userID, &photoReader{r: body, remaining: b.maxPhoto}, mimeType)
	if err != nil {
		logFailure(logger, "photo analysis failed", err)
		b.send(tgbotapi.NewMessage(msg.Chat.ID, msgAnalysisFailed), logger)
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, truncate(msgResultHeader+result))
	reply.ReplyMarkup = actionKeyboard()
	b.send(reply, logger)
}

func (b *Bot) onButton(ctx context.Context, query *tgbotapi.CallbackQuery, logger *slog.Logger) {
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		logger.Error("failed to answer callback", "error", err)
	}

	var userID int64
	if query.From != nil {
		userID = query.From.ID
	}
	logger = logger.With("user_id", userID, "action", query.Data)

	if query.Message == nil {
		logger.Warn("callback without message, nothing to edit")
		return
	}
	chatID, messageID := query.Message.Chat.ID, query.Message.MessageID
	edit := func(text string) {
		b.send(tgbotapi.NewEditMessageText(chatID, messageID, truncate(text)), logger)
	}

	switch query.Data {
	case ActionGenerateListing:
		edit(msgGenerating)
		listing, err := b.service.GenerateListing(ctx, userID)
		if err != nil {
			logFailure(logger, "listing generation failed", err)
			edit(msgListingFailed)
			return
		}
		edit(msgListingHeader + listing)

	case ActionSaveLog:
		if err := b.service.SaveLog(ctx, userID); err != nil {
			logger.Error("saving analysis failed", "error", err)
			edit(msgSaveFailed)
			return
		}
		edit(fmt.Sprintf(msgSaved, b.logName))

	case ActionReanalyze:
		edit(msgReanalyze)

	default:
		logger.Warn("unknown callback action")
	}
}

func (b *Bot) onCommand(msg *tgbotapi.Message, logger *slog.Logger) {
	switch msg.Command() {
	case "start", "help":
		b.send(tgbotapi.NewMessage(msg.Chat.ID, msgSendPhoto), logger)
	default:
		logger.Debug("ignoring command", "command", msg.Command())
	}
}

func (b *Bot) onText(msg *tgbotapi.Message, logger *slog.Logger) {
	b.send(tgbotapi.NewMessage(msg.Chat.ID, msgSendPhoto), logger)
}

// downloadPhoto opens the file behind fileID. The caller closes the body.
func (b *Bot) downloadPhoto(ctx context.Context, fileID string) (io.ReadCloser, string, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, "", fmt.Errorf("file download returned status %d", resp.StatusCode)
	}
	if resp.ContentLength > b.maxPhoto {
		_ = resp.Body.Close()
		return nil, "", fmt.Errorf("%w: %d bytes", errPhotoTooLarge, resp.ContentLength)
	}

	mimeType := "image/jpeg"
	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "image/") {
		mimeType = ct
	}
	return resp.Body, mimeType, nil
}

// largestPhoto picks the highest-resolution size. Telegram lists sizes in
// ascending order, so the last one wins ties.
func largestPhoto(sizes []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := sizes[0]
	for _, p := range sizes[1:] {
		if p.Width*p.Height >= best.Width*best.Height {
			best = p
		}
	}
	return best
}

func senderID(msg *tgbotapi.Message) int64 {
	if msg.From != nil {
		return msg.From.ID
	}
	return msg.Chat.ID
}

func logFailure(logger *slog.Logger, msg string, err error) {
	var infErr *inference.Error
	if errors.As(err, &infErr) {
		logger.Error(msg, "kind", "inference", "backend", infErr.Op, "error", err)
		return
	}
	logger.Error(msg, "kind", "io", "error", err)
}

// photoReader passes through at most remaining bytes and fails with
// errPhotoTooLarge if the source holds more.
type photoReader struct {
	r         io.Reader
	remaining int64
}

func (p *photoReader) Read(buf []byte) (int, error) {
	if p.remaining < 0 {
		return 0, errPhotoTooLarge
	}
	// Read one byte past the limit to detect overflow.
	if int64(len(buf)) > p.remaining+1 {
		buf = buf[:p.remaining+1]
	}
	n, err := p.r.Read(buf)
	p.remaining -= int64(n)
	if p.remaining < 0 {
		return 0, errPhotoTooLarge
	}
	return n, err
}

// truncate cuts text to Telegram's message limit, counted in UTF-16 code
// units, without splitting a character.
func truncate(text string) string {
	if utf16Len(text) <= maxMessageLength {
		return text
	}
	units := 0
	for i, r := range text {
		n := utf16.RuneLen(r)
		if units+n > maxMessageLength-1 {
			return text[:i] + "…"
		}
		units += n
	}
	return text
}

func utf16Len(text string) int {
	units := 0
	for _, r := range text {
		units += utf16.RuneLen(r)
	}
	return units
}
