package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vbonduro/flipcheck/internal/inference"
	"github.com/vbonduro/flipcheck/internal/logsink"
	"github.com/vbonduro/flipcheck/internal/photostore"
	"github.com/vbonduro/flipcheck/internal/session"
)

// NoAnalysisPlaceholder stands in for the analysis when a user presses a
// button without a live session entry. It is sent to the model or written to
// the log exactly like a real analysis.
const NoAnalysisPlaceholder = "No analysis available."

// logAppender is the subset of logsink.FileSink that ResaleService requires.
type logAppender interface {
	Append(ctx context.Context, e logsink.Entry) error
}

type ResaleService struct {
	client   inference.Client
	sessions session.Store
	locks    *session.Locker
	sink     logAppender
	photos   photostore.Spool
	timeout  time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewResaleService(
	client inference.Client,
	sessions session.Store,
	sink logAppender,
	photos photostore.Spool,
	timeout time.Duration,
	logger *slog.Logger,
) *ResaleService {
	return &ResaleService{
		client:   client,
		sessions: sessions,
		locks:    session.NewLocker(),
		sink:     sink,
		photos:   photos,
		timeout:  timeout,
		now:      time.Now,
		logger:   logger,
	}
}

// PurgeSpool clears photos left behind by an earlier run.
func (s *ResaleService) PurgeSpool() (int, error) {
	n, err := s.photos.Purge()
	if err != nil {
		return n, fmt.Errorf("failed to purge photo spool: %w", err)
	}
	return n, nil
}

// AnalyzePhoto spools the photo, sends it to the model and, on success,
// replaces the user's session entry with the returned text. On any failure the
// session is left untouched. The spooled file is always removed.
func (s *ResaleService) AnalyzePhoto(ctx context.Context, userID int64, r io.Reader, mimeType string) (string, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	imageData, mimeType, err := s.spool(ctx, userID, r, mimeType)
	if err != nil {
		return "", err
	}

	s.logger.Info("image analysis started", "user_id", userID, "bytes", len(imageData))
	text, err := s.complete(ctx, inference.AnalyzeImageRequest(imageData, mimeType))
	if err != nil {
		return "", fmt.Errorf("failed to analyze image: %w", err)
	}

	if err := s.sessions.Put(ctx, userID, text); err != nil {
		return "", fmt.Errorf("failed to store analysis: %w", err)
	}
	s.logger.Info("image analysis complete", "user_id", userID, "chars", len(text))
	return text, nil
}

// spool writes the photo to scoped temporary storage and reads it back,
// deleting the file before returning.
func (s *ResaleService) spool(ctx context.Context, userID int64, r io.Reader, mimeType string) ([]byte, string, error) {
	key, err := s.photos.Save(ctx, fmt.Sprintf("user_%d", userID), mimeType, r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to spool photo: %w", err)
	}
	defer func() {
		if err := s.photos.Delete(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Error("failed to delete spooled photo", "storage_key", key, "error", err)
		}
	}()

	rc, storedMIME, err := s.photos.Get(ctx, key)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open spooled photo: %w", err)
	}
	defer func() {
		if err := rc.Close(); err != nil {
			s.logger.Error("failed to close spooled photo", "storage_key", key, "error", err)
		}
	}()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read spooled photo: %w", err)
	}
	return data, storedMIME, nil
}

// GenerateListing asks the model for a listing title and description based on
// the user's last analysis. The session entry is not modified.
func (s *ResaleService) GenerateListing(ctx context.Context, userID int64) (string, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	analysis, err := s.analysis(ctx, userID)
	if err != nil {
		return "", err
	}

	s.logger.Info("listing generation started", "user_id", userID)
	text, err := s.complete(ctx, inference.ListingRequest(analysis))
	if err != nil {
		return "", fmt.Errorf("failed to generate listing: %w", err)
	}
	return text, nil
}

// SaveLog appends the user's last analysis, or the placeholder, to the log
// file with the current local time.
func (s *ResaleService) SaveLog(ctx context.Context, userID int64) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	analysis, err := s.analysis(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.sink.Append(ctx, logsink.Entry{Time: s.now(), Text: analysis}); err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	s.logger.Info("analysis saved", "user_id", userID)
	return nil
}

// Analysis returns the user's last analysis or NoAnalysisPlaceholder.
func (s *ResaleService) Analysis(ctx context.Context, userID int64) (string, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.analysis(ctx, userID)
}

func (s *ResaleService) analysis(ctx context.Context, userID int64) (string, error) {
	sess, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil {
		return NoAnalysisPlaceholder, nil
	}
	return sess.Analysis, nil
}

// SessionCount reports the number of live session entries.
func (s *ResaleService) SessionCount(ctx context.Context) (int, error) {
	return s.sessions.Len(ctx)
}

func (s *ResaleService) complete(ctx context.Context, req inference.Request) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.client.Complete(ctx, req)
}
