// Package logsink appends saved analyses to a flat text file.
package logsink

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	timestampLayout = "2006-01-02 15:04"
	separatorWidth  = 50
)

// Entry is one saved analysis.
type Entry struct {
	Time time.Time
	Text string
}

// Format renders e as a log block: a blank line, the bracketed timestamp and
// text, then a line of dashes.
func Format(e Entry) string {
	return fmt.Sprintf("\n[%s] - %s\n%s\n", e.Time.Format(timestampLayout), e.Text, strings.Repeat("-", separatorWidth))
}

// FileSink appends entries to a single file. Appends are serialized so
// concurrent saves never interleave.
type FileSink struct {
	path string
	mu   sync.Mutex
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Path() string {
	return s.path
}

// Append writes one block, creating the file if needed. Existing content is
// never truncated.
func (s *FileSink) Append(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	if _, err := f.WriteString(Format(e)); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write log entry: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}
