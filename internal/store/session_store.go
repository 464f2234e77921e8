package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vbonduro/flipcheck/internal/domain"
)

// SessionStore is the sqlite-backed session.Store. Entries older than ttl are
// invisible to reads and pruned on the next write; the table is capped at
// maxEntries rows, dropping the least recently updated first.
type SessionStore struct {
	db         *sql.DB
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func NewSessionStore(db *sql.DB, maxEntries int, ttl time.Duration) *SessionStore {
	return &SessionStore{db: db, ttl: ttl, maxEntries: maxEntries, now: time.Now}
}

func (s *SessionStore) cutoff() int64 {
	return s.now().Add(-s.ttl).UnixNano()
}

func (s *SessionStore) Get(ctx context.Context, userID int64) (*domain.Session, error) {
	sess := &domain.Session{}
	var updated int64
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, analysis, updated_at FROM sessions WHERE user_id = ? AND updated_at > ?
	`, userID, s.cutoff()).Scan(&sess.UserID, &sess.Analysis, &updated)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	sess.UpdatedAt = time.Unix(0, updated)
	return sess, nil
}

func (s *SessionStore) Put(ctx context.Context, userID int64, analysis string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (user_id, analysis, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET analysis = excluded.analysis, updated_at = excluded.updated_at
	`, userID, analysis, s.now().UnixNano()); err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM sessions WHERE updated_at <= ?
	`, s.cutoff()); err != nil {
		return fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM sessions WHERE user_id NOT IN (
			SELECT user_id FROM sessions ORDER BY updated_at DESC LIMIT ?
		)
	`, s.maxEntries); err != nil {
		return fmt.Errorf("failed to trim sessions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

func (s *SessionStore) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sessions WHERE updated_at > ?
	`, s.cutoff()).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}
