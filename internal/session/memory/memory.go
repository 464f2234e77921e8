// Package memory is the default in-process session store, backed by an
// expiring LRU so long-running bots do not grow without bound.
package memory

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/vbonduro/flipcheck/internal/domain"
)

type Store struct {
	cache *expirable.LRU[int64, *domain.Session]
	now   func() time.Time
}

// NewStore keeps at most maxEntries sessions, each for ttl after its last Put.
func NewStore(maxEntries int, ttl time.Duration) *Store {
	return &Store{
		cache: expirable.NewLRU[int64, *domain.Session](maxEntries, nil, ttl),
		now:   time.Now,
	}
}

func (s *Store) Get(_ context.Context, userID int64) (*domain.Session, error) {
	sess, ok := s.cache.Get(userID)
	if !ok {
		return nil, nil
	}
	// Hand out a copy so callers cannot mutate the cached entry.
	cp := *sess
	return &cp, nil
}

func (s *Store) Put(_ context.Context, userID int64, analysis string) error {
	s.cache.Add(userID, &domain.Session{
		UserID:    userID,
		Analysis:  analysis,
		UpdatedAt: s.now(),
	})
	return nil
}

func (s *Store) Len(_ context.Context) (int, error) {
	return s.cache.Len(), nil
}
