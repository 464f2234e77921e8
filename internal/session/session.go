// Package session tracks the last analysis produced for each user.
package session

import (
	"context"
	"sync"

	"github.com/vbonduro/flipcheck/internal/domain"
)

// Store maps a user ID to that user's latest analysis. Put always overwrites.
// Get returns (nil, nil) when the user has no live entry.
type Store interface {
	Get(ctx context.Context, userID int64) (*domain.Session, error)
	Put(ctx context.Context, userID int64, analysis string) error
	Len(ctx context.Context) (int, error)
}

// Locker hands out one mutex per user. Entries are dropped once no goroutine
// holds or waits on them, so the map only grows with concurrent users.
type Locker struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[int64]*userLock)}
}

// Lock blocks until userID's lock is held and returns the unlock func.
func (l *Locker) Lock(userID int64) (unlock func()) {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}

func (l *Locker) active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
