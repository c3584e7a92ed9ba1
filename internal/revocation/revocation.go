package revocation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"bookly/internal/lib/logger/sl"
)

// Backend is a durable store of expiring revocation entries.
type Backend interface {
	SetRevoked(ctx context.Context, id string, ttl time.Duration) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}

// Store records revoked token ids. Entries go to the backend when one is
// configured and reachable, otherwise to an in-process set that lives as long
// as the process. Backend failures are logged and never returned.
type Store struct {
	log     *slog.Logger
	backend Backend

	mu       sync.RWMutex
	fallback map[string]struct{}
}

// New creates a Store. A nil backend means fallback-only mode.
func New(log *slog.Logger, backend Backend) *Store {
	return &Store{
		log:      log,
		backend:  backend,
		fallback: make(map[string]struct{}),
	}
}

func (s *Store) MarkRevoked(ctx context.Context, id string, ttl time.Duration) {
	const op = "revocation.MarkRevoked"

	if s.backend != nil {
		err := s.backend.SetRevoked(ctx, id, ttl)
		if err == nil {
			return
		}

		s.log.Warn("backend unavailable, keeping entry in memory",
			slog.String("op", op),
			sl.Err(err),
		)
	}

	s.mu.Lock()
	s.fallback[id] = struct{}{}
	s.mu.Unlock()
}

// IsRevoked consults the in-process set first so entries recorded while the
// backend was down stay effective after it recovers.
func (s *Store) IsRevoked(ctx context.Context, id string) bool {
	const op = "revocation.IsRevoked"

	s.mu.RLock()
	_, ok := s.fallback[id]
	s.mu.RUnlock()

	if ok {
		return true
	}

	if s.backend == nil {
		return false
	}

	revoked, err := s.backend.IsRevoked(ctx, id)
	if err != nil {
		s.log.Warn("backend unavailable, treating token as not revoked",
			slog.String("op", op),
			sl.Err(err),
		)

		return false
	}

	return revoked
}

// Reset clears the in-process set.
func (s *Store) Reset() {
	s.mu.Lock()
	s.fallback = make(map[string]struct{})
	s.mu.Unlock()
}
