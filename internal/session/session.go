// Package session keeps one board per visitor, keyed by a cookie.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/activity-board/internal/board"
	"github.com/Shivanand-hulikatti/activity-board/internal/metrics"
)

// CookieName is the cookie carrying the visitor's board id.
const CookieName = "board_session"

// DefaultMaxBoards bounds the store when Config leaves MaxBoards unset.
const DefaultMaxBoards = 10000

// Config tunes a Store.
type Config struct {
	// TTL is how long a board may sit unused before Sweep drops it.
	TTL time.Duration
	// MaxBoards caps the live boards; creating one more evicts the longest idle.
	MaxBoards int
	// Secure marks the session cookie Secure.
	Secure  bool
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// Store maps session ids to boards and evicts boards left idle past the TTL.
type Store struct {
	mu        sync.Mutex
	boards    map[string]*board.Board
	ttl       time.Duration
	maxBoards int
	secure    bool
	now       func() time.Time
	metrics   *metrics.Metrics
}

// NewStore creates a Store.
func NewStore(cfg Config) *Store {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxBoards <= 0 {
		cfg.MaxBoards = DefaultMaxBoards
	}
	return &Store{
		boards:    make(map[string]*board.Board),
		ttl:       cfg.TTL,
		maxBoards: cfg.MaxBoards,
		secure:    cfg.Secure,
		now:       cfg.Now,
		metrics:   cfg.Metrics,
	}
}

// Lookup returns the visitor's board without creating one.
func (s *Store) Lookup(r *http.Request) (*board.Board, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	s.mu.Lock()
	b, ok := s.boards[c.Value]
	s.mu.Unlock()
	if ok {
		b.Touch(s.now())
	}
	return b, ok
}

// Board returns the visitor's board, creating it and setting the cookie when
// the request has no known session.
func (s *Store) Board(w http.ResponseWriter, r *http.Request) *board.Board {
	if b, ok := s.Lookup(r); ok {
		return b
	}

	now := s.now()
	id := uuid.New().String()
	b := board.New(now)

	s.mu.Lock()
	if len(s.boards) >= s.maxBoards {
		s.evictIdlestLocked(now)
	}
	s.boards[id] = b
	n := len(s.boards)
	s.mu.Unlock()
	s.metrics.SetSessions(n)

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return b
}

func (s *Store) evictIdlestLocked(now time.Time) {
	var (
		victim string
		idlest time.Duration = -1
	)
	for id, b := range s.boards {
		if idle := b.IdleSince(now); idle > idlest {
			victim, idlest = id, idle
		}
	}
	if idlest >= 0 {
		delete(s.boards, victim)
	}
}

// Sweep drops boards idle for longer than the TTL and returns how many went.
func (s *Store) Sweep() int {
	now := s.now()

	s.mu.Lock()
	removed := 0
	for id, b := range s.boards {
		if b.IdleSince(now) > s.ttl {
			delete(s.boards, id)
			removed++
		}
	}
	n := len(s.boards)
	s.mu.Unlock()

	s.metrics.SetSessions(n)
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
