// Package session keeps one dataset cache per dashboard session. Sessions
// never share built datasets or views.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"copurchase-dashboard/internal/dataset"
	"copurchase-dashboard/internal/observability"
	"copurchase-dashboard/internal/services"
)

const (
	defaultIdleTimeout = 30 * time.Minute
	defaultMaxSessions = 256
)

type Options struct {
	IdleTimeout time.Duration
	// MaxSessions bounds the live sessions; the least recently used one is
	// dropped to make room.
	MaxSessions int
	Logger      *slog.Logger
	// Now is overridable for tests.
	Now func() time.Time
}

type entry struct {
	cache    *dataset.Cache[*services.Analytics]
	lastSeen time.Time
	// seq is the last-use order consulted for capacity eviction.
	seq      uint64
}

type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	pipeline *dataset.Pipeline
	idle     time.Duration
	max      int
	seq      uint64
	logger   *slog.Logger
	now      func() time.Time
}

func NewStore(pipeline *dataset.Pipeline, opts Options) *Store {
	s := &Store{
		sessions: make(map[string]*entry),
		pipeline: pipeline,
		idle:     opts.IdleTimeout,
		max:      opts.MaxSessions,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if s.idle <= 0 {
		s.idle = defaultIdleTimeout
	}
	if s.max <= 0 {
		s.max = defaultMaxSessions
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Analytics returns the session's views, running the pipeline on the first
// request of a session or after an invalidation. An empty id gets a fresh,
// uncached build.
func (s *Store) Analytics(ctx context.Context, id string) (*services.Analytics, error) {
	if id == "" {
		return s.build(ctx)
	}
	return s.touch(id).cache.Get(ctx, s.pipeline.Key(), s.build)
}

// ForRequest resolves the session from the id the session middleware put on
// the request context.
func (s *Store) ForRequest(r *http.Request) (*services.Analytics, error) {
	return s.Analytics(r.Context(), observability.GetSessionID(r.Context()))
}

// Invalidate drops the session's cached dataset so the next request reloads
// the files. It reports whether the session existed.
func (s *Store) Invalidate(id string) bool {
	s.mu.Lock()
	e, ok := s.sessions[id]
	s.mu.Unlock()

	if !ok {
		return false
	}
	e.cache.Invalidate()
	s.logger.Info("session cache invalidated", "session_id", id)
	return true
}

// Clear forgets every session.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.sessions)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) touch(id string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictIdleLocked(now)

	e, ok := s.sessions[id]
	if !ok {
		for len(s.sessions) >= s.max {
			s.evictOldestLocked()
		}
		e = &entry{cache: dataset.NewCache[*services.Analytics]()}
		s.sessions[id] = e
	}
	s.seq++
	e.seq = s.seq
	e.lastSeen = now
	return e
}

func (s *Store) evictOldestLocked() {
	var (
		oldestID string
		oldest   *entry
	)
	for id, e := range s.sessions {
		if oldest == nil || e.seq < oldest.seq {
			oldestID, oldest = id, e
		}
	}
	if oldest == nil {
		return
	}
	delete(s.sessions, oldestID)
	s.logger.Debug("session evicted", "session_id", oldestID, "reason", "capacity", "max", s.max)
}

func (s *Store) evictIdleLocked(now time.Time) {
	for id, e := range s.sessions {
		if now.Sub(e.lastSeen) > s.idle {
			delete(s.sessions, id)
			s.logger.Debug("session evicted", "session_id", id, "idle", now.Sub(e.lastSeen))
		}
	}
}

func (s *Store) build(ctx context.Context) (*services.Analytics, error) {
	a := services.NewAnalytics(observability.RequestLogger(ctx, s.logger))
	if err := a.Load(ctx, s.pipeline); err != nil {
		return nil, err
	}
	return a, nil
}
