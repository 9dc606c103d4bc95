// internal/fetcher/session.go
package fetcher

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"collections-dashboard/internal/common/metrics"
)

var (
	// ErrSuperseded is returned to a caller whose load was replaced by a
	// newer request on the same session before it finished.
	ErrSuperseded = errors.New("fetch superseded by a newer request")
	ErrClosed     = errors.New("fetch session closed")
)

// Loader is satisfied by *Fetcher.
type Loader interface {
	Fetch(ctx context.Context, ids []string, month string) *Batch
}

// RequestKey identifies a load by its ids (in order) and month.
func RequestKey(ids []string, month string) string {
	if month == "" {
		month = "none"
	}
	return strings.Join(ids, ",") + "-" + month
}

type call struct {
	key        string
	month      string
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
	result     *Batch
	superseded bool
	// stale is set when the month was written to while the load ran; the
	// result still reaches its waiters but is not stored.
	stale bool
}

// Session guards one client's list view. Repeating the last completed
// request returns the stored batch, repeating an in-flight one joins it, and
// any other request cancels the in-flight load and starts a new one. Only the
// newest load may commit its result.
type Session struct {
	loader Loader
	maxAge time.Duration
	now    func() time.Time

	mu         sync.Mutex
	generation uint64
	inflight   *call
	lastKey    string
	lastMonth  string
	result     *Batch
	fetchedAt  time.Time
	closed     bool
}

// NewSession returns a Session whose stored result is reused for maxAge
// (0 means until Clear).
func NewSession(loader Loader, maxAge time.Duration) *Session {
	return &Session{loader: loader, maxAge: maxAge, now: time.Now}
}

// Load returns the batch for ids and month. The fetch itself is detached
// from ctx so a departing caller does not abort a load others may join;
// ctx only bounds how long this caller waits.
func (s *Session) Load(ctx context.Context, ids []string, month string) (*Batch, error) {
	key := RequestKey(ids, month)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.result != nil && key == s.lastKey && s.fresh() {
		result := s.result
		s.mu.Unlock()
		return result, nil
	}
	if s.inflight != nil && s.inflight.key == key {
		c := s.inflight
		s.mu.Unlock()
		return wait(ctx, c)
	}
	if s.inflight != nil {
		s.inflight.cancel()
	}

	s.generation++
	fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c := &call{key: key, month: month, generation: s.generation, cancel: cancel, done: make(chan struct{})}
	s.inflight = c
	s.mu.Unlock()

	go s.run(fetchCtx, c, ids, month)
	return wait(ctx, c)
}

func (s *Session) run(ctx context.Context, c *call, ids []string, month string) {
	batch := s.loader.Fetch(ctx, ids, month)

	s.mu.Lock()
	c.result = batch
	c.superseded = ctx.Err() != nil || s.closed || c.generation != s.generation
	if !c.superseded && !c.stale {
		s.lastKey = c.key
		s.lastMonth = c.month
		s.result = batch
		s.fetchedAt = s.now()
	}
	if s.inflight == c {
		s.inflight = nil
	}
	s.mu.Unlock()

	c.cancel()
	close(c.done)
}

func wait(ctx context.Context, c *call) (*Batch, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		if c.superseded {
			return nil, ErrSuperseded
		}
		return c.result, nil
	}
}

func (s *Session) fresh() bool {
	return s.maxAge <= 0 || s.now().Sub(s.fetchedAt) < s.maxAge
}

// Clear forgets the stored result so the next Load fetches again.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastKey = ""
	s.lastMonth = ""
	s.result = nil
}

// Invalidate forgets a stored result loaded for month. "" matches the
// unscoped loads that span every month.
func (s *Session) Invalidate(month string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result != nil && s.lastMonth == month {
		s.lastKey = ""
		s.lastMonth = ""
		s.result = nil
	}
	if s.inflight != nil && s.inflight.month == month {
		s.inflight.stale = true
	}
}

// Close cancels any in-flight load; later loads fail with ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.result = nil
	if s.inflight != nil {
		s.inflight.cancel()
		s.inflight = nil
	}
}

// Sessions hands out one Session per client id, evicting the least recently
// used session once max is reached.
type Sessions struct {
	loader Loader
	maxAge time.Duration
	max    int

	mu    sync.Mutex
	tick  uint64
	items map[string]*sessionEntry
}

type sessionEntry struct {
	session  *Session
	lastUsed uint64
}

func NewSessions(loader Loader, maxAge time.Duration, max int) *Sessions {
	return &Sessions{
		loader: loader,
		maxAge: maxAge,
		max:    max,
		items:  make(map[string]*sessionEntry),
	}
}

func (r *Sessions) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tick++
	if e, ok := r.items[id]; ok {
		e.lastUsed = r.tick
		return e.session
	}

	if r.max > 0 && len(r.items) >= r.max {
		r.evictOldest()
	}
	e := &sessionEntry{session: NewSession(r.loader, r.maxAge), lastUsed: r.tick}
	r.items[id] = e
	metrics.FetchSessionsActive.Set(float64(len(r.items)))
	return e.session
}

// Len is the number of live sessions.
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *Sessions) evictOldest() {
	var (
		oldestID string
		oldest   *sessionEntry
	)
	for id, e := range r.items {
		if oldest == nil || e.lastUsed < oldest.lastUsed {
			oldestID, oldest = id, e
		}
	}
	if oldest != nil {
		oldest.session.Close()
		delete(r.items, oldestID)
	}
}

// Invalidate clears month from every live session, so a client's next list
// request after a write loads fresh rows.
func (r *Sessions) Invalidate(_ context.Context, month string) error {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.items))
	for _, e := range r.items {
		sessions = append(sessions, e.session)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Invalidate(month)
	}
	return nil
}

// Close closes every session.
func (r *Sessions) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.items {
		e.session.Close()
		delete(r.items, id)
	}
	metrics.FetchSessionsActive.Set(0)
}
