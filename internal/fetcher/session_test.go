package fetcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collections-dashboard/internal/models"
)

// countingLoader returns immediately, tagging each batch with its call number.
type countingLoader struct {
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) Fetch(_ context.Context, ids []string, _ string) *Batch {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	b := newBatch()
	for _, id := range ids {
		b.Statuses[id] = models.StatusPaid
	}
	return b
}

func (l *countingLoader) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// gatedLoader blocks every fetch until release is closed or its context ends.
type gatedLoader struct {
	countingLoader
	release chan struct{}
}

func newGatedLoader() *gatedLoader {
	return &gatedLoader{release: make(chan struct{})}
}

func (l *gatedLoader) Fetch(ctx context.Context, ids []string, month string) *Batch {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	select {
	case <-ctx.Done():
		return newBatch()
	case <-l.release:
	}
	b := newBatch()
	for _, id := range ids {
		b.Statuses[id] = models.StatusPaid
	}
	return b
}

type loadResult struct {
	batch *Batch
	err   error
}

func loadAsync(s *Session, ctx context.Context, ids []string, month string) <-chan loadResult {
	ch := make(chan loadResult, 1)
	go func() {
		b, err := s.Load(ctx, ids, month)
		ch <- loadResult{b, err}
	}()
	return ch
}

func waitResult(t *testing.T, ch <-chan loadResult) loadResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("load did not finish")
		return loadResult{}
	}
}

func TestRequestKey(t *testing.T) {
	assert.Equal(t, "a,b-Jul-25", RequestKey([]string{"a", "b"}, "Jul-25"))
	assert.Equal(t, "a-none", RequestKey([]string{"a"}, ""))
	assert.NotEqual(t, RequestKey([]string{"a", "b"}, ""), RequestKey([]string{"b", "a"}, ""))
}

func TestSession_RepeatedRequestIsSkipped(t *testing.T) {
	loader := &countingLoader{}
	s := NewSession(loader, 0)
	ctx := context.Background()

	first, err := s.Load(ctx, []string{"app-1"}, "Jul-25")
	require.NoError(t, err)
	second, err := s.Load(ctx, []string{"app-1"}, "Jul-25")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, loader.Calls())

	_, err = s.Load(ctx, []string{"app-1"}, "Jun-25")
	require.NoError(t, err)
	assert.Equal(t, 2, loader.Calls())

	s.Clear()
	_, err = s.Load(ctx, []string{"app-1"}, "Jun-25")
	require.NoError(t, err)
	assert.Equal(t, 3, loader.Calls())
}

func TestSession_StoredResultExpires(t *testing.T) {
	loader := &countingLoader{}
	s := NewSession(loader, time.Minute)
	now := time.Date(2025, time.July, 15, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_, err := s.Load(context.Background(), []string{"app-1"}, "Jul-25")
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, err = s.Load(context.Background(), []string{"app-1"}, "Jul-25")
	require.NoError(t, err)
	assert.Equal(t, 1, loader.Calls())

	now = now.Add(time.Minute)
	_, err = s.Load(context.Background(), []string{"app-1"}, "Jul-25")
	require.NoError(t, err)
	assert.Equal(t, 2, loader.Calls())
}

func TestSession_NewerRequestSupersedesInFlight(t *testing.T) {
	loader := newGatedLoader()
	s := NewSession(loader, 0)
	ctx := context.Background()

	stale := loadAsync(s, ctx, []string{"app-1"}, "Jun-25")
	require.Eventually(t, func() bool { return loader.Calls() == 1 }, time.Second, 5*time.Millisecond)

	current := loadAsync(s, ctx, []string{"app-2"}, "Jul-25")
	require.Eventually(t, func() bool { return loader.Calls() == 2 }, time.Second, 5*time.Millisecond)

	r := waitResult(t, stale)
	assert.ErrorIs(t, r.err, ErrSuperseded)

	close(loader.release)
	r = waitResult(t, current)
	require.NoError(t, r.err)
	assert.Equal(t, models.StatusPaid, r.batch.Statuses["app-2"])

	again, err := s.Load(ctx, []string{"app-2"}, "Jul-25")
	require.NoError(t, err)
	assert.Same(t, r.batch, again)
	assert.Equal(t, 2, loader.Calls())
}

func TestSession_DuplicateInFlightRequestJoins(t *testing.T) {
	loader := newGatedLoader()
	s := NewSession(loader, 0)
	ctx := context.Background()

	first := loadAsync(s, ctx, []string{"app-1"}, "Jul-25")
	require.Eventually(t, func() bool { return loader.Calls() == 1 }, time.Second, 5*time.Millisecond)
	second := loadAsync(s, ctx, []string{"app-1"}, "Jul-25")

	close(loader.release)
	r1 := waitResult(t, first)
	r2 := waitResult(t, second)

	require.NoError(t, r1.err)
	require.NoError(t, r2.err)
	assert.Same(t, r1.batch, r2.batch)
	assert.Equal(t, 1, loader.Calls())
}

func TestSession_CallerCancelDoesNotAbortFetch(t *testing.T) {
	loader := newGatedLoader()
	s := NewSession(loader, 0)

	ctx, cancel := context.WithCancel(context.Background())
	pending := loadAsync(s, ctx, []string{"app-1"}, "Jul-25")
	require.Eventually(t, func() bool { return loader.Calls() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	r := waitResult(t, pending)
	assert.ErrorIs(t, r.err, context.Canceled)

	close(loader.release)
	batch, err := s.Load(context.Background(), []string{"app-1"}, "Jul-25")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, batch.Statuses["app-1"])
	assert.Equal(t, 1, loader.Calls())
}

func TestSession_Close(t *testing.T) {
	loader := newGatedLoader()
	s := NewSession(loader, 0)

	pending := loadAsync(s, context.Background(), []string{"app-1"}, "Jul-25")
	require.Eventually(t, func() bool { return loader.Calls() == 1 }, time.Second, 5*time.Millisecond)

	s.Close()
	r := waitResult(t, pending)
	assert.ErrorIs(t, r.err, ErrSuperseded)

	_, err := s.Load(context.Background(), []string{"app-1"}, "Jul-25")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSessions_EvictsLeastRecentlyUsed(t *testing.T) {
	loader := &countingLoader{}
	reg := NewSessions(loader, 0, 2)
	t.Cleanup(reg.Close)

	a := reg.Get("client-a")
	b := reg.Get("client-b")
	assert.Same(t, a, reg.Get("client-a"))

	reg.Get("client-c")
	assert.Equal(t, 2, reg.Len())

	_, err := b.Load(context.Background(), []string{"app-1"}, "")
	assert.ErrorIs(t, err, ErrClosed)

	_, err = a.Load(context.Background(), []string{"app-1"}, "")
	assert.NoError(t, err)
	assert.NotSame(t, b, reg.Get("client-b"))
}

// ==========================
// Invalidation
// ==========================

func TestSessions_InvalidateAfterWriteLoadsNewRows(t *testing.T) {
	sources := sampleSources()
	reg := NewSessions(newTestFetcher(t, sources, nil), 10*time.Second, 0)
	t.Cleanup(reg.Close)
	ctx := context.Background()
	ids := []string{"app-1", "app-2"}

	before, err := reg.Get("u1").Load(ctx, ids, "Jul-25")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPartiallyPaid, before.Statuses["app-2"])

	sources.statuses = append(sources.statuses, models.FieldStatusRecord{
		ApplicationID: "app-2", Status: models.StatusPaidPendingApproval, CreatedAt: at(90),
	})
	require.NoError(t, reg.Invalidate(ctx, "Jul-25"))

	after, err := reg.Get("u1").Load(ctx, ids, "Jul-25")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaidPendingApproval, after.Statuses["app-2"])
}

func TestSession_InvalidateKeepsOtherMonths(t *testing.T) {
	loader := &countingLoader{}
	s := NewSession(loader, 0)
	ctx := context.Background()

	_, err := s.Load(ctx, []string{"app-1"}, "Jun-25")
	require.NoError(t, err)

	s.Invalidate("Jul-25")
	s.Invalidate("")
	_, err = s.Load(ctx, []string{"app-1"}, "Jun-25")
	require.NoError(t, err)
	assert.Equal(t, 1, loader.Calls())

	s.Invalidate("Jun-25")
	_, err = s.Load(ctx, []string{"app-1"}, "Jun-25")
	require.NoError(t, err)
	assert.Equal(t, 2, loader.Calls())
}

func TestSession_InvalidateUnscopedLoad(t *testing.T) {
	loader := &countingLoader{}
	s := NewSession(loader, 0)
	ctx := context.Background()

	_, err := s.Load(ctx, []string{"app-1"}, "")
	require.NoError(t, err)
	s.Invalidate("")
	_, err = s.Load(ctx, []string{"app-1"}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, loader.Calls())
}

func TestSession_InvalidateDuringLoadIsNotStored(t *testing.T) {
	loader := newGatedLoader()
	s := NewSession(loader, 0)

	pending := loadAsync(s, context.Background(), []string{"app-1"}, "Jul-25")
	require.Eventually(t, func() bool { return loader.Calls() == 1 }, time.Second, 5*time.Millisecond)

	s.Invalidate("Jul-25")
	close(loader.release)

	r := waitResult(t, pending)
	require.NoError(t, r.err)
	assert.Equal(t, models.StatusPaid, r.batch.Statuses["app-1"])

	_, err := s.Load(context.Background(), []string{"app-1"}, "Jul-25")
	require.NoError(t, err)
	assert.Equal(t, 2, loader.Calls())
}
