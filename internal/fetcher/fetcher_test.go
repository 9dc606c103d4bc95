package fetcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/models"
)

// ==========================
// Test doubles
// ==========================

type fakeSources struct {
	statusCalls  int32
	ptpCalls     int32
	contactCalls int32
	commentCalls int32

	statuses []models.FieldStatusRecord
	ptps     []models.PtpRecord
	contacts []models.ContactStatusRecord
	comments []models.Comment
	ptpErr   error
}

func (f *fakeSources) FieldStatusRecords(_ context.Context, ids []string, _ string) ([]models.FieldStatusRecord, error) {
	atomic.AddInt32(&f.statusCalls, 1)
	return filterRows(f.statuses, ids, func(r models.FieldStatusRecord) string { return r.ApplicationID }), nil
}

func (f *fakeSources) PtpRecords(_ context.Context, ids []string, _ string) ([]models.PtpRecord, error) {
	atomic.AddInt32(&f.ptpCalls, 1)
	if f.ptpErr != nil {
		return nil, f.ptpErr
	}
	return filterRows(f.ptps, ids, func(r models.PtpRecord) string { return r.ApplicationID }), nil
}

func (f *fakeSources) ContactStatusRecords(_ context.Context, ids []string, _ string) ([]models.ContactStatusRecord, error) {
	atomic.AddInt32(&f.contactCalls, 1)
	return filterRows(f.contacts, ids, func(r models.ContactStatusRecord) string { return r.ApplicationID }), nil
}

func (f *fakeSources) Comments(_ context.Context, ids []string, _ int) ([]models.Comment, error) {
	atomic.AddInt32(&f.commentCalls, 1)
	return filterRows(f.comments, ids, func(c models.Comment) string { return c.ApplicationID }), nil
}

func filterRows[T any](rows []T, ids []string, key func(T) string) []T {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []T
	for _, r := range rows {
		if want[key(r)] {
			out = append(out, r)
		}
	}
	return out
}

type fakeNames struct {
	profiles map[string]models.Profile
	err      error
}

func (f *fakeNames) Profiles(_ context.Context, _ []string) (map[string]models.Profile, error) {
	return f.profiles, f.err
}

func strPtr(s string) *string { return &s }

func sampleSources() *fakeSources {
	return &fakeSources{
		statuses: []models.FieldStatusRecord{
			{ApplicationID: "app-1", Status: models.StatusUnpaid, CreatedAt: at(0)},
			{ApplicationID: "app-1", Status: models.StatusPaid, CreatedAt: at(60)},
			{ApplicationID: "app-2", Status: models.StatusPartiallyPaid, CreatedAt: at(5)},
		},
		ptps: []models.PtpRecord{
			{ApplicationID: "app-1", PtpDate: strPtr("2025-07-20"), CreatedAt: at(0)},
			{ApplicationID: "app-1", PtpDate: nil, CreatedAt: at(30)},
			{ApplicationID: "app-2", PtpDate: strPtr("2025-07-18"), CreatedAt: at(10)},
		},
		contacts: []models.ContactStatusRecord{
			{ApplicationID: "app-1", ContactType: models.ContactApplicant, Status: models.CallStatusNotCalled, CreatedAt: at(0)},
			{ApplicationID: "app-1", ContactType: models.ContactCoApplicant, Status: "Switched Off", CreatedAt: at(1)},
			{ApplicationID: "app-1", ContactType: models.ContactApplicant, Status: "Promised to Pay", CreatedAt: at(2)},
		},
		comments: []models.Comment{
			{ID: "c1", ApplicationID: "app-1", Content: "first visit", UserID: "u2", UserName: "Ravi", CreatedAt: at(0)},
			{ID: "c2", ApplicationID: "app-1", Content: "asked for a week", UserID: "u2", UserName: "Ravi", CreatedAt: at(20)},
			{ID: "c3", ApplicationID: "app-1", Content: "promised Friday", UserID: "u1", CreatedAt: at(40)},
		},
	}
}

func newTestFetcher(t *testing.T, sources Sources, cache *Cache) *Fetcher {
	t.Helper()
	names := &fakeNames{profiles: map[string]models.Profile{"u1": {ID: "u1", FullName: "Asha Patil"}}}
	return New(&Config{CommentLimit: 200, LookupTimeout: time.Second}, sources, names, cache, nil, logger.NewTestLogger(t))
}

// ==========================
// Fetch
// ==========================

func TestFetch_MergesLatestRows(t *testing.T) {
	f := newTestFetcher(t, sampleSources(), nil)

	batch := f.Fetch(context.Background(), []string{"app-1", "app-2", "app-3"}, "Jul-25")

	assert.Empty(t, batch.Failed)
	assert.Equal(t, models.StatusPaid, batch.Statuses["app-1"])
	assert.Equal(t, models.StatusPartiallyPaid, batch.Statuses["app-2"])

	ptp, ok := batch.PtpDates["app-1"]
	require.True(t, ok, "a cleared promise is still a row")
	assert.Nil(t, ptp)
	assert.Equal(t, "2025-07-18", *batch.PtpDates["app-2"])

	assert.Equal(t, "Promised to Pay", batch.Calling["app-1"].Latest)
	assert.Equal(t, "Switched Off", batch.Calling["app-1"].CoApplicant)

	comments := batch.Comments["app-1"]
	require.Len(t, comments, 2)
	assert.Equal(t, "c3", comments[0].ID)
	assert.Equal(t, "Asha Patil", comments[0].UserName)
	assert.Equal(t, "c2", comments[1].ID)
}

func TestFetch_FailedSliceDegradesToEmpty(t *testing.T) {
	sources := sampleSources()
	sources.ptpErr = errors.New("connection reset")
	f := newTestFetcher(t, sources, nil)

	batch := f.Fetch(context.Background(), []string{"app-1", "app-2"}, "Jul-25")

	assert.Equal(t, []string{SlicePtpDates}, batch.Failed)
	assert.Empty(t, batch.PtpDates)
	assert.Equal(t, models.StatusPaid, batch.Statuses["app-1"])
	assert.Len(t, batch.Comments["app-1"], 2)
}

func TestFetch_EmptyIDsSkipsLookups(t *testing.T) {
	sources := sampleSources()
	f := newTestFetcher(t, sources, nil)

	batch := f.Fetch(context.Background(), []string{"", ""}, "Jul-25")

	assert.Empty(t, batch.Statuses)
	assert.Equal(t, int32(0), atomic.LoadInt32(&sources.statusCalls))
}

func TestFetch_ChunksLargeRequests(t *testing.T) {
	sources := sampleSources()
	f := newTestFetcher(t, sources, nil)

	ids := append([]string{"app-1"}, makeIDs(119)...)
	batch := f.Fetch(context.Background(), ids, "Jul-25")

	assert.Equal(t, int32(3), atomic.LoadInt32(&sources.statusCalls))
	assert.Equal(t, models.StatusPaid, batch.Statuses["app-1"])
}

func TestFetch_UnknownAuthorGetsPlaceholder(t *testing.T) {
	sources := sampleSources()
	f := New(&Config{}, sources, &fakeNames{profiles: map[string]models.Profile{}}, nil, nil, logger.NewTestLogger(t))

	batch := f.Fetch(context.Background(), []string{"app-1"}, "")
	assert.Equal(t, "Unknown User", batch.Comments["app-1"][0].UserName)
}

func TestFetch_AuthorLookupFailureKeepsComments(t *testing.T) {
	sources := sampleSources()
	f := New(&Config{}, sources, &fakeNames{err: errors.New("profiles down")}, nil, nil, logger.NewTestLogger(t))

	batch := f.Fetch(context.Background(), []string{"app-1"}, "")
	assert.Empty(t, batch.Failed)
	require.Len(t, batch.Comments["app-1"], 2)
	assert.Empty(t, batch.Comments["app-1"][0].UserName)
}

// ==========================
// Cache
// ==========================

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute, logger.NewTestLogger(t)), mr
}

func TestFetch_CachesCompleteBatches(t *testing.T) {
	cache, mr := newTestCache(t)
	sources := sampleSources()
	f := newTestFetcher(t, sources, cache)

	first := f.Fetch(context.Background(), []string{"app-1", "app-2"}, "Jul-25")
	second := f.Fetch(context.Background(), []string{"app-2", "app-1"}, "Jul-25")

	assert.Equal(t, int32(1), atomic.LoadInt32(&sources.statusCalls))
	assert.Equal(t, first.Statuses, second.Statuses)
	assert.Nil(t, second.PtpDates["app-1"])
	assert.True(t, mr.Exists(CacheKey([]string{"app-1", "app-2"}, "Jul-25")))

	require.NoError(t, cache.Invalidate(context.Background(), "Jul-25"))
	f.Fetch(context.Background(), []string{"app-1", "app-2"}, "Jul-25")
	assert.Equal(t, int32(2), atomic.LoadInt32(&sources.statusCalls))
}

func TestFetch_DoesNotCacheDegradedBatches(t *testing.T) {
	cache, _ := newTestCache(t)
	sources := sampleSources()
	sources.ptpErr = errors.New("timeout")
	f := newTestFetcher(t, sources, cache)

	f.Fetch(context.Background(), []string{"app-1"}, "Jul-25")
	f.Fetch(context.Background(), []string{"app-1"}, "Jul-25")

	assert.Equal(t, int32(2), atomic.LoadInt32(&sources.statusCalls))
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, CacheKey([]string{"b", "a"}, "Jul-25"), CacheKey([]string{"a", "b"}, "Jul-25"))
	assert.NotEqual(t, CacheKey([]string{"a"}, "Jul-25"), CacheKey([]string{"a"}, "2025-06"))
	assert.Contains(t, CacheKey([]string{"a"}, ""), "collections:batch:none:")
}

func TestNewCache_DisabledReturnsNil(t *testing.T) {
	assert.Nil(t, NewCache(nil, time.Minute, logger.NewNoOpLogger()))

	var c *Cache
	_, ok := c.Get(context.Background(), []string{"a"}, "")
	assert.False(t, ok)
	assert.NoError(t, c.Invalidate(context.Background(), ""))
}

// ==========================
// Apply
// ==========================

func TestBatch_Apply(t *testing.T) {
	f := newTestFetcher(t, sampleSources(), nil)
	batch := f.Fetch(context.Background(), []string{"app-1", "app-3"}, "Jul-25")

	apps := []models.Application{
		{ID: "app-1", FieldStatus: models.StatusUnpaid, PtpDate: strPtr("2025-07-01")},
		{ID: "app-3", PtpDate: strPtr("2025-07-25")},
	}
	got := batch.Apply(apps)

	assert.Equal(t, models.StatusPaid, got[0].FieldStatus)
	assert.Nil(t, got[0].PtpDate)
	assert.Len(t, got[0].RecentComments, 2)

	assert.Equal(t, models.StatusUnpaid, got[1].FieldStatus)
	assert.Equal(t, "2025-07-25", *got[1].PtpDate)
	assert.Equal(t, models.CallStatusNoCalls, got[1].CallingStatus.Latest)
	assert.NotNil(t, got[1].RecentComments)

	assert.Equal(t, models.StatusUnpaid, apps[0].FieldStatus, "input is not mutated")
}

func TestBatch_ApplyNil(t *testing.T) {
	var b *Batch
	got := b.Apply([]models.Application{{ID: "app-1"}})
	assert.Equal(t, models.StatusUnpaid, got[0].FieldStatus)
}
