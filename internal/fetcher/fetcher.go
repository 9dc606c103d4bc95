// Package fetcher loads the per-application lookups shown next to each row of
// the collections list: latest field status, latest PTP date, latest call
// outcome per contact and the most recent comments.
package fetcher

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/common/metrics"
	"collections-dashboard/internal/common/observability"
	"collections-dashboard/internal/models"
)

// Slice names, used in Batch.Failed, logs and metrics.
const (
	SliceStatuses = "statuses"
	SlicePtpDates = "ptp_dates"
	SliceCalling  = "calling"
	SliceComments = "comments"
)

// CommentsPerApplication is how many recent comments are attached to a row.
const CommentsPerApplication = 2

// Sources is the backend the fetcher reads from. month is a Mon-YY EMI month
// label ("" means every month).
type Sources interface {
	FieldStatusRecords(ctx context.Context, ids []string, month string) ([]models.FieldStatusRecord, error)
	PtpRecords(ctx context.Context, ids []string, month string) ([]models.PtpRecord, error)
	ContactStatusRecords(ctx context.Context, ids []string, month string) ([]models.ContactStatusRecord, error)
	Comments(ctx context.Context, ids []string, limit int) ([]models.Comment, error)
}

// NameResolver turns comment author ids into display names.
type NameResolver interface {
	Profiles(ctx context.Context, userIDs []string) (map[string]models.Profile, error)
}

type Config struct {
	CacheTTL            time.Duration
	SequentialThreshold int
	CommentLimit        int
	LookupTimeout       time.Duration
}

// Batch is the merged result of one Fetch. Maps only hold ids that had rows;
// Failed lists the slices that degraded to empty.
type Batch struct {
	Statuses map[string]models.FieldStatus     `json:"statuses"`
	PtpDates map[string]*string                `json:"ptp_dates"`
	Calling  map[string]models.ContactStatuses `json:"calling"`
	Comments map[string][]models.Comment       `json:"comments"`
	Failed   []string                          `json:"failed,omitempty"`
}

func newBatch() *Batch {
	return &Batch{
		Statuses: map[string]models.FieldStatus{},
		PtpDates: map[string]*string{},
		Calling:  map[string]models.ContactStatuses{},
		Comments: map[string][]models.Comment{},
	}
}

// Apply returns copies of apps with the batch merged in. An application
// without a status row is Unpaid; one without a PTP row keeps its own value.
func (b *Batch) Apply(apps []models.Application) []models.Application {
	out := make([]models.Application, len(apps))
	for i, app := range apps {
		if b != nil {
			if status, ok := b.Statuses[app.ID]; ok {
				app.FieldStatus = status
			}
			if ptp, ok := b.PtpDates[app.ID]; ok {
				app.PtpDate = ptp
			}
			if cs, ok := b.Calling[app.ID]; ok {
				app.CallingStatus = cs
			}
			app.RecentComments = b.Comments[app.ID]
		}
		app.FieldStatus = models.StatusOrDefault(app.FieldStatus)
		if app.CallingStatus.Latest == "" {
			app.CallingStatus.Latest = LatestCallOutcome(app.CallingStatus)
		}
		if app.RecentComments == nil {
			app.RecentComments = []models.Comment{}
		}
		out[i] = app
	}
	return out
}

// HasFailures reports whether any slice degraded.
func (b *Batch) HasFailures() bool {
	return b != nil && len(b.Failed) > 0
}

type Fetcher struct {
	sources Sources
	names   NameResolver
	cache   *Cache
	config  *Config
	logger  logger.Logger
	obs     *observability.Observability
}

// New builds a Fetcher. names, cache and obs are optional.
func New(config *Config, sources Sources, names NameResolver, cache *Cache, obs *observability.Observability, log logger.Logger) *Fetcher {
	if config == nil {
		config = &Config{}
	}
	if obs == nil {
		obs = observability.NewNoop()
	}
	return &Fetcher{
		sources: sources,
		names:   names,
		cache:   cache,
		config:  config,
		logger:  log.With(map[string]interface{}{"component": "fetcher"}),
		obs:     obs,
	}
}

// Fetch runs the four lookups concurrently and waits for all of them. A
// failing lookup is logged and leaves its slice empty; it never fails the
// batch. Results without failures are cached when a cache is configured.
func (f *Fetcher) Fetch(ctx context.Context, ids []string, month string) *Batch {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return newBatch()
	}

	ctx, span := f.obs.Tracer().Start(ctx, "fetcher.Fetch")
	defer span.End()
	span.SetAttributes(
		attribute.Int("fetch.ids", len(ids)),
		attribute.String("fetch.month", month),
	)

	if cached, ok := f.cache.Get(ctx, ids, month); ok {
		span.SetAttributes(attribute.Bool("fetch.cache_hit", true))
		return cached
	}

	sequential := f.config.SequentialThreshold > 0 && len(ids) >= f.config.SequentialThreshold
	batch := newBatch()

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	run := func(slice string, load func(ctx context.Context) (func(), error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()

			sctx, sspan := f.obs.Tracer().Start(ctx, "fetcher."+slice)
			defer sspan.End()
			if f.config.LookupTimeout > 0 {
				var cancel context.CancelFunc
				sctx, cancel = context.WithTimeout(sctx, f.config.LookupTimeout)
				defer cancel()
			}

			start := time.Now()
			commit, err := load(sctx)
			f.obs.RecordFetchDuration(ctx, slice, time.Since(start), err != nil)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				sspan.RecordError(err)
				sspan.SetStatus(codes.Error, err.Error())
				metrics.FetchSliceFailures.WithLabelValues(slice).Inc()
				f.logger.Warn("lookup failed, continuing without it", map[string]interface{}{
					"slice": slice,
					"ids":   len(ids),
					"month": month,
					"error": err,
				})
				batch.Failed = append(batch.Failed, slice)
				return
			}
			commit()
		}()
	}

	run(SliceStatuses, func(ctx context.Context) (func(), error) {
		rows, err := collectChunks(ctx, ids, sequential, func(ctx context.Context, chunk []string) ([]models.FieldStatusRecord, error) {
			return f.sources.FieldStatusRecords(ctx, chunk, month)
		})
		if err != nil {
			return nil, err
		}
		latest := Latest(rows,
			func(r models.FieldStatusRecord) string { return r.ApplicationID },
			func(r models.FieldStatusRecord) time.Time { return r.CreatedAt },
		)
		return func() {
			for id, row := range latest {
				batch.Statuses[id] = models.StatusOrDefault(row.Status)
			}
		}, nil
	})

	run(SlicePtpDates, func(ctx context.Context) (func(), error) {
		rows, err := collectChunks(ctx, ids, sequential, func(ctx context.Context, chunk []string) ([]models.PtpRecord, error) {
			return f.sources.PtpRecords(ctx, chunk, month)
		})
		if err != nil {
			return nil, err
		}
		latest := Latest(rows,
			func(r models.PtpRecord) string { return r.ApplicationID },
			func(r models.PtpRecord) time.Time { return r.CreatedAt },
		)
		return func() {
			for id, row := range latest {
				batch.PtpDates[id] = row.PtpDate
			}
		}, nil
	})

	run(SliceCalling, func(ctx context.Context) (func(), error) {
		rows, err := collectChunks(ctx, ids, sequential, func(ctx context.Context, chunk []string) ([]models.ContactStatusRecord, error) {
			return f.sources.ContactStatusRecords(ctx, chunk, month)
		})
		if err != nil {
			return nil, err
		}
		byApp := contactStatusesByApplication(rows)
		return func() {
			for id, cs := range byApp {
				batch.Calling[id] = cs
			}
		}, nil
	})

	run(SliceComments, func(ctx context.Context) (func(), error) {
		rows, err := collectChunks(ctx, ids, sequential, func(ctx context.Context, chunk []string) ([]models.Comment, error) {
			return f.sources.Comments(ctx, chunk, f.config.CommentLimit)
		})
		if err != nil {
			return nil, err
		}
		grouped := GroupNewest(rows,
			func(c models.Comment) string { return c.ApplicationID },
			func(c models.Comment) time.Time { return c.CreatedAt },
			CommentsPerApplication,
		)
		f.resolveAuthors(ctx, grouped)
		return func() {
			for id, comments := range grouped {
				batch.Comments[id] = comments
			}
		}, nil
	})

	wg.Wait()
	sort.Strings(batch.Failed)

	span.SetAttributes(attribute.StringSlice("fetch.failed", batch.Failed))
	if !batch.HasFailures() && ctx.Err() == nil {
		f.cache.Set(ctx, ids, month, batch)
	}
	return batch
}

// resolveAuthors fills UserName on comments that lack one. Lookup failures
// leave the name blank.
func (f *Fetcher) resolveAuthors(ctx context.Context, grouped map[string][]models.Comment) {
	if f.names == nil {
		return
	}
	seen := map[string]struct{}{}
	var userIDs []string
	for _, comments := range grouped {
		for _, c := range comments {
			if c.UserName != "" || c.UserID == "" {
				continue
			}
			if _, ok := seen[c.UserID]; !ok {
				seen[c.UserID] = struct{}{}
				userIDs = append(userIDs, c.UserID)
			}
		}
	}
	if len(userIDs) == 0 {
		return
	}

	profiles, err := f.names.Profiles(ctx, userIDs)
	if err != nil {
		f.logger.Warn("comment author lookup failed", map[string]interface{}{
			"users": len(userIDs),
			"error": err,
		})
		return
	}
	for id, comments := range grouped {
		for i := range comments {
			if comments[i].UserName != "" || comments[i].UserID == "" {
				continue
			}
			if p, ok := profiles[comments[i].UserID]; ok {
				comments[i].UserName = p.DisplayName()
			} else {
				comments[i].UserName = models.Profile{}.DisplayName()
			}
		}
		grouped[id] = comments
	}
}

// uniqueIDs drops blanks and duplicates while keeping first-seen order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
