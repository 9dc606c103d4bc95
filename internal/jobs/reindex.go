// internal/jobs/reindex.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/filters"
	"collections-dashboard/internal/models"
)

const SearchReindexJobName = "search-reindex"

type Indexer interface {
	EnsureIndex(ctx context.Context) error
	IndexApplications(ctx context.Context, apps []models.Application) (int, error)
}

type SearchReindexJob struct {
	apps    ApplicationLister
	indexer Indexer
	loc     *time.Location
	logger  logger.Logger
	now     func() time.Time
}

func NewSearchReindexJob(apps ApplicationLister, indexer Indexer, loc *time.Location, log logger.Logger) *SearchReindexJob {
	if loc == nil {
		loc = time.UTC
	}
	return &SearchReindexJob{
		apps:    apps,
		indexer: indexer,
		loc:     loc,
		logger:  log.WithFields(map[string]interface{}{"job": SearchReindexJobName}),
		now:     time.Now,
	}
}

func (j *SearchReindexJob) Name() string { return SearchReindexJobName }

func (j *SearchReindexJob) Run(ctx context.Context) error {
	_, err := j.Reindex(ctx, filters.CurrentEmiMonth(j.now().In(j.loc)))
	return err
}

// Reindex bulk-indexes one month's applications ("" for all) and returns the
// number of documents accepted.
func (j *SearchReindexJob) Reindex(ctx context.Context, month string) (int, error) {
	if err := j.indexer.EnsureIndex(ctx); err != nil {
		return 0, fmt.Errorf("ensure index: %w", err)
	}
	apps, err := j.apps.ListApplications(ctx, month)
	if err != nil {
		return 0, fmt.Errorf("list applications: %w", err)
	}
	indexed, err := j.indexer.IndexApplications(ctx, apps)
	if err != nil {
		return indexed, fmt.Errorf("index applications: %w", err)
	}
	j.logger.Info("search index refreshed", map[string]interface{}{
		"emiMonth": month,
		"listed":   len(apps),
		"indexed":  indexed,
	})
	return indexed, nil
}
