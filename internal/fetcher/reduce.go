// internal/fetcher/reduce.go
package fetcher

import (
	"sort"
	"time"

	"collections-dashboard/internal/models"
)

// Latest folds rows into one row per key: rows are ordered newest first
// (stable, so ties keep input order) and the first row seen per key wins.
func Latest[T any, K comparable](rows []T, key func(T) K, createdAt func(T) time.Time) map[K]T {
	out := make(map[K]T, len(rows))
	for _, row := range newestFirst(rows, createdAt) {
		k := key(row)
		if _, seen := out[k]; !seen {
			out[k] = row
		}
	}
	return out
}

// GroupNewest groups rows by key, newest first, keeping at most limit rows per
// key. limit <= 0 keeps every row.
func GroupNewest[T any, K comparable](rows []T, key func(T) K, createdAt func(T) time.Time, limit int) map[K][]T {
	out := make(map[K][]T)
	for _, row := range newestFirst(rows, createdAt) {
		k := key(row)
		if limit > 0 && len(out[k]) >= limit {
			continue
		}
		out[k] = append(out[k], row)
	}
	return out
}

func newestFirst[T any](rows []T, createdAt func(T) time.Time) []T {
	sorted := make([]T, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return createdAt(sorted[i]).After(createdAt(sorted[j]))
	})
	return sorted
}

type contactKey struct {
	applicationID string
	contactType   models.ContactType
}

// contactStatusesByApplication keeps the newest status per (application, contact)
// and derives Latest for each application.
func contactStatusesByApplication(rows []models.ContactStatusRecord) map[string]models.ContactStatuses {
	latest := Latest(rows,
		func(r models.ContactStatusRecord) contactKey { return contactKey{r.ApplicationID, r.ContactType} },
		func(r models.ContactStatusRecord) time.Time { return r.CreatedAt },
	)

	out := make(map[string]models.ContactStatuses)
	for k, row := range latest {
		cs := out[k.applicationID]
		cs.Set(k.contactType, row.Status)
		out[k.applicationID] = cs
	}
	for id, cs := range out {
		cs.Latest = LatestCallOutcome(cs)
		out[id] = cs
	}
	return out
}

// LatestCallOutcome is the first contact, in precedence order, that has been
// called; "No Calls" when nobody has.
func LatestCallOutcome(cs models.ContactStatuses) string {
	for _, ct := range models.ContactTypes {
		if s := cs.Get(ct); s != "" && s != models.CallStatusNotCalled {
			return s
		}
	}
	return models.CallStatusNoCalls
}
