// internal/handlers/preferences/saved-filters/models.go
package savedfilters

import "collections-dashboard/internal/filters"

type Input struct {
	UserID string
	// Document is the raw PUT body; nil for reads and deletes.
	Document map[string]interface{}
}

type Output struct {
	UserID      string        `json:"user_id"`
	Filters     filters.State `json:"filters"`
	ActiveCount int           `json:"active_count"`
}
