// internal/handlers/applications/list-applications/models.go
package listapplications

import (
	"collections-dashboard/internal/filters"
	"collections-dashboard/internal/models"
)

type Input struct {
	EmiMonth string        `json:"emi_month"`
	Offset   int           `json:"offset"`
	Limit    int           `json:"limit"`
	UserID   string        `json:"user_id,omitempty"`
	View     string        `json:"view,omitempty"`
	Refresh  bool          `json:"refresh,omitempty"`
	Filters  filters.State `json:"filters,omitempty"`
}

type Output struct {
	Total   int                     `json:"total"`
	Results []models.ApplicationRow `json:"results"`

	ActiveFilters int      `json:"-"`
	Degraded      []string `json:"-"`
}
