// internal/handlers/applications/filter-options/models.go
package filteroptions

import "collections-dashboard/internal/filters"

type Input struct {
	EmiMonth string `json:"emi_month,omitempty"`
}

type Output = filters.Options
