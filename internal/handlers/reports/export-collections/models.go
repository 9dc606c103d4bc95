// internal/handlers/reports/export-collections/models.go
package exportcollections

import (
	"collections-dashboard/internal/filters"
	"collections-dashboard/internal/models"
)

type Input struct {
	EmiMonth string
	Filters  filters.State
}

type Output struct {
	FileName string
	Rows     []models.ApplicationRow
	Degraded []string
}
