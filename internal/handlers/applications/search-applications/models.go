// internal/handlers/applications/search-applications/models.go
package searchapplications

import "collections-dashboard/internal/search"

type Input struct {
	Query string `json:"q"`
	Limit int    `json:"limit"`
}

type Output = search.Result
