// internal/handlers/activity/recent-activity/models.go
package recentactivity

import "collections-dashboard/internal/models"

type Input struct {
	ApplicationID string `json:"application_id,omitempty"`
	Limit         int    `json:"limit"`
	DaysBack      int    `json:"days_back"`
}

type Output struct {
	ApplicationID string            `json:"application_id,omitempty"`
	ApplicantName string            `json:"applicant_name,omitempty"`
	Total         int               `json:"total"`
	Results       []models.Activity `json:"results"`
}
