// internal/handlers/comments/list-comments/models.go
package listcomments

import "collections-dashboard/internal/models"

type Input struct {
	ApplicationID string `json:"application_id"`
	EmiMonth      string `json:"emi_month,omitempty"`
}

type Output = models.Page[models.Comment]
