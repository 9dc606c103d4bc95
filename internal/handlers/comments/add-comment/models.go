// internal/handlers/comments/add-comment/models.go
package addcomment

import "collections-dashboard/internal/models"

const MaxContentLength = 2000

type Input struct {
	ApplicationID string `json:"-"`
	Content       string `json:"content" validate:"required,notblank,max=2000"`
	UserID        string `json:"user_id" validate:"required,notblank"`
	DemandDate    string `json:"demand_date,omitempty" validate:"omitempty,iso_date"`
}

type Output = models.Comment
