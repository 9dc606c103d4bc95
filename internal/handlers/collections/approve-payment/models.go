// internal/handlers/collections/approve-payment/models.go
package approvepayment

import "collections-dashboard/internal/models"

type Input struct {
	ApplicationID string `json:"-"`
	Action        string `json:"action" validate:"required,approval_action"`
	DemandDate    string `json:"demand_date" validate:"required,iso_date"`
	UserID        string `json:"user_id" validate:"required,notblank"`
}

type Output struct {
	ApplicationID  string             `json:"application_id"`
	Action         string             `json:"action"`
	Status         models.FieldStatus `json:"status"`
	PreviousStatus models.FieldStatus `json:"previous_status"`
	DemandDate     string             `json:"demand_date"`
}
