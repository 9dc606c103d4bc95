// internal/handlers/collections/update-field-status/models.go
package updatefieldstatus

import (
	"github.com/shopspring/decimal"

	"collections-dashboard/internal/models"
)

type Input struct {
	ApplicationID   string             `json:"-"`
	Status          models.FieldStatus `json:"status" validate:"required,field_status"`
	DemandDate      string             `json:"demand_date" validate:"required,iso_date"`
	AmountCollected *decimal.Decimal   `json:"amount_collected,omitempty"`
	UserID          string             `json:"user_id" validate:"required,notblank"`
	IsAdmin         bool               `json:"is_admin"`
}

type Output struct {
	ApplicationID   string              `json:"application_id"`
	Status          models.FieldStatus  `json:"status"`
	PreviousStatus  *models.FieldStatus `json:"previous_status"`
	DemandDate      string              `json:"demand_date"`
	AmountCollected *decimal.Decimal    `json:"amount_collected,omitempty"`
	PendingApproval bool                `json:"pending_approval"`
}
