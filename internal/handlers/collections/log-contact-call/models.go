// internal/handlers/collections/log-contact-call/models.go
package logcontactcall

import "collections-dashboard/internal/models"

type Input struct {
	ApplicationID string             `json:"-"`
	ContactType   models.ContactType `json:"contact_type" validate:"required,contact_type"`
	Status        string             `json:"status" validate:"required,notblank,max=100"`
	DemandDate    string             `json:"demand_date" validate:"required,iso_date"`
	UserID        string             `json:"user_id" validate:"required,notblank"`
}

type Output = models.ContactStatusRecord
