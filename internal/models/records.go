// internal/models/records.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContactType identifies who on a loan was called.
type ContactType string

const (
	ContactApplicant   ContactType = "applicant"
	ContactCoApplicant ContactType = "co_applicant"
	ContactGuarantor   ContactType = "guarantor"
	ContactReference   ContactType = "reference"
)

// ContactTypes is the precedence order used when picking the latest call outcome.
var ContactTypes = []ContactType{ContactApplicant, ContactCoApplicant, ContactGuarantor, ContactReference}

func (c ContactType) Valid() bool {
	for _, v := range ContactTypes {
		if c == v {
			return true
		}
	}
	return false
}

const (
	CallStatusNotCalled = "Not Called"
	CallStatusNoCalls   = "No Calls"
)

// ContactStatuses holds the most recent call outcome per contact.
type ContactStatuses struct {
	Applicant   string `json:"applicant,omitempty"`
	CoApplicant string `json:"co_applicant,omitempty"`
	Guarantor   string `json:"guarantor,omitempty"`
	Reference   string `json:"reference,omitempty"`
	Latest      string `json:"latest"`
}

func (c *ContactStatuses) Set(contact ContactType, status string) {
	switch contact {
	case ContactApplicant:
		c.Applicant = status
	case ContactCoApplicant:
		c.CoApplicant = status
	case ContactGuarantor:
		c.Guarantor = status
	case ContactReference:
		c.Reference = status
	}
}

func (c ContactStatuses) Get(contact ContactType) string {
	switch contact {
	case ContactApplicant:
		return c.Applicant
	case ContactCoApplicant:
		return c.CoApplicant
	case ContactGuarantor:
		return c.Guarantor
	case ContactReference:
		return c.Reference
	}
	return ""
}

// FieldStatusRecord is one row of field_status; several may exist per application.
type FieldStatusRecord struct {
	ApplicationID   string              `json:"application_id"`
	Status          FieldStatus         `json:"status"`
	AmountCollected decimal.NullDecimal `json:"amount_collected"`
	DemandDate      string              `json:"demand_date"`
	CreatedAt       time.Time           `json:"created_at"`
}

// PtpRecord is one row of ptp_dates. A nil PtpDate means the promise was cleared.
type PtpRecord struct {
	ApplicationID string    `json:"application_id"`
	PtpDate       *string   `json:"ptp_date"`
	DemandDate    string    `json:"demand_date"`
	CreatedAt     time.Time `json:"created_at"`
}

type ContactStatusRecord struct {
	ApplicationID string      `json:"application_id"`
	ContactType   ContactType `json:"contact_type"`
	Status        string      `json:"status"`
	DemandDate    string      `json:"demand_date"`
	CreatedAt     time.Time   `json:"created_at"`
}

type Comment struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"application_id"`
	Content       string    `json:"content"`
	UserID        string    `json:"user_id"`
	UserName      string    `json:"user_name"`
	DemandDate    string    `json:"demand_date,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// AuditEntry records a field change made through the API.
type AuditEntry struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"application_id"`
	Field         string    `json:"field"`
	PreviousValue *string   `json:"previous_value"`
	NewValue      *string   `json:"new_value"`
	UserID        string    `json:"user_id"`
	DemandDate    string    `json:"demand_date"`
	CreatedAt     time.Time `json:"created_at"`
}

// Audited fields, which double as the recent activity types.
const (
	ActivityStatus          = "Status"
	ActivityPtpDate         = "PTP Date"
	ActivityAmountCollected = "Amount Collected"
	ActivityCallingStatus   = "Calling Status"
)

// Activity is one entry of the recent activity feed: an audited change or a
// logged call. Calls carry no id and no from value.
type Activity struct {
	ID            string    `json:"id,omitempty"`
	ApplicationID string    `json:"application_id"`
	Type          string    `json:"activity_type"`
	FromValue     *string   `json:"from_value"`
	ToValue       *string   `json:"to_value"`
	UserID        string    `json:"user_id,omitempty"`
	ChangedBy     string    `json:"changed_by"`
	DemandDate    string    `json:"demand_date,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

type Profile struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// DisplayName falls back to the email local part, then to "Unknown User".
func (p Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	if p.Email != "" {
		for i, r := range p.Email {
			if r == '@' {
				return p.Email[:i]
			}
		}
		return p.Email
	}
	return "Unknown User"
}
