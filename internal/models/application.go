// internal/models/application.go
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FieldStatus is the collection state recorded by field agents for an EMI.
type FieldStatus string

const (
	StatusUnpaid              FieldStatus = "Unpaid"
	StatusPartiallyPaid       FieldStatus = "Partially Paid"
	StatusCashCollected       FieldStatus = "Cash Collected from Customer"
	StatusCustomerDeposited   FieldStatus = "Customer Deposited to Bank"
	StatusPaid                FieldStatus = "Paid"
	StatusPaidPendingApproval FieldStatus = "Paid (Pending Approval)"
)

// FieldStatuses lists the enumeration in display order.
var FieldStatuses = []FieldStatus{
	StatusUnpaid,
	StatusPartiallyPaid,
	StatusCashCollected,
	StatusCustomerDeposited,
	StatusPaid,
	StatusPaidPendingApproval,
}

func (s FieldStatus) Valid() bool {
	for _, v := range FieldStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// StatusOrDefault treats a missing status as Unpaid.
func StatusOrDefault(s FieldStatus) FieldStatus {
	if strings.TrimSpace(string(s)) == "" {
		return StatusUnpaid
	}
	return s
}

// Application is a loan account due for collection in a given EMI month.
type Application struct {
	ID              string          `json:"id"`
	ApplicantID     string          `json:"applicant_id"`
	ApplicantName   string          `json:"applicant_name"`
	BranchName      string          `json:"branch_name"`
	TeamLead        string          `json:"team_lead"`
	RMName          string          `json:"rm_name"`
	CollectionRM    string          `json:"collection_rm,omitempty"`
	DealerName      string          `json:"dealer_name"`
	LenderName      string          `json:"lender_name"`
	DemandDate      string          `json:"demand_date"`
	EMIAmount       decimal.Decimal `json:"emi_amount"`
	PrincipleDue    decimal.Decimal `json:"principle_due"`
	InterestDue     decimal.Decimal `json:"interest_due"`
	AmountCollected decimal.Decimal `json:"amount_collected"`
	Repayment       string          `json:"repayment"`
	LastMonthBounce *int            `json:"last_month_bounce"`
	VehicleStatus   string          `json:"vehicle_status"`
	FieldStatus     FieldStatus     `json:"field_status"`
	PtpDate         *string         `json:"ptp_date"`
	PaidDate        *string         `json:"paid_date"`
	CallingStatus   ContactStatuses `json:"calling_status"`
	RecentComments  []Comment       `json:"recent_comments"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
