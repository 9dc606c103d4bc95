// internal/models/summary.go
package models

// CollectionSummary counts applications per collection state for one EMI month.
type CollectionSummary struct {
	Total               int `json:"total"`
	Paid                int `json:"paid"`
	Unpaid              int `json:"unpaid"`
	PartiallyPaid       int `json:"partially_paid"`
	CashCollected       int `json:"cash_collected"`
	CustomerDeposited   int `json:"customer_deposited"`
	PaidPendingApproval int `json:"paid_pending_approval"`
	Foreclose           int `json:"foreclose"`
}

// Add counts n applications with the given status. Legacy repayment states
// (Future, Overdue, Foreclose) are folded in; anything unknown only moves Total.
func (s *CollectionSummary) Add(status string, n int) {
	s.Total += n
	switch status {
	case string(StatusPaid):
		s.Paid += n
	case string(StatusUnpaid), "", "Future", "Overdue":
		s.Unpaid += n
	case string(StatusPartiallyPaid):
		s.PartiallyPaid += n
	case string(StatusCashCollected):
		s.CashCollected += n
	case string(StatusCustomerDeposited):
		s.CustomerDeposited += n
	case string(StatusPaidPendingApproval), "Paid(Pending Approval)":
		s.PaidPendingApproval += n
	case "Foreclose":
		s.Foreclose += n
	}
}

// ApplicationRow is the flattened list shape served by GET /api/v1/applications.
type ApplicationRow struct {
	ApplicationID string          `json:"application_id"`
	ApplicantName string          `json:"applicant_name"`
	EMIAmount     string          `json:"emi_amount"`
	Status        FieldStatus     `json:"status"`
	EMIMonth      string          `json:"emi_month"`
	Branch        string          `json:"branch"`
	RMName        string          `json:"rm_name"`
	TLName        string          `json:"tl_name"`
	Dealer        string          `json:"dealer"`
	Lender        string          `json:"lender"`
	PtpDate       *string         `json:"ptp_date"`
	PtpDisplay    string          `json:"ptp_date_display"`
	PtpBucket     string          `json:"ptp_bucket"`
	CallingStatus ContactStatuses `json:"calling_status"`
	Comments      []Comment       `json:"comments"`
}

// Page is the {total, results} envelope used by list endpoints.
type Page[T any] struct {
	Total   int `json:"total"`
	Results []T `json:"results"`
}
