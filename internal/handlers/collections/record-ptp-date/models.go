// internal/handlers/collections/record-ptp-date/models.go
package recordptpdate

// Input records a promise-to-pay date. A null or empty ptp_date clears it.
type Input struct {
	ApplicationID string  `json:"-"`
	PtpDate       *string `json:"ptp_date" validate:"omitempty,iso_date"`
	DemandDate    string  `json:"demand_date" validate:"required,iso_date"`
	UserID        string  `json:"user_id" validate:"required,notblank"`
}

type Output struct {
	ApplicationID   string  `json:"application_id"`
	PtpDate         *string `json:"ptp_date"`
	PreviousPtpDate *string `json:"previous_ptp_date"`
	PtpBucket       string  `json:"ptp_bucket"`
	DemandDate      string  `json:"demand_date"`
}
