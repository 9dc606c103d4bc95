// internal/filters/rows.go
package filters

import (
	"time"

	"collections-dashboard/internal/models"
)

// Row flattens an enriched application into the list/export shape.
func Row(app models.Application, now time.Time) models.ApplicationRow {
	comments := app.RecentComments
	if comments == nil {
		comments = []models.Comment{}
	}
	return models.ApplicationRow{
		ApplicationID: app.ID,
		ApplicantName: app.ApplicantName,
		EMIAmount:     app.EMIAmount.StringFixed(2),
		Status:        models.StatusOrDefault(app.FieldStatus),
		EMIMonth:      FormatEmiMonth(app.DemandDate),
		Branch:        app.BranchName,
		RMName:        app.RMName,
		TLName:        app.TeamLead,
		Dealer:        app.DealerName,
		Lender:        app.LenderName,
		PtpDate:       app.PtpDate,
		PtpDisplay:    FormatPtpDate(app.PtpDate, now.Location()),
		PtpBucket:     CategorizePtpDate(app.PtpDate, now).Label(),
		CallingStatus: app.CallingStatus,
		Comments:      comments,
	}
}

// Rows applies Row to every application.
func Rows(apps []models.Application, now time.Time) []models.ApplicationRow {
	out := make([]models.ApplicationRow, len(apps))
	for i, app := range apps {
		out[i] = Row(app, now)
	}
	return out
}
