package filters

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"collections-dashboard/internal/models"
)

func TestRow(t *testing.T) {
	app := models.Application{
		ID:            "app-1",
		ApplicantName: "Anil Kumar",
		EMIAmount:     decimal.NewFromInt(4250),
		DemandDate:    "2025-07-05",
		PtpDate:       strPtr("2025-07-15"),
	}

	row := Row(app, fixedNow)

	assert.Equal(t, "4250.00", row.EMIAmount)
	assert.Equal(t, models.StatusUnpaid, row.Status)
	assert.Equal(t, "Jul-25", row.EMIMonth)
	assert.Equal(t, "Jul 15, 2025", row.PtpDisplay)
	assert.Equal(t, "Today's PTP", row.PtpBucket)
	assert.NotNil(t, row.Comments)

	app.PtpDate = nil
	assert.Equal(t, "Not Set", Row(app, fixedNow).PtpDisplay)
}
