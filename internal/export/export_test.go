package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"collections-dashboard/internal/models"
)

func strPtr(s string) *string { return &s }

func TestWrite(t *testing.T) {
	rows := []models.ApplicationRow{
		{
			ApplicationID: "app-1",
			ApplicantName: "Anil Kumar",
			EMIAmount:     "4250.00",
			Status:        models.StatusPaid,
			EMIMonth:      "Jul-25",
			Branch:        "Pune",
			PtpDate:       strPtr("2025-07-16"),
			PtpBucket:     "Tomorrow's PTP",
			CallingStatus: models.ContactStatuses{Latest: "Paid"},
			Comments:      []models.Comment{{Content: " collected at branch "}},
		},
		{ApplicationID: "app-2", ApplicantName: "Bina Shah", Status: models.StatusUnpaid, EMIMonth: "Jul-25"},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	got, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Application ID", got[0][0])
	assert.Len(t, got[0], len(Header))
	assert.Equal(t, []string{
		"app-1", "Anil Kumar", "4250.00", "Paid", "Jul-25", "Pune", "", "", "", "",
		"2025-07-16", "Tomorrow's PTP", "Paid", "collected at branch",
	}, got[1])
	assert.Equal(t, "app-2", got[2][0])
	assert.Equal(t, "Unpaid", got[2][3])
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
