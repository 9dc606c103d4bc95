// Package export renders application rows as a single-sheet workbook.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"collections-dashboard/internal/models"
)

const (
	SheetName   = "Collections"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var Header = []interface{}{
	"Application ID", "Applicant", "EMI Amount", "Status", "EMI Month",
	"Branch", "RM", "Team Lead", "Dealer", "Lender",
	"PTP Date", "PTP", "Latest Call", "Latest Comment",
}

func row(r models.ApplicationRow) []interface{} {
	ptp := ""
	if r.PtpDate != nil {
		ptp = *r.PtpDate
	}
	comment := ""
	if len(r.Comments) > 0 {
		comment = strings.TrimSpace(r.Comments[0].Content)
	}
	return []interface{}{
		r.ApplicationID, r.ApplicantName, r.EMIAmount, string(r.Status), r.EMIMonth,
		r.Branch, r.RMName, r.TLName, r.Dealer, r.Lender,
		ptp, r.PtpBucket, r.CallingStatus.Latest, comment,
	}
}

// Workbook builds the workbook for rows. Callers must Close it.
func Workbook(rows []models.ApplicationRow) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := setRow(f, 1, Header); err != nil {
		f.Close()
		return nil, err
	}
	for i, r := range rows {
		if err := setRow(f, i+2, row(r)); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func setRow(f *excelize.File, n int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", n, err)
	}
	return nil
}

// Write streams the workbook for rows to w.
func Write(w io.Writer, rows []models.ApplicationRow) error {
	f, err := Workbook(rows)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
