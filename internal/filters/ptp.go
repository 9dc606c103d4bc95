// internal/filters/ptp.go
package filters

import (
	"strings"
	"time"
)

// PtpBucket classifies a promise-to-pay date relative to today.
type PtpBucket string

const (
	PtpOverdue  PtpBucket = "overdue"
	PtpToday    PtpBucket = "today"
	PtpTomorrow PtpBucket = "tomorrow"
	PtpFuture   PtpBucket = "future"
	PtpNoDate   PtpBucket = "no_date"
)

var PtpBuckets = []PtpBucket{PtpOverdue, PtpToday, PtpTomorrow, PtpFuture, PtpNoDate}

var ptpLabels = map[PtpBucket]string{
	PtpOverdue:  "Overdue PTP",
	PtpToday:    "Today's PTP",
	PtpTomorrow: "Tomorrow's PTP",
	PtpFuture:   "Future PTP",
	PtpNoDate:   "No PTP",
}

func (b PtpBucket) Label() string {
	return ptpLabels[b]
}

// PtpLabels returns the bucket labels in display order.
func PtpLabels() []string {
	out := make([]string, len(PtpBuckets))
	for i, b := range PtpBuckets {
		out[i] = b.Label()
	}
	return out
}

// ParsePtpSelection accepts either a bucket code or its label.
func ParsePtpSelection(value string) (PtpBucket, bool) {
	for _, b := range PtpBuckets {
		if value == string(b) || value == b.Label() {
			return b, true
		}
	}
	return "", false
}

// Layouts seen in ptp_dates and in the REST backend (which formats as %y-%m-%d).
var ptpLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"06-01-02",
}

func parsePtpDate(raw string, loc *time.Location) (time.Time, bool) {
	for _, layout := range ptpLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// CategorizePtpDate returns exactly one bucket for any input. Dates are compared
// by calendar day in now's location.
func CategorizePtpDate(raw *string, now time.Time) PtpBucket {
	if raw == nil {
		return PtpNoDate
	}
	s := strings.TrimSpace(*raw)
	if s == "" || strings.EqualFold(s, "cleared") {
		return PtpNoDate
	}

	t, ok := parsePtpDate(s, now.Location())
	if !ok {
		return PtpNoDate
	}

	day := startOfDay(t)
	today := startOfDay(now)
	switch {
	case day.Equal(today):
		return PtpToday
	case day.Equal(today.AddDate(0, 0, 1)):
		return PtpTomorrow
	case day.Before(today):
		return PtpOverdue
	default:
		return PtpFuture
	}
}

// FormatPtpDate renders a PTP for display, "Not Set" when absent or cleared.
func FormatPtpDate(raw *string, loc *time.Location) string {
	if raw == nil {
		return "Not Set"
	}
	s := strings.TrimSpace(*raw)
	if s == "" || strings.EqualFold(s, "cleared") {
		return "Not Set"
	}
	t, ok := parsePtpDate(s, loc)
	if !ok {
		return "Not Set"
	}
	return t.Format("Jan 02, 2006")
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
