// internal/filters/emimonth.go
package filters

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// EmiMonthLayout renders months as e.g. "Jul-25".
const EmiMonthLayout = "Jan-06"

var excelEpoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

var demandDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	EmiMonthLayout,
}

// FormatEmiMonth derives the EMI month label from a raw demand date. Excel
// serial numbers (as produced by spreadsheet imports) are accepted. Values that
// cannot be parsed are returned unchanged; empty input yields "NA".
func FormatEmiMonth(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return EmiMonthNotApplicable
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		if n > 25000 && n < 100000 {
			// Excel counts 1900-02-29, hence the extra day.
			return excelEpoch.AddDate(0, 0, int(math.Floor(n))-2).Format(EmiMonthLayout)
		}
		return raw
	}

	if strings.Contains(s, "-") && len(s) == 7 {
		if t, err := time.Parse("2006-01", s); err == nil {
			return t.Format(EmiMonthLayout)
		}
	}
	if strings.Contains(s, "-") && len(s) == 10 {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t.Format(EmiMonthLayout)
		}
	}
	for _, layout := range demandDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(EmiMonthLayout)
		}
	}
	return raw
}

// ParseEmiMonth parses a "Mon-YY" label into the first day of that month (UTC).
// Two-digit years below 50 are 20yy, the rest 19yy.
func ParseEmiMonth(label string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(label), "-")
	if len(parts) != 2 || len(parts[0]) != 3 || len(parts[1]) != 2 {
		return time.Time{}, fmt.Errorf("invalid emi month %q: expected Mon-YY", label)
	}

	m, err := time.Parse("Jan", parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid emi month %q: unknown month", label)
	}
	yy, err := strconv.Atoi(parts[1])
	if err != nil || yy < 0 {
		return time.Time{}, fmt.Errorf("invalid emi month %q: bad year", label)
	}

	year := 1900 + yy
	if yy < 50 {
		year = 2000 + yy
	}
	return time.Date(year, m.Month(), 1, 0, 0, 0, 0, time.UTC), nil
}

// NormalizeEmiMonth canonicalizes case ("jul-25" -> "Jul-25"); unparseable input is returned trimmed.
func NormalizeEmiMonth(label string) string {
	t, err := ParseEmiMonth(label)
	if err != nil {
		return strings.TrimSpace(label)
	}
	return t.Format(EmiMonthLayout)
}

// MonthRange returns the first and last calendar day of the labelled month.
func MonthRange(label string) (time.Time, time.Time, error) {
	first, err := ParseEmiMonth(label)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return first, first.AddDate(0, 1, -1), nil
}

// CurrentEmiMonth labels the month containing now.
func CurrentEmiMonth(now time.Time) string {
	return now.Format(EmiMonthLayout)
}

// FormatRepayment renders the repayment number, "Unknown" when missing.
func FormatRepayment(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return RepaymentUnknown
	}
	return s
}

// lessEmiMonth orders labels chronologically; unparseable labels sort last, lexically.
func lessEmiMonth(a, b string) bool {
	ta, errA := ParseEmiMonth(a)
	tb, errB := ParseEmiMonth(b)
	switch {
	case errA == nil && errB == nil:
		return ta.Before(tb)
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
