// internal/filters/options.go
package filters

import (
	"sort"
	"strings"

	"collections-dashboard/internal/models"
)

// Options lists the selectable values per dimension.
type Options struct {
	Branches             []string `json:"branches"`
	TeamLeads            []string `json:"teamLeads"`
	RMs                  []string `json:"rms"`
	Dealers              []string `json:"dealers"`
	Lenders              []string `json:"lenders"`
	Statuses             []string `json:"statuses"`
	EmiMonths            []string `json:"emiMonths"`
	Repayments           []string `json:"repayments"`
	LastMonthBounce      []string `json:"lastMonthBounce"`
	PtpDateOptions       []string `json:"ptpDateOptions"`
	VehicleStatusOptions []string `json:"vehicleStatusOptions"`
}

// AvailableOptions derives option lists from the collection. When selectedMonth
// is set, only that month's applications contribute, except for EMI months,
// which always come from every application.
func AvailableOptions(all []models.Application, selectedMonth string) Options {
	scoped := all
	if month := strings.TrimSpace(selectedMonth); month != "" {
		month = NormalizeEmiMonth(month)
		scoped = make([]models.Application, 0, len(all))
		for _, app := range all {
			if FormatEmiMonth(app.DemandDate) == month {
				scoped = append(scoped, app)
			}
		}
	}

	branches := newValueSet()
	teamLeads := newValueSet()
	rms := newValueSet()
	dealers := newValueSet()
	lenders := newValueSet()
	statuses := newValueSet()
	repayments := newValueSet()
	for _, app := range scoped {
		branches.add(app.BranchName)
		teamLeads.add(app.TeamLead)
		rms.add(app.RMName)
		dealers.add(app.DealerName)
		lenders.add(app.LenderName)
		statuses.add(string(models.StatusOrDefault(app.FieldStatus)))
		repayments.add(FormatRepayment(app.Repayment))
	}

	months := newValueSet()
	for _, app := range all {
		months.add(FormatEmiMonth(app.DemandDate))
	}
	emiMonths := months.values()
	sort.SliceStable(emiMonths, func(i, j int) bool { return lessEmiMonth(emiMonths[i], emiMonths[j]) })

	return Options{
		Branches:             branches.sorted(),
		TeamLeads:            teamLeads.sorted(),
		RMs:                  rms.sorted(),
		Dealers:              dealers.sorted(),
		Lenders:              lenders.sorted(),
		Statuses:             statuses.sorted(),
		EmiMonths:            emiMonths,
		Repayments:           repayments.sorted(),
		LastMonthBounce:      append([]string(nil), BounceBuckets...),
		PtpDateOptions:       PtpLabels(),
		VehicleStatusOptions: append([]string(nil), VehicleStatusOptions...),
	}
}

type valueSet struct {
	seen  map[string]struct{}
	order []string
}

func newValueSet() *valueSet {
	return &valueSet{seen: make(map[string]struct{})}
}

// add ignores blank values.
func (s *valueSet) add(v string) {
	if strings.TrimSpace(v) == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.order = append(s.order, v)
}

func (s *valueSet) values() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *valueSet) sorted() []string {
	out := s.values()
	sort.Strings(out)
	return out
}
