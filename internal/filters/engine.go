// internal/filters/engine.go
package filters

import (
	"strings"
	"time"

	"collections-dashboard/internal/models"
)

// FilterApplications keeps the applications that match every active dimension,
// preserving input order. With no active selection the input is returned as is.
func FilterApplications(apps []models.Application, state State, now time.Time) []models.Application {
	if state.ActiveCount() == 0 {
		return apps
	}

	m := newMatcher(state, now)
	out := make([]models.Application, 0, len(apps))
	for _, app := range apps {
		if m.match(app) {
			out = append(out, app)
		}
	}
	return out
}

type matcher struct {
	now  time.Time
	sets map[Dimension]map[string]struct{}
	ptp  map[PtpBucket]struct{}
}

func newMatcher(state State, now time.Time) *matcher {
	m := &matcher{
		now:  now,
		sets: make(map[Dimension]map[string]struct{}),
	}
	for d, values := range state {
		if len(values) == 0 {
			continue
		}
		if d == DimPtpDate {
			m.ptp = make(map[PtpBucket]struct{}, len(values))
			for _, v := range values {
				if b, ok := ParsePtpSelection(v); ok {
					m.ptp[b] = struct{}{}
				}
			}
			continue
		}
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			if d == DimEmiMonth {
				v = NormalizeEmiMonth(v)
			}
			set[v] = struct{}{}
		}
		m.sets[d] = set
	}
	return m
}

func (m *matcher) match(app models.Application) bool {
	if m.ptp != nil {
		if _, ok := m.ptp[CategorizePtpDate(app.PtpDate, m.now)]; !ok {
			return false
		}
	}

	for d, set := range m.sets {
		if d == DimVehicleStatus {
			if !matchVehicleStatus(set, app.VehicleStatus) {
				return false
			}
			continue
		}
		if _, ok := set[DimensionValue(app, d, m.now)]; !ok {
			return false
		}
	}
	return true
}

func matchVehicleStatus(set map[string]struct{}, vehicleStatus string) bool {
	if strings.TrimSpace(vehicleStatus) == "" {
		_, ok := set[VehicleNone]
		return ok
	}
	_, ok := set[vehicleStatus]
	return ok
}

// DimensionValue is the value an application contributes to a dimension.
func DimensionValue(app models.Application, d Dimension, now time.Time) string {
	switch d {
	case DimBranch:
		return app.BranchName
	case DimTeamLead:
		return app.TeamLead
	case DimRM:
		return app.RMName
	case DimDealer:
		return app.DealerName
	case DimLender:
		return app.LenderName
	case DimStatus:
		return string(models.StatusOrDefault(app.FieldStatus))
	case DimEmiMonth:
		return FormatEmiMonth(app.DemandDate)
	case DimRepayment:
		return FormatRepayment(app.Repayment)
	case DimLastMonthBounce:
		return CategorizeLastMonthBounce(app.LastMonthBounce)
	case DimPtpDate:
		return string(CategorizePtpDate(app.PtpDate, now))
	case DimVehicleStatus:
		if strings.TrimSpace(app.VehicleStatus) == "" {
			return VehicleNone
		}
		return app.VehicleStatus
	}
	return ""
}
