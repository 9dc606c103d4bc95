// Package filters implements the in-memory filter and option engine applied
// to an EMI month's applications.
package filters

// Dimension names a filterable attribute of an application.
type Dimension string

const (
	DimBranch          Dimension = "branch"
	DimTeamLead        Dimension = "teamLead"
	DimRM              Dimension = "rm"
	DimDealer          Dimension = "dealer"
	DimLender          Dimension = "lender"
	DimStatus          Dimension = "status"
	DimEmiMonth        Dimension = "emiMonth"
	DimRepayment       Dimension = "repayment"
	DimLastMonthBounce Dimension = "lastMonthBounce"
	DimPtpDate         Dimension = "ptpDate"
	DimVehicleStatus   Dimension = "vehicleStatus"
)

// Dimensions lists every dimension in display order.
var Dimensions = []Dimension{
	DimBranch,
	DimTeamLead,
	DimRM,
	DimDealer,
	DimLender,
	DimStatus,
	DimEmiMonth,
	DimRepayment,
	DimLastMonthBounce,
	DimPtpDate,
	DimVehicleStatus,
}

func ParseDimension(s string) (Dimension, bool) {
	for _, d := range Dimensions {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// Vehicle status options. VehicleNone matches applications without a vehicle status.
const (
	VehicleNone           = "None"
	VehicleRepossessed    = "Repossessed"
	VehicleNeedRepossess  = "Need to repossess"
	VehicleThirdParty     = "Third party"
	RepaymentUnknown      = "Unknown"
	EmiMonthNotApplicable = "NA"
)

var VehicleStatusOptions = []string{VehicleNone, VehicleRepossessed, VehicleNeedRepossess, VehicleThirdParty}
