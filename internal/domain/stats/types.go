// Package stats rolls settled periods up into the dashboard figures:
// KPI summary, per-period evolution, contractor and vehicle metrics and
// the cost-category breakdown. All builders are pure functions over
// already-persisted rows; the service only batch-fetches and delegates.
package stats

import (
	"time"

	"fletero/internal/core/id"
)

// Payment is one historical payment record. Payments are recorded at the
// contractor level, never per vehicle, which is why vehicle figures have
// to be prorated.
type Payment struct {
	PeriodKey    string    `db:"period_key" json:"periodKey"`
	ContractorID id.ID     `db:"contractor_id" json:"contractorId"`
	Amount       int64     `db:"amount" json:"amount"`
	PaidAt       time.Time `db:"paid_at" json:"paidAt"`
}

// Summary is the top-line KPI block.
type Summary struct {
	TotalPaid        int64 `json:"totalPaid"`
	SettledPeriods   int   `json:"settledPeriods"`
	TripsExecuted    int   `json:"tripsExecuted"`
	TripsVariation   int   `json:"tripsVariation"`
	TripsNotExecuted int   `json:"tripsNotExecuted"`
}

// EvolutionPoint is one settled period in the time series.
type EvolutionPoint struct {
	PeriodKey        string `json:"periodKey"`
	TotalPaid        int64  `json:"totalPaid"`
	TripsExecuted    int    `json:"tripsExecuted"`
	TripsVariation   int    `json:"tripsVariation"`
	TripsNotExecuted int    `json:"tripsNotExecuted"`
	CostPerTrip      int64  `json:"costPerTrip"`
}

// ContractorMetrics aggregates one contractor's activity across the
// settled periods.
type ContractorMetrics struct {
	ContractorID id.ID  `json:"contractorId"`
	Name         string `json:"name"`
	Vehicles     int    `json:"vehicles"`
	TotalTrips   int    `json:"totalTrips"`
	TotalPaid    int64  `json:"totalPaid"`
	CostPerTrip  int64  `json:"costPerTrip"`
	// ComplianceRate is round(paidTrips/totalTrips*100): 100 when every
	// trip was executed or variation, 0 when there are no trips at all.
	ComplianceRate int64 `json:"complianceRate"`
}

// VehicleMetrics aggregates one vehicle's activity. TotalPaid is prorated
// from the contractor's paid amount by the vehicle's share of the
// contractor's paid trips.
type VehicleMetrics struct {
	VehicleID    id.ID  `json:"vehicleId"`
	Plate        string `json:"plate"`
	ContractorID id.ID  `json:"contractorId"`
	TotalTrips   int    `json:"totalTrips"`
	TotalPaid    int64  `json:"totalPaid"`
}

// CostBreakdown sums the gross cost components across approved
// settlements in settled periods. Total covers the five gross components
// only; deductions are reported but excluded from Total, which represents
// gross cost before withholding.
type CostBreakdown struct {
	BaseFreight  int64 `json:"baseFreight"`
	Fuel         int64 `json:"fuel"`
	Tolls        int64 `json:"tolls"`
	Overnight    int64 `json:"overnight"`
	ExtraFreight int64 `json:"extraFreight"`
	Deductions   int64 `json:"deductions"`
	Total        int64 `json:"total"`
}

// BreakdownPercent expresses each gross category as a rounded percentage
// of the breakdown total.
type BreakdownPercent struct {
	BaseFreight  int64 `json:"baseFreight"`
	Fuel         int64 `json:"fuel"`
	Tolls        int64 `json:"tolls"`
	Overnight    int64 `json:"overnight"`
	ExtraFreight int64 `json:"extraFreight"`
}
