// Package liquidation provides the fortnightly settlement document
// ("liquidación"): its calculation from aggregated trips, its deduction
// ledger, and the recompute/approve lifecycle.
package liquidation

import (
	"context"

	"fletero/internal/core/apperror"
	"fletero/internal/core/entity"
	"fletero/internal/core/id"
)

// Status is the settlement lifecycle state.
type Status string

const (
	// StatusDraft - editable, recomputable.
	StatusDraft Status = "draft"
	// StatusApproved - frozen; ledger operations are rejected.
	StatusApproved Status = "approved"
)

// DeductionKind classifies a deduction line.
type DeductionKind string

const (
	// KindWithholding is the automatic 1% withholding on the subtotal.
	KindWithholding DeductionKind = "withholding_one_percent"
	// KindAdvance is a cash advance recovered from the settlement.
	KindAdvance DeductionKind = "advance"
	// KindOther is any other manual deduction.
	KindOther DeductionKind = "other"
)

// DeductionSource tells whether the line is owned by the recompute.
type DeductionSource string

const (
	// SourceAuto lines are recalculated in place on every recompute.
	// At most one auto withholding exists per settlement.
	SourceAuto DeductionSource = "auto"
	// SourceManual lines are user-entered and never touched by recompute.
	SourceManual DeductionSource = "manual"
)

// Deduction is one line in a settlement's deduction ledger.
type Deduction struct {
	entity.BaseEntity

	LiquidationID id.ID           `db:"liquidation_id" json:"liquidationId"`
	Kind          DeductionKind   `db:"kind" json:"kind"`
	Source        DeductionSource `db:"source" json:"source"`
	Amount        int64           `db:"amount" json:"amount"`
	Description   string          `db:"description" json:"description,omitempty"`
}

// Validate implements entity.Validatable.
func (d *Deduction) Validate(ctx context.Context) error {
	switch d.Kind {
	case KindWithholding, KindAdvance, KindOther:
	default:
		return apperror.NewValidation("invalid deduction kind").
			WithDetail("field", "kind").
			WithDetail("value", string(d.Kind))
	}
	if d.Amount <= 0 {
		return apperror.NewValidation("deduction amount must be positive").
			WithDetail("field", "amount").
			WithDetail("value", d.Amount)
	}
	return nil
}

// Liquidation is one vehicle's settlement for one period.
// Keyed uniquely by (PeriodKey, VehicleID); recomputation upserts, never
// duplicates.
type Liquidation struct {
	entity.BaseDocument

	Number       string `db:"number" json:"number"`
	PeriodKey    string `db:"period_key" json:"periodKey"`
	VehicleID    id.ID  `db:"vehicle_id" json:"vehicleId"`
	ContractorID id.ID  `db:"contractor_id" json:"contractorId"`
	Status       Status `db:"status" json:"status"`

	// Trip counts (derived from the period's trips for this vehicle)
	TripsExecuted    int `db:"trips_executed" json:"tripsExecuted"`
	TripsVariation   int `db:"trips_variation" json:"tripsVariation"`
	TripsNotExecuted int `db:"trips_not_executed" json:"tripsNotExecuted"`

	// Component sums, whole pesos
	BaseFreight       int64 `db:"base_freight" json:"baseFreight"`
	TotalFuel         int64 `db:"total_fuel" json:"totalFuel"`
	TotalTolls        int64 `db:"total_tolls" json:"totalTolls"`
	TotalExtraFreight int64 `db:"total_extra_freight" json:"totalExtraFreight"`
	TotalOvernight    int64 `db:"total_overnight" json:"totalOvernight"`

	ManualAdjustmentAmount      int64  `db:"manual_adjustment_amount" json:"manualAdjustmentAmount"`
	ManualAdjustmentDescription string `db:"manual_adjustment_description" json:"manualAdjustmentDescription,omitempty"`

	// Derived totals. Subtotal is always recomputed from components;
	// NetPayable is always Subtotal - TotalDeductions.
	Subtotal        int64 `db:"subtotal" json:"subtotal"`
	TotalDeductions int64 `db:"total_deductions" json:"totalDeductions"`
	NetPayable      int64 `db:"net_payable" json:"netPayable"`

	// Ledger lines (separate table)
	Deductions []Deduction `db:"-" json:"deductions"`
}

// New creates a draft settlement for a (period, vehicle) pair.
func New(periodKey string, vehicleID, contractorID id.ID) *Liquidation {
	return &Liquidation{
		BaseDocument: entity.NewBaseDocument(),
		PeriodKey:    periodKey,
		VehicleID:    vehicleID,
		ContractorID: contractorID,
		Status:       StatusDraft,
		Deductions:   make([]Deduction, 0),
	}
}

// CanModify checks whether ledger operations are allowed.
func (l *Liquidation) CanModify() error {
	if l.Status == StatusApproved {
		return apperror.NewSettlementApproved(l.ID.String())
	}
	return nil
}

// RecalculateTotals rebuilds Subtotal, TotalDeductions and NetPayable from
// the component fields and the current ledger. Totals are never mutated
// independently anywhere else.
func (l *Liquidation) RecalculateTotals() {
	l.Subtotal = l.BaseFreight + l.TotalFuel + l.TotalTolls +
		l.TotalExtraFreight + l.TotalOvernight + l.ManualAdjustmentAmount

	l.TotalDeductions = 0
	for i := range l.Deductions {
		l.TotalDeductions += l.Deductions[i].Amount
	}

	l.NetPayable = l.Subtotal - l.TotalDeductions
}

// AutoWithholding returns the auto-managed withholding line, nil if absent.
func (l *Liquidation) AutoWithholding() *Deduction {
	for i := range l.Deductions {
		if l.Deductions[i].Kind == KindWithholding && l.Deductions[i].Source == SourceAuto {
			return &l.Deductions[i]
		}
	}
	return nil
}

// Validate implements entity.Validatable.
func (l *Liquidation) Validate(ctx context.Context) error {
	if l.PeriodKey == "" {
		return apperror.NewValidation("period is required").
			WithDetail("field", "periodKey")
	}
	if id.IsNil(l.VehicleID) {
		return apperror.NewValidation("vehicle is required").
			WithDetail("field", "vehicleId")
	}
	if id.IsNil(l.ContractorID) {
		return apperror.NewValidation("contractor is required").
			WithDetail("field", "contractorId")
	}
	if l.Status != StatusDraft && l.Status != StatusApproved {
		return apperror.NewValidation("invalid settlement status").
			WithDetail("field", "status").
			WithDetail("value", string(l.Status))
	}
	return nil
}
