package liquidation

import (
	"fletero/internal/core/entity"
	"fletero/internal/core/types"
	"fletero/internal/domain/fleet"
	"fletero/internal/domain/trips"
)

// withholdingPct is the automatic withholding applied to every subtotal.
const withholdingPct = 1.0

// BaseFreight computes a vehicle's base freight for the period.
//
// per_trip pays cost-per-trip times the paid-trip count. fixed_freight pays
// half the monthly freight per fortnight, but only when at least one trip
// was paid - zero paid trips earn nothing even under the fixed modality.
// An unset or unknown modality yields zero base freight; that is documented
// business behavior, not an error.
func BaseFreight(totals trips.Totals, cfg fleet.CostConfig) int64 {
	paid := totals.PaidTrips()

	switch cfg.Modality {
	case fleet.ModalityPerTrip:
		return cfg.CostPerTrip * int64(paid)
	case fleet.ModalityFixedFreight:
		if paid == 0 {
			return 0
		}
		return types.RoundMoney(float64(cfg.MonthlyFixedFreight) / 2)
	default:
		return 0
	}
}

// Apply writes the computed settlement onto l: trip counts, component sums,
// subtotal and the auto-managed withholding line. Manual deductions and the
// manual adjustment already on l are preserved, which makes recomputation
// idempotent for unchanged trip data.
func Apply(l *Liquidation, totals trips.Totals, cfg fleet.CostConfig) {
	l.TripsExecuted = totals.TripsExecuted
	l.TripsVariation = totals.TripsVariation
	l.TripsNotExecuted = totals.TripsNotExecuted

	l.BaseFreight = BaseFreight(totals, cfg)
	l.TotalFuel = totals.TotalFuel
	l.TotalTolls = totals.TotalTolls
	l.TotalExtraFreight = totals.TotalExtraFreight
	l.TotalOvernight = totals.TotalOvernight

	// Subtotal before deductions; the withholding depends on it.
	l.Subtotal = l.BaseFreight + l.TotalFuel + l.TotalTolls +
		l.TotalExtraFreight + l.TotalOvernight + l.ManualAdjustmentAmount

	upsertAutoWithholding(l, types.PercentOf(l.Subtotal, withholdingPct))

	l.RecalculateTotals()
}

// upsertAutoWithholding updates the single auto withholding line in place,
// creating it when missing and dropping it when the amount is no longer
// positive. Manually added withholding lines are left alone.
func upsertAutoWithholding(l *Liquidation, amount int64) {
	existing := l.AutoWithholding()

	if amount <= 0 {
		if existing != nil {
			kept := l.Deductions[:0]
			for _, d := range l.Deductions {
				if d.ID != existing.ID {
					kept = append(kept, d)
				}
			}
			l.Deductions = kept
		}
		return
	}

	if existing != nil {
		existing.Amount = amount
		return
	}

	d := Deduction{
		BaseEntity:    entity.NewBaseEntity(),
		LiquidationID: l.ID,
		Kind:          KindWithholding,
		Source:        SourceAuto,
		Amount:        amount,
		Description:   "Retención 1%",
	}
	l.Deductions = append(l.Deductions, d)
}
