package liquidation

import (
	"testing"

	"fletero/internal/core/id"
	"fletero/internal/domain/fleet"
	"fletero/internal/domain/trips"
)

func TestBaseFreight_PerTrip(t *testing.T) {
	cfg := fleet.CostConfig{Modality: fleet.ModalityPerTrip, CostPerTrip: 10_000}
	totals := trips.Totals{TripsExecuted: 8, TripsVariation: 2}

	if got := BaseFreight(totals, cfg); got != 100_000 {
		t.Errorf("BaseFreight = %d, want 100000", got)
	}
}

func TestBaseFreight_FixedFreight(t *testing.T) {
	cfg := fleet.CostConfig{Modality: fleet.ModalityFixedFreight, MonthlyFixedFreight: 1_000_000}

	if got := BaseFreight(trips.Totals{TripsExecuted: 1}, cfg); got != 500_000 {
		t.Errorf("BaseFreight = %d, want 500000", got)
	}

	// Zero paid trips earn nothing even under the fixed modality.
	if got := BaseFreight(trips.Totals{TripsNotExecuted: 5}, cfg); got != 0 {
		t.Errorf("BaseFreight with no paid trips = %d, want 0", got)
	}

	// Odd monthly freight: the half rounds to whole pesos.
	cfg.MonthlyFixedFreight = 1_000_001
	if got := BaseFreight(trips.Totals{TripsExecuted: 1}, cfg); got != 500_001 {
		t.Errorf("BaseFreight = %d, want 500001", got)
	}
}

func TestBaseFreight_UnknownModalityIsZero(t *testing.T) {
	totals := trips.Totals{TripsExecuted: 3}

	for _, cfg := range []fleet.CostConfig{
		{Modality: fleet.ModalityNone, CostPerTrip: 10_000, MonthlyFixedFreight: 500_000},
		{Modality: "", CostPerTrip: 10_000},
		{Modality: "weird", CostPerTrip: 10_000},
	} {
		if got := BaseFreight(totals, cfg); got != 0 {
			t.Errorf("BaseFreight(%q) = %d, want 0", cfg.Modality, got)
		}
	}
}

func TestApply_EndToEnd(t *testing.T) {
	// Vehicle at 10,000/trip, 8 executed + 2 variation + 1 not executed,
	// 50,000 fuel, nothing else.
	l := New("2026-03-Q1", id.New(), id.New())
	totals := trips.Totals{
		TripsExecuted:    8,
		TripsVariation:   2,
		TripsNotExecuted: 1,
		TotalFuel:        50_000,
	}
	cfg := fleet.CostConfig{Modality: fleet.ModalityPerTrip, CostPerTrip: 10_000}

	Apply(l, totals, cfg)

	if l.BaseFreight != 100_000 {
		t.Errorf("BaseFreight = %d, want 100000", l.BaseFreight)
	}
	if l.Subtotal != 150_000 {
		t.Errorf("Subtotal = %d, want 150000", l.Subtotal)
	}
	w := l.AutoWithholding()
	if w == nil || w.Amount != 1_500 {
		t.Fatalf("auto withholding = %+v, want amount 1500", w)
	}
	if l.TotalDeductions != 1_500 {
		t.Errorf("TotalDeductions = %d, want 1500", l.TotalDeductions)
	}
	if l.NetPayable != 148_500 {
		t.Errorf("NetPayable = %d, want 148500", l.NetPayable)
	}
}

func TestApply_IsIdempotent(t *testing.T) {
	l := New("2026-03-Q1", id.New(), id.New())
	totals := trips.Totals{TripsExecuted: 4, TotalFuel: 20_000, TotalTolls: 5_000}
	cfg := fleet.CostConfig{Modality: fleet.ModalityPerTrip, CostPerTrip: 15_000}

	Apply(l, totals, cfg)
	first := *l
	firstWithholdingID := l.AutoWithholding().ID

	Apply(l, totals, cfg)

	if l.Subtotal != first.Subtotal || l.NetPayable != first.NetPayable {
		t.Errorf("recompute changed totals: %d/%d -> %d/%d",
			first.Subtotal, first.NetPayable, l.Subtotal, l.NetPayable)
	}
	count := 0
	for _, d := range l.Deductions {
		if d.Kind == KindWithholding && d.Source == SourceAuto {
			count++
		}
	}
	if count != 1 {
		t.Errorf("auto withholding lines = %d, want exactly 1", count)
	}
	if l.AutoWithholding().ID != firstWithholdingID {
		t.Error("recompute must update the withholding in place, not replace it")
	}
}

func TestApply_PreservesManualLedger(t *testing.T) {
	l := New("2026-03-Q1", id.New(), id.New())
	l.ManualAdjustmentAmount = -10_000
	manual := Deduction{
		LiquidationID: l.ID,
		Kind:          KindAdvance,
		Source:        SourceManual,
		Amount:        30_000,
	}
	manual.ID = id.New()
	l.Deductions = append(l.Deductions, manual)

	totals := trips.Totals{TripsExecuted: 10}
	cfg := fleet.CostConfig{Modality: fleet.ModalityPerTrip, CostPerTrip: 10_000}

	Apply(l, totals, cfg)

	// subtotal = 100,000 - 10,000 adjustment = 90,000; withholding 900
	if l.Subtotal != 90_000 {
		t.Errorf("Subtotal = %d, want 90000", l.Subtotal)
	}
	w := l.AutoWithholding()
	if w == nil || w.Amount != 900 {
		t.Fatalf("withholding = %+v, want 900", w)
	}
	if l.TotalDeductions != 30_900 {
		t.Errorf("TotalDeductions = %d, want 30900", l.TotalDeductions)
	}
	if l.NetPayable != l.Subtotal-l.TotalDeductions {
		t.Errorf("NetPayable invariant broken: %d != %d - %d",
			l.NetPayable, l.Subtotal, l.TotalDeductions)
	}

	found := false
	for _, d := range l.Deductions {
		if d.ID == manual.ID && d.Amount == 30_000 {
			found = true
		}
	}
	if !found {
		t.Error("manual deduction must survive recompute untouched")
	}
}

func TestApply_WithholdingDroppedOnNonPositiveSubtotal(t *testing.T) {
	l := New("2026-03-Q1", id.New(), id.New())
	totals := trips.Totals{TripsExecuted: 1}
	cfg := fleet.CostConfig{Modality: fleet.ModalityPerTrip, CostPerTrip: 10_000}

	Apply(l, totals, cfg)
	if l.AutoWithholding() == nil {
		t.Fatal("expected withholding on positive subtotal")
	}

	// A large negative adjustment wipes the subtotal; the auto line goes.
	l.ManualAdjustmentAmount = -50_000
	Apply(l, totals, cfg)

	if l.AutoWithholding() != nil {
		t.Error("withholding must be removed when subtotal is not positive")
	}
	if l.NetPayable != l.Subtotal {
		t.Errorf("NetPayable = %d, want %d", l.NetPayable, l.Subtotal)
	}
}

func TestApply_MissingCostConfigKeepsOtherComponents(t *testing.T) {
	// A vehicle without cost config still settles its surcharges.
	l := New("2026-03-Q1", id.New(), id.New())
	totals := trips.Totals{TripsExecuted: 3, TotalFuel: 40_000, TotalOvernight: 15_000}

	Apply(l, totals, fleet.CostConfig{})

	if l.BaseFreight != 0 {
		t.Errorf("BaseFreight = %d, want 0", l.BaseFreight)
	}
	if l.Subtotal != 55_000 {
		t.Errorf("Subtotal = %d, want 55000", l.Subtotal)
	}
}
