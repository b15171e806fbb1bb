package trips

import (
	"testing"

	"fletero/internal/core/id"
)

func trip(status Status, fuel, tolls, extra, overnight int64, nights int) Trip {
	return Trip{
		VehicleID:        id.New(),
		Status:           status,
		CostFuel:         fuel,
		CostTolls:        tolls,
		CostExtraFreight: extra,
		CostOvernight:    overnight,
		OvernightNights:  nights,
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	totals := Aggregate(nil)
	if totals != (Totals{}) {
		t.Errorf("empty input must yield zero totals, got %+v", totals)
	}
}

func TestAggregate_VariationPaysSameAsExecuted(t *testing.T) {
	list := []Trip{
		trip(StatusExecuted, 10_000, 2_000, 0, 0, 0),
		trip(StatusVariation, 10_000, 2_000, 0, 0, 0),
	}
	totals := Aggregate(list)

	if totals.TripsExecuted != 1 || totals.TripsVariation != 1 {
		t.Errorf("counts = %d/%d, want 1/1", totals.TripsExecuted, totals.TripsVariation)
	}
	if totals.TotalFuel != 20_000 || totals.TotalTolls != 4_000 {
		t.Errorf("variation must accumulate costs identically: fuel=%d tolls=%d",
			totals.TotalFuel, totals.TotalTolls)
	}
	if totals.PaidTrips() != 2 {
		t.Errorf("PaidTrips = %d, want 2", totals.PaidTrips())
	}
}

func TestAggregate_NotExecutedAndPendingContributeNoCost(t *testing.T) {
	// Costs on a not_executed or pending trip are data-entry leftovers and
	// must never reach the totals.
	list := []Trip{
		trip(StatusNotExecuted, 5_000, 1_000, 500, 0, 0),
		trip(StatusPending, 9_999, 9_999, 9_999, 9_999, 3),
		trip(StatusExecuted, 1_000, 0, 0, 2_000, 1),
	}
	totals := Aggregate(list)

	if totals.TripsNotExecuted != 1 {
		t.Errorf("TripsNotExecuted = %d, want 1", totals.TripsNotExecuted)
	}
	if totals.TotalFuel != 1_000 || totals.TotalTolls != 0 || totals.TotalExtraFreight != 0 {
		t.Errorf("non-paid statuses leaked costs: %+v", totals)
	}
	if totals.TotalOvernight != 2_000 || totals.OvernightNights != 1 {
		t.Errorf("overnight = %d/%d nights, want 2000/1", totals.TotalOvernight, totals.OvernightNights)
	}
}

func TestAggregate_CountsPartitionTripList(t *testing.T) {
	list := []Trip{
		trip(StatusExecuted, 0, 0, 0, 0, 0),
		trip(StatusExecuted, 0, 0, 0, 0, 0),
		trip(StatusVariation, 0, 0, 0, 0, 0),
		trip(StatusNotExecuted, 0, 0, 0, 0, 0),
		trip(StatusPending, 0, 0, 0, 0, 0),
		trip(StatusPending, 0, 0, 0, 0, 0),
	}
	totals := Aggregate(list)

	sum := totals.TripsExecuted + totals.TripsVariation + totals.TripsNotExecuted + totals.PendingCount(len(list))
	if sum != len(list) {
		t.Errorf("status counts must partition the trip list: %d != %d", sum, len(list))
	}
	if totals.PendingCount(len(list)) != 2 {
		t.Errorf("PendingCount = %d, want 2", totals.PendingCount(len(list)))
	}
}

func TestAggregateByVehicle(t *testing.T) {
	v1, v2 := id.New(), id.New()
	list := []Trip{
		{VehicleID: v1, Status: StatusExecuted, CostFuel: 100},
		{VehicleID: v1, Status: StatusExecuted, CostFuel: 200},
		{VehicleID: v2, Status: StatusVariation, CostFuel: 50},
	}

	byVehicle := AggregateByVehicle(list)
	if len(byVehicle) != 2 {
		t.Fatalf("expected 2 vehicles, got %d", len(byVehicle))
	}
	if byVehicle[v1.String()].TotalFuel != 300 {
		t.Errorf("v1 fuel = %d, want 300", byVehicle[v1.String()].TotalFuel)
	}
	if byVehicle[v2.String()].TripsVariation != 1 {
		t.Errorf("v2 variation count = %d, want 1", byVehicle[v2.String()].TripsVariation)
	}
}

func TestEffectiveRouteID(t *testing.T) {
	scheduled, variation := id.New(), id.New()

	tr := Trip{Status: StatusVariation, ScheduledRouteID: &scheduled, VariationRouteID: &variation}
	if got := tr.EffectiveRouteID(); got == nil || *got != variation {
		t.Error("variation trip with variation route must report the variation route")
	}

	tr = Trip{Status: StatusVariation, ScheduledRouteID: &scheduled}
	if got := tr.EffectiveRouteID(); got == nil || *got != scheduled {
		t.Error("variation trip without variation route falls back to scheduled")
	}

	tr = Trip{Status: StatusExecuted, ScheduledRouteID: &scheduled, VariationRouteID: &variation}
	if got := tr.EffectiveRouteID(); got == nil || *got != scheduled {
		t.Error("executed trip always reports the scheduled route")
	}
}
