// Package trips provides the scheduled/executed trip records and their
// per-period aggregation, the input of every settlement computation.
package trips

import (
	"context"
	"time"

	"fletero/internal/core/apperror"
	"fletero/internal/core/entity"
	"fletero/internal/core/id"
)

// Status is the execution state of a trip.
type Status string

const (
	// StatusPending - scheduled, not yet reported. Contributes nothing.
	StatusPending Status = "pending"
	// StatusExecuted - ran as scheduled. Counted and paid.
	StatusExecuted Status = "executed"
	// StatusVariation - ran on a different route. Paid the same as executed.
	StatusVariation Status = "variation"
	// StatusNotExecuted - did not run. Counted, never paid.
	StatusNotExecuted Status = "not_executed"
)

// Paid reports whether the trip counts toward the paid-trip total.
func (s Status) Paid() bool {
	return s == StatusExecuted || s == StatusVariation
}

// Trip is one vehicle-day record within a settlement period.
type Trip struct {
	entity.BaseEntity

	VehicleID id.ID     `db:"vehicle_id" json:"vehicleId"`
	PeriodKey string    `db:"period_key" json:"periodKey"`
	Date      time.Time `db:"date" json:"date"`
	Status    Status    `db:"status" json:"status"`

	// Costs are only meaningful for executed/variation trips; the
	// aggregator ignores them on every other status.
	CostFuel         int64 `db:"cost_fuel" json:"costFuel"`
	CostTolls        int64 `db:"cost_tolls" json:"costTolls"`
	CostExtraFreight int64 `db:"cost_extra_freight" json:"costExtraFreight"`
	CostOvernight    int64 `db:"cost_overnight" json:"costOvernight"`
	OvernightNights  int   `db:"overnight_nights" json:"overnightNights"`

	ScheduledRouteID *id.ID `db:"scheduled_route_id" json:"scheduledRouteId,omitempty"`
	VariationRouteID *id.ID `db:"variation_route_id" json:"variationRouteId,omitempty"`
}

// EffectiveRouteID returns the route the trip actually ran: the variation
// route when one was reported, the scheduled route otherwise. Nil when the
// trip has no route reference at all.
func (t *Trip) EffectiveRouteID() *id.ID {
	if t.Status == StatusVariation && t.VariationRouteID != nil {
		return t.VariationRouteID
	}
	return t.ScheduledRouteID
}

// Validate implements entity.Validatable.
func (t *Trip) Validate(ctx context.Context) error {
	switch t.Status {
	case StatusPending, StatusExecuted, StatusVariation, StatusNotExecuted:
	default:
		return apperror.NewValidation("invalid trip status").
			WithDetail("field", "status").
			WithDetail("value", string(t.Status))
	}

	if id.IsNil(t.VehicleID) {
		return apperror.NewValidation("vehicle is required").
			WithDetail("field", "vehicleId")
	}

	if t.CostFuel < 0 || t.CostTolls < 0 || t.CostExtraFreight < 0 || t.CostOvernight < 0 {
		return apperror.NewValidation("trip costs must be non-negative")
	}
	if t.OvernightNights < 0 {
		return apperror.NewValidation("overnight nights must be non-negative").
			WithDetail("field", "overnightNights")
	}

	return nil
}
