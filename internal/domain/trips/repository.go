package trips

import (
	"context"

	"fletero/internal/core/id"
)

// Repository defines the interface for trip persistence.
type Repository interface {
	// ListByVehicleAndPeriod returns one vehicle's trips within a period.
	ListByVehicleAndPeriod(ctx context.Context, vehicleID id.ID, periodKey string) ([]Trip, error)

	// ListByPeriod returns every trip in a period (all vehicles), for
	// batch recomputation. One query, never per-vehicle loops.
	ListByPeriod(ctx context.Context, periodKey string) ([]Trip, error)

	// CountByPeriod returns the total trip count per vehicle in a period.
	CountByPeriod(ctx context.Context, periodKey string) (map[id.ID]int, error)
}
