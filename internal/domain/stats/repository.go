package stats

import (
	"context"

	"fletero/internal/domain/fleet"
	"fletero/internal/domain/liquidation"
	"fletero/internal/domain/trips"
)

// Repository batch-fetches the rows the rollups run over. Every method
// returns the full set for the requested periods in one call so the
// service never queries per entity.
type Repository interface {
	// ListSettledPeriods returns the keys of liquidated and paid periods
	// in chronological order.
	ListSettledPeriods(ctx context.Context) ([]string, error)

	// ListPayments returns the historical payment records of the periods.
	ListPayments(ctx context.Context, periodKeys []string) ([]Payment, error)

	// ListTrips returns every trip of the periods.
	ListTrips(ctx context.Context, periodKeys []string) ([]trips.Trip, error)

	// ListApprovedSettlements returns the approved settlements of the
	// periods; drafts are excluded from cost breakdowns.
	ListApprovedSettlements(ctx context.Context, periodKeys []string) ([]liquidation.Liquidation, error)

	// ListContractors and ListVehicles include inactive rows: historical
	// periods reference contractors that are long gone.
	ListContractors(ctx context.Context) ([]fleet.Contractor, error)
	ListVehicles(ctx context.Context) ([]fleet.Vehicle, error)
}
