package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fletero/internal/core/id"
	"fletero/internal/domain/trips"
)

// qb is the shared squirrel builder for this package.
var qb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const tripTable = "trips"

var tripColumns = []string{
	"id", "version", "vehicle_id", "period_key", "date", "status",
	"cost_fuel", "cost_tolls", "cost_extra_freight", "cost_overnight",
	"overnight_nights", "scheduled_route_id", "variation_route_id",
}

var _ trips.Repository = (*TripRepo)(nil)

// TripRepo implements trips.Repository.
type TripRepo struct {
	txManager *TxManager
}

// NewTripRepo creates a new trip repository.
func NewTripRepo(txManager *TxManager) *TripRepo {
	return &TripRepo{txManager: txManager}
}

// ListByVehicleAndPeriod returns one vehicle's trips in a period.
func (r *TripRepo) ListByVehicleAndPeriod(ctx context.Context, vehicleID id.ID, periodKey string) ([]trips.Trip, error) {
	q := qb.Select(tripColumns...).
		From(tripTable).
		Where(squirrel.Eq{"vehicle_id": vehicleID, "period_key": periodKey}).
		OrderBy("date")

	return r.list(ctx, q)
}

// ListByPeriod returns every trip of a period, the batch-recompute input.
func (r *TripRepo) ListByPeriod(ctx context.Context, periodKey string) ([]trips.Trip, error) {
	q := qb.Select(tripColumns...).
		From(tripTable).
		Where(squirrel.Eq{"period_key": periodKey}).
		OrderBy("vehicle_id", "date")

	return r.list(ctx, q)
}

// CountByPeriod returns the trip count per vehicle in a period.
func (r *TripRepo) CountByPeriod(ctx context.Context, periodKey string) (map[id.ID]int, error) {
	query := `
		SELECT vehicle_id, COUNT(*)
		FROM trips
		WHERE period_key = $1
		GROUP BY vehicle_id
	`

	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, query, periodKey)
	if err != nil {
		return nil, fmt.Errorf("count trips: %w", err)
	}
	defer rows.Close()

	counts := make(map[id.ID]int)
	for rows.Next() {
		var vehicleID id.ID
		var count int
		if err := rows.Scan(&vehicleID, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[vehicleID] = count
	}
	return counts, rows.Err()
}

func (r *TripRepo) list(ctx context.Context, q squirrel.SelectBuilder) ([]trips.Trip, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []trips.Trip
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select trips: %w", err)
	}
	return out, nil
}
