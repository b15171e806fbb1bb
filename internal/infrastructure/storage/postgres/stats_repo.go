package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fletero/internal/core/period"
	"fletero/internal/domain/fleet"
	"fletero/internal/domain/liquidation"
	"fletero/internal/domain/stats"
	"fletero/internal/domain/trips"
)

const paymentTable = "payments"

var _ stats.Repository = (*StatsRepo)(nil)

// StatsRepo implements stats.Repository. Reads only; every method pulls
// the full set for the requested periods in one query.
type StatsRepo struct {
	txManager *TxManager
	fleet     *FleetRepo
	trips     *TripRepo
}

// NewStatsRepo creates a new statistics repository.
func NewStatsRepo(txManager *TxManager) *StatsRepo {
	return &StatsRepo{
		txManager: txManager,
		fleet:     NewFleetRepo(txManager),
		trips:     NewTripRepo(txManager),
	}
}

// ListSettledPeriods returns liquidated and paid period keys in
// chronological order; keys sort chronologically by construction.
func (r *StatsRepo) ListSettledPeriods(ctx context.Context) ([]string, error) {
	q := qb.Select("key").
		From(periodTable).
		Where(squirrel.Eq{"status": []period.Status{period.StatusLiquidated, period.StatusPaid}}).
		OrderBy("key")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var keys []string
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &keys, sql, args...); err != nil {
		return nil, fmt.Errorf("select settled periods: %w", err)
	}
	return keys, nil
}

// ListPayments returns the historical payment records of the periods.
func (r *StatsRepo) ListPayments(ctx context.Context, periodKeys []string) ([]stats.Payment, error) {
	q := qb.Select("period_key", "contractor_id", "amount", "paid_at").
		From(paymentTable).
		Where(squirrel.Eq{"period_key": periodKeys}).
		OrderBy("paid_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []stats.Payment
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	return out, nil
}

// ListTrips returns every trip of the periods.
func (r *StatsRepo) ListTrips(ctx context.Context, periodKeys []string) ([]trips.Trip, error) {
	q := qb.Select(tripColumns...).
		From(tripTable).
		Where(squirrel.Eq{"period_key": periodKeys}).
		OrderBy("period_key", "date")

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

// ListApprovedSettlements returns the approved settlements of the periods.
func (r *StatsRepo) ListApprovedSettlements(ctx context.Context, periodKeys []string) ([]liquidation.Liquidation, error) {
	q := qb.Select(liquidationColumns...).
		From(liquidationTable).
		Where(squirrel.Eq{"period_key": periodKeys, "status": liquidation.StatusApproved}).
		OrderBy("period_key", "number")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []liquidation.Liquidation
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select settlements: %w", err)
	}
	return out, nil
}

// ListContractors includes inactive contractors; history references them.
func (r *StatsRepo) ListContractors(ctx context.Context) ([]fleet.Contractor, error) {
	return r.fleet.ListContractors(ctx)
}

// ListVehicles includes inactive vehicles.
func (r *StatsRepo) ListVehicles(ctx context.Context) ([]fleet.Vehicle, error) {
	return r.fleet.ListVehicles(ctx)
}
