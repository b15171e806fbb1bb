package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"fletero/internal/core/apperror"
	"fletero/internal/core/id"
	"fletero/internal/domain/fleet"
)

const (
	contractorTable = "contractors"
	vehicleTable    = "vehicles"
)

var contractorColumns = []string{
	"id", "version", "name", "document_id",
	"phone", "email", "bank_name", "account_type", "account_number",
	"active",
}

// vehicleSelect joins the fleet link so LinkedCost comes back in the
// same round trip. The cost fields live in two places on purpose: the
// vehicle's own columns govern ad-hoc vehicles, the link's govern the
// rest; ResolveCostConfig picks.
const vehicleSelect = `
	SELECT v.id, v.version, v.plate, v.contractor_id, v.fleet_vehicle_id,
	       v.cost_modality, v.cost_per_trip, v.monthly_fixed_freight, v.active,
	       fv.cost_modality, fv.cost_per_trip, fv.monthly_fixed_freight
	FROM vehicles v
	LEFT JOIN fleet_vehicles fv ON fv.id = v.fleet_vehicle_id
`

var _ fleet.Repository = (*FleetRepo)(nil)

// FleetRepo implements fleet.Repository.
type FleetRepo struct {
	txManager *TxManager
}

// NewFleetRepo creates a new fleet repository.
func NewFleetRepo(txManager *TxManager) *FleetRepo {
	return &FleetRepo{txManager: txManager}
}

// ListActiveVehicles returns the active vehicles with cost configs loaded.
func (r *FleetRepo) ListActiveVehicles(ctx context.Context) ([]fleet.Vehicle, error) {
	query := vehicleSelect + ` WHERE v.active ORDER BY v.plate`
	return r.queryVehicles(ctx, query)
}

// ListVehicles returns every vehicle, inactive included.
func (r *FleetRepo) ListVehicles(ctx context.Context) ([]fleet.Vehicle, error) {
	return r.queryVehicles(ctx, vehicleSelect+` ORDER BY v.plate`)
}

// GetVehicle returns one vehicle with its cost config loaded.
func (r *FleetRepo) GetVehicle(ctx context.Context, vehicleID id.ID) (*fleet.Vehicle, error) {
	query := vehicleSelect + ` WHERE v.id = $1`

	vehicles, err := r.queryVehicles(ctx, query, vehicleID)
	if err != nil {
		return nil, err
	}
	if len(vehicles) == 0 {
		return nil, apperror.NewNotFound("vehicle", vehicleID.String())
	}
	return &vehicles[0], nil
}

func (r *FleetRepo) queryVehicles(ctx context.Context, query string, args ...any) ([]fleet.Vehicle, error) {
	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query vehicles: %w", err)
	}
	defer rows.Close()

	var out []fleet.Vehicle
	for rows.Next() {
		var v fleet.Vehicle
		var linkedModality *string
		var linkedPerTrip, linkedMonthly *int64

		err := rows.Scan(
			&v.ID, &v.Version, &v.Plate, &v.ContractorID, &v.FleetVehicleID,
			&v.AdHocCost.Modality, &v.AdHocCost.CostPerTrip, &v.AdHocCost.MonthlyFixedFreight,
			&v.Active,
			&linkedModality, &linkedPerTrip, &linkedMonthly,
		)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}

		if linkedModality != nil {
			v.LinkedCost = &fleet.CostConfig{
				Modality: fleet.CostModality(*linkedModality),
			}
			if linkedPerTrip != nil {
				v.LinkedCost.CostPerTrip = *linkedPerTrip
			}
			if linkedMonthly != nil {
				v.LinkedCost.MonthlyFixedFreight = *linkedMonthly
			}
		}

		out = append(out, v)
	}
	return out, rows.Err()
}

// ListContractors returns the contractor catalog, active and inactive.
func (r *FleetRepo) ListContractors(ctx context.Context) ([]fleet.Contractor, error) {
	q := qb.Select(contractorColumns...).
		From(contractorTable).
		OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []fleet.Contractor
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select contractors: %w", err)
	}
	return out, nil
}

// GetContractor returns one contractor.
func (r *FleetRepo) GetContractor(ctx context.Context, contractorID id.ID) (*fleet.Contractor, error) {
	q := qb.Select(contractorColumns...).
		From(contractorTable).
		Where(squirrel.Eq{"id": contractorID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c fleet.Contractor
	err = pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &c, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("contractor", contractorID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("get contractor: %w", err)
	}
	return &c, nil
}
