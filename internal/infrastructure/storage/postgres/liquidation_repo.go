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
	"fletero/internal/core/period"
	"fletero/internal/domain/liquidation"
)

const (
	liquidationTable = "liquidations"
	deductionTable   = "deductions"
	periodTable      = "periods"
)

var liquidationColumns = []string{
	"id", "version", "created_at", "updated_at", "created_by", "updated_by",
	"number", "period_key", "vehicle_id", "contractor_id", "status",
	"trips_executed", "trips_variation", "trips_not_executed",
	"base_freight", "total_fuel", "total_tolls", "total_extra_freight", "total_overnight",
	"manual_adjustment_amount", "manual_adjustment_description",
	"subtotal", "total_deductions", "net_payable",
}

var deductionColumns = []string{
	"id", "version", "liquidation_id", "kind", "source", "amount", "description",
}

var _ liquidation.Repository = (*LiquidationRepo)(nil)

// LiquidationRepo implements liquidation.Repository.
type LiquidationRepo struct {
	txManager *TxManager
}

// NewLiquidationRepo creates a new settlement repository.
func NewLiquidationRepo(txManager *TxManager) *LiquidationRepo {
	return &LiquidationRepo{txManager: txManager}
}

// GetByID retrieves a settlement without its ledger.
func (r *LiquidationRepo) GetByID(ctx context.Context, liquidationID id.ID) (*liquidation.Liquidation, error) {
	return r.getOne(ctx, squirrel.Eq{"id": liquidationID}, liquidationID.String())
}

// GetByPeriodAndVehicle retrieves the settlement for the upsert key.
func (r *LiquidationRepo) GetByPeriodAndVehicle(ctx context.Context, periodKey string, vehicleID id.ID) (*liquidation.Liquidation, error) {
	return r.getOne(ctx,
		squirrel.Eq{"period_key": periodKey, "vehicle_id": vehicleID},
		periodKey+"/"+vehicleID.String())
}

func (r *LiquidationRepo) getOne(ctx context.Context, where squirrel.Eq, ref string) (*liquidation.Liquidation, error) {
	q := qb.Select(liquidationColumns...).
		From(liquidationTable).
		Where(where)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var l liquidation.Liquidation
	err = pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &l, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("liquidation", ref)
	}
	if err != nil {
		return nil, fmt.Errorf("get settlement: %w", err)
	}
	return &l, nil
}

// ListByPeriod returns all settlements in a period, without ledgers.
func (r *LiquidationRepo) ListByPeriod(ctx context.Context, periodKey string) ([]liquidation.Liquidation, error) {
	q := qb.Select(liquidationColumns...).
		From(liquidationTable).
		Where(squirrel.Eq{"period_key": periodKey}).
		OrderBy("number")

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

// Create inserts a new settlement. The (period_key, vehicle_id) unique
// index backs the upsert invariant at the storage level.
func (r *LiquidationRepo) Create(ctx context.Context, l *liquidation.Liquidation) error {
	q := qb.Insert(liquidationTable).
		Columns(liquidationColumns...).
		Values(
			l.ID, l.Version, l.CreatedAt, l.UpdatedAt, l.CreatedBy, l.UpdatedBy,
			l.Number, l.PeriodKey, l.VehicleID, l.ContractorID, l.Status,
			l.TripsExecuted, l.TripsVariation, l.TripsNotExecuted,
			l.BaseFreight, l.TotalFuel, l.TotalTolls, l.TotalExtraFreight, l.TotalOvernight,
			l.ManualAdjustmentAmount, l.ManualAdjustmentDescription,
			l.Subtotal, l.TotalDeductions, l.NetPayable,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}
	return nil
}

// Update writes a settlement back. The service bumps the version via
// Touch first; the guard rejects writes racing an already-newer row.
func (r *LiquidationRepo) Update(ctx context.Context, l *liquidation.Liquidation) error {
	q := qb.Update(liquidationTable).
		SetMap(map[string]any{
			"version":                       l.Version,
			"updated_at":                    l.UpdatedAt,
			"updated_by":                    l.UpdatedBy,
			"number":                        l.Number,
			"status":                        l.Status,
			"trips_executed":                l.TripsExecuted,
			"trips_variation":               l.TripsVariation,
			"trips_not_executed":            l.TripsNotExecuted,
			"base_freight":                  l.BaseFreight,
			"total_fuel":                    l.TotalFuel,
			"total_tolls":                   l.TotalTolls,
			"total_extra_freight":           l.TotalExtraFreight,
			"total_overnight":               l.TotalOvernight,
			"manual_adjustment_amount":      l.ManualAdjustmentAmount,
			"manual_adjustment_description": l.ManualAdjustmentDescription,
			"subtotal":                      l.Subtotal,
			"total_deductions":              l.TotalDeductions,
			"net_payable":                   l.NetPayable,
		}).
		Where(squirrel.Eq{"id": l.ID}).
		Where(squirrel.Lt{"version": l.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update settlement: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("liquidation", l.ID.String())
	}
	return nil
}

// --- Ledger lines ---

// GetDeduction retrieves one ledger line.
func (r *LiquidationRepo) GetDeduction(ctx context.Context, deductionID id.ID) (*liquidation.Deduction, error) {
	q := qb.Select(deductionColumns...).
		From(deductionTable).
		Where(squirrel.Eq{"id": deductionID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var d liquidation.Deduction
	err = pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &d, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("deduction", deductionID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("get deduction: %w", err)
	}
	return &d, nil
}

// ListDeductions returns one settlement's ledger.
func (r *LiquidationRepo) ListDeductions(ctx context.Context, liquidationID id.ID) ([]liquidation.Deduction, error) {
	q := qb.Select(deductionColumns...).
		From(deductionTable).
		Where(squirrel.Eq{"liquidation_id": liquidationID}).
		OrderBy("id")

	return r.listDeductions(ctx, q)
}

// ListDeductionsByPeriod batch-loads every ledger line of a period.
func (r *LiquidationRepo) ListDeductionsByPeriod(ctx context.Context, periodKey string) ([]liquidation.Deduction, error) {
	cols := make([]string, len(deductionColumns))
	for i, c := range deductionColumns {
		cols[i] = "d." + c
	}

	q := qb.Select(cols...).
		From(deductionTable + " d").
		Join(liquidationTable + " l ON l.id = d.liquidation_id").
		Where(squirrel.Eq{"l.period_key": periodKey}).
		OrderBy("d.id")

	return r.listDeductions(ctx, q)
}

func (r *LiquidationRepo) listDeductions(ctx context.Context, q squirrel.SelectBuilder) ([]liquidation.Deduction, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []liquidation.Deduction
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select deductions: %w", err)
	}
	return out, nil
}

// InsertDeduction appends a ledger line.
func (r *LiquidationRepo) InsertDeduction(ctx context.Context, d *liquidation.Deduction) error {
	q := qb.Insert(deductionTable).
		Columns(deductionColumns...).
		Values(d.ID, d.Version, d.LiquidationID, d.Kind, d.Source, d.Amount, d.Description)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert deduction: %w", err)
	}
	return nil
}

// UpdateDeduction rewrites a ledger line; the recompute uses this to
// adjust the auto withholding in place.
func (r *LiquidationRepo) UpdateDeduction(ctx context.Context, d *liquidation.Deduction) error {
	q := qb.Update(deductionTable).
		SetMap(map[string]any{
			"kind":        d.Kind,
			"source":      d.Source,
			"amount":      d.Amount,
			"description": d.Description,
			"version":     squirrel.Expr("version + 1"),
		}).
		Where(squirrel.Eq{"id": d.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update deduction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("deduction", d.ID.String())
	}
	return nil
}

// DeleteDeduction removes a ledger line.
func (r *LiquidationRepo) DeleteDeduction(ctx context.Context, deductionID id.ID) error {
	q := qb.Delete(deductionTable).Where(squirrel.Eq{"id": deductionID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete deduction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("deduction", deductionID.String())
	}
	return nil
}

// --- Periods ---

var _ liquidation.PeriodRepository = (*PeriodRepo)(nil)

// PeriodRepo implements liquidation.PeriodRepository. Periods only get a
// row once their status moves off the default.
type PeriodRepo struct {
	txManager *TxManager
}

// NewPeriodRepo creates a new period repository.
func NewPeriodRepo(txManager *TxManager) *PeriodRepo {
	return &PeriodRepo{txManager: txManager}
}

// GetStatus returns the period status, open for periods never seen.
func (r *PeriodRepo) GetStatus(ctx context.Context, periodKey string) (period.Status, error) {
	var status period.Status
	err := r.txManager.GetQuerier(ctx).
		QueryRow(ctx, `SELECT status FROM periods WHERE key = $1`, periodKey).
		Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return period.StatusOpen, nil
	}
	if err != nil {
		return "", fmt.Errorf("get period status: %w", err)
	}
	return status, nil
}

// SetStatus upserts the period status row.
func (r *PeriodRepo) SetStatus(ctx context.Context, periodKey string, status period.Status) error {
	query := `
		INSERT INTO periods (key, status)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET status = $2
	`

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, query, periodKey, status); err != nil {
		return fmt.Errorf("set period status: %w", err)
	}
	return nil
}
