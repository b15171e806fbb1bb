package liquidation

import (
	"context"

	"fletero/internal/core/id"
	"fletero/internal/core/period"
)

// Repository defines the interface for settlement persistence.
type Repository interface {
	GetByID(ctx context.Context, liquidationID id.ID) (*Liquidation, error)

	// GetByPeriodAndVehicle returns the settlement for the upsert key,
	// or a NotFound AppError.
	GetByPeriodAndVehicle(ctx context.Context, periodKey string, vehicleID id.ID) (*Liquidation, error)

	// ListByPeriod returns all settlements in a period, without ledgers.
	ListByPeriod(ctx context.Context, periodKey string) ([]Liquidation, error)

	Create(ctx context.Context, l *Liquidation) error
	Update(ctx context.Context, l *Liquidation) error

	// Ledger lines
	GetDeduction(ctx context.Context, deductionID id.ID) (*Deduction, error)
	ListDeductions(ctx context.Context, liquidationID id.ID) ([]Deduction, error)
	// ListDeductionsByPeriod batch-loads every ledger line of a period so
	// the batch recompute never queries per settlement.
	ListDeductionsByPeriod(ctx context.Context, periodKey string) ([]Deduction, error)
	InsertDeduction(ctx context.Context, d *Deduction) error
	UpdateDeduction(ctx context.Context, d *Deduction) error
	DeleteDeduction(ctx context.Context, deductionID id.ID) error
}

// PeriodRepository tracks the settlement state of each period.
type PeriodRepository interface {
	// GetStatus returns the period status, defaulting to open for
	// periods never seen before.
	GetStatus(ctx context.Context, periodKey string) (period.Status, error)

	SetStatus(ctx context.Context, periodKey string, status period.Status) error
}

// Auditor records settlement mutations for the audit trail.
type Auditor interface {
	Log(ctx context.Context, entityType string, entityID id.ID, action string, changes any) error
}
