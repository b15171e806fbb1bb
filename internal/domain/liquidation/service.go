package liquidation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fletero/internal/core/apperror"
	"fletero/internal/core/id"
	"fletero/internal/core/period"
	"fletero/internal/core/tx"
	"fletero/internal/domain/fleet"
	"fletero/internal/domain/trips"
	"fletero/pkg/logger"
	"fletero/pkg/numerator"
)

// Service provides settlement business operations.
type Service struct {
	repo      Repository
	periods   PeriodRepository
	tripRepo  trips.Repository
	fleetRepo fleet.Repository
	numerator *numerator.Service
	txManager tx.Manager
	auditor   Auditor // optional

	// locks serializes recomputation per period key within this process.
	// Cross-process serialization is the caller's responsibility.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewService creates a new settlement service.
func NewService(
	repo Repository,
	periods PeriodRepository,
	tripRepo trips.Repository,
	fleetRepo fleet.Repository,
	num *numerator.Service,
	txManager tx.Manager,
	auditor Auditor,
) *Service {
	return &Service{
		repo:      repo,
		periods:   periods,
		tripRepo:  tripRepo,
		fleetRepo: fleetRepo,
		numerator: num,
		txManager: txManager,
		auditor:   auditor,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (s *Service) periodLock(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	if mu, ok := s.locks[key]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	s.locks[key] = mu
	return mu
}

// checkPeriodOpen rejects operations on paid periods.
func (s *Service) checkPeriodOpen(ctx context.Context, periodKey string) error {
	status, err := s.periods.GetStatus(ctx, periodKey)
	if err != nil {
		return fmt.Errorf("get period status: %w", err)
	}
	if status == period.StatusPaid {
		return apperror.NewPeriodClosed(periodKey)
	}
	return nil
}

// RecomputePeriod recomputes every settlement of the period in one batch:
// all trips, vehicles and existing settlements are fetched once, then joined
// in memory. Vehicles with zero trips in the period are skipped entirely.
// Safe to re-run any number of times; the (period, vehicle) key is upserted
// and the auto withholding is updated in place, never duplicated.
func (s *Service) RecomputePeriod(ctx context.Context, p period.Period) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	key := p.Key()

	mu := s.periodLock(key)
	mu.Lock()
	defer mu.Unlock()

	if err := s.checkPeriodOpen(ctx, key); err != nil {
		return 0, err
	}

	tripList, err := s.tripRepo.ListByPeriod(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("list trips: %w", err)
	}
	if len(tripList) == 0 {
		return 0, nil
	}

	vehicles, err := s.fleetRepo.ListActiveVehicles(ctx)
	if err != nil {
		return 0, fmt.Errorf("list vehicles: %w", err)
	}

	existing, err := s.loadPeriodSettlements(ctx, key)
	if err != nil {
		return 0, err
	}

	totalsByVehicle := trips.AggregateByVehicle(tripList)

	count := 0
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for i := range vehicles {
			v := &vehicles[i]
			totals, ok := totalsByVehicle[v.ID.String()]
			if !ok {
				continue // no trips this period, no settlement
			}
			if err := s.upsert(ctx, key, v, totals, existing[v.ID]); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info(ctx, "period recomputed",
		"period", key,
		"settlements", count)

	return count, nil
}

// RecomputeVehicle recomputes one vehicle's settlement for the period.
func (s *Service) RecomputeVehicle(ctx context.Context, p period.Period, vehicleID id.ID) (*Liquidation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	key := p.Key()

	mu := s.periodLock(key)
	mu.Lock()
	defer mu.Unlock()

	if err := s.checkPeriodOpen(ctx, key); err != nil {
		return nil, err
	}

	vehicle, err := s.fleetRepo.GetVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	tripList, err := s.tripRepo.ListByVehicleAndPeriod(ctx, vehicleID, key)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	if len(tripList) == 0 {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"vehicle has no trips in this period").
			WithDetail("vehicle_id", vehicleID.String()).
			WithDetail("period", key)
	}

	current, err := s.getByKey(ctx, key, vehicleID)
	if err != nil {
		return nil, err
	}

	totals := trips.Aggregate(tripList)

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.upsert(ctx, key, vehicle, totals, current)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetByPeriodAndVehicle(ctx, key, vehicleID)
}

// getByKey returns the settlement with its ledger, or nil when absent.
func (s *Service) getByKey(ctx context.Context, periodKey string, vehicleID id.ID) (*Liquidation, error) {
	l, err := s.repo.GetByPeriodAndVehicle(ctx, periodKey, vehicleID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	l.Deductions, err = s.repo.ListDeductions(ctx, l.ID)
	if err != nil {
		return nil, fmt.Errorf("list deductions: %w", err)
	}
	return l, nil
}

// loadPeriodSettlements batch-loads a period's settlements with their
// ledgers, indexed by vehicle.
func (s *Service) loadPeriodSettlements(ctx context.Context, periodKey string) (map[id.ID]*Liquidation, error) {
	list, err := s.repo.ListByPeriod(ctx, periodKey)
	if err != nil {
		return nil, fmt.Errorf("list settlements: %w", err)
	}

	deductions, err := s.repo.ListDeductionsByPeriod(ctx, periodKey)
	if err != nil {
		return nil, fmt.Errorf("list deductions: %w", err)
	}
	byLiquidation := make(map[id.ID][]Deduction)
	for _, d := range deductions {
		byLiquidation[d.LiquidationID] = append(byLiquidation[d.LiquidationID], d)
	}

	result := make(map[id.ID]*Liquidation, len(list))
	for i := range list {
		l := &list[i]
		l.Deductions = byLiquidation[l.ID]
		result[l.VehicleID] = l
	}
	return result, nil
}

// upsert writes the computed settlement for one vehicle: an update in place
// when a row exists for the (period, vehicle) key - preserving its id, its
// manual deductions and its manual adjustment - or an insert in draft status.
// Approved settlements are left untouched.
func (s *Service) upsert(ctx context.Context, periodKey string, v *fleet.Vehicle, totals trips.Totals, current *Liquidation) error {
	cfg := v.ResolveCostConfig()

	if current != nil {
		if current.Status == StatusApproved {
			logger.Debug(ctx, "skipping approved settlement",
				"settlement", current.Number,
				"vehicle", v.Plate)
			return nil
		}

		// Capture the pre-recompute auto line by id; Apply may compact
		// the ledger slice, so a pointer would not stay valid.
		var beforeID id.ID
		hadAuto := false
		if w := current.AutoWithholding(); w != nil {
			beforeID, hadAuto = w.ID, true
		}

		Apply(current, totals, cfg)
		current.Touch()

		if err := s.repo.Update(ctx, current); err != nil {
			return fmt.Errorf("update settlement %s: %w", current.ID, err)
		}
		return s.syncAutoWithholding(ctx, current, hadAuto, beforeID)
	}

	l := New(periodKey, v.ID, v.ContractorID)
	Apply(l, totals, cfg)

	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("LIQ"), time.Now())
	if err != nil {
		return fmt.Errorf("generate number: %w", err)
	}
	l.Number = number

	if err := l.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return fmt.Errorf("create settlement: %w", err)
	}
	if w := l.AutoWithholding(); w != nil {
		if err := s.repo.InsertDeduction(ctx, w); err != nil {
			return fmt.Errorf("insert withholding: %w", err)
		}
	}
	return nil
}

// syncAutoWithholding persists whatever Apply did to the auto line:
// update in place, insert when it appeared, delete when it vanished.
func (s *Service) syncAutoWithholding(ctx context.Context, l *Liquidation, hadAuto bool, beforeID id.ID) error {
	after := l.AutoWithholding()

	switch {
	case !hadAuto && after != nil:
		return s.repo.InsertDeduction(ctx, after)
	case hadAuto && after == nil:
		return s.repo.DeleteDeduction(ctx, beforeID)
	case after != nil:
		return s.repo.UpdateDeduction(ctx, after)
	default:
		return nil
	}
}

// --- Deduction ledger ---

// AddDeduction appends a manual deduction and recalculates the settlement
// totals. Rejects non-positive amounts before any mutation happens.
func (s *Service) AddDeduction(ctx context.Context, liquidationID id.ID, kind DeductionKind, amount int64, description string) (*Deduction, error) {
	if amount <= 0 {
		return nil, apperror.NewValidation("deduction amount must be positive").
			WithDetail("field", "amount").
			WithDetail("value", amount)
	}

	l, err := s.GetByID(ctx, liquidationID)
	if err != nil {
		return nil, err
	}
	if err := l.CanModify(); err != nil {
		return nil, err
	}

	d := &Deduction{
		LiquidationID: liquidationID,
		Kind:          kind,
		Source:        SourceManual,
		Amount:        amount,
		Description:   description,
	}
	d.ID = id.New()
	d.Version = 1
	if err := d.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.InsertDeduction(ctx, d); err != nil {
			return fmt.Errorf("insert deduction: %w", err)
		}
		l.Deductions = append(l.Deductions, *d)
		l.RecalculateTotals()
		l.Touch()
		return s.repo.Update(ctx, l)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, liquidationID, "deduction.add", d)
	return d, nil
}

// RemoveDeduction deletes a ledger line and recalculates totals.
func (s *Service) RemoveDeduction(ctx context.Context, deductionID id.ID) error {
	d, err := s.repo.GetDeduction(ctx, deductionID)
	if err != nil {
		return err
	}

	l, err := s.GetByID(ctx, d.LiquidationID)
	if err != nil {
		return err
	}
	if err := l.CanModify(); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.DeleteDeduction(ctx, deductionID); err != nil {
			return fmt.Errorf("delete deduction: %w", err)
		}
		kept := l.Deductions[:0]
		for _, existing := range l.Deductions {
			if existing.ID != deductionID {
				kept = append(kept, existing)
			}
		}
		l.Deductions = kept
		l.RecalculateTotals()
		l.Touch()
		return s.repo.Update(ctx, l)
	})
	if err != nil {
		return err
	}

	s.audit(ctx, d.LiquidationID, "deduction.remove", d)
	return nil
}

// SetManualAdjustment overwrites the settlement's manual adjustment (signed;
// zero clears it) and recomputes subtotal and net payable from components.
func (s *Service) SetManualAdjustment(ctx context.Context, liquidationID id.ID, amount int64, description string) (*Liquidation, error) {
	l, err := s.GetByID(ctx, liquidationID)
	if err != nil {
		return nil, err
	}
	if err := l.CanModify(); err != nil {
		return nil, err
	}

	l.ManualAdjustmentAmount = amount
	l.ManualAdjustmentDescription = description
	l.RecalculateTotals()
	l.Touch()

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, l)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, liquidationID, "adjustment.set", map[string]any{
		"amount":      amount,
		"description": description,
	})
	return l, nil
}

// Approve freezes a draft settlement. Further ledger operations fail with
// SETTLEMENT_ALREADY_APPROVED.
func (s *Service) Approve(ctx context.Context, liquidationID id.ID) (*Liquidation, error) {
	l, err := s.GetByID(ctx, liquidationID)
	if err != nil {
		return nil, err
	}
	if err := l.CanModify(); err != nil {
		return nil, err
	}

	l.Status = StatusApproved
	l.Touch()

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, l)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, liquidationID, "approve", map[string]any{"number": l.Number})

	logger.Info(ctx, "settlement approved",
		"settlement", l.Number,
		"net_payable", l.NetPayable)

	return l, nil
}

// --- Queries ---

// GetByID returns a settlement with its ledger.
func (s *Service) GetByID(ctx context.Context, liquidationID id.ID) (*Liquidation, error) {
	l, err := s.repo.GetByID(ctx, liquidationID)
	if err != nil {
		return nil, err
	}
	l.Deductions, err = s.repo.ListDeductions(ctx, l.ID)
	if err != nil {
		return nil, fmt.Errorf("list deductions: %w", err)
	}
	return l, nil
}

// ListByPeriod returns a period's settlements with ledgers attached.
func (s *Service) ListByPeriod(ctx context.Context, p period.Period) ([]Liquidation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	list, err := s.repo.ListByPeriod(ctx, p.Key())
	if err != nil {
		return nil, fmt.Errorf("list settlements: %w", err)
	}
	deductions, err := s.repo.ListDeductionsByPeriod(ctx, p.Key())
	if err != nil {
		return nil, fmt.Errorf("list deductions: %w", err)
	}
	byLiquidation := make(map[id.ID][]Deduction)
	for _, d := range deductions {
		byLiquidation[d.LiquidationID] = append(byLiquidation[d.LiquidationID], d)
	}
	for i := range list {
		list[i].Deductions = byLiquidation[list[i].ID]
	}
	return list, nil
}

// SetPeriodStatus transitions a period's settlement state.
func (s *Service) SetPeriodStatus(ctx context.Context, p period.Period, status period.Status) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.periods.SetStatus(ctx, p.Key(), status); err != nil {
		return fmt.Errorf("set period status: %w", err)
	}
	logger.Info(ctx, "period status changed", "period", p.Key(), "status", string(status))
	return nil
}

func (s *Service) audit(ctx context.Context, liquidationID id.ID, action string, changes any) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Log(ctx, "liquidation", liquidationID, action, changes); err != nil {
		logger.Warn(ctx, "audit log failed", "action", action, "error", err)
	}
}
