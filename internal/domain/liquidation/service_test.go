package liquidation

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fletero/internal/core/apperror"
	"fletero/internal/core/id"
	"fletero/internal/core/period"
	"fletero/internal/domain/fleet"
	"fletero/internal/domain/trips"
	"fletero/pkg/numerator"
)

// --- In-memory fakes ---

type fakeRepo struct {
	liquidations map[id.ID]*Liquidation
	deductions   map[id.ID]*Deduction
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		liquidations: make(map[id.ID]*Liquidation),
		deductions:   make(map[id.ID]*Deduction),
	}
}

func (r *fakeRepo) GetByID(ctx context.Context, liquidationID id.ID) (*Liquidation, error) {
	l, ok := r.liquidations[liquidationID]
	if !ok {
		return nil, apperror.NewNotFound("liquidation", liquidationID.String())
	}
	cp := *l
	cp.Deductions = nil
	return &cp, nil
}

func (r *fakeRepo) GetByPeriodAndVehicle(ctx context.Context, periodKey string, vehicleID id.ID) (*Liquidation, error) {
	for _, l := range r.liquidations {
		if l.PeriodKey == periodKey && l.VehicleID == vehicleID {
			cp := *l
			cp.Deductions = nil
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("liquidation", vehicleID.String())
}

func (r *fakeRepo) ListByPeriod(ctx context.Context, periodKey string) ([]Liquidation, error) {
	var out []Liquidation
	for _, l := range r.liquidations {
		if l.PeriodKey == periodKey {
			cp := *l
			cp.Deductions = nil
			out = append(out, cp)
		}
	}
	return out, nil
}

func (r *fakeRepo) Create(ctx context.Context, l *Liquidation) error {
	cp := *l
	cp.Deductions = nil
	r.liquidations[l.ID] = &cp
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, l *Liquidation) error {
	if _, ok := r.liquidations[l.ID]; !ok {
		return apperror.NewNotFound("liquidation", l.ID.String())
	}
	cp := *l
	cp.Deductions = nil
	r.liquidations[l.ID] = &cp
	return nil
}

func (r *fakeRepo) GetDeduction(ctx context.Context, deductionID id.ID) (*Deduction, error) {
	d, ok := r.deductions[deductionID]
	if !ok {
		return nil, apperror.NewNotFound("deduction", deductionID.String())
	}
	cp := *d
	return &cp, nil
}

func (r *fakeRepo) ListDeductions(ctx context.Context, liquidationID id.ID) ([]Deduction, error) {
	var out []Deduction
	for _, d := range r.deductions {
		if d.LiquidationID == liquidationID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListDeductionsByPeriod(ctx context.Context, periodKey string) ([]Deduction, error) {
	var out []Deduction
	for _, d := range r.deductions {
		if l, ok := r.liquidations[d.LiquidationID]; ok && l.PeriodKey == periodKey {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeRepo) InsertDeduction(ctx context.Context, d *Deduction) error {
	cp := *d
	r.deductions[d.ID] = &cp
	return nil
}

func (r *fakeRepo) UpdateDeduction(ctx context.Context, d *Deduction) error {
	cp := *d
	r.deductions[d.ID] = &cp
	return nil
}

func (r *fakeRepo) DeleteDeduction(ctx context.Context, deductionID id.ID) error {
	delete(r.deductions, deductionID)
	return nil
}

type fakePeriodRepo struct {
	statuses map[string]period.Status
}

func (r *fakePeriodRepo) GetStatus(ctx context.Context, periodKey string) (period.Status, error) {
	if s, ok := r.statuses[periodKey]; ok {
		return s, nil
	}
	return period.StatusOpen, nil
}

func (r *fakePeriodRepo) SetStatus(ctx context.Context, periodKey string, status period.Status) error {
	r.statuses[periodKey] = status
	return nil
}

type fakeTripRepo struct {
	trips []trips.Trip
}

func (r *fakeTripRepo) ListByVehicleAndPeriod(ctx context.Context, vehicleID id.ID, periodKey string) ([]trips.Trip, error) {
	var out []trips.Trip
	for _, t := range r.trips {
		if t.VehicleID == vehicleID && t.PeriodKey == periodKey {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTripRepo) ListByPeriod(ctx context.Context, periodKey string) ([]trips.Trip, error) {
	var out []trips.Trip
	for _, t := range r.trips {
		if t.PeriodKey == periodKey {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTripRepo) CountByPeriod(ctx context.Context, periodKey string) (map[id.ID]int, error) {
	out := make(map[id.ID]int)
	for _, t := range r.trips {
		if t.PeriodKey == periodKey {
			out[t.VehicleID]++
		}
	}
	return out, nil
}

type fakeFleetRepo struct {
	vehicles    []fleet.Vehicle
	contractors []fleet.Contractor
}

func (r *fakeFleetRepo) ListActiveVehicles(ctx context.Context) ([]fleet.Vehicle, error) {
	return r.vehicles, nil
}

func (r *fakeFleetRepo) GetVehicle(ctx context.Context, vehicleID id.ID) (*fleet.Vehicle, error) {
	for i := range r.vehicles {
		if r.vehicles[i].ID == vehicleID {
			cp := r.vehicles[i]
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("vehicle", vehicleID.String())
}

func (r *fakeFleetRepo) ListContractors(ctx context.Context) ([]fleet.Contractor, error) {
	return r.contractors, nil
}

func (r *fakeFleetRepo) GetContractor(ctx context.Context, contractorID id.ID) (*fleet.Contractor, error) {
	for i := range r.contractors {
		if r.contractors[i].ID == contractorID {
			cp := r.contractors[i]
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("contractor", contractorID.String())
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Fake sequence querier for the numerator.
type seqRow struct{ val int64 }

func (r *seqRow) Scan(dest ...any) error {
	if ptr, ok := dest[0].(*int64); ok {
		*ptr = r.val
	}
	return nil
}

type seqQuerier struct{ current int64 }

func (q *seqQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.current++
	return &seqRow{val: q.current}
}

// --- Fixture ---

type fixture struct {
	svc      *Service
	repo     *fakeRepo
	periods  *fakePeriodRepo
	tripRepo *fakeTripRepo
	fleet    *fakeFleetRepo
	period   period.Period
}

func newFixture() *fixture {
	repo := newFakeRepo()
	periods := &fakePeriodRepo{statuses: make(map[string]period.Status)}
	tripRepo := &fakeTripRepo{}
	fleetRepo := &fakeFleetRepo{}

	svc := NewService(repo, periods, tripRepo, fleetRepo,
		numerator.New(&seqQuerier{}), fakeTxManager{}, nil)

	return &fixture{
		svc:      svc,
		repo:     repo,
		periods:  periods,
		tripRepo: tripRepo,
		fleet:    fleetRepo,
		period:   period.New(2026, time.March, period.FirstHalf),
	}
}

func (f *fixture) addVehicle(costPerTrip int64) fleet.Vehicle {
	v := fleet.Vehicle{
		Plate:        "ABC123",
		ContractorID: id.New(),
		AdHocCost:    fleet.CostConfig{Modality: fleet.ModalityPerTrip, CostPerTrip: costPerTrip},
		Active:       true,
	}
	v.ID = id.New()
	f.fleet.vehicles = append(f.fleet.vehicles, v)
	return v
}

func (f *fixture) addTrips(vehicleID id.ID, status trips.Status, n int, fuel int64) {
	for i := 0; i < n; i++ {
		t := trips.Trip{
			VehicleID: vehicleID,
			PeriodKey: f.period.Key(),
			Status:    status,
			CostFuel:  fuel,
		}
		t.ID = id.New()
		f.tripRepo.trips = append(f.tripRepo.trips, t)
	}
}

// --- Tests ---

func TestRecomputePeriod_CreatesSettlements(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	v1 := f.addVehicle(10_000)
	v2 := f.addVehicle(20_000)
	idle := f.addVehicle(10_000) // no trips: no settlement

	f.addTrips(v1.ID, trips.StatusExecuted, 8, 5_000)
	f.addTrips(v1.ID, trips.StatusVariation, 2, 5_000)
	f.addTrips(v1.ID, trips.StatusNotExecuted, 1, 0)
	f.addTrips(v2.ID, trips.StatusExecuted, 3, 0)

	count, err := f.svc.RecomputePeriod(ctx, f.period)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	l, err := f.svc.RecomputeVehicle(ctx, f.period, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), l.BaseFreight)
	assert.Equal(t, int64(150_000), l.Subtotal)
	assert.Equal(t, int64(148_500), l.NetPayable)
	assert.NotEmpty(t, l.Number)

	_, err = f.repo.GetByPeriodAndVehicle(ctx, f.period.Key(), idle.ID)
	assert.True(t, apperror.IsNotFound(err), "idle vehicle must not get a settlement")
}

func TestRecomputePeriod_IsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	v := f.addVehicle(10_000)
	f.addTrips(v.ID, trips.StatusExecuted, 5, 2_000)

	_, err := f.svc.RecomputePeriod(ctx, f.period)
	require.NoError(t, err)

	first, err := f.repo.GetByPeriodAndVehicle(ctx, f.period.Key(), v.ID)
	require.NoError(t, err)

	_, err = f.svc.RecomputePeriod(ctx, f.period)
	require.NoError(t, err)

	second, err := f.repo.GetByPeriodAndVehicle(ctx, f.period.Key(), v.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "recompute must upsert, not insert")
	assert.Equal(t, first.Number, second.Number)
	assert.Equal(t, first.Subtotal, second.Subtotal)
	assert.Equal(t, first.NetPayable, second.NetPayable)
	assert.Len(t, f.repo.liquidations, 1)

	withholdings := 0
	for _, d := range f.repo.deductions {
		if d.LiquidationID == first.ID && d.Kind == KindWithholding {
			withholdings++
		}
	}
	assert.Equal(t, 1, withholdings, "recompute must never duplicate the withholding")
}

func TestRecomputePeriod_ClosedPeriod(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.periods.statuses[f.period.Key()] = period.StatusPaid

	_, err := f.svc.RecomputePeriod(ctx, f.period)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePeriodClosed, appErr.Code)
}

func TestDeductionLedger_InvariantHolds(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	v := f.addVehicle(10_000)
	f.addTrips(v.ID, trips.StatusExecuted, 10, 0)

	_, err := f.svc.RecomputePeriod(ctx, f.period)
	require.NoError(t, err)
	stored, err := f.repo.GetByPeriodAndVehicle(ctx, f.period.Key(), v.ID)
	require.NoError(t, err)

	check := func() {
		l, err := f.svc.GetByID(ctx, stored.ID)
		require.NoError(t, err)
		var sum int64
		for _, d := range l.Deductions {
			sum += d.Amount
		}
		assert.Equal(t, sum, l.TotalDeductions)
		assert.Equal(t, l.Subtotal-l.TotalDeductions, l.NetPayable)
	}

	check()

	adv, err := f.svc.AddDeduction(ctx, stored.ID, KindAdvance, 25_000, "anticipo combustible")
	require.NoError(t, err)
	check()

	_, err = f.svc.AddDeduction(ctx, stored.ID, KindOther, 5_000, "")
	require.NoError(t, err)
	check()

	require.NoError(t, f.svc.RemoveDeduction(ctx, adv.ID))
	check()

	_, err = f.svc.SetManualAdjustment(ctx, stored.ID, -7_000, "descuento pactado")
	require.NoError(t, err)
	check()

	_, err = f.svc.SetManualAdjustment(ctx, stored.ID, 0, "")
	require.NoError(t, err)
	check()
}

func TestAddDeduction_RejectsNonPositiveAmount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	v := f.addVehicle(10_000)
	f.addTrips(v.ID, trips.StatusExecuted, 1, 0)
	_, err := f.svc.RecomputePeriod(ctx, f.period)
	require.NoError(t, err)
	stored, err := f.repo.GetByPeriodAndVehicle(ctx, f.period.Key(), v.ID)
	require.NoError(t, err)

	before := len(f.repo.deductions)

	for _, amount := range []int64{0, -100} {
		_, err := f.svc.AddDeduction(ctx, stored.ID, KindAdvance, amount, "")
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	}

	assert.Len(t, f.repo.deductions, before, "rejected deduction must not mutate anything")
}

func TestApprove_FreezesSettlement(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	v := f.addVehicle(10_000)
	f.addTrips(v.ID, trips.StatusExecuted, 4, 1_000)
	_, err := f.svc.RecomputePeriod(ctx, f.period)
	require.NoError(t, err)
	stored, err := f.repo.GetByPeriodAndVehicle(ctx, f.period.Key(), v.ID)
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)

	_, err = f.svc.AddDeduction(ctx, stored.ID, KindAdvance, 1_000, "")
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeSettlementApproved, appErr.Code)

	_, err = f.svc.SetManualAdjustment(ctx, stored.ID, 500, "")
	require.Error(t, err)

	// Recompute leaves the approved settlement untouched.
	netBefore := approved.NetPayable
	_, err = f.svc.RecomputePeriod(ctx, f.period)
	require.NoError(t, err)
	after, err := f.repo.GetByPeriodAndVehicle(ctx, f.period.Key(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, netBefore, after.NetPayable)
	assert.Equal(t, StatusApproved, after.Status)
}

func TestRecomputeVehicle_NoTrips(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	v := f.addVehicle(10_000)

	_, err := f.svc.RecomputeVehicle(ctx, f.period, v.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}
