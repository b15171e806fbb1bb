package stats

import (
	"context"
	"fmt"

	"fletero/pkg/logger"
)

// Dashboard bundles every rollup the statistics screens consume. One
// service call fetches the settled window once and computes all of it
// in memory.
type Dashboard struct {
	Summary        Summary             `json:"summary"`
	Evolution      []EvolutionPoint    `json:"evolution"`
	Contractors    []ContractorMetrics `json:"contractors"`
	Vehicles       []VehicleMetrics    `json:"vehicles"`
	TopContractors []ContractorMetrics `json:"topContractors"`
	CostBreakdown  CostBreakdown       `json:"costBreakdown"`
	CostPercent    BreakdownPercent    `json:"costPercent"`
}

// Service computes dashboard statistics over settled periods.
type Service struct {
	repo Repository
}

// NewService creates a new statistics service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetDashboard batch-fetches all rows for the settled periods and runs
// every rollup. An empty system yields a zero-valued dashboard.
func (s *Service) GetDashboard(ctx context.Context) (*Dashboard, error) {
	periodKeys, err := s.repo.ListSettledPeriods(ctx)
	if err != nil {
		return nil, fmt.Errorf("list settled periods: %w", err)
	}
	if len(periodKeys) == 0 {
		return &Dashboard{}, nil
	}

	payments, err := s.repo.ListPayments(ctx, periodKeys)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	tripList, err := s.repo.ListTrips(ctx, periodKeys)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	settlements, err := s.repo.ListApprovedSettlements(ctx, periodKeys)
	if err != nil {
		return nil, fmt.Errorf("list settlements: %w", err)
	}
	contractors, err := s.repo.ListContractors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contractors: %w", err)
	}
	vehicles, err := s.repo.ListVehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}

	contractorMetrics := BuildContractorMetrics(contractors, vehicles, tripList, payments)
	breakdown := BuildCostBreakdown(settlements)

	d := &Dashboard{
		Summary:        BuildSummary(periodKeys, payments, tripList),
		Evolution:      BuildEvolution(periodKeys, payments, tripList),
		Contractors:    contractorMetrics,
		Vehicles:       BuildVehicleMetrics(vehicles, tripList, payments),
		TopContractors: TopContractors(contractorMetrics, DefaultTopLimit),
		CostBreakdown:  breakdown,
		CostPercent:    PercentageBreakdown(breakdown),
	}

	logger.Debug(ctx, "dashboard computed",
		"periods", len(periodKeys),
		"trips", len(tripList),
		"contractors", len(contractorMetrics))

	return d, nil
}

// GetSummary computes only the KPI block.
func (s *Service) GetSummary(ctx context.Context) (Summary, error) {
	periodKeys, err := s.repo.ListSettledPeriods(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list settled periods: %w", err)
	}
	if len(periodKeys) == 0 {
		return Summary{}, nil
	}
	payments, err := s.repo.ListPayments(ctx, periodKeys)
	if err != nil {
		return Summary{}, fmt.Errorf("list payments: %w", err)
	}
	tripList, err := s.repo.ListTrips(ctx, periodKeys)
	if err != nil {
		return Summary{}, fmt.Errorf("list trips: %w", err)
	}
	return BuildSummary(periodKeys, payments, tripList), nil
}

// GetTopContractors ranks contractors by total paid. limit <= 0 falls
// back to DefaultTopLimit.
func (s *Service) GetTopContractors(ctx context.Context, limit int) ([]ContractorMetrics, error) {
	periodKeys, err := s.repo.ListSettledPeriods(ctx)
	if err != nil {
		return nil, fmt.Errorf("list settled periods: %w", err)
	}
	if len(periodKeys) == 0 {
		return nil, nil
	}
	payments, err := s.repo.ListPayments(ctx, periodKeys)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	tripList, err := s.repo.ListTrips(ctx, periodKeys)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	contractors, err := s.repo.ListContractors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contractors: %w", err)
	}
	vehicles, err := s.repo.ListVehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return TopContractors(BuildContractorMetrics(contractors, vehicles, tripList, payments), limit), nil
}
