package export

import (
	"context"
	"fmt"
	"io"

	"fletero/internal/core/period"
	"fletero/internal/domain/fleet"
	"fletero/internal/domain/liquidation"
	"fletero/pkg/logger"
)

// SettlementSource lists a period's settlements.
type SettlementSource interface {
	ListByPeriod(ctx context.Context, p period.Period) ([]liquidation.Liquidation, error)
}

// ContractorSource lists the contractor catalog.
type ContractorSource interface {
	ListContractors(ctx context.Context) ([]fleet.Contractor, error)
}

// Service assembles payment batches from a period's settlements.
type Service struct {
	settlements SettlementSource
	contractors ContractorSource
}

// NewService creates a new export service.
func NewService(settlements SettlementSource, contractors ContractorSource) *Service {
	return &Service{settlements: settlements, contractors: contractors}
}

// BuildBatch consolidates the period's settlements per contractor and
// returns the export rows with their totals. An empty period yields an
// empty batch, not an error.
func (s *Service) BuildBatch(ctx context.Context, p period.Period) ([]Row, Totals, error) {
	if err := p.Validate(); err != nil {
		return nil, Totals{}, err
	}

	settlements, err := s.settlements.ListByPeriod(ctx, p)
	if err != nil {
		return nil, Totals{}, fmt.Errorf("list settlements: %w", err)
	}
	contractors, err := s.contractors.ListContractors(ctx)
	if err != nil {
		return nil, Totals{}, fmt.Errorf("list contractors: %w", err)
	}

	rows := BuildRows(Consolidate(settlements, contractors), p)
	return rows, ComputeTotals(rows), nil
}

// WriteBatch streams the period's payment batch as a BOM-prefixed CSV.
func (s *Service) WriteBatch(ctx context.Context, w io.Writer, p period.Period) (Totals, error) {
	rows, totals, err := s.BuildBatch(ctx, p)
	if err != nil {
		return Totals{}, err
	}
	if err := WriteCSV(w, rows); err != nil {
		return Totals{}, err
	}

	logger.Info(ctx, "payment batch exported",
		"period", p.Key(),
		"rows", totals.Count,
		"total", totals.TotalAmount)

	return totals, nil
}
