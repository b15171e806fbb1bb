package stats

import (
	"sort"

	"fletero/internal/core/id"
	"fletero/internal/core/types"
	"fletero/internal/domain/fleet"
	"fletero/internal/domain/liquidation"
	"fletero/internal/domain/trips"
)

// DefaultTopLimit is the contractor ranking size when the caller does not
// ask for a specific one.
const DefaultTopLimit = 5

// BuildSummary computes the KPI block across every settled period.
// Empty inputs yield a zero-valued Summary, never an error.
func BuildSummary(periodKeys []string, payments []Payment, tripList []trips.Trip) Summary {
	s := Summary{SettledPeriods: len(periodKeys)}

	for _, p := range payments {
		s.TotalPaid += p.Amount
	}

	totals := trips.Aggregate(tripList)
	s.TripsExecuted = totals.TripsExecuted
	s.TripsVariation = totals.TripsVariation
	s.TripsNotExecuted = totals.TripsNotExecuted

	return s
}

// BuildEvolution produces one point per settled period, in the order the
// period keys arrive (chronological, since keys sort chronologically).
func BuildEvolution(periodKeys []string, payments []Payment, tripList []trips.Trip) []EvolutionPoint {
	paidByPeriod := make(map[string]int64)
	for _, p := range payments {
		paidByPeriod[p.PeriodKey] += p.Amount
	}

	tripsByPeriod := make(map[string][]trips.Trip)
	for _, t := range tripList {
		tripsByPeriod[t.PeriodKey] = append(tripsByPeriod[t.PeriodKey], t)
	}

	points := make([]EvolutionPoint, 0, len(periodKeys))
	for _, key := range periodKeys {
		totals := trips.Aggregate(tripsByPeriod[key])
		paid := paidByPeriod[key]
		points = append(points, EvolutionPoint{
			PeriodKey:        key,
			TotalPaid:        paid,
			TripsExecuted:    totals.TripsExecuted,
			TripsVariation:   totals.TripsVariation,
			TripsNotExecuted: totals.TripsNotExecuted,
			CostPerTrip:      types.PerTripCost(paid, totals.PaidTrips()),
		})
	}
	return points
}

// BuildContractorMetrics aggregates per contractor, in the contractors'
// input order. Contractors without any trips or payments are omitted.
func BuildContractorMetrics(
	contractors []fleet.Contractor,
	vehicles []fleet.Vehicle,
	tripList []trips.Trip,
	payments []Payment,
) []ContractorMetrics {
	contractorByVehicle := make(map[id.ID]id.ID, len(vehicles))
	for _, v := range vehicles {
		contractorByVehicle[v.ID] = v.ContractorID
	}

	tripsByContractor := make(map[id.ID][]trips.Trip)
	activeVehicles := make(map[id.ID]map[id.ID]struct{})
	for _, t := range tripList {
		cid, ok := contractorByVehicle[t.VehicleID]
		if !ok {
			continue // trip of an unknown vehicle, nothing to attribute
		}
		tripsByContractor[cid] = append(tripsByContractor[cid], t)
		set, ok := activeVehicles[cid]
		if !ok {
			set = make(map[id.ID]struct{})
			activeVehicles[cid] = set
		}
		set[t.VehicleID] = struct{}{}
	}

	paidByContractor := make(map[id.ID]int64)
	for _, p := range payments {
		paidByContractor[p.ContractorID] += p.Amount
	}

	var out []ContractorMetrics
	for _, c := range contractors {
		list := tripsByContractor[c.ID]
		paid := paidByContractor[c.ID]
		if len(list) == 0 && paid == 0 {
			continue
		}

		totals := trips.Aggregate(list)
		paidTrips := totals.PaidTrips()
		out = append(out, ContractorMetrics{
			ContractorID: c.ID,
			Name:         c.Name,
			Vehicles:     len(activeVehicles[c.ID]),
			TotalTrips:   len(list),
			TotalPaid:    paid,
			CostPerTrip:  types.PerTripCost(paid, paidTrips),
			ComplianceRate: types.RoundMoney(
				types.SafeDivide(float64(paidTrips), float64(len(list))) * 100),
		})
	}
	return out
}

// BuildVehicleMetrics aggregates per vehicle, in the vehicles' input
// order; vehicles without trips are omitted. Payments are recorded per
// contractor, so each vehicle's paid amount is prorated by its share of
// the contractor's paid trips.
func BuildVehicleMetrics(vehicles []fleet.Vehicle, tripList []trips.Trip, payments []Payment) []VehicleMetrics {
	contractorByVehicle := make(map[id.ID]id.ID, len(vehicles))
	for _, v := range vehicles {
		contractorByVehicle[v.ID] = v.ContractorID
	}

	tripsByVehicle := make(map[id.ID][]trips.Trip)
	paidTripsByContractor := make(map[id.ID]int)
	for _, t := range tripList {
		tripsByVehicle[t.VehicleID] = append(tripsByVehicle[t.VehicleID], t)
		if t.Status.Paid() {
			if cid, ok := contractorByVehicle[t.VehicleID]; ok {
				paidTripsByContractor[cid]++
			}
		}
	}

	paidByContractor := make(map[id.ID]int64)
	for _, p := range payments {
		paidByContractor[p.ContractorID] += p.Amount
	}

	var out []VehicleMetrics
	for _, v := range vehicles {
		list := tripsByVehicle[v.ID]
		if len(list) == 0 {
			continue
		}

		totals := trips.Aggregate(list)
		share := types.SafeDivide(
			float64(totals.PaidTrips()),
			float64(paidTripsByContractor[v.ContractorID]))
		out = append(out, VehicleMetrics{
			VehicleID:    v.ID,
			Plate:        v.Plate,
			ContractorID: v.ContractorID,
			TotalTrips:   len(list),
			TotalPaid:    types.RoundMoney(share * float64(paidByContractor[v.ContractorID])),
		})
	}
	return out
}

// BuildCostBreakdown sums gross components across approved settlements.
// The caller passes settlements already restricted to settled periods.
func BuildCostBreakdown(settlements []liquidation.Liquidation) CostBreakdown {
	var b CostBreakdown
	for i := range settlements {
		l := &settlements[i]
		if l.Status != liquidation.StatusApproved {
			continue
		}
		b.BaseFreight += l.BaseFreight
		b.Fuel += l.TotalFuel
		b.Tolls += l.TotalTolls
		b.Overnight += l.TotalOvernight
		b.ExtraFreight += l.TotalExtraFreight
		b.Deductions += l.TotalDeductions
	}
	b.Total = b.BaseFreight + b.Fuel + b.Tolls + b.Overnight + b.ExtraFreight
	return b
}

// PercentageBreakdown expresses each gross category as a rounded share of
// the total. Every category is zero when the total is zero.
func PercentageBreakdown(b CostBreakdown) BreakdownPercent {
	if b.Total == 0 {
		return BreakdownPercent{}
	}
	pct := func(amount int64) int64 {
		return types.RoundMoney(float64(amount) / float64(b.Total) * 100)
	}
	return BreakdownPercent{
		BaseFreight:  pct(b.BaseFreight),
		Fuel:         pct(b.Fuel),
		Tolls:        pct(b.Tolls),
		Overnight:    pct(b.Overnight),
		ExtraFreight: pct(b.ExtraFreight),
	}
}

// TopContractors returns the limit highest-paid contractors, descending by
// TotalPaid with ties kept in input order. Limit <= 0 means DefaultTopLimit.
func TopContractors(metrics []ContractorMetrics, limit int) []ContractorMetrics {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	ranked := append([]ContractorMetrics(nil), metrics...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalPaid > ranked[j].TotalPaid
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
