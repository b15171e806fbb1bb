package trips

// Totals is the single-pass reduction of one vehicle's trips in one period.
type Totals struct {
	TripsExecuted     int   `json:"tripsExecuted"`
	TripsVariation    int   `json:"tripsVariation"`
	TripsNotExecuted  int   `json:"tripsNotExecuted"`
	TotalFuel         int64 `json:"totalFuel"`
	TotalTolls        int64 `json:"totalTolls"`
	TotalExtraFreight int64 `json:"totalExtraFreight"`
	TotalOvernight    int64 `json:"totalOvernight"`
	OvernightNights   int   `json:"overnightNights"`
}

// PaidTrips returns the number of trips that earn freight.
func (t Totals) PaidTrips() int {
	return t.TripsExecuted + t.TripsVariation
}

// PendingCount derives the pending count from the full trip count.
func (t Totals) PendingCount(totalTrips int) int {
	return totalTrips - t.TripsExecuted - t.TripsVariation - t.TripsNotExecuted
}

// Aggregate reduces a trip list into Totals.
//
// Executed and variation trips both count and both accumulate all four cost
// fields - a variation pays 100% the same as an executed trip. Not-executed
// trips only increment their counter. Pending trips contribute nothing.
func Aggregate(list []Trip) Totals {
	var totals Totals
	for i := range list {
		t := &list[i]
		switch t.Status {
		case StatusExecuted:
			totals.TripsExecuted++
		case StatusVariation:
			totals.TripsVariation++
		case StatusNotExecuted:
			totals.TripsNotExecuted++
			continue
		default:
			continue
		}

		totals.TotalFuel += t.CostFuel
		totals.TotalTolls += t.CostTolls
		totals.TotalExtraFreight += t.CostExtraFreight
		totals.TotalOvernight += t.CostOvernight
		totals.OvernightNights += t.OvernightNights
	}
	return totals
}

// AggregateByVehicle groups a period's trips by vehicle and reduces each
// group. Used by the batch recompute so the whole period is fetched once.
func AggregateByVehicle(list []Trip) map[string]Totals {
	grouped := make(map[string][]Trip)
	for _, t := range list {
		key := t.VehicleID.String()
		grouped[key] = append(grouped[key], t)
	}

	result := make(map[string]Totals, len(grouped))
	for key, vehicleTrips := range grouped {
		result[key] = Aggregate(vehicleTrips)
	}
	return result
}
