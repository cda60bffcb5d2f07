package trip

// Aggregator combines a Sequence, the active vehicle selection and the trip
// parameters into per-point and whole-trip totals, and evaluates the daily
// travel budget. Aggregation is pure: the same inputs always yield the same
// totals.
type Aggregator struct {
	params Parameters
}

func NewAggregator(params Parameters) *Aggregator {
	return &Aggregator{params: params}
}

// CostPerKm resolves the distance cost rate from the selected vehicle,
// falling back to the configured default when no vehicle is selected.
func (a *Aggregator) CostPerKm(vehicle *Vehicle) float64 {
	if vehicle != nil {
		return vehicle.CostPerKilometer
	}
	return a.params.CostPerKilometerDefault
}

// Aggregate recomputes every per-point cost and the whole-trip totals. Legs
// may be nil when no successful route computation exists yet; travel time and
// distance totals then fall back to the haversine prefills on the points.
func (a *Aggregator) Aggregate(seq Sequence, legs []Leg, vehicle *Vehicle) (Sequence, Totals) {
	costPerKm := a.CostPerKm(vehicle)

	next := seq.clone()

	var totals Totals
	for i, p := range next.points {
		if p.role == START {
			continue
		}

		stayCost := p.stayCostAmount
		stayMinutes := p.stayDurationMinutes
		if next.IsReturnToOrigin(p) {
			stayCost = 0
			stayMinutes = 0
		}

		if p.hasDistance {
			p.totalCostAtPoint = stayCost + costPerKm*p.distanceFromPreviousKm
			p.hasCost = true
		}

		totals.StayMinutes += stayMinutes
		next.points[i] = p
	}

	if len(legs) == len(next.points)-1 && len(legs) > 0 {
		for _, leg := range legs {
			totals.TravelMinutes += leg.DurationSeconds / 60
			totals.DistanceKm += leg.DistanceMeters / 1000
		}
	} else {
		for _, p := range next.points {
			if p.role == START {
				continue
			}
			if p.hasDistance {
				totals.DistanceKm += p.distanceFromPreviousKm
			}
			if p.hasDuration {
				totals.TravelMinutes += p.durationFromPreviousMinutes
			}
		}
	}

	totals.TimeMinutes = totals.TravelMinutes + totals.StayMinutes

	stayCostSum := 0.0
	for _, p := range next.points {
		if p.role == START || next.IsReturnToOrigin(p) {
			continue
		}
		stayCostSum += p.stayCostAmount
	}
	totals.Cost = totals.DistanceKm*costPerKm + stayCostSum

	if overage := totals.TimeMinutes - a.params.MaxTravelingMinutesPerDay; overage > 0 {
		totals.BudgetExceeded = true
		totals.OverageMinutes = overage
	}

	return next, totals
}
