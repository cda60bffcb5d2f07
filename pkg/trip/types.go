package trip

import (
	"github.com/ceylontrails/tripplanner/pkg/geo"
)

type Role uint8

const (
	START Role = iota
	WAYPOINT
	END
)

func (r Role) String() string {
	switch r {
	case START:
		return "start"
	case WAYPOINT:
		return "waypoint"
	case END:
		return "end"
	}
	return "unknown"
}

type State uint8

const (
	AWAITING_START State = iota
	ADDING_WAYPOINT
	ADDING_END
	COMPLETE
)

func (s State) String() string {
	switch s {
	case AWAITING_START:
		return "awaiting_start"
	case ADDING_WAYPOINT:
		return "adding_waypoint"
	case ADDING_END:
		return "adding_end"
	case COMPLETE:
		return "complete"
	}
	return "unknown"
}

// Point is one confirmed stop in the trip. The coordinate is immutable once
// set; a point is removed and re-added rather than moved.
type Point struct {
	id         string
	role       Role
	name       string
	address    string
	coord      geo.Coordinate
	catalogRef string // empty for freeform locations

	stayDurationMinutes float64
	stayCostAmount      float64

	// derived, valid only when the matching flag is set
	distanceFromPreviousKm      float64
	durationFromPreviousMinutes float64
	totalCostAtPoint            float64
	hasDistance                 bool
	hasDuration                 bool
	hasCost                     bool
}

func (p Point) GetID() string                 { return p.id }
func (p Point) GetRole() Role                 { return p.role }
func (p Point) GetName() string               { return p.name }
func (p Point) GetAddress() string            { return p.address }
func (p Point) GetCoordinate() geo.Coordinate { return p.coord }
func (p Point) GetCatalogRef() string         { return p.catalogRef }

func (p Point) GetStayDurationMinutes() float64 { return p.stayDurationMinutes }
func (p Point) GetStayCostAmount() float64      { return p.stayCostAmount }

func (p Point) GetDistanceFromPreviousKm() (float64, bool) {
	return p.distanceFromPreviousKm, p.hasDistance
}

func (p Point) GetDurationFromPreviousMinutes() (float64, bool) {
	return p.durationFromPreviousMinutes, p.hasDuration
}

func (p Point) GetTotalCostAtPoint() (float64, bool) {
	return p.totalCostAtPoint, p.hasCost
}

// Vehicle is one selectable vehicle from the catalog.
type Vehicle struct {
	ID                string  `json:"id"`
	VehicleType       string  `json:"vehicle_type"`
	PassengerCapacity int     `json:"passenger_capacity"`
	CostPerKilometer  float64 `json:"cost_per_kilometer"`
}

// Parameters holds the trip defaults and the daily travel budget, fetched once
// per session from the content API.
type Parameters struct {
	CostPerKilometerDefault    float64 `json:"cost_per_kilometer_default"`
	DefaultStayDurationMinutes float64 `json:"default_stay_duration_minutes"`
	DefaultStayCostAmount      float64 `json:"default_stay_cost_amount"`
	MaxTravelingMinutesPerDay  float64 `json:"max_traveling_minutes_per_day"`
}

// CatalogPlace is a pre-registered point of interest. Stay duration and cost
// are optional; absent values fall back to the Parameters defaults at
// selection time.
type CatalogPlace struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Coordinate          geo.Coordinate `json:"coordinate"`
	StayDurationMinutes *float64       `json:"stay_duration_minutes,omitempty"`
	StayCostAmount      *float64       `json:"stay_cost_amount,omitempty"`
}

// Leg is the routed travel segment between two consecutive points.
type Leg struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Totals is the aggregation over the whole trip.
type Totals struct {
	TravelMinutes  float64 `json:"travel_minutes"`
	StayMinutes    float64 `json:"stay_minutes"`
	TimeMinutes    float64 `json:"time_minutes"`
	DistanceKm     float64 `json:"distance_km"`
	Cost           float64 `json:"cost"`
	BudgetExceeded bool    `json:"budget_exceeded"`
	OverageMinutes float64 `json:"overage_minutes"`
}
