package usecases

import (
	"sync"
	"time"

	"github.com/ceylontrails/tripplanner/pkg/directions"
	"github.com/ceylontrails/tripplanner/pkg/geo"
	"github.com/ceylontrails/tripplanner/pkg/trip"
)

// Session holds the per-planning-session state. All mutating operations take
// the session mutex and run to completion before the next is accepted; the
// asynchronous route and geocode responses re-acquire it and are discarded
// when superseded.
type Session struct {
	mu sync.Mutex

	id  string
	seq trip.Sequence

	vehicle *trip.Vehicle

	// last successfully applied route; retained on provider failure so the
	// display never flickers to empty
	route    *directions.Route
	legs     []trip.Leg
	routeSig string

	totals    trip.Totals
	hasTotals bool

	nearby []NearbyPlace

	candidate        *Candidate
	candidateMessage string
	geocodeTimer     *time.Timer
	geocodeGen       uint64
}

func newSession(id string) *Session {
	return &Session{
		id:  id,
		seq: trip.NewSequence(),
	}
}

// Candidate is a geocoded location awaiting user confirmation. Confirming a
// new candidate while one is pending replaces it; confirmed points are never
// replaced implicitly.
type Candidate struct {
	Name       string         `json:"name"`
	Address    string         `json:"address"`
	Coordinate geo.Coordinate `json:"coordinate"`
}

// NearbyPlace is one proximity-search suggestion.
type NearbyPlace struct {
	Place      trip.CatalogPlace `json:"place"`
	DistanceKm float64           `json:"distance_km"`
}

// SessionView is an immutable snapshot of a session handed to the transport
// layer.
type SessionView struct {
	ID            string
	State         trip.State
	Points        []trip.Point
	Vehicle       *trip.Vehicle
	Totals        *trip.Totals
	Nearby        []NearbyPlace
	Candidate     *Candidate
	Message       string
	RoutePolyline string
}

// view builds a snapshot. Proximity suggestions are only surfaced while the
// session is adding waypoints and the result set is non-empty. Caller must
// hold s.mu.
func (s *Session) view() *SessionView {
	v := &SessionView{
		ID:      s.id,
		State:   s.seq.State(),
		Points:  s.seq.Points(),
		Message: s.candidateMessage,
	}
	if s.vehicle != nil {
		vehicle := *s.vehicle
		v.Vehicle = &vehicle
	}
	if s.hasTotals {
		totals := s.totals
		v.Totals = &totals
	}
	if s.candidate != nil {
		candidate := *s.candidate
		v.Candidate = &candidate
	}
	if s.seq.State() == trip.ADDING_WAYPOINT && len(s.nearby) > 0 {
		v.Nearby = append([]NearbyPlace(nil), s.nearby...)
	}
	if s.route != nil {
		v.RoutePolyline = s.route.Polyline
	}
	return v
}
