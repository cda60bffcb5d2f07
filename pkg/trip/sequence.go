package trip

import (
	"fmt"
	"strings"

	"github.com/ceylontrails/tripplanner/pkg/geo"
	"github.com/ceylontrails/tripplanner/pkg/util"
	"github.com/google/uuid"
)

// Sequence is the ordered collection of trip points plus the state machine
// governing how points may be added and removed. All mutating operations
// return a new Sequence snapshot; callers hold immutable values, which makes
// stale route responses mechanically checkable via Signature.
type Sequence struct {
	// canonical order: start, waypoints in insertion order, end
	points      []Point
	state       State
	resumeState State // state to return to when end entry is canceled
}

func NewSequence() Sequence {
	return Sequence{state: AWAITING_START}
}

func (s Sequence) clone() Sequence {
	pts := make([]Point, len(s.points))
	copy(pts, s.points)
	s.points = pts
	return s
}

func (s Sequence) State() State { return s.state }

// Points returns the canonical ordered point list.
func (s Sequence) Points() []Point {
	pts := make([]Point, len(s.points))
	copy(pts, s.points)
	return pts
}

func (s Sequence) Len() int { return len(s.points) }

func (s Sequence) hasEnd() bool {
	return len(s.points) > 0 && s.points[len(s.points)-1].role == END
}

func (s Sequence) start() (Point, bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	return s.points[0], true
}

// EndCoincidentWithStart reports whether the end point returns to the origin
// (round-trip policy: no visit is counted at the return to origin).
func (s Sequence) EndCoincidentWithStart() bool {
	if !s.hasEnd() {
		return false
	}
	return geo.Coincident(s.points[0].coord, s.points[len(s.points)-1].coord)
}

// IsReturnToOrigin reports whether p is an end point coincident with the start.
func (s Sequence) IsReturnToOrigin(p Point) bool {
	if p.role != END {
		return false
	}
	start, ok := s.start()
	if !ok {
		return false
	}
	return geo.Coincident(start.coord, p.coord)
}

// Coordinates returns the ordered coordinate list used for route computation.
func (s Sequence) Coordinates() []geo.Coordinate {
	coords := make([]geo.Coordinate, len(s.points))
	for i, p := range s.points {
		coords[i] = p.coord
	}
	return coords
}

// Signature is a deterministic fingerprint of the ordered coordinate list. A
// route response is applied only when the signature it was computed for still
// matches the current sequence.
func (s Sequence) Signature() string {
	var sb strings.Builder
	for _, p := range s.points {
		fmt.Fprintf(&sb, "%.6f,%.6f;", p.coord.Lat, p.coord.Lon)
	}
	return sb.String()
}

// SetStart confirms the start point. The start never carries a stay duration
// or cost: a traveler does not stay at their own starting location.
func (s Sequence) SetStart(name, address string, c geo.Coordinate) (Sequence, Point, error) {
	if s.state != AWAITING_START {
		return s, Point{}, util.WrapErrorf(nil, util.ErrConflict, "start already set, current state %s", s.state)
	}
	if !c.Valid() {
		return s, Point{}, util.WrapErrorf(nil, util.ErrBadParamInput, "invalid start coordinate %f,%f", c.Lat, c.Lon)
	}

	p := Point{
		id:      uuid.NewString(),
		role:    START,
		name:    name,
		address: address,
		coord:   c,
	}

	next := s.clone()
	next.points = append(next.points, p)
	next.state = ADDING_WAYPOINT
	return next, p, nil
}

// AddWaypoint confirms a new waypoint, from a catalog place or a geocoded
// freeform location. The distance from the previous confirmed point is
// prefilled with the haversine distance; the routing provider refines it on
// the next full-route recomputation.
func (s Sequence) AddWaypoint(name, address string, c geo.Coordinate, place *CatalogPlace, defaults Parameters) (Sequence, Point, error) {
	if s.state != ADDING_WAYPOINT {
		return s, Point{}, util.WrapErrorf(nil, util.ErrConflict, "cannot add waypoint in state %s", s.state)
	}
	if !c.Valid() {
		return s, Point{}, util.WrapErrorf(nil, util.ErrBadParamInput, "invalid waypoint coordinate %f,%f", c.Lat, c.Lon)
	}

	p := Point{
		id:      uuid.NewString(),
		role:    WAYPOINT,
		name:    name,
		address: address,
		coord:   c,
	}
	p.stayDurationMinutes, p.stayCostAmount = resolveStay(place, defaults)
	if place != nil {
		p.catalogRef = place.ID
	}

	next := s.clone()

	// a resumed waypoint goes before the end point
	insertAt := len(next.points)
	if next.hasEnd() {
		insertAt--
	}

	prev := next.points[insertAt-1]
	p.distanceFromPreviousKm = geo.CalculateHaversineDistance(prev.coord.Lat, prev.coord.Lon, c.Lat, c.Lon)
	p.hasDistance = true

	next.points = append(next.points, Point{})
	copy(next.points[insertAt+1:], next.points[insertAt:])
	next.points[insertAt] = p

	// the successor's previous point changed
	next.refreshPrefill(insertAt + 1)

	return next, p, nil
}

// BeginEndEntry transitions to end entry. Legal while no end point exists.
func (s Sequence) BeginEndEntry() (Sequence, error) {
	if s.state != ADDING_WAYPOINT && s.state != COMPLETE {
		return s, util.WrapErrorf(nil, util.ErrConflict, "cannot begin end entry in state %s", s.state)
	}
	if s.hasEnd() {
		return s, util.WrapErrorf(nil, util.ErrConflict, "end point already exists")
	}
	next := s.clone()
	next.resumeState = s.state
	next.state = ADDING_END
	return next, nil
}

// CancelEndEntry returns to whichever state applied before end entry.
func (s Sequence) CancelEndEntry() (Sequence, error) {
	if s.state != ADDING_END {
		return s, util.WrapErrorf(nil, util.ErrConflict, "not entering an end point, current state %s", s.state)
	}
	next := s.clone()
	next.state = next.resumeState
	return next, nil
}

// SetEnd confirms the end point. When the end coincides with the start the
// stay duration and cost are forced to zero regardless of catalog or default
// values.
func (s Sequence) SetEnd(name, address string, c geo.Coordinate, place *CatalogPlace, defaults Parameters) (Sequence, Point, error) {
	if s.state != ADDING_END {
		return s, Point{}, util.WrapErrorf(nil, util.ErrConflict, "cannot set end in state %s", s.state)
	}
	if !c.Valid() {
		return s, Point{}, util.WrapErrorf(nil, util.ErrBadParamInput, "invalid end coordinate %f,%f", c.Lat, c.Lon)
	}

	p := Point{
		id:      uuid.NewString(),
		role:    END,
		name:    name,
		address: address,
		coord:   c,
	}
	p.stayDurationMinutes, p.stayCostAmount = resolveStay(place, defaults)
	if place != nil {
		p.catalogRef = place.ID
	}

	start, _ := s.start()
	if geo.Coincident(start.coord, c) {
		p.stayDurationMinutes = 0
		p.stayCostAmount = 0
	}

	next := s.clone()
	prev := next.points[len(next.points)-1]
	p.distanceFromPreviousKm = geo.CalculateHaversineDistance(prev.coord.Lat, prev.coord.Lon, c.Lat, c.Lon)
	p.hasDistance = true

	next.points = append(next.points, p)
	next.state = COMPLETE
	return next, p, nil
}

// ConfirmStartOnly marks a start-only trip as complete with no further stops.
func (s Sequence) ConfirmStartOnly() (Sequence, error) {
	if s.state != ADDING_WAYPOINT {
		return s, util.WrapErrorf(nil, util.ErrConflict, "cannot confirm trip in state %s", s.state)
	}
	next := s.clone()
	next.state = COMPLETE
	return next, nil
}

// ResumeWaypointEntry re-enters waypoint entry from a complete trip.
func (s Sequence) ResumeWaypointEntry() (Sequence, error) {
	if s.state != COMPLETE {
		return s, util.WrapErrorf(nil, util.ErrConflict, "cannot resume waypoint entry in state %s", s.state)
	}
	next := s.clone()
	next.state = ADDING_WAYPOINT
	return next, nil
}

// Remove destroys a point. Removing the start resets the whole sequence;
// removing the end returns to waypoint entry.
func (s Sequence) Remove(id string) (Sequence, error) {
	if s.state == ADDING_END || s.state == AWAITING_START {
		return s, util.WrapErrorf(nil, util.ErrConflict, "cannot remove points in state %s", s.state)
	}

	idx := -1
	for i, p := range s.points {
		if p.id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s, util.WrapErrorf(nil, util.ErrNotFound, "no point with id %s", id)
	}

	if s.points[idx].role == START {
		return NewSequence(), nil
	}

	removedEnd := s.points[idx].role == END

	next := s.clone()
	next.points = append(next.points[:idx], next.points[idx+1:]...)
	if removedEnd {
		next.state = ADDING_WAYPOINT
	}

	next.refreshPrefill(idx)

	return next, nil
}

// refreshPrefill recomputes the haversine distance prefill for the point at
// idx after its predecessor changed, and drops its now stale routed duration.
func (s *Sequence) refreshPrefill(idx int) {
	if idx <= 0 || idx >= len(s.points) {
		return
	}
	prev := s.points[idx-1]
	p := s.points[idx]
	p.distanceFromPreviousKm = geo.CalculateHaversineDistance(prev.coord.Lat, prev.coord.Lon, p.coord.Lat, p.coord.Lon)
	p.hasDistance = true
	p.hasDuration = false
	s.points[idx] = p
}

// ApplyLegs fills the per-point derived leg fields from a successful route
// computation over the full ordered sequence.
func (s Sequence) ApplyLegs(legs []Leg) (Sequence, error) {
	if len(legs) != len(s.points)-1 {
		return s, util.WrapErrorf(nil, util.ErrBadParamInput, "expected %d legs, got %d", len(s.points)-1, len(legs))
	}

	next := s.clone()
	for i, leg := range legs {
		p := next.points[i+1]
		p.distanceFromPreviousKm = util.MetersToKilometers(leg.DistanceMeters)
		p.durationFromPreviousMinutes = util.SecondsToMinutes(leg.DurationSeconds)
		p.hasDistance = true
		p.hasDuration = true
		next.points[i+1] = p
	}
	return next, nil
}

func resolveStay(place *CatalogPlace, defaults Parameters) (float64, float64) {
	duration := defaults.DefaultStayDurationMinutes
	cost := defaults.DefaultStayCostAmount
	if place != nil {
		if place.StayDurationMinutes != nil {
			duration = *place.StayDurationMinutes
		}
		if place.StayCostAmount != nil {
			cost = *place.StayCostAmount
		}
	}
	return duration, cost
}
