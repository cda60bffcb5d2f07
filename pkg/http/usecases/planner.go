package usecases

import (
	"context"
	"time"

	"github.com/ceylontrails/tripplanner/pkg/catalog"
	"github.com/ceylontrails/tripplanner/pkg/geo"
	"github.com/ceylontrails/tripplanner/pkg/trip"
	"github.com/ceylontrails/tripplanner/pkg/util"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	sessionTTL      = 2 * time.Hour
	providerTimeout = 10 * time.Second
)

// PlannerService orchestrates the trip sequence, the routing gateway, the
// cost aggregation and the proximity search for every planning session.
type PlannerService struct {
	log          *zap.Logger
	gateway      RoutingGateway
	spatialIndex SpatialIndex
	catalog      *catalog.Snapshot
	aggregator   *trip.Aggregator

	sessions *gocache.Cache

	debounce          time.Duration
	proximityRadiusKm float64
	maxNearby         int

	notifier Notifier
}

func NewPlannerService(log *zap.Logger, gateway RoutingGateway, spatialIndex SpatialIndex,
	snapshot *catalog.Snapshot, debounce time.Duration, proximityRadiusKm float64, maxNearby int) *PlannerService {
	return &PlannerService{
		log:               log,
		gateway:           gateway,
		spatialIndex:      spatialIndex,
		catalog:           snapshot,
		aggregator:        trip.NewAggregator(snapshot.Parameters),
		sessions:          gocache.New(sessionTTL, sessionTTL/2),
		debounce:          debounce,
		proximityRadiusKm: proximityRadiusKm,
		maxNearby:         maxNearby,
	}
}

// SetNotifier wires the websocket hub after construction.
func (ps *PlannerService) SetNotifier(n Notifier) {
	ps.notifier = n
}

func (ps *PlannerService) Vehicles() []trip.Vehicle {
	return ps.catalog.Vehicles
}

func (ps *PlannerService) Places() []trip.CatalogPlace {
	return ps.catalog.Places
}

func (ps *PlannerService) CreateSession() *SessionView {
	s := newSession(uuid.NewString())
	ps.sessions.Set(s.id, s, gocache.DefaultExpiration)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

func (ps *PlannerService) session(id string) (*Session, error) {
	cached, ok := ps.sessions.Get(id)
	if !ok {
		return nil, util.WrapErrorf(nil, util.ErrNotFound, "no session with id %s", id)
	}
	return cached.(*Session), nil
}

func (ps *PlannerService) Session(id string) (*SessionView, error) {
	s, err := ps.session(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(), nil
}

// SetStart confirms the trip start from a captured coordinate. The address is
// resolved by reverse geocoding, falling back to a raw coordinate display.
func (ps *PlannerService) SetStart(ctx context.Context, sessionID, name string, coord geo.Coordinate) (*SessionView, error) {
	s, err := ps.session(sessionID)
	if err != nil {
		return nil, err
	}

	if !ps.gateway.InServiceArea(coord) {
		return nil, util.WrapErrorf(nil, util.ErrOutOfServiceArea,
			"location %f,%f is outside the supported service area", coord.Lat, coord.Lon)
	}

	address := ps.resolveAddress(ctx, coord)

	s.mu.Lock()
	defer s.mu.Unlock()

	seq, point, err := s.seq.SetStart(name, address, coord)
	if err != nil {
		return nil, err
	}
	s.seq = seq
	s.candidate = nil
	s.candidateMessage = ""
	ps.refreshNearby(s, point.GetCoordinate())
	ps.recomputeRoute(s)
	return s.view(), nil
}

// ConfirmCandidate turns the pending geocoded candidate into a point. The
// target role follows the current state: start, waypoint or end.
func (ps *PlannerService) ConfirmCandidate(sessionID string) (*SessionView, error) {
	s, err := ps.session(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.candidate == nil {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "no location candidate to confirm")
	}
	c := *s.candidate

	var (
		seq   trip.Sequence
		point trip.Point
	)
	switch s.seq.State() {
	case trip.AWAITING_START:
		seq, point, err = s.seq.SetStart(c.Name, c.Address, c.Coordinate)
	case trip.ADDING_WAYPOINT:
		seq, point, err = s.seq.AddWaypoint(c.Name, c.Address, c.Coordinate, nil, ps.catalog.Parameters)
	case trip.ADDING_END:
		seq, point, err = s.seq.SetEnd(c.Name, c.Address, c.Coordinate, nil, ps.catalog.Parameters)
	default:
		return nil, util.WrapErrorf(nil, util.ErrConflict, "cannot confirm a location in state %s", s.seq.State())
	}
	if err != nil {
		return nil, err
	}

	s.seq = seq
	s.candidate = nil
	s.candidateMessage = ""
	ps.refreshNearby(s, point.GetCoordinate())
	ps.recomputeRoute(s)
	return s.view(), nil
}

// SelectPlace confirms a catalog place as the next point, copying its stay
// duration and cost at selection time.
func (ps *PlannerService) SelectPlace(sessionID, placeID string) (*SessionView, error) {
	s, err := ps.session(sessionID)
	if err != nil {
		return nil, err
	}

	place, ok := ps.catalog.PlaceByID(placeID)
	if !ok {
		return nil, util.WrapErrorf(nil, util.ErrNotFound, "no catalog place with id %s", placeID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		seq   trip.Sequence
		point trip.Point
	)
	switch s.seq.State() {
	case trip.ADDING_WAYPOINT:
		seq, point, err = s.seq.AddWaypoint(place.Name, place.Name, place.Coordinate, &place, ps.catalog.Parameters)
	case trip.ADDING_END:
		seq, point, err = s.seq.SetEnd(place.Name, place.Name, place.Coordinate, &place, ps.catalog.Parameters)
	default:
		return nil, util.WrapErrorf(nil, util.ErrConflict, "cannot select a place in state %s", s.seq.State())
	}
	if err != nil {
		return nil, err
	}

	s.seq = seq
	ps.refreshNearby(s, point.GetCoordinate())
	ps.recomputeRoute(s)
	return s.view(), nil
}

func (ps *PlannerService) BeginEndEntry(sessionID string) (*SessionView, error) {
	return ps.transition(sessionID, trip.Sequence.BeginEndEntry)
}

func (ps *PlannerService) CancelEndEntry(sessionID string) (*SessionView, error) {
	return ps.transition(sessionID, trip.Sequence.CancelEndEntry)
}

func (ps *PlannerService) ConfirmStartOnly(sessionID string) (*SessionView, error) {
	return ps.transition(sessionID, trip.Sequence.ConfirmStartOnly)
}

func (ps *PlannerService) ResumeWaypointEntry(sessionID string) (*SessionView, error) {
	return ps.transition(sessionID, trip.Sequence.ResumeWaypointEntry)
}

func (ps *PlannerService) transition(sessionID string, op func(trip.Sequence) (trip.Sequence, error)) (*SessionView, error) {
	s, err := ps.session(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq, err := op(s.seq)
	if err != nil {
		return nil, err
	}
	s.seq = seq
	return s.view(), nil
}

// RemovePoint destroys a point. Removing the start resets the whole session.
func (ps *PlannerService) RemovePoint(sessionID, pointID string) (*SessionView, error) {
	s, err := ps.session(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq, err := s.seq.Remove(pointID)
	if err != nil {
		return nil, err
	}
	s.seq = seq

	if s.seq.Len() == 0 {
		s.route = nil
		s.legs = nil
		s.routeSig = ""
		s.totals = trip.Totals{}
		s.hasTotals = false
		s.nearby = nil
		s.candidate = nil
		s.candidateMessage = ""
		return s.view(), nil
	}

	ps.recomputeRoute(s)
	return s.view(), nil
}

// SelectVehicle changes the active vehicle and recomputes every per-point
// cost and the trip totals. The sequence is unchanged, so no routing request
// is issued.
func (ps *PlannerService) SelectVehicle(sessionID, vehicleID string) (*SessionView, error) {
	s, err := ps.session(sessionID)
	if err != nil {
		return nil, err
	}

	vehicle, ok := ps.catalog.VehicleByID(vehicleID)
	if !ok {
		return nil, util.WrapErrorf(nil, util.ErrNotFound, "no vehicle with id %s", vehicleID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.vehicle = &vehicle
	ps.reaggregate(s)
	return s.view(), nil
}

// recomputeRoute issues an asynchronous full-sequence route computation. The
// request carries the sequence signature it was computed for; a response is
// applied only when the signature still matches (latest request wins, never a
// blind overwrite). On provider failure the previous route and totals are
// left untouched. Caller must hold s.mu.
func (ps *PlannerService) recomputeRoute(s *Session) {
	coords := s.seq.Coordinates()
	if len(coords) < 2 {
		s.route = nil
		s.legs = nil
		s.routeSig = ""
		s.totals = trip.Totals{}
		s.hasTotals = false
		return
	}

	sig := s.seq.Signature()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), providerTimeout)
		defer cancel()

		route, err := ps.gateway.ComputeRoute(ctx, coords)

		s.mu.Lock()
		defer s.mu.Unlock()

		if err != nil {
			// previous route and totals stay on screen
			ps.log.Warn("route computation failed, keeping previous route",
				zap.String("session", s.id), zap.Error(err))
			return
		}
		if s.seq.Signature() != sig {
			ps.log.Debug("discarding stale route response", zap.String("session", s.id))
			return
		}

		seq, err := s.seq.ApplyLegs(route.Legs)
		if err != nil {
			ps.log.Warn("route response does not match sequence", zap.Error(err))
			return
		}
		s.seq = seq
		s.route = route
		s.legs = route.Legs
		s.routeSig = sig
		ps.reaggregate(s)
		ps.notify(s)
	}()
}

// reaggregate recomputes per-point costs and trip totals from the current
// sequence and vehicle. Caller must hold s.mu.
func (ps *PlannerService) reaggregate(s *Session) {
	if s.seq.Len() == 0 {
		s.totals = trip.Totals{}
		s.hasTotals = false
		return
	}

	legs := s.legs
	if s.routeSig != s.seq.Signature() {
		legs = nil
	}
	seq, totals := ps.aggregator.Aggregate(s.seq, legs, s.vehicle)
	s.seq = seq
	s.totals = totals
	s.hasTotals = true
}

func (ps *PlannerService) notify(s *Session) {
	if ps.notifier == nil {
		return
	}
	ps.notifier.Notify(s.id, s.view())
}

func (ps *PlannerService) resolveAddress(ctx context.Context, coord geo.Coordinate) string {
	rctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	address, err := ps.gateway.ReverseGeocode(rctx, coord)
	if err != nil {
		// non-fatal: fall back to the raw coordinate display
		ps.log.Debug("reverse geocode failed", zap.Error(err))
		return coord.String()
	}
	return address
}
