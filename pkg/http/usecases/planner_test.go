package usecases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ceylontrails/tripplanner/pkg/catalog"
	"github.com/ceylontrails/tripplanner/pkg/directions"
	"github.com/ceylontrails/tripplanner/pkg/geo"
	"github.com/ceylontrails/tripplanner/pkg/spatialindex"
	"github.com/ceylontrails/tripplanner/pkg/trip"
	"github.com/ceylontrails/tripplanner/pkg/util"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	colombo = geo.NewCoordinate(6.9271, 79.8612)
	kandy   = geo.NewCoordinate(7.2906, 80.6337)
	chennai = geo.NewCoordinate(13.0827, 80.2707)
)

type fakeGateway struct {
	mu           sync.Mutex
	area         *directions.ServiceArea
	routeErr     error
	routeGate    chan struct{}
	computeCalls int
	geocoded     []string
	geocodeFn    func(text string) (*directions.GeocodeResult, error)
	reverseFn    func(coord geo.Coordinate) (string, error)
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		area: directions.NewServiceArea(5.7, 79.4, 10.0, 82.1),
	}
}

func (g *fakeGateway) ComputeRoute(ctx context.Context, coords []geo.Coordinate) (*directions.Route, error) {
	g.mu.Lock()
	g.computeCalls++
	err := g.routeErr
	gate := g.routeGate
	g.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrRoutingUnavailable, "provider down")
	}

	legs := make([]trip.Leg, len(coords)-1)
	for i := range legs {
		legs[i] = trip.Leg{DistanceMeters: 10000, DurationSeconds: 600}
	}
	return &directions.Route{Legs: legs, Polyline: "fakepolyline"}, nil
}

func (g *fakeGateway) Geocode(ctx context.Context, text string) (*directions.GeocodeResult, error) {
	g.mu.Lock()
	g.geocoded = append(g.geocoded, text)
	fn := g.geocodeFn
	g.mu.Unlock()

	if fn != nil {
		return fn(text)
	}
	return &directions.GeocodeResult{Coordinate: kandy, FormattedAddress: text + ", Sri Lanka"}, nil
}

func (g *fakeGateway) ReverseGeocode(ctx context.Context, coord geo.Coordinate) (string, error) {
	if g.reverseFn != nil {
		return g.reverseFn(coord)
	}
	return "Resolved Address", nil
}

func (g *fakeGateway) InServiceArea(coord geo.Coordinate) bool {
	return g.area.Contains(coord)
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.computeCalls
}

func (g *fakeGateway) geocodedTexts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.geocoded...)
}

type fakeNotifier struct {
	mu    sync.Mutex
	count int
}

func (n *fakeNotifier) Notify(sessionID string, view *SessionView) {
	n.mu.Lock()
	n.count++
	n.mu.Unlock()
}

func (n *fakeNotifier) calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}

func testSnapshot() *catalog.Snapshot {
	places := []trip.CatalogPlace{
		{ID: "at-reference", Name: "At Reference", Coordinate: colombo},
		{ID: "five-km", Name: "Five Km Away", Coordinate: geo.NewCoordinate(6.9721, 79.8612)},
		{ID: "ten-km", Name: "Ten Km Away", Coordinate: geo.NewCoordinate(7.0171, 79.8612)},
		{ID: "fifteen-km", Name: "Fifteen Km Due North", Coordinate: geo.NewCoordinate(7.0621, 79.8612)},
		{ID: "twenty-five-km", Name: "Too Far", Coordinate: geo.NewCoordinate(7.1521, 79.8612)},
		{ID: "kandy-temple", Name: "Temple of the Tooth", Coordinate: kandy},
	}
	params := trip.Parameters{
		CostPerKilometerDefault:    100,
		DefaultStayDurationMinutes: 60,
		DefaultStayCostAmount:      500,
		MaxTravelingMinutesPerDay:  480,
	}
	vehicles := []trip.Vehicle{
		{ID: "van-1", VehicleType: "van", PassengerCapacity: 8, CostPerKilometer: 120},
	}
	return catalog.NewSnapshot(places, params, vehicles)
}

func newTestService(t *testing.T, gw *fakeGateway) *PlannerService {
	t.Helper()

	snapshot := testSnapshot()
	rtree := spatialindex.NewRtree()
	rtree.Build(snapshot.Places, zap.NewNop())

	return NewPlannerService(zap.NewNop(), gw, rtree, snapshot,
		20*time.Millisecond, 20.0, 20)
}

func startedSession(t *testing.T, ps *PlannerService) string {
	t.Helper()
	view := ps.CreateSession()
	_, err := ps.SetStart(context.Background(), view.ID, "My Hotel", colombo)
	require.NoError(t, err)
	return view.ID
}

func TestSetStartOutsideServiceArea(t *testing.T) {
	ps := newTestService(t, newFakeGateway())
	view := ps.CreateSession()

	_, err := ps.SetStart(context.Background(), view.ID, "Chennai", chennai)
	require.Error(t, err)

	var serviceErr *util.Error
	require.True(t, errors.As(err, &serviceErr))
	require.Equal(t, util.ErrOutOfServiceArea, serviceErr.Code())

	// session untouched
	after, err := ps.Session(view.ID)
	require.NoError(t, err)
	require.Equal(t, trip.AWAITING_START, after.State)
}

func TestSetStartResolvesAddress(t *testing.T) {
	gw := newFakeGateway()
	ps := newTestService(t, gw)
	view := ps.CreateSession()

	after, err := ps.SetStart(context.Background(), view.ID, "My Hotel", colombo)
	require.NoError(t, err)
	require.Equal(t, trip.ADDING_WAYPOINT, after.State)
	require.Equal(t, "Resolved Address", after.Points[0].GetAddress())
}

func TestSetStartFallsBackToCoordinateDisplay(t *testing.T) {
	gw := newFakeGateway()
	gw.reverseFn = func(coord geo.Coordinate) (string, error) {
		return "", util.WrapErrorf(nil, util.ErrReverseGeocodeFailed, "no result")
	}
	ps := newTestService(t, gw)
	view := ps.CreateSession()

	after, err := ps.SetStart(context.Background(), view.ID, "My Hotel", colombo)
	require.NoError(t, err)
	require.Equal(t, colombo.String(), after.Points[0].GetAddress())
}

func TestSelectPlaceComputesRouteAndTotals(t *testing.T) {
	gw := newFakeGateway()
	ps := newTestService(t, gw)
	id := startedSession(t, ps)

	_, err := ps.SelectPlace(id, "kandy-temple")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		view, err := ps.Session(id)
		return err == nil && view.Totals != nil
	}, time.Second, 5*time.Millisecond)

	view, err := ps.Session(id)
	require.NoError(t, err)
	require.Equal(t, 10.0, view.Totals.TravelMinutes)
	require.Equal(t, 60.0, view.Totals.StayMinutes)
	require.Equal(t, 10.0, view.Totals.DistanceKm)
	require.Equal(t, 10.0*100+500, view.Totals.Cost)
	require.Equal(t, "fakepolyline", view.RoutePolyline)
}

func TestRouteFailureKeepsPreviousTotals(t *testing.T) {
	gw := newFakeGateway()
	ps := newTestService(t, gw)
	id := startedSession(t, ps)

	_, err := ps.SelectPlace(id, "kandy-temple")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		view, err := ps.Session(id)
		return err == nil && view.Totals != nil
	}, time.Second, 5*time.Millisecond)

	gw.mu.Lock()
	gw.routeErr = errors.New("socket timeout")
	gw.mu.Unlock()

	_, err = ps.SelectPlace(id, "five-km")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return gw.calls() >= 2
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	// previous route and totals stay on display
	view, err := ps.Session(id)
	require.NoError(t, err)
	require.Len(t, view.Points, 3)
	require.NotNil(t, view.Totals)
	require.Equal(t, 10.0, view.Totals.DistanceKm)
	require.Equal(t, "fakepolyline", view.RoutePolyline)
}

func TestStaleRouteResponseDiscarded(t *testing.T) {
	gw := newFakeGateway()
	gate := make(chan struct{})
	gw.routeGate = gate
	ps := newTestService(t, gw)
	id := startedSession(t, ps)

	// two mutations issue two route computations, both held at the gate
	_, err := ps.SelectPlace(id, "kandy-temple")
	require.NoError(t, err)
	_, err = ps.SelectPlace(id, "five-km")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return gw.calls() == 2
	}, time.Second, 5*time.Millisecond)

	close(gate)

	// only the response matching the current sequence applies: three points,
	// two legs
	require.Eventually(t, func() bool {
		view, err := ps.Session(id)
		return err == nil && view.Totals != nil && view.Totals.DistanceKm == 20.0
	}, time.Second, 5*time.Millisecond)

	view, err := ps.Session(id)
	require.NoError(t, err)
	require.Equal(t, 20.0, view.Totals.DistanceKm)
	require.Equal(t, 20.0, view.Totals.TravelMinutes)
}

func TestSelectVehicleReaggregatesWithoutRouting(t *testing.T) {
	gw := newFakeGateway()
	ps := newTestService(t, gw)
	id := startedSession(t, ps)

	_, err := ps.SelectPlace(id, "kandy-temple")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		view, err := ps.Session(id)
		return err == nil && view.Totals != nil
	}, time.Second, 5*time.Millisecond)
	callsBefore := gw.calls()

	view, err := ps.SelectVehicle(id, "van-1")
	require.NoError(t, err)
	require.NotNil(t, view.Vehicle)

	// same distance, new rate, no new provider request
	require.Equal(t, 10.0*120+500, view.Totals.Cost)
	require.Equal(t, callsBefore, gw.calls())

	_, err = ps.SelectVehicle(id, "no-such-vehicle")
	require.Error(t, err)
}

func TestGeocodeDebounceLatestWins(t *testing.T) {
	gw := newFakeGateway()
	ps := newTestService(t, gw)
	id := startedSession(t, ps)

	_, err := ps.GeocodeFreeText(id, "kan")
	require.NoError(t, err)
	_, err = ps.GeocodeFreeText(id, "kandy")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		view, err := ps.Session(id)
		return err == nil && view.Candidate != nil
	}, time.Second, 5*time.Millisecond)

	view, err := ps.Session(id)
	require.NoError(t, err)
	require.Equal(t, "kandy", view.Candidate.Name)

	// the superseded lookup never reached the provider
	require.Equal(t, []string{"kandy"}, gw.geocodedTexts())
}

func TestGeocodeRejectedWhenTripComplete(t *testing.T) {
	ps := newTestService(t, newFakeGateway())
	id := startedSession(t, ps)

	_, err := ps.ConfirmStartOnly(id)
	require.NoError(t, err)

	_, err = ps.GeocodeFreeText(id, "kandy")
	require.Error(t, err)
}

func TestGeocodeOutOfAreaSetsMessage(t *testing.T) {
	gw := newFakeGateway()
	gw.geocodeFn = func(text string) (*directions.GeocodeResult, error) {
		return nil, util.WrapErrorf(nil, util.ErrOutOfServiceArea, "outside bounding box")
	}
	ps := newTestService(t, gw)
	id := startedSession(t, ps)

	_, err := ps.GeocodeFreeText(id, "chennai")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		view, err := ps.Session(id)
		return err == nil && view.Message != ""
	}, time.Second, 5*time.Millisecond)

	view, err := ps.Session(id)
	require.NoError(t, err)
	require.Nil(t, view.Candidate)
	require.Contains(t, view.Message, "outside the area")
}

func TestGeocodeProviderOutageSetsMessage(t *testing.T) {
	gw := newFakeGateway()
	gw.geocodeFn = func(text string) (*directions.GeocodeResult, error) {
		return nil, util.WrapErrorf(nil, util.ErrRoutingUnavailable, "provider down")
	}
	ps := newTestService(t, gw)
	id := startedSession(t, ps)

	_, err := ps.GeocodeFreeText(id, "kandy")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		view, err := ps.Session(id)
		return err == nil && view.Message != ""
	}, time.Second, 5*time.Millisecond)

	// an outage reads as a retryable failure, not a misspelled place
	view, err := ps.Session(id)
	require.NoError(t, err)
	require.Nil(t, view.Candidate)
	require.Contains(t, view.Message, "temporarily unavailable")
	require.NotContains(t, view.Message, "different spelling")
}

func TestConfirmCandidate(t *testing.T) {
	gw := newFakeGateway()
	ps := newTestService(t, gw)
	id := startedSession(t, ps)

	_, err := ps.ConfirmCandidate(id)
	require.Error(t, err)

	_, err = ps.GeocodeFreeText(id, "kandy")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		view, err := ps.Session(id)
		return err == nil && view.Candidate != nil
	}, time.Second, 5*time.Millisecond)

	view, err := ps.ConfirmCandidate(id)
	require.NoError(t, err)
	require.Len(t, view.Points, 2)
	require.Equal(t, "kandy", view.Points[1].GetName())
	require.Equal(t, "kandy, Sri Lanka", view.Points[1].GetAddress())
	require.Nil(t, view.Candidate)
}

func TestNearbyFilterAndOrdering(t *testing.T) {
	ps := newTestService(t, newFakeGateway())
	id := startedSession(t, ps)

	nearby, err := ps.Nearby(id)
	require.NoError(t, err)

	ids := make([]string, 0, len(nearby))
	for _, n := range nearby {
		ids = append(ids, n.Place.ID)
	}

	// nearest first; the reference point itself and anything beyond the
	// radius are excluded, while the outer band of the radius still counts
	require.Equal(t, []string{"five-km", "ten-km", "fifteen-km"}, ids)
	require.InDelta(t, 5.0, nearby[0].DistanceKm, 0.2)
	require.InDelta(t, 10.0, nearby[1].DistanceKm, 0.2)
	require.InDelta(t, 15.0, nearby[2].DistanceKm, 0.2)
}

func TestNearbyHiddenOutsideWaypointEntry(t *testing.T) {
	ps := newTestService(t, newFakeGateway())
	id := startedSession(t, ps)

	_, err := ps.BeginEndEntry(id)
	require.NoError(t, err)

	nearby, err := ps.Nearby(id)
	require.NoError(t, err)
	require.Empty(t, nearby)

	_, err = ps.CancelEndEntry(id)
	require.NoError(t, err)

	nearby, err = ps.Nearby(id)
	require.NoError(t, err)
	require.NotEmpty(t, nearby)
}

func TestRemoveStartResetsSession(t *testing.T) {
	gw := newFakeGateway()
	ps := newTestService(t, gw)
	id := startedSession(t, ps)

	_, err := ps.SelectPlace(id, "kandy-temple")
	require.NoError(t, err)

	view, err := ps.Session(id)
	require.NoError(t, err)

	after, err := ps.RemovePoint(id, view.Points[0].GetID())
	require.NoError(t, err)
	require.Equal(t, trip.AWAITING_START, after.State)
	require.Empty(t, after.Points)
	require.Nil(t, after.Totals)
	require.Empty(t, after.RoutePolyline)
}

func TestNotifierReceivesAsyncRecomputes(t *testing.T) {
	gw := newFakeGateway()
	ps := newTestService(t, gw)
	notifier := &fakeNotifier{}
	ps.SetNotifier(notifier)

	id := startedSession(t, ps)
	_, err := ps.SelectPlace(id, "kandy-temple")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return notifier.calls() > 0
	}, time.Second, 5*time.Millisecond)
}

func TestSessionNotFound(t *testing.T) {
	ps := newTestService(t, newFakeGateway())

	_, err := ps.Session("missing")
	require.Error(t, err)

	var serviceErr *util.Error
	require.True(t, errors.As(err, &serviceErr))
	require.Equal(t, util.ErrNotFound, serviceErr.Code())
}
