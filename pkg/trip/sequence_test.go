package trip

import (
	"testing"

	"github.com/ceylontrails/tripplanner/pkg/geo"
	"github.com/stretchr/testify/require"
)

var testDefaults = Parameters{
	CostPerKilometerDefault:    100,
	DefaultStayDurationMinutes: 60,
	DefaultStayCostAmount:      500,
	MaxTravelingMinutesPerDay:  480,
}

var (
	colombo  = geo.NewCoordinate(6.9271, 79.8612)
	kandy    = geo.NewCoordinate(7.2906, 80.6337)
	galle    = geo.NewCoordinate(6.0535, 80.2210)
	sigiriya = geo.NewCoordinate(7.9570, 80.7603)
	trinco   = geo.NewCoordinate(8.5874, 81.2152)
)

func mustStart(t *testing.T) Sequence {
	t.Helper()
	seq, _, err := NewSequence().SetStart("Colombo", "Colombo, Sri Lanka", colombo)
	require.NoError(t, err)
	return seq
}

func TestSetStart(t *testing.T) {
	seq := NewSequence()
	require.Equal(t, AWAITING_START, seq.State())

	seq, start, err := seq.SetStart("Colombo", "Colombo, Sri Lanka", colombo)
	require.NoError(t, err)
	require.Equal(t, ADDING_WAYPOINT, seq.State())
	require.Equal(t, START, start.GetRole())

	// the start never carries a stay
	require.Zero(t, start.GetStayDurationMinutes())
	require.Zero(t, start.GetStayCostAmount())

	_, _, err = seq.SetStart("again", "", kandy)
	require.Error(t, err)
}

func TestAddWaypointKeepsCanonicalOrder(t *testing.T) {
	seq := mustStart(t)

	seq, _, err := seq.AddWaypoint("Kandy", "", kandy, nil, testDefaults)
	require.NoError(t, err)
	seq, _, err = seq.AddWaypoint("Sigiriya", "", sigiriya, nil, testDefaults)
	require.NoError(t, err)

	seq, err = seq.BeginEndEntry()
	require.NoError(t, err)
	seq, _, err = seq.SetEnd("Galle", "", galle, nil, testDefaults)
	require.NoError(t, err)
	require.Equal(t, COMPLETE, seq.State())

	// resumption: a waypoint added after the end exists is inserted before it
	seq, err = seq.ResumeWaypointEntry()
	require.NoError(t, err)
	seq, _, err = seq.AddWaypoint("Trincomalee", "", trinco, nil, testDefaults)
	require.NoError(t, err)

	points := seq.Points()
	require.Len(t, points, 5)
	require.Equal(t, START, points[0].GetRole())
	require.Equal(t, "Kandy", points[1].GetName())
	require.Equal(t, "Sigiriya", points[2].GetName())
	require.Equal(t, "Trincomalee", points[3].GetName())
	require.Equal(t, END, points[4].GetRole())
}

func TestWaypointStayFromCatalogPlace(t *testing.T) {
	seq := mustStart(t)

	duration := 90.0
	place := &CatalogPlace{
		ID:                  "temple-of-the-tooth",
		Name:                "Temple of the Tooth",
		Coordinate:          kandy,
		StayDurationMinutes: &duration,
		// no cost override: falls back to the default
	}

	seq, p, err := seq.AddWaypoint(place.Name, "", place.Coordinate, place, testDefaults)
	require.NoError(t, err)
	require.Equal(t, "temple-of-the-tooth", p.GetCatalogRef())
	require.Equal(t, 90.0, p.GetStayDurationMinutes())
	require.Equal(t, testDefaults.DefaultStayCostAmount, p.GetStayCostAmount())

	dist, ok := p.GetDistanceFromPreviousKm()
	require.True(t, ok)
	require.InDelta(t, 94.0, dist, 3.0)

	_ = seq
}

func TestRoundTripEndSuppressesStay(t *testing.T) {
	seq := mustStart(t)
	seq, _, err := seq.AddWaypoint("Kandy", "", kandy, nil, testDefaults)
	require.NoError(t, err)

	seq, err = seq.BeginEndEntry()
	require.NoError(t, err)

	// end back at the starting coordinate: no visit is counted there
	seq, end, err := seq.SetEnd("Back home", "", colombo, nil, testDefaults)
	require.NoError(t, err)
	require.Zero(t, end.GetStayDurationMinutes())
	require.Zero(t, end.GetStayCostAmount())
	require.True(t, seq.EndCoincidentWithStart())
}

func TestBeginAndCancelEndEntry(t *testing.T) {
	seq := mustStart(t)

	_, err := NewSequence().BeginEndEntry()
	require.Error(t, err)

	seq, err = seq.BeginEndEntry()
	require.NoError(t, err)
	require.Equal(t, ADDING_END, seq.State())

	// canceling returns to the state end entry was started from
	seq, err = seq.CancelEndEntry()
	require.NoError(t, err)
	require.Equal(t, ADDING_WAYPOINT, seq.State())

	// from a complete start-only trip, cancel returns to COMPLETE
	seq, err = seq.ConfirmStartOnly()
	require.NoError(t, err)
	seq, err = seq.BeginEndEntry()
	require.NoError(t, err)
	seq, err = seq.CancelEndEntry()
	require.NoError(t, err)
	require.Equal(t, COMPLETE, seq.State())
}

func TestBeginEndEntryRejectedWhenEndExists(t *testing.T) {
	seq := mustStart(t)
	seq, err := seq.BeginEndEntry()
	require.NoError(t, err)
	seq, _, err = seq.SetEnd("Galle", "", galle, nil, testDefaults)
	require.NoError(t, err)

	_, err = seq.BeginEndEntry()
	require.Error(t, err)
}

func TestRemove(t *testing.T) {
	seq := mustStart(t)
	seq, wp1, err := seq.AddWaypoint("Kandy", "", kandy, nil, testDefaults)
	require.NoError(t, err)
	seq, wp2, err := seq.AddWaypoint("Sigiriya", "", sigiriya, nil, testDefaults)
	require.NoError(t, err)

	seq, err = seq.BeginEndEntry()
	require.NoError(t, err)

	// no removal while entering the end point
	_, err = seq.Remove(wp1.GetID())
	require.Error(t, err)

	seq, end, err := seq.SetEnd("Galle", "", galle, nil, testDefaults)
	require.NoError(t, err)

	seq, err = seq.Remove(wp1.GetID())
	require.NoError(t, err)
	require.Equal(t, 3, seq.Len())

	// the successor's prefilled distance now measures from the start
	points := seq.Points()
	dist, ok := points[1].GetDistanceFromPreviousKm()
	require.True(t, ok)
	require.InDelta(t, geo.CalculateHaversineDistance(colombo.Lat, colombo.Lon, sigiriya.Lat, sigiriya.Lon), dist, 1e-9)

	// removing the end returns to waypoint entry
	seq, err = seq.Remove(end.GetID())
	require.NoError(t, err)
	require.Equal(t, ADDING_WAYPOINT, seq.State())

	_, err = seq.Remove("no-such-id")
	require.Error(t, err)

	_ = wp2
}

func TestRemoveStartResetsSequence(t *testing.T) {
	seq := mustStart(t)
	seq, _, err := seq.AddWaypoint("Kandy", "", kandy, nil, testDefaults)
	require.NoError(t, err)

	start := seq.Points()[0]
	seq, err = seq.Remove(start.GetID())
	require.NoError(t, err)
	require.Equal(t, AWAITING_START, seq.State())
	require.Zero(t, seq.Len())
}

func TestSignatureTracksOrderedCoordinates(t *testing.T) {
	seq := mustStart(t)
	sigStart := seq.Signature()

	seq2, _, err := seq.AddWaypoint("Kandy", "", kandy, nil, testDefaults)
	require.NoError(t, err)
	require.NotEqual(t, sigStart, seq2.Signature())

	// the snapshot the signature was taken from is unchanged
	require.Equal(t, sigStart, seq.Signature())

	seq3, _, err := seq.AddWaypoint("Kandy", "", kandy, nil, testDefaults)
	require.NoError(t, err)
	require.Equal(t, seq2.Signature(), seq3.Signature())
}

func TestApplyLegs(t *testing.T) {
	seq := mustStart(t)
	seq, _, err := seq.AddWaypoint("Kandy", "", kandy, nil, testDefaults)
	require.NoError(t, err)

	_, err = seq.ApplyLegs([]Leg{})
	require.Error(t, err)

	seq, err = seq.ApplyLegs([]Leg{{DistanceMeters: 115000, DurationSeconds: 10800}})
	require.NoError(t, err)

	p := seq.Points()[1]
	dist, ok := p.GetDistanceFromPreviousKm()
	require.True(t, ok)
	require.Equal(t, 115.0, dist)
	dur, ok := p.GetDurationFromPreviousMinutes()
	require.True(t, ok)
	require.Equal(t, 180.0, dur)
}
