package spatialindex

import (
	"testing"

	"github.com/ceylontrails/tripplanner/pkg/geo"
	"github.com/ceylontrails/tripplanner/pkg/trip"
	"go.uber.org/zap"
)

func testPlaces() []trip.CatalogPlace {
	return []trip.CatalogPlace{
		{ID: "gangaramaya", Name: "Gangaramaya Temple", Coordinate: geo.NewCoordinate(6.9167, 79.8562)},
		{ID: "mount-lavinia", Name: "Mount Lavinia Beach", Coordinate: geo.NewCoordinate(6.8390, 79.8630)},
		{ID: "temple-of-the-tooth", Name: "Temple of the Tooth", Coordinate: geo.NewCoordinate(7.2936, 80.6413)},
		{ID: "galle-fort", Name: "Galle Fort", Coordinate: geo.NewCoordinate(6.0269, 80.2170)},
		{ID: "broken", Name: "Bad Entry", Coordinate: geo.NewCoordinate(200, 500)},
	}
}

func TestSearchWithinRadius(t *testing.T) {
	rt := NewRtree()
	rt.Build(testPlaces(), zap.NewNop())

	// query from central Colombo with a 20 km box
	results := rt.SearchWithinRadius(6.9271, 79.8612, 20.0)

	found := make(map[string]bool)
	for _, r := range results {
		found[r.GetID()] = true
	}

	if !found["gangaramaya"] || !found["mount-lavinia"] {
		t.Errorf("expected both Colombo places in results, got %v", found)
	}
	if found["temple-of-the-tooth"] || found["galle-fort"] {
		t.Errorf("places ~100 km away must not be returned, got %v", found)
	}
	if found["broken"] {
		t.Error("invalid coordinates must not be indexed")
	}
}

// Places in the outer band of the radius, roughly along a cardinal bearing,
// sit where a corner-derived query box is at its narrowest. They must still
// be returned.
func TestSearchWithinRadiusOuterBand(t *testing.T) {
	places := []trip.CatalogPlace{
		// 15 km due north and 15 km due east of central Colombo
		{ID: "north-15", Name: "Fifteen Km North", Coordinate: geo.NewCoordinate(7.0620, 79.8612)},
		{ID: "east-15", Name: "Fifteen Km East", Coordinate: geo.NewCoordinate(6.9271, 79.9971)},
	}
	rt := NewRtree()
	rt.Build(places, zap.NewNop())

	results := rt.SearchWithinRadius(6.9271, 79.8612, 20.0)

	found := make(map[string]bool)
	for _, r := range results {
		found[r.GetID()] = true
	}
	if !found["north-15"] || !found["east-15"] {
		t.Errorf("places 15 km out on cardinal bearings must be within a 20 km search, got %v", found)
	}
}

func TestSearchWithinRadiusEmpty(t *testing.T) {
	rt := NewRtree()
	rt.Build(nil, zap.NewNop())

	if results := rt.SearchWithinRadius(6.9271, 79.8612, 20.0); len(results) != 0 {
		t.Errorf("expected no results from an empty index, got %d", len(results))
	}
}
