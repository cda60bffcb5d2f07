package usecases

import (
	"context"

	"github.com/ceylontrails/tripplanner/pkg/directions"
	"github.com/ceylontrails/tripplanner/pkg/geo"
	"github.com/ceylontrails/tripplanner/pkg/spatialindex"
)

type RoutingGateway interface {
	ComputeRoute(ctx context.Context, coords []geo.Coordinate) (*directions.Route, error)
	Geocode(ctx context.Context, text string) (*directions.GeocodeResult, error)
	ReverseGeocode(ctx context.Context, coord geo.Coordinate) (string, error)
	InServiceArea(coord geo.Coordinate) bool
}

type SpatialIndex interface {
	SearchWithinRadius(lat, lon, radius float64) []spatialindex.PlaceEntry
}

// Notifier pushes a session snapshot to subscribed clients after an
// asynchronous recomputation lands.
type Notifier interface {
	Notify(sessionID string, view *SessionView)
}
