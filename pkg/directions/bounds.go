package directions

import (
	"github.com/ceylontrails/tripplanner/pkg/geo"
	"github.com/golang/geo/s2"
)

// ServiceArea is the fixed geographic bounding box of the supported country.
// Geocoded and captured coordinates outside the box are rejected with
// ErrOutOfServiceArea before any point is created.
type ServiceArea struct {
	rect s2.Rect
}

func NewServiceArea(minLat, minLon, maxLat, maxLon float64) *ServiceArea {
	rect := s2.RectFromLatLng(s2.LatLngFromDegrees(minLat, minLon))
	rect = rect.AddPoint(s2.LatLngFromDegrees(maxLat, maxLon))
	return &ServiceArea{rect: rect}
}

func (sa *ServiceArea) Contains(c geo.Coordinate) bool {
	return sa.rect.ContainsLatLng(s2.LatLngFromDegrees(c.Lat, c.Lon))
}
