package directions

import (
	"github.com/ceylontrails/tripplanner/pkg/geo"
	"github.com/ceylontrails/tripplanner/pkg/trip"
)

// Route is the successful result of a full-sequence route computation: one leg
// per consecutive coordinate pair plus the decoded overview geometry.
type Route struct {
	Legs            []trip.Leg
	Polyline        string
	Geometry        []geo.Coordinate
	DistanceMeters  float64
	DurationSeconds float64
}

// GeocodeResult is a successful forward geocode.
type GeocodeResult struct {
	Coordinate       geo.Coordinate
	FormattedAddress string
}

// provider wire format (google maps web service shape)

type directionsResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Routes       []providerRoute `json:"routes"`
}

type providerRoute struct {
	OverviewPolyline providerPolyline `json:"overview_polyline"`
	Legs             []providerLeg    `json:"legs"`
}

type providerPolyline struct {
	Points string `json:"points"`
}

type providerLeg struct {
	Distance providerValue `json:"distance"`
	Duration providerValue `json:"duration"`
}

type providerValue struct {
	Value float64 `json:"value"`
}

type geocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Results      []geocodeResult `json:"results"`
}

type geocodeResult struct {
	FormattedAddress string          `json:"formatted_address"`
	Geometry         geocodeGeometry `json:"geometry"`
}

type geocodeGeometry struct {
	Location geocodeLocation `json:"location"`
}

type geocodeLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
