package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ceylontrails/tripplanner/pkg/geo"
	"github.com/ceylontrails/tripplanner/pkg/trip"
	"github.com/ceylontrails/tripplanner/pkg/util"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	directionsEndpoint = "/directions/json"
	geocodingEndpoint  = "/geocode/json"

	geocodeCacheTTL = 15 * time.Minute
)

// Client talks to the external directions/geocoding provider. Provider and
// network failures are converted to the error taxonomy at this boundary; they
// never propagate uncaught into the trip state machine. Geocode results are
// cached per client instance, keyed by (text, country restriction).
type Client struct {
	apiKey     string
	baseURL    string
	country    string
	area       *ServiceArea
	httpClient *http.Client
	cache      *gocache.Cache
	log        *zap.Logger
}

func NewClient(baseURL, apiKey, country string, area *ServiceArea, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		country: country,
		area:    area,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache: gocache.New(geocodeCacheTTL, 2*geocodeCacheTTL),
		log:   log,
	}
}

// InServiceArea reports whether c falls inside the supported bounding box.
func (c *Client) InServiceArea(coord geo.Coordinate) bool {
	return c.area.Contains(coord)
}

// ComputeRoute submits the full ordered coordinate list and returns one leg
// per consecutive pair. Fails with ErrRoutingUnavailable when the provider
// errors or returns no legs for two or more points; the caller keeps the
// previously displayed route in that case.
func (c *Client) ComputeRoute(ctx context.Context, coords []geo.Coordinate) (*Route, error) {
	if len(coords) < 2 {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "route needs at least 2 coordinates, got %d", len(coords))
	}

	params := url.Values{}
	params.Set("origin", formatCoordinate(coords[0]))
	params.Set("destination", formatCoordinate(coords[len(coords)-1]))
	if len(coords) > 2 {
		waypoints := make([]string, 0, len(coords)-2)
		for _, wp := range coords[1 : len(coords)-1] {
			waypoints = append(waypoints, formatCoordinate(wp))
		}
		params.Set("waypoints", strings.Join(waypoints, "|"))
	}
	params.Set("mode", "driving")
	params.Set("units", "metric")
	params.Set("key", c.apiKey)

	var resp directionsResponse
	if err := c.get(ctx, directionsEndpoint, params, &resp); err != nil {
		return nil, util.WrapErrorf(err, util.ErrRoutingUnavailable, "directions request failed")
	}

	if resp.Status != "OK" || len(resp.Routes) == 0 {
		return nil, util.WrapErrorf(nil, util.ErrRoutingUnavailable,
			"directions provider returned %q: %s", resp.Status, resp.ErrorMessage)
	}

	route := resp.Routes[0]
	if len(route.Legs) == 0 {
		return nil, util.WrapErrorf(nil, util.ErrRoutingUnavailable, "directions provider returned zero legs for %d points", len(coords))
	}

	result := &Route{
		Legs:     make([]trip.Leg, 0, len(route.Legs)),
		Polyline: route.OverviewPolyline.Points,
	}
	for _, leg := range route.Legs {
		result.Legs = append(result.Legs, trip.Leg{
			DistanceMeters:  leg.Distance.Value,
			DurationSeconds: leg.Duration.Value,
		})
		result.DistanceMeters += leg.Distance.Value
		result.DurationSeconds += leg.Duration.Value
	}

	if route.OverviewPolyline.Points != "" {
		geometry, err := geo.CoordsFromPolyline(route.OverviewPolyline.Points)
		if err != nil {
			c.log.Warn("failed to decode overview polyline", zap.Error(err))
		} else {
			result.Geometry = geometry
		}
	}

	return result, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("provider returned http %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func formatCoordinate(c geo.Coordinate) string {
	return fmt.Sprintf("%f,%f", c.Lat, c.Lon)
}
