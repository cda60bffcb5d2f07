package directions

import (
	"context"
	"net/url"

	"github.com/ceylontrails/tripplanner/pkg/geo"
	"github.com/ceylontrails/tripplanner/pkg/util"
	gocache "github.com/patrickmn/go-cache"
)

// Geocode resolves free text to a coordinate, restricted to the supported
// country. A result outside the service-area bounding box fails with
// ErrOutOfServiceArea and the caller must discard the candidate.
func (c *Client) Geocode(ctx context.Context, text string) (*GeocodeResult, error) {
	cacheKey := text + "|" + c.country
	if cached, ok := c.cache.Get(cacheKey); ok {
		result := cached.(GeocodeResult)
		return &result, nil
	}

	params := url.Values{}
	params.Set("address", text)
	params.Set("components", "country:"+c.country)
	params.Set("key", c.apiKey)

	var resp geocodeResponse
	if err := c.get(ctx, geocodingEndpoint, params, &resp); err != nil {
		return nil, util.WrapErrorf(err, util.ErrRoutingUnavailable, "geocode request for %q failed", text)
	}

	// ZERO_RESULTS means the text matched nothing; any other non-OK status is
	// a provider-side failure
	if resp.Status == "ZERO_RESULTS" {
		return nil, util.WrapErrorf(nil, util.ErrNotFound, "no geocode result for %q", text)
	}
	if resp.Status != "OK" {
		return nil, util.WrapErrorf(nil, util.ErrRoutingUnavailable,
			"geocode provider returned %q: %s", resp.Status, resp.ErrorMessage)
	}
	if len(resp.Results) == 0 {
		return nil, util.WrapErrorf(nil, util.ErrNotFound, "no geocode result for %q", text)
	}

	best := resp.Results[0]
	coord := geo.NewCoordinate(best.Geometry.Location.Lat, best.Geometry.Location.Lng)
	if !c.area.Contains(coord) {
		return nil, util.WrapErrorf(nil, util.ErrOutOfServiceArea,
			"%q resolves to %f,%f outside the service area", text, coord.Lat, coord.Lon)
	}

	result := GeocodeResult{
		Coordinate:       coord,
		FormattedAddress: best.FormattedAddress,
	}
	c.cache.Set(cacheKey, result, gocache.DefaultExpiration)
	return &result, nil
}

// ReverseGeocode resolves a coordinate to a display address. Failure is not
// fatal: the caller falls back to the formatted coordinate.
func (c *Client) ReverseGeocode(ctx context.Context, coord geo.Coordinate) (string, error) {
	params := url.Values{}
	params.Set("latlng", formatCoordinate(coord))
	params.Set("key", c.apiKey)

	var resp geocodeResponse
	if err := c.get(ctx, geocodingEndpoint, params, &resp); err != nil {
		return "", util.WrapErrorf(err, util.ErrReverseGeocodeFailed, "reverse geocode request failed")
	}

	if resp.Status != "OK" || len(resp.Results) == 0 {
		return "", util.WrapErrorf(nil, util.ErrReverseGeocodeFailed,
			"reverse geocode provider returned %q", resp.Status)
	}

	return resp.Results[0].FormattedAddress, nil
}
