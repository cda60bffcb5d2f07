package spatialindex

import (
	"github.com/ceylontrails/tripplanner/pkg/geo"
	"github.com/ceylontrails/tripplanner/pkg/trip"
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

type Rtree struct {
	tr *rtree.RTreeG[PlaceEntry]
}

// PlaceEntry is one indexed catalog place. The proximity query only needs the
// catalog id and the coordinate; the caller resolves the full entry.
type PlaceEntry struct {
	id  string
	lat float64
	lon float64
}

func (pe PlaceEntry) GetID() string   { return pe.id }
func (pe PlaceEntry) GetLat() float64 { return pe.lat }
func (pe PlaceEntry) GetLon() float64 { return pe.lon }

func newPlaceEntry(id string, lat, lon float64) PlaceEntry {
	return PlaceEntry{
		id:  id,
		lat: lat,
		lon: lon,
	}
}

func NewRtree() *Rtree {
	var tr rtree.RTreeG[PlaceEntry]
	return &Rtree{
		tr: &tr,
	}
}

// Build. build r-tree over the place catalog. Entries without valid numeric
// coordinates are skipped.
func (rt *Rtree) Build(places []trip.CatalogPlace, log *zap.Logger) {
	log.Info("Building R-tree spatial index over place catalog...")
	inserted := 0
	for _, place := range places {
		if !place.Coordinate.Valid() {
			log.Warn("skipping catalog place with invalid coordinates",
				zap.String("id", place.ID), zap.String("name", place.Name))
			continue
		}
		rt.tr.Insert(
			[2]float64{place.Coordinate.Lon, place.Coordinate.Lat},
			[2]float64{place.Coordinate.Lon, place.Coordinate.Lat},
			newPlaceEntry(place.ID, place.Coordinate.Lat, place.Coordinate.Lon),
		)
		inserted++
	}

	log.Info("R-tree spatial index built.", zap.Int("places", inserted))
}

// SearchWithinRadius search for all catalog places within radius (in km) from
// the query point (qLat, qLon). The bounding box search over-approximates the
// circle; the caller applies the exact haversine filter.
func (rt *Rtree) SearchWithinRadius(qLat, qLon, radius float64) []PlaceEntry {
	// the box must contain the whole radius circle, so each axis extent is
	// taken along its cardinal bearing. A 45/225 corner box only reaches
	// radius/sqrt(2) per axis and clips places near the cardinal directions.
	upperLat, _ := geo.GetDestinationPoint(qLat, qLon, 0, radius)
	_, upperLon := geo.GetDestinationPoint(qLat, qLon, 90, radius)
	lowerLat, _ := geo.GetDestinationPoint(qLat, qLon, 180, radius)
	_, lowerLon := geo.GetDestinationPoint(qLat, qLon, 270, radius)

	results := make([]PlaceEntry, 0, 10)
	rt.tr.Search([2]float64{lowerLon, lowerLat}, [2]float64{upperLon, upperLat},
		func(min, max [2]float64, data PlaceEntry) bool {
			results = append(results, data)
			return true
		})
	return results
}
