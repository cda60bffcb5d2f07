package usecases

import (
	"sort"

	"github.com/ceylontrails/tripplanner/pkg/geo"
)

// Nearby returns the proximity suggestions around the most recently confirmed
// point. The surface is hidden outside waypoint entry.
func (ps *PlannerService) Nearby(sessionID string) ([]NearbyPlace, error) {
	s, err := ps.session(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.view().Nearby, nil
}

// refreshNearby recomputes the suggestions around ref: every catalog entry
// within the radius, nearest first, excluding the reference point itself.
// Caller must hold s.mu.
func (ps *PlannerService) refreshNearby(s *Session, ref geo.Coordinate) {
	s.nearby = ps.nearbyPlaces(ref)
}

func (ps *PlannerService) nearbyPlaces(ref geo.Coordinate) []NearbyPlace {
	entries := ps.spatialIndex.SearchWithinRadius(ref.Lat, ref.Lon, ps.proximityRadiusKm)

	nearby := make([]NearbyPlace, 0, len(entries))
	for _, entry := range entries {
		dist := geo.CalculateHaversineDistance(ref.Lat, ref.Lon, entry.GetLat(), entry.GetLon())
		// the bounding box over-approximates the circle, and the reference
		// point must not be suggested back to the user
		if dist == 0 || dist > ps.proximityRadiusKm {
			continue
		}
		place, ok := ps.catalog.PlaceByID(entry.GetID())
		if !ok {
			continue
		}
		nearby = append(nearby, NearbyPlace{Place: place, DistanceKm: dist})
	}

	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})

	if len(nearby) > ps.maxNearby {
		nearby = nearby[:ps.maxNearby]
	}
	return nearby
}
