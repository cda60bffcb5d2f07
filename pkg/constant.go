package pkg

const (
	// two coordinates closer than this on both axes (in degrees) are the same
	// place. 1e-4 degree is roughly 11 meters.
	COINCIDENCE_EPSILON_DEGREE = 1e-4

	PROXIMITY_RADIUS_KM = 20.0
	MAX_NEARBY_PLACES   = 20

	GEOCODE_DEBOUNCE_MS = 500

	// supported service area bounding box (Sri Lanka)
	SERVICE_AREA_MIN_LAT = 5.7
	SERVICE_AREA_MAX_LAT = 10.0
	SERVICE_AREA_MIN_LON = 79.4
	SERVICE_AREA_MAX_LON = 82.1

	COUNTRY_RESTRICTION = "lk"
)

const (
	DEBUG = false
)
