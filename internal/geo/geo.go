// Package geo holds great-circle distance helpers.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// DistanceKm returns the haversine distance in kilometres between two points
// given in degrees. NaN inputs produce NaN.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Distance is DistanceKm for possibly-missing record coordinates.
// ok is false when either coordinate is unknown.
func Distance(lat, lon float64, toLat, toLon *float64) (km float64, ok bool) {
	if toLat == nil || toLon == nil {
		return 0, false
	}
	d := DistanceKm(lat, lon, *toLat, *toLon)
	if math.IsNaN(d) {
		return 0, false
	}
	return d, true
}

// Valid checks that latitude is in [-90,90] and longitude in [-180,180].
func Valid(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
