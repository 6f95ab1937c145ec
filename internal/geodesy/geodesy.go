// Package geodesy computes ground distances between geographic points.
package geodesy

import (
	"github.com/golang/geo/s2"
)

// earthRadiusKm is the IUGG mean Earth radius.
const earthRadiusKm = 6371.0088

// DistanceKm returns the great-circle distance in kilometers between two
// points given in degrees. Longitudes may use either the [-180,180] or the
// [0,360) convention; the spherical math is periodic in longitude.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * earthRadiusKm
}
