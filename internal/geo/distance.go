package geo

import (
	"math"

	"github.com/MeKo-Tech/sitescout/internal/types"
	"github.com/golang/geo/s2"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Mean Earth radius used for all distances
	MetersPerDegree   = 111320.0  // Meridional metres per degree of latitude
)

// Distance returns the great-circle distance between a and b in metres,
// rounded to the nearest whole metre.
func Distance(a, b types.Coordinate) float64 {
	return math.Round(DistanceExact(a, b))
}

// DistanceExact returns the unrounded haversine distance between a and b in metres.
func DistanceExact(a, b types.Coordinate) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lng)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// Offset moves c by the given north and east distances in metres using the
// local degree-per-metre approximation. Longitude offsets are corrected by
// cos(lat) so that east-west distances are not foreshortened.
func Offset(c types.Coordinate, northMeters, eastMeters float64) types.Coordinate {
	latOffset := northMeters / MetersPerDegree
	lngOffset := eastMeters / (MetersPerDegree * math.Cos(c.Lat*math.Pi/180))
	return types.Coordinate{Lat: c.Lat + latOffset, Lng: c.Lng + lngOffset}
}
