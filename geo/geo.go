// Package geo provides the geodesy primitives the tripline builder and
// crossing engine are built on: great-circle distance, forward azimuth,
// destination point projection, and a length-indexed view over a
// polyline. Everything operates on github.com/paulmach/orb points in
// (lon, lat) order, WGS84 degrees.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

const earthRadiusM = 6371000.0

// DistanceMeters returns the great-circle distance between a and b in metres.
func DistanceMeters(a, b orb.Point) float64 {
	lat1 := a[1] * math.Pi / 180
	lat2 := b[1] * math.Pi / 180
	dLat := (b[1] - a[1]) * math.Pi / 180
	dLon := (b[0] - a[0]) * math.Pi / 180

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)
	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// BearingDegrees returns the initial forward azimuth from a to b, in
// degrees, normalised to (-180, 180].
func BearingDegrees(a, b orb.Point) float64 {
	lat1 := a[1] * math.Pi / 180
	lat2 := b[1] * math.Pi / 180
	dLon := (b[0] - a[0]) * math.Pi / 180

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	theta := math.Atan2(y, x) * 180 / math.Pi
	return NormalizeBearing(theta)
}

// NormalizeBearing maps an arbitrary degree value into (-180, 180].
func NormalizeBearing(deg float64) float64 {
	deg = math.Mod(deg+180, 360)
	if deg <= 0 {
		deg += 360
	}
	return deg - 180
}

// Destination returns the point reached by travelling distM metres from
// p along the given bearing (degrees).
func Destination(p orb.Point, bearingDeg, distM float64) orb.Point {
	angDist := distM / earthRadiusM
	brng := bearingDeg * math.Pi / 180
	lat1 := p[1] * math.Pi / 180
	lon1 := p[0] * math.Pi / 180

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(angDist) + math.Cos(lat1)*math.Sin(angDist)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(
		math.Sin(brng)*math.Sin(angDist)*math.Cos(lat1),
		math.Cos(angDist)-math.Sin(lat1)*math.Sin(lat2),
	)

	return orb.Point{lon2 * 180 / math.Pi, lat2 * 180 / math.Pi}
}

// PathLengthMeters sums the great-circle distance between successive
// vertices of a polyline.
func PathLengthMeters(line orb.LineString) float64 {
	total := 0.0
	for i := 1; i < len(line); i++ {
		total += DistanceMeters(line[i-1], line[i])
	}
	return total
}
