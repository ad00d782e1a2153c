// Package crossing turns pairs of successive GPS fixes into ordered
// tripline crossings, matches them into completed pairs, and emits
// SpeedSamples — the "hard part" described in spec.md §4.3-§4.5.
package crossing

import (
	"github.com/paulmach/orb"

	"github.com/laurentg/traffic-engine/spatialindex"
	"github.com/laurentg/traffic-engine/tripline"
)

// GPSPoint is a single vehicle fix. Time is monotonic microseconds
// since an arbitrary but consistent epoch, not necessarily wall-clock
// time.
type GPSPoint struct {
	VehicleID  string
	TimeMicros int64
	Lon, Lat   float64
}

// Point returns the fix's coordinate as an orb.Point.
func (p GPSPoint) Point() orb.Point { return orb.Point{p.Lon, p.Lat} }

// GPSSegment is the chord between two successive fixes for one vehicle.
type GPSSegment struct {
	P0, P1 GPSPoint
}

// IsStill reports whether both endpoints are the same point.
func (s GPSSegment) IsStill() bool {
	return s.P0.Lon == s.P1.Lon && s.P0.Lat == s.P1.Lat
}

// Bound returns the segment's axis-aligned bounding rectangle, used to
// query the tripline spatial index for candidates.
func (s GPSSegment) Bound() spatialindex.Rect {
	return spatialindex.RectFromPoints(
		[2]float64{s.P0.Lon, s.P0.Lat},
		[2]float64{s.P1.Lon, s.P1.Lat},
	)
}

// GetCrossing computes whether the segment properly crosses tl, and
// if so the interpolated crossing time. It solves the two line
// segments' intersection parametrically: t is the fraction along the
// GPS segment, u the fraction along the tripline; a crossing requires
// both to land within [0, 1], endpoints included.
func (s GPSSegment) GetCrossing(tl *tripline.TripLine) (Crossing, bool) {
	x1, y1 := s.P0.Lon, s.P0.Lat
	x2, y2 := s.P1.Lon, s.P1.Lat
	x3, y3 := tl.Right[0], tl.Right[1]
	x4, y4 := tl.Left[0], tl.Left[1]

	denom := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if denom == 0 {
		return Crossing{}, false // parallel or collinear
	}

	t := ((x1-x3)*(y3-y4) - (y1-y3)*(x3-x4)) / denom
	u := ((x1-x3)*(y1-y2) - (y1-y3)*(x1-x2)) / denom

	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Crossing{}, false
	}

	dt := s.P1.TimeMicros - s.P0.TimeMicros
	timeMicros := s.P0.TimeMicros + int64(roundFloat(t*float64(dt)))

	return Crossing{TripLine: tl, TimeMicros: timeMicros}, true
}

func roundFloat(f float64) float64 {
	if f >= 0 {
		return float64(int64(f + 0.5))
	}
	return float64(int64(f - 0.5))
}

// Crossing is a GPS segment intersecting a specific tripline at an
// interpolated time.
type Crossing struct {
	TripLine   *tripline.TripLine
	TimeMicros int64
}

// completedBy reports whether c completes the pending crossing recv,
// i.e. they straddle the same intersection cluster on the same way.
// This is the stricter of the two predicates spec.md §9 (open
// question 1) discusses; see DESIGN.md for the reasoning.
func (recv Crossing) completedBy(c Crossing) bool {
	return recv.TripLine.WayID == c.TripLine.WayID &&
		recv.TripLine.ClusterIndex == c.TripLine.ClusterIndex &&
		recv.TripLine != c.TripLine
}

// SpeedSample is the distance, along a way, between two completing
// tripline crossings divided by the elapsed time between them.
type SpeedSample struct {
	A, B  Crossing
	Speed float64
}
