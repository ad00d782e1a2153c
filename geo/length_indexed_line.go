package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// LengthIndexedLine is a thin wrapper over a polyline that exposes an
// arc-length parameterisation in the line's native coordinate units
// (planar, cartesian degree-space here — not metres). Tripline
// construction converts between this index and metres via a per-way
// scale factor, since projecting in planar degree-space is what the
// underlying polyline projection needs, while distances along a way
// are reported in metres.
//
// Mirrors the shape of JTS's LengthIndexedLine: StartIndex, EndIndex,
// Project, ExtractPoint.
type LengthIndexedLine struct {
	line orb.LineString
	cum  []float64 // cum[i] = planar length of line[0..i]
}

// NewLengthIndexedLine builds the cumulative-length table for line.
// line must have at least two points.
func NewLengthIndexedLine(line orb.LineString) *LengthIndexedLine {
	cum := make([]float64, len(line))
	for i := 1; i < len(line); i++ {
		cum[i] = cum[i-1] + planarDistance(line[i-1], line[i])
	}
	return &LengthIndexedLine{line: line, cum: cum}
}

func planarDistance(a, b orb.Point) float64 {
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	return math.Hypot(dx, dy)
}

// StartIndex is always 0.
func (l *LengthIndexedLine) StartIndex() float64 { return 0 }

// EndIndex is the total planar length of the line.
func (l *LengthIndexedLine) EndIndex() float64 { return l.cum[len(l.cum)-1] }

// Project returns the arc-length index of the closest point on the
// line to p.
func (l *LengthIndexedLine) Project(p orb.Point) float64 {
	bestIndex := 0.0
	bestDist := math.Inf(1)

	for i := 1; i < len(l.line); i++ {
		a, b := l.line[i-1], l.line[i]
		segLen := l.cum[i] - l.cum[i-1]

		var t float64
		if segLen > 0 {
			t = ((p[0]-a[0])*(b[0]-a[0]) + (p[1]-a[1])*(b[1]-a[1])) / (segLen * segLen)
		}
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}

		proj := orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
		d := planarDistance(p, proj)
		if d < bestDist {
			bestDist = d
			bestIndex = l.cum[i-1] + t*segLen
		}
	}
	return bestIndex
}

// ExtractPoint returns the point on the line at the given arc-length
// index, clamped to [StartIndex, EndIndex].
func (l *LengthIndexedLine) ExtractPoint(index float64) orb.Point {
	if index <= 0 {
		return l.line[0]
	}
	if index >= l.EndIndex() {
		return l.line[len(l.line)-1]
	}

	// Linear scan is fine: way polylines are short (tens of vertices).
	for i := 1; i < len(l.cum); i++ {
		if index <= l.cum[i] {
			segLen := l.cum[i] - l.cum[i-1]
			t := 0.0
			if segLen > 0 {
				t = (index - l.cum[i-1]) / segLen
			}
			a, b := l.line[i-1], l.line[i]
			return orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
		}
	}
	return l.line[len(l.line)-1]
}
