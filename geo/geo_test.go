package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters(t *testing.T) {
	a := orb.Point{0, 0}
	b := orb.Point{0, 0.001} // ~111m north
	d := DistanceMeters(a, b)
	assert.InDelta(t, 111.2, d, 1.0)
}

func TestBearingDegreesNorth(t *testing.T) {
	a := orb.Point{0, 0}
	b := orb.Point{0, 1}
	assert.InDelta(t, 0.0, BearingDegrees(a, b), 0.01)
}

func TestBearingDegreesEast(t *testing.T) {
	a := orb.Point{0, 0}
	b := orb.Point{1, 0}
	assert.InDelta(t, 90.0, BearingDegrees(a, b), 0.1)
}

func TestNormalizeBearingRange(t *testing.T) {
	assert.InDelta(t, 180.0, NormalizeBearing(180), 0.001)
	assert.InDelta(t, -179.0, NormalizeBearing(181), 0.001)
	assert.InDelta(t, 0.0, NormalizeBearing(360), 0.001)
	assert.InDelta(t, 0.0, NormalizeBearing(0), 0.001)
}

func TestDestinationRoundTrip(t *testing.T) {
	start := orb.Point{-8.6, 41.15}
	dest := Destination(start, 90, 100)
	assert.InDelta(t, 100.0, DistanceMeters(start, dest), 0.5)
	assert.InDelta(t, 90.0, BearingDegrees(start, dest), 0.5)
}

func TestLengthIndexedLineProjectAndExtract(t *testing.T) {
	line := orb.LineString{{0, 0}, {0, 0.001}, {0, 0.002}}
	lil := NewLengthIndexedLine(line)

	assert.Equal(t, 0.0, lil.StartIndex())
	assert.InDelta(t, 0.002, lil.EndIndex(), 1e-9)

	idx := lil.Project(orb.Point{0, 0.0015})
	assert.InDelta(t, 0.0015, idx, 1e-9)

	p := lil.ExtractPoint(0.0015)
	assert.InDelta(t, 0.0015, p[1], 1e-9)

	// Out-of-range indices clamp to the endpoints.
	assert.Equal(t, line[0], lil.ExtractPoint(-1))
	assert.Equal(t, line[len(line)-1], lil.ExtractPoint(10))
}

func TestPathLengthMeters(t *testing.T) {
	line := orb.LineString{{0, 0}, {0, 0.001}, {0, 0.002}}
	total := PathLengthMeters(line)
	assert.InDelta(t, 222.4, total, 2.0)
}
