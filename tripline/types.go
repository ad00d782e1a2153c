// Package tripline builds the set of triplines placed on either side of
// every intersection on the road network, together with the per-way
// cluster map and a spatial index over the triplines. This is the
// 35%-of-budget "hard part" spec.md §4.1 describes.
package tripline

import (
	"github.com/paulmach/orb"

	"github.com/laurentg/traffic-engine/network"
	"github.com/laurentg/traffic-engine/spatialindex"
)

const (
	// IntersectionMargin is how far, in metres, a tripline sits from
	// the network node it straddles.
	IntersectionMargin = 10.0
	// TriplineRadius is the half-width of a tripline, in metres.
	TriplineRadius = 10.0
	// MinSegmentLen is the minimum distance, in metres, between two
	// consecutive tripline clusters on the same way.
	MinSegmentLen = 2 * IntersectionMargin

	// bearingEpsilonDeg is the offset, in the length-indexed line's
	// native degree-space units, used to sample the local tangent
	// direction around a point.
	bearingEpsilonDeg = 9e-6
)

// TripLine is a short line segment roughly perpendicular to the road,
// placed IntersectionMargin metres before or after an intersection.
// Identity is by pointer: two TripLines are never value-equal and
// interchangeable, matching the Java original's reference-identity map
// keys (spec.md §9) — Go code keys counters on TlIndex instead.
type TripLine struct {
	Right, Left  orb.Point
	WayID        network.WayID
	NdIndex      int
	TlIndex      int
	ClusterIndex int
	Dist         float64
	Oneway       bool
}

// Bound returns the tripline's axis-aligned bounding rectangle.
func (t *TripLine) Bound() spatialindex.Rect {
	return spatialindex.RectFromPoints(
		[2]float64{t.Right[0], t.Right[1]},
		[2]float64{t.Left[0], t.Left[1]},
	)
}

// ClusterMap maps a way to the ordered list of node-list positions
// ("nd_index") where a tripline cluster sits. The list is strictly
// increasing and ends with the way's final node position, guaranteeing
// downstream segmentation covers the way's full length.
type ClusterMap map[network.WayID][]int
