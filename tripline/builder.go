package tripline

import (
	"github.com/paulmach/orb"

	"github.com/laurentg/traffic-engine/geo"
	"github.com/laurentg/traffic-engine/network"
	"github.com/laurentg/traffic-engine/spatialindex"
)

// Streets is the immutable result of Build: every tripline, the
// per-way cluster map, and a spatial index over the triplines. Once
// built it is read-only and safe for concurrent readers (spec.md §5).
type Streets struct {
	lines    []*TripLine
	clusters ClusterMap
	index    *spatialindex.Index[*TripLine]
	bounds   spatialindex.Rect
	hasBound bool
}

// TripLines returns every tripline produced by Build.
func (s *Streets) TripLines() []*TripLine { return s.lines }

// TripLinesIn returns the triplines whose bounding rectangle
// intersects r.
func (s *Streets) TripLinesIn(r spatialindex.Rect) []*TripLine {
	return s.index.Query(r)
}

// Clusters returns the per-way cluster map.
func (s *Streets) Clusters() ClusterMap { return s.clusters }

// Bounds returns the bounding rectangle over every tripline. Returns
// the zero Rect if Build produced no triplines.
func (s *Streets) Bounds() spatialindex.Rect { return s.bounds }

// CenterPoint returns the centroid of Bounds.
func (s *Streets) CenterPoint() orb.Point {
	return orb.Point{
		(s.bounds.Min[0] + s.bounds.Max[0]) / 2,
		(s.bounds.Min[1] + s.bounds.Max[1]) / 2,
	}
}

// Build consumes the network once and produces the tripline list,
// cluster map, and spatial index. It is one-shot; calling it again on
// a fresh Streets for the same network yields triplines identical
// modulo identity (spec.md §8, property 7).
func Build(net network.Network) *Streets {
	ways := net.Ways()

	occurrences := make(map[network.NodeID]int)
	for _, w := range ways {
		for _, id := range w.Nodes {
			occurrences[id]++
		}
	}
	isIntersection := func(id network.NodeID) bool { return occurrences[id] >= 2 }

	s := &Streets{
		clusters: make(ClusterMap),
		index:    spatialindex.New[*TripLine](),
	}

	tlIndex := 0
	for _, w := range ways {
		if !network.HighwayAllowed[w.Tags.Get("highway")] {
			continue
		}
		line, ok := net.Polyline(w)
		if !ok || len(line) < 2 {
			continue
		}
		wayLen := geo.PathLengthMeters(line)
		if wayLen < MinSegmentLen {
			continue
		}

		lil := geo.NewLengthIndexedLine(line)
		scale := (lil.EndIndex() - lil.StartIndex()) / wayLen
		oneway := network.IsOneway(w.Tags)

		var clusterNdIdx []int
		clusterIndex := 0
		lastClusterDist := negInf

		for ndPos, nodeID := range w.Nodes {
			isEndpoint := ndPos == 0 || ndPos == len(w.Nodes)-1
			if !isEndpoint && !isIntersection(nodeID) {
				continue
			}

			pt := line[ndPos]
			ptIndex := lil.Project(pt)
			ptDist := ptIndex / scale

			if ptDist-lastClusterDist < MinSegmentLen {
				continue
			}
			lastClusterDist = ptDist
			clusterNdIdx = append(clusterNdIdx, ndPos)

			for _, sign := range [2]float64{-1, 1} {
				offset := ptIndex + sign*IntersectionMargin*scale
				if offset < lil.StartIndex() || offset > lil.EndIndex() {
					continue
				}

				tl, ok := buildTripLine(lil, offset, scale, w.ID, ndPos, clusterIndex, oneway, &tlIndex)
				if !ok {
					continue
				}
				s.lines = append(s.lines, tl)
				s.index.Insert(tl.Bound(), tl)
				if !s.hasBound {
					s.bounds = tl.Bound()
					s.hasBound = true
				} else {
					s.bounds = s.bounds.Union(tl.Bound())
				}
			}
			clusterIndex++
		}

		lastNode := len(w.Nodes) - 1
		if len(clusterNdIdx) == 0 || clusterNdIdx[len(clusterNdIdx)-1] != lastNode {
			clusterNdIdx = append(clusterNdIdx, lastNode)
		}
		s.clusters[w.ID] = clusterNdIdx
	}

	return s
}

const negInf = -1e18

// buildTripLine assembles one TripLine at the given arc-length offset,
// deriving its perpendicular endpoints from the local tangent bearing.
// Returns ok=false for a degenerate offset (spec.md §9, note 3: a
// zero-length terminal edge yields a zero-azimuth tangent sample and
// therefore a degenerate tripline, which is skipped rather than
// emitted).
func buildTripLine(
	lil *geo.LengthIndexedLine,
	offset, scale float64,
	wayID network.WayID,
	ndPos, clusterIndex int,
	oneway bool,
	tlIndex *int,
) (*TripLine, bool) {
	before := offset - bearingEpsilonDeg
	after := offset + bearingEpsilonDeg
	if before < lil.StartIndex() {
		before = lil.StartIndex()
	}
	if after > lil.EndIndex() {
		after = lil.EndIndex()
	}

	pBefore := lil.ExtractPoint(before)
	pAfter := lil.ExtractPoint(after)
	if pBefore == pAfter {
		return nil, false
	}

	theta := geo.BearingDegrees(pBefore, pAfter)
	p := lil.ExtractPoint(offset)

	right := geo.Destination(p, geo.NormalizeBearing(theta+90), TriplineRadius)
	left := geo.Destination(p, geo.NormalizeBearing(theta-90), TriplineRadius)

	tl := &TripLine{
		Right:        right,
		Left:         left,
		WayID:        wayID,
		NdIndex:      ndPos,
		TlIndex:      *tlIndex,
		ClusterIndex: clusterIndex,
		Dist:         offset / scale,
		Oneway:       oneway,
	}
	*tlIndex++
	return tl, true
}
