// Package segment slices a way's polyline at its tripline cluster node
// indices into StreetSegments. It is a pure, stateless function of a
// built cluster map and the network it was built from — nothing here
// is retained between calls (spec.md §4.1, "Street segmenter").
package segment

import (
	"github.com/paulmach/orb"

	"github.com/laurentg/traffic-engine/network"
	"github.com/laurentg/traffic-engine/tripline"
)

// StreetSegment is one slice of a way's polyline between two
// consecutive tripline cluster positions.
type StreetSegment struct {
	WayID   network.WayID
	Tags    network.Tags
	Coords  orb.LineString
	StartNd int
	EndNd   int
}

// Build derives every StreetSegment for net from clusters, the cluster
// map produced by tripline.Build. A way absent from clusters (skipped
// during tripline construction — too short, wrong highway type, a
// dangling node reference) yields no segments. A way present with no
// interior cluster entries still yields exactly one segment spanning
// its full node range, via the terminal index tripline.Build always
// appends.
func Build(net network.Network, clusters tripline.ClusterMap) []StreetSegment {
	var out []StreetSegment
	for _, w := range net.Ways() {
		ndIdx, ok := clusters[w.ID]
		if !ok || len(ndIdx) == 0 {
			continue
		}
		line, ok := net.Polyline(w)
		if !ok {
			continue
		}

		start := 0
		for _, end := range ndIdx {
			if end <= start {
				start = end
				continue
			}
			out = append(out, StreetSegment{
				WayID:   w.ID,
				Tags:    w.Tags,
				Coords:  append(orb.LineString{}, line[start:end+1]...),
				StartNd: start,
				EndNd:   end,
			})
			start = end
		}
	}
	return out
}
