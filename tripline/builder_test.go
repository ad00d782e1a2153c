package tripline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laurentg/traffic-engine/network"
)

func straightWayNetwork() *network.MemoryNetwork {
	n := network.NewMemoryNetwork()
	n.AddNode(1, 0, 0)
	n.AddNode(2, 0, 0.001) // ~111m north
	n.AddWay(&network.Way{
		ID:    10,
		Nodes: []network.NodeID{1, 2},
		Tags:  network.Tags{{Key: "highway", Value: "residential"}},
	})
	return n
}

func TestBuildStraightWayProducesEndpointTripLines(t *testing.T) {
	s := Build(straightWayNetwork())

	require.Len(t, s.TripLines(), 2, "only the inner offset at each endpoint lands in range")

	for _, tl := range s.TripLines() {
		assert.Equal(t, network.WayID(10), tl.WayID)
		assert.False(t, tl.Oneway)
	}

	clusters := s.Clusters()
	require.Contains(t, clusters, network.WayID(10))
	assert.Equal(t, []int{0, 1}, clusters[network.WayID(10)])
}

func TestBuildSkipsShortWay(t *testing.T) {
	n := network.NewMemoryNetwork()
	n.AddNode(1, 0, 0)
	n.AddNode(2, 0, 0.00005) // ~5.5m, below MinSegmentLen
	n.AddWay(&network.Way{
		ID:    1,
		Nodes: []network.NodeID{1, 2},
		Tags:  network.Tags{{Key: "highway", Value: "residential"}},
	})

	s := Build(n)
	assert.Empty(t, s.TripLines())
	assert.Empty(t, s.Clusters())
}

func TestBuildSkipsUnlistedHighwayType(t *testing.T) {
	n := network.NewMemoryNetwork()
	n.AddNode(1, 0, 0)
	n.AddNode(2, 0, 0.001)
	n.AddWay(&network.Way{
		ID:    1,
		Nodes: []network.NodeID{1, 2},
		Tags:  network.Tags{{Key: "highway", Value: "footway"}},
	})

	s := Build(n)
	assert.Empty(t, s.TripLines())
}

func TestBuildOnewayFromExplicitTag(t *testing.T) {
	n := network.NewMemoryNetwork()
	n.AddNode(1, 0, 0)
	n.AddNode(2, 0, 0.001)
	n.AddWay(&network.Way{
		ID:    1,
		Nodes: []network.NodeID{1, 2},
		Tags:  network.Tags{{Key: "highway", Value: "residential"}, {Key: "oneway", Value: "yes"}},
	})

	s := Build(n)
	for _, tl := range s.TripLines() {
		assert.True(t, tl.Oneway)
	}
}

// TestBuildDenseClusterSuppression covers S6: an intersection node only
// 5m past a way's start is too close to the start-endpoint cluster and
// must be dropped.
func TestBuildDenseClusterSuppression(t *testing.T) {
	m := network.NewMemoryNetwork()
	m.AddNode(1, 0, 0)
	m.AddNode(2, 0, 0.000045) // ~5m — too close to node 1's cluster
	m.AddNode(3, 0, 0.002)    // way end, ~222m from node 1
	m.AddWay(&network.Way{
		ID:    1,
		Nodes: []network.NodeID{1, 2, 3},
		Tags:  network.Tags{{Key: "highway", Value: "residential"}},
	})
	// Make node 2 an intersection by referencing it from a second way.
	m.AddNode(4, 0.001, 0.000045)
	m.AddWay(&network.Way{
		ID:    2,
		Nodes: []network.NodeID{2, 4},
		Tags:  network.Tags{{Key: "highway", Value: "residential"}},
	})

	s := Build(m)
	clusters := s.Clusters()
	require.Contains(t, clusters, network.WayID(1))
	// Node 1 (index 0) survives as the start cluster; node 2 (index 1)
	// is suppressed for being within MinSegmentLen of it; the terminal
	// append guarantees index 2 closes the list.
	assert.Equal(t, []int{0, 2}, clusters[network.WayID(1)])
}

func TestTripLineBoundContainsBothEndpoints(t *testing.T) {
	s := Build(straightWayNetwork())
	require.NotEmpty(t, s.TripLines())
	tl := s.TripLines()[0]
	b := tl.Bound()
	assert.LessOrEqual(t, b.Min[0], tl.Right[0])
	assert.LessOrEqual(t, b.Min[0], tl.Left[0])
	assert.GreaterOrEqual(t, b.Max[0], tl.Right[0])
	assert.GreaterOrEqual(t, b.Max[0], tl.Left[0])
}
