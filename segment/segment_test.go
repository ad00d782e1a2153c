package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laurentg/traffic-engine/network"
	"github.com/laurentg/traffic-engine/tripline"
)

func threeNodeWay() *network.MemoryNetwork {
	n := network.NewMemoryNetwork()
	n.AddNode(1, 0, 0)
	n.AddNode(2, 0, 0.001)
	n.AddNode(3, 0, 0.002)
	n.AddWay(&network.Way{
		ID:    10,
		Nodes: []network.NodeID{1, 2, 3},
		Tags:  network.Tags{{Key: "highway", Value: "residential"}},
	})
	n.AddNode(4, 0.001, 0.001)
	n.AddWay(&network.Way{
		ID:    11,
		Nodes: []network.NodeID{2, 4},
		Tags:  network.Tags{{Key: "highway", Value: "residential"}},
	})
	return n
}

func TestBuildSlicesWayAtClusterIndices(t *testing.T) {
	net := threeNodeWay()
	s := tripline.Build(net)

	segments := Build(net, s.Clusters())

	var way10 []StreetSegment
	for _, sg := range segments {
		if sg.WayID == 10 {
			way10 = append(way10, sg)
		}
	}
	require.Len(t, way10, 2, "the intersection node splits way 10 into two segments")

	assert.Equal(t, 0, way10[0].StartNd)
	assert.Equal(t, 1, way10[0].EndNd)
	assert.Equal(t, 1, way10[1].StartNd)
	assert.Equal(t, 2, way10[1].EndNd)

	for _, sg := range way10 {
		assert.Len(t, sg.Coords, sg.EndNd-sg.StartNd+1)
	}
}

func TestBuildWithNoInteriorClusterYieldsOneSegment(t *testing.T) {
	net := network.NewMemoryNetwork()
	net.AddNode(1, 0, 0)
	net.AddNode(2, 0, 0.001)
	net.AddWay(&network.Way{
		ID:    1,
		Nodes: []network.NodeID{1, 2},
		Tags:  network.Tags{{Key: "highway", Value: "residential"}},
	})

	s := tripline.Build(net)
	segments := Build(net, s.Clusters())

	require.Len(t, segments, 1)
	assert.Equal(t, 0, segments[0].StartNd)
	assert.Equal(t, 1, segments[0].EndNd)
}

func TestBuildSkipsWaysAbsentFromClusterMap(t *testing.T) {
	net := network.NewMemoryNetwork()
	net.AddNode(1, 0, 0)
	net.AddNode(2, 0, 0.00005) // below MinSegmentLen, never gets a cluster entry
	net.AddWay(&network.Way{
		ID:    99,
		Nodes: []network.NodeID{1, 2},
		Tags:  network.Tags{{Key: "highway", Value: "residential"}},
	})

	s := tripline.Build(net)
	assert.Empty(t, Build(net, s.Clusters()))
}
