package network

import "github.com/paulmach/orb"

// MemoryNetwork is a minimal in-memory Network, built by hand or from a
// small fixture — enough to drive the builder and crossing engine in
// tests without a real OSM extract reader.
type MemoryNetwork struct {
	ways  []*Way
	nodes map[NodeID]Node
}

// NewMemoryNetwork returns an empty network ready for AddNode/AddWay.
func NewMemoryNetwork() *MemoryNetwork {
	return &MemoryNetwork{nodes: make(map[NodeID]Node)}
}

// AddNode registers a node's coordinate.
func (m *MemoryNetwork) AddNode(id NodeID, lon, lat float64) {
	m.nodes[id] = Node{ID: id, Lon: lon, Lat: lat}
}

// AddWay registers a way.
func (m *MemoryNetwork) AddWay(w *Way) {
	m.ways = append(m.ways, w)
}

func (m *MemoryNetwork) Ways() []*Way { return m.ways }

func (m *MemoryNetwork) Node(id NodeID) (Node, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

func (m *MemoryNetwork) Polyline(w *Way) (orb.LineString, bool) {
	line := make(orb.LineString, 0, len(w.Nodes))
	for _, id := range w.Nodes {
		n, ok := m.nodes[id]
		if !ok {
			return nil, false
		}
		line = append(line, n.Point())
	}
	return line, true
}
