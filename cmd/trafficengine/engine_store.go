package main

import (
	"sync/atomic"

	"github.com/laurentg/traffic-engine/crossing"
	"github.com/laurentg/traffic-engine/network"
	"github.com/laurentg/traffic-engine/tripline"
)

// engineStore holds the live crossing.Engine behind an atomic pointer so
// the ingest loop can keep calling Update while a scheduled network
// refresh swaps in a freshly built engine (spec.md §5: constructing
// triplines while updates are in flight is unsupported, so the swap is
// a full replacement, never a mutation of the engine the ingest loop is
// currently reading). The network itself is kept alongside it, since
// GetStreetSegments (spec.md §6) needs the network the engine's cluster
// map was built from.
type engineStore struct {
	p   atomic.Pointer[crossing.Engine]
	net atomic.Pointer[network.MemoryNetwork]
}

func newEngineStore(net *network.MemoryNetwork, streets *tripline.Streets) *engineStore {
	s := &engineStore{}
	s.p.Store(crossing.NewEngine(streets))
	s.net.Store(net)
	return s
}

func (s *engineStore) Swap(net *network.MemoryNetwork, streets *tripline.Streets) {
	s.p.Store(crossing.NewEngine(streets))
	s.net.Store(net)
}

func (s *engineStore) Load() *crossing.Engine {
	return s.p.Load()
}

func (s *engineStore) LoadNetwork() *network.MemoryNetwork {
	return s.net.Load()
}
