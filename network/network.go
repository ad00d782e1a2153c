// Package network defines the static road network data model consumed
// by the tripline builder: Way, Node, tag lookups, and the Network
// loader contract. Parsing an actual OSM extract into this shape is an
// external collaborator's job (see spec.md §1) — this package only
// defines the contract and a small in-memory implementation used by
// tests and by cmd/trafficengine's HTTP-fetched network loader.
package network

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

// WayID and NodeID mirror the OSM 64-bit identifier space.
type WayID int64
type NodeID int64

// Tags wraps github.com/paulmach/osm's tag list with the has/get/is-true
// lookups the builder needs, matching the contract azybler-map_router's
// OSM pass uses (tags.Find("highway")) rather than inventing a new tag
// representation.
type Tags osm.Tags

// Has reports whether key is present with a non-empty value.
func (t Tags) Has(key string) bool {
	return osm.Tags(t).Find(key) != ""
}

// Get returns the value for key, or "" if absent.
func (t Tags) Get(key string) string {
	return osm.Tags(t).Find(key)
}

// IsTrue reports whether key's value is one of the OSM boolean-true spellings.
func (t Tags) IsTrue(key string) bool {
	switch osm.Tags(t).Find(key) {
	case "yes", "true", "1":
		return true
	default:
		return false
	}
}

// Way is the ordered sequence of node ids making up one OSM way, plus
// its tags.
type Way struct {
	ID    WayID
	Nodes []NodeID
	Tags  Tags
}

// Node is a single lat/lon vertex.
type Node struct {
	ID  NodeID
	Lon float64
	Lat float64
}

// Point returns the node's coordinate as an orb.Point.
func (n Node) Point() orb.Point { return orb.Point{n.Lon, n.Lat} }

// Network is the loader contract the tripline builder consumes. It is
// built once per run by an external component (a real OSM extract
// reader, a cached snapshot, etc); the builder never mutates it.
type Network interface {
	// Ways iterates every way in the corpus; implementations may
	// iterate in any order.
	Ways() []*Way

	// Node resolves a node id to its coordinate. ok is false if the
	// node is not present in the corpus (a dangling reference).
	Node(id NodeID) (Node, bool)

	// Polyline resolves a way's node ids into a lat/lon polyline. ok
	// is false if any referenced node is missing, matching spec.md's
	// "skip silently if the loader cannot" rule.
	Polyline(w *Way) (orb.LineString, bool)
}

// HighwayAllowed lists the highway tag values the tripline builder
// processes, matching spec.md §4.1 step 1 and the same allow-list
// azybler-map_router's OSM pass uses for car-accessible ways (the
// traffic-speed engine additionally includes the link classes
// spec.md names, since triplines are placed for observed vehicle
// traffic, not routing eligibility).
var HighwayAllowed = map[string]bool{
	"motorway":       true,
	"trunk":          true,
	"primary":        true,
	"secondary":      true,
	"tertiary":       true,
	"unclassified":   true,
	"residential":    true,
	"service":        true,
	"motorway_link":  true,
	"trunk_link":     true,
	"primary_link":   true,
	"secondary_link": true,
	"tertiary_link":  true,
}

// IsOneway determines the oneway-ness of a way per spec.md §4.1 step 5.
func IsOneway(t Tags) bool {
	if t.IsTrue("oneway") {
		return true
	}
	if t.Get("highway") == "motorway" {
		return true
	}
	if t.Get("junction") == "roundabout" {
		return true
	}
	return false
}
