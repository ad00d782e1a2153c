// Package spatialindex wraps github.com/tidwall/rtree — the same
// generic 2-D R-tree backing azybler-map_router's OSM-derived road
// graph — behind the insert/query capability spec.md §4.2 asks for.
// The index is built once during tripline construction and, per
// spec.md §5, is safe for concurrent reads once construction is done;
// it is not safe for concurrent writes, and none are expected after
// Build returns.
package spatialindex

import "github.com/tidwall/rtree"

// Rect is an axis-aligned bounding rectangle, (lon, lat) order.
type Rect struct {
	Min, Max [2]float64
}

// RectFromPoints returns the smallest Rect containing both points.
func RectFromPoints(a, b [2]float64) Rect {
	r := Rect{Min: a, Max: a}
	r = r.extend(b)
	return r
}

func (r Rect) extend(p [2]float64) Rect {
	if p[0] < r.Min[0] {
		r.Min[0] = p[0]
	}
	if p[1] < r.Min[1] {
		r.Min[1] = p[1]
	}
	if p[0] > r.Max[0] {
		r.Max[0] = p[0]
	}
	if p[1] > r.Max[1] {
		r.Max[1] = p[1]
	}
	return r
}

// Union returns the smallest Rect containing both r and o.
func (r Rect) Union(o Rect) Rect {
	u := r.extend(o.Min)
	return u.extend(o.Max)
}

// Index is a 2-D spatial index mapping rectangles to payloads of type T.
type Index[T any] struct {
	tr rtree.RTree[T]
}

// New returns an empty index.
func New[T any]() *Index[T] {
	return &Index[T]{}
}

// Insert adds payload keyed by its bounding rectangle.
func (idx *Index[T]) Insert(r Rect, payload T) {
	idx.tr.Insert(r.Min, r.Max, payload)
}

// Query returns every payload whose rectangle intersects r.
func (idx *Index[T]) Query(r Rect) []T {
	var out []T
	idx.tr.Search(r.Min, r.Max, func(_, _ [2]float64, data T) bool {
		out = append(out, data)
		return true
	})
	return out
}

// Len returns the number of entries in the index.
func (idx *Index[T]) Len() int { return idx.tr.Len() }
