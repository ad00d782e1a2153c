package spatialindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexInsertAndQuery(t *testing.T) {
	idx := New[string]()
	idx.Insert(Rect{Min: [2]float64{0, 0}, Max: [2]float64{1, 1}}, "a")
	idx.Insert(Rect{Min: [2]float64{5, 5}, Max: [2]float64{6, 6}}, "b")

	assert.Equal(t, 2, idx.Len())

	got := idx.Query(Rect{Min: [2]float64{0.5, 0.5}, Max: [2]float64{0.9, 0.9}})
	assert.Equal(t, []string{"a"}, got)

	got = idx.Query(Rect{Min: [2]float64{-10, -10}, Max: [2]float64{10, 10}})
	assert.ElementsMatch(t, []string{"a", "b"}, got)

	got = idx.Query(Rect{Min: [2]float64{100, 100}, Max: [2]float64{200, 200}})
	assert.Empty(t, got)
}

func TestRectFromPointsAndUnion(t *testing.T) {
	r := RectFromPoints([2]float64{3, -1}, [2]float64{-2, 4})
	assert.Equal(t, [2]float64{-2, -1}, r.Min)
	assert.Equal(t, [2]float64{3, 4}, r.Max)

	u := r.Union(Rect{Min: [2]float64{10, 10}, Max: [2]float64{20, 20}})
	assert.Equal(t, [2]float64{-2, -1}, u.Min)
	assert.Equal(t, [2]float64{20, 20}, u.Max)
}
