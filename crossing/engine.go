package crossing

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"

	"github.com/laurentg/traffic-engine/network"
	"github.com/laurentg/traffic-engine/segment"
	"github.com/laurentg/traffic-engine/spatialindex"
	"github.com/laurentg/traffic-engine/tripline"
)

const (
	// MaxGPSPairDurationMicros bounds how stale a GPS pair may be
	// before the implied chord is discarded as unreliable (spec.md §4.3).
	MaxGPSPairDurationMicros = 20 * 1_000_000

	// MaxSpeedMS is the highest speed a sample may report before it's
	// rejected as GPS noise (spec.md §4.4).
	MaxSpeedMS = 31.0
)

// ErrNonMonotonicCrossing is returned when a completing crossing's
// timestamp precedes the last crossing's — a programming error per
// spec.md §7, since the per-update sort guarantees non-decreasing
// times within a single call.
var ErrNonMonotonicCrossing = errors.New("crossing: completing crossing precedes last crossing")

// vehicleState is the per-vehicle mutable state: the latest fix and
// the pending crossings awaiting completion, keyed by TripLine.TlIndex
// since Go has no reference-identity map keys (spec.md §9).
type vehicleState struct {
	lastPoint GPSPoint
	hasLast   bool
	pending   map[int]Crossing
}

// Engine holds per-vehicle state and the counters derived from
// crossings. It must be driven by exactly one producer per instance
// (spec.md §5); Update is synchronous and performs no I/O.
type Engine struct {
	streets *tripline.Streets

	vehicles   map[string]*vehicleState
	tripEvents map[int]int
	dropOffs   map[int]map[int]int
}

// NewEngine returns an engine over the given (already built) Streets.
func NewEngine(streets *tripline.Streets) *Engine {
	return &Engine{
		streets:    streets,
		vehicles:   make(map[string]*vehicleState),
		tripEvents: make(map[int]int),
		dropOffs:   make(map[int]map[int]int),
	}
}

// Update consumes one GPS fix and returns the SpeedSamples it completes,
// in crossing order. Stale pairs, stationary segments, and fixes
// without a prior point for the vehicle all silently yield no samples.
// An ErrNonMonotonicCrossing return indicates a bug upstream (the sort
// below is supposed to make this unreachable) and aborts the call,
// returning whatever samples were already produced.
func (e *Engine) Update(fix GPSPoint) ([]SpeedSample, error) {
	v, ok := e.vehicles[fix.VehicleID]
	if !ok {
		v = &vehicleState{pending: make(map[int]Crossing)}
		e.vehicles[fix.VehicleID] = v
	}

	if !v.hasLast {
		v.lastPoint = fix
		v.hasLast = true
		return nil, nil
	}
	p0 := v.lastPoint
	v.lastPoint = fix

	if fix.TimeMicros-p0.TimeMicros > MaxGPSPairDurationMicros {
		return nil, nil
	}

	seg := GPSSegment{P0: p0, P1: fix}
	if seg.IsStill() {
		return nil, nil
	}

	candidates := e.streets.TripLinesIn(seg.Bound())
	crossings := make([]Crossing, 0, len(candidates))
	for _, tl := range candidates {
		if c, ok := seg.GetCrossing(tl); ok {
			crossings = append(crossings, c)
		}
	}
	sort.Slice(crossings, func(i, j int) bool {
		return crossings[i].TimeMicros < crossings[j].TimeMicros
	})

	var samples []SpeedSample
	for _, c := range crossings {
		e.tripEvents[c.TripLine.TlIndex]++

		sample, matched, err := e.match(v, c)
		if err != nil {
			return samples, err
		}
		if matched {
			samples = append(samples, sample)
		}
	}
	return samples, nil
}

// match applies the pending-set update rule of spec.md §4.3 for one
// new crossing.
func (e *Engine) match(v *vehicleState, c Crossing) (SpeedSample, bool, error) {
	var last Crossing
	found := false
	for _, q := range v.pending {
		if q.completedBy(c) {
			last = q
			found = true
			break
		}
	}

	if !found {
		v.pending[c.TripLine.TlIndex] = c
		return SpeedSample{}, false, nil
	}

	for _, r := range v.pending {
		if r.TripLine == last.TripLine {
			continue
		}
		if r.TripLine.WayID != last.TripLine.WayID {
			e.recordDropOff(r.TripLine.TlIndex, last.TripLine.TlIndex)
		}
	}

	v.pending = map[int]Crossing{c.TripLine.TlIndex: c}

	sample, admitted, err := admit(last, c)
	if err != nil {
		return SpeedSample{}, false, err
	}
	return sample, admitted, nil
}

func (e *Engine) recordDropOff(droppedTlIndex, pickedUpTlIndex int) {
	m, ok := e.dropOffs[droppedTlIndex]
	if !ok {
		m = make(map[int]int)
		e.dropOffs[droppedTlIndex] = m
	}
	m[pickedUpTlIndex]++
}

// admit applies the speed-sample admission rule of spec.md §4.4. Wrong-way
// travel on a oneway way is detected from the pair's Dist ordering rather
// than NdIndex: a completing pair always shares one NdIndex (they straddle
// the same node), so the only signal left for direction is which side of
// the node — the lower-Dist or higher-Dist offset — was crossed first.
func admit(a, b Crossing) (SpeedSample, bool, error) {
	// spec.md §4.4 step 1 literally compares NdIndex; substituted for Dist
	// here since a completing pair's NdIndex is always equal (see doc above).
	if b.TripLine.Oneway && b.TripLine.Dist < a.TripLine.Dist {
		return SpeedSample{}, false, nil
	}

	ds := math.Abs(b.TripLine.Dist - a.TripLine.Dist)
	dtMicros := b.TimeMicros - a.TimeMicros
	if dtMicros < 0 {
		return SpeedSample{}, false, fmt.Errorf("%w: dt=%dus a=tl%d b=tl%d",
			ErrNonMonotonicCrossing, dtMicros, a.TripLine.TlIndex, b.TripLine.TlIndex)
	}
	if dtMicros == 0 {
		return SpeedSample{}, false, nil
	}

	dt := float64(dtMicros) / 1e6
	speed := ds / dt
	if speed > MaxSpeedMS {
		return SpeedSample{}, false, nil
	}

	return SpeedSample{A: a, B: b, Speed: speed}, true, nil
}

// EvictBefore drops per-vehicle state for every vehicle whose last
// known fix is older than cutoffMicros. It returns the number of
// vehicles evicted. The core engine does not call this itself (spec.md
// §5 leaves eviction to the caller); cmd/trafficengine calls it on a
// schedule, mirroring the teacher's cron_cleanup.go horizon sweep.
func (e *Engine) EvictBefore(cutoffMicros int64) int {
	evicted := 0
	for id, v := range e.vehicles {
		if v.hasLast && v.lastPoint.TimeMicros < cutoffMicros {
			delete(e.vehicles, id)
			evicted++
		}
	}
	return evicted
}

// GetNTripEvents returns how many times tl has been crossed, win or lose.
func (e *Engine) GetNTripEvents(tl *tripline.TripLine) int {
	return e.tripEvents[tl.TlIndex]
}

// GetDropOffs returns the drop-off matrix: for each dropped tripline,
// the count of times a crossing on each other tripline won the match
// instead.
func (e *Engine) GetDropOffs() map[int]map[int]int {
	out := make(map[int]map[int]int, len(e.dropOffs))
	for dropped, picks := range e.dropOffs {
		cp := make(map[int]int, len(picks))
		for pick, n := range picks {
			cp[pick] = n
		}
		out[dropped] = cp
	}
	return out
}

// PendingCount returns the number of pending crossings currently held
// for vehicleID, for diagnostics and tests.
func (e *Engine) PendingCount(vehicleID string) int {
	v, ok := e.vehicles[vehicleID]
	if !ok {
		return 0
	}
	return len(v.pending)
}

// VehicleCount returns the number of vehicles with live state.
func (e *Engine) VehicleCount() int {
	return len(e.vehicles)
}

// GetTripLines returns every tripline built by set_streets (spec.md §6).
func (e *Engine) GetTripLines() []*tripline.TripLine {
	return e.streets.TripLines()
}

// GetTripLinesIn returns the triplines whose bounding rectangle
// intersects r (spec.md §6).
func (e *Engine) GetTripLinesIn(r spatialindex.Rect) []*tripline.TripLine {
	return e.streets.TripLinesIn(r)
}

// GetStreetSegments slices net at the cluster map built by set_streets,
// a pure function of that map and the supplied network (spec.md §6).
func (e *Engine) GetStreetSegments(net network.Network) []segment.StreetSegment {
	return segment.Build(net, e.streets.Clusters())
}

// GetCenterPoint returns the centroid of the bounding rectangle over
// every tripline (spec.md §6).
func (e *Engine) GetCenterPoint() orb.Point {
	return e.streets.CenterPoint()
}

// GetBounds returns the bounding rectangle over every tripline
// (spec.md §6).
func (e *Engine) GetBounds() spatialindex.Rect {
	return e.streets.Bounds()
}
