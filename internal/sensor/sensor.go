// Package sensor models the coverage instrumentation the fuzz driver reads
// from the target process between executions. Real coverage collection
// lives in compiler-inserted instrumentation outside this module; this
// package owns the parts the pool depends on having exact semantics for:
// counter bucketing and feature construction.
package sensor

import (
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/covguard/fuzzcheck/internal/domain"
)

// maxIntensity is the bucket assigned to a saturated counter.
const maxIntensity = 16

// maxCounterValue is the saturating cap a raw edge-hit counter is clamped
// to before bucketing, matching the 16-bit saturating counter the formula
// below is defined over.
const maxCounterValue = 0xffff

// Bucket maps a raw hit counter to the bucketed intensity I(c) used in a
// Feature's payload:
//
//	I(max) = 16
//	I(c) = c,                         c <= 3
//	I(c) = 16 - leading_zeros16(c) + 1, otherwise
//
// leading_zeros is counted against a 16-bit width, so for 4 <= c < max the
// result is floor(log2(c)) + 2.
func Bucket(c uint64, max uint64) uint8 {
	if c >= max {
		return maxIntensity
	}
	if c <= 3 {
		return uint8(c)
	}
	return uint8(maxIntensity - bits.LeadingZeros16(uint16(c)) + 1)
}

// Recorder accumulates the features observed during a single target
// execution. It is not safe for concurrent use by more than one in-flight
// execution — the driver guarantees strict record → collect → update-pool
// phase separation, so a single Recorder can be reused serially.
type Recorder struct {
	mu          sync.Mutex
	recording   atomic.Bool
	edgeHits    map[uint64]uint64 // guard id -> raw hit count this execution
	comparisons map[uint64]uint8  // pc -> max popcount bucket this execution
}

// NewRecorder returns a Recorder ready to instrument executions.
func NewRecorder() *Recorder {
	return &Recorder{
		edgeHits:    make(map[uint64]uint64),
		comparisons: make(map[uint64]uint8),
	}
}

// Start begins recording for one execution. Must be paired with Stop.
func (r *Recorder) Start() {
	r.mu.Lock()
	for k := range r.edgeHits {
		delete(r.edgeHits, k)
	}
	for k := range r.comparisons {
		delete(r.comparisons, k)
	}
	r.mu.Unlock()
	r.recording.Store(true)
}

// Stop ends recording for the current execution.
func (r *Recorder) Stop() { r.recording.Store(false) }

// HitEdge is the callback instrumentation invokes on each edge/guard hit.
// A no-op while not recording.
func (r *Recorder) HitEdge(guardID uint64) {
	if !r.recording.Load() {
		return
	}
	r.mu.Lock()
	if r.edgeHits[guardID] < maxCounterValue {
		r.edgeHits[guardID]++
	}
	r.mu.Unlock()
}

// HitComparison is the callback instrumentation invokes on a comparison
// instruction, recording the Hamming distance between the two operands.
func (r *Recorder) HitComparison(pc uint64, arg1, arg2 uint64) {
	if !r.recording.Load() {
		return
	}
	popcount := uint64(bits.OnesCount64(arg1 ^ arg2))
	bucket := Bucket(popcount, 64)
	r.mu.Lock()
	if bucket > r.comparisons[pc] {
		r.comparisons[pc] = bucket
	}
	r.mu.Unlock()
}

// Collect returns the features observed since the last Start as a
// deduplicated, unordered slice. It does not clear them; the next Start
// does. Safe to call only after Stop.
func (r *Recorder) Collect() []domain.Feature {
	r.mu.Lock()
	defer r.mu.Unlock()

	features := make([]domain.Feature, 0, len(r.edgeHits)+len(r.comparisons))
	for guardID, hits := range r.edgeHits {
		intensity := Bucket(hits, maxCounterValue)
		features = append(features, domain.NewEdgeFeature(guardID, intensity))
	}
	for pc, bucket := range r.comparisons {
		features = append(features, domain.NewComparisonFeature(pc, bucket))
	}
	return features
}

// active is the process-wide Recorder instrumentation reports to, mirroring
// the original sensor's SHARED_SENSOR global: compiler-inserted coverage
// hooks have no way to carry a caller-supplied reference, so they call into
// whichever Recorder was last activated.
var active atomic.Pointer[Recorder]

// Activate installs r as the Recorder that HitEdge/HitComparison forward to.
func Activate(r *Recorder) { active.Store(r) }

// HitEdge forwards to the active Recorder, if any.
func HitEdge(guardID uint64) {
	if r := active.Load(); r != nil {
		r.HitEdge(guardID)
	}
}

// HitComparison forwards to the active Recorder, if any.
func HitComparison(pc uint64, arg1, arg2 uint64) {
	if r := active.Load(); r != nil {
		r.HitComparison(pc, arg1, arg2)
	}
}
