// Package pool implements the Input Pool: the data structure that curates a
// fuzzing corpus based on code-coverage feedback, scores each input by how
// useful it is for future mutation, and supports weighted random selection
// of a parent input to mutate next.
//
// The pool owns three arenas (inputs, features, feature groups) and keeps
// them in mutual consistency under the admission policy in Add. It is a
// single-owner, single-threaded data structure: no method blocks, spawns,
// or is safe to call re-entrantly.
package pool

import (
	"github.com/covguard/fuzzcheck/internal/arena"
	"github.com/covguard/fuzzcheck/internal/domain"
)

// Input is a corpus entry: the fuzzed value plus the mutator's cache for it,
// its complexity, its current score, and the feature bookkeeping that
// decides whether it stays in the pool.
type Input[V any, C any, S any] struct {
	Data domain.FuzzedInput[V, C, S]

	// Complexity must always equal what the mutator would compute for
	// Data.Value/Data.Cache; the pool never recomputes it, the driver
	// supplies it at Add time.
	Complexity float64

	// Score is the sum of scoreOfFeature(...) over AllFeatures.
	Score float64

	// AllFeatures holds every feature this input currently exhibits.
	AllFeatures []FeatureHandle[V, C, S]

	// LeastComplexFor holds the subset of AllFeatures for which this input
	// is the minimum-complexity witness. An input with an empty
	// LeastComplexFor fails the admission invariant and must be deleted.
	LeastComplexFor map[FeatureHandle[V, C, S]]struct{}

	// IdxInPool is this input's position in Pool.inputs.
	IdxInPool int
}

// FeatureInPool is the per-distinct-feature state.
type FeatureInPool[V any, C any, S any] struct {
	Feature domain.Feature
	Group   GroupHandle

	// Inputs lists every input currently exhibiting this feature. It
	// becomes empty once every input holding the feature has been
	// deleted; the record is kept (dormant) and LeastComplexInput then
	// refers to an input no longer in the pool.
	Inputs []InputHandle[V, C, S]

	LeastComplexInput InputHandle[V, C, S]
	LeastComplexity   float64

	// OldMultiplicity is len(Inputs) as of the end of the last stable
	// point; used to compute incremental score deltas.
	OldMultiplicity int
}

// FeatureForIteration is an input-handle-free entry in the pool's
// sorted-by-feature iteration vector.
type FeatureForIteration[V any, C any, S any] struct {
	Key     FeatureHandle[V, C, S]
	Feature domain.Feature
}

// FeatureGroup aggregates every feature sharing a GroupID: a contiguous
// index range into the features-iteration vector, plus the size of that
// range as of the last stable point.
type FeatureGroup struct {
	ID       domain.GroupID
	Start    int
	End      int // range is [Start, End)
	OldSize  int
}

// Size returns the number of distinct features currently in the group.
func (g FeatureGroup) Size() int { return g.End - g.Start }

// Handle aliases, one per arena, so a FeatureHandle can never be passed
// where an InputHandle is expected.
type (
	InputHandle[V any, C any, S any]   = arena.Handle[Input[V, C, S]]
	FeatureHandle[V any, C any, S any] = arena.Handle[FeatureInPool[V, C, S]]
	GroupHandle                       = arena.Handle[FeatureGroup]
)

// Index identifies an input the pool can hand out for mutation: either a
// regular pool member (Normal) or the out-of-band favored input.
type Index[V any, C any, S any] struct {
	Favored bool
	Handle  InputHandle[V, C, S] // meaningful only when !Favored
}

// NormalIndex wraps a regular input handle.
func NormalIndex[V any, C any, S any](h InputHandle[V, C, S]) Index[V, C, S] {
	return Index[V, C, S]{Handle: h}
}

// FavoredIndex is the sentinel index referring to the favored input.
func FavoredIndex[V any, C any, S any]() Index[V, C, S] {
	return Index[V, C, S]{Favored: true}
}
