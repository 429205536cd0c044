package pool

import (
	"math/rand/v2"
	"slices"
	"sort"

	"github.com/covguard/fuzzcheck/internal/arena"
	"github.com/covguard/fuzzcheck/internal/domain"
)

// favoredProbability is the chance RandomIndex returns the favored input
// when one is set and the regular pool is non-empty.
const favoredProbability = 0.25

// Pool owns the arenas and ordered views that curate a fuzzing corpus. V,
// C, and S are the mutator's value, cache, and mutation-step types — the
// pool never calls mutator methods, it only stores the values the driver
// produces with them.
type Pool[V any, C any, S any] struct {
	features          []FeatureForIteration[V, C, S] // sorted ascending by Feature
	slabFeatures      *arena.Arena[FeatureInPool[V, C, S]]
	featureGroups     []GroupHandle // sorted ascending by GroupID
	slabFeatureGroups *arena.Arena[FeatureGroup]

	inputs     []InputHandle[V, C, S]
	slabInputs *arena.Arena[Input[V, C, S]]

	favoredInput *domain.FuzzedInput[V, C, S]

	averageComplexity float64
	cumulativeWeights []float64

	rng *rand.Rand
}

// New returns an empty pool seeded from seed (a fixed seed makes a fuzzing
// session's sampling decisions reproducible given the same input sequence).
func New[V any, C any, S any](seed uint64) *Pool[V, C, S] {
	return &Pool[V, C, S]{
		slabFeatures:      arena.NewArena[FeatureInPool[V, C, S]](),
		slabFeatureGroups: arena.NewArena[FeatureGroup](),
		slabInputs:        arena.NewArena[Input[V, C, S]](),
		rng:               rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// AddFavoredInput sets the favored input, bypassing admission and scoring
// entirely.
func (p *Pool[V, C, S]) AddFavoredInput(data domain.FuzzedInput[V, C, S]) {
	p.favoredInput = &data
}

// Len returns the number of regular inputs in the pool (the favored input,
// if any, is not counted).
func (p *Pool[V, C, S]) Len() int { return len(p.inputs) }

// Score returns the pool's total score across all regular inputs.
func (p *Pool[V, C, S]) Score() float64 {
	if len(p.cumulativeWeights) == 0 {
		return 0
	}
	return p.cumulativeWeights[len(p.cumulativeWeights)-1]
}

// AverageComplexity returns the mean complexity of the regular inputs.
func (p *Pool[V, C, S]) AverageComplexity() float64 { return p.averageComplexity }

// Values returns the value of every regular input currently in the pool, in
// no particular order.
func (p *Pool[V, C, S]) Values() []V {
	values := make([]V, len(p.inputs))
	for i, h := range p.inputs {
		values[i] = p.slabInputs.Get(h).Data.Value
	}
	return values
}

// Get returns a pointer to the input data at idx for in-place mutation by
// the driver's mutator.
func (p *Pool[V, C, S]) Get(idx Index[V, C, S]) *domain.FuzzedInput[V, C, S] {
	if idx.Favored {
		return p.favoredInput
	}
	input := p.slabInputs.Get(idx.Handle)
	if input == nil {
		return nil
	}
	return &input.Data
}

// GetRef returns the input data at idx. By convention callers treat the
// result as read-only; Go has no way to express a non-mutable pointer, so
// this simply returns the same storage as Get.
func (p *Pool[V, C, S]) GetRef(idx Index[V, C, S]) *domain.FuzzedInput[V, C, S] {
	return p.Get(idx)
}

// RetrieveSourceInputForUnmutate returns the input data at idx, or (nil,
// false) only if idx was a Normal handle already removed from the pool.
// The Favored index is always present if a favored input was set.
func (p *Pool[V, C, S]) RetrieveSourceInputForUnmutate(idx Index[V, C, S]) (*domain.FuzzedInput[V, C, S], bool) {
	if idx.Favored {
		if p.favoredInput == nil {
			return nil, false
		}
		return p.favoredInput, true
	}
	input := p.slabInputs.Get(idx.Handle)
	if input == nil {
		return nil, false
	}
	return &input.Data, true
}

// Add admits a new input into the pool. existingFeatures must be
// the subset of the input's observed features whose feature record already
// exists in the pool, sorted by feature value; newFeatures must be the
// remaining, previously-unseen feature values, also sorted. It is a
// precondition (not checked outside debug sanity checks) that the caller
// classified them correctly against the pool's current feature set.
func (p *Pool[V, C, S]) Add(
	data domain.FuzzedInput[V, C, S],
	complexity float64,
	existingFeatures []FeatureHandle[V, C, S],
	newFeatures []domain.Feature,
) []domain.Event[V] {
	elementKey := p.slabInputs.Insert(Input[V, C, S]{
		Data:            data,
		Complexity:      complexity,
		LeastComplexFor: make(map[FeatureHandle[V, C, S]]struct{}),
		IdxInPool:       len(p.inputs),
	})
	p.inputs = append(p.inputs, elementKey)

	var toDelete []InputHandle[V, C, S]

	// Process existing features.
	for _, featureKey := range existingFeatures {
		feature := p.slabFeatures.Get(featureKey)

		for _, inputKey := range feature.Inputs {
			affected := p.slabInputs.Get(inputKey)
			if affected.Complexity >= complexity {
				delete(affected.LeastComplexFor, featureKey)
				if len(affected.LeastComplexFor) == 0 {
					toDelete = append(toDelete, inputKey)
				}
			}
		}

		element := p.slabInputs.Get(elementKey)
		if feature.LeastComplexity >= complexity {
			element.LeastComplexFor[featureKey] = struct{}{}
			feature.LeastComplexInput = elementKey
			feature.LeastComplexity = complexity
		}
		element.AllFeatures = append(element.AllFeatures, featureKey)
		feature.Inputs = append(feature.Inputs, elementKey)
	}

	// Process new features.
	for _, f := range newFeatures {
		fKey := p.slabFeatures.NextKey()
		groupKey := p.insertFeature(FeatureForIteration[V, C, S]{Key: fKey, Feature: f})
		p.slabFeatures.Insert(FeatureInPool[V, C, S]{
			Feature:           f,
			Group:             groupKey,
			Inputs:            []InputHandle[V, C, S]{elementKey},
			LeastComplexInput: elementKey,
			LeastComplexity:   complexity,
			OldMultiplicity:   1,
		})

		element := p.slabInputs.Get(elementKey)
		element.AllFeatures = append(element.AllFeatures, fKey)
		element.LeastComplexFor[fKey] = struct{}{}
	}

	toDelete = dedupHandles(toDelete)

	deletedValues := make([]V, len(toDelete))
	for i, k := range toDelete {
		deletedValues[i] = p.slabInputs.Get(k).Data.Value
	}

	p.deleteElements(toDelete, elementKey)

	// Score propagation for groups touched by new features, coalescing
	// consecutive new features that share a group.
	i := 0
	for i < len(newFeatures) {
		f := newFeatures[i]
		featureIdx := p.indexOfFeature(f)
		featureForIter := p.features[featureIdx]
		group := p.slabFeatureGroups.Get(p.slabFeatures.Get(featureForIter.Key).Group)

		for _, entry := range p.features[group.Start:group.End] {
			feature := p.slabFeatures.Get(entry.Key)
			oldScore := scoreOfFeature(group.OldSize, feature.OldMultiplicity)
			newScore := scoreOfFeature(group.Size(), len(feature.Inputs))
			delta := newScore - oldScore
			for _, inputKey := range feature.Inputs {
				if inputKey != elementKey {
					p.slabInputs.Get(inputKey).Score += delta
				}
			}
			feature.OldMultiplicity = len(feature.Inputs)
		}
		group.OldSize = group.Size()

		groupID := f.GroupID()
		i++
		for i < len(newFeatures) && newFeatures[i].GroupID() == groupID {
			i++
		}
	}

	// Score propagation for the existing features processed above.
	for _, featureKey := range existingFeatures {
		feature := p.slabFeatures.Get(featureKey)
		group := p.slabFeatureGroups.Get(feature.Group)

		oldScore := scoreOfFeature(group.OldSize, feature.OldMultiplicity)
		newScore := scoreOfFeature(group.Size(), len(feature.Inputs))
		delta := newScore - oldScore
		for _, inputKey := range feature.Inputs {
			if inputKey != elementKey {
				p.slabInputs.Get(inputKey).Score += delta
			}
		}
		feature.OldMultiplicity = len(feature.Inputs)
	}

	// Compute the new input's score from scratch.
	element := p.slabInputs.Get(elementKey)
	element.Score = 0
	for _, fKey := range element.AllFeatures {
		feature := p.slabFeatures.Get(fKey)
		group := p.slabFeatureGroups.Get(feature.Group)
		element.Score += scoreOfFeature(group.Size(), len(feature.Inputs))
	}
	value := element.Data.Value

	var events []domain.Event[V]
	if len(deletedValues) > 0 {
		events = append(events, domain.ReplaceEvent[V](len(deletedValues)))
	} else {
		events = append(events, domain.NewEvent[V](), domain.AddEvent(value))
	}
	for _, v := range deletedValues {
		events = append(events, domain.RemoveEvent(v))
	}

	p.updateStats()

	return events
}

// indexOfFeature returns the position of f in the sorted features-iteration
// vector. f must already have been inserted (it is only called for features
// just processed as new features by Add).
func (p *Pool[V, C, S]) indexOfFeature(f domain.Feature) int {
	idx := sort.Search(len(p.features), func(i int) bool {
		return p.features[i].Feature >= f
	})
	return idx
}

// deleteElements removes every input in toDelete from the pool, updating
// every feature it held and every other input's score accordingly, except
// doNotAdjust's. Pass arena.Invalid[Input[V,C,S]]() for doNotAdjust to
// adjust every surviving input.
func (p *Pool[V, C, S]) deleteElements(toDelete []InputHandle[V, C, S], doNotAdjust InputHandle[V, C, S]) {
	for _, toDeleteKey := range toDelete {
		toSwapIdx := len(p.inputs) - 1
		toSwapKey := p.inputs[toSwapIdx]
		toDeleteIdx := p.slabInputs.Get(toDeleteKey).IdxInPool

		p.slabInputs.Get(toSwapKey).IdxInPool = toDeleteIdx

		p.inputs[toDeleteIdx], p.inputs[toSwapIdx] = p.inputs[toSwapIdx], p.inputs[toDeleteIdx]
		p.inputs = p.inputs[:toSwapIdx]

		allFeatures := slices.Clone(p.slabInputs.Get(toDeleteKey).AllFeatures)

		for _, fKey := range allFeatures {
			feature := p.slabFeatures.Get(fKey)
			feature.Inputs = removeHandle(feature.Inputs, toDeleteKey)

			group := p.slabFeatureGroups.Get(feature.Group)

			// This branch intentionally uses group.OldSize (not the live
			// group.Size()) for both the old and new score, i.e. the group
			// size as of the last admission that finished, not a possibly
			// mid-update value.
			newScore := scoreOfFeature(group.OldSize, len(feature.Inputs))
			oldScore := scoreOfFeature(group.OldSize, feature.OldMultiplicity)
			delta := newScore - oldScore

			for _, inputKey := range feature.Inputs {
				if inputKey != doNotAdjust {
					p.slabInputs.Get(inputKey).Score += delta
				}
			}
			feature.OldMultiplicity = len(feature.Inputs)
		}
		p.slabInputs.Remove(toDeleteKey)
	}
}

// RemoveLowestScoringInput deletes the input with the smallest score,
// adjusting every surviving input's score, and returns the events
// describing the removal.
func (p *Pool[V, C, S]) RemoveLowestScoringInput() []domain.Event[V] {
	if len(p.inputs) == 0 {
		return nil
	}

	pick := p.inputs[0]
	pickScore := p.slabInputs.Get(pick).Score
	for _, k := range p.inputs[1:] {
		if s := p.slabInputs.Get(k).Score; s < pickScore {
			pick = k
			pickScore = s
		}
	}

	deletedValue := p.slabInputs.Get(pick).Data.Value

	p.deleteElements([]InputHandle[V, C, S]{pick}, arena.Invalid[Input[V, C, S]]())

	events := []domain.Event[V]{domain.RemoveEvent(deletedValue)}

	p.updateStats()

	return events
}

func dedupHandles[V any, C any, S any](handles []InputHandle[V, C, S]) []InputHandle[V, C, S] {
	if len(handles) < 2 {
		return handles
	}
	seen := make(map[InputHandle[V, C, S]]struct{}, len(handles))
	out := handles[:0:0]
	for _, h := range handles {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}

func removeHandle[V any, C any, S any](s []InputHandle[V, C, S], v InputHandle[V, C, S]) []InputHandle[V, C, S] {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
