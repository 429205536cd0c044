//go:build sanitycheck

package pool

import (
	"fmt"
	"math"
)

// SanityCheck verifies every structural invariant the pool is supposed to
// maintain after each operation. It is O(n) in the pool's size and is
// meant to be called after each mutation in property tests, not on any
// hot path.
func (p *Pool[V, C, S]) SanityCheck() error {
	for i, k := range p.inputs {
		input := p.slabInputs.Get(k)
		if input == nil {
			return fmt.Errorf("sanity: inputs[%d] handle does not resolve", i)
		}
		if input.Score <= 0 {
			return fmt.Errorf("sanity: input at idx %d has non-positive score %v", i, input.Score)
		}
		if len(input.LeastComplexFor) == 0 {
			return fmt.Errorf("sanity: input at idx %d has empty LeastComplexFor", i)
		}
		if input.IdxInPool != i {
			return fmt.Errorf("sanity: input at idx %d has IdxInPool %d", i, input.IdxInPool)
		}
	}

	for i := 1; i < len(p.features); i++ {
		if p.features[i-1].Feature >= p.features[i].Feature {
			return fmt.Errorf("sanity: features not strictly ascending at %d", i)
		}
	}

	prevEnd := 0
	var prevGroupID int64 = -1
	for gi, gk := range p.featureGroups {
		group := p.slabFeatureGroups.Get(gk)
		if group == nil {
			return fmt.Errorf("sanity: featureGroups[%d] handle does not resolve", gi)
		}
		if int64(group.ID) <= prevGroupID {
			return fmt.Errorf("sanity: groups not strictly ascending at %d", gi)
		}
		prevGroupID = int64(group.ID)
		if group.Start != prevEnd {
			return fmt.Errorf("sanity: group %d range does not tile (want start %d, got %d)", gi, prevEnd, group.Start)
		}
		if group.End <= group.Start {
			return fmt.Errorf("sanity: group %d has empty range", gi)
		}
		for _, entry := range p.features[group.Start:group.End] {
			if entry.Feature.GroupID() != group.ID {
				return fmt.Errorf("sanity: feature in group %d range has mismatched GroupID", gi)
			}
		}
		prevEnd = group.End
	}
	if prevEnd != len(p.features) {
		return fmt.Errorf("sanity: group ranges cover %d features, want %d", prevEnd, len(p.features))
	}

	for i, k := range p.inputs {
		input := p.slabInputs.Get(k)
		var recomputed float64
		for _, fKey := range input.AllFeatures {
			feature := p.slabFeatures.Get(fKey)
			group := p.slabFeatureGroups.Get(feature.Group)
			recomputed += scoreOfFeature(group.Size(), len(feature.Inputs))
		}
		if math.Abs(recomputed-input.Score) > 1e-2 {
			return fmt.Errorf("sanity: input at idx %d score %v, recomputed %v", i, input.Score, recomputed)
		}

		for fKey := range input.LeastComplexFor {
			feature := p.slabFeatures.Get(fKey)
			if feature == nil {
				return fmt.Errorf("sanity: input at idx %d LeastComplexFor references unknown feature", i)
			}
			if feature.LeastComplexity != input.Complexity {
				return fmt.Errorf("sanity: feature least_complexity %v != witness complexity %v", feature.LeastComplexity, input.Complexity)
			}
			holds := false
			for _, ik := range feature.Inputs {
				if ik == k {
					holds = true
				}
				if other := p.slabInputs.Get(ik); other != nil && other.Complexity < input.Complexity {
					return fmt.Errorf("sanity: feature has a witness with strictly smaller complexity than its recorded least-complex input")
				}
			}
			if !holds {
				return fmt.Errorf("sanity: input at idx %d not present in its LeastComplexFor feature's Inputs", i)
			}
		}
	}

	seen := make(map[InputHandle[V, C, S]]struct{}, len(p.inputs))
	for _, k := range p.inputs {
		if _, ok := seen[k]; ok {
			return fmt.Errorf("sanity: duplicate input handle in inputs vector")
		}
		seen[k] = struct{}{}
	}

	return nil
}
