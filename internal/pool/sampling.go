package pool

import "sort"

// updateStats recomputes the cumulative-weights vector and average
// complexity after a structural change to the pool. O(n) in the number of
// regular inputs.
func (p *Pool[V, C, S]) updateStats() {
	p.cumulativeWeights = p.cumulativeWeights[:0]
	var totalComplexity float64
	var running float64
	for _, k := range p.inputs {
		input := p.slabInputs.Get(k)
		running += input.Score
		p.cumulativeWeights = append(p.cumulativeWeights, running)
		totalComplexity += input.Complexity
	}
	if len(p.inputs) == 0 {
		p.averageComplexity = 0
		return
	}
	p.averageComplexity = totalComplexity / float64(len(p.inputs))
}

// RandomIndex picks the next input to mutate: the favored input, when one
// is set, with favoredProbability chance (or always, if the regular pool
// is empty), and otherwise a weighted pick among regular inputs
// proportional to each input's score.
//
// RandomIndex returns (Index{}, false) only when there is no favored input
// and the regular pool is empty.
func (p *Pool[V, C, S]) RandomIndex() (Index[V, C, S], bool) {
	if p.favoredInput != nil && (len(p.inputs) == 0 || p.rng.Float64() < favoredProbability) {
		return FavoredIndex[V, C, S](), true
	}
	if len(p.inputs) == 0 {
		return Index[V, C, S]{}, false
	}

	total := p.cumulativeWeights[len(p.cumulativeWeights)-1]
	if total <= 0 {
		// No input carries positive score (can happen only transiently);
		// fall back to a uniform pick so the driver always makes progress.
		return NormalIndex[V, C, S](p.inputs[p.rng.IntN(len(p.inputs))]), true
	}

	target := p.rng.Float64() * total
	idx := sort.Search(len(p.cumulativeWeights), func(i int) bool {
		return p.cumulativeWeights[i] > target
	})
	if idx == len(p.cumulativeWeights) {
		idx = len(p.cumulativeWeights) - 1
	}
	return NormalIndex[V, C, S](p.inputs[idx]), true
}
