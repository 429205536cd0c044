package mutator

import (
	"math/rand/v2"

	"github.com/covguard/fuzzcheck/internal/domain"
)

// ByteCache memoizes a []byte value's complexity so repeated Complexity
// calls don't re-walk the slice.
type ByteCache struct {
	complexity float64
}

// ByteStep carries the mutator's iteration state across successive Mutate
// calls on the same value. Mutate only counts calls in it; each mutation is
// chosen at random, so successive mutations of a value can repeat.
type ByteStep struct {
	arbitraryStep int
}

// ByteUnmutateToken records enough of a Mutate call to undo it in place.
type ByteUnmutateToken struct {
	index int
	prior byte
	kind  byteMutationKind
}

type byteMutationKind int

const (
	kindFlip byteMutationKind = iota
	kindInsert
	kindRemove
)

// byteComplexity is log2 of the value's length, matching the
// size<->complexity correspondence ComplexityToSize/SizeToComplexity assume
// (complexity is log2 of an equivalent search-space size).
func byteComplexity(v []byte) float64 {
	if len(v) == 0 {
		return 0
	}
	return SizeToComplexity(len(v))
}

// ByteSliceMutator is a trivial domain.Mutator[[]byte, ...] over arbitrary
// byte slices: flips, inserts, and removes single bytes. It exists to
// exercise the pool and driver end to end, not to fuzz any particular
// target format well.
type ByteSliceMutator struct {
	maxComplexity float64
	rng           *rand.Rand
}

// NewByteSliceMutator returns a mutator that never produces a value more
// complex than maxComplexity.
func NewByteSliceMutator(maxComplexity float64, seed uint64) *ByteSliceMutator {
	return &ByteSliceMutator{
		maxComplexity: maxComplexity,
		rng:           rand.New(rand.NewPCG(seed, seed^0xa5a5a5a5)),
	}
}

var _ domain.Mutator[[]byte, ByteCache, ByteStep, ByteUnmutateToken] = (*ByteSliceMutator)(nil)

func (m *ByteSliceMutator) CacheFromValue(value []byte) ByteCache {
	return ByteCache{complexity: byteComplexity(value)}
}

func (m *ByteSliceMutator) MutationStepFromValue(value []byte, cache ByteCache) ByteStep {
	return ByteStep{}
}

func (m *ByteSliceMutator) MaxComplexity() float64 { return m.maxComplexity }

func (m *ByteSliceMutator) MinComplexity() float64 { return 0 }

func (m *ByteSliceMutator) Complexity(value []byte, cache ByteCache) float64 {
	return cache.complexity
}

func (m *ByteSliceMutator) Arbitrary(seed int, maxComplexity float64) ([]byte, ByteCache) {
	maxLen := ComplexityToSize(maxComplexity)
	if maxLen > 4096 {
		maxLen = 4096
	}
	length := ArbitraryBinary(0, maxLen, seed)
	value := make([]byte, length)
	for i := range value {
		value[i] = byte(m.rng.IntN(256))
	}
	return value, m.CacheFromValue(value)
}

// Mutate changes value/cache in place, charging at most maxComplexity, and
// returns a token Unmutate can use to revert the change.
func (m *ByteSliceMutator) Mutate(value *[]byte, cache *ByteCache, step *ByteStep, maxComplexity float64) ByteUnmutateToken {
	step.arbitraryStep++

	if len(*value) == 0 || (len(*value) < ComplexityToSize(maxComplexity) && m.rng.IntN(3) == 0) {
		idx := 0
		if len(*value) > 0 {
			idx = m.rng.IntN(len(*value) + 1)
		}
		b := byte(m.rng.IntN(256))
		*value = append((*value)[:idx], append([]byte{b}, (*value)[idx:]...)...)
		cache.complexity = byteComplexity(*value)
		return ByteUnmutateToken{index: idx, kind: kindInsert}
	}

	if len(*value) > 1 && m.rng.IntN(5) == 0 {
		idx := m.rng.IntN(len(*value))
		prior := (*value)[idx]
		*value = append((*value)[:idx], (*value)[idx+1:]...)
		cache.complexity = byteComplexity(*value)
		return ByteUnmutateToken{index: idx, prior: prior, kind: kindRemove}
	}

	idx := m.rng.IntN(len(*value))
	prior := (*value)[idx]
	(*value)[idx] = byte(m.rng.IntN(256))
	cache.complexity = byteComplexity(*value)
	return ByteUnmutateToken{index: idx, prior: prior, kind: kindFlip}
}

// Unmutate reverts a mutation previously applied by Mutate.
func (m *ByteSliceMutator) Unmutate(value *[]byte, cache *ByteCache, token ByteUnmutateToken) {
	switch token.kind {
	case kindFlip:
		(*value)[token.index] = token.prior
	case kindInsert:
		*value = append((*value)[:token.index], (*value)[token.index+1:]...)
	case kindRemove:
		idx := token.index
		*value = append((*value)[:idx], append([]byte{token.prior}, (*value)[idx:]...)...)
	}
	cache.complexity = byteComplexity(*value)
}
