package mutator

import "testing"

func TestArbitraryBinaryBounds(t *testing.T) {
	for step := 0; step < 50; step++ {
		v := ArbitraryBinary(0, 10, step)
		if v < 0 || v > 10 {
			t.Fatalf("ArbitraryBinary(0, 10, %d) = %d, out of range", step, v)
		}
	}
}

func TestArbitraryBinaryDegenerateRange(t *testing.T) {
	if got := ArbitraryBinary(5, 5, 3); got != 5 {
		t.Fatalf("ArbitraryBinary(5, 5, 3) = %d, want 5", got)
	}
}

func TestComplexitySizeRoundTrip(t *testing.T) {
	for _, size := range []int{1, 2, 4, 16, 1024} {
		cplx := SizeToComplexity(size)
		if got := ComplexityToSize(cplx); got != size {
			t.Errorf("round trip for size %d: got %d", size, got)
		}
	}
}

func TestByteSliceMutatorMutateUnmutate(t *testing.T) {
	m := NewByteSliceMutator(16, 1)
	value, cache := m.Arbitrary(1, 8)
	original := append([]byte(nil), value...)

	step := m.MutationStepFromValue(value, cache)
	token := m.Mutate(&value, &cache, &step, 16)
	m.Unmutate(&value, &cache, token)

	if len(value) != len(original) {
		t.Fatalf("Unmutate did not restore length: got %d, want %d", len(value), len(original))
	}
	for i := range value {
		if value[i] != original[i] {
			t.Fatalf("Unmutate did not restore byte %d: got %v, want %v", i, value, original)
		}
	}
}

func TestByteSliceMutatorComplexityMatchesCache(t *testing.T) {
	m := NewByteSliceMutator(16, 2)
	value, cache := m.Arbitrary(5, 8)
	if got := m.Complexity(value, cache); got != cache.complexity {
		t.Fatalf("Complexity() = %v, want cache.complexity %v", got, cache.complexity)
	}
}
