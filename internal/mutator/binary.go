// Package mutator provides a minimal, concrete Mutator implementation. The
// pool treats a mutator's capability set opaquely and never specifies a
// reference mutator, so this one exists only to give the driver and tests
// something to instantiate domain.Mutator with.
package mutator

import "math"

// ArbitraryBinary deterministically narrows [low, high] using step as a
// binary-search path: step's bits choose left/right at each level. The
// result always lies in [low, high]; different steps can yield the same
// value, and some values of the range may never be produced.
func ArbitraryBinary(low, high, step int) int {
	if high == low {
		return low
	}
	span := high - low
	step = step % span
	next := low + span/2
	if low+1 == high {
		if step%2 == 0 {
			return high
		}
		return low
	}
	if step == 0 {
		return next
	}
	if step%2 == 1 {
		return ArbitraryBinary(next+1, high, step/2)
	}
	return ArbitraryBinary(low, next-1, (step-1)/2)
}

// ComplexityToSize converts a complexity budget to the largest value count
// a mutator may produce at that complexity.
func ComplexityToSize(cplx float64) int {
	size := math.Round(math.Pow(2, cplx))
	if size > math.MaxInt {
		return math.MaxInt
	}
	return int(size)
}

// SizeToComplexity is ComplexityToSize's inverse.
func SizeToComplexity(size int) float64 {
	return math.Log2(float64(size))
}
