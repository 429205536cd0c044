// Run with -tags sanitycheck to exercise the real SanityCheck walk; without
// the tag it's a no-op stub and these calls just assert nil.
package pool

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/covguard/fuzzcheck/internal/domain"
)

type testPool = Pool[string, struct{}, struct{}]

func newTestPool() *testPool {
	return New[string, struct{}, struct{}](1)
}

func e(guard uint64, intensity uint8) domain.Feature {
	return domain.NewEdgeFeature(guard, intensity)
}

func add(t *testing.T, p *testPool, value string, complexity float64, observed []domain.Feature) []domain.Event[string] {
	t.Helper()
	existing, created := p.ClassifyFeatures(observed)
	events := p.Add(domain.FuzzedInput[string, struct{}, struct{}]{Value: value}, complexity, existing, created)
	if err := p.SanityCheck(); err != nil {
		t.Fatalf("sanity check failed after adding %q: %v", value, err)
	}
	return events
}

func approxEqual(a, b float64) bool { return math.Abs(a-b) <= 1e-2 }

func scoreOf(t *testing.T, p *testPool, value string) float64 {
	t.Helper()
	for _, k := range p.inputs {
		in := p.slabInputs.Get(k)
		if in.Data.Value == value {
			return in.Score
		}
	}
	t.Fatalf("value %q not found in pool", value)
	return 0
}

func TestAddSingleInputScoresOnePerGroup(t *testing.T) {
	p := newTestPool()
	events := add(t, p, "X", 10.0, []domain.Feature{e(0, 0), e(0, 1)})

	if p.Len() != 1 {
		t.Fatalf("len = %d, want 1", p.Len())
	}
	if len(events) != 2 || events[0].Kind != domain.EventNew || events[1].Kind != domain.EventAdd || events[1].Value != "X" {
		t.Fatalf("events = %+v, want [New, Add(X)]", events)
	}
	if got := scoreOf(t, p, "X"); !approxEqual(got, 1.0) {
		t.Fatalf("X.score = %v, want 1.0", got)
	}
}

func TestAddSharedFeatureSplitsScore(t *testing.T) {
	p := newTestPool()
	add(t, p, "X", 10.0, []domain.Feature{e(0, 0), e(0, 1)})
	add(t, p, "Y", 20.0, []domain.Feature{e(1, 0), e(0, 0)})

	if p.Len() != 2 {
		t.Fatalf("len = %d, want 2", p.Len())
	}
	if got := scoreOf(t, p, "X"); !approxEqual(got, 0.75) {
		t.Fatalf("X.score = %v, want 0.75", got)
	}
	if got := scoreOf(t, p, "Y"); !approxEqual(got, 1.25) {
		t.Fatalf("Y.score = %v, want 1.25", got)
	}
}

func TestAddLowerComplexityDisplacesExistingWitnesses(t *testing.T) {
	p := newTestPool()
	add(t, p, "X", 10.0, []domain.Feature{e(0, 0), e(0, 1)})
	add(t, p, "Y", 20.0, []domain.Feature{e(1, 0), e(0, 0)})
	events := add(t, p, "Z", 5.0, []domain.Feature{e(0, 0), e(0, 1), e(1, 0)})

	if len(events) != 3 || events[0].Kind != domain.EventReplace || events[0].Count != 2 {
		t.Fatalf("events[0] = %+v, want Replace(2)", events[0])
	}
	removed := map[string]bool{}
	for _, ev := range events[1:] {
		if ev.Kind != domain.EventRemove {
			t.Fatalf("event %+v, want Remove", ev)
		}
		removed[ev.Value] = true
	}
	if !removed["X"] || !removed["Y"] {
		t.Fatalf("removed = %v, want X and Y", removed)
	}
	if p.Len() != 1 {
		t.Fatalf("len = %d, want 1", p.Len())
	}
	if got := scoreOf(t, p, "Z"); !approxEqual(got, 2.0) {
		t.Fatalf("Z.score = %v, want 2.0", got)
	}
}

func TestGroupNormalizationGivesEqualScoreRegardlessOfGroupSize(t *testing.T) {
	p := newTestPool()
	add(t, p, "A", 1.0, []domain.Feature{e(0, 0), e(0, 1), e(0, 2)})

	pSingle := newTestPool()
	add(t, pSingle, "B", 1.0, []domain.Feature{e(1, 0)})

	scoreA := scoreOf(t, p, "A")
	scoreB := scoreOf(t, pSingle, "B")
	if !approxEqual(scoreA, 1.0) || !approxEqual(scoreB, 1.0) {
		t.Fatalf("scoreA=%v scoreB=%v, want both 1.0", scoreA, scoreB)
	}
}

func TestRandomizedAddAndRemovePreserveInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	p := newTestPool()

	var seenGuards []uint64
	totalScoreBefore := 0.0

	for i := 0; i < 100; i++ {
		complexity := 1.0 + rng.Float64()*99.0

		var observed []domain.Feature
		numNew := rng.IntN(3)
		for j := 0; j < numNew; j++ {
			guard := uint64(rng.IntN(1000)) + 1000000
			observed = append(observed, e(guard, uint8(rng.IntN(4))))
			seenGuards = append(seenGuards, guard)
		}
		if len(seenGuards) > 0 {
			numExisting := rng.IntN(3)
			for j := 0; j < numExisting; j++ {
				guard := seenGuards[rng.IntN(len(seenGuards))]
				observed = append(observed, e(guard, uint8(rng.IntN(4))))
			}
		}
		if len(observed) == 0 {
			guard := uint64(rng.IntN(1000)) + 2000000
			observed = append(observed, e(guard, 0))
			seenGuards = append(seenGuards, guard)
		}

		before := p.Score()
		add(t, p, "v", complexity, observed)
		after := p.Score()
		if after < before-1e-2 {
			t.Fatalf("add decreased total score: before=%v after=%v", before, after)
		}

		if p.Len() > 0 && rng.Float64() < 0.3 {
			beforeRemove := p.Score()
			p.RemoveLowestScoringInput()
			if err := p.SanityCheck(); err != nil {
				t.Fatalf("sanity check failed after remove: %v", err)
			}
			afterRemove := p.Score()
			if afterRemove > beforeRemove+1e-2 {
				t.Fatalf("remove increased total score: before=%v after=%v", beforeRemove, afterRemove)
			}
		}

		totalScoreBefore = after
	}
	_ = totalScoreBefore
}

func TestFavoredInputSampledAtConfiguredRate(t *testing.T) {
	p := newTestPool()
	add(t, p, "X", 1.0, []domain.Feature{e(0, 0)})
	add(t, p, "Y", 1.0, []domain.Feature{e(1, 0)})
	p.AddFavoredInput(domain.FuzzedInput[string, struct{}, struct{}]{Value: "F"})

	const trials = 10000
	favoredCount := 0
	for i := 0; i < trials; i++ {
		idx, ok := p.RandomIndex()
		if !ok {
			t.Fatalf("RandomIndex returned !ok with non-empty pool")
		}
		if idx.Favored {
			favoredCount++
		}
	}
	frac := float64(favoredCount) / float64(trials)
	if frac < 0.23 || frac > 0.27 {
		t.Fatalf("favored fraction = %v, want ~0.25", frac)
	}
}

func TestRandomIndexEmptyPool(t *testing.T) {
	p := newTestPool()
	if _, ok := p.RandomIndex(); ok {
		t.Fatal("RandomIndex returned ok on an empty pool with no favored input")
	}
}

// A tie in complexity favors the newcomer: the incoming input becomes the
// feature's least-complex witness and the old one, having no feature left
// to witness, is deleted.
func TestEqualComplexityTieFavorsNewcomer(t *testing.T) {
	p := newTestPool()
	add(t, p, "A", 5.0, []domain.Feature{e(0, 0)})
	events := add(t, p, "B", 5.0, []domain.Feature{e(0, 0)})

	if p.Len() != 1 {
		t.Fatalf("len = %d, want 1 (A displaced by tie)", p.Len())
	}
	if len(events) != 2 || events[0].Kind != domain.EventReplace || events[0].Count != 1 {
		t.Fatalf("events = %+v, want [Replace(1), Remove(A)]", events)
	}
	if got := scoreOf(t, p, "B"); !approxEqual(got, 1.0) {
		t.Fatalf("B.score = %v, want 1.0", got)
	}
}
