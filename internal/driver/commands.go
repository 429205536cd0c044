package driver

import (
	"fmt"

	"github.com/covguard/fuzzcheck/internal/domain"
	"github.com/covguard/fuzzcheck/internal/mutator"
	"github.com/covguard/fuzzcheck/internal/sensor"
)

// Read executes a single input file once, outside the pool, and reports
// whether it crashed. It never touches corpus storage.
func Read(target Target, input []byte) (crashed bool, err error) {
	return target(input)
}

// featureSet is a comparable set of features, used to check that a
// minified candidate still reproduces everything the original input did.
type featureSet map[domain.Feature]struct{}

func newFeatureSet(features []domain.Feature) featureSet {
	set := make(featureSet, len(features))
	for _, f := range features {
		set[f] = struct{}{}
	}
	return set
}

// supersetOf reports whether s contains every feature in other.
func (s featureSet) supersetOf(other featureSet) bool {
	for f := range other {
		if _, ok := s[f]; !ok {
			return false
		}
	}
	return true
}

// runRecorded executes target under a fresh recorder and returns the
// features the run observed alongside whatever target reported. The
// recorder is activated process-wide for the duration of the call so an
// in-process target can report hits via sensor.HitEdge/HitComparison.
func runRecorded(target Target, input []byte) (crashed bool, features []domain.Feature, err error) {
	rec := sensor.NewRecorder()
	sensor.Activate(rec)
	rec.Start()
	crashed, err = target(input)
	rec.Stop()
	return crashed, rec.Collect(), err
}

// Minify repeatedly shrinks input as long as a smaller mutation still
// crashes target and still reproduces every feature the original input
// reached, stopping after maxRounds unproductive attempts in a row. It
// returns the smallest input found.
func Minify(target Target, input []byte, maxComplexity float64, seed uint64, maxRounds int) ([]byte, error) {
	crashed, originalFeatures, err := runRecorded(target, input)
	if err != nil {
		return nil, fmt.Errorf("minify: confirm original crash: %w", err)
	}
	if !crashed {
		return nil, fmt.Errorf("minify: input does not crash target")
	}
	required := newFeatureSet(originalFeatures)

	best := append([]byte(nil), input...)
	m := mutator.NewByteSliceMutator(maxComplexity, seed)

	failedInARow := 0
	for round := 0; failedInARow < maxRounds; round++ {
		if len(best) == 0 {
			break
		}
		candidate := append([]byte(nil), best...)
		cache := m.CacheFromValue(candidate)
		step := m.MutationStepFromValue(candidate, cache)
		m.Mutate(&candidate, &cache, &step, maxComplexity)

		if len(candidate) >= len(best) {
			failedInARow++
			continue
		}

		crashed, features, err := runRecorded(target, candidate)
		if err != nil {
			return nil, fmt.Errorf("minify round %d: %w", round, err)
		}
		if crashed && newFeatureSet(features).supersetOf(required) {
			best = candidate
			failedInARow = 0
		} else {
			failedInARow++
		}
	}
	return best, nil
}

// MinifyCorpus replays every input in a corpus through a fresh pool and
// returns the subset the admission policy kept. When opts.CorpusSize is
// positive, the lowest-scoring inputs are then removed until at most
// CorpusSize remain.
func MinifyCorpus(target Target, corpus [][]byte, opts Options) ([][]byte, error) {
	d := New(target, opts)
	for _, input := range corpus {
		_, features, err := d.execute(input)
		if err != nil {
			return nil, fmt.Errorf("cmin execution: %w", err)
		}
		if err := d.admit(input, features); err != nil {
			return nil, err
		}
	}

	for opts.CorpusSize > 0 && d.pool.Len() > opts.CorpusSize {
		d.pool.RemoveLowestScoringInput()
	}

	return d.pool.Values(), nil
}
