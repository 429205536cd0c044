// Package driver runs the fuzz loop: it owns the target execution,
// classifies observed features against the pool, and feeds admission
// events to persistence and metrics. The pool itself has no I/O and never
// logs; this package is where that ambient behavior lives.
package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/covguard/fuzzcheck/internal/corpusdb"
	"github.com/covguard/fuzzcheck/internal/domain"
	"github.com/covguard/fuzzcheck/internal/mutator"
	"github.com/covguard/fuzzcheck/internal/observability"
	"github.com/covguard/fuzzcheck/internal/pool"
	"github.com/covguard/fuzzcheck/internal/sensor"
	"github.com/covguard/fuzzcheck/internal/statusserver"
)

// Target is the fuzzed function under test: given an input, it runs once
// and reports whether it crashed.
type Target func(input []byte) (crashed bool, err error)

// Options configures a Driver.
type Options struct {
	MaxIterations int // 0 means unbounded
	MaxComplexity float64
	CorpusSize    int
	RNGSeed       uint64

	Store *corpusdb.Store
	Index *corpusdb.DB
}

// Driver owns one fuzzing session: a pool, a recorder, a mutator, and the
// bookkeeping needed to persist and report what happens.
type Driver struct {
	runID   string
	opts    Options
	target  Target
	pool    *pool.Pool[[]byte, mutator.ByteCache, mutator.ByteStep]
	mut     *mutator.ByteSliceMutator
	rec     *sensor.Recorder
	novelty *corpusdb.NoveltyFilter
	started time.Time

	iterations int64
	crashes    int64
}

// New builds a Driver ready to run target.
func New(target Target, opts Options) *Driver {
	d := &Driver{
		runID:   uuid.NewString(),
		opts:    opts,
		target:  target,
		pool:    pool.New[[]byte, mutator.ByteCache, mutator.ByteStep](opts.RNGSeed),
		mut:     mutator.NewByteSliceMutator(opts.MaxComplexity, opts.RNGSeed),
		rec:     sensor.NewRecorder(),
		novelty: corpusdb.NewNoveltyFilter(1<<16, 0.001),
		started: time.Now(),
	}
	sensor.Activate(d.rec)
	return d
}

// Stats implements statusserver.StatsSource.
func (d *Driver) Stats() statusserver.Stats {
	return statusserver.Stats{
		RunID:             d.runID,
		Iterations:        d.iterations,
		PoolSize:          d.pool.Len(),
		PoolScore:         d.pool.Score(),
		AverageComplexity: d.pool.AverageComplexity(),
		Crashes:           d.crashes,
		Uptime:            time.Since(d.started).String(),
	}
}

// execute runs the target once under the recorder and returns the
// observed features alongside whatever the target reported.
func (d *Driver) execute(input []byte) (crashed bool, features []domain.Feature, err error) {
	d.rec.Start()
	start := time.Now()
	crashed, err = d.target(input)
	observability.ExecutionDuration.Observe(time.Since(start).Seconds())
	d.rec.Stop()

	d.iterations++
	observability.ExecutionsTotal.Inc()
	if crashed {
		d.crashes++
		observability.CrashesTotal.Inc()
	}
	return crashed, d.rec.Collect(), err
}

// admit runs data through the pool's admission policy and persists the
// resulting events.
func (d *Driver) admit(data []byte, features []domain.Feature) error {
	existing, created := d.pool.ClassifyFeatures(features)
	if len(existing) == 0 && len(created) == 0 {
		return nil
	}

	cache := d.mut.CacheFromValue(data)
	complexity := d.mut.Complexity(data, cache)
	step := d.mut.MutationStepFromValue(data, cache)
	events := d.pool.Add(domain.FuzzedInput[[]byte, mutator.ByteCache, mutator.ByteStep]{
		Value: data, Cache: cache, Step: step,
	}, complexity, existing, created)

	for _, ev := range events {
		observability.RecordEvent(ev)
		switch ev.Kind {
		case domain.EventAdd:
			if err := d.persist(ev.Value, complexity, "corpus"); err != nil {
				return err
			}
		case domain.EventRemove:
			if d.opts.Index != nil {
				_ = d.opts.Index.Delete(corpusdb.Digest(ev.Value))
			}
		}
	}
	observability.RecordPoolStats(d.pool.Len(), d.pool.Score(), d.pool.AverageComplexity())
	return nil
}

func (d *Driver) persist(value []byte, complexity float64, kind string) error {
	if d.opts.Store == nil {
		return nil
	}
	digest, err := d.opts.Store.Write(value)
	if err != nil {
		return err
	}
	if d.opts.Index != nil {
		return d.opts.Index.Upsert(corpusdb.Entry{
			Digest: digest, SizeBytes: int64(len(value)), Complexity: complexity, Kind: kind,
		})
	}
	return nil
}

// Fuzz runs the main fuzz loop until ctx is cancelled or MaxIterations is
// reached (0 means unbounded). Inputs in seeds are admitted first.
func (d *Driver) Fuzz(ctx context.Context, seeds [][]byte) error {
	for _, seed := range seeds {
		_, features, err := d.execute(seed)
		if err != nil {
			return fmt.Errorf("seed execution: %w", err)
		}
		if err := d.admit(seed, features); err != nil {
			return err
		}
	}

	for i := 0; d.opts.MaxIterations == 0 || i < d.opts.MaxIterations; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		idx, ok := d.pool.RandomIndex()
		if !ok {
			if err := d.seedFromArbitrary(); err != nil {
				return err
			}
			continue
		}

		source := d.pool.Get(idx)
		value := append([]byte(nil), source.Value...)
		cache := d.mut.CacheFromValue(value)
		step := d.mut.MutationStepFromValue(value, cache)
		d.mut.Mutate(&value, &cache, &step, d.opts.MaxComplexity)

		if d.novelty.Seen(value) {
			continue
		}
		d.novelty.Record(value)

		crashed, features, err := d.execute(value)
		if err != nil {
			return fmt.Errorf("execution %d: %w", i, err)
		}
		if crashed {
			if err := d.persist(value, d.mut.Complexity(value, cache), "crash"); err != nil {
				return err
			}
			continue
		}
		if err := d.admit(value, features); err != nil {
			return err
		}

		if d.opts.CorpusSize > 0 && d.pool.Len() > d.opts.CorpusSize {
			events := d.pool.RemoveLowestScoringInput()
			for _, ev := range events {
				observability.RecordEvent(ev)
				if d.opts.Index != nil {
					_ = d.opts.Index.Delete(corpusdb.Digest(ev.Value))
				}
			}
			observability.RecordPoolStats(d.pool.Len(), d.pool.Score(), d.pool.AverageComplexity())
		}
	}
	return nil
}

// seedFromArbitrary admits a fresh pseudo-random input when the pool has
// nothing to mutate yet, so the loop always makes progress.
func (d *Driver) seedFromArbitrary() error {
	value, _ := d.mut.Arbitrary(int(d.iterations), d.opts.MaxComplexity)
	_, features, err := d.execute(value)
	if err != nil {
		return fmt.Errorf("arbitrary seed execution: %w", err)
	}
	return d.admit(value, features)
}
