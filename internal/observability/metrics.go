// Package observability exposes the fuzz driver's event stream as
// Prometheus metrics, following the rest of the codebase's promauto
// package-level-var convention.
package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/covguard/fuzzcheck/internal/domain"
)

// InputsAdded counts every input admitted into the pool.
var InputsAdded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "fuzzcheck",
	Subsystem: "pool",
	Name:      "inputs_added_total",
	Help:      "Total inputs admitted into the pool.",
})

// InputsRemoved counts every input evicted from the pool, by reason.
var InputsRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fuzzcheck",
	Subsystem: "pool",
	Name:      "inputs_removed_total",
	Help:      "Total inputs removed from the pool, by reason.",
}, []string{"reason"})

// PoolSize tracks the current number of regular inputs in the pool.
var PoolSize = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "fuzzcheck",
	Subsystem: "pool",
	Name:      "size",
	Help:      "Current number of regular inputs in the pool.",
})

// PoolScore tracks the pool's current total score.
var PoolScore = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "fuzzcheck",
	Subsystem: "pool",
	Name:      "score",
	Help:      "Current total score across all regular inputs.",
})

// PoolAverageComplexity tracks the pool's current average input complexity.
var PoolAverageComplexity = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "fuzzcheck",
	Subsystem: "pool",
	Name:      "average_complexity",
	Help:      "Current average complexity of inputs in the pool.",
})

// ExecutionsTotal counts target executions performed by the fuzz loop.
var ExecutionsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "fuzzcheck",
	Subsystem: "driver",
	Name:      "executions_total",
	Help:      "Total target executions performed.",
})

// ExecutionDuration tracks how long each target execution took.
var ExecutionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "fuzzcheck",
	Subsystem: "driver",
	Name:      "execution_duration_seconds",
	Help:      "Target execution duration in seconds.",
	Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
})

// CrashesTotal counts target executions that crashed.
var CrashesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "fuzzcheck",
	Subsystem: "driver",
	Name:      "crashes_total",
	Help:      "Total target executions that crashed.",
})

// RecordPoolStats syncs the pool gauges to the given snapshot values; the
// driver calls this after every mutation that changed the pool.
func RecordPoolStats(size int, score, averageComplexity float64) {
	PoolSize.Set(float64(size))
	PoolScore.Set(score)
	PoolAverageComplexity.Set(averageComplexity)
}

// RecordEvent updates the counters driven by a single domain.Event[V]; the
// driver calls this once per event returned from Pool.Add or
// Pool.RemoveLowestScoringInput.
func RecordEvent[V any](ev domain.Event[V]) {
	switch ev.Kind {
	case domain.EventAdd:
		InputsAdded.Inc()
	case domain.EventRemove:
		InputsRemoved.WithLabelValues("displaced").Inc()
	}
	recentEvents.record(RecentEvent{
		Kind:  eventKindString(ev.Kind),
		Count: ev.Count,
		Value: summarizeValue(ev.Value),
		At:    time.Now(),
	})
}

// RecentEvent is a JSON-friendly snapshot of one pool event, kept in a
// fixed-size ring buffer for the status endpoint.
type RecentEvent struct {
	Kind  string    `json:"kind"`
	Count int       `json:"count,omitempty"`
	Value string    `json:"value,omitempty"`
	At    time.Time `json:"at"`
}

// eventRingBuffer is an in-memory ring buffer of the most recent pool
// events, the same ring-buffer-of-recent-things shape as the teacher's
// Tracer: a mutex-protected slice that drops its oldest entry once full.
type eventRingBuffer struct {
	mu     sync.Mutex
	events []RecentEvent
	max    int
}

const maxRecentEvents = 1000

var recentEvents = &eventRingBuffer{max: maxRecentEvents}

func (b *eventRingBuffer) record(e RecentEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) >= b.max {
		b.events = b.events[1:]
	}
	b.events = append(b.events, e)
}

// recent returns a copy of the last limit events, oldest first. limit <= 0
// or greater than the number recorded returns everything available.
func (b *eventRingBuffer) recent(limit int) []RecentEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if limit <= 0 || limit > len(b.events) {
		limit = len(b.events)
	}
	start := len(b.events) - limit
	out := make([]RecentEvent, limit)
	copy(out, b.events[start:])
	return out
}

// RecentEvents returns the last limit driver events recorded across every
// Pool.Add/RemoveLowestScoringInput call, for the status endpoint.
func RecentEvents(limit int) []RecentEvent {
	return recentEvents.recent(limit)
}

func eventKindString(k domain.EventKind) string {
	switch k {
	case domain.EventNew:
		return "new"
	case domain.EventAdd:
		return "add"
	case domain.EventReplace:
		return "replace"
	case domain.EventRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// summarizeValue renders an event's value for display, truncated so one
// large input can't dominate the ring buffer's memory footprint.
func summarizeValue(v any) string {
	s := fmt.Sprintf("%v", v)
	const maxLen = 80
	if len(s) > maxLen {
		return s[:maxLen] + "…"
	}
	return s
}
