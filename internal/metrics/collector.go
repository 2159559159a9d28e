package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/riptide-dev/riptide/internal/executor"
)

// Collector accumulates request outcomes from concurrently running workers.
// All mutation goes through Record, which holds the mutex only for counter
// arithmetic and sample appends.
type Collector struct {
	mu            sync.Mutex
	hist          *hdrhistogram.Histogram
	samples       []time.Duration
	successes     int64
	failures      int64
	totalAttempts int64
	sumElapsed    time.Duration
	minElapsed    time.Duration
	maxElapsed    time.Duration
	byKind        map[executor.FailureKind]int64
}

// Snapshot is an immutable point-in-time summary of all recorded outcomes.
// Latency fields cover every outcome, success and failure alike, and are
// meaningful only when Total > 0.
type Snapshot struct {
	Total         int64 `json:"total"`
	Successes     int64 `json:"successes"`
	Failures      int64 `json:"failures"`
	TotalAttempts int64 `json:"total_attempts"`

	Min            time.Duration `json:"-"`
	Max            time.Duration `json:"-"`
	Median         time.Duration `json:"-"`
	Mean           time.Duration `json:"-"`
	P90            time.Duration `json:"-"`
	P99            time.Duration `json:"-"`
	ActualDuration time.Duration `json:"-"`
	RequestsPerSec float64       `json:"requests_per_sec"`

	// JSON-friendly millisecond fields.
	MinMs      float64 `json:"min_ms"`
	MaxMs      float64 `json:"max_ms"`
	MedianMs   float64 `json:"median_ms"`
	MeanMs     float64 `json:"mean_ms"`
	P90Ms      float64 `json:"p90_ms"`
	P99Ms      float64 `json:"p99_ms"`
	DurationMs float64 `json:"duration_ms"`

	FailuresByKind map[string]int64 `json:"failures_by_kind,omitempty"`
}

func NewCollector() *Collector {
	// Track latencies from 1µs up to 10min with 3 significant figures; a
	// retried request's elapsed time includes its backoff waits.
	h := hdrhistogram.New(1, 600_000_000, 3)
	return &Collector{
		hist:   h,
		byKind: make(map[executor.FailureKind]int64),
	}
}

// Record folds one terminal outcome into the running state. Safe for any
// number of concurrent callers; no outcome is lost or double counted.
func (c *Collector) Record(out executor.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.samples = append(c.samples, out.Elapsed)
	c.sumElapsed += out.Elapsed
	c.totalAttempts += int64(out.Attempts)

	if c.minElapsed == 0 || out.Elapsed < c.minElapsed {
		c.minElapsed = out.Elapsed
	}
	if out.Elapsed > c.maxElapsed {
		c.maxElapsed = out.Elapsed
	}

	if out.Elapsed > 0 {
		us := out.Elapsed.Microseconds()
		if us < c.hist.LowestTrackableValue() {
			us = c.hist.LowestTrackableValue()
		}
		if us > c.hist.HighestTrackableValue() {
			us = c.hist.HighestTrackableValue()
		}
		_ = c.hist.RecordValue(us)
	}

	if out.Success {
		c.successes++
	} else {
		c.failures++
		c.byKind[out.Kind]++
	}
}

// Snapshot computes the aggregated summary. Once recording has stopped it is
// idempotent: repeated calls return identical values. The median is taken
// from the full retained sample set, not a running approximation.
func (c *Collector) Snapshot(actualDuration time.Duration) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.successes + c.failures
	snap := Snapshot{
		Total:          total,
		Successes:      c.successes,
		Failures:       c.failures,
		TotalAttempts:  c.totalAttempts,
		Min:            c.minElapsed,
		Max:            c.maxElapsed,
		ActualDuration: actualDuration,
	}

	if total > 0 {
		snap.Mean = c.sumElapsed / time.Duration(total)
		snap.Median = c.median()
	}
	if c.hist.TotalCount() > 0 {
		snap.P90 = time.Duration(c.hist.ValueAtQuantile(90)) * time.Microsecond
		snap.P99 = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}

	if actualDuration > 0 && total > 0 {
		snap.RequestsPerSec = float64(total) / actualDuration.Seconds()
	}

	snap.MinMs = float64(snap.Min) / float64(time.Millisecond)
	snap.MaxMs = float64(snap.Max) / float64(time.Millisecond)
	snap.MedianMs = float64(snap.Median) / float64(time.Millisecond)
	snap.MeanMs = float64(snap.Mean) / float64(time.Millisecond)
	snap.P90Ms = float64(snap.P90) / float64(time.Millisecond)
	snap.P99Ms = float64(snap.P99) / float64(time.Millisecond)
	snap.DurationMs = float64(actualDuration) / float64(time.Millisecond)

	if len(c.byKind) > 0 {
		snap.FailuresByKind = make(map[string]int64, len(c.byKind))
		for kind, count := range c.byKind {
			snap.FailuresByKind[string(kind)] = count
		}
	}

	return snap
}

// median sorts a copy of the samples so Snapshot never reorders the
// accumulator's own state. Callers hold c.mu.
func (c *Collector) median() time.Duration {
	if len(c.samples) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(c.samples))
	copy(sorted, c.samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[len(sorted)/2]
}
