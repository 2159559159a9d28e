// Package metrics collects and aggregates request outcomes during a run.
//
// The central [Collector] type accepts terminal outcomes from all workers:
//
//	collector := metrics.NewCollector()
//	collector.Record(outcome)
//
//	// After the run, or periodically while it is live:
//	snap := collector.Snapshot(elapsed)
//
// # Statistics
//
// [Snapshot] provides request counts (total, successes, failures, total
// attempts across retries), latency statistics (min, median, mean, max,
// P90, P99) and requests per second. The median comes from the full
// retained sample set; the percentiles come from an HDR histogram with
// three significant figures of precision.
//
// Failed outcomes are additionally bucketed by [executor.FailureKind] in
// [Snapshot.FailuresByKind].
//
// # Thread Safety
//
// Record is safe to call from any number of goroutines. Snapshot can be
// taken while recording continues; once recording stops, repeated
// snapshots return identical values.
package metrics
