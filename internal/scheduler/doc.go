// Package scheduler drives the load test: it launches batches of concurrent
// requests on a fixed interval until the configured duration elapses.
//
// # Basic Usage
//
// Create a scheduler with options and a runner implementation:
//
//	opts := scheduler.Options{
//		Concurrency: 10,
//		Duration:    time.Minute,
//		Interval:    time.Second,
//		Runner:      myRunner,
//		Recorder:    collector,
//	}
//	s := scheduler.New(opts)
//	result := s.Run(ctx)
//
// Each interval tick launches Concurrency workers. Batches overlap: a new
// tick never waits for the previous batch to finish, so a slow target does
// not throttle the offered load.
//
// # Runner Interface
//
// The [Runner] interface defines what a worker executes:
//
//	type Runner interface {
//		Execute(ctx context.Context) executor.Outcome
//	}
//
// Every Execute call must return a terminal [executor.Outcome]; the
// scheduler records each one through the [Recorder] exactly once.
//
// # Shutdown
//
// Canceling the context stops new batches promptly, but in-flight workers
// always run their full attempt/retry cycle before the scheduler drains.
// [Result.ActualDuration] measures from first dispatch to the last worker
// completion, so throughput figures stay honest when work outlives the
// configured duration.
package scheduler
