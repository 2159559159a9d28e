// Package executor issues individual HTTP requests with a per-attempt
// timeout and exponential-backoff retries.
//
// An [Executor] is built once per run and shared by all workers:
//
//	exec := executor.New(executor.Options{
//		Builder:    builder,
//		Timeout:    10 * time.Second,
//		MaxRetries: 2,
//		Backoff:    executor.Backoff{Base: 100 * time.Millisecond, Cap: 5 * time.Second},
//	})
//	out := exec.Execute(ctx)
//
// Execute always returns a terminal [Outcome]: success, or a failure
// classified as a timeout, a connection error, or a non-success status.
// A response whose status falls outside the accepted [StatusRange], or
// whose body misses the configured JSON [Expectation], counts as a
// non-success failure after all retries are spent.
//
// The n-th retry waits Base << (n-1), capped at Cap. Outcome.Elapsed spans
// the whole cycle, backoff waits included.
package executor
