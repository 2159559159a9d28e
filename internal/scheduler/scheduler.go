package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/riptide-dev/riptide/internal/executor"
)

// State tracks the scheduler lifecycle.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Runner executes one logical request to a terminal outcome.
type Runner interface {
	Execute(ctx context.Context) executor.Outcome
}

// Recorder receives every worker's terminal outcome.
type Recorder interface {
	Record(executor.Outcome)
}

// Result captures what a finished run launched and how long it really took,
// measured from first dispatch to last worker completion.
type Result struct {
	Launched       int64
	ActualDuration time.Duration
}

// Options configure the Scheduler.
type Options struct {
	Concurrency int           // requests launched per interval tick
	Duration    time.Duration // total wall-clock test length
	Interval    time.Duration // spacing between ticks (default 1s)
	Runner      Runner        // request executor (required)
	Recorder    Recorder      // outcome sink (required)

	// LimiterFactory allows tests to inject tick pacing.
	LimiterFactory func(interval time.Duration) *rate.Limiter
}

func (o *Options) normalize() {
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
	if o.Interval <= 0 {
		o.Interval = time.Second
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(interval time.Duration) *rate.Limiter {
			// Burst 1: one batch per interval, first tick immediate.
			return rate.NewLimiter(rate.Every(interval), 1)
		}
	}
}

// Scheduler drives the test: while the configured duration has not elapsed
// and no cancellation has been observed, each tick launches a batch of
// Concurrency workers. Batches overlap; a new tick never waits for the
// previous batch to finish.
type Scheduler struct {
	opt   Options
	state atomic.Int32
}

func New(opt Options) *Scheduler {
	opt.normalize()
	return &Scheduler{opt: opt}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Run executes the test until the duration elapses or ctx is canceled, then
// drains. Cancellation stops new batches promptly but never interrupts
// in-flight workers: each launched worker runs its full attempt/retry cycle
// and records exactly one outcome.
func (s *Scheduler) Run(ctx context.Context) Result {
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	s.state.Store(int32(StateRunning))

	// Workers outlive the cancellation signal; only the per-attempt timeout
	// bounds them once draining begins.
	workCtx := context.WithoutCancel(ctx)

	tickCtx := ctx
	if s.opt.Duration > 0 {
		var cancel context.CancelFunc
		tickCtx, cancel = context.WithDeadline(ctx, start.Add(s.opt.Duration))
		defer cancel()
	}

	limiter := s.opt.LimiterFactory(s.opt.Interval)

	var wg sync.WaitGroup
	var launched int64
	var lastDone atomic.Int64

	for time.Since(start) < s.opt.Duration && tickCtx.Err() == nil {
		if err := limiter.Wait(tickCtx); err != nil {
			break
		}
		if time.Since(start) >= s.opt.Duration {
			break
		}
		for i := 0; i < s.opt.Concurrency; i++ {
			launched++
			wg.Add(1)
			go func() {
				defer wg.Done()
				out := s.opt.Runner.Execute(workCtx)
				s.opt.Recorder.Record(out)
				done := time.Now().UnixNano()
				for {
					prev := lastDone.Load()
					if done <= prev || lastDone.CompareAndSwap(prev, done) {
						return
					}
				}
			}()
		}
	}

	s.state.Store(int32(StateDraining))
	wg.Wait()
	s.state.Store(int32(StateStopped))

	actual := time.Since(start)
	if last := lastDone.Load(); last > 0 {
		actual = time.Unix(0, last).Sub(start)
	}

	return Result{
		Launched:       launched,
		ActualDuration: actual,
	}
}
