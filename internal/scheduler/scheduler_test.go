package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riptide-dev/riptide/internal/executor"
)

type fakeRunner struct {
	delay    time.Duration
	calls    atomic.Int64
	canceled atomic.Int64
}

func (f *fakeRunner) Execute(ctx context.Context) executor.Outcome {
	f.calls.Add(1)
	if f.delay > 0 {
		timer := time.NewTimer(f.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			f.canceled.Add(1)
			return executor.Outcome{Attempts: 1, Kind: executor.FailureConnectionError, Err: ctx.Err()}
		case <-timer.C:
		}
	}
	return executor.Outcome{Elapsed: f.delay, Success: true, Attempts: 1, StatusCode: 200}
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes []executor.Outcome
}

func (f *fakeRecorder) Record(out executor.Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, out)
}

func (f *fakeRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.outcomes)
}

func TestRunLaunchesBatchesPerTick(t *testing.T) {
	runner := &fakeRunner{}
	recorder := &fakeRecorder{}

	s := New(Options{
		Concurrency: 4,
		Duration:    95 * time.Millisecond,
		Interval:    20 * time.Millisecond,
		Runner:      runner,
		Recorder:    recorder,
	})

	result := s.Run(context.Background())

	if result.Launched == 0 {
		t.Fatal("expected at least one batch to launch")
	}
	if result.Launched%4 != 0 {
		t.Errorf("expected launches in whole batches of 4, got %d", result.Launched)
	}
	if int64(recorder.count()) != result.Launched {
		t.Errorf("recorded %d outcomes for %d launched requests", recorder.count(), result.Launched)
	}
	if got := runner.calls.Load(); got != result.Launched {
		t.Errorf("runner saw %d calls for %d launched requests", got, result.Launched)
	}
	// 95ms with a 20ms interval gives ticks at 0, 20, 40, 60 and 80ms.
	if result.Launched > 5*4 {
		t.Errorf("expected at most 5 batches, got %d launches", result.Launched)
	}
}

func TestRunStopsAtDuration(t *testing.T) {
	runner := &fakeRunner{}
	recorder := &fakeRecorder{}

	s := New(Options{
		Concurrency: 2,
		Duration:    60 * time.Millisecond,
		Interval:    10 * time.Millisecond,
		Runner:      runner,
		Recorder:    recorder,
	})

	start := time.Now()
	s.Run(context.Background())
	elapsed := time.Since(start)

	if elapsed > 500*time.Millisecond {
		t.Errorf("run took %v, expected it to stop near the 60ms duration", elapsed)
	}
	if s.State() != StateStopped {
		t.Errorf("expected state %v after run, got %v", StateStopped, s.State())
	}
}

func TestRunZeroDurationLaunchesNothing(t *testing.T) {
	runner := &fakeRunner{}
	recorder := &fakeRecorder{}

	s := New(Options{
		Concurrency: 8,
		Duration:    0,
		Interval:    10 * time.Millisecond,
		Runner:      runner,
		Recorder:    recorder,
	})

	result := s.Run(context.Background())
	if result.Launched != 0 {
		t.Errorf("expected no launches with zero duration, got %d", result.Launched)
	}
	if recorder.count() != 0 {
		t.Errorf("expected no recorded outcomes, got %d", recorder.count())
	}
}

func TestRunCancellationDrainsInFlight(t *testing.T) {
	runner := &fakeRunner{delay: 40 * time.Millisecond}
	recorder := &fakeRecorder{}

	s := New(Options{
		Concurrency: 3,
		Duration:    5 * time.Second,
		Interval:    10 * time.Millisecond,
		Runner:      runner,
		Recorder:    recorder,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(25 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	result := s.Run(ctx)
	elapsed := time.Since(start)

	if elapsed >= 5*time.Second {
		t.Fatalf("cancellation did not stop the run early (took %v)", elapsed)
	}
	if result.Launched == 0 {
		t.Fatal("expected some launches before cancellation")
	}
	if int64(recorder.count()) != result.Launched {
		t.Errorf("recorded %d outcomes for %d launched requests; in-flight work must drain", recorder.count(), result.Launched)
	}
	// Workers run on a detached context, so none should observe cancellation.
	if got := runner.canceled.Load(); got != 0 {
		t.Errorf("expected 0 workers to see cancellation, got %d", got)
	}
}

func TestRunActualDurationCoversLastCompletion(t *testing.T) {
	runner := &fakeRunner{delay: 30 * time.Millisecond}
	recorder := &fakeRecorder{}

	s := New(Options{
		Concurrency: 2,
		Duration:    15 * time.Millisecond,
		Interval:    10 * time.Millisecond,
		Runner:      runner,
		Recorder:    recorder,
	})

	result := s.Run(context.Background())

	// The last batch launches before 15ms and finishes around 30ms later.
	if result.ActualDuration < 30*time.Millisecond {
		t.Errorf("expected actual duration to cover in-flight completion, got %v", result.ActualDuration)
	}
}

func TestStateTransitions(t *testing.T) {
	runner := &fakeRunner{}
	recorder := &fakeRecorder{}

	s := New(Options{
		Concurrency: 1,
		Duration:    20 * time.Millisecond,
		Interval:    10 * time.Millisecond,
		Runner:      runner,
		Recorder:    recorder,
	})

	if s.State() != StateIdle {
		t.Errorf("expected initial state %v, got %v", StateIdle, s.State())
	}
	s.Run(context.Background())
	if s.State() != StateStopped {
		t.Errorf("expected final state %v, got %v", StateStopped, s.State())
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateIdle:     "idle",
		StateRunning:  "running",
		StateDraining: "draining",
		StateStopped:  "stopped",
		State(99):     "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}

func TestOptionsNormalize(t *testing.T) {
	opt := Options{Concurrency: 0, Interval: 0}
	opt.normalize()
	if opt.Concurrency != 1 {
		t.Errorf("expected concurrency floor of 1, got %d", opt.Concurrency)
	}
	if opt.Interval != time.Second {
		t.Errorf("expected default interval 1s, got %v", opt.Interval)
	}
	if opt.LimiterFactory == nil {
		t.Error("expected a default limiter factory")
	}
}
