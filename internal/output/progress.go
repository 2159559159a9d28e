package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/riptide-dev/riptide/internal/metrics"
)

// ProgressReporter prints a running status line while the test is active,
// showing how far into the configured duration the run is and the counts
// recorded so far.
type ProgressReporter struct {
	collector *metrics.Collector
	duration  time.Duration
	ticker    *time.Ticker
	done      chan struct{}
	finished  chan struct{}
	writer    io.Writer
	active    int32
	start     time.Time
}

// NewProgressReporter creates a progress reporter that updates at the given
// interval. duration is the configured test length, 0 if unbounded.
func NewProgressReporter(collector *metrics.Collector, duration, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		collector: collector,
		duration:  duration,
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
		writer:    writer,
		start:     time.Now(),
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			elapsed := time.Since(p.start)
			snap := p.collector.Snapshot(elapsed)
			line := fmt.Sprintf("\rElapsed: %ds", int(elapsed.Seconds()))
			if p.duration > 0 {
				remaining := p.duration - elapsed
				if remaining < 0 {
					remaining = 0
				}
				line += fmt.Sprintf(" | Remaining: %ds", int(remaining.Seconds()))
			}
			line += fmt.Sprintf(" | Requests: %d | OK: %d | Failed: %d | RPS: %.1f",
				snap.Total, snap.Successes, snap.Failures, snap.RequestsPerSec)
			fmt.Fprint(p.writer, line)
		case <-p.done:
			return
		}
	}
}
