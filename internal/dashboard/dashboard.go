// Package dashboard renders a live termui view of an in-progress run.
package dashboard

import (
	"fmt"
	"sort"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/riptide-dev/riptide/internal/metrics"
)

const (
	refreshInterval = time.Second
	historySize     = 60
)

// RunInfo holds the run parameters shown in the header.
type RunInfo struct {
	RunID       string
	TargetURL   string
	Method      string
	Concurrency int
	Duration    time.Duration
	Retries     int
}

// Dashboard polls the collector once per second and redraws until stopped
// or until the user quits with q / Ctrl-C.
type Dashboard struct {
	collector *metrics.Collector
	info      RunInfo
	onQuit    func()

	mu       sync.Mutex
	wg       sync.WaitGroup
	done     chan struct{}
	start    time.Time
	rpsHist  []float64
	lastSnap metrics.Snapshot

	header   *widgets.Paragraph
	counters *widgets.Paragraph
	latency  *widgets.Paragraph
	rpsPlot  *widgets.SparklineGroup
	failures *widgets.List
	grid     *ui.Grid
}

// New initializes the terminal UI. onQuit is invoked when the user quits
// from inside the dashboard; it should cancel the run.
func New(collector *metrics.Collector, info RunInfo, onQuit func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("init termui: %w", err)
	}

	d := &Dashboard{
		collector: collector,
		info:      info,
		onQuit:    onQuit,
		done:      make(chan struct{}),
		start:     time.Now(),
		rpsHist:   make([]float64, 0, historySize),
	}
	d.initWidgets()
	d.layout()
	return d, nil
}

func (d *Dashboard) initWidgets() {
	d.header = widgets.NewParagraph()
	d.header.Title = "Run"
	d.header.Text = fmt.Sprintf(
		"ID: %s\n%s %s\nConcurrency: %d  Duration: %s  Retries: %d\nPress q to stop",
		d.info.RunID, d.info.Method, d.info.TargetURL,
		d.info.Concurrency, d.info.Duration, d.info.Retries,
	)

	d.counters = widgets.NewParagraph()
	d.counters.Title = "Requests"
	d.counters.Text = "Total: 0\nOK: 0\nFailed: 0"

	d.latency = widgets.NewParagraph()
	d.latency.Title = "Latency"
	d.latency.Text = "Min: -\nMedian: -\nMean: -\nP90: -\nP99: -\nMax: -"

	spark := widgets.NewSparkline()
	spark.LineColor = ui.ColorGreen
	spark.Data = []float64{0}
	d.rpsPlot = widgets.NewSparklineGroup(spark)
	d.rpsPlot.Title = "Requests/sec"

	d.failures = widgets.NewList()
	d.failures.Title = "Failures"
	d.failures.Rows = []string{"none"}
	d.failures.TextStyle = ui.NewStyle(ui.ColorYellow)
}

func (d *Dashboard) layout() {
	d.grid = ui.NewGrid()
	width, height := ui.TerminalDimensions()
	d.grid.SetRect(0, 0, width, height)
	d.grid.Set(
		ui.NewRow(0.25, ui.NewCol(1.0, d.header)),
		ui.NewRow(0.35,
			ui.NewCol(0.33, d.counters),
			ui.NewCol(0.33, d.latency),
			ui.NewCol(0.34, d.failures),
		),
		ui.NewRow(0.40, ui.NewCol(1.0, d.rpsPlot)),
	)
}

// Start begins the render and event loops.
func (d *Dashboard) Start() {
	d.wg.Add(2)
	go d.renderLoop()
	go d.eventLoop()
}

// Stop tears down the UI. Safe to call once.
func (d *Dashboard) Stop() {
	close(d.done)
	d.wg.Wait()
	ui.Close()
}

func (d *Dashboard) renderLoop() {
	defer d.wg.Done()
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.refresh()
		case <-d.done:
			return
		}
	}
}

func (d *Dashboard) eventLoop() {
	defer d.wg.Done()
	events := ui.PollEvents()
	for {
		select {
		case e := <-events:
			switch e.ID {
			case "q", "<C-c>":
				if d.onQuit != nil {
					d.onQuit()
				}
				return
			case "<Resize>":
				if payload, ok := e.Payload.(ui.Resize); ok {
					d.mu.Lock()
					d.grid.SetRect(0, 0, payload.Width, payload.Height)
					ui.Render(d.grid)
					d.mu.Unlock()
				}
			}
		case <-d.done:
			return
		}
	}
}

func (d *Dashboard) refresh() {
	elapsed := time.Since(d.start)
	snap := d.collector.Snapshot(elapsed)

	d.mu.Lock()
	defer d.mu.Unlock()

	// Instantaneous RPS over the last refresh window.
	delta := float64(snap.Total - d.lastSnap.Total)
	d.lastSnap = snap
	d.rpsHist = append(d.rpsHist, delta/refreshInterval.Seconds())
	if len(d.rpsHist) > historySize {
		d.rpsHist = d.rpsHist[len(d.rpsHist)-historySize:]
	}

	d.counters.Text = fmt.Sprintf("Total: %d\nOK: %d\nFailed: %d\nAttempts: %d",
		snap.Total, snap.Successes, snap.Failures, snap.TotalAttempts)

	d.latency.Text = fmt.Sprintf(
		"Min: %.1fms\nMedian: %.1fms\nMean: %.1fms\nP90: %.1fms\nP99: %.1fms\nMax: %.1fms",
		snap.MinMs, snap.MedianMs, snap.MeanMs, snap.P90Ms, snap.P99Ms, snap.MaxMs,
	)

	d.failures.Rows = failureRows(snap)
	d.rpsPlot.Sparklines[0].Data = append([]float64(nil), d.rpsHist...)
	d.rpsPlot.Title = fmt.Sprintf("Requests/sec (avg %.1f)", snap.RequestsPerSec)

	ui.Render(d.grid)
}

func failureRows(snap metrics.Snapshot) []string {
	if len(snap.FailuresByKind) == 0 {
		return []string{"none"}
	}
	kinds := make([]string, 0, len(snap.FailuresByKind))
	for kind := range snap.FailuresByKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	rows := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		rows = append(rows, fmt.Sprintf("%s: %d", kind, snap.FailuresByKind[kind]))
	}
	return rows
}
