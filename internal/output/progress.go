package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/recurl/internal/metrics"
)

// ProgressReporter displays a live progress line while the run executes.
type ProgressReporter struct {
	collector *metrics.Collector
	expected  int64 // launches expected for count-bound runs (0 when time-bound)
	ticker    *time.Ticker
	done      chan struct{}
	finished  chan struct{}
	writer    io.Writer
	active    int32
	start     time.Time
}

// NewProgressReporter creates a progress reporter that updates at the given
// interval. For count-bound runs expected carries the planned launch count;
// time-bound runs pass 0 and get an elapsed-time line instead.
func NewProgressReporter(collector *metrics.Collector, expected int64, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		collector: collector,
		expected:  expected,
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
			successes, failures := p.collector.Counts()
			count := successes + failures
			var line string
			if p.expected > 0 {
				line = fmt.Sprintf("\r[%d/%d] running...", count, p.expected)
			} else {
				elapsed := time.Since(p.start).Round(100 * time.Millisecond)
				line = fmt.Sprintf("\relapsed: %s, count: %d, running...", elapsed, count)
			}
			fmt.Fprint(p.writer, line)
		case <-p.done:
			return
		}
	}
}
