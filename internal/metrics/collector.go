package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/torosent/recurl/internal/invoker"
)

// Collector records per-invocation outcomes in a thread-safe manner.
// Bookkeeping per outcome is O(1) amortized; successful latencies are
// retained in full because the exact quartiles in the summary require the
// complete sample set.
type Collector struct {
	mu           sync.Mutex
	hist         *hdrhistogram.Histogram
	samples      []time.Duration
	statusCounts map[string]int64
	failures     int64
}

func NewCollector() *Collector {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		hist:         h,
		statusCounts: make(map[string]int64),
	}
}

// Record folds one outcome into the running aggregates. Failed invocations
// contribute to the error count only, never to the timing statistics.
func (c *Collector) Record(out invoker.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if out.Failed {
		c.failures++
		return
	}

	c.statusCounts[out.Status]++
	c.samples = append(c.samples, out.Elapsed)

	us := out.Elapsed.Microseconds()
	if us < c.hist.LowestTrackableValue() {
		us = c.hist.LowestTrackableValue()
	}
	if us > c.hist.HighestTrackableValue() {
		us = c.hist.HighestTrackableValue()
	}
	_ = c.hist.RecordValue(us)
}

// Counts returns the number of outcomes recorded so far.
func (c *Collector) Counts() (successes, failures int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.samples)), c.failures
}
