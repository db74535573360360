package metrics

import (
	"math"
	"sort"
	"time"
)

// Summary is the aggregate computed over all outcomes of a run. The JSON
// form is the canonical machine-parsable record: the six timing fields are
// integer milliseconds and are omitted entirely when the run produced zero
// successful invocations.
type Summary struct {
	MeanTime     *int64 `json:"mean_time,omitempty"`
	MaxTime      *int64 `json:"max_time,omitempty"`
	MinTime      *int64 `json:"min_time,omitempty"`
	VarianceTime *int64 `json:"variance_time,omitempty"`
	Quartile25   *int64 `json:"quartile_25,omitempty"`
	Quartile75   *int64 `json:"quartile_75,omitempty"`

	StatusCount map[string]int64 `json:"status_count"`
	ErrorCount  int64            `json:"error_count"`

	// Extended fields backing the human-readable report.
	Total      int64         `json:"-"`
	Successes  int64         `json:"-"`
	P50Latency time.Duration `json:"-"`
	P90Latency time.Duration `json:"-"`
	P99Latency time.Duration `json:"-"`
}

// Summary computes the aggregate from the outcomes recorded so far. It is a
// pure snapshot: calling it again without further Record calls yields an
// identical result, and the result does not depend on recording order.
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{
		StatusCount: make(map[string]int64, len(c.statusCounts)),
		ErrorCount:  c.failures,
	}
	for code, n := range c.statusCounts {
		s.StatusCount[code] = n
	}
	s.Successes = int64(len(c.samples))
	s.Total = s.Successes + c.failures

	if len(c.samples) == 0 {
		return s
	}

	millis := make([]int64, len(c.samples))
	for i, d := range c.samples {
		millis[i] = d.Round(time.Millisecond).Milliseconds()
	}
	sort.Slice(millis, func(i, j int) bool { return millis[i] < millis[j] })

	var sum int64
	for _, ms := range millis {
		sum += ms
	}
	n := float64(len(millis))
	mean := float64(sum) / n

	var sqDev float64
	for _, ms := range millis {
		dev := float64(ms) - mean
		sqDev += dev * dev
	}

	s.MeanTime = msPtr(math.Round(mean))
	s.MinTime = msPtr(float64(millis[0]))
	s.MaxTime = msPtr(float64(millis[len(millis)-1]))
	// Population variance: mean of squared deviations.
	s.VarianceTime = msPtr(math.Round(sqDev / n))
	s.Quartile25 = msPtr(math.Round(interpolate(millis, 0.25)))
	s.Quartile75 = msPtr(math.Round(interpolate(millis, 0.75)))

	if c.hist.TotalCount() > 0 {
		s.P50Latency = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		s.P90Latency = time.Duration(c.hist.ValueAtQuantile(90)) * time.Microsecond
		s.P99Latency = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}

	return s
}

// interpolate returns the q-quantile of a sorted sample using linear
// interpolation between order statistics at position q*(n-1). A single
// sample degenerates to its own value.
func interpolate(sorted []int64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return float64(sorted[lower])
	}
	frac := pos - float64(lower)
	return float64(sorted[lower]) + frac*(float64(sorted[upper])-float64(sorted[lower]))
}

func msPtr(v float64) *int64 {
	ms := int64(v)
	return &ms
}
