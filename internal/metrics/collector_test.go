package metrics_test

import (
	"encoding/json"
	"math/rand"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/torosent/recurl/internal/invoker"
	"github.com/torosent/recurl/internal/metrics"
)

func success(ms int64) invoker.Outcome {
	return invoker.Outcome{Elapsed: time.Duration(ms) * time.Millisecond, Status: "200"}
}

func failure() invoker.Outcome {
	return invoker.Outcome{Elapsed: 5 * time.Millisecond, Failed: true, ExitCode: 7}
}

func deref(t *testing.T, v *int64, name string) int64 {
	t.Helper()
	if v == nil {
		t.Fatalf("%s unexpectedly omitted", name)
	}
	return *v
}

func TestSummarySingleSuccess(t *testing.T) {
	c := metrics.NewCollector()
	c.Record(success(50))

	s := c.Summary()
	if got := deref(t, s.MeanTime, "mean_time"); got != 50 {
		t.Errorf("mean_time = %d, want 50", got)
	}
	if got := deref(t, s.MaxTime, "max_time"); got != 50 {
		t.Errorf("max_time = %d, want 50", got)
	}
	if got := deref(t, s.MinTime, "min_time"); got != 50 {
		t.Errorf("min_time = %d, want 50", got)
	}
	if got := deref(t, s.VarianceTime, "variance_time"); got != 0 {
		t.Errorf("variance_time = %d, want 0", got)
	}
	// A single sample degenerates both quartiles to the value itself.
	if got := deref(t, s.Quartile25, "quartile_25"); got != 50 {
		t.Errorf("quartile_25 = %d, want 50", got)
	}
	if got := deref(t, s.Quartile75, "quartile_75"); got != 50 {
		t.Errorf("quartile_75 = %d, want 50", got)
	}
	if s.ErrorCount != 0 {
		t.Errorf("error_count = %d, want 0", s.ErrorCount)
	}
	if got := s.StatusCount["200"]; got != 1 {
		t.Errorf("status_count[200] = %d, want 1", got)
	}
}

func TestSummaryThreeLatencies(t *testing.T) {
	c := metrics.NewCollector()
	for _, ms := range []int64{10, 20, 30} {
		c.Record(success(ms))
	}

	s := c.Summary()
	if got := deref(t, s.MeanTime, "mean_time"); got != 20 {
		t.Errorf("mean_time = %d, want 20", got)
	}
	if got := deref(t, s.MinTime, "min_time"); got != 10 {
		t.Errorf("min_time = %d, want 10", got)
	}
	if got := deref(t, s.MaxTime, "max_time"); got != 30 {
		t.Errorf("max_time = %d, want 30", got)
	}
	// Population variance of {10,20,30} is 200/3, rounded.
	if got := deref(t, s.VarianceTime, "variance_time"); got != 67 {
		t.Errorf("variance_time = %d, want 67", got)
	}
	// Linear interpolation at positions 0.5 and 1.5.
	if got := deref(t, s.Quartile25, "quartile_25"); got != 15 {
		t.Errorf("quartile_25 = %d, want 15", got)
	}
	if got := deref(t, s.Quartile75, "quartile_75"); got != 25 {
		t.Errorf("quartile_75 = %d, want 25", got)
	}
	if got := s.StatusCount["200"]; got != 3 {
		t.Errorf("status_count[200] = %d, want 3", got)
	}
}

func TestQuartileInterpolationEvenCount(t *testing.T) {
	c := metrics.NewCollector()
	for _, ms := range []int64{10, 20, 30, 40} {
		c.Record(success(ms))
	}

	s := c.Summary()
	// Positions 0.75 and 2.25 of the order statistics.
	if got := deref(t, s.Quartile25, "quartile_25"); got != 18 {
		t.Errorf("quartile_25 = %d, want 18", got)
	}
	if got := deref(t, s.Quartile75, "quartile_75"); got != 33 {
		t.Errorf("quartile_75 = %d, want 33", got)
	}
}

func TestFailuresExcludedFromTimingStats(t *testing.T) {
	c := metrics.NewCollector()
	c.Record(success(10))
	c.Record(success(20))
	c.Record(failure())

	s := c.Summary()
	if s.ErrorCount != 1 {
		t.Errorf("error_count = %d, want 1", s.ErrorCount)
	}
	if got := deref(t, s.MeanTime, "mean_time"); got != 15 {
		t.Errorf("mean_time = %d, want 15 (failures must not contribute)", got)
	}
	if got := s.StatusCount["200"]; got != 2 {
		t.Errorf("status_count[200] = %d, want 2", got)
	}

	var statusTotal int64
	for _, n := range s.StatusCount {
		statusTotal += n
	}
	if statusTotal+s.ErrorCount != s.Total {
		t.Errorf("error_count + status counts = %d, want total %d", statusTotal+s.ErrorCount, s.Total)
	}
}

func TestZeroSuccessesOmitsTimingFields(t *testing.T) {
	c := metrics.NewCollector()
	c.Record(failure())
	c.Record(failure())
	c.Record(failure())

	s := c.Summary()
	if s.MeanTime != nil || s.MaxTime != nil || s.MinTime != nil ||
		s.VarianceTime != nil || s.Quartile25 != nil || s.Quartile75 != nil {
		t.Fatalf("timing fields must be omitted with zero successes: %+v", s)
	}
	if s.ErrorCount != 3 {
		t.Errorf("error_count = %d, want 3", s.ErrorCount)
	}
	if len(s.StatusCount) != 0 {
		t.Errorf("status_count should be empty, got %v", s.StatusCount)
	}

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "mean_time") {
		t.Errorf("mean_time must not appear in JSON: %s", raw)
	}
	if !strings.Contains(string(raw), `"status_count":{}`) {
		t.Errorf("status_count should serialize as empty object: %s", raw)
	}
}

func TestSummaryOrderInsensitive(t *testing.T) {
	outcomes := []invoker.Outcome{
		success(12), success(34), success(7), failure(),
		{Elapsed: 90 * time.Millisecond, Status: "500"},
		success(55), failure(), success(7),
	}

	base := metrics.NewCollector()
	for _, out := range outcomes {
		base.Record(out)
	}
	want := base.Summary()

	rnd := rand.New(rand.NewSource(42))
	for trial := 0; trial < 5; trial++ {
		shuffled := append([]invoker.Outcome(nil), outcomes...)
		rnd.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		c := metrics.NewCollector()
		for _, out := range shuffled {
			c.Record(out)
		}
		if got := c.Summary(); !reflect.DeepEqual(got, want) {
			t.Fatalf("summary depends on record order:\n got %+v\nwant %+v", got, want)
		}
	}
}

func TestSummaryIdempotent(t *testing.T) {
	c := metrics.NewCollector()
	c.Record(success(10))
	c.Record(success(20))
	c.Record(failure())

	first := c.Summary()
	second := c.Summary()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated Summary differs:\nfirst %+v\nsecond %+v", first, second)
	}
}

func TestConcurrentRecord(t *testing.T) {
	c := metrics.NewCollector()

	var wg sync.WaitGroup
	for g := 0; g < 20; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if (g+i)%5 == 0 {
					c.Record(failure())
				} else {
					c.Record(success(int64(10 + i%7)))
				}
			}
		}(g)
	}
	wg.Wait()

	s := c.Summary()
	var statusTotal int64
	for _, n := range s.StatusCount {
		statusTotal += n
	}
	if statusTotal+s.ErrorCount != 1000 {
		t.Fatalf("lost outcomes under concurrency: %d + %d != 1000", statusTotal, s.ErrorCount)
	}
}

func TestExtendedPercentilesPopulated(t *testing.T) {
	c := metrics.NewCollector()
	for ms := int64(1); ms <= 100; ms++ {
		c.Record(success(ms))
	}

	s := c.Summary()
	if s.P50Latency <= 0 || s.P90Latency <= 0 || s.P99Latency <= 0 {
		t.Fatalf("expected histogram percentiles, got p50=%s p90=%s p99=%s",
			s.P50Latency, s.P90Latency, s.P99Latency)
	}
	if s.P50Latency > s.P90Latency || s.P90Latency > s.P99Latency {
		t.Fatalf("percentiles out of order: p50=%s p90=%s p99=%s",
			s.P50Latency, s.P90Latency, s.P99Latency)
	}
}
