// Package metrics aggregates invocation outcomes into the run summary.
//
// The central [Collector] type is shared by all invocation slots:
//
//	collector := metrics.NewCollector()
//	collector.Record(outcome) // safe from any goroutine
//	summary := collector.Summary()
//
// Aggregation is order-insensitive and [Collector.Summary] is idempotent,
// so the same multiset of outcomes always yields the same [Summary]
// regardless of completion order under concurrency.
//
// # Statistics
//
// The summary carries the mean, minimum, maximum, population variance, and
// the 25th/75th percentiles of successful latencies, all in integer
// milliseconds, plus per-status-code counts and the failure count. The
// quartiles are exact: they are computed from the full retained sample set
// by linear interpolation between order statistics. An HDR histogram
// additionally provides approximate P50/P90/P99 values for the
// human-readable report.
package metrics
