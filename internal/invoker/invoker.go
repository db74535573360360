package invoker

import "time"

// Outcome is the recorded result of a single executor invocation.
// Exactly one Outcome is produced per invocation; a failed spawn or an
// abnormal exit is captured here instead of being propagated as an error,
// so one bad invocation never aborts a run.
type Outcome struct {
	Elapsed time.Duration // wall-clock time around the executor call
	Status  string        // status code reported by the executor; empty when Failed
	Failed  bool

	// Diagnostics for failure logging; not part of the aggregate.
	ExitCode int
	Stderr   string
}
