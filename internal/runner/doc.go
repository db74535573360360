// Package runner provides the core execution engine for recurl.
//
// The runner schedules invocations of an external executor under one of
// two stopping policies, with support for:
//   - Count-bound runs: launch exactly N invocations
//   - Time-bound runs: launch as many invocations as fit in a time budget
//   - Bounded or uncapped concurrency slots
//   - A per-slot wait between successive invocations
//   - Rate limiting with uniform or Poisson arrival pacing
//
// # Basic Usage
//
// Create a runner with options and an invoker implementation:
//
//	opts := runner.Options{
//		Parallel:  4,
//		Repeat:    100,
//		Wait:      50 * time.Millisecond,
//		Invoker:   myInvoker,
//		OnOutcome: collector.Record,
//	}
//	r := runner.New(opts)
//	result := r.Run(ctx)
//
// # Invoker Interface
//
// The [Invoker] interface defines what a runner executes:
//
//	type Invoker interface {
//		Invoke(ctx context.Context) invoker.Outcome
//	}
//
// Invokers report failure through the outcome itself so that one failing
// invocation never aborts the run.
//
// # Stopping Policies
//
// Exactly one policy is active per run. When [Options.Duration] is set the
// repeat count is ignored and dispatch stops once the budget elapses;
// otherwise dispatch stops once [Options.Repeat] invocations have been
// launched. In both cases in-flight invocations drain to completion, and
// cancelling the context moves the run straight to draining.
//
// # Middleware
//
// Enhance invokers with middleware:
//   - [WithLogging]: report failed outcomes
//   - [WithRetry]: re-attempt failed invocations with backoff
package runner
