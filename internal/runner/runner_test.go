package runner_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/torosent/recurl/internal/invoker"
	"github.com/torosent/recurl/internal/runner"
)

// fakeInvoker simulates an executor call with fixed latency.
type fakeInvoker struct {
	latency   time.Duration
	calls     int64
	active    int64
	maxActive int64
	failAfter int64 // if >0, fails after this many calls
}

func (f *fakeInvoker) Invoke(ctx context.Context) invoker.Outcome {
	n := atomic.AddInt64(&f.calls, 1)
	cur := atomic.AddInt64(&f.active, 1)
	for {
		max := atomic.LoadInt64(&f.maxActive)
		if cur <= max || atomic.CompareAndSwapInt64(&f.maxActive, max, cur) {
			break
		}
	}
	if f.latency > 0 {
		time.Sleep(f.latency)
	}
	atomic.AddInt64(&f.active, -1)
	if f.failAfter > 0 && n > f.failAfter {
		return invoker.Outcome{Elapsed: f.latency, Failed: true, ExitCode: 1}
	}
	return invoker.Outcome{Elapsed: f.latency, Status: "200"}
}

// TestRunnerLaunchesExactRepeatCount ensures the count bound is deterministic.
func TestRunnerLaunchesExactRepeatCount(t *testing.T) {
	fake := &fakeInvoker{latency: time.Millisecond}
	var outcomes int64
	r := runner.New(runner.Options{
		Parallel:  4,
		Repeat:    25,
		Invoker:   fake,
		OnOutcome: func(invoker.Outcome) { atomic.AddInt64(&outcomes, 1) },
	})
	res := r.Run(context.Background())
	if res.Launched != 25 {
		t.Fatalf("expected 25 launched, got %d", res.Launched)
	}
	if got := atomic.LoadInt64(&fake.calls); got != 25 {
		t.Fatalf("expected invoker called 25 times, got %d", got)
	}
	if got := atomic.LoadInt64(&outcomes); got != 25 {
		t.Fatalf("expected 25 outcomes, got %d", got)
	}
}

// TestRunnerDefaultsToSingleInvocation ensures repeat defaults to 1.
func TestRunnerDefaultsToSingleInvocation(t *testing.T) {
	fake := &fakeInvoker{}
	r := runner.New(runner.Options{Invoker: fake})
	res := r.Run(context.Background())
	if res.Launched != 1 {
		t.Fatalf("expected 1 launched, got %d", res.Launched)
	}
}

// TestRunnerHonorsTimeBudget ensures the time bound stops dispatch close to
// the budget while still letting in-flight invocations finish.
func TestRunnerHonorsTimeBudget(t *testing.T) {
	fake := &fakeInvoker{latency: 5 * time.Millisecond}
	r := runner.New(runner.Options{
		Parallel: 10,
		Duration: 50 * time.Millisecond,
		Invoker:  fake,
	})
	start := time.Now()
	res := r.Run(context.Background())
	elapsed := time.Since(start)
	if elapsed < 50*time.Millisecond || elapsed > 250*time.Millisecond {
		// allow some scheduling fudge but not extremely off
		t.Fatalf("time budget enforcement off: %s", elapsed)
	}
	if res.Launched <= 0 {
		t.Fatalf("expected some invocations launched")
	}
}

// TestTimeBudgetOverridesRepeat ensures the time bound wins when both are set.
func TestTimeBudgetOverridesRepeat(t *testing.T) {
	fake := &fakeInvoker{latency: time.Millisecond}
	r := runner.New(runner.Options{
		Parallel: 2,
		Repeat:   1,
		Duration: 40 * time.Millisecond,
		Invoker:  fake,
	})
	res := r.Run(context.Background())
	if res.Launched <= 1 {
		t.Fatalf("expected time-bound run to launch more than once, got %d", res.Launched)
	}
}

// TestUncappedParallelismBoundedByRemainingWork ensures parallel=0 never runs
// more concurrent invocations than there is work left.
func TestUncappedParallelismBoundedByRemainingWork(t *testing.T) {
	fake := &fakeInvoker{latency: 30 * time.Millisecond}
	r := runner.New(runner.Options{
		Parallel: 0,
		Repeat:   3,
		Invoker:  fake,
	})
	res := r.Run(context.Background())
	if res.Launched != 3 {
		t.Fatalf("expected 3 launched, got %d", res.Launched)
	}
	if got := atomic.LoadInt64(&fake.maxActive); got > 3 {
		t.Fatalf("expected at most 3 concurrent invocations, observed %d", got)
	}
}

// TestPerSlotWaitDoesNotSerializeSlots ensures the wait is per-slot: three
// slots working through six invocations with a 50ms wait must finish far
// sooner than a globally serialized run would.
func TestPerSlotWaitDoesNotSerializeSlots(t *testing.T) {
	fake := &fakeInvoker{latency: 10 * time.Millisecond}
	r := runner.New(runner.Options{
		Parallel: 3,
		Repeat:   6,
		Wait:     50 * time.Millisecond,
		Invoker:  fake,
	})
	start := time.Now()
	res := r.Run(context.Background())
	elapsed := time.Since(start)
	if res.Launched != 6 {
		t.Fatalf("expected 6 launched, got %d", res.Launched)
	}
	// Serialized would need roughly 6*(10ms+50ms); per-slot needs ~2 rounds.
	if elapsed > 300*time.Millisecond {
		t.Fatalf("wait appears to serialize slots: %s", elapsed)
	}
}

// TestWaitAppliesWithinSlot ensures a single slot pauses between its own
// successive invocations.
func TestWaitAppliesWithinSlot(t *testing.T) {
	fake := &fakeInvoker{}
	r := runner.New(runner.Options{
		Parallel: 1,
		Repeat:   3,
		Wait:     40 * time.Millisecond,
		Invoker:  fake,
	})
	start := time.Now()
	r.Run(context.Background())
	elapsed := time.Since(start)
	if elapsed < 80*time.Millisecond {
		t.Fatalf("expected at least two 40ms waits, finished in %s", elapsed)
	}
}

// TestCancellationStopsDispatchAndDrains ensures cancel stops new launches
// while every launched invocation still produces exactly one outcome.
func TestCancellationStopsDispatchAndDrains(t *testing.T) {
	fake := &fakeInvoker{latency: 5 * time.Millisecond}
	var outcomes int64
	r := runner.New(runner.Options{
		Parallel:  2,
		Repeat:    1000,
		Invoker:   fake,
		OnOutcome: func(invoker.Outcome) { atomic.AddInt64(&outcomes, 1) },
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()
	res := r.Run(ctx)

	if res.Launched >= 1000 {
		t.Fatalf("expected cancellation to cut the run short, launched %d", res.Launched)
	}
	if got := atomic.LoadInt64(&outcomes); got != res.Launched {
		t.Fatalf("launched %d but observed %d outcomes", res.Launched, got)
	}
}

// TestRateLimiterCapsThroughput uses an injected limiter with no burst
// allowance to verify launches are paced.
func TestRateLimiterCapsThroughput(t *testing.T) {
	fake := &fakeInvoker{}
	r := runner.New(runner.Options{
		Parallel:      5,
		Repeat:        10,
		RatePerSecond: 100,
		Invoker:       fake,
		LimiterFactory: func(rps int) *rate.Limiter {
			return rate.NewLimiter(rate.Limit(rps), 1)
		},
	})
	start := time.Now()
	res := r.Run(context.Background())
	elapsed := time.Since(start)
	if res.Launched != 10 {
		t.Fatalf("expected 10 launched, got %d", res.Launched)
	}
	// 10 launches at 100/s with burst 1 need at least ~90ms.
	if elapsed < 80*time.Millisecond {
		t.Fatalf("rate limiting not applied, finished in %s", elapsed)
	}
}

// TestFailedOutcomesDoNotAbortRun ensures failures flow through OnOutcome
// without stopping dispatch.
func TestFailedOutcomesDoNotAbortRun(t *testing.T) {
	fake := &fakeInvoker{failAfter: 2}
	var failed int64
	r := runner.New(runner.Options{
		Parallel: 1,
		Repeat:   5,
		Invoker:  fake,
		OnOutcome: func(out invoker.Outcome) {
			if out.Failed {
				atomic.AddInt64(&failed, 1)
			}
		},
	})
	res := r.Run(context.Background())
	if res.Launched != 5 {
		t.Fatalf("expected 5 launched, got %d", res.Launched)
	}
	if got := atomic.LoadInt64(&failed); got != 3 {
		t.Fatalf("expected 3 failed outcomes, got %d", got)
	}
}
