package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Result captures execution summary.
type Result struct {
	Launched int64
	Duration time.Duration
}

// Runner coordinates concurrent invocation execution under one stopping
// policy: a fixed launch count, or a wall-clock time budget.
type Runner struct {
	opt     Options
	arrival arrivalController
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt, arrival: newArrivalController(opt)}
}

// Run drives the full run: dispatch until the stopping condition fires,
// then drain in-flight invocations. Cancelling ctx stops new dispatch
// immediately; running invocations are awaited, never killed.
func (r *Runner) Run(ctx context.Context) Result {
	start := time.Now()
	var launched int64

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if r.opt.Duration > 0 {
		deadlineCtx, deadlineCancel := context.WithTimeout(ctx, r.opt.Duration)
		ctx = deadlineCtx
		defer deadlineCancel()
	}

	slots := r.opt.slots()
	// Unbuffered: a permit is handed over only when a slot is actually
	// free, so the launched count equals invocations started.
	permits := make(chan struct{})

	// Dispatcher: owns the stopping policy so count-bound and time-bound
	// runs share one loop; workers only own concurrency and the wait.
	go func() {
		defer close(permits)
		for {
			if ctx.Err() != nil {
				return
			}
			if r.opt.Duration == 0 && atomic.LoadInt64(&launched) >= int64(r.opt.Repeat) {
				return
			}
			if r.arrival != nil {
				if err := r.arrival.Wait(ctx); err != nil {
					return
				}
			}
			// Count before the handoff so workers only execute allocated
			// launches; roll back if cancellation wins the race.
			atomic.AddInt64(&launched, 1)
			select {
			case permits <- struct{}{}:
			case <-ctx.Done():
				atomic.AddInt64(&launched, -1)
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(slots)
	for i := 0; i < slots; i++ {
		go func() {
			defer wg.Done()
			for range permits {
				out := r.opt.Invoker.Invoke(ctx)
				if r.opt.OnOutcome != nil {
					r.opt.OnOutcome(out)
				}
				// The wait is per-slot: this slot idles before its next
				// launch while the others keep going.
				if r.opt.Wait > 0 && !sleep(ctx, r.opt.Wait) {
					return
				}
			}
		}()
	}
	wg.Wait()

	return Result{
		Launched: atomic.LoadInt64(&launched),
		Duration: time.Since(start),
	}
}

// sleep blocks for d or until ctx is cancelled, reporting whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
