package runner

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/torosent/recurl/internal/invoker"
)

// Invoker abstracts executing a single invocation.
// Implementations report failure through the outcome, never by error.
type Invoker interface {
	Invoke(ctx context.Context) invoker.Outcome
}

// ArrivalModel selects how invocation launches are paced.
type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

// uncappedCeiling bounds slot growth when Parallel is 0. Every invocation
// spawns an external process, so literally unbounded concurrency would
// exhaust descriptors and PIDs long before it improved throughput.
const uncappedCeiling = 1024

// Options configure the Runner.
type Options struct {
	Parallel      int           // concurrent invocation slots (0 = uncapped)
	Repeat        int           // invocations to launch; ignored when Duration > 0
	Duration      time.Duration // time budget; overrides Repeat when set
	Wait          time.Duration // per-slot pause between successive invocations
	RatePerSecond int           // launch pacing (0 means unlimited)
	ArrivalModel  ArrivalModel

	Invoker   Invoker                // invocation executor (required)
	OnOutcome func(invoker.Outcome)  // receives every outcome exactly once

	RandomSeed     int64
	PoissonSampler func() float64              // optional injection for tests
	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
}

func (o *Options) normalize() {
	if o.Duration < 0 {
		o.Duration = 0
	}
	if o.Duration == 0 && o.Repeat <= 0 {
		o.Repeat = 1
	}
	if o.Parallel < 0 {
		o.Parallel = 0
	}
	if o.Wait < 0 {
		o.Wait = 0
	}
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst equal to rps to smooth pacing under concurrency.
			return rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}

// slots returns the effective concurrency. With Parallel set that value
// wins; uncapped count-bound runs never open more slots than there is work
// remaining, and uncapped time-bound runs grow up to the ceiling.
func (o *Options) slots() int {
	if o.Parallel > 0 {
		return o.Parallel
	}
	if o.Duration > 0 {
		return uncappedCeiling
	}
	if o.Repeat < uncappedCeiling {
		return o.Repeat
	}
	return uncappedCeiling
}
