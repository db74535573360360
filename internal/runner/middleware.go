package runner

import (
	"context"
	"time"

	"github.com/torosent/recurl/internal/invoker"
)

// FailureLogger reports failed invocations.
type FailureLogger interface {
	LogFailure(out invoker.Outcome)
}

// RetryPolicy configures retry behavior for failed invocations.
type RetryPolicy struct {
	MaxAttempts int                                // total attempts including initial try
	Delay       time.Duration                      // fixed delay between retries (used if DelayFunc nil)
	DelayFunc   func(attempt int) time.Duration    // dynamic backoff; attempt is 1-based
}

// retryInvoker wraps an Invoker with retry logic.
type retryInvoker struct {
	inner  Invoker
	policy RetryPolicy
}

// WithRetry wraps an Invoker so that failed outcomes are re-attempted.
// Exactly one outcome is produced per logical invocation: the first
// success, or the last failed attempt.
func WithRetry(inv Invoker, policy RetryPolicy) Invoker {
	if policy.MaxAttempts <= 1 {
		return inv
	}
	return &retryInvoker{inner: inv, policy: policy}
}

func (r *retryInvoker) Invoke(ctx context.Context) invoker.Outcome {
	out := r.inner.Invoke(ctx)
	for attempt := 1; out.Failed && attempt < r.policy.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			break
		}
		delay := r.policy.Delay
		if r.policy.DelayFunc != nil {
			delay = r.policy.DelayFunc(attempt)
		}
		if delay > 0 && !sleep(ctx, delay) {
			break
		}
		out = r.inner.Invoke(ctx)
	}
	return out
}

// loggingInvoker wraps an Invoker with failure logging.
type loggingInvoker struct {
	inner  Invoker
	logger FailureLogger
}

// WithLogging wraps an Invoker to log failed outcomes.
func WithLogging(inv Invoker, logger FailureLogger) Invoker {
	if logger == nil {
		return inv
	}
	return &loggingInvoker{inner: inv, logger: logger}
}

func (l *loggingInvoker) Invoke(ctx context.Context) invoker.Outcome {
	out := l.inner.Invoke(ctx)
	if out.Failed {
		l.logger.LogFailure(out)
	}
	return out
}
