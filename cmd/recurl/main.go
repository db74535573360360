package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/recurl/internal/config"
	"github.com/torosent/recurl/internal/invoker"
	"github.com/torosent/recurl/internal/metrics"
	"github.com/torosent/recurl/internal/output"
	"github.com/torosent/recurl/internal/runner"
	"github.com/torosent/recurl/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
	baseRetryDelay   = 100 * time.Millisecond
	maxRetryDelay    = 5 * time.Second
)

type tracingInvoker struct {
	inner  runner.Invoker
	tracer trace.Tracer
	runID  string
}

type stderrFailureLogger struct {
	mu sync.Mutex
}

type jitterSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	runID := ulid.Make().String()

	var inv runner.Invoker
	if cfg.UseBuiltin {
		builtin, err := invoker.NewBuiltin(cfg.Args)
		if err != nil {
			return err
		}
		inv = builtin
	} else {
		if _, err := exec.LookPath(cfg.CurlPath); err != nil {
			return fmt.Errorf("executor %q not found: %w", cfg.CurlPath, err)
		}
		inv = invoker.NewCurl(cfg.CurlPath, cfg.Args)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	if cfg.Tracing.Enabled() {
		inv = &tracingInvoker{inner: inv, tracer: provider.Tracer(), runID: runID}
	}
	if cfg.Retries > 0 {
		inv = runner.WithRetry(inv, newRetryPolicy(cfg.Retries))
	}
	if cfg.LogErrors {
		inv = runner.WithLogging(inv, &stderrFailureLogger{})
	}

	collector := metrics.NewCollector()

	r := runner.New(runner.Options{
		Parallel:      cfg.Parallel,
		Repeat:        cfg.Repeat,
		Duration:      cfg.TimeBudget,
		Wait:          cfg.Wait,
		RatePerSecond: cfg.Rate,
		ArrivalModel:  toRunnerArrivalModel(cfg.Arrival.Model),
		Invoker:       inv,
		OnOutcome:     collector.Record,
	})

	var progress *output.ProgressReporter
	if !cfg.NoProgress {
		var expected int64
		if cfg.TimeBudget == 0 {
			expected = int64(cfg.Repeat)
		}
		progress = output.NewProgressReporter(collector, expected, progressInterval, os.Stderr)
		progress.Start()
	}

	started := time.Now()
	result := r.Run(ctx)

	if progress != nil {
		progress.Stop()
		fmt.Fprintln(os.Stderr)
	}

	summary := collector.Summary()

	if cfg.Pretty {
		output.PrintReport(os.Stderr, runID, summary, result.Launched, result.Duration)
	}
	if err := output.PrintJSONReport(os.Stdout, summary); err != nil {
		return err
	}

	if cfg.OutputFile != "" {
		rec := output.Record{
			RunID:      runID,
			StartedAt:  started.UTC(),
			Launched:   result.Launched,
			DurationMs: result.Duration.Milliseconds(),
			Summary:    summary,
		}
		// The summary is already out; a failed history append is a warning,
		// not a run failure.
		if err := output.AppendRecord(cfg.OutputFile, rec); err != nil {
			fmt.Fprintf(os.Stderr, "recurl: append %s: %v\n", cfg.OutputFile, err)
		}
	}

	return nil
}

func (t *tracingInvoker) Invoke(ctx context.Context) invoker.Outcome {
	ctx, span := tracing.StartInvocationSpan(ctx, t.tracer, t.runID)
	out := t.inner.Invoke(ctx)
	tracing.EndInvocationSpan(span, out)
	return out
}

func toRunnerArrivalModel(model config.ArrivalModel) runner.ArrivalModel {
	switch model {
	case config.ArrivalModelPoisson:
		return runner.ArrivalModelPoisson
	default:
		return runner.ArrivalModelUniform
	}
}

func (l *stderrFailureLogger) LogFailure(out invoker.Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if out.Stderr != "" {
		fmt.Fprintf(os.Stderr, "[recurl] invocation failed (exit %d): %s\n", out.ExitCode, out.Stderr)
		return
	}
	fmt.Fprintf(os.Stderr, "[recurl] invocation failed (exit %d)\n", out.ExitCode)
}

func newRetryPolicy(retries int) runner.RetryPolicy {
	source := &jitterSource{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}

	return runner.RetryPolicy{
		MaxAttempts: retries + 1,
		DelayFunc: func(attempt int) time.Duration {
			if attempt < 1 {
				attempt = 1
			}
			backoff := time.Duration(1<<uint(attempt-1)) * baseRetryDelay
			if backoff > maxRetryDelay {
				backoff = maxRetryDelay
			}
			return backoff + source.jitter(backoff/2)
		},
	}
}

func (j *jitterSource) jitter(max time.Duration) time.Duration {
	if j == nil || max <= 0 {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return time.Duration(j.rnd.Int63n(int64(max)))
}
