package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "recurl [flags] -- <executor args>",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Stopping policy flags
	flags.IntP("repeat", "n", 1, "Number of invocations to launch (ignored when --time is set)")
	flags.DurationP("time", "t", 0, "Time budget; launch as many invocations as fit (e.g. 10s, 1m)")

	// Load control flags
	flags.DurationP("wait", "w", 0, "Per-slot pause between successive invocations (e.g. 100ms)")
	flags.IntP("parallel", "p", 1, "Concurrent invocation slots (0 = uncapped)")
	flags.IntP("rate", "r", 0, "Invocations per second limit (0 means unlimited)")
	flags.String("arrival-model", string(ArrivalModelUniform), "Arrival model to use when pacing launches (uniform or poisson)")
	flags.Int("retries", 0, "Number of retries per failed invocation")

	// Executor flags
	flags.Bool("use-builtin", false, "Use the built-in HTTP client instead of the curl binary")
	flags.String("curl-path", "curl", "Executor binary to invoke")

	// Output flags
	flags.Bool("log-errors", false, "Log each failed invocation to stderr")
	flags.Bool("no-progress", false, "Suppress the live progress line")
	flags.Bool("pretty", false, "Print a human-readable breakdown to stderr")
	flags.String("output-file", "", "Append the summary record to this run-history file")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Tracing flags
	flags.String("otlp-endpoint", "", "OTLP endpoint for per-invocation trace spans")
	flags.String("otlp-protocol", "grpc", "OTLP transport: 'grpc' or 'http'")
	flags.Bool("otlp-insecure", false, "Skip TLS for the OTLP exporter")
	flags.String("trace-service", "", "service.name resource attribute for spans")
	flags.Float64("trace-sample-rate", 1.0, "Fraction of invocations to sample (0.0-1.0)")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nArguments after -- are passed to the executor verbatim.\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config,
// overriding values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("repeat") {
		val, err := fs.GetInt("repeat")
		if err != nil {
			return err
		}
		cfg.Repeat = val
	}
	if fs.Changed("time") {
		val, err := fs.GetDuration("time")
		if err != nil {
			return err
		}
		cfg.TimeBudget = val
	}
	if fs.Changed("wait") {
		val, err := fs.GetDuration("wait")
		if err != nil {
			return err
		}
		cfg.Wait = val
	}
	if fs.Changed("parallel") {
		val, err := fs.GetInt("parallel")
		if err != nil {
			return err
		}
		cfg.Parallel = val
	}
	if fs.Changed("rate") {
		val, err := fs.GetInt("rate")
		if err != nil {
			return err
		}
		cfg.Rate = val
	}
	if fs.Changed("arrival-model") {
		val, err := fs.GetString("arrival-model")
		if err != nil {
			return err
		}
		cfg.Arrival.Model = ArrivalModel(val)
	}
	if fs.Changed("retries") {
		val, err := fs.GetInt("retries")
		if err != nil {
			return err
		}
		cfg.Retries = val
	}
	if fs.Changed("use-builtin") {
		val, err := fs.GetBool("use-builtin")
		if err != nil {
			return err
		}
		cfg.UseBuiltin = val
	}
	if fs.Changed("curl-path") {
		val, err := fs.GetString("curl-path")
		if err != nil {
			return err
		}
		cfg.CurlPath = val
	}
	if fs.Changed("log-errors") {
		val, err := fs.GetBool("log-errors")
		if err != nil {
			return err
		}
		cfg.LogErrors = val
	}
	if fs.Changed("no-progress") {
		val, err := fs.GetBool("no-progress")
		if err != nil {
			return err
		}
		cfg.NoProgress = val
	}
	if fs.Changed("pretty") {
		val, err := fs.GetBool("pretty")
		if err != nil {
			return err
		}
		cfg.Pretty = val
	}
	if fs.Changed("output-file") {
		val, err := fs.GetString("output-file")
		if err != nil {
			return err
		}
		cfg.OutputFile = val
	}
	if fs.Changed("otlp-endpoint") {
		val, err := fs.GetString("otlp-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = val
	}
	if fs.Changed("otlp-protocol") {
		val, err := fs.GetString("otlp-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = val
	}
	if fs.Changed("otlp-insecure") {
		val, err := fs.GetBool("otlp-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}
	if fs.Changed("trace-service") {
		val, err := fs.GetString("trace-service")
		if err != nil {
			return err
		}
		cfg.Tracing.ServiceName = val
	}
	if fs.Changed("trace-sample-rate") {
		val, err := fs.GetFloat64("trace-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	return nil
}
