package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config is the immutable run configuration. Exactly one stopping policy is
// active: when TimeBudget is set, Repeat is ignored.
type Config struct {
	Repeat     int           `mapstructure:"repeat"`
	TimeBudget time.Duration `mapstructure:"time"`
	Wait       time.Duration `mapstructure:"wait"`
	Parallel   int           `mapstructure:"parallel"`
	Rate       int           `mapstructure:"rate"`
	Arrival    ArrivalConfig `mapstructure:"arrival"`
	Retries    int           `mapstructure:"retries"`
	UseBuiltin bool          `mapstructure:"use_builtin"`
	CurlPath   string        `mapstructure:"curl_path"`
	LogErrors  bool          `mapstructure:"log_errors"`
	NoProgress bool          `mapstructure:"no_progress"`
	Pretty     bool          `mapstructure:"pretty"`
	OutputFile string        `mapstructure:"output_file"`
	Tracing    TracingConfig `mapstructure:"tracing"`
	ConfigFile string        `mapstructure:"-"`

	// Args are the pass-through executor arguments. They are never
	// interpreted here; curl option semantics belong to the executor.
	Args []string `mapstructure:"args"`
}

type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

type ArrivalConfig struct {
	Model ArrivalModel `mapstructure:"model"`
}

// TracingConfig controls the optional per-invocation OTLP spans.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
}

// Enabled reports whether an exporter endpoint is configured, either
// directly or through the standard OTLP environment variable.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if c.TimeBudget == 0 && c.Repeat < 1 {
		issues = append(issues, "repeat must be >= 1")
	}
	if c.TimeBudget < 0 {
		issues = append(issues, "time must be >= 0")
	}
	if c.Wait < 0 {
		issues = append(issues, "wait must be >= 0")
	}
	if c.Parallel < 0 {
		issues = append(issues, "parallel must be >= 0")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Retries < 0 {
		issues = append(issues, "retries must be >= 0")
	}
	if len(c.Args) == 0 {
		issues = append(issues, "executor arguments are required after -- (use --help for usage information)")
	}

	switch c.Arrival.Model {
	case "", ArrivalModelUniform, ArrivalModelPoisson:
	default:
		issues = append(issues, fmt.Sprintf("arrival model %q is not supported (uniform or poisson)", c.Arrival.Model))
	}
	if c.Arrival.Model == ArrivalModelPoisson && c.Rate <= 0 {
		issues = append(issues, "poisson arrival requires rate > 0")
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		issues = append(issues, fmt.Sprintf("tracing sample_rate must be between 0.0 and 1.0, got %g", c.Tracing.SampleRate))
	}
	switch strings.ToLower(c.Tracing.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing protocol %q is not supported (grpc or http)", c.Tracing.Protocol))
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}
