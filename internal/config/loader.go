package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a
// Config. Everything after -- is collected verbatim as executor arguments.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	// If no arguments provided and no config file, show help/usage
	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := cfgViper.AllSettings()

	cfg := &Config{
		Repeat:     1,
		Parallel:   1,
		CurlPath:   "curl",
		ConfigFile: configPath,
		Arrival:    ArrivalConfig{Model: ArrivalModelUniform},
		Tracing:    TracingConfig{Protocol: "grpc", SampleRate: 1.0},
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	// Executor arguments from the command line win over the config file.
	if dashArgs := argsAfterDash(flagSet); len(dashArgs) > 0 {
		cfg.Args = dashArgs
	}

	cfg.CurlPath = strings.TrimSpace(cfg.CurlPath)
	cfg.Tracing.Endpoint = strings.TrimSpace(cfg.Tracing.Endpoint)

	return cfg, nil
}

// argsAfterDash returns the positional arguments intended for the executor.
// Arguments after -- are taken as-is; without a -- separator any remaining
// positionals are used instead.
func argsAfterDash(fs *pflag.FlagSet) []string {
	rest := fs.Args()
	if at := fs.ArgsLenAtDash(); at >= 0 {
		return append([]string(nil), rest[at:]...)
	}
	return append([]string(nil), rest...)
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "repeat"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("repeat: %w", err)
		}
		cfg.Repeat = val
	}

	if raw, ok := lookupSetting(settings, "time"); ok {
		val, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("time: %w", err)
		}
		cfg.TimeBudget = val
	}

	if raw, ok := lookupSetting(settings, "wait"); ok {
		val, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("wait: %w", err)
		}
		cfg.Wait = val
	}

	if raw, ok := lookupSetting(settings, "parallel"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("parallel: %w", err)
		}
		cfg.Parallel = val
	}

	if raw, ok := lookupSetting(settings, "rate"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("rate: %w", err)
		}
		cfg.Rate = val
	}

	if raw, ok := lookupSetting(settings, "retries"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("retries: %w", err)
		}
		cfg.Retries = val
	}

	if raw, ok := lookupSetting(settings, "use_builtin"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("use_builtin: %w", err)
		}
		cfg.UseBuiltin = val
	}

	if raw, ok := lookupSetting(settings, "curl_path"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("curl_path: %w", err)
		}
		if val != "" {
			cfg.CurlPath = val
		}
	}

	if raw, ok := lookupSetting(settings, "log_errors"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("log_errors: %w", err)
		}
		cfg.LogErrors = val
	}

	if raw, ok := lookupSetting(settings, "no_progress"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("no_progress: %w", err)
		}
		cfg.NoProgress = val
	}

	if raw, ok := lookupSetting(settings, "pretty"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("pretty: %w", err)
		}
		cfg.Pretty = val
	}

	if raw, ok := lookupSetting(settings, "output_file"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("output_file: %w", err)
		}
		cfg.OutputFile = val
	}

	if raw, ok := lookupSetting(settings, "args"); ok {
		val, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("args: %w", err)
		}
		cfg.Args = val
	}

	if raw, ok := lookupSetting(settings, "arrival"); ok {
		section, err := toStringKeyMap(raw)
		if err != nil {
			return fmt.Errorf("arrival: %w", err)
		}
		if modelRaw, ok := lookupSetting(section, "model"); ok {
			val, err := asString(modelRaw)
			if err != nil {
				return fmt.Errorf("arrival.model: %w", err)
			}
			if val != "" {
				cfg.Arrival.Model = ArrivalModel(strings.ToLower(val))
			}
		}
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		if err := applyTracingSettings(&cfg.Tracing, raw); err != nil {
			return err
		}
	}

	return nil
}

func applyTracingSettings(cfg *TracingConfig, raw interface{}) error {
	section, err := toStringKeyMap(raw)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}

	if v, ok := lookupSetting(section, "endpoint"); ok {
		val, err := asString(v)
		if err != nil {
			return fmt.Errorf("tracing.endpoint: %w", err)
		}
		cfg.Endpoint = val
	}
	if v, ok := lookupSetting(section, "protocol"); ok {
		val, err := asString(v)
		if err != nil {
			return fmt.Errorf("tracing.protocol: %w", err)
		}
		if val != "" {
			cfg.Protocol = val
		}
	}
	if v, ok := lookupSetting(section, "service_name"); ok {
		val, err := asString(v)
		if err != nil {
			return fmt.Errorf("tracing.service_name: %w", err)
		}
		cfg.ServiceName = val
	}
	if v, ok := lookupSetting(section, "sample_rate"); ok {
		val, err := asFloat64(v)
		if err != nil {
			return fmt.Errorf("tracing.sample_rate: %w", err)
		}
		cfg.SampleRate = val
	}
	if v, ok := lookupSetting(section, "insecure"); ok {
		val, err := asBool(v)
		if err != nil {
			return fmt.Errorf("tracing.insecure: %w", err)
		}
		cfg.Insecure = val
	}
	return nil
}
