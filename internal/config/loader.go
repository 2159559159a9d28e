package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

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

// Load parses command-line arguments and an optional config file into a
// Config. Flags that were explicitly set override file values.
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

	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	cfg := &Config{
		Method:       "GET",
		Headers:      map[string]string{},
		Concurrency:  5,
		Duration:     10 * time.Second,
		Interval:     time.Second,
		Timeout:      10 * time.Second,
		Retries:      2,
		SuccessRange: "200-299",
		ConfigFile:   configPath,
		Tracing:      TracingConfig{Protocol: "grpc", SampleRate: 1.0},
	}

	if configPath != "" {
		cfgViper := viper.New()
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
		if err := cfgViper.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configPath, err)
		}
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.Method = strings.ToUpper(strings.TrimSpace(cfg.Method))
	cfg.TargetURL = strings.TrimSpace(cfg.TargetURL)
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}

	return cfg, nil
}

// applyFlagOverrides copies explicitly-set flag values over file settings.
func applyFlagOverrides(cfg *Config, flags *pflag.FlagSet) error {
	var err error

	setString := func(name string, dst *string) {
		if err != nil || !flags.Changed(name) {
			return
		}
		var val string
		if val, err = flags.GetString(name); err == nil {
			*dst = val
		}
	}
	setInt := func(name string, dst *int) {
		if err != nil || !flags.Changed(name) {
			return
		}
		var val int
		if val, err = flags.GetInt(name); err == nil {
			*dst = val
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if err != nil || !flags.Changed(name) {
			return
		}
		var val time.Duration
		if val, err = flags.GetDuration(name); err == nil {
			*dst = val
		}
	}
	setBool := func(name string, dst *bool) {
		if err != nil || !flags.Changed(name) {
			return
		}
		var val bool
		if val, err = flags.GetBool(name); err == nil {
			*dst = val
		}
	}

	setString("target", &cfg.TargetURL)
	setString("method", &cfg.Method)
	setString("body", &cfg.Body)
	setInt("concurrency", &cfg.Concurrency)
	setDuration("duration", &cfg.Duration)
	setDuration("interval", &cfg.Interval)
	setDuration("timeout", &cfg.Timeout)
	setInt("retries", &cfg.Retries)
	setDuration("backoff-base", &cfg.BackoffBase)
	setDuration("backoff-cap", &cfg.BackoffCap)
	setString("success-range", &cfg.SuccessRange)
	setString("expect-json", &cfg.ExpectJSON)
	setBool("json-output", &cfg.JSONOutput)
	setBool("dashboard", &cfg.Dashboard)
	setBool("log-errors", &cfg.LogErrors)
	setString("output", &cfg.OutputFile)
	setBool("trace", &cfg.Tracing.Enabled)
	setString("trace-endpoint", &cfg.Tracing.Endpoint)
	setString("trace-protocol", &cfg.Tracing.Protocol)
	setBool("trace-propagate", &cfg.Tracing.Propagate)
	if err != nil {
		return err
	}

	if flags.Changed("header") {
		pairs, err := flags.GetStringSlice("header")
		if err != nil {
			return err
		}
		headers, err := parseHeaderPairs(pairs)
		if err != nil {
			return err
		}
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for key, value := range headers {
			cfg.Headers[key] = value
		}
	}

	return nil
}

func parseHeaderPairs(pairs []string) (map[string]string, error) {
	headers := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		idx := strings.Index(pair, "=")
		if idx <= 0 {
			return nil, fmt.Errorf("header %q must be in key=value form", pair)
		}
		key := strings.TrimSpace(pair[:idx])
		if key == "" {
			return nil, fmt.Errorf("header %q must be in key=value form", pair)
		}
		headers[key] = pair[idx+1:]
	}
	return headers, nil
}
