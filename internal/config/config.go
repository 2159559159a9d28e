package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config holds a full test configuration. It is built once by the Loader,
// validated, and read-only thereafter.
type Config struct {
	TargetURL   string            `mapstructure:"target"`
	Method      string            `mapstructure:"method"`
	Headers     map[string]string `mapstructure:"headers"`
	Body        string            `mapstructure:"body"`
	Concurrency int               `mapstructure:"concurrency"`
	Duration    time.Duration     `mapstructure:"duration"`
	Interval    time.Duration     `mapstructure:"interval"`
	Timeout     time.Duration     `mapstructure:"timeout"`
	Retries     int               `mapstructure:"retries"`

	BackoffBase  time.Duration `mapstructure:"backoff_base"`
	BackoffCap   time.Duration `mapstructure:"backoff_cap"`
	SuccessRange string        `mapstructure:"success_range"`
	ExpectJSON   string        `mapstructure:"expect_json"`

	JSONOutput bool   `mapstructure:"json_output"`
	LogErrors  bool   `mapstructure:"log_errors"`
	Dashboard  bool   `mapstructure:"dashboard"`
	OutputFile string `mapstructure:"output"`
	ConfigFile string `mapstructure:"-"`

	Tracing TracingConfig `mapstructure:"tracing"`
}

// TracingConfig controls the optional OTel trace export.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
	Propagate   bool    `mapstructure:"propagate"`
}

// ValidationError aggregates every configuration problem found in one pass.
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

	target := strings.TrimSpace(c.TargetURL)
	if target == "" {
		issues = append(issues, "target is required (use --help for usage information)")
	} else {
		parsed, err := url.Parse(target)
		switch {
		case err != nil:
			issues = append(issues, fmt.Sprintf("target %q is not a valid URL", target))
		case !parsed.IsAbs() || parsed.Host == "":
			issues = append(issues, "target must be an absolute URL")
		case parsed.Scheme != "http" && parsed.Scheme != "https":
			issues = append(issues, fmt.Sprintf("target scheme %q is not supported (http or https)", parsed.Scheme))
		}
	}

	if c.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if c.Duration < 0 {
		issues = append(issues, "duration must be >= 0")
	}
	if c.Timeout <= 0 {
		issues = append(issues, "timeout must be > 0")
	}
	if c.Retries < 0 {
		issues = append(issues, "retries must be >= 0")
	}
	if c.Interval <= 0 {
		issues = append(issues, "interval must be > 0")
	}
	if c.BackoffBase < 0 {
		issues = append(issues, "backoff-base must be >= 0")
	}
	if c.BackoffCap < 0 {
		issues = append(issues, "backoff-cap must be >= 0")
	}
	if c.BackoffBase > 0 && c.BackoffCap > 0 && c.BackoffCap < c.BackoffBase {
		issues = append(issues, "backoff-cap must be >= backoff-base")
	}

	if c.SuccessRange != "" {
		if _, _, err := ParseSuccessRange(c.SuccessRange); err != nil {
			issues = append(issues, err.Error())
		}
	}
	if c.ExpectJSON != "" {
		if _, _, err := ParseExpectJSON(c.ExpectJSON); err != nil {
			issues = append(issues, err.Error())
		}
	}

	if c.Dashboard && c.JSONOutput {
		issues = append(issues, "dashboard and json-output are mutually exclusive")
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		issues = append(issues, "tracing sample_rate must be between 0.0 and 1.0")
	}
	if c.Tracing.Protocol != "" {
		switch strings.ToLower(c.Tracing.Protocol) {
		case "grpc", "http":
		default:
			issues = append(issues, fmt.Sprintf("tracing protocol %q is not supported (grpc or http)", c.Tracing.Protocol))
		}
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

// ParseSuccessRange parses an inclusive "low-high" status span, e.g.
// "200-299" or "200-399". A bare code such as "200" means exactly that code.
func ParseSuccessRange(s string) (int, int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, fmt.Errorf("success-range cannot be empty")
	}

	low, high := s, s
	if idx := strings.Index(s, "-"); idx != -1 {
		low, high = s[:idx], s[idx+1:]
	}

	lo, err := strconv.Atoi(strings.TrimSpace(low))
	if err != nil {
		return 0, 0, fmt.Errorf("success-range %q: invalid low bound", s)
	}
	hi, err := strconv.Atoi(strings.TrimSpace(high))
	if err != nil {
		return 0, 0, fmt.Errorf("success-range %q: invalid high bound", s)
	}

	if lo < 100 || hi > 599 || lo > hi {
		return 0, 0, fmt.Errorf("success-range %q: bounds must satisfy 100 <= low <= high <= 599", s)
	}
	return lo, hi, nil
}

// ParseExpectJSON splits a "path=value" body expectation.
func ParseExpectJSON(s string) (string, string, error) {
	idx := strings.Index(s, "=")
	if idx <= 0 {
		return "", "", fmt.Errorf("expect-json %q must be in path=value form", s)
	}
	path := strings.TrimSpace(s[:idx])
	value := s[idx+1:]
	if path == "" {
		return "", "", fmt.Errorf("expect-json %q must be in path=value form", s)
	}
	return path, value, nil
}
