package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	loader := NewLoader()
	cfg, err := loader.Load([]string{"--target", "https://example.com"})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.TargetURL != "https://example.com" {
		t.Errorf("expected target to be set, got %q", cfg.TargetURL)
	}
	if cfg.Method != "GET" {
		t.Errorf("expected default method GET, got %q", cfg.Method)
	}
	if cfg.Concurrency != 5 {
		t.Errorf("expected default concurrency 5, got %d", cfg.Concurrency)
	}
	if cfg.Duration != 10*time.Second {
		t.Errorf("expected default duration 10s, got %v", cfg.Duration)
	}
	if cfg.Interval != time.Second {
		t.Errorf("expected default interval 1s, got %v", cfg.Interval)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %v", cfg.Timeout)
	}
	if cfg.Retries != 2 {
		t.Errorf("expected default retries 2, got %d", cfg.Retries)
	}
	if cfg.SuccessRange != "200-299" {
		t.Errorf("expected default success range 200-299, got %q", cfg.SuccessRange)
	}
	if cfg.Tracing.Enabled {
		t.Error("expected tracing disabled by default")
	}
	if cfg.Tracing.Protocol != "grpc" {
		t.Errorf("expected default trace protocol grpc, got %q", cfg.Tracing.Protocol)
	}
}

func TestLoadFlagValues(t *testing.T) {
	loader := NewLoader()
	cfg, err := loader.Load([]string{
		"--target", "http://localhost:8080/api",
		"--method", "post",
		"--body", `{"k":"v"}`,
		"-c", "20",
		"-d", "30s",
		"--interval", "500ms",
		"--timeout", "3s",
		"-r", "4",
		"--backoff-base", "50ms",
		"--backoff-cap", "2s",
		"--success-range", "200-399",
		"--expect-json", "status=ok",
		"--header", "Authorization=Bearer token",
		"--header", "X-Env=staging",
		"--log-errors",
		"--json-output",
		"-o", "report.json",
	})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Method != "POST" {
		t.Errorf("expected method normalized to POST, got %q", cfg.Method)
	}
	if cfg.Concurrency != 20 {
		t.Errorf("expected concurrency 20, got %d", cfg.Concurrency)
	}
	if cfg.Duration != 30*time.Second {
		t.Errorf("expected duration 30s, got %v", cfg.Duration)
	}
	if cfg.Interval != 500*time.Millisecond {
		t.Errorf("expected interval 500ms, got %v", cfg.Interval)
	}
	if cfg.Retries != 4 {
		t.Errorf("expected retries 4, got %d", cfg.Retries)
	}
	if cfg.BackoffBase != 50*time.Millisecond || cfg.BackoffCap != 2*time.Second {
		t.Errorf("expected backoff 50ms/2s, got %v/%v", cfg.BackoffBase, cfg.BackoffCap)
	}
	if cfg.SuccessRange != "200-399" {
		t.Errorf("expected success range 200-399, got %q", cfg.SuccessRange)
	}
	if cfg.ExpectJSON != "status=ok" {
		t.Errorf("expected expect-json status=ok, got %q", cfg.ExpectJSON)
	}
	if got := cfg.Headers["Authorization"]; got != "Bearer token" {
		t.Errorf("expected Authorization header, got %q", got)
	}
	if got := cfg.Headers["X-Env"]; got != "staging" {
		t.Errorf("expected X-Env header, got %q", got)
	}
	if !cfg.LogErrors || !cfg.JSONOutput {
		t.Error("expected log-errors and json-output to be set")
	}
	if cfg.OutputFile != "report.json" {
		t.Errorf("expected output file report.json, got %q", cfg.OutputFile)
	}
}

func TestLoadHelp(t *testing.T) {
	loader := NewLoader()
	if _, err := loader.Load([]string{"--help"}); !errors.Is(err, ErrHelpRequested) {
		t.Errorf("expected ErrHelpRequested for --help, got %v", err)
	}
	if _, err := loader.Load(nil); !errors.Is(err, ErrHelpRequested) {
		t.Errorf("expected ErrHelpRequested for no arguments, got %v", err)
	}
}

func TestLoadUnknownFlag(t *testing.T) {
	loader := NewLoader()
	if _, err := loader.Load([]string{"--no-such-flag"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestLoadBadHeader(t *testing.T) {
	loader := NewLoader()
	_, err := loader.Load([]string{"--target", "https://example.com", "--header", "noequals"})
	if err == nil {
		t.Error("expected error for malformed header pair")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "riptide.yaml")
	content := `
target: https://config.example.com
method: PUT
concurrency: 12
duration: 45s
retries: 1
success_range: 200-399
tracing:
  enabled: true
  endpoint: localhost:4317
  sample_rate: 0.5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.TargetURL != "https://config.example.com" {
		t.Errorf("expected target from file, got %q", cfg.TargetURL)
	}
	if cfg.Method != "PUT" {
		t.Errorf("expected method PUT from file, got %q", cfg.Method)
	}
	if cfg.Concurrency != 12 {
		t.Errorf("expected concurrency 12 from file, got %d", cfg.Concurrency)
	}
	if cfg.Duration != 45*time.Second {
		t.Errorf("expected duration 45s from file, got %v", cfg.Duration)
	}
	if !cfg.Tracing.Enabled {
		t.Error("expected tracing enabled from file")
	}
	if cfg.Tracing.SampleRate != 0.5 {
		t.Errorf("expected sample rate 0.5 from file, got %f", cfg.Tracing.SampleRate)
	}
}

func TestLoadFlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "riptide.yaml")
	content := `
target: https://config.example.com
concurrency: 12
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.Load([]string{"--config", path, "-c", "3", "--target", "https://flag.example.com"})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Concurrency != 3 {
		t.Errorf("expected flag to override file concurrency, got %d", cfg.Concurrency)
	}
	if cfg.TargetURL != "https://flag.example.com" {
		t.Errorf("expected flag to override file target, got %q", cfg.TargetURL)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	loader := NewLoader()
	if _, err := loader.Load([]string{"--config", "/nonexistent/riptide.yaml"}); err == nil {
		t.Error("expected error for missing config file")
	}
}
