package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "riptide",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Core request flags
	flags.String("target", "", "Target URL to load test")
	flags.String("method", "GET", "HTTP method to use")
	flags.StringSlice("header", nil, "Additional request header in key=value form (repeatable)")
	flags.String("body", "", "Inline request body payload")

	// Load control flags
	flags.IntP("concurrency", "c", 5, "Requests launched per interval tick")
	flags.DurationP("duration", "d", 10*time.Second, "How long to run the test (e.g. 30s, 1m)")
	flags.Duration("interval", time.Second, "Spacing between batch launches")
	flags.Duration("timeout", 10*time.Second, "Per-attempt request timeout")
	flags.IntP("retries", "r", 2, "Retries per request after the first failure")
	flags.Duration("backoff-base", 100*time.Millisecond, "First retry delay; doubles per retry")
	flags.Duration("backoff-cap", 5*time.Second, "Upper bound on the retry delay")

	// Outcome classification flags
	flags.String("success-range", "200-299", "Inclusive status span counted as success (e.g. 200-399)")
	flags.String("expect-json", "", "JSON body expectation in gjson path=value form")

	// Output flags
	flags.Bool("json-output", false, "Emit JSON formatted output")
	flags.Bool("dashboard", false, "Show live terminal dashboard with metrics")
	flags.Bool("log-errors", false, "Log each failed request to stderr")
	flags.StringP("output", "o", "", "Write the JSON report to the specified file path")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Tracing flags
	flags.Bool("trace", false, "Enable OpenTelemetry trace export")
	flags.String("trace-endpoint", "", "OTLP endpoint for trace export")
	flags.String("trace-protocol", "grpc", "OTLP protocol: 'grpc' or 'http'")
	flags.Bool("trace-propagate", false, "Inject W3C traceparent headers into requests")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}
