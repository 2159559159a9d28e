package executor

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riptide-dev/riptide/internal/httpclient"
	"github.com/riptide-dev/riptide/internal/tracing"
)

const (
	// DefaultBackoffBase is the first retry delay; each further retry doubles it.
	DefaultBackoffBase = 100 * time.Millisecond
	// DefaultBackoffCap bounds the exponential growth.
	DefaultBackoffCap = 5 * time.Second

	maxErrorBodyBytes = 1024
	maxBodyReadBytes  = 1024 * 1024
)

// StatusRange is the inclusive span of response codes counted as success.
type StatusRange struct {
	Low  int
	High int
}

// DefaultStatusRange accepts 2xx responses only.
var DefaultStatusRange = StatusRange{Low: 200, High: 299}

func (r StatusRange) Contains(code int) bool {
	return code >= r.Low && code <= r.High
}

// Backoff computes exponential retry delays: Base << (attempt-1), capped.
type Backoff struct {
	Base time.Duration
	Cap  time.Duration
}

// Delay returns the wait before the retry following the given 1-based attempt.
func (b Backoff) Delay(attempt int) time.Duration {
	base := b.Base
	if base <= 0 {
		base = DefaultBackoffBase
	}
	limit := b.Cap
	if limit <= 0 {
		limit = DefaultBackoffCap
	}
	if attempt < 1 {
		attempt = 1
	}
	// Shifting past the limit would overflow; clamp the exponent first.
	if attempt > 32 {
		return limit
	}
	delay := base << uint(attempt-1)
	if delay > limit || delay <= 0 {
		delay = limit
	}
	return delay
}

// Expectation asserts a gjson path against an expected string value in the
// response body. A response that passes the status check but misses the
// expectation counts as a non-success failure.
type Expectation struct {
	Path string
	Want string
}

// Options configure an Executor.
type Options struct {
	Client     *http.Client
	Builder    *httpclient.RequestBuilder
	Timeout    time.Duration // per-attempt deadline
	MaxRetries int           // retries after the first failure
	Backoff    Backoff
	Accept     StatusRange
	Expect     *Expectation
	Tracing    *tracing.Provider
}

// Executor issues one logical request per Execute call: an HTTP attempt with
// a timeout, retried with exponential backoff up to MaxRetries times. It
// holds no mutable state and is safe for concurrent use.
type Executor struct {
	opt Options
}

func New(opt Options) *Executor {
	if opt.Client == nil {
		opt.Client = httpclient.NewClient(opt.Timeout)
	}
	if opt.Accept == (StatusRange{}) {
		opt.Accept = DefaultStatusRange
	}
	if opt.MaxRetries < 0 {
		opt.MaxRetries = 0
	}
	return &Executor{opt: opt}
}

// Execute runs the attempt/retry cycle to a terminal Outcome. It never
// returns an error of its own: every failure mode is folded into the
// Outcome's failure kind.
func (e *Executor) Execute(ctx context.Context) Outcome {
	if ctx == nil {
		ctx = context.Background()
	}

	tracer := e.opt.Tracing.Tracer()
	ctx, span := tracing.StartRequestSpan(ctx, tracer, e.opt.Builder.Method(), e.opt.Builder.Target())

	start := time.Now()
	var lastErr error
	var lastStatus int
	attempts := 0

	for attempt := 1; attempt <= e.opt.MaxRetries+1; attempt++ {
		attempts = attempt
		status, err := e.attempt(ctx)
		if status != 0 {
			lastStatus = status
		}
		lastErr = err
		if err == nil {
			break
		}
		if attempt <= e.opt.MaxRetries {
			if waitErr := sleep(ctx, e.opt.Backoff.Delay(attempt)); waitErr != nil {
				lastErr = waitErr
				break
			}
		}
	}

	elapsed := time.Since(start)
	out := Outcome{
		Elapsed:    elapsed,
		Success:    lastErr == nil,
		Attempts:   attempts,
		StatusCode: lastStatus,
		Err:        lastErr,
	}
	if lastErr != nil {
		out.Kind = Classify(lastErr)
	}

	tracing.EndSpan(span, lastErr,
		attribute.Int("riptide.attempts", attempts),
		attribute.Int64("riptide.elapsed_ms", elapsed.Milliseconds()),
	)
	return out
}

// attempt issues a single HTTP request with the per-attempt deadline and
// returns the observed status code (0 if no response) and the attempt's
// terminal error.
func (e *Executor) attempt(ctx context.Context) (int, error) {
	attemptCtx := ctx
	if e.opt.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, e.opt.Timeout)
		defer cancel()
	}

	req, err := e.opt.Builder.Build(attemptCtx)
	if err != nil {
		return 0, err
	}
	if e.opt.Tracing.ShouldPropagate() {
		tracing.InjectHeaders(attemptCtx, req.Header)
	}

	resp, err := e.opt.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyReadBytes))
	if readErr != nil {
		body = nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	if !e.opt.Accept.Contains(resp.StatusCode) {
		snippet := body
		if len(snippet) > maxErrorBodyBytes {
			snippet = snippet[:maxErrorBodyBytes]
		}
		return resp.StatusCode, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if e.opt.Expect != nil {
		got := gjson.GetBytes(body, e.opt.Expect.Path)
		if got.String() != e.opt.Expect.Want {
			return resp.StatusCode, &ExpectationError{
				Path: e.opt.Expect.Path,
				Want: e.opt.Expect.Want,
				Got:  got.String(),
			}
		}
	}

	return resp.StatusCode, nil
}

// Classify maps an attempt error onto the outcome failure taxonomy.
func Classify(err error) FailureKind {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return FailureNonSuccessStatus
	}
	var expectErr *ExpectationError
	if errors.As(err, &expectErr) {
		return FailureNonSuccessStatus
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	return FailureConnectionError
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
