package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// RequestBuilder constructs the probe request sent on every attempt. The
// method, target and headers are fixed for the lifetime of a run, so a single
// builder is shared across all workers.
type RequestBuilder struct {
	method  string
	target  string
	headers http.Header
	body    string
}

func NewRequestBuilder(method, target string, headers map[string]string, body string) (*RequestBuilder, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, errors.New("target URL is required")
	}

	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}

	hdrs := http.Header{}
	for key, value := range headers {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" || strings.ContainsAny(trimmed, "\r\n") {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("invalid header value for %s", trimmed)
		}
		hdrs.Set(http.CanonicalHeaderKey(trimmed), value)
	}

	return &RequestBuilder{
		method:  method,
		target:  target,
		headers: hdrs,
		body:    body,
	}, nil
}

func (b *RequestBuilder) Method() string {
	if b == nil {
		return http.MethodGet
	}
	return b.method
}

func (b *RequestBuilder) Target() string {
	if b == nil {
		return ""
	}
	return b.target
}

// Build produces a fresh request bound to ctx. A new request is built per
// attempt so the body reader and context deadline are never reused.
func (b *RequestBuilder) Build(ctx context.Context) (*http.Request, error) {
	if b == nil {
		return nil, errors.New("builder cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var req *http.Request
	var err error
	if b.body != "" {
		reader := strings.NewReader(b.body)
		req, err = http.NewRequestWithContext(ctx, b.method, b.target, reader)
		if err == nil {
			req.ContentLength = int64(reader.Len())
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, b.method, b.target, nil)
	}
	if err != nil {
		return nil, err
	}

	for key, values := range b.headers {
		for _, val := range values {
			req.Header.Add(key, val)
		}
	}
	return req, nil
}

// NewClient returns an http.Client tuned for sustained concurrent load:
// generous idle pools so workers reuse connections instead of exhausting
// ephemeral ports. The timeout bounds a full attempt including body read.
func NewClient(timeout time.Duration) *http.Client {
	if timeout < 0 {
		timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   64,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
