// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

// Package httputils provides utility functions for working with HTTP.
package httputils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"strings"
	"time"
)

/////////////////////////////////////////
/// RountTrippers

// LoggingRoundTripper adds a very primitive logging to a http transaction.
type LoggingRoundTripper struct {
	Transport http.RoundTripper
	Writer    io.Writer
	DumpBody  bool
}

// reduce the content the liens.
func abbreviate(lines []string, prefix rune) []string {
	const maxLines, maxChars = 2048, 512

	for i, line := range lines {
		if i < maxLines {
			lines[i] = fmt.Sprintf("%c %s", prefix, line)
		} else {
			break
		}
	}

	if len(lines) > maxLines {
		lines = lines[:maxLines]
		lines = append(lines, "…")
	}

	for i, line := range lines {
		if len(line) > maxChars {
			lines[i] = line[0:maxChars] + "…"
		}
	}

	return lines
}

func (t *LoggingRoundTripper) dumpRequest(req *http.Request) error {
	dump, err := httputil.DumpRequestOut(req, true)
	if err != nil {
		return fmt.Errorf("tracing HTTP request: %w", err)
	}

	lines := abbreviate(strings.Split(string(dump), "\n"), '>')
	lines = append(lines, "")
	_, err = fmt.Fprint(t.Writer, strings.Join(lines, "\n"))

	return err
}

func (t *LoggingRoundTripper) dumpResponse(resp *http.Response, duration time.Duration) error {
	dump, err := httputil.DumpResponse(resp, t.DumpBody)
	if err != nil {
		return fmt.Errorf("tracing HTTP request: %w", err)
	}

	lines := abbreviate(strings.Split(string(dump), "\n"), '<')

	_, err = fmt.Fprintf(t.Writer, "< RESPONSE: [%v]\n", duration)
	if err != nil {
		return fmt.Errorf("tracing HTTP request: %w", err)
	}

	lines = append(lines, "")
	_, err = fmt.Fprint(t.Writer, strings.Join(lines, "\n"))

	return err
}

// RoundTrip implements the http.RoundTripper interface.
func (t *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Writer == nil {
		return t.Transport.RoundTrip(req)
	}

	if err := t.dumpRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()

	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if err := t.dumpResponse(resp, time.Since(start)); err != nil {
		return nil, err
	}

	return resp, nil
}

// AppendRequestHeadersRoundTripper adds headers to the request.
type AppendRequestHeadersRoundTripper struct {
	Transport http.RoundTripper
	Headers   map[string]string
}

// RoundTrip implements the http.RoundTripper interface.
func (t *AppendRequestHeadersRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.Transport.RoundTrip(req)

	return resp, err
}

// ObservingRoundTripper reports the outcome and duration of every request.
// Status is 0 when no response was received.
type ObservingRoundTripper struct {
	Transport http.RoundTripper
	Observe   func(req *http.Request, status int, duration time.Duration)
}

// RoundTrip implements the http.RoundTripper interface.
func (t *ObservingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.Transport.RoundTrip(req)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	if t.Observe != nil {
		t.Observe(req, status, time.Since(start))
	}

	return resp, err
}

// RetryRoundTripper retries bodiless requests that fail at the transport
// level or get a 5xx gateway status, doubling the wait between attempts.
type RetryRoundTripper struct {
	Transport http.RoundTripper
	Retries   int
	Backoff   time.Duration
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// sleepCtx waits for d or returns false early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// RoundTrip implements the http.RoundTripper interface.
func (t *RetryRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.Body != http.NoBody {
		return t.Transport.RoundTrip(req)
	}

	wait := t.Backoff

	for attempt := 0; ; attempt++ {
		resp, err := t.Transport.RoundTrip(req)

		if attempt >= t.Retries || req.Context().Err() != nil {
			return resp, err
		}

		if err == nil && !retryableStatus(resp.StatusCode) {
			return resp, nil
		}

		if resp != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		if !sleepCtx(req.Context(), wait) {
			return nil, req.Context().Err()
		}

		wait *= 2
	}
}

////////////////////////////////////////////////////

// ClientOptions describes the transport stack built by NewClient.
type ClientOptions struct {
	// UserAgent sent with every request
	UserAgent string

	// Timeout of a whole request, retries included
	Timeout time.Duration

	// Retries of failed bodiless requests, 0 disables them
	Retries int

	// Backoff before the first retry
	Backoff time.Duration

	// TraceWriter receives request/response dumps when set
	TraceWriter io.Writer

	// DumpBody includes bodies in the trace
	DumpBody bool

	// Observe is called after every attempt
	Observe func(req *http.Request, status int, duration time.Duration)
}

// NewClient builds an HTTP client layering headers, tracing, metrics and
// retries over a pooled transport.
func NewClient(options ClientOptions) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		MaxConnsPerHost:       4,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}

	var rt http.RoundTripper = &ObservingRoundTripper{
		Transport: transport,
		Observe:   options.Observe,
	}

	rt = &LoggingRoundTripper{
		Writer:    options.TraceWriter,
		DumpBody:  options.DumpBody,
		Transport: rt,
	}

	if options.Retries > 0 {
		backoff := options.Backoff
		if backoff <= 0 {
			backoff = time.Second
		}

		rt = &RetryRoundTripper{
			Transport: rt,
			Retries:   options.Retries,
			Backoff:   backoff,
		}
	}

	userAgent := "podsudnost/unknown"
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}

	rt = &AppendRequestHeadersRoundTripper{
		Headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "*/*",
		},
		Transport: rt,
	}

	return &http.Client{
		Timeout:   options.Timeout,
		Transport: rt,
	}
}
