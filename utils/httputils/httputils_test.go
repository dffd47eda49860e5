// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package httputils

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// dummyRoundTripper is useful to simulate a response.
type dummyRoundTripper struct {
	response *http.Response
}

func (d *dummyRoundTripper) RoundTrip(_ *http.Request) (*http.Response, error) {
	if d.response != nil {
		return d.response, nil
	}

	return nil, nil
}

//////////////////////////////////
// Test LoggingRoundTripper

// TestLoggingRoundTripper verifies that the LoggingRoundTripper logs both the request and
// the response (including timing information).
func TestLoggingRoundTripper(t *testing.T) {
	// Buffer to capture log output.
	var logBuffer bytes.Buffer

	// Set up a dummy transport that returns a dummy response.
	drt := &dummyRoundTripper{
		response: &http.Response{
			Status:     "200 OK",
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader("response body")),
		},
	}

	lt := &LoggingRoundTripper{
		Transport: drt,
		Writer:    &logBuffer,
		DumpBody:  true, // include body in the dump
	}

	// Create a basic request.
	req, err := http.NewRequest(http.MethodGet, "http://example.com/abc", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	// RoundTrip through our logging round tripper.
	_, err = lt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	// Check log contents.
	logContent := logBuffer.String()
	if !strings.Contains(logContent, "> GET /abc") {
		t.Errorf("log does not contain request info. Got: %s", logContent)
	}

	if !strings.Contains(logContent, "< RESPONSE: [") {
		t.Errorf("log does not contain response header with timing info. Got: %s", logContent)
	}

	if !strings.Contains(logContent, "response body") {
		t.Errorf("log does not contain response body. Got: %s", logContent)
	}
}

//////////////////////////////////
// Test AppendRequestHeadersRoundTripper

// dummyHeadersRoundTripper is used to verify that the headers are added.
type dummyHeadersRoundTripper struct {
	lastRequest *http.Request
}

func (d *dummyHeadersRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	d.lastRequest = req

	return &http.Response{
		Status:     "200 OK",
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func TestAppendRequestHeadersRoundTripper(t *testing.T) {
	// Create a dummy transport that captures the request.
	dummy := &dummyHeadersRoundTripper{}

	// Wrap it with AppendRequestHeadersRoundTripper.
	headersToAdd := map[string]string{
		"X-Test-Header": "TestValue",
	}
	atr := &AppendRequestHeadersRoundTripper{
		Transport: dummy,
		Headers:   headersToAdd,
	}

	req, err := http.NewRequest(http.MethodPost, "http://example.org", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	// Ensure the header is not originally set.
	if req.Header.Get("X-Test-Header") != "" {
		t.Fatalf("the test header should not be pre-set in the request")
	}

	// Issue the request.
	_, err = atr.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	// Verify that our header was added.
	if dummy.lastRequest == nil {
		t.Fatalf("dummy transport did not receive any request")
	}

	if got := dummy.lastRequest.Header.Get("X-Test-Header"); got != "TestValue" {
		t.Errorf("expected header X-Test-Header to have value 'TestValue', but got '%s'", got)
	}
}

//////////////////////////////////
// Test RetryRoundTripper

// statusSequenceRoundTripper answers with the given statuses, one per call.
type statusSequenceRoundTripper struct {
	statuses []int
	calls    int
}

func (d *statusSequenceRoundTripper) RoundTrip(_ *http.Request) (*http.Response, error) {
	status := d.statuses[min(d.calls, len(d.statuses)-1)]
	d.calls++

	if status == 0 {
		return nil, errors.New("connection reset")
	}

	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func TestRetryRoundTripper(t *testing.T) {
	tests := []struct {
		statuses []int
		retries  int
		expected int
		calls    int
		fail     bool
	}{
		{[]int{http.StatusOK}, 3, http.StatusOK, 1, false},
		{[]int{http.StatusBadGateway, http.StatusOK}, 3, http.StatusOK, 2, false},
		{[]int{0, 0, http.StatusOK}, 3, http.StatusOK, 3, false},
		{[]int{http.StatusServiceUnavailable}, 2, http.StatusServiceUnavailable, 3, false},
		{[]int{http.StatusNotFound}, 3, http.StatusNotFound, 1, false},
		{[]int{0}, 1, 0, 2, true},
	}

	for _, test := range tests {
		drt := &statusSequenceRoundTripper{statuses: test.statuses}
		rt := &RetryRoundTripper{Transport: drt, Retries: test.retries, Backoff: time.Millisecond}

		req, err := http.NewRequest(http.MethodGet, "http://example.com", nil)
		if err != nil {
			t.Fatalf("failed to create request: %v", err)
		}

		resp, err := rt.RoundTrip(req)
		if test.fail {
			if err == nil {
				t.Errorf("%v: expected failure", test.statuses)
			}
		} else if err != nil {
			t.Errorf("%v: unexpected error %v", test.statuses, err)
		} else if resp.StatusCode != test.expected {
			t.Errorf("%v: expected status %d got %d", test.statuses, test.expected, resp.StatusCode)
		}

		if drt.calls != test.calls {
			t.Errorf("%v: expected %d calls got %d", test.statuses, test.calls, drt.calls)
		}
	}
}

func TestRetryRoundTripperStopsOnCancel(t *testing.T) {
	drt := &statusSequenceRoundTripper{statuses: []int{http.StatusBadGateway}}
	rt := &RetryRoundTripper{Transport: drt, Retries: 5, Backoff: time.Hour}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://example.com", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	if _, err := rt.RoundTrip(req); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	if drt.calls != 1 {
		t.Errorf("expected a single call, got %d", drt.calls)
	}
}

//////////////////////////////////
// Test NewClient

func TestNewClient(t *testing.T) {
	var hits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		_, _ = io.WriteString(w, r.Header.Get("User-Agent"))
	}))
	defer server.Close()

	var observed []int

	var trace bytes.Buffer

	client := NewClient(ClientOptions{
		UserAgent:   "podsudnost-test",
		Timeout:     5 * time.Second,
		Retries:     2,
		Backoff:     time.Millisecond,
		TraceWriter: &trace,
		Observe: func(_ *http.Request, status int, _ time.Duration) {
			observed = append(observed, status)
		},
	})

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "podsudnost-test" {
		t.Errorf("expected user agent to be sent, got %q", body)
	}

	if len(observed) != 2 || observed[0] != http.StatusServiceUnavailable || observed[1] != http.StatusOK {
		t.Errorf("unexpected observations %v", observed)
	}

	if !strings.Contains(trace.String(), "> GET /") {
		t.Errorf("trace does not contain the request. Got: %s", trace.String())
	}
}
