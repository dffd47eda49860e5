// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

// Package sudrf talks to the court registry at sudrf.ru: live address
// searches, the regional court catalog and individual court sites.
package sudrf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/podsudnost/podsudnost/metrics"
	"github.com/podsudnost/podsudnost/utils/htmlutils"
	"github.com/podsudnost/podsudnost/utils/httputils"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

// Defaults of the registry client.
const (
	DefaultBaseURL   = "https://sudrf.ru/index.php"
	DefaultRegion    = "61"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// ClientOptions configuration for Client.
type ClientOptions struct {
	// BaseURL of the registry search endpoint
	BaseURL string

	// Region is the registry subject code
	Region string

	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// Timeout of a single request
	Timeout time.Duration

	// RequestsPerSecond throttles every request of the client, 0 disables it
	RequestsPerSecond float64

	// Retries of failed GET requests
	Retries int

	// Enables light tracing of HTTP requests and responses
	EnableHTTPTrace bool

	// Enables full HTTP body tracing
	EnableHTTPBodyTrace bool
}

// Client is a polite scraper of the registry.
type Client struct {
	baseURL string
	region  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new client with the provided options.
func NewClient(options *ClientOptions) *Client {
	if options == nil {
		options = &ClientOptions{}
	}

	var httpLogWriter io.Writer
	if options.EnableHTTPTrace {
		httpLogWriter = os.Stderr
	}

	userAgent := DefaultUserAgent
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}

	timeout := 30 * time.Second
	if options.Timeout > 0 {
		timeout = options.Timeout
	}

	c := &Client{
		baseURL: DefaultBaseURL,
		region:  DefaultRegion,
		client: httputils.NewClient(httputils.ClientOptions{
			UserAgent:   userAgent,
			Timeout:     timeout,
			Retries:     options.Retries,
			TraceWriter: httpLogWriter,
			DumpBody:    options.EnableHTTPBodyTrace,
			Observe:     metrics.ExternalObserver("sudrf"),
		}),
		limiter: rate.NewLimiter(rate.Inf, 1),
	}

	if options.BaseURL != "" {
		c.baseURL = options.BaseURL
	}

	if options.Region != "" {
		c.region = options.Region
	}

	if options.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(options.RequestsPerSecond), 1)
	}

	return c
}

// Region returns the registry subject code the client works on.
func (c *Client) Region() string {
	return c.region
}

// searchURL builds the registry URL for the given query parameters.
func (c *Client) searchURL(params url.Values) string {
	if strings.Contains(c.baseURL, "?") {
		return c.baseURL + "&" + params.Encode()
	}

	return c.baseURL + "?" + params.Encode()
}

// fetch performs the request and parses the response as HTML. A nil form
// means GET.
func (c *Client) fetch(ctx context.Context, target string, form url.Values) (n *html.Node, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	var req *http.Request

	if form == nil {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}

	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing resp.Body: %w", cerr))
		}
	}()

	r, err := htmlutils.AsReader(resp)
	if err != nil {
		return nil, fmt.Errorf("converting response to reader: %w", err)
	}

	n, err = htmlutils.AsNode(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	return n, nil
}
