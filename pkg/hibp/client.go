// Copyright (c) 2024. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"crypto/tls"
	"errors"
	"fmt"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const DefaultRangeURL = "https://api.pwnedpasswords.com/range/"

// DefaultUserAgent is sent when Options.UserAgent is empty. The range API
// refuses requests without a User-Agent.
const DefaultUserAgent = "pass-audit"

// ErrInvalidPrefix is returned for prefixes that are not 5 uppercase hex characters.
var ErrInvalidPrefix = errors.New("invalid hash prefix")

// NetworkError is any failure to obtain a complete bucket from the range API:
// transport errors, timeouts, non 2xx statuses and unreadable bodies. A bucket
// is either complete or not returned at all.
type NetworkError struct {
	Prefix     string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("range %s: status %d: %s", e.Prefix, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("range %s: %s", e.Prefix, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

type Options struct {
	// BaseURL is the range endpoint, the prefix is appended to it.
	BaseURL   string
	UserAgent string
	// Timeout applies to every single request, retries included.
	Timeout  time.Duration
	RetryMax int
	// Padding asks the API to pad responses with fake zero count records.
	Padding bool
	Logger  *zerolog.Logger
}

// Client queries the Pwned Passwords range API using the k-anonymity model.
type Client struct {
	baseURL   string
	userAgent string
	padding   bool
	http      *retryablehttp.Client
	stat      *status
	logger    zerolog.Logger
}

func NewClient(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultRangeURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		padding:   opts.Padding,
		http:      initHttpClient(opts.Timeout, opts.RetryMax),
		stat:      newStatus(),
		logger:    logger,
	}
}

func initHttpClient(timeout time.Duration, retryMax int) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	// Failures are reported by FetchRange, the retry chatter is not useful.
	client.Logger = nil
	client.RetryMax = retryMax
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second

	client.HTTPClient = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       10 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ForceAttemptHTTP2:     true,
		},
	}

	return client
}

func (c *Client) rangeHttpRequest(ctx context.Context, prefix string) (*retryablehttp.Request, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+prefix, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	if c.padding {
		req.Header.Set("Add-Padding", "true")
	}
	return req, nil
}

// FetchRange downloads the bucket of every breached hash starting with prefix.
// Only the prefix is sent to the server.
func (c *Client) FetchRange(ctx context.Context, prefix string) (*Bucket, error) {
	if !ValidPrefix(prefix) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}

	timer := time.Now()
	req, err := c.rangeHttpRequest(ctx, prefix)
	if err != nil {
		return nil, &NetworkError{Prefix: prefix, Err: err}
	}

	c.logger.Trace().Str("prefix", prefix).Msg("requesting range")
	res, err := c.http.Do(req)
	if err != nil {
		c.stat.RequestFailed()
		return nil, &NetworkError{Prefix: prefix, Err: err}
	}

	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Warn().Err(err).Msgf("error closing body for range %s", prefix)
		}
	}(res.Body)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		c.stat.RequestFailed()
		return nil, &NetworkError{
			Prefix:     prefix,
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("request failed with status %s", res.Status),
		}
	}

	bucket, err := ParseRange(prefix, res.Body, c.padding)
	if err != nil {
		c.stat.RequestFailed()
		return nil, &NetworkError{Prefix: prefix, StatusCode: res.StatusCode, Err: err}
	}

	c.stat.RequestComplete(res, time.Since(timer).Milliseconds(), bucket.Len())
	c.logger.Trace().Str("prefix", prefix).Int("hashes", bucket.Len()).Msg("range received")
	return bucket, nil
}

// Stats is a snapshot of the requests made by the client so far.
func (c *Client) Stats() Stats {
	return c.stat.Snapshot()
}

// LogStats writes the request statistics at debug level.
func (c *Client) LogStats() {
	c.stat.Log(c.logger)
}
