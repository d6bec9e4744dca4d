// Copyright (c) 2024. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(Options{
		BaseURL:   url + "/range/",
		UserAgent: "pass-audit/test",
		Timeout:   2 * time.Second,
		RetryMax:  0,
	})
}

func TestClient_FetchRange(t *testing.T) {
	var requested atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested.Store(r.URL.Path)
		assert.Equal(t, "pass-audit/test", r.Header.Get("User-Agent"))
		assert.Empty(t, r.Header.Get("Add-Padding"))
		w.Header().Set("CF-Cache-Status", "HIT")
		_, _ = w.Write([]byte(rangeBody21BD1))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	bucket, err := client.FetchRange(context.Background(), "21BD1")
	require.NoError(t, err)

	assert.Equal(t, "/range/21BD1", requested.Load())
	assert.Equal(t, 11, bucket.Len())
	assert.Equal(t, len(bucket.Hashes), len(bucket.Counts))

	count, ok := bucket.Lookup("21BD12DC183F740EE76F27B78EB39C8AD972A757")
	assert.True(t, ok)
	assert.EqualValues(t, 52579, count)

	stats := client.Stats()
	assert.EqualValues(t, 1, stats.Requests)
	assert.EqualValues(t, 1, stats.CloudflareHits)
	assert.EqualValues(t, 11, stats.HashesReceived)
}

func TestClient_FetchRange_Padding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.Header.Get("Add-Padding"))
		_, _ = w.Write([]byte(rangeBody21BD1 + "\r\nFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF:0"))
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL + "/range", UserAgent: "pass-audit/test", Timeout: time.Second, Padding: true})
	bucket, err := client.FetchRange(context.Background(), "21BD1")
	require.NoError(t, err)
	assert.Equal(t, 11, bucket.Len())
}

func TestClient_FetchRange_InvalidPrefix(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	for _, prefix := range []string{"", "21bd1", "21BD12", "../x"} {
		_, err := client.FetchRange(context.Background(), prefix)
		assert.True(t, errors.Is(err, ErrInvalidPrefix), "prefix %q", prefix)
	}
	assert.EqualValues(t, 0, atomic.LoadInt32(&calls), "invalid prefixes must never reach the network")
}

func TestClient_FetchRange_Failures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		status  int
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			status: http.StatusNotFound,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>not a range</html>"))
			},
			status: http.StatusOK,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			client := newTestClient(srv.URL)
			bucket, err := client.FetchRange(context.Background(), "21BD1")
			assert.Nil(t, bucket)

			var netErr *NetworkError
			require.True(t, errors.As(err, &netErr), "expected a NetworkError, got %v", err)
			assert.Equal(t, "21BD1", netErr.Prefix)
			if tc.status != 0 {
				assert.Equal(t, tc.status, netErr.StatusCode)
			}
			assert.EqualValues(t, 1, client.Stats().Failures)
		})
	}
}

func TestClient_FetchRange_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(rangeBody21BD1))
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL + "/range/", Timeout: 50 * time.Millisecond})
	_, err := client.FetchRange(context.Background(), "21BD1")

	var netErr *NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestClient_FetchRange_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := newTestClient(url)
	_, err := client.FetchRange(context.Background(), "21BD1")

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Zero(t, netErr.StatusCode)
	assert.True(t, strings.Contains(err.Error(), "21BD1"))
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Options{})
	assert.Equal(t, DefaultRangeURL, client.baseURL)

	client = NewClient(Options{BaseURL: "https://example.com/range"})
	assert.Equal(t, "https://example.com/range/", client.baseURL)
}

func TestNewClient_DefaultUserAgent(t *testing.T) {
	var agents []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents = append(agents, r.Header.Values("User-Agent")...)
		_, _ = w.Write([]byte(rangeBody21BD1))
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL, Timeout: 2 * time.Second})
	_, err := client.FetchRange(context.Background(), "21BD1")
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultUserAgent}, agents)
}
