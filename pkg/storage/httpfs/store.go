// Copyright © 2018 One Concern

// Package httpfs implements a read-only Store over plain HTTP GET requests.
//
// A key is resolved against a base URL: key "ds/v1/data.json" on base "http://host/repo"
// is fetched from "http://host/repo/ds/v1/data.json".
package httpfs

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oneconcern/autodataman/pkg/errors"
	"github.com/oneconcern/autodataman/pkg/storage"
	"github.com/oneconcern/autodataman/pkg/storage/status"
)

// Option configures the HTTP store
type Option func(*httpFS)

// WithClient sets the HTTP client used by the store
func WithClient(client *http.Client) Option {
	return func(h *httpFS) {
		if client != nil {
			h.client = client
		}
	}
}

// WithTimeout sets a timeout on requests issued by the default client.
// A zero value keeps the transport default.
func WithTimeout(timeout time.Duration) Option {
	return func(h *httpFS) {
		h.timeout = timeout
	}
}

// New creates a read-only HTTP store for some base URL
func New(baseURL string, opts ...Option) (storage.Store, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, status.ErrInvalidKey.Wrap(err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, status.ErrInvalidKey.Wrapf("unsupported scheme in server url %q", baseURL)
	}
	h := &httpFS{
		base:   strings.TrimRight(baseURL, "/"),
		client: http.DefaultClient,
	}
	for _, apply := range opts {
		apply(h)
	}
	if h.timeout > 0 && h.client == http.DefaultClient {
		h.client = &http.Client{Timeout: h.timeout}
	}
	return h, nil
}

type httpFS struct {
	base    string
	client  *http.Client
	timeout time.Duration
}

// URL yields the full URL for a key
func (h *httpFS) URL(key string) string {
	return h.base + "/" + strings.TrimLeft(key, "/")
}

func (h *httpFS) do(ctx context.Context, method, key string) (*http.Response, error) {
	target := h.URL(key)
	req, err := http.NewRequest(method, target, nil)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}
	req = req.WithContext(ctx)

	// redirects are followed by the default http client policy
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(ioutil.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, &FetchError{URL: target, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

func (h *httpFS) Has(ctx context.Context, key string) (bool, error) {
	resp, err := h.do(ctx, http.MethodHead, key)
	if err != nil {
		if errors.Is(err, status.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	_ = resp.Body.Close()
	return true, nil
}

// Get streams the body of the object. The caller must close the returned reader.
func (h *httpFS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := h.do(ctx, http.MethodGet, key)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (h *httpFS) Put(context.Context, string, io.Reader) error {
	return status.ErrForbidden.Wrapf("remote store %s is read-only", h.base)
}

func (h *httpFS) Delete(context.Context, string) error {
	return status.ErrForbidden.Wrapf("remote store %s is read-only", h.base)
}

func (h *httpFS) String() string {
	return "httpfs@" + h.base
}

// FetchError describes a failed request: the attempted URL, and either the
// non-success status code returned by the server or the transport error.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request for %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("status code %d in request for %s", e.StatusCode, e.URL)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is maps HTTP statuses onto storage sentinel errors
func (e *FetchError) Is(target error) bool {
	switch target {
	case status.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case status.ErrForbidden:
		return e.StatusCode == http.StatusForbidden || e.StatusCode == http.StatusUnauthorized
	case status.ErrStorageAPI:
		return e.StatusCode != 0
	default:
		return false
	}
}
