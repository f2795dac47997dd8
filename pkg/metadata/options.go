// Copyright © 2018 One Concern

package metadata

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Option for a metadata loader
type Option func(*Loader)

// WithHTTPClient sets the client used to talk to a server
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		l.client = client
	}
}

// WithTimeout sets a timeout on requests to a server
func WithTimeout(timeout time.Duration) Option {
	return func(l *Loader) {
		l.timeout = timeout
	}
}

// WithLogger sets a logger
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.l = logger
		}
	}
}

// WithLegacyFallback toggles the retry on ".txt" documents when a descriptor is not found
func WithLegacyFallback(enabled bool) Option {
	return func(l *Loader) {
		l.fallback = enabled
	}
}
