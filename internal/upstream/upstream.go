// Package upstream wraps the third-party weather and geocoding APIs.
package upstream

import (
	"errors"
	"time"
)

var (
	// ErrNotConfigured means the client lacks credentials to call its API.
	ErrNotConfigured = errors.New("upstream not configured")
	// ErrNotFound means the upstream API knows nothing about the request.
	ErrNotFound = errors.New("upstream: not found")
	// ErrUnavailable covers transport failures and unexpected upstream responses.
	ErrUnavailable = errors.New("upstream unavailable")
)

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
