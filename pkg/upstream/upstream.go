// Package upstream holds what the external-source clients share: error
// kinds, the HTTP client and the user agent.
package upstream

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error kinds. A miss is a well-formed response without usable data.
var (
	ErrUnreachable = errors.New("upstream unreachable")
	ErrMiss        = errors.New("upstream has no data")
)

// DefaultTimeout bounds every outbound call
const DefaultTimeout = 30 * time.Second

// Error wraps an error kind with the source and target it came from
type Error struct {
	Source string
	Target string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("source=%s target=%s: %v", e.Source, e.Target, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Unreachable builds an Error for a transport failure or a non-2xx status
func Unreachable(source, target string, cause error) error {
	return &Error{
		Source: source,
		Target: target,
		Err:    fmt.Errorf("%w: %v", ErrUnreachable, cause),
	}
}

// Miss builds an Error for a response that carried no usable data
func Miss(source, target, reason string) error {
	return &Error{
		Source: source,
		Target: target,
		Err:    fmt.Errorf("%w: %s", ErrMiss, reason),
	}
}

// SharedHTTPClient returns an HTTP client with pooled connections
func SharedHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// UserAgent identifies this service to external APIs
func UserAgent() string {
	return "atlaswatch/1.0"
}
