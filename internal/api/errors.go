package api

import (
	"errors"
	"fmt"
)

// ErrEmptyFeed is reported when the feed answered successfully but carried
// no entries.
var ErrEmptyFeed = errors.New("Waiting for data...")

// NetworkError is a failed fetch: either a non-2xx status or a transport
// failure (including timeouts and undecodable bodies).
type NetworkError struct {
	StatusCode int // 0 for transport failures
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Network Error: %d", e.StatusCode)
	}
	if e.Err == nil {
		return "Network Error"
	}
	return fmt.Sprintf("Network Error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is or wraps a *NetworkError.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
