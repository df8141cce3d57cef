package transport

import (
	"errors"
	"fmt"
)

// Sentinel kinds for transport errors.
var (
	ErrExhausted  = errors.New("retries exhausted")
	ErrDecodeBody = errors.New("decode response body failed")
)

// StatusError reports a terminal non-200 status to callers that treat
// such responses as failures (e.g. the dedup resolver's 4xx path).
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// NewStatusError builds a StatusError from a response, truncating the
// body to keep error strings log-friendly.
func NewStatusError(resp *Response) *StatusError {
	return &StatusError{
		StatusCode: resp.StatusCode,
		Body:       truncate(resp.Body, responseLogLimit),
	}
}

// IsServerError reports whether err is a StatusError in the 5xx range.
func IsServerError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode >= 500
}
