package transport

import (
	"net/http"
	"strconv"
	"time"
)

// Retry reasons, used for logging and metrics labels.
const (
	ReasonNetwork   = "network"
	ReasonAccepted  = "accepted"
	ReasonThrottled = "throttled"
	ReasonServer    = "server_error"
)

// Policy is the retry policy shared by all outbound calls. It is a
// pure value: Decide never sleeps and never touches the network, so it
// can be tested in isolation.
type Policy struct {
	// MaxAttempts bounds the total number of request attempts.
	MaxAttempts int

	// AcceptedDelay is the fixed wait after a 202 "analysis in progress".
	AcceptedDelay time.Duration

	// NetworkCap, ServerCap and ThrottleCap bound the exponential
	// backoff for the respective failure classes.
	NetworkCap  time.Duration
	ServerCap   time.Duration
	ThrottleCap time.Duration
}

// DefaultPolicy returns the policy the synchronization pipeline runs with.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   5,
		AcceptedDelay: 5 * time.Second,
		NetworkCap:    30 * time.Second,
		ServerCap:     30 * time.Second,
		ThrottleCap:   60 * time.Second,
	}
}

// Decision is the outcome of classifying one attempt.
type Decision struct {
	// Retry reports whether another attempt should be made.
	Retry bool

	// Wait is how long to sleep before the next attempt.
	Wait time.Duration

	// Reason labels the retry class for logs and metrics.
	Reason string
}

// DecideError classifies a transport-level (connection) failure.
func (p Policy) DecideError(attempt int) Decision {
	return Decision{
		Retry:  attempt+1 < p.MaxAttempts,
		Wait:   backoff(attempt, p.NetworkCap),
		Reason: ReasonNetwork,
	}
}

// DecideStatus classifies an HTTP response. retryAfter is the raw
// Retry-After header value, consulted only for 429.
func (p Policy) DecideStatus(attempt, status int, retryAfter string) Decision {
	more := attempt+1 < p.MaxAttempts

	switch {
	case status == http.StatusAccepted:
		// Analysis still running on the vendor side.
		return Decision{Retry: more, Wait: p.AcceptedDelay, Reason: ReasonAccepted}
	case status == http.StatusTooManyRequests:
		return Decision{Retry: more, Wait: p.throttleWait(attempt, retryAfter), Reason: ReasonThrottled}
	case status >= 500:
		return Decision{Retry: more, Wait: backoff(attempt, p.ServerCap), Reason: ReasonServer}
	default:
		// Success, or a non-retryable 4xx the caller must handle.
		return Decision{}
	}
}

// throttleWait honors a parseable positive-integer Retry-After header,
// falling back to exponential backoff capped at ThrottleCap.
func (p Policy) throttleWait(attempt int, retryAfter string) time.Duration {
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return backoff(attempt, p.ThrottleCap)
}

// backoff returns 2^attempt seconds capped at max.
func backoff(attempt int, max time.Duration) time.Duration {
	d := time.Second
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}
