package domain

import (
	"net/url"
	"strings"
)

// SessionState is the lifecycle state of a stream session.
type SessionState int

const (
	SessionIdle       SessionState = iota // No stream started yet
	SessionActive                         // Connection open, consuming messages
	SessionTerminated                     // Finished, failed or cancelled
)

// String returns the string representation of the state.
func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionActive:
		return "active"
	case SessionTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// SignalKind tells the session controller what to do after a message.
type SignalKind int

const (
	SignalContinue SignalKind = iota // Keep consuming
	SignalFinish                     // Stream ended normally
	SignalFail                       // Stream ended with a producer error
)

// String returns the string representation of the signal kind.
func (k SignalKind) String() string {
	switch k {
	case SignalContinue:
		return "continue"
	case SignalFinish:
		return "finish"
	case SignalFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Signal is emitted by Reconcile alongside the next collection.
type Signal struct {
	Detail string // Producer error detail (SignalFail only)
	Kind   SignalKind
}

// StreamURL appends the percent-encoded prompt to the endpoint as the only
// query parameter the producer reads.
func StreamURL(endpoint, prompt string) (string, error) {
	if endpoint == "" {
		return "", ErrNoEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Del("prompt")
	query := q.Encode()
	if query != "" {
		query += "&"
	}
	// spaces are sent as %20, not +
	u.RawQuery = query + "prompt=" + strings.ReplaceAll(url.QueryEscape(prompt), "+", "%20")
	return u.String(), nil
}
