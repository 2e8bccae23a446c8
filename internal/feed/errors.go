package feed

import (
	"errors"
	"fmt"
)

// Kind classifies a fetch failure.
type Kind int

const (
	KindNetwork Kind = iota
	KindTimeout
	KindRateLimited
	KindBadResponse
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindRateLimited:
		return "rate_limited"
	case KindBadResponse:
		return "bad_response"
	}
	return "unknown"
}

// Error is a typed per-feed fetch failure. Retryability is a property of the
// kind, not of the message.
type Error struct {
	Kind Kind
	Feed string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("feed %s: %s: %v", e.Feed, e.Kind, e.Err)
	}
	return fmt.Sprintf("feed %s: %s", e.Feed, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether another attempt can help. Rate limiting is the
// one hard stop: the remote source owns backoff in that case.
func (e *Error) Retryable() bool {
	return e.Kind != KindRateLimited
}

// KindOf extracts the failure kind from err, or KindNetwork if err is not a
// feed error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindNetwork
}
