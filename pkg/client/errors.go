package client

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindInvalidPayload
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidPayload:
		return "invalid_payload"
	default:
		return "transport"
	}
}

// ErrNotFound matches a LookupError of kind KindNotFound via errors.Is.
var ErrNotFound = errors.New("city not found")

// LookupError is returned by the provider clients. Transport covers network
// failures, non-2xx statuses and an open circuit breaker; InvalidPayload
// covers bodies that cannot be decoded or are inconsistent.
type LookupError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *LookupError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

func (e *LookupError) Is(target error) bool {
	return target == ErrNotFound && e.Kind == KindNotFound
}

func transportError(op string, err error) *LookupError {
	return &LookupError{Kind: KindTransport, Op: op, Err: err}
}

func payloadError(op string, err error) *LookupError {
	return &LookupError{Kind: KindInvalidPayload, Op: op, Err: err}
}

// StatusError reports a non-2xx provider response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}
