package scripts

import (
	"errors"
	"fmt"
)

// FailureKind classifies a fetch failure.
type FailureKind string

const (
	KindTimeout   FailureKind = "timeout"
	KindNotFound  FailureKind = "not_found"
	KindTransport FailureKind = "transport"
)

// FetchError is returned by Fetcher.Fetch for every failure.
type FetchError struct {
	Kind   FailureKind
	Path   string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("fetch %s: timed out", e.Path)
	case KindNotFound:
		return fmt.Sprintf("fetch %s: not found", e.Path)
	}
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.Path, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.Path, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func isKind(err error, k FailureKind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == k
}

// IsTimeout reports whether err is a fetch that exceeded its deadline.
func IsTimeout(err error) bool { return isKind(err, KindTimeout) }

// IsNotFound reports whether err is a fetch of a missing script.
func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

// IsTransport reports whether err is any other fetch failure.
func IsTransport(err error) bool { return isKind(err, KindTransport) }
