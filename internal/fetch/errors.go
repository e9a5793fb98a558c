package fetch

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a fetch failure. The caller's policy differs per
// kind: network errors are retryable, not-found is an expected signal
// while probing gameweeks, and parse errors are permanent for that
// payload.
type Kind string

const (
	KindNetwork  Kind = "network"
	KindNotFound Kind = "not_found"
	KindParse    Kind = "parse"
)

// Error is a classified fetch failure.
type Error struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NetworkErr wraps a transient transport or server-side failure.
func NetworkErr(url string, err error) *Error {
	return &Error{Kind: KindNetwork, URL: url, Err: err}
}

// NotFoundErr marks a missing remote resource.
func NotFoundErr(url string) *Error {
	return &Error{Kind: KindNotFound, URL: url, Err: errors.New("resource not found")}
}

// ParseErr wraps a malformed-payload failure.
func ParseErr(url string, err error) *Error {
	return &Error{Kind: KindParse, URL: url, Err: err}
}

func kindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

// IsNotFound reports whether err is a not-found fetch error.
func IsNotFound(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindNotFound
}

// IsTransient reports whether err is worth retrying. Unclassified
// errors are treated as transient, matching the retry helper's
// any-error-is-retryable default.
func IsTransient(err error) bool {
	k, ok := kindOf(err)
	if !ok {
		return true
	}
	return k == KindNetwork
}
