package fetcher

import (
	"errors"
	"fmt"
)

// Kind classifies why a request failed.
type Kind string

const (
	// KindNetwork covers transport failures and timeouts; no response arrived.
	KindNetwork Kind = "network"
	// KindHTTPStatus means the server answered with an unexpected status.
	KindHTTPStatus Kind = "http_status"
	// KindDecode means the body could not be decoded or failed validation.
	KindDecode Kind = "decode"
)

// FetchError is returned for every failed request.
type FetchError struct {
	Kind    Kind
	Status  int
	Message string
	Method  string
	Path    string
	Err     error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		if e.Message != "" {
			return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
		}
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	case KindDecode:
		return fmt.Sprintf("%s %s: decode response: %v", e.Method, e.Path, e.Err)
	default:
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first FetchError in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

// IsStatus reports whether err is an http_status error with the given code.
func IsStatus(err error, code int) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == KindHTTPStatus && fe.Status == code
}

// MessageOf returns the server-provided message carried by err, if any.
func MessageOf(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Message
	}
	return ""
}
