package common

import (
	"errors"
	"fmt"
)

// ErrTransient and ErrPermanent classify provider failures. Nothing retries
// on them; the class is reported alongside the failure.
var (
	ErrTransient = errors.New("transient error")
	ErrPermanent = errors.New("permanent error")
)

// DefaultRawBodyLimit caps how many characters of a provider body are logged.
const DefaultRawBodyLimit = 1024

type classifiedError struct {
	class error
	cause error
}

func (e *classifiedError) Error() string {
	return fmt.Sprintf("%v: %v", e.class, e.cause)
}

func (e *classifiedError) Unwrap() []error {
	return []error{e.class, e.cause}
}

// WrapTransient annotates an error so callers can detect transient failures.
func WrapTransient(err error) error {
	if err == nil {
		return ErrTransient
	}
	return &classifiedError{class: ErrTransient, cause: err}
}

// WrapPermanent annotates an error as permanent.
func WrapPermanent(err error) error {
	if err == nil {
		return ErrPermanent
	}
	return &classifiedError{class: ErrPermanent, cause: err}
}

// Cause returns the error that was classified, or err itself when it was
// never wrapped.
func Cause(err error) error {
	var ce *classifiedError
	if errors.As(err, &ce) {
		return ce.cause
	}
	return err
}

// Class names the classification of err: "permanent", "transient" or
// "unknown".
func Class(err error) string {
	switch {
	case errors.Is(err, ErrPermanent):
		return "permanent"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "unknown"
	}
}

// TruncateRaw trims raw to limit runes. A non-positive limit yields "".
func TruncateRaw(raw string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(raw)
	if len(runes) <= limit {
		return raw
	}
	return string(runes[:limit])
}
