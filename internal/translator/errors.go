package translator

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest marks bad input. Never retried.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrRequestTooLarge marks text over the configured character limit.
	ErrRequestTooLarge = errors.New("request text too large")
	// ErrDetectionFailed marks an unresolved source language.
	ErrDetectionFailed = errors.New("source language detection failed")
	// ErrProviderUnavailable marks connection or upstream failures.
	ErrProviderUnavailable = errors.New("translation provider unavailable")
	// ErrProviderTimeout marks a provider call that exceeded its deadline.
	ErrProviderTimeout = errors.New("translation provider timed out")
	// ErrProviderAuth marks rejected provider credentials.
	ErrProviderAuth = errors.New("translation provider authentication failed")
	// ErrUnparsableOutput marks provider output that survived the repair loop
	// without ever matching the required schema.
	ErrUnparsableOutput = errors.New("unparsable provider output")
	// ErrEmptyResult marks schema-valid output with no usable content.
	ErrEmptyResult = errors.New("provider returned an empty result")
)

// UnparsableOutputError carries the last raw provider output for diagnostics.
type UnparsableOutputError struct {
	Attempts  int
	RawOutput string
	Reason    error
}

func (e *UnparsableOutputError) Error() string {
	return fmt.Sprintf("unparsable provider output after %d attempts: %v", e.Attempts, e.Reason)
}

func (e *UnparsableOutputError) Unwrap() error {
	return ErrUnparsableOutput
}
