package rlwe

import "errors"

// The error kinds returned by this package and the packages built on it.
// Use [errors.Is] to test for a kind: returned errors wrap them with context.
var (
	// ErrConfiguration is returned for invalid parameters, unsupported random
	// engines or digests, and keys that do not match the parameters.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrState is returned when an operation is invoked on an object that is not
	// initialized for it, or with a key of the wrong type.
	ErrState = errors.New("invalid state")

	// ErrInputSize is returned when an input is larger than the operation allows
	// or when an offset/length pair falls outside of its buffer.
	ErrInputSize = errors.New("invalid input size")

	// ErrFormat is returned when a serialized object is truncated or malformed.
	ErrFormat = errors.New("invalid format")
)
