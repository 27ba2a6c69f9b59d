package ethcall

import "errors"

// ErrStateOverrideUnsupported is returned when a call requests code
// injection on a chain whose nodes reject eth_call state overrides
var ErrStateOverrideUnsupported = errors.New("state override is not supported on this chain")

// EncodeError reports a failure to encode call arguments
type EncodeError struct {
	Func  string
	cause error
}

// NewEncodeError wraps cause as an encode failure for fn
func NewEncodeError(fn string, cause error) *EncodeError {
	return &EncodeError{Func: fn, cause: cause}
}

// Error implements the error interface
func (e *EncodeError) Error() string {
	return "encode " + e.Func + ": " + e.cause.Error()
}

// Unwrap returns the underlying cause
func (e *EncodeError) Unwrap() error {
	return e.cause
}

// DecodeError reports a failure to decode returned bytes
type DecodeError struct {
	Func  string
	cause error
}

// NewDecodeError wraps cause as a decode failure for fn
func NewDecodeError(fn string, cause error) *DecodeError {
	return &DecodeError{Func: fn, cause: cause}
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	return "decode " + e.Func + ": " + e.cause.Error()
}

// Unwrap returns the underlying cause
func (e *DecodeError) Unwrap() error {
	return e.cause
}
