package upstream

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"multigofer/internal/jsonrpc"
)

// ErrKind classifies a transport or node failure
type ErrKind int

const (
	KindOther ErrKind = iota
	KindTooLarge
	KindTimeout
	KindConnReset
	KindOutOfGas
	KindOutOfResources
	KindServerError
)

// String returns a human-readable kind name
func (k ErrKind) String() string {
	switch k {
	case KindTooLarge:
		return "too-large"
	case KindTimeout:
		return "timeout"
	case KindConnReset:
		return "conn-reset"
	case KindOutOfGas:
		return "out-of-gas"
	case KindOutOfResources:
		return "out-of-resources"
	case KindServerError:
		return "server-error"
	default:
		return "other"
	}
}

// Error is a typed transport error produced by an endpoint.
// Kind carries the failure class so callers can branch without
// re-parsing the message.
type Error struct {
	Kind     ErrKind
	Endpoint string
	Message  string
	cause    error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Endpoint != "" {
		return e.Endpoint + ": " + e.Message
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.cause
}

// NewError creates a typed transport error
func NewError(kind ErrKind, endpoint, message string, cause error) *Error {
	return &Error{Kind: kind, Endpoint: endpoint, Message: message, cause: cause}
}

// KindOf extracts the error kind, if err carries one
func KindOf(err error) (ErrKind, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return KindOther, false
}

// messageKinds maps node/proxy error message markers to kinds.
// Order matters: more specific markers first.
var messageKinds = []struct {
	marker string
	kind   ErrKind
}{
	{"request entity too large", KindTooLarge},
	{"payload too large", KindTooLarge},
	{"time-out", KindTimeout},
	{"timeout", KindTimeout},
	{"timed out", KindTimeout},
	{"broken pipe", KindConnReset},
	{"connection reset by peer", KindConnReset},
	{"out of gas", KindOutOfGas},
	{"out of memory", KindOutOfResources},
	{"server error", KindServerError},
}

// ClassifyMessage maps an error message to a kind by marker inspection
func ClassifyMessage(msg string) ErrKind {
	lower := strings.ToLower(msg)
	for _, mk := range messageKinds {
		if strings.Contains(lower, mk.marker) {
			return mk.kind
		}
	}
	return KindOther
}

// classifyHTTPStatus maps an HTTP status code to a kind
func classifyHTTPStatus(code int) ErrKind {
	switch {
	case code == http.StatusRequestEntityTooLarge:
		return KindTooLarge
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return KindTimeout
	case code >= 500:
		return KindServerError
	default:
		return KindOther
	}
}

// wrapTransportErr converts a raw network error into a typed Error
func wrapTransportErr(endpoint string, err error) *Error {
	kind := KindOther
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	default:
		kind = ClassifyMessage(err.Error())
	}
	return NewError(kind, endpoint, err.Error(), err)
}

// FromRPCError converts a JSON-RPC error payload returned by the node
// into a typed Error. Server-range codes that don't carry a more
// specific message marker map to KindServerError.
func FromRPCError(endpoint string, rpcErr *jsonrpc.Error) *Error {
	kind := ClassifyMessage(rpcErr.Message)
	if kind == KindOther && rpcErr.IsServerError() {
		kind = KindServerError
	}
	return NewError(kind, endpoint, rpcErr.Message, rpcErr)
}
