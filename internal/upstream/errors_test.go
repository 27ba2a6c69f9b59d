package upstream

import (
	"errors"
	"fmt"
	"testing"

	"multigofer/internal/jsonrpc"
)

func TestClassifyMessage(t *testing.T) {
	tests := []struct {
		msg  string
		want ErrKind
	}{
		{"413 Request Entity Too Large", KindTooLarge},
		{"Payload Too Large", KindTooLarge},
		{"upstream request time-out", KindTimeout},
		{"context deadline exceeded (timeout)", KindTimeout},
		{"i/o timed out", KindTimeout},
		{"write tcp: broken pipe", KindConnReset},
		{"read tcp: connection reset by peer", KindConnReset},
		{"gas required exceeds allowance (out of gas)", KindOutOfGas},
		{"evm: out of memory", KindOutOfResources},
		{"Server error", KindServerError},
		{"execution reverted", KindOther},
		{"", KindOther},
	}

	for _, tt := range tests {
		if got := ClassifyMessage(tt.msg); got != tt.want {
			t.Errorf("ClassifyMessage(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	err := NewError(KindTooLarge, "node", "too big", nil)

	kind, ok := KindOf(err)
	if !ok || kind != KindTooLarge {
		t.Errorf("KindOf = %v/%v, want KindTooLarge/true", kind, ok)
	}

	// Typed errors survive wrapping
	wrapped := fmt.Errorf("dispatch failed: %w", err)
	kind, ok = KindOf(wrapped)
	if !ok || kind != KindTooLarge {
		t.Errorf("KindOf(wrapped) = %v/%v, want KindTooLarge/true", kind, ok)
	}

	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("KindOf(plain) reported a kind")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewError(KindTimeout, "node", "timed out", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find the cause")
	}
	if err.Error() != "node: timed out" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestClassifyHTTPStatus(t *testing.T) {
	tests := []struct {
		code int
		want ErrKind
	}{
		{413, KindTooLarge},
		{408, KindTimeout},
		{504, KindTimeout},
		{500, KindServerError},
		{503, KindServerError},
		{404, KindOther},
		{200, KindOther},
	}

	for _, tt := range tests {
		if got := classifyHTTPStatus(tt.code); got != tt.want {
			t.Errorf("classifyHTTPStatus(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestFromRPCError(t *testing.T) {
	err := FromRPCError("node", jsonrpc.NewError(-32000, "out of gas"))
	if err.Kind != KindOutOfGas {
		t.Errorf("Kind = %v, want KindOutOfGas", err.Kind)
	}

	// Server-range codes without a message marker map to server error
	err = FromRPCError("node", jsonrpc.NewError(-32005, "limit exceeded"))
	if err.Kind != KindServerError {
		t.Errorf("Kind = %v, want KindServerError", err.Kind)
	}

	// Non-server codes with no marker stay unclassified
	err = FromRPCError("node", jsonrpc.NewError(-32602, "invalid params"))
	if err.Kind != KindOther {
		t.Errorf("Kind = %v, want KindOther", err.Kind)
	}
}
