package store

import (
	"errors"
	"strings"
	"testing"

	"adastore/blockhash"
)

func TestErrorIsMatchesByKind(t *testing.T) {
	var h blockhash.Hash
	h[0] = 1
	err := errBlockNotFound(h)

	if !errors.Is(err, &Error{Kind: KindBlockNotFound}) {
		t.Fatalf("expected errors.Is to match by Kind")
	}
	if errors.Is(err, &Error{Kind: KindCorruption}) {
		t.Fatalf("did not expect match against a different Kind")
	}
}

func TestKindOf(t *testing.T) {
	err := errCorruption("index out of order")
	kind, ok := KindOf(err)
	if !ok || kind != KindCorruption {
		t.Fatalf("expected KindCorruption, got %v ok=%v", kind, ok)
	}

	if _, ok := KindOf(errors.New("plain error")); ok {
		t.Fatalf("expected KindOf to fail for a non-store error")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := errIO(cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected Unwrap chain to expose cause")
	}
}

func TestErrorMessageIncludesHash(t *testing.T) {
	var h blockhash.Hash
	h[0] = 0xAB
	err := errBlockNotFound(h)
	msg := err.Error()
	if msg == "" {
		t.Fatalf("expected non-empty error message")
	}
	if !strings.Contains(msg, h.String()) {
		t.Fatalf("expected error message %q to contain hash %s", msg, h)
	}
}
