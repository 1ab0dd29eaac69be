package testutil

import (
	"bytes"
	"os"
	"testing"

	"adastore/blockhash"
	"adastore/store"
)

func TestSandboxReadWrite(t *testing.T) {
	sb, err := NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	data := []byte("hello world")
	if err := sb.WriteFile("file.txt", data, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	got, err := sb.ReadFile("file.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("data mismatch: got %q want %q", got, data)
	}
}

func TestSandboxCleanup(t *testing.T) {
	sb, err := NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	path := sb.Path("temp")
	if err := sb.WriteFile("temp", []byte("x"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := sb.Cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected sandbox to be removed")
	}
}

func TestSandboxOpenStorageRoundTrip(t *testing.T) {
	sb, err := NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	s, err := sb.OpenStorage(store.Config{BloomTargetFP: 0.01})
	if err != nil {
		t.Fatalf("OpenStorage failed: %v", err)
	}
	var h blockhash.Hash
	h[0] = 0x42
	if err := s.Put(h, []byte("sandboxed")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := s.Get(h)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "sandboxed" {
		t.Fatalf("got %q", got)
	}
}
