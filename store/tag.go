package store

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"adastore/atomicfile"
	"adastore/blockhash"
)

// Reserved tag names (spec.md §4.8).
const (
	HeadTag         = "HEAD"
	OldestBlockTag  = "OLDEST_BLOCK"
	epochTagPattern = "EPOCH_%d"
)

// EpochTag returns the reserved tag name for epoch n's pack.
func EpochTag(n uint32) string {
	return fmt.Sprintf(epochTagPattern, n)
}

func tagPath(root, name string) string {
	return filepath.Join(root, "tag", name)
}

// writeTag durably writes name -> hash as lowercase hex followed by a
// newline, via tmpfile+rename (spec.md §4.8).
func writeTag(root, name string, h blockhash.Hash) error {
	dir := filepath.Join(root, "tag")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errIO(err)
	}
	content := []byte(h.String() + "\n")
	if err := atomicfile.WriteFile(dir, tagPath(root, name), content); err != nil {
		return errIO(err)
	}
	return nil
}

// readTagBytes returns the raw hash bytes stored under name, or
// (nil, false, nil) if the tag does not exist. It tries UTF-8 hex first
// (the normal write_tag format) and falls back to treating the file's raw
// bytes as the hash directly, for backward compatibility with tags
// written by other tooling (spec.md §4.8).
func readTagBytes(root, name string) ([]byte, bool, error) {
	data, err := os.ReadFile(tagPath(root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errIO(err)
	}

	trimmed := strings.TrimSpace(string(data))
	if decoded, hexErr := hex.DecodeString(trimmed); hexErr == nil && len(decoded) == blockhash.Size {
		return decoded, true, nil
	}
	return data, true, nil
}

// readTag resolves the bytes from readTagBytes into a blockhash.Hash.
func readTag(root, name string) (*blockhash.Hash, error) {
	raw, ok, err := readTagBytes(root, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	h, err := blockhash.FromBytes(raw)
	if err != nil {
		return nil, errCorruption(fmt.Sprintf("tag %q: %v", name, err))
	}
	return &h, nil
}

func tagExists(root, name string) bool {
	_, err := os.Stat(tagPath(root, name))
	return err == nil
}

func deleteTag(root, name string) error {
	if err := os.Remove(tagPath(root, name)); err != nil && !os.IsNotExist(err) {
		return errIO(err)
	}
	return nil
}
