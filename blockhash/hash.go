// Package blockhash defines the 32-byte content address used throughout
// adastore: the universal key for blocks, the identity of a pack, and the
// payload carried by tags and refpacks.
package blockhash

import (
	"encoding/hex"
	"fmt"
)

// Size is the length in bytes of a Hash.
const Size = 32

// Hash is an opaque, fixed-size content address. It is compared byte-wise
// and never interpreted.
type Hash [Size]byte

// Zero is the all-zero hash, used as a sentinel for "no value".
var Zero Hash

// String renders the hash as lowercase hex.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero value.
func (h Hash) IsZero() bool {
	return h == Zero
}

// Less reports whether h sorts before other in byte order. Used to keep
// index entries and pack-id orderings deterministic.
func (h Hash) Less(other Hash) bool {
	for i := range h {
		if h[i] != other[i] {
			return h[i] < other[i]
		}
	}
	return false
}

// FromHex parses a lowercase or uppercase hex string into a Hash.
func FromHex(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("blockhash: invalid hex: %w", err)
	}
	if len(b) != Size {
		return h, fmt.Errorf("blockhash: want %d bytes, got %d", Size, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// FromBytes copies b into a Hash. It errors if b is not exactly Size bytes.
func FromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != Size {
		return h, fmt.Errorf("blockhash: want %d bytes, got %d", Size, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// ShardPrefix returns the first two hex characters of the hash, used as the
// blob store's directory shard.
func (h Hash) ShardPrefix() string {
	return hex.EncodeToString(h[:1])
}
