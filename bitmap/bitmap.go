// Package bitmap implements the fixed-width bit array used as storage for
// the Bloom filter in package bloomfilter. The in-memory representation is
// backed by github.com/bits-and-blooms/bitset for efficient set/test; this
// package adds the portable on-disk encoding (LSB-first within each byte)
// that spec.md's index file format requires, since bitset's own
// MarshalBinary format carries its own length header and is not wire-exact
// for that layout.
package bitmap

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// Bitmap is a fixed-width array of bits.
type Bitmap struct {
	bits *bitset.BitSet
	n    uint
}

// New returns a zeroed Bitmap of n bits.
func New(n uint) *Bitmap {
	return &Bitmap{bits: bitset.New(n), n: n}
}

// Len returns the number of bits in the map.
func (b *Bitmap) Len() uint {
	return b.n
}

// Set sets bit i to 1.
func (b *Bitmap) Set(i uint) {
	b.bits.Set(i % b.n)
}

// Get reports whether bit i is set.
func (b *Bitmap) Get(i uint) bool {
	return b.bits.Test(i % b.n)
}

// Bytes returns the minimal byte slice needed to hold n bits.
func Bytes(n uint) int {
	return int((n + 7) / 8)
}

// Encode renders the bitmap into its on-disk byte form: LSB-first bit
// ordering within each byte, ceil(n/8) bytes long.
func (b *Bitmap) Encode() []byte {
	out := make([]byte, Bytes(b.n))
	for i := uint(0); i < b.n; i++ {
		if b.bits.Test(i) {
			out[i/8] |= 1 << (i % 8)
		}
	}
	return out
}

// Decode parses the on-disk byte form produced by Encode back into a
// Bitmap of n bits.
func Decode(data []byte, n uint) (*Bitmap, error) {
	want := Bytes(n)
	if len(data) != want {
		return nil, fmt.Errorf("bitmap: want %d bytes for %d bits, got %d", want, n, len(data))
	}
	bm := New(n)
	for i := uint(0); i < n; i++ {
		if data[i/8]&(1<<(i%8)) != 0 {
			bm.bits.Set(i)
		}
	}
	return bm, nil
}
