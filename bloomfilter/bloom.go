// Package bloomfilter implements the pack-membership pre-filter described
// in spec.md §4.3: a 3-position Bloom filter over FNV-1/FNV-1a, laid out
// bit-for-bit the way the original rust-byron-cardano
// storage-units/src/utils/bloom.rs computed it, so the scheme is not a
// generic, swappable Bloom algorithm — it must stay exactly this one for
// any future cross-implementation compatibility.
package bloomfilter

import (
	"hash/fnv"
	"math"

	"adastore/bitmap"
)

// Filter is a Bloom filter over BlockHash-shaped keys, backed by a fixed
// bitmap.Bitmap. It never supports removal.
type Filter struct {
	bm *bitmap.Bitmap
}

// New returns an empty filter with an m-bit bitmap.
func New(m uint) *Filter {
	return &Filter{bm: bitmap.New(m)}
}

// FromBitmap wraps an already-populated bitmap (e.g. one just decoded from
// an index file) as a Filter.
func FromBitmap(bm *bitmap.Bitmap) *Filter {
	return &Filter{bm: bm}
}

// Bitmap exposes the underlying bit array, e.g. for encoding to disk.
func (f *Filter) Bitmap() *bitmap.Bitmap {
	return f.bm
}

// Bits computes the minimal bitmap size, in bits, for n entries at the
// target false-positive rate p with k=3 hash functions, by solving
// p = (1 - e^(-3n/m))^3 for m: m = -3n / ln(1 - p^(1/3)).
func Bits(n uint, p float64) uint {
	if n == 0 {
		return 8
	}
	m := -3 * float64(n) / math.Log(1-math.Cbrt(p))
	bits := uint(math.Ceil(m))
	if bits < 8 {
		bits = 8
	}
	return bits
}

// positions computes the three bit positions spec.md §4.3 mandates:
// h1 mod m, h2 mod m, ((h1 xor h2) >> 32) mod m, where h1 is FNV-1 and h2
// is FNV-1a of content.
func (f *Filter) positions(content []byte) (uint, uint, uint) {
	m := f.bm.Len()

	h1 := fnv.New64()
	h1.Write(content)
	v1 := h1.Sum64()

	h2 := fnv.New64a()
	h2.Write(content)
	v2 := h2.Sum64()

	p1 := uint(v1 % uint64(m))
	p2 := uint(v2 % uint64(m))
	p3 := uint(((v1 ^ v2) >> 32) % uint64(m))
	return p1, p2, p3
}

// Add sets the three bits for content. No removal is ever supported.
func (f *Filter) Add(content []byte) {
	p1, p2, p3 := f.positions(content)
	f.bm.Set(p1)
	f.bm.Set(p2)
	f.bm.Set(p3)
}

// Test reports whether content may be a member: true means "maybe", false
// means "definitely not" (no false negatives).
func (f *Filter) Test(content []byte) bool {
	p1, p2, p3 := f.positions(content)
	return f.bm.Get(p1) && f.bm.Get(p2) && f.bm.Get(p3)
}
