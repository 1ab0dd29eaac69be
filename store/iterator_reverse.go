package store

import (
	"adastore/blockhash"
	"adastore/codec"
)

// ReverseIter walks a chain backward from a tip hash, one block per Next
// call, using the embedder's codec.BlockCodec to find each block's
// predecessor. It is lazy (nothing is read until Next is called), finite
// (it stops once the codec reports a boundary block), non-restartable, and
// fused on error: once Next returns an error, every subsequent call
// returns the same error without touching storage again.
type ReverseIter struct {
	s       *Storage
	codec   codec.BlockCodec
	current *blockhash.Hash
	done    bool
	err     error
}

// NewReverseIter validates that tip resolves to a known block and returns
// an iterator starting there.
func (s *Storage) NewReverseIter(tip blockhash.Hash, bc codec.BlockCodec) (*ReverseIter, error) {
	if _, err := s.Locate(tip); err != nil {
		return nil, err
	}
	h := tip
	return &ReverseIter{s: s, codec: bc, current: &h}, nil
}

// Next returns the next block walking backward from the iterator's
// current position. ok is false with a nil error once the chain has
// reached a boundary block and been fully consumed; ok is false with a
// non-nil error if a step failed, and every later call returns that same
// error.
func (it *ReverseIter) Next() (h blockhash.Hash, raw []byte, ok bool, err error) {
	if it.done {
		return blockhash.Hash{}, nil, false, it.err
	}
	if it.current == nil {
		it.done = true
		return blockhash.Hash{}, nil, false, nil
	}

	h = *it.current
	raw, err = it.s.Get(h)
	if err != nil {
		it.done, it.err = true, err
		return blockhash.Hash{}, nil, false, err
	}

	prev, isBoundary, err := it.codec.PreviousHash(raw)
	if err != nil {
		it.done, it.err = true, errCodec(err)
		return blockhash.Hash{}, nil, false, it.err
	}

	if isBoundary {
		it.current = nil
	} else {
		it.current = &prev
	}
	return h, raw, true, nil
}
