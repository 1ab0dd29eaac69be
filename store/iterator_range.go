package store

import (
	"adastore/blockhash"
	"adastore/codec"
)

// Range walks backward from to until it reaches from (inclusive of both
// ends) and returns the segment as a forward-ordered RefPack. If the
// backward walk exhausts the chain (hits a boundary block) before reaching
// from, Range reports BlockNotFound for from — the two hashes are not on
// the same chain, or from lies beyond the boundary.
func (s *Storage) Range(from, to blockhash.Hash, bc codec.BlockCodec) (*RefPack, error) {
	it, err := s.NewReverseIter(to, bc)
	if err != nil {
		return nil, err
	}

	var reversed []blockhash.Hash
	for {
		h, _, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errBlockNotFound(from)
		}
		reversed = append(reversed, h)
		if h == from {
			break
		}
	}

	forward := make([]blockhash.Hash, len(reversed))
	for i, h := range reversed {
		forward[len(reversed)-1-i] = h
	}
	return &RefPack{Hashes: forward}, nil
}
