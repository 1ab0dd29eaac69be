package store

import "adastore/blockhash"

// PackEpoch folds an epoch's blocks — given as a RefPack in forward chain
// order — into a single immutable pack and records it under that epoch's
// reserved tag. It is the storage engine's half of epoch packing: the
// embedder is responsible for deciding when an epoch is stable enough to
// pack and for producing the RefPack (typically the result of a prior
// Range call bounded by the epoch's first and last blocks).
//
// PackEpoch is safe to re-run after a crash between CreatePack succeeding
// and WriteTag succeeding: CreatePack is idempotent on the same hash
// order, and WriteTag unconditionally overwrites, so calling PackEpoch
// again with the same RefPack finishes whichever half was interrupted.
func (s *Storage) PackEpoch(epoch uint32, rp *RefPack) (blockhash.Hash, error) {
	packID, err := s.CreatePack(rp.Hashes)
	if err != nil {
		return blockhash.Hash{}, err
	}
	if err := s.WriteTag(EpochTag(epoch), packID); err != nil {
		return packID, err
	}
	return packID, nil
}
