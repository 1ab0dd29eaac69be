// Package codec defines the provider-side boundary adastore consumes: a
// capability to pull a block's previous-header hash out of a raw,
// still-encoded block, without adastore ever parsing block bytes itself.
//
// This is deliberately the only thing the storage core asks of the wider
// Cardano stack's CBOR codec — see spec.md §9 "Polymorphic block codec".
package codec

import "adastore/blockhash"

// BlockCodec is implemented by the embedding application's CBOR decoder.
// PreviousHash decodes just enough of raw to find its predecessor.
// isBoundary reports that raw is a boundary block (e.g. an epoch genesis
// block) with no predecessor — iteration should stop after yielding it.
type BlockCodec interface {
	PreviousHash(raw []byte) (prev blockhash.Hash, isBoundary bool, err error)
}

// GenesisTable is an injected, external map from network name (e.g.
// "mainnet", "testnet") to that network's genesis/boundary hash.
//
// The original rust-byron-cardano exe-common crate carried two
// near-duplicate get_genesis_data functions under different code paths,
// each hard-coding a slightly different set of allowed hashes for a
// network. spec.md §9 treats this as external configuration rather than a
// storage concern: adastore never embeds network knowledge, it only
// accepts this table from the embedder and lets BlockCodec implementations
// consult it when deciding isBoundary.
type GenesisTable map[string]blockhash.Hash

// Lookup returns the genesis hash for network, and whether it is known.
func (t GenesisTable) Lookup(network string) (blockhash.Hash, bool) {
	h, ok := t[network]
	return h, ok
}
