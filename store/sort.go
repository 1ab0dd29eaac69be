package store

import (
	"sort"

	"adastore/blockhash"
)

// sortHashes sorts hs in ascending byte order in place, used wherever the
// spec requires deterministic ordering (index entries, pack listings).
func sortHashes(hs []blockhash.Hash) {
	sort.Slice(hs, func(i, j int) bool { return hs[i].Less(hs[j]) })
}
