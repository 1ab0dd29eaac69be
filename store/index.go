package store

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sort"

	"adastore/atomicfile"
	"adastore/bitmap"
	"adastore/blockhash"
	"adastore/bloomfilter"
	"adastore/magic"
)

// indexEntry is one (hash, offset) pair inside an Index, kept sorted by
// Hash.
type indexEntry struct {
	Hash   blockhash.Hash
	Offset uint64
}

// Index is the companion to a Pack: a Bloom pre-filter plus the sorted
// array of (hash, offset) pairs that resolves a hit to a byte offset.
type Index struct {
	PackID  blockhash.Hash
	Bloom   *bloomfilter.Filter
	Entries []indexEntry
}

func indexPath(root string, packID blockhash.Hash) string {
	return filepath.Join(root, "pack", packID.String()+".index")
}

// buildIndex constructs an in-memory Index from a pack's (hash -> offset)
// map, sizing the Bloom filter for targetFP at this entry count.
func buildIndex(packID blockhash.Hash, offsets map[blockhash.Hash]uint64, targetFP float64) *Index {
	entries := make([]indexEntry, 0, len(offsets))
	for h, off := range offsets {
		entries = append(entries, indexEntry{Hash: h, Offset: off})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Hash.Less(entries[j].Hash) })

	bits := bloomfilter.Bits(uint(len(entries)), targetFP)
	filter := bloomfilter.New(bits)
	for _, e := range entries {
		filter.Add(e.Hash[:])
	}

	return &Index{PackID: packID, Bloom: filter, Entries: entries}
}

// writeIndex durably writes idx to <root>/pack/<pack_id>.index via
// tmpfile+rename. The pack itself must already have been written and
// closed (spec.md §4.6: pack first, index second).
func writeIndex(root string, idx *Index) error {
	dir := packDir(root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errIO(err)
	}

	var buf bytes.Buffer
	hdr := magic.Header{Type: magic.Index, Version: magic.V1}
	if err := hdr.Encode(&buf); err != nil {
		return errIO(err)
	}

	var countBuf [8]byte
	binary.LittleEndian.PutUint64(countBuf[:], uint64(len(idx.Entries)))
	buf.Write(countBuf[:])

	bloomBits := idx.Bloom.Bitmap().Len()
	var bitsBuf [8]byte
	binary.LittleEndian.PutUint64(bitsBuf[:], uint64(bloomBits))
	buf.Write(bitsBuf[:])
	buf.Write(idx.Bloom.Bitmap().Encode())

	for _, e := range idx.Entries {
		buf.Write(e.Hash[:])
		var offBuf [8]byte
		binary.LittleEndian.PutUint64(offBuf[:], e.Offset)
		buf.Write(offBuf[:])
	}

	if err := atomicfile.WriteFile(dir, indexPath(root, idx.PackID), buf.Bytes()); err != nil {
		return errIO(err)
	}
	return nil
}

// readIndex loads and validates the index file for packID, checking the
// header, that the entry count matches the array that follows, and that
// entries are strictly sorted by hash.
func readIndex(root string, packID blockhash.Hash) (*Index, error) {
	f, err := os.Open(indexPath(root, packID))
	if err != nil {
		return nil, errIO(err)
	}
	defer f.Close()

	if _, err := magic.Decode(f, magic.Index, magic.V1); err != nil {
		return nil, wrapMagicErr(err)
	}

	var countBuf [8]byte
	if _, err := io.ReadFull(f, countBuf[:]); err != nil {
		return nil, errIO(err)
	}
	count := binary.LittleEndian.Uint64(countBuf[:])

	var bitsBuf [8]byte
	if _, err := io.ReadFull(f, bitsBuf[:]); err != nil {
		return nil, errIO(err)
	}
	bloomBits := binary.LittleEndian.Uint64(bitsBuf[:])

	bloomBytes := make([]byte, bitmap.Bytes(uint(bloomBits)))
	if _, err := io.ReadFull(f, bloomBytes); err != nil {
		return nil, errIO(err)
	}
	bm, err := bitmap.Decode(bloomBytes, uint(bloomBits))
	if err != nil {
		return nil, errCorruption(err.Error())
	}

	entries := make([]indexEntry, count)
	for i := uint64(0); i < count; i++ {
		var hashBuf [blockhash.Size]byte
		if _, err := io.ReadFull(f, hashBuf[:]); err != nil {
			return nil, errIO(err)
		}
		var offBuf [8]byte
		if _, err := io.ReadFull(f, offBuf[:]); err != nil {
			return nil, errIO(err)
		}
		entries[i] = indexEntry{Hash: blockhash.Hash(hashBuf), Offset: binary.LittleEndian.Uint64(offBuf[:])}
		if i > 0 && !entries[i-1].Hash.Less(entries[i].Hash) {
			return nil, errCorruption("index entries out of order")
		}
	}

	return &Index{PackID: packID, Bloom: bloomfilter.FromBitmap(bm), Entries: entries}, nil
}

// Lookup Bloom-tests h, then binary-searches the sorted entry array on a
// hit. Returns (offset, true) on a confirmed match.
func (idx *Index) Lookup(h blockhash.Hash) (uint64, bool) {
	if !idx.Bloom.Test(h[:]) {
		return 0, false
	}
	i := sort.Search(len(idx.Entries), func(i int) bool {
		return !idx.Entries[i].Hash.Less(h)
	})
	if i < len(idx.Entries) && idx.Entries[i].Hash == h {
		return idx.Entries[i].Offset, true
	}
	return 0, false
}

func hasIndex(root string, packID blockhash.Hash) bool {
	_, err := os.Stat(indexPath(root, packID))
	return err == nil
}

func deleteIndex(root string, packID blockhash.Hash) error {
	if err := os.Remove(indexPath(root, packID)); err != nil && !os.IsNotExist(err) {
		return errIO(err)
	}
	return nil
}
