package store

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"adastore/atomicfile"
	"adastore/blockhash"
	"adastore/magic"
)

// RefPack is an ordered, immutable sequence of block hashes describing a
// contiguous chain segment — the payload for Range results and epoch
// manifests.
type RefPack struct {
	Hashes []blockhash.Hash
}

// Len returns the number of hashes in the segment.
func (rp *RefPack) Len() int { return len(rp.Hashes) }

// At returns the i-th hash (0-indexed, forward chain order).
func (rp *RefPack) At(i int) blockhash.Hash { return rp.Hashes[i] }

func refPackPath(root, name string) string {
	return filepath.Join(root, "refpack", name)
}

// writeRefPack durably writes a RefPack under <root>/refpack/<name>.
func writeRefPack(root, name string, hashes []blockhash.Hash) error {
	dir := filepath.Join(root, "refpack")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errIO(err)
	}

	var buf bytes.Buffer
	hdr := magic.Header{Type: magic.RefPack, Version: magic.V1}
	if err := hdr.Encode(&buf); err != nil {
		return errIO(err)
	}
	var countBuf [8]byte
	binary.LittleEndian.PutUint64(countBuf[:], uint64(len(hashes)))
	buf.Write(countBuf[:])
	for _, h := range hashes {
		buf.Write(h[:])
	}

	if err := atomicfile.WriteFile(dir, refPackPath(root, name), buf.Bytes()); err != nil {
		return errIO(err)
	}
	return nil
}

// readRefPack loads a previously-written RefPack by name.
func readRefPack(root, name string) (*RefPack, error) {
	f, err := os.Open(refPackPath(root, name))
	if err != nil {
		return nil, errIO(err)
	}
	defer f.Close()

	if _, err := magic.Decode(f, magic.RefPack, magic.V1); err != nil {
		return nil, wrapMagicErr(err)
	}
	var countBuf [8]byte
	if _, err := io.ReadFull(f, countBuf[:]); err != nil {
		return nil, errIO(err)
	}
	count := binary.LittleEndian.Uint64(countBuf[:])

	hashes := make([]blockhash.Hash, count)
	for i := uint64(0); i < count; i++ {
		var hb [blockhash.Size]byte
		if _, err := io.ReadFull(f, hb[:]); err != nil {
			return nil, errIO(err)
		}
		hashes[i] = blockhash.Hash(hb)
	}
	return &RefPack{Hashes: hashes}, nil
}
