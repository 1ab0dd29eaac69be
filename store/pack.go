package store

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"lukechampine.com/blake3"

	"adastore/atomicfile"
	"adastore/blockhash"
	"adastore/magic"
)

// packPath returns the on-disk path of a pack file by its pack_id.
func packPath(root string, packID blockhash.Hash) string {
	return filepath.Join(root, "pack", packID.String()+".pack")
}

func packDir(root string) string {
	return filepath.Join(root, "pack")
}

// align4 rounds n up to the next multiple of 4.
func align4(n uint32) uint32 {
	return (n + 3) &^ 3
}

// writePack concatenates the raw bytes for order (read via load, in the
// caller's chosen order) into a new, immutable pack file under root's
// pack/ directory. It returns the pack's content hash (its pack_id, a
// blake3-256 digest of the header and every entry) and, for each hash,
// the file-absolute byte offset of its entry's length prefix.
//
// The file is written through a tmpfile so a crash mid-write never leaves
// a partially-named pack behind; the file is only renamed to
// "<pack_id>.pack" once writing and hashing are complete.
func writePack(root string, order []blockhash.Hash, load func(blockhash.Hash) ([]byte, error)) (blockhash.Hash, map[blockhash.Hash]uint64, error) {
	dir := packDir(root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return blockhash.Hash{}, nil, errIO(err)
	}

	tf, err := atomicfile.Create(dir)
	if err != nil {
		return blockhash.Hash{}, nil, errIO(err)
	}
	defer tf.Discard() // no-op once Render succeeds

	hasher := blake3.New(32, nil)
	w := io.MultiWriter(tf, hasher)

	hdr := magic.Header{Type: magic.Pack, Version: magic.V1}
	if err := hdr.Encode(w); err != nil {
		return blockhash.Hash{}, nil, errIO(err)
	}

	var countBuf [8]byte
	binary.LittleEndian.PutUint64(countBuf[:], uint64(len(order)))
	if _, err := w.Write(countBuf[:]); err != nil {
		return blockhash.Hash{}, nil, errIO(err)
	}

	offset := uint64(magic.HeaderSize + 8)
	offsets := make(map[blockhash.Hash]uint64, len(order))

	for _, h := range order {
		raw, err := load(h)
		if err != nil {
			return blockhash.Hash{}, nil, errMissingBlock(h)
		}
		offsets[h] = offset

		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(raw)))
		if _, err := w.Write(lenBuf[:]); err != nil {
			return blockhash.Hash{}, nil, errIO(err)
		}
		if _, err := w.Write(raw); err != nil {
			return blockhash.Hash{}, nil, errIO(err)
		}

		padded := align4(uint32(len(raw)))
		if pad := int(padded) - len(raw); pad > 0 {
			if _, err := w.Write(make([]byte, pad)); err != nil {
				return blockhash.Hash{}, nil, errIO(err)
			}
		}
		offset += 4 + uint64(padded)
	}

	sum := hasher.Sum(nil)
	var packID blockhash.Hash
	copy(packID[:], sum)

	if err := tf.Render(packPath(root, packID)); err != nil {
		return blockhash.Hash{}, nil, errIO(err)
	}
	return packID, offsets, nil
}

// readPackHeader validates a pack file's header and returns its declared
// entry count.
func readPackHeader(root string, packID blockhash.Hash) (uint64, error) {
	f, err := os.Open(packPath(root, packID))
	if err != nil {
		return 0, errIO(err)
	}
	defer f.Close()

	if _, err := magic.Decode(f, magic.Pack, magic.V1); err != nil {
		return 0, wrapMagicErr(err)
	}
	var countBuf [8]byte
	if _, err := io.ReadFull(f, countBuf[:]); err != nil {
		return 0, errIO(err)
	}
	return binary.LittleEndian.Uint64(countBuf[:]), nil
}

// readPackEntryAt reads one framed entry from a pack file at the given
// file-absolute offset.
func readPackEntryAt(root string, packID blockhash.Hash, offset uint64) ([]byte, error) {
	f, err := os.Open(packPath(root, packID))
	if err != nil {
		return nil, errIO(err)
	}
	defer f.Close()

	if _, err := f.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, errIO(err)
	}
	var lenBuf [4]byte
	if _, err := io.ReadFull(f, lenBuf[:]); err != nil {
		return nil, errIO(err)
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, errIO(err)
	}
	return buf, nil
}

// deletePack removes a pack file. Used when discarding an orphan pack
// that was written but never got a matching index (crash recovery).
func deletePack(root string, packID blockhash.Hash) error {
	if err := os.Remove(packPath(root, packID)); err != nil && !os.IsNotExist(err) {
		return errIO(err)
	}
	return nil
}

// listPackFiles returns the pack_ids of every ".pack" file under root,
// sorted, regardless of whether each has a matching index.
func listPackFiles(root string) ([]blockhash.Hash, error) {
	entries, err := os.ReadDir(packDir(root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errIO(err)
	}
	var ids []blockhash.Hash
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		const suffix = ".pack"
		if len(name) <= len(suffix) || name[len(name)-len(suffix):] != suffix {
			continue
		}
		hexPart := name[:len(name)-len(suffix)]
		h, err := blockhash.FromHex(hexPart)
		if err != nil {
			continue
		}
		ids = append(ids, h)
	}
	sortHashes(ids)
	return ids, nil
}
