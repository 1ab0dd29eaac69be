package store

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"

	"adastore/atomicfile"
	"adastore/blockhash"
)

// blobDir returns the directory a blob lives in: <root>/blob/<shard>.
func blobDir(root string, h blockhash.Hash) string {
	return filepath.Join(root, "blob", h.ShardPrefix())
}

// blobPath returns the full path of the loose blob file for h.
func blobPath(root string, h blockhash.Hash) string {
	return filepath.Join(blobDir(root, h), h.String())
}

// putBlob writes raw via tmpfile+rename under the sharded blob path,
// deflating it first if compress is set. The shard directory is created
// if missing.
func putBlob(root string, h blockhash.Hash, raw []byte, compress bool) error {
	dir := blobDir(root, h)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errIO(err)
	}
	payload := raw
	if compress {
		var buf bytes.Buffer
		w, err := flate.NewWriter(&buf, flate.BestCompression)
		if err != nil {
			return errIO(err)
		}
		if _, err := w.Write(raw); err != nil {
			return errIO(err)
		}
		if err := w.Close(); err != nil {
			return errIO(err)
		}
		payload = buf.Bytes()
	}
	if err := atomicfile.WriteFile(dir, blobPath(root, h), payload); err != nil {
		return errIO(err)
	}
	return nil
}

// getBlob reads the loose blob for h, inflating it if compress is set.
// compress must match whatever flag was true when the blob was written —
// the engine stores no per-blob indicator (spec.md §4.4).
func getBlob(root string, h blockhash.Hash, compress bool) ([]byte, error) {
	data, err := os.ReadFile(blobPath(root, h))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errBlockNotFound(h)
		}
		return nil, errIO(err)
	}
	if !compress {
		return data, nil
	}
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errIO(err)
	}
	return out, nil
}

// containsBlob reports whether a loose blob exists for h.
func containsBlob(root string, h blockhash.Hash) bool {
	_, err := os.Stat(blobPath(root, h))
	return err == nil
}

// deleteBlob removes the loose blob for h. It is a no-op if the blob is
// already absent.
func deleteBlob(root string, h blockhash.Hash) error {
	if err := os.Remove(blobPath(root, h)); err != nil && !os.IsNotExist(err) {
		return errIO(err)
	}
	return nil
}
