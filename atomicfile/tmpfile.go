// Package atomicfile provides the durable-write primitive every mutation in
// adastore goes through: a temp file is created in the target directory
// under a random name, written and fsynced, then renamed over its final
// path. Rename is atomic on the underlying filesystem, so a reader never
// observes a torn write.
package atomicfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// TmpFile is a scoped, not-yet-durable write handle. Callers must call
// Render to make the write permanent; if Discard is called first, the temp
// file is removed and the target path is untouched. If the process exits
// before either call, the temp file stays in dir, the target path is
// untouched, and SweepOrphans removes the leftover.
type TmpFile struct {
	f        *os.File
	path     string
	rendered bool
}

// Create opens a new temp file inside dir with a collision-resistant
// random suffix. dir must already exist.
func Create(dir string) (*TmpFile, error) {
	name := ".tmp." + uuid.New().String()
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("atomicfile: create: %w", err)
	}
	return &TmpFile{f: f, path: path}, nil
}

// Write implements io.Writer.
func (t *TmpFile) Write(p []byte) (int, error) {
	return t.f.Write(p)
}

// ReadFrom copies all of r into the temp file.
func (t *TmpFile) ReadFrom(r io.Reader) (int64, error) {
	return io.Copy(t.f, r)
}

// Render fsyncs the temp file's contents and renames it over target,
// which is created or overwritten atomically. After a successful Render
// the TmpFile is spent; calling Render or Discard again is a no-op.
func (t *TmpFile) Render(target string) error {
	if t.rendered {
		return nil
	}
	if err := t.f.Sync(); err != nil {
		t.f.Close()
		os.Remove(t.path)
		return fmt.Errorf("atomicfile: fsync: %w", err)
	}
	if err := t.f.Close(); err != nil {
		os.Remove(t.path)
		return fmt.Errorf("atomicfile: close: %w", err)
	}
	if err := os.Rename(t.path, target); err != nil {
		os.Remove(t.path)
		return fmt.Errorf("atomicfile: rename: %w", err)
	}
	t.rendered = true
	return nil
}

// Discard closes and removes the temp file without rendering it. Safe to
// call after a successful Render (no-op) or multiple times.
func (t *TmpFile) Discard() {
	if t.rendered {
		return
	}
	t.f.Close()
	os.Remove(t.path)
	t.rendered = true
}

// WriteFile is a convenience wrapper for the common case of writing a
// single in-memory buffer to target via a tmpfile-in-dir.
func WriteFile(dir, target string, data []byte) error {
	tf, err := Create(dir)
	if err != nil {
		return err
	}
	if _, err := tf.Write(data); err != nil {
		tf.Discard()
		return fmt.Errorf("atomicfile: write: %w", err)
	}
	return tf.Render(target)
}

// SweepOrphans removes any leftover ".tmp.*" files in dir — the residue of
// a process that crashed between Create and Render.
func SweepOrphans(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("atomicfile: sweep: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if len(name) >= 5 && name[:5] == ".tmp." {
			os.Remove(filepath.Join(dir, name))
		}
	}
	return nil
}
