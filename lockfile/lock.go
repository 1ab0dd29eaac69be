// Package lockfile implements the advisory, cross-process lock used to
// serialize pack creation and other exclusive operations across a storage
// root. A lock is a file created with exclusive-create semantics whose
// contents record the holder's PID and a start-time token; the token lets
// a human operator tell two lock attempts from different process
// generations apart even on hosts that recycle PIDs quickly.
package lockfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/benbjohnson/clock"
)

// Holder identifies the process that holds or held a lock.
type Holder struct {
	PID       int
	StartedAt int64 // UnixNano, from the injected clock
}

func (h Holder) String() string {
	return fmt.Sprintf("pid=%d started_at=%d", h.PID, h.StartedAt)
}

// AlreadyLockedError is returned by Acquire when the lock is already held.
type AlreadyLockedError struct {
	Holder Holder
}

func (e *AlreadyLockedError) Error() string {
	return fmt.Sprintf("lockfile: already locked by %s", e.Holder)
}

// Lock is a held advisory lock. Release must be called to give it up;
// there is no finalizer and no automatic stale-lock recovery (per spec,
// that decision is left to a human operator).
type Lock struct {
	path string
}

// Acquire creates the lock file at path using exclusive-create semantics.
// clk supplies the start-time token; pass clock.New() in production and a
// clock.Mock in tests.
func Acquire(path string, clk clock.Clock) (*Lock, error) {
	holder := Holder{PID: os.Getpid(), StartedAt: clk.Now().UnixNano()}
	content := fmt.Sprintf("%d %d\n", holder.PID, holder.StartedAt)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			existing, readErr := readHolder(path)
			if readErr != nil {
				return nil, &AlreadyLockedError{}
			}
			return nil, &AlreadyLockedError{Holder: existing}
		}
		return nil, fmt.Errorf("lockfile: acquire: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("lockfile: write holder: %w", err)
	}
	return &Lock{path: path}, nil
}

// Release deletes the lock file. It is safe to call once; calling it again
// is a no-op error-free removal attempt.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("lockfile: release: %w", err)
	}
	return nil
}

func readHolder(path string) (Holder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Holder{}, err
	}
	fields := strings.Fields(string(data))
	if len(fields) < 1 {
		return Holder{}, fmt.Errorf("lockfile: malformed holder record")
	}
	pid, err := strconv.Atoi(fields[0])
	if err != nil {
		return Holder{}, fmt.Errorf("lockfile: malformed pid: %w", err)
	}
	h := Holder{PID: pid}
	if len(fields) >= 2 {
		if started, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
			h.StartedAt = started
		}
	}
	return h, nil
}

// HolderOf reads the current holder of the lock at path without acquiring
// it. It returns an error if the lock file does not exist.
func HolderOf(path string) (Holder, error) {
	return readHolder(path)
}
