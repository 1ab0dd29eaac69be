package store

import (
	"errors"
	"fmt"

	"adastore/blockhash"
	"adastore/magic"
)

// ErrorKind tags a store.Error for programmatic dispatch, per spec.md §7's
// "unified failure mode" — a single tagged variant rather than a zoo of
// library-specific error types.
type ErrorKind int

const (
	// KindBlockNotFound: neither a pack index nor the loose blob path has
	// the requested hash.
	KindBlockNotFound ErrorKind = iota
	// KindBadMagic: a file's 8-byte magic tag failed to parse at all.
	KindBadMagic
	// KindWrongFileType: a file's magic tag parsed but named a different
	// file kind than the caller expected.
	KindWrongFileType
	// KindVersionTooOld: a file's major version predates this reader.
	KindVersionTooOld
	// KindVersionTooNew: a file's major version postdates this reader.
	KindVersionTooNew
	// KindIO: an underlying filesystem error.
	KindIO
	// KindAlreadyLocked: lock contention on an exclusive scope.
	KindAlreadyLocked
	// KindCorruption: an internal consistency check failed — entry-count
	// mismatch, out-of-order index, pack content hash mismatch, etc.
	KindCorruption
	// KindCodec: an error bubbled up from the external block codec.
	KindCodec
	// KindMissingBlock: create_pack was asked to pack a hash that is
	// present neither as a loose blob nor in an existing pack.
	KindMissingBlock
)

func (k ErrorKind) String() string {
	switch k {
	case KindBlockNotFound:
		return "BlockNotFound"
	case KindBadMagic:
		return "BadMagic"
	case KindWrongFileType:
		return "WrongFileType"
	case KindVersionTooOld:
		return "VersionTooOld"
	case KindVersionTooNew:
		return "VersionTooNew"
	case KindIO:
		return "Io"
	case KindAlreadyLocked:
		return "AlreadyLocked"
	case KindCorruption:
		return "Corruption"
	case KindCodec:
		return "CodecError"
	case KindMissingBlock:
		return "MissingBlock"
	default:
		return "Unknown"
	}
}

// Error is the single error type every adastore public operation returns.
type Error struct {
	Kind   ErrorKind
	Hash   *blockhash.Hash
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Hash != nil {
		msg += fmt.Sprintf("(%s)", e.Hash)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, &store.Error{Kind: store.KindBlockNotFound})
// match any store.Error of that Kind, ignoring the other fields.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf reports the ErrorKind carried by err, if it is (or wraps) a
// *store.Error.
func KindOf(err error) (ErrorKind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}

func errBlockNotFound(h blockhash.Hash) error {
	return &Error{Kind: KindBlockNotFound, Hash: &h}
}

func errMissingBlock(h blockhash.Hash) error {
	return &Error{Kind: KindMissingBlock, Hash: &h}
}

func errIO(cause error) error {
	return &Error{Kind: KindIO, Cause: cause}
}

func errCorruption(detail string) error {
	return &Error{Kind: KindCorruption, Detail: detail}
}

func errCodec(cause error) error {
	return &Error{Kind: KindCodec, Cause: cause}
}

func errAlreadyLocked(cause error) error {
	return &Error{Kind: KindAlreadyLocked, Cause: cause}
}

func wrapMagicErr(err error) error {
	if err == nil {
		return nil
	}
	var wft *magic.WrongFileTypeError
	var tooOld *magic.VersionTooOldError
	var tooNew *magic.VersionTooNewError
	switch {
	case errors.As(err, &wft):
		return &Error{Kind: KindWrongFileType, Cause: err}
	case errors.As(err, &tooOld):
		return &Error{Kind: KindVersionTooOld, Cause: err}
	case errors.As(err, &tooNew):
		return &Error{Kind: KindVersionTooNew, Cause: err}
	default:
		return &Error{Kind: KindBadMagic, Cause: err}
	}
}
