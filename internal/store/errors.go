package store

import (
	"fmt"
	"strings"
)

type StorageMissingError struct {
	Path string
}

func (e StorageMissingError) Error() string {
	return fmt.Sprintf("storage not found: %s (run `tasktree init`)", e.Path)
}

type CorruptStorageError struct {
	Path string
	Err  error
}

func (e CorruptStorageError) Error() string {
	return fmt.Sprintf("corrupt storage %s: %v", e.Path, e.Err)
}

func (e CorruptStorageError) Unwrap() error { return e.Err }

type AlreadyExistsError struct {
	Path string
}

func (e AlreadyExistsError) Error() string {
	return fmt.Sprintf("storage already exists: %s", e.Path)
}

// LookupError is returned by read-only lookups; it wraps the engine's NotFoundError.
type LookupError struct {
	ID  int
	Err error
}

func (e LookupError) Error() string {
	return fmt.Sprintf("lookup %d: %v", e.ID, e.Err)
}

func (e LookupError) Unwrap() error { return e.Err }

// SaveError means the in-memory mutation succeeded but the document could not be
// written. Memory still reflects the mutation.
type SaveError struct {
	Path string
	Err  error
}

func (e SaveError) Error() string {
	return fmt.Sprintf("mutation applied in memory but saving %s failed: %v", e.Path, e.Err)
}

func (e SaveError) Unwrap() error { return e.Err }

// SyncError is a warning: the local write is committed regardless.
type SyncError struct {
	Err error
}

func (e SyncError) Error() string {
	return fmt.Sprintf("sync failed (local changes are saved): %v", e.Err)
}

func (e SyncError) Unwrap() error { return e.Err }

// ExtractStateError means moved tasks use states the target document does not
// define. Nothing is written.
type ExtractStateError struct {
	Target string
	States []string
}

func (e ExtractStateError) Error() string {
	return fmt.Sprintf("target %s does not define state(s) %s", e.Target, strings.Join(e.States, ", "))
}
