package docdb

import (
	"errors"
	"fmt"
)

var (
	// ErrStorage matches every *StorageError.
	ErrStorage = errors.New("storage failure")
	// ErrCorrupt matches every *DecodeError.
	ErrCorrupt = errors.New("corrupt collection payload")
)

// StorageError reports that the underlying medium rejected a read or write.
type StorageError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("docdb: %s %q: %v", e.Op, e.Collection, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

// DecodeError reports that a collection's persisted payload exists but
// cannot be parsed. The collection is never treated as empty in that case.
type DecodeError struct {
	Collection string
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("docdb: decode %q: %v", e.Collection, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrCorrupt, e.Err} }
