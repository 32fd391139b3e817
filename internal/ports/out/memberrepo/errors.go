package memberrepo

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested member does not exist.
	ErrNotFound = errors.New("member not found")

	// ErrMembershipNumberTaken indicates another member already holds the membership number.
	ErrMembershipNumberTaken = errors.New("membership number already in use")
)

// StorageError reports that the backing table or file could not be read or written.
// A write that fails with a StorageError has not been applied.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("member storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError unless it is nil or one of the sentinels above.
func Storage(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrMembershipNumberTaken) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
