package bufsplit

import (
	"errors"
	"fmt"

	"github.com/anjor/bufsplit/internal/naming"
)

var (
	ErrInvalidOptions      = errors.New("invalid options")
	ErrModeConflict        = errors.New("mode conflict")
	ErrInvalidCount        = errors.New("invalid count")
	ErrInvalidSizeString   = errors.New("invalid size string")
	ErrInvalidSuffixLength = errors.New("invalid suffix length")
	ErrInvalidNumericStart = errors.New("invalid numeric suffix start")
	ErrSuffixesExhausted   = naming.ErrSuffixesExhausted
	ErrWriteFailure        = errors.New("write failure")
)

// WriteError reports a piece that could not be persisted. It matches
// ErrWriteFailure as well as the underlying error.
type WriteError struct {
	Index int
	Name  string
	Err   error
}

func (err *WriteError) Error() string {
	return fmt.Sprintf("writing piece #%d to '%s' failed: %v", err.Index, err.Name, err.Err)
}

func (err *WriteError) Unwrap() error { return err.Err }

func (err *WriteError) Is(target error) bool { return target == ErrWriteFailure }
