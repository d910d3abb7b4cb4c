package types

import (
	"errors"
	"fmt"
)

// Caller-contract errors. These are ordinary, recoverable failures: the
// operation that returns one has not modified any state. Callers branch on
// them with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrOutOfRange       = errors.New("index out of range")
	ErrAlreadyInserted  = errors.New("already inserted")
	ErrInvalidReference = errors.New("invalid reference")
)

// ErrInternal matches every *InternalError.
var ErrInternal = errors.New("internal error")

// Internal error codes.
const (
	CodeBacklinkMissing = "backlink_missing"
	CodeBacklinkExtra   = "backlink_extra"
	CodeDanglingEdge    = "dangling_edge"
	CodeIDMismatch      = "id_mismatch"
)

// InternalError describes a broken store invariant. It is a bug in the
// store, not caller misuse, and is delivered through a FatalReporter
// rather than returned.
type InternalError struct {
	Code    string // one of the Code constants
	File    string // source file that detected the violation
	Line    int    // source line that detected the violation
	Message string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error %q at %s:%d: %s", e.Code, e.File, e.Line, e.Message)
}

// Is makes errors.Is(err, ErrInternal) hold for every InternalError.
func (e *InternalError) Is(target error) bool {
	return target == ErrInternal
}

// FatalReporter receives internal invariant violations. Report must not let
// the caller continue with the corrupted store: implementations either end
// the process or return, in which case the store panics with err.
type FatalReporter interface {
	Report(err *InternalError)
}
