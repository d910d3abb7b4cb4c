// Package fatal provides the reporters that receive broken store
// invariants. They are kept apart from ordinary error returns so an
// embedding application can choose between a panic it may recover from at
// its top level and an immediate process exit.
package fatal

import (
	"os"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/linkgraph/pkg/types"
)

// ExitCode is the process status ExitReporter exits with (EX_SOFTWARE).
const ExitCode = 70

const bugReportHint = "this is a bug in linkgraph; please report it with the log above"

func fields(err *types.InternalError) []zap.Field {
	return []zap.Field{
		zap.String("code", err.Code),
		zap.String("file", err.File),
		zap.Int("line", err.Line),
		zap.String("detail", err.Message),
	}
}

// PanicReporter logs the violation and returns; the store then panics
// with the *types.InternalError.
type PanicReporter struct {
	Logger *zap.Logger
}

// Report implements types.FatalReporter.
func (r PanicReporter) Report(err *types.InternalError) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Error("store invariant violated", fields(err)...)
}

// osExit is swapped out by tests.
var osExit = os.Exit

// ExitReporter logs the violation and terminates the process with ExitCode.
// The zero value is usable and logs nowhere.
type ExitReporter struct {
	Logger *zap.Logger
}

// NewExitReporter returns a reporter that exits with ExitCode.
func NewExitReporter(logger *zap.Logger) *ExitReporter {
	return &ExitReporter{Logger: logger}
}

// Report implements types.FatalReporter. It does not return.
func (r *ExitReporter) Report(err *types.InternalError) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Error("=========== LINKGRAPH INTERNAL ERROR ===========")
	logger.Error("store invariant violated", fields(err)...)
	logger.Error(bugReportHint)
	_ = logger.Sync()
	osExit(ExitCode)
}

// ForPolicy returns the reporter for a types.Config fatal policy. An empty
// or unknown policy falls back to panicking.
func ForPolicy(policy string, logger *zap.Logger) types.FatalReporter {
	if policy == types.FatalExit {
		return NewExitReporter(logger)
	}
	return PanicReporter{Logger: logger}
}
