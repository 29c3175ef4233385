package cli

import (
	"context"
	"io"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/vk/courseplanner/internal/app"
	"github.com/vk/courseplanner/internal/course"
)

// Version is reported by --version. Release builds override it with -ldflags.
var Version = "dev"

const (
	// ExitFailure reports a runtime failure or an invalid catalog.
	ExitFailure = 1
	// ExitUsage reports bad flags, arguments or configuration.
	ExitUsage = 2
)

// errUsage marks command-line mistakes detected by cobra.
var errUsage = errors.New("usage error")

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying error, so hints stay reachable.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// Execute runs the command line args. Results go to outW; logs and cobra's
// own messages go to errW. Any failure is returned as an *ExitError.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		return toExitError(err)
	}
	return nil
}

func toExitError(err error) *ExitError {
	code := ExitFailure
	if errors.IsAny(err, errUsage, app.ErrInvalidConfig, app.ErrInvalidArgument, course.ErrEmptyID) ||
		strings.HasPrefix(err.Error(), "unknown command") {
		code = ExitUsage
	}
	return &ExitError{Code: code, Message: err.Error(), Err: err}
}
