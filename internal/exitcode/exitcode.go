package exitcode

import (
	stderrors "errors"
	"os"
	"strings"

	"github.com/felixgeelhaar/linkrun/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0
	// GeneralError covers I/O, encoding and signing failures
	GeneralError = 1
	// UsageError indicates invalid flags, arguments or configuration
	UsageError = 2
	// StepFailed indicates the recorded command exited non-zero and the
	// caller asked for that to fail the run
	StepFailed = 3
	// VerifyFailed indicates a link did not verify against the given keys
	VerifyFailed = 4
	// Interrupted indicates the run was cancelled by SIGINT or SIGTERM
	Interrupted = 130
)

// ErrStepFailed marks a run whose command did not succeed
var ErrStepFailed = stderrors.New("step command failed")

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// DetermineExitCode maps an error to an exit code by its kind. Errors that
// did not come from linkrun are classified by message, which is how cobra
// reports flag and argument problems.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if stderrors.Is(err, errors.ErrVerifyFailed) {
		return VerifyFailed
	}
	if stderrors.Is(err, ErrStepFailed) {
		return StepFailed
	}

	switch errors.KindOf(err) {
	case errors.KindConfig:
		return UsageError
	case errors.KindIO, errors.KindEncoding, errors.KindSignature:
		return GeneralError
	}

	errMsg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"unknown flag",
		"unknown shorthand flag",
		"unknown command",
		"required flag",
		"invalid argument",
		"accepts",
		"requires at least",
		"flag needs an argument",
	} {
		if strings.Contains(errMsg, marker) {
			return UsageError
		}
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags, arguments or configuration)"
	case StepFailed:
		return "Recorded command failed"
	case VerifyFailed:
		return "Link verification failed"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
