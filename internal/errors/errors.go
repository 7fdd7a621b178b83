package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind is the closed set of failure classes a link run can produce.
type Kind int

const (
	// KindConfig covers invalid requests detected before any I/O happens.
	KindConfig Kind = iota + 1
	// KindIO covers files that cannot be opened, read or traversed and
	// commands that cannot be spawned.
	KindIO
	// KindEncoding covers paths or captured streams that are not valid UTF-8.
	KindEncoding
	// KindSignature covers key loading, signing and verification failures.
	KindSignature
)

// String returns the lowercase name of the kind
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindIO:
		return "io"
	case KindEncoding:
		return "encoding"
	case KindSignature:
		return "signature"
	default:
		return "unknown"
	}
}

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error codes
const (
	// Configuration errors (CFG-001 to CFG-099)
	ErrCodeUnknownHashAlgorithm ErrorCode = "CFG-001"
	ErrCodeEmptyCommand         ErrorCode = "CFG-002"
	ErrCodePathCollision        ErrorCode = "CFG-003"
	ErrCodeConfigInvalid        ErrorCode = "CFG-004"
	ErrCodeInvalidPattern       ErrorCode = "CFG-005"
	ErrCodeStripEmpty           ErrorCode = "CFG-006"

	// I/O errors (IO-001 to IO-099)
	ErrCodeOpenFailed     ErrorCode = "IO-001"
	ErrCodeReadFailed     ErrorCode = "IO-002"
	ErrCodeTraverseFailed ErrorCode = "IO-003"
	ErrCodeSpawnFailed    ErrorCode = "IO-004"
	ErrCodeInvalidPath    ErrorCode = "IO-005"
	ErrCodeWriteFailed    ErrorCode = "IO-006"

	// Encoding errors (ENC-001 to ENC-099)
	ErrCodeNonUTF8Path   ErrorCode = "ENC-001"
	ErrCodeNonUTF8Output ErrorCode = "ENC-002"

	// Signature errors (SIG-001 to SIG-099)
	ErrCodeKeyInvalid   ErrorCode = "SIG-001"
	ErrCodeSignFailed   ErrorCode = "SIG-002"
	ErrCodeVerifyFailed ErrorCode = "SIG-003"
)

// kindOfCode maps every code to the kind it belongs to.
var kindOfCode = map[ErrorCode]Kind{
	ErrCodeUnknownHashAlgorithm: KindConfig,
	ErrCodeEmptyCommand:         KindConfig,
	ErrCodePathCollision:        KindConfig,
	ErrCodeConfigInvalid:        KindConfig,
	ErrCodeInvalidPattern:       KindConfig,
	ErrCodeStripEmpty:           KindConfig,
	ErrCodeOpenFailed:           KindIO,
	ErrCodeReadFailed:           KindIO,
	ErrCodeTraverseFailed:       KindIO,
	ErrCodeSpawnFailed:          KindIO,
	ErrCodeInvalidPath:          KindIO,
	ErrCodeWriteFailed:          KindIO,
	ErrCodeNonUTF8Path:          KindEncoding,
	ErrCodeNonUTF8Output:        KindEncoding,
	ErrCodeKeyInvalid:           KindSignature,
	ErrCodeSignFailed:           KindSignature,
	ErrCodeVerifyFailed:         KindSignature,
}

// Sentinels for errors.Is comparisons. They match any LinkError carrying
// the same code, regardless of path or cause.
var (
	ErrUnknownHashAlgorithm = &LinkError{Kind: KindConfig, Code: ErrCodeUnknownHashAlgorithm}
	ErrEmptyCommand         = &LinkError{Kind: KindConfig, Code: ErrCodeEmptyCommand}
	ErrSpawnFailed          = &LinkError{Kind: KindIO, Code: ErrCodeSpawnFailed}
	ErrNonUTF8Output        = &LinkError{Kind: KindEncoding, Code: ErrCodeNonUTF8Output}
	ErrVerifyFailed         = &LinkError{Kind: KindSignature, Code: ErrCodeVerifyFailed}
)

// LinkError is the error type returned by every top-level operation.
// Structured context (Path, Algorithm) is kept in fields rather than
// only in the formatted message.
type LinkError struct {
	Kind        Kind
	Code        ErrorCode
	Message     string
	Path        string
	Algorithm   string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *LinkError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *LinkError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a LinkError with the same code.
func (e *LinkError) Is(target error) bool {
	t, ok := target.(*LinkError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new LinkError
func New(code ErrorCode, message string) *LinkError {
	return &LinkError{
		Kind:    kindOfCode[code],
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new LinkError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *LinkError {
	e := New(code, message)
	e.Cause = cause
	return e
}

// WithPath records the offending path
func (e *LinkError) WithPath(path string) *LinkError {
	e.Path = path
	return e
}

// WithSuggestion adds a suggestion to the error
func (e *LinkError) WithSuggestion(suggestion string) *LinkError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// KindOf returns the kind of the first LinkError in err's chain, or zero
// if there is none.
func KindOf(err error) Kind {
	var le *LinkError
	if stderrors.As(err, &le) {
		return le.Kind
	}
	return 0
}

// NewUnknownHashAlgorithmError names the first unsupported algorithm.
func NewUnknownHashAlgorithmError(name string, supported []string) *LinkError {
	e := New(ErrCodeUnknownHashAlgorithm, fmt.Sprintf("unknown hash algorithm: %q", name)).
		WithSuggestion(fmt.Sprintf("Use one of: %s", strings.Join(supported, ", ")))
	e.Algorithm = name
	return e
}

// NewEmptyCommandError reports a run request without an executable.
func NewEmptyCommandError() *LinkError {
	return New(ErrCodeEmptyCommand, "command is empty").
		WithSuggestion("Pass the command after '--', e.g. linkrun run --name build -- make")
}

// NewOpenError reports a file that could not be opened.
func NewOpenError(path string, cause error) *LinkError {
	return Wrap(ErrCodeOpenFailed, fmt.Sprintf("cannot open %s", path), cause).
		WithPath(path).
		WithSuggestion("Check that the path exists and is readable")
}

// NewReadError reports a file whose contents could not be read.
func NewReadError(path string, cause error) *LinkError {
	return Wrap(ErrCodeReadFailed, fmt.Sprintf("cannot read %s", path), cause).WithPath(path)
}

// NewTraverseError reports a path the traversal could not stat, resolve
// or list.
func NewTraverseError(path string, cause error) *LinkError {
	return Wrap(ErrCodeTraverseFailed, fmt.Sprintf("cannot traverse %s", path), cause).WithPath(path)
}

// NewSpawnError reports a command that could not be started.
func NewSpawnError(executable string, cause error) *LinkError {
	return Wrap(ErrCodeSpawnFailed, fmt.Sprintf("cannot start %s", executable), cause).
		WithPath(executable).
		WithSuggestion("Check that the executable exists and is on PATH")
}

// NewInvalidPathError reports a string that cannot be used as a path.
func NewInvalidPathError(path string, reason string) *LinkError {
	return New(ErrCodeInvalidPath, fmt.Sprintf("invalid path %q: %s", path, reason)).WithPath(path)
}

// NewNonUTF8PathError reports a path that is not valid text.
func NewNonUTF8PathError(path string) *LinkError {
	return New(ErrCodeNonUTF8Path, fmt.Sprintf("invalid path %q; non-UTF-8 string", path)).WithPath(path)
}

// NewNonUTF8OutputError reports a captured stream that is not valid UTF-8.
func NewNonUTF8OutputError(stream string) *LinkError {
	return New(ErrCodeNonUTF8Output, fmt.Sprintf("captured %s is not valid UTF-8", stream)).
		WithSuggestion("Pipe binary output to a file and record it as a product instead")
}
