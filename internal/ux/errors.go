package ux

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/linkrun/internal/errors"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\nSuggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError adds a suggestion to errors that do not carry their own.
// LinkErrors already have suggestions and are returned unchanged.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}

	var le *errors.LinkError
	if stderrors.As(err, &le) {
		return err
	}

	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "executable file not found"):
		return NewErrorWithSuggestion(err, "Check that the command is installed and on PATH")
	case strings.Contains(errMsg, "permission denied"):
		return NewErrorWithSuggestion(err,
			"Check file permissions and ensure you have access to the required files/directories")
	case strings.Contains(errMsg, "no such file or directory"):
		return NewErrorWithSuggestion(err, "Check the path; material and product paths are relative to the current directory")
	}
	return err
}

// PrintError renders err for a terminal: message, code, path and any
// suggestions.
func PrintError(w io.Writer, err error, s *Styles) {
	if err == nil {
		return
	}

	var le *errors.LinkError
	if !stderrors.As(err, &le) {
		fmt.Fprintf(w, "%s %v\n", s.Error.Render("Error:"), EnhanceError(err))
		return
	}

	fmt.Fprintf(w, "%s %s\n", s.Error.Render("Error:"), le.Message)
	s.Field(w, "code", string(le.Code))
	if le.Path != "" {
		s.Field(w, "path", le.Path)
	}
	if le.Algorithm != "" {
		s.Field(w, "algorithm", le.Algorithm)
	}
	if le.Cause != nil {
		s.Field(w, "cause", le.Cause.Error())
	}
	for _, suggestion := range le.Suggestions {
		fmt.Fprintf(w, "  %s %s\n", s.Muted.Render("hint:"), suggestion)
	}
}
