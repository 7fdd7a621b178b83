package ux

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/linkrun/internal/errors"
)

func TestEnhanceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		suggestion string
	}{
		{"nil", nil, ""},
		{"missing executable", stderrors.New(`exec: "nope": executable file not found in $PATH`), "on PATH"},
		{"permission", stderrors.New("open key.pem: permission denied"), "permissions"},
		{"missing file", stderrors.New("open x: no such file or directory"), "relative to the current directory"},
		{"unrecognized", stderrors.New("boom"), ""},
		{"link error unchanged", errors.NewEmptyCommandError(), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnhanceError(tt.err)
			var ews *ErrorWithSuggestion
			if tt.suggestion == "" {
				if stderrors.As(got, &ews) {
					t.Errorf("unexpected suggestion: %q", ews.Suggestion)
				}
				return
			}
			if !stderrors.As(got, &ews) {
				t.Fatalf("expected suggestion for %v", tt.err)
			}
			if !strings.Contains(ews.Suggestion, tt.suggestion) {
				t.Errorf("suggestion %q does not mention %q", ews.Suggestion, tt.suggestion)
			}
			if !stderrors.Is(got, tt.err) {
				t.Error("enhanced error should unwrap to the original")
			}
		})
	}
}

func TestPrintLinkError(t *testing.T) {
	var buf bytes.Buffer
	err := errors.NewTraverseError("/no/such/root", stderrors.New("no such file or directory"))

	PrintError(&buf, err, NewStyles(true))

	out := buf.String()
	for _, want := range []string{"Error:", string(errors.ErrCodeTraverseFailed), "/no/such/root", "no such file or directory"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintUnknownHashAlgorithm(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, errors.NewUnknownHashAlgorithmError("md17", []string{"sha256", "sha512"}), NewStyles(true))

	out := buf.String()
	if !strings.Contains(out, "md17") {
		t.Errorf("output should name the algorithm:\n%s", out)
	}
	if !strings.Contains(out, "hint: Use one of: sha256, sha512") {
		t.Errorf("output should list suggestions:\n%s", out)
	}
}

func TestPrintPlainError(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, stderrors.New("boom"), NewStyles(true))
	if got := buf.String(); got != "Error: boom\n" {
		t.Errorf("PrintError() = %q", got)
	}
}
