package ux

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Formatter writes a value to the terminal or a pipe in one output format.
type Formatter interface {
	Format(data any) error
}

// TextRenderer is implemented by values that know how to print themselves
// for a terminal. The styles honour FormatterOptions.NoColor.
type TextRenderer interface {
	RenderText(w io.Writer, s *Styles) error
}

// FormatterOptions configure NewFormatter. Writer defaults to os.Stdout.
type FormatterOptions struct {
	Writer  io.Writer
	NoColor bool
	// Compact drops indentation from json and yaml output.
	Compact bool
}

// FormatterFunc adapts a plain function to Formatter.
type FormatterFunc func(data any) error

// Format calls f.
func (f FormatterFunc) Format(data any) error { return f(data) }

// NewFormatter returns the formatter for text, json or yaml. An empty
// format means text.
func NewFormatter(format string, opts *FormatterOptions) (Formatter, error) {
	var o FormatterOptions
	if opts != nil {
		o = *opts
	}
	if o.Writer == nil {
		o.Writer = os.Stdout
	}

	switch format {
	case "json":
		return FormatterFunc(func(data any) error { return writeJSON(o, data) }), nil
	case "yaml":
		return FormatterFunc(func(data any) error { return writeYAML(o, data) }), nil
	case "text", "":
		styles := NewStyles(o.NoColor)
		return FormatterFunc(func(data any) error { return writeText(o.Writer, styles, data) }), nil
	default:
		return nil, fmt.Errorf("unknown format: %s (supported: text, json, yaml)", format)
	}
}

// writeJSON leaves shell metacharacters in recorded commands readable.
func writeJSON(o FormatterOptions, data any) error {
	enc := json.NewEncoder(o.Writer)
	enc.SetEscapeHTML(false)
	if !o.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(data)
}

func writeYAML(o FormatterOptions, data any) error {
	enc := yaml.NewEncoder(o.Writer)
	if !o.Compact {
		enc.SetIndent(2)
	}
	if err := enc.Encode(data); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func writeText(w io.Writer, styles *Styles, data any) error {
	var err error
	switch v := data.(type) {
	case TextRenderer:
		return v.RenderText(w, styles)
	case string:
		_, err = fmt.Fprintln(w, v)
	case fmt.Stringer:
		_, err = fmt.Fprintln(w, v.String())
	default:
		err = fmt.Errorf("cannot print %T as text; use --format json or yaml", data)
	}
	return err
}
