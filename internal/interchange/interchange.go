// Package interchange converts records to stable encoded forms. Equal
// values always encode to identical bytes in every format offered here.
package interchange

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// Format names an encoding
type Format string

// Supported formats
const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatCBOR, FormatYAML:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format: %s (supported: json, cbor, yaml)", s)
	}
}

// Extension returns the file extension conventionally used for f
func (f Format) Extension() string {
	switch f {
	case FormatCBOR:
		return ".cbor"
	case FormatYAML:
		return ".yaml"
	default:
		return ""
	}
}

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map
// keys, smallest integer encoding, no indefinite-length items.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("interchange: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("interchange: CBOR decoder initialization failed: " + err.Error())
	}
}

// CanonicalJSON encodes v as RFC 8785 canonical JSON. This is the form
// that gets signed.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	canonical, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize json: %w", err)
	}
	return canonical, nil
}

// Encode encodes v in format f. JSON output is canonical and followed by a
// newline.
func Encode(f Format, v any) ([]byte, error) {
	switch f {
	case FormatJSON, "":
		data, err := CanonicalJSON(v)
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatCBOR:
		data, err := encMode.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal cbor: %w", err)
		}
		return data, nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown format: %s", f)
	}
}

// Decode decodes data in format f into v
func Decode(f Format, data []byte, v any) error {
	switch f {
	case FormatJSON, "":
		return json.Unmarshal(data, v)
	case FormatCBOR:
		return decMode.Unmarshal(data, v)
	case FormatYAML:
		return yaml.Unmarshal(data, v)
	default:
		return fmt.Errorf("unknown format: %s", f)
	}
}

// Detect guesses the format of data. JSON documents start with '{' after
// optional whitespace; CBOR maps start with a major type 5 byte.
func Detect(data []byte) Format {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	switch {
	case len(trimmed) > 0 && trimmed[0] == '{':
		return FormatJSON
	case len(data) > 0 && data[0]>>5 == 5:
		return FormatCBOR
	default:
		return FormatYAML
	}
}
