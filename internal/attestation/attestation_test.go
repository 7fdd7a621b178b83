package attestation

import (
	"strings"
	"testing"

	"github.com/felixgeelhaar/linkrun/internal/artifact"
	"github.com/felixgeelhaar/linkrun/internal/exec"
	"github.com/felixgeelhaar/linkrun/internal/hashalg"
	"github.com/felixgeelhaar/linkrun/internal/interchange"
)

func testLink() Link {
	return Link{
		Type:    LinkType,
		Name:    "build",
		Command: []string{"make", "all"},
		Materials: artifact.Map{
			"src/main.c": hashalg.Digests{"sha256": strings.Repeat("a", 64)},
		},
		Products: artifact.Map{
			"src/main.c": hashalg.Digests{"sha256": strings.Repeat("a", 64)},
			"bin/app":    hashalg.Digests{"sha256": strings.Repeat("b", 64)},
		},
		Byproducts: exec.Byproducts{Stdout: "ok\n", Stderr: "", ReturnValue: "0"},
		Environment: map[string]string{
			EnvPlatform: "linux",
		},
	}
}

func TestNewUnsigned(t *testing.T) {
	m := NewUnsigned(testLink())
	if m.IsSigned() {
		t.Error("new metablock should be unsigned")
	}
	if m.Signatures == nil {
		t.Error("signatures should encode as an empty list, not null")
	}

	data, err := m.Encode(interchange.FormatJSON)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	if !strings.Contains(string(data), `"signatures":[]`) {
		t.Errorf("expected empty signatures list in %s", data)
	}
}

func TestPayloadIsCanonical(t *testing.T) {
	m := NewUnsigned(testLink())

	first, err := m.Payload()
	if err != nil {
		t.Fatalf("Failed to build payload: %v", err)
	}
	second, err := NewUnsigned(testLink()).Payload()
	if err != nil {
		t.Fatalf("Failed to build payload: %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("payload not stable:\n%s\n%s", first, second)
	}
	if !strings.HasPrefix(string(first), `{"_type":"link","byproducts":{"return-value":"0","stderr":"","stdout":"ok\n"}`) {
		t.Errorf("unexpected payload prefix: %s", first)
	}
}

func TestFilename(t *testing.T) {
	m := NewUnsigned(testLink())
	if got := m.Filename(interchange.FormatJSON); got != "build.link" {
		t.Errorf("unsigned filename = %q", got)
	}

	m.Signatures = append(m.Signatures, Signature{KeyID: "0123456789abcdef", Sig: "00"})
	tests := map[interchange.Format]string{
		interchange.FormatJSON: "build.01234567.link",
		interchange.FormatCBOR: "build.01234567.link.cbor",
		interchange.FormatYAML: "build.01234567.link.yaml",
	}
	for format, want := range tests {
		if got := m.Filename(format); got != want {
			t.Errorf("Filename(%s) = %q, want %q", format, got, want)
		}
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	for _, format := range []interchange.Format{interchange.FormatJSON, interchange.FormatCBOR, interchange.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			m := NewUnsigned(testLink())
			m.Signatures = append(m.Signatures, Signature{KeyID: "abc", Sig: "def0"})

			data, err := m.Encode(format)
			if err != nil {
				t.Fatalf("Failed to encode: %v", err)
			}
			decoded, err := Decode(data)
			if err != nil {
				t.Fatalf("Failed to decode: %v", err)
			}

			want, _ := m.Payload()
			got, _ := decoded.Payload()
			if string(want) != string(got) {
				t.Errorf("payload changed across %s round trip:\n%s\n%s", format, want, got)
			}
			if len(decoded.Signatures) != 1 || decoded.Signatures[0].KeyID != "abc" {
				t.Errorf("signatures not preserved: %+v", decoded.Signatures)
			}
		})
	}
}

func TestDecodeRejectsWrongType(t *testing.T) {
	_, err := Decode([]byte(`{"signed":{"_type":"layout"},"signatures":[]}`))
	if err == nil {
		t.Fatal("expected error for non-link metablock")
	}
}
