// Package attestation defines the link record, its signed envelope, and the
// signers and verifiers that operate on it.
package attestation

import (
	"fmt"

	"github.com/felixgeelhaar/linkrun/internal/artifact"
	"github.com/felixgeelhaar/linkrun/internal/exec"
	"github.com/felixgeelhaar/linkrun/internal/interchange"
)

// LinkType is the _type of every link record
const LinkType = "link"

// Link is the evidence for one supply-chain step: what existed before the
// command ran, what the command printed and returned, and what existed
// after it finished.
type Link struct {
	Type        string            `json:"_type" yaml:"_type" cbor:"_type"`
	Name        string            `json:"name" yaml:"name" cbor:"name"`
	Command     []string          `json:"command" yaml:"command" cbor:"command"`
	Materials   artifact.Map      `json:"materials" yaml:"materials" cbor:"materials"`
	Products    artifact.Map      `json:"products" yaml:"products" cbor:"products"`
	Byproducts  exec.Byproducts   `json:"byproducts" yaml:"byproducts" cbor:"byproducts"`
	Environment map[string]string `json:"environment" yaml:"environment" cbor:"environment"`
}

// Signature is one signature over the canonical JSON of a Metablock's
// signed part. Sig is hex encoded.
type Signature struct {
	KeyID string `json:"keyid" yaml:"keyid" cbor:"keyid"`
	Sig   string `json:"sig" yaml:"sig" cbor:"sig"`
}

// Metablock wraps a Link with zero or more signatures. A Metablock without
// signatures is for local inspection only and must not be trusted.
type Metablock struct {
	Signed     Link        `json:"signed" yaml:"signed" cbor:"signed"`
	Signatures []Signature `json:"signatures" yaml:"signatures" cbor:"signatures"`
}

// NewUnsigned wraps link without signing it
func NewUnsigned(link Link) *Metablock {
	return &Metablock{Signed: link, Signatures: []Signature{}}
}

// IsSigned reports whether at least one signature is attached
func (m *Metablock) IsSigned() bool {
	return len(m.Signatures) > 0
}

// Payload returns the canonical bytes that signatures cover
func (m *Metablock) Payload() ([]byte, error) {
	return interchange.CanonicalJSON(m.Signed)
}

// Encode serializes the metablock in format f
func (m *Metablock) Encode(f interchange.Format) ([]byte, error) {
	return interchange.Encode(f, m)
}

// Filename returns the conventional file name: NAME.KEYID8.link for a
// signed link, NAME.link otherwise, plus the format's extension.
func (m *Metablock) Filename(f interchange.Format) string {
	name := m.Signed.Name
	if m.IsSigned() {
		keyID := m.Signatures[0].KeyID
		if len(keyID) > 8 {
			keyID = keyID[:8]
		}
		name = fmt.Sprintf("%s.%s", name, keyID)
	}
	return name + ".link" + f.Extension()
}

// Decode parses a metablock, detecting its format
func Decode(data []byte) (*Metablock, error) {
	var m Metablock
	if err := interchange.Decode(interchange.Detect(data), data, &m); err != nil {
		return nil, fmt.Errorf("decode link: %w", err)
	}
	if m.Signed.Type != LinkType {
		return nil, fmt.Errorf("decode link: unexpected _type %q", m.Signed.Type)
	}
	return &m, nil
}
