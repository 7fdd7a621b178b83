package attestation

import (
	"bytes"
	"crypto"
	"encoding/hex"
	"os"

	"github.com/sigstore/sigstore/pkg/cryptoutils"
	"github.com/sigstore/sigstore/pkg/signature"

	"github.com/felixgeelhaar/linkrun/internal/errors"
)

// Verifier checks metablock signatures against a set of trusted public keys
type Verifier struct {
	keys           map[string]signature.Verifier
	threshold      int
	requireSuccess bool
}

// VerifierOption is a functional option for configuring the verifier
type VerifierOption func(*Verifier)

// WithThreshold sets how many distinct trusted keys must have signed
func WithThreshold(n int) VerifierOption {
	return func(v *Verifier) {
		if n > 0 {
			v.threshold = n
		}
	}
}

// WithRequireSuccess rejects links whose command did not exit with status 0
func WithRequireSuccess(require bool) VerifierOption {
	return func(v *Verifier) {
		v.requireSuccess = require
	}
}

// NewVerifier creates a verifier trusting the given PEM public keys
func NewVerifier(publicKeysPEM [][]byte, opts ...VerifierOption) (*Verifier, error) {
	v := &Verifier{
		keys:      make(map[string]signature.Verifier, len(publicKeysPEM)),
		threshold: 1,
	}

	for _, pemBytes := range publicKeysPEM {
		pub, err := cryptoutils.UnmarshalPEMToPublicKey(pemBytes)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeKeyInvalid, "failed to parse public key", err)
		}
		sv, err := signature.LoadVerifier(pub, crypto.SHA256)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeKeyInvalid, "failed to load verifier", err)
		}
		keyID, err := PublicKeyID(pub)
		if err != nil {
			return nil, err
		}
		v.keys[keyID] = sv
	}

	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// NewVerifierFromFiles reads PEM public keys from disk
func NewVerifierFromFiles(paths []string, opts ...VerifierOption) (*Verifier, error) {
	keys := make([][]byte, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeKeyInvalid, "failed to read public key", err).WithPath(p)
		}
		keys = append(keys, data)
	}
	return NewVerifier(keys, opts...)
}

// Verify checks that enough trusted keys signed m. Signatures by unknown
// keys are ignored; a bad signature by a trusted key fails verification.
func (v *Verifier) Verify(m *Metablock) error {
	if !m.IsSigned() {
		return errors.New(errors.ErrCodeVerifyFailed, "link is not signed").
			WithSuggestion("Re-record the step with --key or --ephemeral-key")
	}

	payload, err := m.Payload()
	if err != nil {
		return errors.Wrap(errors.ErrCodeVerifyFailed, "failed to encode link", err)
	}

	valid := make(map[string]bool)
	for _, sig := range m.Signatures {
		sv, ok := v.keys[sig.KeyID]
		if !ok {
			continue
		}
		raw, err := hex.DecodeString(sig.Sig)
		if err != nil {
			return errors.Wrap(errors.ErrCodeVerifyFailed, "signature is not hex encoded", err)
		}
		if err := sv.VerifySignature(bytes.NewReader(raw), bytes.NewReader(payload)); err != nil {
			return errors.Wrap(errors.ErrCodeVerifyFailed, "signature verification failed", err)
		}
		valid[sig.KeyID] = true
	}

	if len(valid) < v.threshold {
		return errors.New(errors.ErrCodeVerifyFailed, "not enough trusted signatures").
			WithSuggestion("Check that --key names the public key the step was signed with")
	}

	if v.requireSuccess && !m.Signed.Byproducts.Succeeded() {
		return errors.New(errors.ErrCodeVerifyFailed, "recorded command did not succeed: return-value "+m.Signed.Byproducts.ReturnValue)
	}
	return nil
}

// Verify checks m against a single PEM public key
func Verify(m *Metablock, publicKeyPEM []byte) error {
	v, err := NewVerifier([][]byte{publicKeyPEM})
	if err != nil {
		return err
	}
	return v.Verify(m)
}
