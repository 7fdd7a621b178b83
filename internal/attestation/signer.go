package attestation

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"os"

	"github.com/sigstore/sigstore/pkg/cryptoutils"
	"github.com/sigstore/sigstore/pkg/signature"

	"github.com/felixgeelhaar/linkrun/internal/errors"
)

// Signer is the interface for signing links
type Signer interface {
	// Sign generates a signature over data
	Sign(data []byte) ([]byte, error)

	// KeyID identifies the key a verifier needs
	KeyID() string
}

// KeySigner signs with an ECDSA, Ed25519 or RSA private key
type KeySigner struct {
	signer       signature.SignerVerifier
	publicKeyPEM []byte
	keyID        string
}

// LoadKeySignerFromFile reads a PEM private key. An empty password means
// the key is not encrypted.
func LoadKeySignerFromFile(path string, password []byte) (*KeySigner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeKeyInvalid, "failed to read key file", err).WithPath(path)
	}
	priv, err := cryptoutils.UnmarshalPEMToPrivateKey(data, passwordFunc(password))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeKeyInvalid, "failed to parse private key", err).WithPath(path)
	}
	return newKeySigner(priv)
}

// LoadKeySigner parses a PEM private key
func LoadKeySigner(pemBytes []byte, password []byte) (*KeySigner, error) {
	priv, err := cryptoutils.UnmarshalPEMToPrivateKey(pemBytes, passwordFunc(password))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeKeyInvalid, "failed to parse private key", err)
	}
	return newKeySigner(priv)
}

// NewEphemeralSigner generates a throwaway P-256 key. Links it signs can
// only be verified by whoever receives PublicKeyPEM alongside them.
func NewEphemeralSigner() (*KeySigner, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeKeyInvalid, "failed to generate key", err)
	}
	return newKeySigner(priv)
}

func passwordFunc(password []byte) cryptoutils.PassFunc {
	if len(password) == 0 {
		return cryptoutils.SkipPassword
	}
	return cryptoutils.StaticPasswordFunc(password)
}

func newKeySigner(priv crypto.PrivateKey) (*KeySigner, error) {
	sv, err := signature.LoadSignerVerifier(priv, crypto.SHA256)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeKeyInvalid, "failed to create signer", err)
	}

	pub, err := sv.PublicKey()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeKeyInvalid, "failed to get public key", err)
	}
	pubPEM, err := cryptoutils.MarshalPublicKeyToPEM(pub)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeKeyInvalid, "failed to marshal public key", err)
	}

	return &KeySigner{
		signer:       sv,
		publicKeyPEM: pubPEM,
		keyID:        KeyID(pubPEM),
	}, nil
}

// PublicKeyID derives the key identifier from a parsed public key, so the
// armor and line endings of the file it came from do not matter.
func PublicKeyID(pub crypto.PublicKey) (string, error) {
	pubPEM, err := cryptoutils.MarshalPublicKeyToPEM(pub)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeKeyInvalid, "failed to marshal public key", err)
	}
	return KeyID(pubPEM), nil
}

// Sign generates a signature for the data
func (s *KeySigner) Sign(data []byte) ([]byte, error) {
	sig, err := s.signer.SignMessage(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSignFailed, "failed to sign", err)
	}
	return sig, nil
}

// KeyID returns the hex SHA-256 of the PEM public key
func (s *KeySigner) KeyID() string {
	return s.keyID
}

// PublicKeyPEM returns the PEM-encoded public key
func (s *KeySigner) PublicKeyPEM() []byte {
	return s.publicKeyPEM
}

// KeyID hashes a PKIX PEM public key as produced by MarshalPublicKeyToPEM.
// Use PublicKeyID for keys read from user files.
func KeyID(publicKeyPEM []byte) string {
	sum := sha256.Sum256(publicKeyPEM)
	return hex.EncodeToString(sum[:])
}

// Sign appends a signature by s over the metablock's payload
func (m *Metablock) Sign(s Signer) error {
	payload, err := m.Payload()
	if err != nil {
		return errors.Wrap(errors.ErrCodeSignFailed, "failed to encode link for signing", err)
	}

	sig, err := s.Sign(payload)
	if err != nil {
		return err
	}

	m.Signatures = append(m.Signatures, Signature{
		KeyID: s.KeyID(),
		Sig:   hex.EncodeToString(sig),
	})
	return nil
}

// Compile-time verification that KeySigner implements Signer
var _ Signer = (*KeySigner)(nil)
