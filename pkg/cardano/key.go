package cardano

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrBadKeyLength = errors.New("Key has invalid length")
	ErrBadKeyType   = errors.New("Key envelope has wrong type")
)

const (
	SigningKeyEnvelopeType      = "PaymentSigningKeyShelley_ed25519"
	VerificationKeyEnvelopeType = "PaymentVerificationKeyShelley_ed25519"
)

// Key is an ed25519 payment signing key.
type Key struct {
	key ed25519.PrivateKey
}

// GenerateKey randomly generates a new key.
func GenerateKey() (*Key, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "generate")
	}
	return &Key{key: priv}, nil
}

// KeyFromSeed creates a key from the 32 byte seed stored in signing key files.
func KeyFromSeed(seed []byte) (*Key, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, errors.Wrapf(ErrBadKeyLength, "seed %d", len(seed))
	}
	return &Key{key: ed25519.NewKeyFromSeed(seed)}, nil
}

// ParseSigningKeyEnvelope reads a signing key text envelope.
func ParseSigningKeyEnvelope(data []byte) (*Key, error) {
	envType, payload, err := ParseEnvelope(data)
	if err != nil {
		return nil, err
	}
	defer zero(payload)

	if !strings.HasPrefix(envType, "PaymentSigningKey") {
		return nil, errors.Wrap(ErrBadKeyType, envType)
	}

	return KeyFromSeed(payload)
}

// Envelope returns the key as a signing key text envelope.
func (k *Key) Envelope() ([]byte, error) {
	return NewEnvelope(SigningKeyEnvelopeType, "Payment Signing Key", k.key.Seed())
}

// PublicKey returns the verification key.
func (k *Key) PublicKey() PublicKey {
	return PublicKey{key: k.key.Public().(ed25519.PublicKey)}
}

// Sign signs a hash.
func (k *Key) Sign(hash []byte) []byte {
	return ed25519.Sign(k.key, hash)
}

// Zero overwrites the key material. The key is unusable afterwards.
func (k *Key) Zero() {
	zero(k.key)
	k.key = nil
}

// IsZero returns true once Zero has been called.
func (k *Key) IsZero() bool {
	return len(k.key) == 0
}

// PublicKey is an ed25519 payment verification key.
type PublicKey struct {
	key ed25519.PublicKey
}

// PublicKeyFromBytes creates a verification key from its 32 bytes.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	if len(b) != ed25519.PublicKeySize {
		return PublicKey{}, errors.Wrapf(ErrBadKeyLength, "public key %d", len(b))
	}
	return PublicKey{key: append(ed25519.PublicKey{}, b...)}, nil
}

// ParseVerificationKeyEnvelope reads a verification key text envelope.
func ParseVerificationKeyEnvelope(data []byte) (PublicKey, error) {
	envType, payload, err := ParseEnvelope(data)
	if err != nil {
		return PublicKey{}, err
	}

	if !strings.HasPrefix(envType, "PaymentVerificationKey") {
		return PublicKey{}, errors.Wrap(ErrBadKeyType, envType)
	}

	return PublicKeyFromBytes(payload)
}

// Envelope returns the key as a verification key text envelope.
func (k PublicKey) Envelope() ([]byte, error) {
	return NewEnvelope(VerificationKeyEnvelopeType, "Payment Verification Key", k.key)
}

// Bytes returns the 32 key bytes.
func (k PublicKey) Bytes() []byte {
	return k.key
}

func (k PublicKey) String() string {
	return hex.EncodeToString(k.key)
}

// Hash returns the key hash used as a payment credential.
func (k PublicKey) Hash() Hash28 {
	return Blake2b224(k.key)
}

// Verify returns true if sig is a valid signature of hash by this key.
func (k PublicKey) Verify(hash, sig []byte) bool {
	if len(k.key) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(k.key, hash, sig)
}

// PublicKeyFromStr creates a verification key from hex.
func PublicKeyFromStr(s string) (PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return PublicKey{}, errors.Wrap(err, "hex")
	}
	return PublicKeyFromBytes(b)
}

// MarshalJSON converts to json.
func (k PublicKey) MarshalJSON() ([]byte, error) {
	return []byte("\"" + k.String() + "\""), nil
}

// UnmarshalJSON converts from json.
func (k *PublicKey) UnmarshalJSON(data []byte) error {
	if len(data) < 2 {
		return errors.Wrap(ErrBadKeyLength, "json")
	}

	pk, err := PublicKeyFromStr(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*k = pk
	return nil
}

// EnterpriseAddress returns the key's address without a delegation part.
func (k PublicKey) EnterpriseAddress(net Network) Address {
	return NewEnterpriseAddress(k.Hash(), false, net)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
