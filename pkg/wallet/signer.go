package wallet

import (
	"context"

	"github.com/tokenized/milestone-escrow/pkg/cardano"

	"github.com/pkg/errors"
)

// Signer is one party's key. The signing key is only decrypted inside WithSigningKey.
type Signer struct {
	key        *Key
	passphrase []byte
	net        cardano.Network
}

// NewSigner returns a signer for an encrypted key.
func NewSigner(key *Key, passphrase []byte, net cardano.Network) *Signer {
	return &Signer{
		key:        key,
		passphrase: append([]byte{}, passphrase...),
		net:        net,
	}
}

// WithSigningKey decrypts the signing key, passes it to fn and zeroes it when fn returns, on
// every path.
func (s *Signer) WithSigningKey(ctx context.Context, fn func(*cardano.Key) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key, err := DecryptKey(s.key.Encrypted, s.passphrase)
	if err != nil {
		return errors.Wrapf(err, "decrypt %s", s.key.Name)
	}
	defer key.Zero()

	if key.PublicKey().Hash() != s.key.Hash() {
		return errors.Wrapf(ErrKeyMismatch, "%s", s.key.Name)
	}

	return fn(key)
}

// VerificationKey returns the public key of the signer.
func (s *Signer) VerificationKey(ctx context.Context) (cardano.PublicKey, error) {
	return s.key.VerificationKey, nil
}

// Address returns the enterprise address of a verification key on the signer's network.
func (s *Signer) Address(vkey cardano.PublicKey) cardano.Address {
	return vkey.EnterpriseAddress(s.net)
}

// Close zeroes the passphrase. The signer can't be used afterwards.
func (s *Signer) Close() {
	zero(s.passphrase)
	s.passphrase = nil
}
