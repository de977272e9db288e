package wallet

import (
	"github.com/tokenized/milestone-escrow/pkg/cardano"
)

// Key is a stored signing key. Only the verification key is held in the clear.
type Key struct {
	Name            string            `json:"name"`
	VerificationKey cardano.PublicKey `json:"verification_key"`
	Encrypted       []byte            `json:"encrypted"`
}

// NewKey encrypts key with passphrase. key is not zeroed.
func NewKey(name string, key *cardano.Key, passphrase []byte) (*Key, error) {
	encrypted, err := EncryptKey(key, passphrase)
	if err != nil {
		return nil, err
	}

	return &Key{
		Name:            name,
		VerificationKey: key.PublicKey(),
		Encrypted:       encrypted,
	}, nil
}

// Hash returns the key hash of the verification key.
func (k *Key) Hash() cardano.Hash28 {
	return k.VerificationKey.Hash()
}

// Address returns the enterprise address of the key.
func (k *Key) Address(net cardano.Network) cardano.Address {
	return k.VerificationKey.EnterpriseAddress(net)
}
