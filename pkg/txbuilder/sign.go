package txbuilder

import (
	"fmt"

	"github.com/tokenized/milestone-escrow/pkg/cardano"

	"github.com/pkg/errors"
)

// SignedTx is a transaction with key witnesses attached.
type SignedTx struct {
	Tx        *Tx
	witnesses []vkeyWitness
}

// Sign returns a new SignedTx with a witness from key. The key must hash to one of the required
// signers when any are declared. tx is not modified.
func (tx *Tx) Sign(key *cardano.Key) (*SignedTx, error) {
	return Sign(&SignedTx{Tx: tx}, key)
}

// Sign adds a witness from key to a copy of signed.
func Sign(signed *SignedTx, key *cardano.Key) (*SignedTx, error) {
	if key == nil || key.IsZero() {
		return nil, newError(ErrorCodeMissingPrivateKey, "")
	}

	tx := signed.Tx
	if len(tx.Body) == 0 {
		return nil, errors.New("transaction not built")
	}

	publicKey := key.PublicKey()
	keyHash := publicKey.Hash()
	if len(tx.RequiredSigners) > 0 {
		found := false
		for _, signer := range tx.RequiredSigners {
			if signer.Equal(keyHash) {
				found = true
				break
			}
		}
		if !found {
			return nil, newError(ErrorCodeWrongPrivateKey, fmt.Sprintf("key hash %s", keyHash))
		}
	}

	id := cardano.Blake2b256(tx.Body)
	witness := vkeyWitness{
		VKey:      publicKey.Bytes(),
		Signature: key.Sign(id.Bytes()),
	}

	result := &SignedTx{Tx: tx}
	for _, existing := range signed.witnesses {
		if string(existing.VKey) == string(witness.VKey) {
			continue // replaced
		}
		result.witnesses = append(result.witnesses, existing)
	}
	result.witnesses = append(result.witnesses, witness)

	return result, nil
}

// ID returns the transaction id.
func (s *SignedTx) ID() cardano.Hash32 {
	return s.Tx.ID
}

// Bytes returns the serialized transaction ready for submission.
func (s *SignedTx) Bytes() ([]byte, error) {
	return s.Tx.serialize(s.witnesses)
}

// SignerHashes returns the key hashes of the attached witnesses.
func (s *SignedTx) SignerHashes() []cardano.Hash28 {
	var result []cardano.Hash28
	for _, w := range s.witnesses {
		result = append(result, cardano.Blake2b224(w.VKey))
	}
	return result
}

// IsSigned returns true when every required signer has a valid witness over the body. A
// transaction without required signers must have at least one valid witness.
func (s *SignedTx) IsSigned() bool {
	if len(s.witnesses) == 0 {
		return false
	}

	id := cardano.Blake2b256(s.Tx.Body)
	valid := make(map[cardano.Hash28]bool)
	for _, w := range s.witnesses {
		pk, err := cardano.PublicKeyFromBytes(w.VKey)
		if err != nil {
			return false
		}
		if !pk.Verify(id.Bytes(), w.Signature) {
			return false
		}
		valid[pk.Hash()] = true
	}

	for _, signer := range s.Tx.RequiredSigners {
		if !valid[signer] {
			return false
		}
	}
	return true
}
