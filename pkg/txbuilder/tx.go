package txbuilder

import (
	"github.com/tokenized/milestone-escrow/pkg/cardano"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// Tx is a built, unsigned transaction. It is not modified after Build returns it. Signing
// produces a separate SignedTx.
type Tx struct {
	ID              cardano.Hash32
	Body            []byte // CBOR of the transaction body, which ID is the hash of
	Fee             uint64
	Inputs          []UTXO // in ledger order
	Outputs         []Output
	Collateral      []UTXO
	RequiredSigners []cardano.Hash28
	Script          cardano.PlutusV2Script
	Redeemers       []Redeemer
	ChangeAddress   cardano.Address
}

type txInput struct {
	_     struct{} `cbor:",toarray"`
	TxID  []byte
	Index uint32
}

type txBody struct {
	Inputs           []txInput         `cbor:"0,keyasint"`
	Outputs          []cbor.RawMessage `cbor:"1,keyasint"`
	Fee              uint64            `cbor:"2,keyasint"`
	ScriptDataHash   []byte            `cbor:"11,keyasint,omitempty"`
	Collateral       []txInput         `cbor:"13,keyasint,omitempty"`
	RequiredSigners  [][]byte          `cbor:"14,keyasint,omitempty"`
	CollateralReturn cbor.RawMessage   `cbor:"16,keyasint,omitempty"`
	TotalCollateral  uint64            `cbor:"17,keyasint,omitempty"`
}

type vkeyWitness struct {
	_         struct{} `cbor:",toarray"`
	VKey      []byte
	Signature []byte
}

type witnessSet struct {
	VKeyWitnesses   []vkeyWitness   `cbor:"0,keyasint,omitempty"`
	Redeemers       cbor.RawMessage `cbor:"5,keyasint,omitempty"`
	PlutusV2Scripts [][]byte        `cbor:"6,keyasint,omitempty"`
}

func toTxInputs(us []UTXO) []txInput {
	result := make([]txInput, 0, len(us))
	for _, u := range us {
		result = append(result, txInput{TxID: u.TxID.Bytes(), Index: u.Index})
	}
	return result
}

// InputIndex returns the position of an input in ledger order, or -1.
func (tx *Tx) InputIndex(u UTXO) int {
	for i, input := range tx.Inputs {
		if input.SameRef(u) {
			return i
		}
	}
	return -1
}

// InputValue returns the sum of the values of the inputs.
func (tx *Tx) InputValue() cardano.Value {
	return UTXOs(tx.Inputs).Value()
}

// OutputValue returns the sum of the values of the outputs.
func (tx *Tx) OutputValue(includeChange bool) cardano.Value {
	var result cardano.Value
	for _, output := range tx.Outputs {
		if includeChange || !output.IsChange {
			result = result.Add(output.Value)
		}
	}
	return result
}

// ChangeOutput returns the change output, if there is one.
func (tx *Tx) ChangeOutput() *Output {
	for i := range tx.Outputs {
		if tx.Outputs[i].IsChange {
			return &tx.Outputs[i]
		}
	}
	return nil
}

// Bytes returns the transaction without key witnesses. This is the form that is submitted for
// script evaluation.
func (tx *Tx) Bytes() ([]byte, error) {
	return tx.serialize(nil)
}

func (tx *Tx) serialize(witnesses []vkeyWitness) ([]byte, error) {
	ws := witnessSet{VKeyWitnesses: witnesses}

	if len(tx.Redeemers) > 0 {
		if len(tx.Script) == 0 {
			return nil, newError(ErrorCodeMissingScript, "redeemers without script")
		}

		redeemers, err := encodeRedeemers(tx.Redeemers)
		if err != nil {
			return nil, err
		}
		ws.Redeemers = redeemers
		ws.PlutusV2Scripts = [][]byte{tx.Script}
	}

	wsb, err := cardanoCanonical(ws)
	if err != nil {
		return nil, errors.Wrap(err, "witness set")
	}

	return cbor.Marshal([]interface{}{
		cbor.RawMessage(tx.Body),
		cbor.RawMessage(wsb),
		true,
		nil,
	})
}

func cardanoCanonical(v interface{}) ([]byte, error) {
	return cardano.CanonicalMarshal(v)
}
