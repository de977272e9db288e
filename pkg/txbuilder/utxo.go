package txbuilder

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/tokenized/milestone-escrow/pkg/cardano"
)

// UTXO holds all required UTXO details.
type UTXO struct {
	TxID    cardano.Hash32
	Index   uint32
	Address cardano.Address
	Value   cardano.Value

	// Datum is the CBOR of the inline datum, if the output carries one.
	Datum []byte

	// DatumHash is set when the output only commits to a datum by hash.
	DatumHash *cardano.Hash32

	// HasScript is set when the output carries a reference script.
	HasScript bool
}

// Ref returns the "txid#index" form of the output reference.
func (u UTXO) Ref() string {
	return fmt.Sprintf("%s#%d", u.TxID, u.Index)
}

// SameRef returns true when both refer to the same output.
func (u UTXO) SameRef(o UTXO) bool {
	return u.TxID.Equal(o.TxID) && u.Index == o.Index
}

// UTXOs is a list of UTXOs.
type UTXOs []UTXO

// Value returns the sum of the values.
func (us UTXOs) Value() cardano.Value {
	var result cardano.Value
	for _, u := range us {
		result = result.Add(u.Value)
	}
	return result
}

// Contains returns true if an output with the same reference is in the list.
func (us UTXOs) Contains(u UTXO) bool {
	for _, existing := range us {
		if existing.SameRef(u) {
			return true
		}
	}
	return false
}

// sortByRef puts inputs in ledger order, which redeemer indexes refer to.
func sortByRef(us []UTXO) {
	sort.SliceStable(us, func(i, j int) bool {
		c := bytes.Compare(us[i].TxID[:], us[j].TxID[:])
		if c != 0 {
			return c < 0
		}
		return us[i].Index < us[j].Index
	})
}

// sortByValue puts the largest lovelace amounts first.
func sortByValue(us []UTXO) {
	sort.SliceStable(us, func(i, j int) bool {
		return us[i].Value.Coin > us[j].Value.Coin
	})
}
