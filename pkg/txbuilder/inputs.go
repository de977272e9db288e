package txbuilder

import (
	"github.com/tokenized/milestone-escrow/pkg/plutus"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// RedeemerTag identifies what a redeemer is for.
type RedeemerTag uint8

const (
	RedeemerTagSpend RedeemerTag = 0
	RedeemerTagMint  RedeemerTag = 1
)

func (t RedeemerTag) String() string {
	switch t {
	case RedeemerTagSpend:
		return "spend"
	case RedeemerTagMint:
		return "mint"
	}
	return "unknown"
}

// Redeemer is the data and budget supplied for one script execution. Index refers to the
// position of the spent input in the sorted input set.
type Redeemer struct {
	Tag     RedeemerTag
	Index   uint32
	Data    plutus.Data
	ExUnits ExUnits
}

// ScriptInput is an input locked by the builder's script.
type ScriptInput struct {
	UTXO     UTXO
	Redeemer plutus.Data
}

func encodeRedeemers(redeemers []Redeemer) ([]byte, error) {
	items := make([]cbor.RawMessage, 0, len(redeemers))
	for _, r := range redeemers {
		data, err := plutus.Encode(r.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "redeemer %s %d", r.Tag, r.Index)
		}

		item, err := cbor.Marshal([]interface{}{
			uint8(r.Tag),
			r.Index,
			cbor.RawMessage(data),
			[]uint64{r.ExUnits.Mem, r.ExUnits.Steps},
		})
		if err != nil {
			return nil, errors.Wrap(err, "redeemer")
		}
		items = append(items, item)
	}

	return cbor.Marshal(items)
}

// languageViews returns the cost model encoding the script data hash commits to.
func languageViews(costModel []int64) ([]byte, error) {
	if costModel == nil {
		costModel = []int64{}
	}
	return cardanoCanonical(map[uint64][]int64{PlutusV2Language: costModel})
}

// Evaluation is the execution budget a node reported for one redeemer.
type Evaluation struct {
	Tag     RedeemerTag
	Index   uint32
	ExUnits ExUnits
}
