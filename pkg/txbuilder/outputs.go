package txbuilder

import (
	"github.com/tokenized/milestone-escrow/pkg/cardano"

	"github.com/fxamacker/cbor/v2"
)

const (
	datumOptionInline = 1

	// tagEncodedCBOR marks a byte string holding CBOR.
	tagEncodedCBOR = 24
)

// Output is a transaction output. Datum is the CBOR of an inline datum, or nil.
type Output struct {
	Address cardano.Address
	Value   cardano.Value
	Datum   []byte

	// IsChange marks the output the builder added for the remaining value.
	IsChange bool
}

type outputEncoding struct {
	Address []byte        `cbor:"0,keyasint"`
	Value   cardano.Value `cbor:"1,keyasint"`
	Datum   []interface{} `cbor:"2,keyasint,omitempty"`
}

// MarshalCBOR encodes the output in the post-Alonzo map form.
func (o Output) MarshalCBOR() ([]byte, error) {
	enc := outputEncoding{
		Address: o.Address.Bytes(),
		Value:   o.Value,
	}

	if o.Datum != nil {
		enc.Datum = []interface{}{
			datumOptionInline,
			cbor.Tag{Number: tagEncodedCBOR, Content: o.Datum},
		}
	}

	return cardano.CanonicalMarshal(enc)
}
