package cardano

import (
	"bytes"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

const (
	// scriptTagPlutusV2 prefixes the script bytes when hashing.
	scriptTagPlutusV2 = 0x02

	PlutusV2EnvelopeType = "PlutusScriptV2"
)

var ErrBadScript = errors.New("Script is invalid")

// PlutusV2Script is a serialized Plutus V2 validator, as carried in the witness set.
type PlutusV2Script []byte

// LoadPlutusV2Script reads a script from a text envelope, or from its raw CBOR serialization when
// the data is not JSON.
func LoadPlutusV2Script(data []byte) (PlutusV2Script, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.Wrap(ErrBadScript, "empty")
	}

	if trimmed[0] == '{' {
		envType, payload, err := ParseEnvelope(trimmed)
		if err != nil {
			return nil, err
		}
		if envType != PlutusV2EnvelopeType {
			return nil, errors.Wrapf(ErrBadScript, "envelope type %s", envType)
		}
		return PlutusV2Script(payload), nil
	}

	// Raw form is the CBOR byte string wrapping the script.
	var payload []byte
	if err := cbor.Unmarshal(trimmed, &payload); err != nil {
		return nil, errors.Wrap(ErrBadScript, err.Error())
	}
	return PlutusV2Script(payload), nil
}

// Hash returns the script hash, which is the payment credential of the script address.
func (s PlutusV2Script) Hash() Hash28 {
	return Blake2b224(append([]byte{scriptTagPlutusV2}, s...))
}

// Address returns the enterprise script address on a network.
func (s PlutusV2Script) Address(net Network) Address {
	return NewEnterpriseAddress(s.Hash(), true, net)
}
