package cardano

import (
	"encoding/hex"
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// Envelope is the JSON text envelope the node tooling writes keys and scripts in.
type Envelope struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	CborHex     string `json:"cborHex"`
}

// ParseEnvelope reads a text envelope and returns its type and the payload of the CBOR byte
// string it wraps.
func ParseEnvelope(data []byte) (string, []byte, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, errors.Wrap(err, "envelope json")
	}

	raw, err := hex.DecodeString(env.CborHex)
	if err != nil {
		return "", nil, errors.Wrap(err, "envelope hex")
	}

	var payload []byte
	if err := cbor.Unmarshal(raw, &payload); err != nil {
		return "", nil, errors.Wrap(err, "envelope cbor")
	}

	return env.Type, payload, nil
}

// NewEnvelope wraps payload as a CBOR byte string in a text envelope.
func NewEnvelope(envType, description string, payload []byte) ([]byte, error) {
	raw, err := cbor.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "envelope cbor")
	}

	return json.MarshalIndent(Envelope{
		Type:        envType,
		Description: description,
		CborHex:     hex.EncodeToString(raw),
	}, "", "    ")
}
