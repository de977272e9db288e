package cardano

import "github.com/fxamacker/cbor/v2"

// canonical sorts map keys so encodings are deterministic.
var canonical cbor.EncMode

func init() {
	em, err := cbor.EncOptions{Sort: cbor.SortCanonical}.EncMode()
	if err != nil {
		panic(err)
	}
	canonical = em
}

// CanonicalMarshal encodes v with map keys in canonical order.
func CanonicalMarshal(v interface{}) ([]byte, error) {
	return canonical.Marshal(v)
}
