package plutus

import (
	"bytes"
	"math/big"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

const (
	// Constructors 0-6 use tags 121-127, 7-127 use 1280-1400 and anything else uses the general
	// form tag 102 [index, fields].
	tagConstrSmall   = 121
	tagConstrLarge   = 1280
	tagConstrGeneral = 102

	tagPositiveBignum = 2
	tagNegativeBignum = 3

	// Byte strings longer than this are split into chunks.
	maxBytesChunk = 64
)

const (
	majorUnsigned = 0
	majorNegative = 1
	majorBytes    = 2
	majorArray    = 4
	majorMap      = 5
	majorTag      = 6
)

var (
	ErrMalformed   = errors.New("Malformed data")
	ErrUnsupported = errors.New("Unsupported data")
)

// Encode returns the CBOR encoding of a data value. Encoding is deterministic: the same value
// always produces the same bytes.
func Encode(d Data) ([]byte, error) {
	switch v := d.(type) {
	case Constr:
		fields, err := encodeAll(v.Fields)
		if err != nil {
			return nil, err
		}

		switch {
		case v.Index < 7:
			return cbor.Marshal(cbor.Tag{Number: tagConstrSmall + v.Index, Content: fields})
		case v.Index < 128:
			return cbor.Marshal(cbor.Tag{Number: tagConstrLarge + v.Index - 7, Content: fields})
		default:
			return cbor.Marshal(cbor.Tag{Number: tagConstrGeneral,
				Content: []interface{}{v.Index, fields}})
		}

	case Integer:
		if v.Value == nil {
			return nil, errors.Wrap(ErrMalformed, "nil integer")
		}
		return cbor.Marshal(v.Value)

	case Bytes:
		return encodeBytes(v)

	case List:
		items, err := encodeAll(v)
		if err != nil {
			return nil, err
		}
		return cbor.Marshal(items)

	case nil:
		return nil, errors.Wrap(ErrMalformed, "nil data")
	}

	return nil, errors.Wrapf(ErrUnsupported, "%T", d)
}

func encodeAll(items []Data) ([]cbor.RawMessage, error) {
	result := make([]cbor.RawMessage, 0, len(items))
	for i, item := range items {
		b, err := Encode(item)
		if err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}
		result = append(result, b)
	}
	return result, nil
}

func encodeBytes(b []byte) ([]byte, error) {
	if len(b) <= maxBytesChunk {
		return cbor.Marshal([]byte(b))
	}

	var buf bytes.Buffer
	buf.WriteByte(0x5f) // indefinite length byte string
	for len(b) > 0 {
		n := maxBytesChunk
		if len(b) < n {
			n = len(b)
		}
		chunk, err := cbor.Marshal(b[:n])
		if err != nil {
			return nil, err
		}
		buf.Write(chunk)
		b = b[n:]
	}
	buf.WriteByte(0xff)
	return buf.Bytes(), nil
}

// Decode parses the CBOR encoding of a data value. Trailing bytes, unknown tags and maps are
// rejected.
func Decode(raw []byte) (Data, error) {
	if len(raw) == 0 {
		return nil, errors.Wrap(ErrMalformed, "empty")
	}

	switch raw[0] >> 5 {
	case majorUnsigned:
		var u uint64
		if err := cbor.Unmarshal(raw, &u); err != nil {
			return nil, errors.Wrap(ErrMalformed, err.Error())
		}
		return NewUintInteger(u), nil

	case majorNegative:
		// The encoded argument n represents -1-n.
		positive := append([]byte{raw[0] &^ 0x20}, raw[1:]...)
		var u uint64
		if err := cbor.Unmarshal(positive, &u); err != nil {
			return nil, errors.Wrap(ErrMalformed, err.Error())
		}
		v := new(big.Int).SetUint64(u)
		return Integer{Value: v.Neg(v).Sub(v, big.NewInt(1))}, nil

	case majorBytes:
		var b []byte
		if err := cbor.Unmarshal(raw, &b); err != nil {
			return nil, errors.Wrap(ErrMalformed, err.Error())
		}
		if b == nil {
			b = []byte{}
		}
		return Bytes(b), nil

	case majorArray:
		items, err := decodeArray(raw)
		if err != nil {
			return nil, err
		}
		return List(items), nil

	case majorTag:
		var tag cbor.RawTag
		if err := cbor.Unmarshal(raw, &tag); err != nil {
			return nil, errors.Wrap(ErrMalformed, err.Error())
		}
		return decodeTag(tag)

	case majorMap:
		return nil, errors.Wrap(ErrUnsupported, "map")
	}

	return nil, errors.Wrapf(ErrMalformed, "major type %d", raw[0]>>5)
}

func decodeArray(raw []byte) ([]Data, error) {
	var items []cbor.RawMessage
	if err := cbor.Unmarshal(raw, &items); err != nil {
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}

	result := make([]Data, 0, len(items))
	for i, item := range items {
		d, err := Decode(item)
		if err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}
		result = append(result, d)
	}
	return result, nil
}

func decodeTag(tag cbor.RawTag) (Data, error) {
	switch {
	case tag.Number >= tagConstrSmall && tag.Number < tagConstrSmall+7:
		fields, err := decodeArray(tag.Content)
		if err != nil {
			return nil, errors.Wrapf(err, "constr %d", tag.Number-tagConstrSmall)
		}
		return NewConstr(tag.Number-tagConstrSmall, fields...), nil

	case tag.Number >= tagConstrLarge && tag.Number < tagConstrLarge+121:
		fields, err := decodeArray(tag.Content)
		if err != nil {
			return nil, errors.Wrapf(err, "constr %d", tag.Number-tagConstrLarge+7)
		}
		return NewConstr(tag.Number-tagConstrLarge+7, fields...), nil

	case tag.Number == tagConstrGeneral:
		var parts []cbor.RawMessage
		if err := cbor.Unmarshal(tag.Content, &parts); err != nil {
			return nil, errors.Wrap(ErrMalformed, err.Error())
		}
		if len(parts) != 2 {
			return nil, errors.Wrapf(ErrMalformed, "general constr has %d parts", len(parts))
		}
		var index uint64
		if err := cbor.Unmarshal(parts[0], &index); err != nil {
			return nil, errors.Wrap(ErrMalformed, "constr index")
		}
		fields, err := decodeArray(parts[1])
		if err != nil {
			return nil, errors.Wrapf(err, "constr %d", index)
		}
		return NewConstr(index, fields...), nil

	case tag.Number == tagPositiveBignum || tag.Number == tagNegativeBignum:
		var magnitude []byte
		if err := cbor.Unmarshal(tag.Content, &magnitude); err != nil {
			return nil, errors.Wrap(ErrMalformed, "bignum")
		}
		v := new(big.Int).SetBytes(magnitude)
		if tag.Number == tagNegativeBignum {
			v.Neg(v).Sub(v, big.NewInt(1))
		}
		return Integer{Value: v}, nil
	}

	return nil, errors.Wrapf(ErrUnsupported, "tag %d", tag.Number)
}
