package plutus

import (
	"github.com/pkg/errors"
)

var (
	ErrWrongConstructor = errors.New("Wrong constructor")
	ErrFieldCount       = errors.New("Wrong field count")
	ErrFieldType        = errors.New("Wrong field type")
)

// ExpectConstr returns the fields of d after checking it is constructor index with count fields.
func ExpectConstr(d Data, index uint64, count int) ([]Data, error) {
	c, ok := d.(Constr)
	if !ok {
		return nil, errors.Wrapf(ErrFieldType, "%T is not a constructor", d)
	}
	if c.Index != index {
		return nil, errors.Wrapf(ErrWrongConstructor, "got %d, want %d", c.Index, index)
	}
	if len(c.Fields) != count {
		return nil, errors.Wrapf(ErrFieldCount, "constr %d has %d fields, want %d", index,
			len(c.Fields), count)
	}
	return c.Fields, nil
}

// ExpectBytes returns the byte string in d, checking its length when size is not negative.
func ExpectBytes(d Data, size int) ([]byte, error) {
	b, ok := d.(Bytes)
	if !ok {
		return nil, errors.Wrapf(ErrFieldType, "%T is not bytes", d)
	}
	if size >= 0 && len(b) != size {
		return nil, errors.Wrapf(ErrFieldType, "bytes length %d, want %d", len(b), size)
	}
	return b, nil
}

// ExpectUint returns the integer in d as an unsigned 64 bit value.
func ExpectUint(d Data) (uint64, error) {
	i, ok := d.(Integer)
	if !ok || i.Value == nil {
		return 0, errors.Wrapf(ErrFieldType, "%T is not an integer", d)
	}
	if i.Value.Sign() < 0 || !i.Value.IsUint64() {
		return 0, errors.Wrapf(ErrFieldType, "integer %s out of range", i.Value)
	}
	return i.Value.Uint64(), nil
}

// ExpectBool returns the boolean encoded in d.
func ExpectBool(d Data) (bool, error) {
	c, ok := d.(Constr)
	if !ok {
		return false, errors.Wrapf(ErrFieldType, "%T is not a bool", d)
	}
	if len(c.Fields) != 0 {
		return false, errors.Wrapf(ErrFieldCount, "bool has %d fields", len(c.Fields))
	}
	switch c.Index {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, errors.Wrapf(ErrWrongConstructor, "bool constructor %d", c.Index)
}

// IsDecodeError returns true when err came from decoding or schema validation.
func IsDecodeError(err error) bool {
	switch errors.Cause(err) {
	case ErrMalformed, ErrUnsupported, ErrWrongConstructor, ErrFieldCount, ErrFieldType:
		return true
	}
	return false
}
