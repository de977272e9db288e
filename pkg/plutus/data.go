// Package plutus encodes and decodes on-chain script data: constructor-indexed records, integers,
// byte strings and lists, in the ledger's CBOR representation.
package plutus

import (
	"bytes"
	"fmt"
	"math/big"
)

// Data is a value of the on-chain data type.
type Data interface {
	// Equal returns true when both values are structurally identical.
	Equal(Data) bool

	String() string
}

// Constr is a constructor application: a numeric tag plus an ordered field list.
type Constr struct {
	Index  uint64
	Fields []Data
}

// Integer is an arbitrary precision integer.
type Integer struct {
	Value *big.Int
}

// Bytes is a byte string.
type Bytes []byte

// List is an ordered list of values.
type List []Data

// NewConstr returns a constructor application.
func NewConstr(index uint64, fields ...Data) Constr {
	if fields == nil {
		fields = []Data{}
	}
	return Constr{Index: index, Fields: fields}
}

// NewInteger returns an integer value.
func NewInteger(v int64) Integer {
	return Integer{Value: big.NewInt(v)}
}

// NewUintInteger returns an integer value from an unsigned amount.
func NewUintInteger(v uint64) Integer {
	return Integer{Value: new(big.Int).SetUint64(v)}
}

// Bool returns the constructor encoding of a boolean: 0 for false and 1 for true.
func Bool(b bool) Constr {
	if b {
		return NewConstr(1)
	}
	return NewConstr(0)
}

func (c Constr) Equal(o Data) bool {
	oc, ok := o.(Constr)
	if !ok || oc.Index != c.Index || len(oc.Fields) != len(c.Fields) {
		return false
	}
	for i, f := range c.Fields {
		if !f.Equal(oc.Fields[i]) {
			return false
		}
	}
	return true
}

func (c Constr) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Constr %d [", c.Index)
	for i, f := range c.Fields {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(f.String())
	}
	buf.WriteString("]")
	return buf.String()
}

func (i Integer) Equal(o Data) bool {
	oi, ok := o.(Integer)
	if !ok || i.Value == nil || oi.Value == nil {
		return false
	}
	return i.Value.Cmp(oi.Value) == 0
}

func (i Integer) String() string {
	if i.Value == nil {
		return "<nil>"
	}
	return i.Value.String()
}

func (b Bytes) Equal(o Data) bool {
	ob, ok := o.(Bytes)
	return ok && bytes.Equal(b, ob)
}

func (b Bytes) String() string {
	return fmt.Sprintf("#%x", []byte(b))
}

func (l List) Equal(o Data) bool {
	ol, ok := o.(List)
	if !ok || len(ol) != len(l) {
		return false
	}
	for i, v := range l {
		if !v.Equal(ol[i]) {
			return false
		}
	}
	return true
}

func (l List) String() string {
	var buf bytes.Buffer
	buf.WriteString("[")
	for i, v := range l {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(v.String())
	}
	buf.WriteString("]")
	return buf.String()
}
