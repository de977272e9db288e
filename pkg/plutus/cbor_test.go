package plutus

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"testing"
)

func TestEncode_Vectors(t *testing.T) {
	tests := []struct {
		name string
		data Data
		want string
	}{
		{"false", Bool(false), "d87980"},
		{"true", Bool(true), "d87a80"},
		{"constr 7", NewConstr(7), "d9050080"},
		{"constr 200", NewConstr(200), "d8668218c880"},
		{"int", NewInteger(42), "182a"},
		{"negative", NewInteger(-1), "20"},
		{"bytes", Bytes{0xde, 0xad}, "42dead"},
		{"list", List{NewInteger(1), NewInteger(2)}, "820102"},
		{"nested", NewConstr(0, NewInteger(1), Bytes{}), "d8798201" + "40"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Encode(tt.data)
			if err != nil {
				t.Fatal(err)
			}
			if got := hex.EncodeToString(b); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	long := bytes.Repeat([]byte{0xab}, 100)

	values := []Data{
		NewConstr(0),
		NewConstr(3, Bool(true), NewInteger(-5)),
		NewConstr(127, List{}),
		NewConstr(1000, Bytes{1, 2, 3}),
		Integer{Value: huge},
		Integer{Value: new(big.Int).Neg(huge)},
		NewUintInteger(^uint64(0)),
		Bytes(long),
		List{Bytes{}, NewConstr(1, List{NewInteger(0)})},
	}

	for _, v := range values {
		b, err := Encode(v)
		if err != nil {
			t.Fatalf("encode %s : %s", v, err)
		}

		decoded, err := Decode(b)
		if err != nil {
			t.Fatalf("decode %s : %s", v, err)
		}

		if !decoded.Equal(v) {
			t.Errorf("got %s, want %s", decoded, v)
		}
	}
}

func TestDecode_Indefinite(t *testing.T) {
	// Constr 0 with an indefinite length field list [1, 2].
	raw, _ := hex.DecodeString("d8799f0102ff")

	d, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}

	want := NewConstr(0, NewInteger(1), NewInteger(2))
	if !d.Equal(want) {
		t.Errorf("got %s, want %s", d, want)
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		hex  string
	}{
		{"empty", ""},
		{"map", "a0"},
		{"unknown tag", "d820820102"},
		{"trailing", "0101"},
		{"truncated", "d87982"},
		{"text", "6161"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, _ := hex.DecodeString(tt.hex)
			if _, err := Decode(raw); err == nil {
				t.Errorf("Decode succeeded")
			} else if !IsDecodeError(err) {
				t.Errorf("Not a decode error : %s", err)
			}
		})
	}
}
