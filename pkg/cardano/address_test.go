package cardano

import (
	"bytes"
	"testing"
)

func TestAddress_Decode(t *testing.T) {
	text := "addr1vx2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzers66hrl8"

	address, err := DecodeAddress(text)
	if err != nil {
		t.Fatal(err)
	}

	want, err := NewHash28FromStr("9493315cd92eb5d8c4304e67b7e16ae36d61d34502694657811a2c8e")
	if err != nil {
		t.Fatal(err)
	}

	if !address.PaymentHash().Equal(*want) {
		t.Errorf("Payment hash: got %s, want %s", address.PaymentHash(), want)
	}
	if address.Network() != MainNet {
		t.Errorf("Network: got %s, want %s", address.Network(), MainNet)
	}
	if address.IsScript() {
		t.Errorf("Key address decoded as script address")
	}
	if address.String() != text {
		t.Errorf("Encode: got %s, want %s", address.String(), text)
	}
}

func TestAddress_RoundTrip(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	stake, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		address Address
	}{
		{"enterprise test", key.PublicKey().EnterpriseAddress(TestNet)},
		{"enterprise main", key.PublicKey().EnterpriseAddress(MainNet)},
		{"base", NewBaseAddress(key.PublicKey().Hash(), false, stake.PublicKey().Hash(), TestNet)},
		{"script", NewEnterpriseAddress(key.PublicKey().Hash(), true, TestNet)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := DecodeAddress(tt.address.String())
			if err != nil {
				t.Fatal(err)
			}
			if !decoded.Equal(tt.address) {
				t.Errorf("got %x, want %x", decoded.Bytes(), tt.address.Bytes())
			}

			fromBytes, err := AddressFromBytes(tt.address.Bytes())
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(fromBytes.Bytes(), tt.address.Bytes()) {
				t.Errorf("bytes: got %x, want %x", fromBytes.Bytes(), tt.address.Bytes())
			}
		})
	}
}

func TestAddress_WrongPrefix(t *testing.T) {
	if _, err := AddressFromBytes([]byte{0x61, 0x01}); err == nil {
		t.Errorf("Short address decoded")
	}
	if _, err := AddressFromBytes(append([]byte{0x91}, make([]byte, 28)...)); err == nil {
		t.Errorf("Unknown address type decoded")
	}
}
