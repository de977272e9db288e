package cardano

import (
	"bytes"
	"encoding/json"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/pkg/errors"
)

var (
	ErrBadAddressType   = errors.New("Address type unknown")
	ErrBadAddressLength = errors.New("Address has invalid length")
	ErrBadAddressPrefix = errors.New("Address has wrong prefix")
)

const (
	// Shelley address header types (high nibble of the header byte).
	AddressTypeBaseKeyKey       = 0x00
	AddressTypeBaseScriptKey    = 0x01
	AddressTypeBaseKeyScript    = 0x02
	AddressTypeBaseScriptScript = 0x03
	AddressTypeEnterpriseKey    = 0x06
	AddressTypeEnterpriseScript = 0x07
)

// Address is a Shelley era payment address. The payment part is a key hash or a script hash and
// base addresses additionally carry a 28 byte delegation part.
type Address struct {
	addressType byte
	network     Network
	payment     Hash28
	stake       []byte
}

// NewEnterpriseAddress creates an address without a delegation part.
func NewEnterpriseAddress(payment Hash28, isScript bool, net Network) Address {
	t := byte(AddressTypeEnterpriseKey)
	if isScript {
		t = AddressTypeEnterpriseScript
	}
	return Address{addressType: t, network: net, payment: payment}
}

// NewBaseAddress creates an address with a key hash delegation part.
func NewBaseAddress(payment Hash28, isScript bool, stake Hash28, net Network) Address {
	t := byte(AddressTypeBaseKeyKey)
	if isScript {
		t = AddressTypeBaseScriptKey
	}
	return Address{addressType: t, network: net, payment: payment, stake: stake.Bytes()}
}

// DecodeAddress decodes bech32 address text.
func DecodeAddress(s string) (Address, error) {
	var result Address
	err := result.Decode(s)
	return result, err
}

// Decode decodes bech32 address text. Base addresses are longer than the 90 characters allowed by
// BIP-173 so the length limit is not applied.
func (a *Address) Decode(s string) error {
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return errors.Wrap(err, "bech32")
	}

	b, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return errors.Wrap(err, "convert bits")
	}

	if err := a.decodeBytes(b); err != nil {
		return err
	}

	if hrp != a.network.AddressPrefix() {
		return errors.Wrapf(ErrBadAddressPrefix, "%s for %s", hrp, a.network)
	}

	return nil
}

// AddressFromBytes decodes the binary form of an address.
func AddressFromBytes(b []byte) (Address, error) {
	var result Address
	err := result.decodeBytes(b)
	return result, err
}

func (a *Address) decodeBytes(b []byte) error {
	if len(b) == 0 {
		return ErrBadAddressLength
	}

	a.addressType = b[0] >> 4
	a.network = Network(b[0] & 0x0f)

	switch a.addressType {
	case AddressTypeBaseKeyKey, AddressTypeBaseScriptKey, AddressTypeBaseKeyScript,
		AddressTypeBaseScriptScript:
		if len(b) != 1+2*Hash28Size {
			return errors.Wrapf(ErrBadAddressLength, "base %d", len(b))
		}
		copy(a.payment[:], b[1:1+Hash28Size])
		a.stake = append([]byte{}, b[1+Hash28Size:]...)

	case AddressTypeEnterpriseKey, AddressTypeEnterpriseScript:
		if len(b) != 1+Hash28Size {
			return errors.Wrapf(ErrBadAddressLength, "enterprise %d", len(b))
		}
		copy(a.payment[:], b[1:])
		a.stake = nil

	default:
		return errors.Wrapf(ErrBadAddressType, "0x%02x", a.addressType)
	}

	return nil
}

// Bytes returns the binary form of the address, as it appears in transaction outputs.
func (a Address) Bytes() []byte {
	result := make([]byte, 0, 1+Hash28Size+len(a.stake))
	result = append(result, a.addressType<<4|byte(a.network))
	result = append(result, a.payment[:]...)
	return append(result, a.stake...)
}

// String returns the bech32 text form of the address.
func (a Address) String() string {
	data, err := bech32.ConvertBits(a.Bytes(), 8, 5, true)
	if err != nil {
		return ""
	}

	s, err := bech32.Encode(a.network.AddressPrefix(), data)
	if err != nil {
		return ""
	}
	return s
}

// IsZero returns true for an address that was never set.
func (a Address) IsZero() bool {
	return a.addressType == 0 && a.network == 0 && a.payment == Hash28{} && len(a.stake) == 0
}

// Network returns the network id of the address.
func (a Address) Network() Network {
	return a.network
}

// PaymentHash returns the payment credential hash.
func (a Address) PaymentHash() Hash28 {
	return a.payment
}

// IsScript returns true when the payment credential is a script hash.
func (a Address) IsScript() bool {
	switch a.addressType {
	case AddressTypeBaseScriptKey, AddressTypeBaseScriptScript, AddressTypeEnterpriseScript:
		return true
	}
	return false
}

// Equal returns true if both addresses have the same binary form.
func (a Address) Equal(o Address) bool {
	return bytes.Equal(a.Bytes(), o.Bytes())
}

// MarshalJSON converts to json.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON converts from json.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return a.Decode(s)
}
