package cardano

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

var ErrInsufficientValue = errors.New("Insufficient value")

// AssetName is the raw bytes of a native asset name.
type AssetName string

// MultiAsset holds named asset quantities by policy id.
type MultiAsset map[Hash28]map[AssetName]uint64

// Value is a bundle of lovelace and named assets.
type Value struct {
	Coin   uint64
	Assets MultiAsset
}

// NewValue returns a lovelace only value.
func NewValue(coin uint64) Value {
	return Value{Coin: coin}
}

// IsPure returns true when the value holds no named assets.
func (v Value) IsPure() bool {
	for _, names := range v.Assets {
		for _, qty := range names {
			if qty > 0 {
				return false
			}
		}
	}
	return true
}

// Add returns the sum of both values.
func (v Value) Add(o Value) Value {
	result := Value{Coin: v.Coin + o.Coin}
	result.Assets = v.Assets.clone()
	for policy, names := range o.Assets {
		for name, qty := range names {
			result.Assets.add(policy, name, qty)
		}
	}
	result.Assets.compact()
	return result
}

// Sub returns v minus o. Fails when o holds more of anything than v.
func (v Value) Sub(o Value) (Value, error) {
	if o.Coin > v.Coin {
		return Value{}, errors.Wrapf(ErrInsufficientValue, "lovelace %d/%d", v.Coin, o.Coin)
	}

	result := Value{Coin: v.Coin - o.Coin}
	result.Assets = v.Assets.clone()
	for policy, names := range o.Assets {
		for name, qty := range names {
			have := result.Assets[policy][name]
			if qty > have {
				return Value{}, errors.Wrapf(ErrInsufficientValue, "%s.%x %d/%d", policy,
					[]byte(name), have, qty)
			}
			result.Assets[policy][name] = have - qty
		}
	}
	result.Assets.compact()
	return result, nil
}

// Covers returns true when v holds at least as much of everything as o.
func (v Value) Covers(o Value) bool {
	_, err := v.Sub(o)
	return err == nil
}

func (v Value) String() string {
	if v.IsPure() {
		return fmt.Sprintf("%d lovelace", v.Coin)
	}

	var assets []string
	for policy, names := range v.Assets {
		for name, qty := range names {
			assets = append(assets, fmt.Sprintf("%d %s.%x", qty, policy, []byte(name)))
		}
	}
	sort.Strings(assets)
	return fmt.Sprintf("%d lovelace + %s", v.Coin, strings.Join(assets, " + "))
}

// MarshalCBOR encodes a plain coin amount for pure values and [coin, multiasset] otherwise.
func (v Value) MarshalCBOR() ([]byte, error) {
	if v.IsPure() {
		return cbor.Marshal(v.Coin)
	}

	assets := make(map[cbor.ByteString]map[cbor.ByteString]uint64)
	for policy, names := range v.Assets {
		byName := make(map[cbor.ByteString]uint64)
		for name, qty := range names {
			if qty > 0 {
				byName[cbor.ByteString(name)] = qty
			}
		}
		if len(byName) > 0 {
			assets[cbor.ByteString(policy[:])] = byName
		}
	}

	return canonical.Marshal([]interface{}{v.Coin, assets})
}

func (m MultiAsset) clone() MultiAsset {
	result := make(MultiAsset)
	for policy, names := range m {
		result[policy] = make(map[AssetName]uint64)
		for name, qty := range names {
			result[policy][name] = qty
		}
	}
	return result
}

func (m MultiAsset) add(policy Hash28, name AssetName, qty uint64) {
	names, ok := m[policy]
	if !ok {
		names = make(map[AssetName]uint64)
		m[policy] = names
	}
	names[name] += qty
}

func (m MultiAsset) compact() {
	for policy, names := range m {
		for name, qty := range names {
			if qty == 0 {
				delete(names, name)
			}
		}
		if len(names) == 0 {
			delete(m, policy)
		}
	}
}
