package cardano

import (
	"strings"

	"github.com/pkg/errors"
)

// Network is the network id carried in the low nibble of an address header.
type Network byte

const (
	TestNet Network = 0x00
	MainNet Network = 0x01
)

var ErrUnknownNetwork = errors.New("Unknown network")

// NewNetwork returns the network id for a network name.
//
// - mainnet
// - preprod, preview, testnet (all share the test network id)
func NewNetwork(name string) (Network, error) {
	switch strings.ToLower(name) {
	case "mainnet":
		return MainNet, nil
	case "preprod", "preview", "testnet":
		return TestNet, nil
	}

	return TestNet, errors.Wrap(ErrUnknownNetwork, name)
}

// AddressPrefix returns the bech32 human readable part for payment addresses.
func (n Network) AddressPrefix() string {
	if n == MainNet {
		return "addr"
	}
	return "addr_test"
}

func (n Network) String() string {
	if n == MainNet {
		return "mainnet"
	}
	return "testnet"
}
