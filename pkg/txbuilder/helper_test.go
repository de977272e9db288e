package txbuilder

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/tokenized/milestone-escrow/pkg/cardano"
)

func testParams() ProtocolParameters {
	return ProtocolParameters{
		MinFeeA:            44,
		MinFeeB:            155381,
		CoinsPerUTxOByte:   4310,
		CollateralPercent:  150,
		MaxCollateralCount: 3,
		MaxTxSize:          16384,
		PriceMem:           big.NewRat(577, 10000),
		PriceSteps:         big.NewRat(721, 10000000),
		MaxTxExUnits:       ExUnits{Mem: 14000000, Steps: 10000000000},
		CostModelV2:        []int64{205665, 812, 1, 1, 1000, 571, 0, 1},
	}
}

func testKey(t *testing.T) (*cardano.Key, cardano.Address) {
	key, err := cardano.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key : %s", err)
	}
	return key, key.PublicKey().EnterpriseAddress(cardano.TestNet)
}

func testUTXO(name string, index uint32, address cardano.Address, coin uint64) UTXO {
	return UTXO{
		TxID:    cardano.Blake2b256([]byte(fmt.Sprintf("tx %s", name))),
		Index:   index,
		Address: address,
		Value:   cardano.NewValue(coin),
	}
}

// testScript is not a valid validator. Scripts are not run by the builder.
var testScript = cardano.PlutusV2Script([]byte{0x4e, 0x4d, 0x01, 0x00, 0x00, 0x33, 0x22, 0x22,
	0x20, 0x05, 0x12, 0x00, 0x12, 0x00, 0x11})
