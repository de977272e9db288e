package txbuilder

import (
	"fmt"
	"math/big"
)

const (
	// MinUTxOOverhead is the constant number of bytes the ledger adds to an output's serialized
	// size when computing its minimum lovelace.
	MinUTxOOverhead = 160

	// PlutusV2Language is the language id used in the script data hash.
	PlutusV2Language = 1
)

// ProtocolParameters holds the ledger parameters the builder needs for fees, minimum values and
// collateral.
type ProtocolParameters struct {
	MinFeeA            uint64   // lovelace per byte
	MinFeeB            uint64   // constant lovelace
	CoinsPerUTxOByte   uint64   // minimum value per output byte
	CollateralPercent  uint64   // collateral as a percentage of the fee
	MaxCollateralCount uint64   // maximum collateral inputs
	MaxTxSize          uint64   // bytes
	PriceMem           *big.Rat // lovelace per memory unit
	PriceSteps         *big.Rat // lovelace per cpu step
	MaxTxExUnits       ExUnits
	CostModelV2        []int64
}

// ExUnits is a script execution budget.
type ExUnits struct {
	Mem   uint64
	Steps uint64
}

func (e ExUnits) String() string {
	return fmt.Sprintf("mem %d steps %d", e.Mem, e.Steps)
}

// LinearFee returns the size based part of the fee.
func (p ProtocolParameters) LinearFee(size int) uint64 {
	return p.MinFeeA*uint64(size) + p.MinFeeB
}

// ScriptFee returns the execution part of the fee for a total budget.
func (p ProtocolParameters) ScriptFee(total ExUnits) uint64 {
	fee := new(big.Rat)
	if p.PriceMem != nil {
		fee.Add(fee, new(big.Rat).Mul(p.PriceMem, new(big.Rat).SetInt64(int64(total.Mem))))
	}
	if p.PriceSteps != nil {
		fee.Add(fee, new(big.Rat).Mul(p.PriceSteps, new(big.Rat).SetInt64(int64(total.Steps))))
	}
	return ceilRat(fee)
}

// MinOutputValue returns the minimum lovelace an output must hold.
func (p ProtocolParameters) MinOutputValue(output Output) (uint64, error) {
	// The size depends on the encoded coin amount, so size it at the larger of its current value
	// and the result.
	sized := output
	for i := 0; i < 3; i++ {
		b, err := sized.MarshalCBOR()
		if err != nil {
			return 0, err
		}

		min := (MinUTxOOverhead + uint64(len(b))) * p.CoinsPerUTxOByte
		if sized.Value.Coin >= min {
			return min, nil
		}
		sized.Value.Coin = min
	}

	b, err := sized.MarshalCBOR()
	if err != nil {
		return 0, err
	}
	return (MinUTxOOverhead + uint64(len(b))) * p.CoinsPerUTxOByte, nil
}

// TotalCollateral returns the collateral required for a fee.
func (p ProtocolParameters) TotalCollateral(fee uint64) uint64 {
	return (fee*p.CollateralPercent + 99) / 100
}

func ceilRat(r *big.Rat) uint64 {
	q, m := new(big.Int).QuoRem(r.Num(), r.Denom(), new(big.Int))
	if m.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	if q.Sign() < 0 {
		return 0
	}
	return q.Uint64()
}
