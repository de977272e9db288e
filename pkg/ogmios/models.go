package ogmios

import (
	"encoding/hex"
	"encoding/json"
	"math/big"

	"github.com/tokenized/milestone-escrow/pkg/cardano"
	"github.com/tokenized/milestone-escrow/pkg/txbuilder"

	"github.com/pkg/errors"
)

const (
	jsonRPCVersion = "2.0"
	adaAsset       = "ada"
	lovelace       = "lovelace"
	plutusV2       = "plutus:v2"
)

type request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      uint64      `json:"id"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
	ID      uint64          `json:"id"`
}

type addressesParams struct {
	Addresses []string `json:"addresses"`
}

type transactionParams struct {
	Transaction struct {
		CBOR string `json:"cbor"`
	} `json:"transaction"`
}

func newTransactionParams(tx []byte) transactionParams {
	var p transactionParams
	p.Transaction.CBOR = hex.EncodeToString(tx)
	return p
}

type txID struct {
	ID string `json:"id"`
}

// value is the Ogmios value form: {"ada": {"lovelace": n}, "<policy>": {"<asset>": n}}.
type value map[string]map[string]uint64

type utxo struct {
	Transaction txID            `json:"transaction"`
	Index       uint32          `json:"index"`
	Address     string          `json:"address"`
	Value       value           `json:"value"`
	DatumHash   string          `json:"datumHash,omitempty"`
	Datum       string          `json:"datum,omitempty"`
	Script      json.RawMessage `json:"script,omitempty"`
}

func (v value) convert() (cardano.Value, error) {
	result := cardano.NewValue(v[adaAsset][lovelace])

	for policy, assets := range v {
		if policy == adaAsset {
			continue
		}

		policyID, err := cardano.NewHash28FromStr(policy)
		if err != nil {
			return cardano.Value{}, errors.Wrapf(err, "policy %s", policy)
		}

		for name, quantity := range assets {
			b, err := hex.DecodeString(name)
			if err != nil {
				return cardano.Value{}, errors.Wrapf(err, "asset name %s", name)
			}

			result = result.Add(cardano.Value{Assets: cardano.MultiAsset{
				*policyID: {cardano.AssetName(b): quantity},
			}})
		}
	}

	return result, nil
}

func (u utxo) convert() (txbuilder.UTXO, error) {
	id, err := cardano.NewHash32FromStr(u.Transaction.ID)
	if err != nil {
		return txbuilder.UTXO{}, errors.Wrap(err, "tx id")
	}

	address, err := cardano.DecodeAddress(u.Address)
	if err != nil {
		return txbuilder.UTXO{}, errors.Wrap(err, "address")
	}

	val, err := u.Value.convert()
	if err != nil {
		return txbuilder.UTXO{}, errors.Wrap(err, "value")
	}

	result := txbuilder.UTXO{
		TxID:      *id,
		Index:     u.Index,
		Address:   address,
		Value:     val,
		HasScript: len(u.Script) > 0 && string(u.Script) != "null",
	}

	if len(u.Datum) > 0 {
		result.Datum, err = hex.DecodeString(u.Datum)
		if err != nil {
			return txbuilder.UTXO{}, errors.Wrap(err, "datum")
		}
	}

	if len(u.DatumHash) > 0 {
		result.DatumHash, err = cardano.NewHash32FromStr(u.DatumHash)
		if err != nil {
			return txbuilder.UTXO{}, errors.Wrap(err, "datum hash")
		}
	}

	return result, nil
}

type lovelaceAmount struct {
	Ada struct {
		Lovelace uint64 `json:"lovelace"`
	} `json:"ada"`
}

type bytesAmount struct {
	Bytes uint64 `json:"bytes"`
}

type exUnits struct {
	Memory uint64 `json:"memory"`
	CPU    uint64 `json:"cpu"`
}

type prices struct {
	Memory string `json:"memory"`
	CPU    string `json:"cpu"`
}

type protocolParameters struct {
	MinFeeCoefficient               uint64             `json:"minFeeCoefficient"`
	MinFeeConstant                  lovelaceAmount     `json:"minFeeConstant"`
	MinUtxoDepositCoefficient       uint64             `json:"minUtxoDepositCoefficient"`
	CollateralPercentage            uint64             `json:"collateralPercentage"`
	MaxCollateralInputs             uint64             `json:"maxCollateralInputs"`
	MaxTransactionSize              bytesAmount        `json:"maxTransactionSize"`
	ScriptExecutionPrices           prices             `json:"scriptExecutionPrices"`
	MaxExecutionUnitsPerTransaction exUnits            `json:"maxExecutionUnitsPerTransaction"`
	PlutusCostModels                map[string][]int64 `json:"plutusCostModels"`
}

func (p protocolParameters) convert() (*txbuilder.ProtocolParameters, error) {
	priceMem, ok := new(big.Rat).SetString(p.ScriptExecutionPrices.Memory)
	if !ok {
		return nil, errors.Errorf("memory price %q", p.ScriptExecutionPrices.Memory)
	}

	priceSteps, ok := new(big.Rat).SetString(p.ScriptExecutionPrices.CPU)
	if !ok {
		return nil, errors.Errorf("cpu price %q", p.ScriptExecutionPrices.CPU)
	}

	costModel, exists := p.PlutusCostModels[plutusV2]
	if !exists {
		return nil, errors.New("missing plutus v2 cost model")
	}

	return &txbuilder.ProtocolParameters{
		MinFeeA:            p.MinFeeCoefficient,
		MinFeeB:            p.MinFeeConstant.Ada.Lovelace,
		CoinsPerUTxOByte:   p.MinUtxoDepositCoefficient,
		CollateralPercent:  p.CollateralPercentage,
		MaxCollateralCount: p.MaxCollateralInputs,
		MaxTxSize:          p.MaxTransactionSize.Bytes,
		PriceMem:           priceMem,
		PriceSteps:         priceSteps,
		MaxTxExUnits: txbuilder.ExUnits{
			Mem:   p.MaxExecutionUnitsPerTransaction.Memory,
			Steps: p.MaxExecutionUnitsPerTransaction.CPU,
		},
		CostModelV2: costModel,
	}, nil
}

type evaluation struct {
	Validator struct {
		Index   uint32 `json:"index"`
		Purpose string `json:"purpose"`
	} `json:"validator"`
	Budget exUnits `json:"budget"`
}

func (e evaluation) convert() (txbuilder.Evaluation, error) {
	var tag txbuilder.RedeemerTag
	switch e.Validator.Purpose {
	case "spend":
		tag = txbuilder.RedeemerTagSpend
	case "mint":
		tag = txbuilder.RedeemerTagMint
	default:
		return txbuilder.Evaluation{}, errors.Errorf("unsupported purpose %s",
			e.Validator.Purpose)
	}

	return txbuilder.Evaluation{
		Tag:   tag,
		Index: e.Validator.Index,
		ExUnits: txbuilder.ExUnits{
			Mem:   e.Budget.Memory,
			Steps: e.Budget.CPU,
		},
	}, nil
}

type submitResult struct {
	Transaction txID `json:"transaction"`
}
