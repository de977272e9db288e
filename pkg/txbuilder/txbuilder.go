package txbuilder

import (
	"fmt"

	"github.com/tokenized/milestone-escrow/pkg/cardano"
	"github.com/tokenized/milestone-escrow/pkg/plutus"

	"github.com/pkg/errors"
)

const (
	SubSystem = "TxBuilder" // For logger

	// maxFeeAttempts bounds the fee/size convergence loop.
	maxFeeAttempts = 10
)

// TxBuilder assembles a transaction from explicit outputs, an optional script input, collateral
// and a set of wallet UTXOs it funds the transaction and fee from. The remaining value goes to
// ChangeAddress.
type TxBuilder struct {
	Params          ProtocolParameters
	ScriptInputs    []ScriptInput
	Script          cardano.PlutusV2Script
	Outputs         []Output
	Funding         []UTXO // candidate wallet inputs, spent largest first as needed
	Collateral      []UTXO
	RequiredSigners []cardano.Hash28
	ChangeAddress   cardano.Address

	// ExUnits holds the evaluated budget of each script input by input reference. Missing
	// entries use a zero budget, which is what is sent for evaluation.
	ExUnits map[string]ExUnits

	// SignerCount is the number of key witnesses the fee is sized for.
	SignerCount int
}

// NewTxBuilder returns a new TxBuilder with the specified change address.
func NewTxBuilder(params ProtocolParameters, changeAddress cardano.Address) *TxBuilder {
	return &TxBuilder{
		Params:        params,
		ChangeAddress: changeAddress,
		ExUnits:       make(map[string]ExUnits),
		SignerCount:   1,
	}
}

// AddScriptInput spends a UTXO locked by script with a redeemer.
func (b *TxBuilder) AddScriptInput(utxo UTXO, script cardano.PlutusV2Script,
	redeemer plutus.Data) {

	b.Script = script
	b.ScriptInputs = append(b.ScriptInputs, ScriptInput{UTXO: utxo, Redeemer: redeemer})
}

// AddOutput adds an output, checking it holds at least the ledger minimum value.
func (b *TxBuilder) AddOutput(output Output) error {
	min, err := b.Params.MinOutputValue(output)
	if err != nil {
		return errors.Wrap(err, "min output value")
	}

	if output.Value.Coin < min {
		return newError(ErrorCodeBelowMinimum, fmt.Sprintf("%d/%d to %s", output.Value.Coin, min,
			output.Address))
	}

	b.Outputs = append(b.Outputs, output)
	return nil
}

// AddCollateral adds a collateral input.
func (b *TxBuilder) AddCollateral(utxo UTXO) {
	b.Collateral = append(b.Collateral, utxo)
}

// AddRequiredSigner declares a key hash that must sign the transaction.
func (b *TxBuilder) AddRequiredSigner(hash cardano.Hash28) {
	for _, existing := range b.RequiredSigners {
		if existing.Equal(hash) {
			return
		}
	}
	b.RequiredSigners = append(b.RequiredSigners, hash)
}

// Build selects funding inputs, computes the fee and change and returns the unsigned
// transaction. The builder is not modified.
func (b *TxBuilder) Build() (*Tx, error) {
	if len(b.ScriptInputs) > 0 && len(b.Script) == 0 {
		return nil, newError(ErrorCodeMissingScript, "script input without script")
	}

	funding := make([]UTXO, 0, len(b.Funding))
	for _, u := range b.Funding {
		if !b.isScriptInput(u) {
			funding = append(funding, u)
		}
	}
	sortByValue(funding)

	var selected []UTXO
	for _, si := range b.ScriptInputs {
		selected = append(selected, si.UTXO)
	}

	outputValue := sumOutputs(b.Outputs)
	fee := b.Params.LinearFee(0)

	for attempt := 0; attempt < maxFeeAttempts; attempt++ {
		var err error
		selected, funding, err = b.fund(selected, funding, outputValue, fee)
		if err != nil {
			return nil, err
		}

		tx, err := b.assemble(selected, fee)
		if err != nil {
			if IsErrorCode(err, ErrorCodeBelowMinimum) && len(funding) > 0 {
				// Change is below the minimum. Add another input so it can be paid out.
				selected = append(selected, funding[0])
				funding = funding[1:]
				continue
			}
			return nil, err
		}

		size, err := b.estimatedSize(tx)
		if err != nil {
			return nil, err
		}

		if b.Params.MaxTxSize > 0 && uint64(size) > b.Params.MaxTxSize {
			return nil, newError(ErrorCodeTooLarge, fmt.Sprintf("%d/%d bytes", size,
				b.Params.MaxTxSize))
		}

		required := b.Params.LinearFee(size) + b.Params.ScriptFee(totalExUnits(tx.Redeemers))
		if required <= fee {
			return tx, nil
		}

		fee = required
	}

	return nil, newError(ErrorCodeInsufficientValue, fmt.Sprintf("fee did not converge at %d",
		fee))
}

// fund adds funding inputs until the selected inputs cover the outputs and fee.
func (b *TxBuilder) fund(selected, funding []UTXO, outputValue cardano.Value,
	fee uint64) ([]UTXO, []UTXO, error) {

	required := outputValue.Add(cardano.NewValue(fee))
	for {
		if UTXOs(selected).Value().Covers(required) {
			return selected, funding, nil
		}

		if len(funding) == 0 {
			available := UTXOs(selected).Value()
			return nil, nil, newError(ErrorCodeInsufficientValue,
				fmt.Sprintf("have %s, need %s", available, required))
		}

		selected = append(selected, funding[0])
		funding = funding[1:]
	}
}

// assemble creates the transaction for a fixed input set and fee.
func (b *TxBuilder) assemble(selected []UTXO, fee uint64) (*Tx, error) {
	inputs := append([]UTXO{}, selected...)
	sortByRef(inputs)

	outputs := append([]Output{}, b.Outputs...)

	change, err := UTXOs(inputs).Value().Sub(sumOutputs(outputs).Add(cardano.NewValue(fee)))
	if err != nil {
		return nil, newError(ErrorCodeInsufficientValue, err.Error())
	}

	if change.Coin > 0 || !change.IsPure() {
		if b.ChangeAddress.IsZero() {
			return nil, newError(ErrorCodeMissingChange, change.String())
		}

		changeOutput := Output{Address: b.ChangeAddress, Value: change, IsChange: true}
		min, err := b.Params.MinOutputValue(changeOutput)
		if err != nil {
			return nil, errors.Wrap(err, "min change value")
		}
		if change.Coin < min {
			if !change.IsPure() {
				return nil, newError(ErrorCodeBelowMinimum, fmt.Sprintf("change %s/%d",
					change, min))
			}
			// Dust below the minimum is left to the fee.
			fee += change.Coin
		} else {
			outputs = append(outputs, changeOutput)
		}
	}

	tx := &Tx{
		Fee:             fee,
		Inputs:          inputs,
		Outputs:         outputs,
		Collateral:      append([]UTXO{}, b.Collateral...),
		RequiredSigners: append([]cardano.Hash28{}, b.RequiredSigners...),
		ChangeAddress:   b.ChangeAddress,
	}

	if len(b.ScriptInputs) > 0 {
		tx.Script = b.Script
		for _, si := range b.ScriptInputs {
			index := tx.InputIndex(si.UTXO)
			tx.Redeemers = append(tx.Redeemers, Redeemer{
				Tag:     RedeemerTagSpend,
				Index:   uint32(index),
				Data:    si.Redeemer,
				ExUnits: b.ExUnits[si.UTXO.Ref()],
			})
		}
	}

	body, err := b.encodeBody(tx)
	if err != nil {
		return nil, err
	}

	tx.Body = body
	tx.ID = cardano.Blake2b256(body)
	return tx, nil
}

func (b *TxBuilder) encodeBody(tx *Tx) ([]byte, error) {
	body := txBody{
		Inputs: toTxInputs(tx.Inputs),
		Fee:    tx.Fee,
	}

	for i, output := range tx.Outputs {
		ob, err := output.MarshalCBOR()
		if err != nil {
			return nil, errors.Wrapf(err, "output %d", i)
		}
		body.Outputs = append(body.Outputs, ob)
	}

	for _, signer := range tx.RequiredSigners {
		body.RequiredSigners = append(body.RequiredSigners, signer.Bytes())
	}

	if len(tx.Redeemers) > 0 {
		hash, err := scriptDataHash(tx.Redeemers, b.Params.CostModelV2)
		if err != nil {
			return nil, err
		}
		body.ScriptDataHash = hash.Bytes()

		if len(tx.Collateral) > 0 {
			body.Collateral = toTxInputs(tx.Collateral)

			total := b.Params.TotalCollateral(tx.Fee)
			collateralValue := UTXOs(tx.Collateral).Value()
			if collateralValue.Coin < total {
				return nil, newError(ErrorCodeInsufficientValue,
					fmt.Sprintf("collateral %d/%d", collateralValue.Coin, total))
			}

			returned, err := collateralValue.Sub(cardano.NewValue(total))
			if err != nil {
				return nil, newError(ErrorCodeInsufficientValue, err.Error())
			}

			returnOutput := Output{Address: tx.ChangeAddress, Value: returned}
			min, err := b.Params.MinOutputValue(returnOutput)
			if err != nil {
				return nil, errors.Wrap(err, "min collateral return")
			}

			if returned.Coin >= min && !tx.ChangeAddress.IsZero() {
				rb, err := returnOutput.MarshalCBOR()
				if err != nil {
					return nil, errors.Wrap(err, "collateral return")
				}
				body.CollateralReturn = rb
				body.TotalCollateral = total
			}
		}
	}

	result, err := cardanoCanonical(body)
	if err != nil {
		return nil, errors.Wrap(err, "body")
	}
	return result, nil
}

// estimatedSize returns the size of the transaction once its key witnesses are added.
func (b *TxBuilder) estimatedSize(tx *Tx) (int, error) {
	witnesses := make([]vkeyWitness, b.SignerCount)
	for i := range witnesses {
		witnesses[i] = vkeyWitness{VKey: make([]byte, 32), Signature: make([]byte, 64)}
	}

	raw, err := tx.serialize(witnesses)
	if err != nil {
		return 0, err
	}
	return len(raw), nil
}

func (b *TxBuilder) isScriptInput(u UTXO) bool {
	for _, si := range b.ScriptInputs {
		if si.UTXO.SameRef(u) {
			return true
		}
	}
	return false
}

// scriptDataHash commits to the redeemers and the cost model. Datums are inline so the datum
// part is empty and omitted.
func scriptDataHash(redeemers []Redeemer, costModel []int64) (cardano.Hash32, error) {
	rb, err := encodeRedeemers(redeemers)
	if err != nil {
		return cardano.Hash32{}, err
	}

	views, err := languageViews(costModel)
	if err != nil {
		return cardano.Hash32{}, errors.Wrap(err, "language views")
	}

	return cardano.Blake2b256(append(rb, views...)), nil
}

func sumOutputs(outputs []Output) cardano.Value {
	var result cardano.Value
	for _, output := range outputs {
		result = result.Add(output.Value)
	}
	return result
}

func totalExUnits(redeemers []Redeemer) ExUnits {
	var result ExUnits
	for _, r := range redeemers {
		result.Mem += r.ExUnits.Mem
		result.Steps += r.ExUnits.Steps
	}
	return result
}
