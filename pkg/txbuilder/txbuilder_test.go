package txbuilder

import (
	"bytes"
	"testing"

	"github.com/tokenized/milestone-escrow/pkg/cardano"
	"github.com/tokenized/milestone-escrow/pkg/plutus"

	"github.com/fxamacker/cbor/v2"
)

func TestBuildPayment(t *testing.T) {
	key, address := testKey(t)
	_, destination := testKey(t)
	params := testParams()

	builder := NewTxBuilder(params, address)
	builder.Funding = []UTXO{
		testUTXO("small", 0, address, 3000000),
		testUTXO("large", 1, address, 10000000),
	}

	if err := builder.AddOutput(Output{
		Address: destination,
		Value:   cardano.NewValue(2000000),
	}); err != nil {
		t.Fatalf("Failed to add output : %s", err)
	}

	tx, err := builder.Build()
	if err != nil {
		t.Fatalf("Failed to build : %s", err)
	}

	if len(tx.Inputs) != 1 {
		t.Fatalf("Wrong input count : got %d, want %d", len(tx.Inputs), 1)
	}
	if tx.Inputs[0].Value.Coin != 10000000 {
		t.Errorf("Largest input not used first : got %d", tx.Inputs[0].Value.Coin)
	}

	change := tx.ChangeOutput()
	if change == nil {
		t.Fatalf("Missing change output")
	}
	if !change.Address.Equal(address) {
		t.Errorf("Wrong change address : got %s, want %s", change.Address, address)
	}

	if tx.InputValue().Coin != tx.OutputValue(true).Coin+tx.Fee {
		t.Errorf("Not balanced : inputs %d, outputs %d, fee %d", tx.InputValue().Coin,
			tx.OutputValue(true).Coin, tx.Fee)
	}

	signed, err := tx.Sign(key)
	if err != nil {
		t.Fatalf("Failed to sign : %s", err)
	}

	raw, err := signed.Bytes()
	if err != nil {
		t.Fatalf("Failed to serialize : %s", err)
	}

	if minFee := params.LinearFee(len(raw)); tx.Fee < minFee {
		t.Errorf("Fee too low : got %d, want at least %d", tx.Fee, minFee)
	}

	if tx.ID != cardano.Blake2b256(tx.Body) {
		t.Errorf("Wrong tx id : got %s", tx.ID)
	}

	t.Logf("Fee %d, size %d", tx.Fee, len(raw))
}

func TestBuildInsufficientValue(t *testing.T) {
	_, address := testKey(t)
	_, destination := testKey(t)

	builder := NewTxBuilder(testParams(), address)
	builder.Funding = []UTXO{testUTXO("only", 0, address, 3000000)}

	if err := builder.AddOutput(Output{
		Address: destination,
		Value:   cardano.NewValue(5000000),
	}); err != nil {
		t.Fatalf("Failed to add output : %s", err)
	}

	_, err := builder.Build()
	if !IsErrorCode(err, ErrorCodeInsufficientValue) {
		t.Fatalf("Wrong error : got %v, want %s", err,
			errorCodeString(ErrorCodeInsufficientValue))
	}
}

func TestAddOutputBelowMinimum(t *testing.T) {
	_, address := testKey(t)

	builder := NewTxBuilder(testParams(), address)
	err := builder.AddOutput(Output{Address: address, Value: cardano.NewValue(100000)})
	if !IsErrorCode(err, ErrorCodeBelowMinimum) {
		t.Fatalf("Wrong error : got %v, want %s", err, errorCodeString(ErrorCodeBelowMinimum))
	}

	if len(builder.Outputs) != 0 {
		t.Errorf("Output added below minimum")
	}
}

func TestMinOutputValueDatum(t *testing.T) {
	_, address := testKey(t)
	params := testParams()

	plain, err := params.MinOutputValue(Output{Address: address, Value: cardano.NewValue(1)})
	if err != nil {
		t.Fatalf("Failed to get min : %s", err)
	}

	datum, err := plutus.Encode(plutus.NewConstr(0, plutus.Bytes(make([]byte, 28)),
		plutus.Bytes(make([]byte, 28))))
	if err != nil {
		t.Fatalf("Failed to encode datum : %s", err)
	}

	withDatum, err := params.MinOutputValue(Output{Address: address, Value: cardano.NewValue(1),
		Datum: datum})
	if err != nil {
		t.Fatalf("Failed to get min : %s", err)
	}

	if withDatum <= plain {
		t.Errorf("Datum did not raise minimum : %d <= %d", withDatum, plain)
	}

	if withDatum%params.CoinsPerUTxOByte != 0 {
		t.Errorf("Minimum %d not a multiple of %d", withDatum, params.CoinsPerUTxOByte)
	}
}

func TestBuildScriptSpend(t *testing.T) {
	key, address := testKey(t)
	params := testParams()
	scriptAddress := testScript.Address(cardano.TestNet)

	locked := testUTXO("locked", 0, scriptAddress, 10000000)
	locked.Datum = []byte{0xd8, 0x79, 0x80}

	builder := NewTxBuilder(params, address)
	builder.Funding = []UTXO{testUTXO("funding", 2, address, 8000000), locked}
	builder.AddScriptInput(locked, testScript, plutus.NewConstr(1))
	builder.AddCollateral(testUTXO("collateral", 0, address, 5000000))
	builder.AddRequiredSigner(key.PublicKey().Hash())
	builder.AddRequiredSigner(key.PublicKey().Hash())
	builder.ExUnits[locked.Ref()] = ExUnits{Mem: 500000, Steps: 200000000}

	if err := builder.AddOutput(Output{
		Address: address,
		Value:   cardano.NewValue(10000000),
	}); err != nil {
		t.Fatalf("Failed to add output : %s", err)
	}

	tx, err := builder.Build()
	if err != nil {
		t.Fatalf("Failed to build : %s", err)
	}

	if len(tx.RequiredSigners) != 1 {
		t.Errorf("Wrong required signer count : got %d, want %d", len(tx.RequiredSigners), 1)
	}

	if len(tx.Redeemers) != 1 {
		t.Fatalf("Wrong redeemer count : got %d, want %d", len(tx.Redeemers), 1)
	}
	if index := tx.InputIndex(locked); int(tx.Redeemers[0].Index) != index {
		t.Errorf("Wrong redeemer index : got %d, want %d", tx.Redeemers[0].Index, index)
	}

	scriptFee := params.ScriptFee(ExUnits{Mem: 500000, Steps: 200000000})
	if tx.Fee < params.MinFeeB+scriptFee {
		t.Errorf("Fee does not include script fee : got %d, script %d", tx.Fee, scriptFee)
	}

	if tx.InputValue().Coin != tx.OutputValue(true).Coin+tx.Fee {
		t.Errorf("Not balanced : inputs %d, outputs %d, fee %d", tx.InputValue().Coin,
			tx.OutputValue(true).Coin, tx.Fee)
	}

	var body map[uint64]cbor.RawMessage
	if err := cbor.Unmarshal(tx.Body, &body); err != nil {
		t.Fatalf("Failed to decode body : %s", err)
	}

	for _, field := range []uint64{0, 1, 2, 11, 13, 14, 16, 17} {
		if _, exists := body[field]; !exists {
			t.Errorf("Body missing field %d", field)
		}
	}

	var total uint64
	if err := cbor.Unmarshal(body[17], &total); err != nil {
		t.Fatalf("Failed to decode total collateral : %s", err)
	}
	if want := params.TotalCollateral(tx.Fee); total != want {
		t.Errorf("Wrong total collateral : got %d, want %d", total, want)
	}
}

func TestBuildMissingScript(t *testing.T) {
	_, address := testKey(t)

	builder := NewTxBuilder(testParams(), address)
	builder.AddScriptInput(testUTXO("locked", 0, address, 2000000), nil, plutus.NewConstr(0))

	_, err := builder.Build()
	if !IsErrorCode(err, ErrorCodeMissingScript) {
		t.Fatalf("Wrong error : got %v, want %s", err, errorCodeString(ErrorCodeMissingScript))
	}
}

func TestBuildDoesNotModifyBuilder(t *testing.T) {
	_, address := testKey(t)
	_, destination := testKey(t)

	builder := NewTxBuilder(testParams(), address)
	builder.Funding = []UTXO{testUTXO("funding", 0, address, 10000000)}
	if err := builder.AddOutput(Output{Address: destination,
		Value: cardano.NewValue(2000000)}); err != nil {
		t.Fatalf("Failed to add output : %s", err)
	}

	first, err := builder.Build()
	if err != nil {
		t.Fatalf("Failed to build : %s", err)
	}
	second, err := builder.Build()
	if err != nil {
		t.Fatalf("Failed to build : %s", err)
	}

	if !bytes.Equal(first.Body, second.Body) {
		t.Errorf("Builds differ")
	}
	if len(builder.Outputs) != 1 {
		t.Errorf("Builder outputs modified : %d", len(builder.Outputs))
	}
}
