package escrow

import (
	"context"
	"fmt"
	"testing"

	"github.com/tokenized/milestone-escrow/pkg/cardano"
	"github.com/tokenized/milestone-escrow/pkg/txbuilder"
)

func scriptUTXO(t *testing.T, name string, address cardano.Address, agreement JobAgreement,
	coin uint64) txbuilder.UTXO {

	datum, err := EncodeDatum(agreement)
	if err != nil {
		t.Fatalf("Failed to encode datum : %s", err)
	}

	return txbuilder.UTXO{
		TxID:    cardano.Blake2b256([]byte(fmt.Sprintf("tx %s", name))),
		Address: address,
		Value:   cardano.NewValue(coin),
		Datum:   datum,
	}
}

func plainUTXO(name string, address cardano.Address, coin uint64) txbuilder.UTXO {
	return txbuilder.UTXO{
		TxID:    cardano.Blake2b256([]byte(fmt.Sprintf("tx %s", name))),
		Address: address,
		Value:   cardano.NewValue(coin),
	}
}

func TestFindMilestoneUTXO(t *testing.T) {
	ctx := context.Background()
	address := testScript.Address(cardano.TestNet)

	utxos := []txbuilder.UTXO{
		scriptUTXO(t, "one", address, JobAgreement{Milestone: Milestone{ID: 1, Reward: 10}},
			5000000),
		{
			TxID:    cardano.Blake2b256([]byte("garbage")),
			Address: address,
			Value:   cardano.NewValue(5000000),
			Datum:   []byte{0xd8, 0x7a, 0x80}, // Constr 1, not an agreement
		},
		plainUTXO("no datum", address, 2000000),
		scriptUTXO(t, "two", address, JobAgreement{Milestone: Milestone{ID: 2, Reward: 20,
			ApprovedByClient: true}}, 6000000),
	}

	utxo, agreement, err := FindMilestoneUTXO(ctx, utxos, 2)
	if err != nil {
		t.Fatalf("Failed to find milestone : %s", err)
	}

	if !utxo.SameRef(utxos[3]) {
		t.Errorf("Wrong utxo : got %s, want %s", utxo.Ref(), utxos[3].Ref())
	}
	if agreement.Milestone.Reward != 20 || !agreement.Milestone.ApprovedByClient {
		t.Errorf("Wrong agreement : %+v", agreement.Milestone)
	}
}

func TestFindMilestoneUTXONotFound(t *testing.T) {
	ctx := context.Background()
	address := testScript.Address(cardano.TestNet)

	utxos := []txbuilder.UTXO{
		scriptUTXO(t, "one", address, JobAgreement{Milestone: Milestone{ID: 1}}, 5000000),
	}

	if _, _, err := FindMilestoneUTXO(ctx, utxos, 3); !IsErrorCode(err,
		ErrorCodeMilestoneNotFound) {
		t.Fatalf("Wrong error : got %v, want %s", err,
			ErrorCodeString(ErrorCodeMilestoneNotFound))
	}

	if _, _, err := FindMilestoneUTXO(ctx, nil, 3); !IsErrorCode(err,
		ErrorCodeMilestoneNotFound) {
		t.Fatalf("Wrong error for empty set : got %v", err)
	}
}

func TestFindMilestoneUTXOAllUndecodable(t *testing.T) {
	address := testScript.Address(cardano.TestNet)

	utxos := []txbuilder.UTXO{
		{TxID: cardano.Blake2b256([]byte("a")), Address: address, Datum: []byte{0xff}},
		{TxID: cardano.Blake2b256([]byte("b")), Address: address, Datum: []byte{0x01}},
	}

	_, _, err := FindMilestoneUTXO(context.Background(), utxos, 1)
	if !IsErrorCode(err, ErrorCodeMilestoneNotFound) {
		t.Fatalf("Wrong error : got %v, want %s", err,
			ErrorCodeString(ErrorCodeMilestoneNotFound))
	}
}

func TestFindMilestoneUTXOAmbiguous(t *testing.T) {
	address := testScript.Address(cardano.TestNet)
	agreement := JobAgreement{Milestone: Milestone{ID: 4, Reward: 10}}

	utxos := []txbuilder.UTXO{
		scriptUTXO(t, "first", address, agreement, 5000000),
		scriptUTXO(t, "second", address, agreement, 5000000),
	}

	_, _, err := FindMilestoneUTXO(context.Background(), utxos, 4)
	if !IsErrorCode(err, ErrorCodeAmbiguousState) {
		t.Fatalf("Wrong error : got %v, want %s", err, ErrorCodeString(ErrorCodeAmbiguousState))
	}
}

func TestFindCollateralUTXO(t *testing.T) {
	key, err := cardano.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key : %s", err)
	}
	address := key.PublicKey().EnterpriseAddress(cardano.TestNet)
	scriptAddress := testScript.Address(cardano.TestNet)

	withToken := plainUTXO("token", address, 9000000)
	withToken.Value.Assets = cardano.MultiAsset{
		testHash(9): {cardano.AssetName("coin"): 1},
	}

	withDatum := plainUTXO("datum", address, 9000000)
	withDatum.Datum = []byte{0xd8, 0x79, 0x80}

	withDatumHash := plainUTXO("datum hash", address, 9000000)
	withDatumHash.DatumHash = &cardano.Hash32{}

	withScript := plainUTXO("script", address, 9000000)
	withScript.HasScript = true

	small := plainUTXO("small", address, DefaultCollateralMinimum-1)
	atScript := plainUTXO("at script", scriptAddress, 9000000)

	utxos := []txbuilder.UTXO{withToken, withDatum, withDatumHash, withScript, small, atScript}

	if _, err := FindCollateralUTXO(utxos, DefaultCollateralMinimum); !IsErrorCode(err,
		ErrorCodeCollateralNotFound) {
		t.Fatalf("Wrong error : got %v, want %s", err,
			ErrorCodeString(ErrorCodeCollateralNotFound))
	}

	good := plainUTXO("good", address, DefaultCollateralMinimum)
	utxos = append(utxos, good)

	collateral, err := FindCollateralUTXO(utxos, DefaultCollateralMinimum)
	if err != nil {
		t.Fatalf("Failed to find collateral : %s", err)
	}
	if !collateral.SameRef(good) {
		t.Errorf("Wrong collateral : got %s, want %s", collateral.Ref(), good.Ref())
	}
}
