package escrow

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/tokenized/milestone-escrow/pkg/cardano"
	"github.com/tokenized/milestone-escrow/pkg/txbuilder"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// testScript is not a valid validator. The mock chain does not run scripts.
var testScript = cardano.PlutusV2Script([]byte{0x4e, 0x4d, 0x01, 0x00, 0x00, 0x33, 0x22, 0x22,
	0x20, 0x05, 0x12, 0x00, 0x12, 0x00, 0x11})

func testParams() txbuilder.ProtocolParameters {
	return txbuilder.ProtocolParameters{
		MinFeeA:            44,
		MinFeeB:            155381,
		CoinsPerUTxOByte:   4310,
		CollateralPercent:  150,
		MaxCollateralCount: 3,
		MaxTxSize:          16384,
		PriceMem:           big.NewRat(577, 10000),
		PriceSteps:         big.NewRat(721, 10000000),
		MaxTxExUnits:       txbuilder.ExUnits{Mem: 14000000, Steps: 10000000000},
		CostModelV2:        []int64{205665, 812, 1, 1, 1000, 571, 0, 1},
	}
}

type unavailableError struct{}

func (unavailableError) Error() string     { return "connection refused" }
func (unavailableError) Unavailable() bool { return true }

// mockChain serves UTXOs by address and accepts everything it is sent.
type mockChain struct {
	lock sync.Mutex

	params txbuilder.ProtocolParameters
	utxos  map[string][]txbuilder.UTXO
	budget txbuilder.ExUnits

	utxoErr     error
	evaluateErr error
	submitErr   error

	evaluated int
	submitted [][]byte
}

func newMockChain() *mockChain {
	return &mockChain{
		params: testParams(),
		utxos:  make(map[string][]txbuilder.UTXO),
		budget: txbuilder.ExUnits{Mem: 500000, Steps: 200000000},
	}
}

func (c *mockChain) add(utxos ...txbuilder.UTXO) {
	c.lock.Lock()
	defer c.lock.Unlock()

	for _, u := range utxos {
		c.utxos[u.Address.String()] = append(c.utxos[u.Address.String()], u)
	}
}

func (c *mockChain) submitCount() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.submitted)
}

func (c *mockChain) UTXOs(ctx context.Context,
	address cardano.Address) ([]txbuilder.UTXO, error) {

	c.lock.Lock()
	defer c.lock.Unlock()

	if c.utxoErr != nil {
		return nil, c.utxoErr
	}
	return append([]txbuilder.UTXO{}, c.utxos[address.String()]...), nil
}

func (c *mockChain) ProtocolParameters(ctx context.Context) (*txbuilder.ProtocolParameters,
	error) {

	params := c.params
	return &params, nil
}

type testRedeemer struct {
	_       struct{} `cbor:",toarray"`
	Tag     uint8
	Index   uint32
	Data    cbor.RawMessage
	ExUnits []uint64
}

// Evaluate reports the mock budget for every redeemer in the transaction's witness set.
func (c *mockChain) Evaluate(ctx context.Context, tx []byte) ([]txbuilder.Evaluation, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.evaluated++
	if c.evaluateErr != nil {
		return nil, c.evaluateErr
	}

	redeemers, err := decodeTestRedeemers(tx)
	if err != nil {
		return nil, err
	}

	var result []txbuilder.Evaluation
	for _, r := range redeemers {
		result = append(result, txbuilder.Evaluation{
			Tag:     txbuilder.RedeemerTag(r.Tag),
			Index:   r.Index,
			ExUnits: c.budget,
		})
	}
	return result, nil
}

func (c *mockChain) Submit(ctx context.Context, tx []byte) (cardano.Hash32, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.submitErr != nil {
		return cardano.Hash32{}, c.submitErr
	}

	var parts []cbor.RawMessage
	if err := cbor.Unmarshal(tx, &parts); err != nil {
		return cardano.Hash32{}, errors.Wrap(err, "decode tx")
	}
	if len(parts) != 4 {
		return cardano.Hash32{}, fmt.Errorf("tx has %d parts", len(parts))
	}

	c.submitted = append(c.submitted, tx)
	return cardano.Blake2b256(parts[0]), nil
}

func decodeTestRedeemers(tx []byte) ([]testRedeemer, error) {
	var parts []cbor.RawMessage
	if err := cbor.Unmarshal(tx, &parts); err != nil {
		return nil, errors.Wrap(err, "decode tx")
	}
	if len(parts) != 4 {
		return nil, fmt.Errorf("tx has %d parts", len(parts))
	}

	var ws map[uint64]cbor.RawMessage
	if err := cbor.Unmarshal(parts[1], &ws); err != nil {
		return nil, errors.Wrap(err, "decode witness set")
	}

	raw, exists := ws[5]
	if !exists {
		return nil, nil
	}

	var result []testRedeemer
	if err := cbor.Unmarshal(raw, &result); err != nil {
		return nil, errors.Wrap(err, "decode redeemers")
	}
	return result, nil
}

// testSigner holds a plain signing key.
type testSigner struct {
	key *cardano.Key
	net cardano.Network
}

func newTestSigner(t *testing.T) *testSigner {
	key, err := cardano.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key : %s", err)
	}
	return &testSigner{key: key, net: cardano.TestNet}
}

func (s *testSigner) WithSigningKey(ctx context.Context, fn func(*cardano.Key) error) error {
	return fn(s.key)
}

func (s *testSigner) VerificationKey(ctx context.Context) (cardano.PublicKey, error) {
	return s.key.PublicKey(), nil
}

func (s *testSigner) Address(vkey cardano.PublicKey) cardano.Address {
	return vkey.EnterpriseAddress(s.net)
}

func (s *testSigner) hash() cardano.Hash28 {
	return s.key.PublicKey().Hash()
}

func (s *testSigner) address() cardano.Address {
	return s.key.PublicKey().EnterpriseAddress(s.net)
}

type mockRecorder struct {
	receipts []*Receipt
	err      error
}

func (r *mockRecorder) Save(ctx context.Context, receipt *Receipt) error {
	if r.err != nil {
		return r.err
	}
	r.receipts = append(r.receipts, receipt)
	return nil
}

// testEscrow is a client and a freelancer with funded wallets.
type testEscrow struct {
	chain        *mockChain
	orchestrator *Orchestrator
	client       *testSigner
	freelancer   *testSigner
}

func newTestEscrow(t *testing.T) *testEscrow {
	chain := newMockChain()

	orchestrator, err := NewOrchestrator(Config{Network: cardano.TestNet}, chain, testScript,
		testScript.Hash().String())
	if err != nil {
		t.Fatalf("Failed to create orchestrator : %s", err)
	}

	result := &testEscrow{
		chain:        chain,
		orchestrator: orchestrator,
		client:       newTestSigner(t),
		freelancer:   newTestSigner(t),
	}

	for _, s := range []*testSigner{result.client, result.freelancer} {
		name := s.address().String()
		chain.add(
			plainUTXO(name+" funding", s.address(), 20000000),
			plainUTXO(name+" collateral", s.address(), 5000000),
		)
	}

	return result
}

func (e *testEscrow) metadata(id, reward uint64) Metadata {
	return Metadata{
		MilestoneID:       id,
		Reward:            reward,
		ClientAddress:     e.client.address(),
		FreelancerAddress: e.freelancer.address(),
	}
}

// lock puts a milestone UTXO at the script address.
func (e *testEscrow) lock(t *testing.T, milestone Milestone) txbuilder.UTXO {
	utxo := scriptUTXO(t, fmt.Sprintf("milestone %d", milestone.ID),
		e.orchestrator.ScriptAddress(), JobAgreement{
			Freelancer: e.freelancer.hash(),
			Client:     e.client.hash(),
			Milestone:  milestone,
		}, milestone.Reward)
	e.chain.add(utxo)
	return utxo
}

// scriptOutput returns the only output at the script address.
func scriptOutput(t *testing.T, o *Orchestrator, tx *txbuilder.Tx) txbuilder.Output {
	var result []txbuilder.Output
	for _, output := range tx.Outputs {
		if output.Address.Equal(o.ScriptAddress()) {
			result = append(result, output)
		}
	}

	if len(result) != 1 {
		t.Fatalf("Wrong script output count : got %d, want %d", len(result), 1)
	}
	return result[0]
}
