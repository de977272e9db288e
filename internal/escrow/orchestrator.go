package escrow

import (
	"context"
	"fmt"
	"time"

	"github.com/tokenized/milestone-escrow/internal/platform/logger"
	"github.com/tokenized/milestone-escrow/pkg/cardano"
	"github.com/tokenized/milestone-escrow/pkg/txbuilder"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

const (
	// SubSystem is used by the logger package
	SubSystem = "Escrow"
)

// ChainQuery is the ledger node the orchestrator reads from and submits to. Implementations
// report an unreachable provider with an error whose cause has an `Unavailable() bool` method
// returning true.
type ChainQuery interface {
	UTXOs(ctx context.Context, address cardano.Address) ([]txbuilder.UTXO, error)
	ProtocolParameters(ctx context.Context) (*txbuilder.ProtocolParameters, error)
	Evaluate(ctx context.Context, tx []byte) ([]txbuilder.Evaluation, error)
	Submit(ctx context.Context, tx []byte) (cardano.Hash32, error)
}

// KeyProvider is the transacting party's key.
type KeyProvider interface {
	// WithSigningKey passes the decrypted signing key to fn and destroys it when fn returns.
	WithSigningKey(ctx context.Context, fn func(*cardano.Key) error) error
	VerificationKey(ctx context.Context) (cardano.PublicKey, error)
	Address(vkey cardano.PublicKey) cardano.Address
}

// ReceiptRecorder keeps receipts of submitted transactions.
type ReceiptRecorder interface {
	Save(ctx context.Context, receipt *Receipt) error
}

// Config holds the orchestrator settings.
type Config struct {
	Network           cardano.Network
	CollateralMinimum uint64
}

// Orchestrator turns escrow actions into transactions. It holds no state between calls.
type Orchestrator struct {
	config        Config
	chain         ChainQuery
	script        cardano.PlutusV2Script
	scriptAddress cardano.Address
	receipts      ReceiptRecorder
}

// UnsignedTx is a built escrow transaction and what it does.
type UnsignedTx struct {
	Action Action
	Tx     *txbuilder.Tx

	// Agreement is the datum the transaction locks, or the one it consumes for redeem and
	// refund.
	Agreement JobAgreement

	// Spent is the milestone UTXO consumed. Nil for create.
	Spent *txbuilder.UTXO

	// Redeemer is nil for create.
	Redeemer *Redeemer

	Signer  cardano.Hash28
	PaidTo  *cardano.Address
	Payment uint64
}

// NewOrchestrator returns an orchestrator for a script. When expectedHash is not empty it must
// equal the script's hash.
func NewOrchestrator(config Config, chain ChainQuery, script cardano.PlutusV2Script,
	expectedHash string) (*Orchestrator, error) {

	if len(script) == 0 {
		return nil, errors.New("missing script")
	}

	hash := script.Hash()
	if len(expectedHash) > 0 && hash.String() != expectedHash {
		return nil, fmt.Errorf("Script hash %s does not match configured %s", hash,
			expectedHash)
	}

	if config.CollateralMinimum == 0 {
		config.CollateralMinimum = DefaultCollateralMinimum
	}

	return &Orchestrator{
		config:        config,
		chain:         chain,
		script:        script,
		scriptAddress: script.Address(config.Network),
	}, nil
}

// SetReceiptRecorder sets where receipts of submitted transactions are kept.
func (o *Orchestrator) SetReceiptRecorder(r ReceiptRecorder) {
	o.receipts = r
}

// ScriptAddress returns the address funds are locked at.
func (o *Orchestrator) ScriptAddress() cardano.Address {
	return o.scriptAddress
}

// Milestone returns the current agreement of a milestone and the UTXO holding it.
func (o *Orchestrator) Milestone(ctx context.Context,
	milestoneID uint64) (*JobAgreement, *txbuilder.UTXO, error) {

	ctx, span := trace.StartSpan(ctx, "escrow.Orchestrator.Milestone")
	defer span.End()

	utxos, err := o.chain.UTXOs(ctx, o.scriptAddress)
	if err != nil {
		return nil, nil, providerError(err, ErrorCodeProviderUnavailable, "script utxos")
	}

	utxo, agreement, err := FindMilestoneUTXO(ctx, utxos, milestoneID)
	if err != nil {
		return nil, nil, err
	}
	return agreement, &utxo, nil
}

// Execute builds, signs and submits action for a milestone as signer. Nothing is submitted when
// any earlier step fails.
func (o *Orchestrator) Execute(ctx context.Context, action Action, meta Metadata,
	signer KeyProvider) (*Receipt, error) {

	ctx, span := trace.StartSpan(ctx, "escrow.Orchestrator.Execute")
	defer span.End()

	ctx = logger.ContextWithLogSubSystem(ctx, SubSystem)
	ctx = logger.ContextWithMilestone(ctx, meta.MilestoneID)
	defer logger.Elapsed(ctx, time.Now(), string(action))

	receipt, err := o.execute(ctx, action, meta, signer)
	recordResult(ctx, action, err)
	if err != nil {
		logger.Warn(ctx, "Failed %s : %s", action, err)
		span.SetStatus(trace.Status{Code: trace.StatusCodeUnknown, Message: err.Error()})
		return nil, err
	}

	return receipt, nil
}

func (o *Orchestrator) execute(ctx context.Context, action Action, meta Metadata,
	signer KeyProvider) (*Receipt, error) {

	unsigned, err := o.Build(ctx, action, meta, signer)
	if err != nil {
		return nil, err
	}

	signed, err := o.Sign(ctx, unsigned, signer)
	if err != nil {
		return nil, err
	}

	return o.Submit(ctx, unsigned, signed)
}

// Submit submits a signed transaction and records its receipt.
func (o *Orchestrator) Submit(ctx context.Context, unsigned *UnsignedTx,
	signed *txbuilder.SignedTx) (*Receipt, error) {

	ctx, span := trace.StartSpan(ctx, "escrow.Orchestrator.Submit")
	defer span.End()

	if !signed.IsSigned() {
		return nil, newErrorf(ErrorCodeSigningFailure, "tx %s missing required signatures",
			signed.ID())
	}

	raw, err := signed.Bytes()
	if err != nil {
		return nil, newErrorf(ErrorCodeSigningFailure, "serialize : %s", err)
	}

	ctx = logger.ContextWithTxID(ctx, signed.ID().String())

	id, err := o.chain.Submit(ctx, raw)
	if err != nil {
		return nil, providerError(err, ErrorCodeSubmissionError,
			fmt.Sprintf("submit %s", signed.ID()))
	}

	if !id.Equal(signed.ID()) {
		logger.Warn(ctx, "Node returned tx id %s", id)
	}

	receipt := &Receipt{
		TxID:          signed.ID(),
		Action:        unsigned.Action,
		MilestoneID:   unsigned.Agreement.Milestone.ID,
		Signer:        unsigned.Signer,
		Reward:        unsigned.Agreement.Milestone.Reward,
		Payment:       unsigned.Payment,
		Fee:           unsigned.Tx.Fee,
		ScriptAddress: o.scriptAddress,
		State:         StateOf(unsigned.Agreement.Milestone),
		SubmittedAt:   time.Now().UTC(),
	}
	if unsigned.PaidTo != nil {
		receipt.PaidTo = unsigned.PaidTo.String()
	}
	for _, output := range unsigned.Tx.Outputs {
		if output.Address.Equal(o.scriptAddress) {
			receipt.LockedValue += output.Value.Coin
		}
	}
	if unsigned.Action == ActionRedeem || unsigned.Action == ActionRefund {
		receipt.State = StateRedeemed
		if unsigned.Action == ActionRefund {
			receipt.State = StateRefunded
		}
	}

	logger.Info(ctx, "Submitted %s for milestone %d, fee %d", unsigned.Action,
		receipt.MilestoneID, receipt.Fee)

	if o.receipts != nil {
		if err := o.receipts.Save(ctx, receipt); err != nil {
			logger.Error(ctx, "Failed to save receipt : %s", err)
		}
	}

	return receipt, nil
}

// Sign signs the transaction with the signer's key, which is only decrypted for the call.
func (o *Orchestrator) Sign(ctx context.Context, unsigned *UnsignedTx,
	signer KeyProvider) (*txbuilder.SignedTx, error) {

	ctx, span := trace.StartSpan(ctx, "escrow.Orchestrator.Sign")
	defer span.End()

	var signed *txbuilder.SignedTx
	if err := signer.WithSigningKey(ctx, func(key *cardano.Key) error {
		var err error
		signed, err = unsigned.Tx.Sign(key)
		return err
	}); err != nil {
		return nil, newErrorf(ErrorCodeSigningFailure, "tx %s : %s", unsigned.Tx.ID, err)
	}

	if !signed.IsSigned() {
		return nil, newErrorf(ErrorCodeSigningFailure, "tx %s missing required signatures",
			unsigned.Tx.ID)
	}

	return signed, nil
}

// Build returns the unsigned transaction for action. It reads from the chain and evaluates the
// script but submits nothing.
func (o *Orchestrator) Build(ctx context.Context, action Action, meta Metadata,
	signer KeyProvider) (*UnsignedTx, error) {

	ctx, span := trace.StartSpan(ctx, "escrow.Orchestrator.Build")
	defer span.End()
	defer recordBuildLatency(ctx, action, time.Now())

	vkey, err := signer.VerificationKey(ctx)
	if err != nil {
		return nil, newErrorf(ErrorCodeSigningFailure, "verification key : %s", err)
	}
	signerHash := vkey.Hash()
	signerAddress := signer.Address(vkey)

	params, err := o.chain.ProtocolParameters(ctx)
	if err != nil {
		return nil, providerError(err, ErrorCodeProviderUnavailable, "protocol parameters")
	}

	wallet, err := o.chain.UTXOs(ctx, signerAddress)
	if err != nil {
		return nil, providerError(err, ErrorCodeProviderUnavailable,
			fmt.Sprintf("wallet utxos %s", signerAddress))
	}

	scriptUTXOs, err := o.chain.UTXOs(ctx, o.scriptAddress)
	if err != nil {
		return nil, providerError(err, ErrorCodeProviderUnavailable,
			fmt.Sprintf("script utxos %s", o.scriptAddress))
	}

	logger.Verbose(ctx, "Building %s as %s with %d wallet utxos", action, signerAddress,
		len(wallet))

	b := &build{
		Orchestrator:  o,
		params:        *params,
		meta:          meta,
		signerHash:    signerHash,
		signerAddress: signerAddress,
		wallet:        wallet,
		scriptUTXOs:   scriptUTXOs,
	}

	switch action {
	case ActionCreate:
		return b.create(ctx)
	case ActionApprove, ActionRedeem, ActionRefund:
		return b.spend(ctx, action)
	}

	return nil, newErrorf(ErrorCodeInvalidAction, "unknown action %q", action)
}

// build holds the inputs of one Build call.
type build struct {
	*Orchestrator
	params        txbuilder.ProtocolParameters
	meta          Metadata
	signerHash    cardano.Hash28
	signerAddress cardano.Address
	wallet        []txbuilder.UTXO
	scriptUTXOs   []txbuilder.UTXO
}

func (b *build) create(ctx context.Context) (*UnsignedTx, error) {
	meta := b.meta
	if meta.Reward == 0 {
		return nil, newErrorf(ErrorCodeInvalidAction, "milestone %d has zero reward",
			meta.MilestoneID)
	}
	if meta.ClientAddress.IsZero() || meta.FreelancerAddress.IsZero() {
		return nil, newErrorf(ErrorCodeInvalidAction, "milestone %d missing party address",
			meta.MilestoneID)
	}

	agreement := JobAgreement{
		Freelancer: meta.FreelancerAddress.PaymentHash(),
		Client:     meta.ClientAddress.PaymentHash(),
		Milestone: Milestone{
			ID:     meta.MilestoneID,
			Reward: meta.Reward,
		},
	}

	if _, _, err := b.role(agreement, ActionCreate); err != nil {
		return nil, err
	}

	// One UTXO per milestone id.
	if existing, _, err := FindMilestoneUTXO(ctx, b.scriptUTXOs, meta.MilestoneID); err == nil {
		return nil, newErrorf(ErrorCodeInvalidAction, "milestone %d already locked in %s",
			meta.MilestoneID, existing.Ref())
	} else if !IsErrorCode(err, ErrorCodeMilestoneNotFound) {
		return nil, err
	}

	datum, err := EncodeDatum(agreement)
	if err != nil {
		return nil, errors.Wrap(err, "encode datum")
	}

	output := txbuilder.Output{
		Address: b.scriptAddress,
		Value:   cardano.NewValue(meta.Reward),
		Datum:   datum,
	}

	min, err := b.params.MinOutputValue(output)
	if err != nil {
		return nil, errors.Wrap(err, "min output value")
	}
	if output.Value.Coin < min {
		logger.Info(ctx, "Raising locked value %d to ledger minimum %d", output.Value.Coin, min)
		output.Value.Coin = min
	}

	builder := txbuilder.NewTxBuilder(b.params, b.signerAddress)
	builder.Funding = fundingUTXOs(b.wallet)
	if err := builder.AddOutput(output); err != nil {
		return nil, buildError(err, b.wallet)
	}

	tx, err := builder.Build()
	if err != nil {
		return nil, buildError(err, b.wallet)
	}

	return &UnsignedTx{
		Action:    ActionCreate,
		Tx:        tx,
		Agreement: agreement,
		Signer:    b.signerHash,
		Payment:   output.Value.Coin,
	}, nil
}

func (b *build) spend(ctx context.Context, action Action) (*UnsignedTx, error) {
	utxo, agreement, err := FindMilestoneUTXO(ctx, b.scriptUTXOs, b.meta.MilestoneID)
	if err != nil {
		return nil, err
	}

	collateral, err := FindCollateralUTXO(b.wallet, b.config.CollateralMinimum)
	if err != nil {
		return nil, err
	}

	if err := b.checkMetadata(agreement); err != nil {
		return nil, err
	}

	if agreement.Milestone.Paid {
		return nil, newErrorf(ErrorCodeInvalidAction, "milestone %d already paid",
			agreement.Milestone.ID)
	}

	isClient, isFreelancer, err := b.role(*agreement, action)
	if err != nil {
		return nil, err
	}

	redeemer := Redeemer{
		Signer:       b.signerHash,
		IsClient:     isClient,
		IsFreelancer: isFreelancer,
	}

	result := &UnsignedTx{
		Action:    action,
		Agreement: *agreement,
		Spent:     &utxo,
		Redeemer:  &redeemer,
		Signer:    b.signerHash,
	}

	var output txbuilder.Output
	switch action {
	case ActionApprove:
		redeemer.Action = RedeemerApproveMilestone
		updated := *agreement
		if isClient {
			if updated.Milestone.ApprovedByClient {
				return nil, newErrorf(ErrorCodeAlreadyApproved,
					"milestone %d already approved by client %s", updated.Milestone.ID,
					updated.Client)
			}
			updated.Milestone.ApprovedByClient = true
		} else {
			if updated.Milestone.ApprovedByFreelancer {
				return nil, newErrorf(ErrorCodeAlreadyApproved,
					"milestone %d already approved by freelancer %s", updated.Milestone.ID,
					updated.Freelancer)
			}
			updated.Milestone.ApprovedByFreelancer = true
		}

		datum, err := EncodeDatum(updated)
		if err != nil {
			return nil, errors.Wrap(err, "encode datum")
		}

		output = txbuilder.Output{
			Address: b.scriptAddress,
			Value:   utxo.Value,
			Datum:   datum,
		}
		result.Agreement = updated
		result.Payment = utxo.Value.Coin

	case ActionRedeem:
		redeemer.Action = RedeemerRedeemMilestone
		m := agreement.Milestone
		if !m.ApprovedByClient || !m.ApprovedByFreelancer {
			return nil, newErrorf(ErrorCodeNotFullyApproved,
				"milestone %d approved by client %t, freelancer %t", m.ID, m.ApprovedByClient,
				m.ApprovedByFreelancer)
		}

		output, err = b.payout(b.meta.FreelancerAddress, m.Reward)
		if err != nil {
			return nil, err
		}
		result.PaidTo = &output.Address
		result.Payment = output.Value.Coin

	case ActionRefund:
		redeemer.Action = RedeemerRefund
		output, err = b.payout(b.meta.ClientAddress, agreement.Milestone.Reward)
		if err != nil {
			return nil, err
		}
		result.PaidTo = &output.Address
		result.Payment = output.Value.Coin
	}

	if err := redeemer.validate(); err != nil {
		return nil, err
	}

	builder := txbuilder.NewTxBuilder(b.params, b.signerAddress)
	builder.Funding = fundingUTXOs(b.wallet)
	builder.AddScriptInput(utxo, b.script, RedeemerData(redeemer))
	builder.AddCollateral(collateral)
	builder.AddRequiredSigner(b.signerHash)
	if err := builder.AddOutput(output); err != nil {
		return nil, buildError(err, b.wallet)
	}

	tx, err := b.evaluate(ctx, builder)
	if err != nil {
		return nil, err
	}

	result.Tx = tx
	logger.Verbose(ctx, "Built %s spending %s with collateral %s, fee %d", action, utxo.Ref(),
		collateral.Ref(), tx.Fee)
	return result, nil
}

// evaluate builds the transaction, has the node evaluate its scripts and rebuilds it with the
// reported budgets.
func (b *build) evaluate(ctx context.Context, builder *txbuilder.TxBuilder) (*txbuilder.Tx,
	error) {

	ctx, span := trace.StartSpan(ctx, "escrow.Orchestrator.evaluate")
	defer span.End()

	tx, err := builder.Build()
	if err != nil {
		return nil, buildError(err, b.wallet)
	}

	raw, err := tx.Bytes()
	if err != nil {
		return nil, errors.Wrap(err, "serialize for evaluation")
	}

	evaluations, err := b.chain.Evaluate(ctx, raw)
	if err != nil {
		return nil, providerError(err, ErrorCodeEvaluationError, "evaluate")
	}

	var total txbuilder.ExUnits
	for _, e := range evaluations {
		if e.Tag != txbuilder.RedeemerTagSpend || int(e.Index) >= len(tx.Inputs) {
			return nil, newErrorf(ErrorCodeEvaluationError, "unexpected budget for %s %d",
				e.Tag, e.Index)
		}
		builder.ExUnits[tx.Inputs[e.Index].Ref()] = e.ExUnits
		total.Mem += e.ExUnits.Mem
		total.Steps += e.ExUnits.Steps
	}

	for _, r := range tx.Redeemers {
		if _, exists := builder.ExUnits[tx.Inputs[r.Index].Ref()]; !exists {
			return nil, newErrorf(ErrorCodeEvaluationError, "no budget for input %d", r.Index)
		}
	}

	max := b.params.MaxTxExUnits
	if (max.Mem > 0 && total.Mem > max.Mem) || (max.Steps > 0 && total.Steps > max.Steps) {
		return nil, newErrorf(ErrorCodeEvaluationError, "budget %s exceeds maximum %s", total,
			max)
	}

	tx, err = builder.Build()
	if err != nil {
		return nil, buildError(err, b.wallet)
	}

	logger.Verbose(ctx, "Script budget %s", total)
	return tx, nil
}

// payout returns a plain output paying reward, raised to the ledger minimum.
func (b *build) payout(address cardano.Address, reward uint64) (txbuilder.Output, error) {
	if address.IsZero() {
		return txbuilder.Output{}, newErrorf(ErrorCodeInvalidAction,
			"milestone %d missing payout address", b.meta.MilestoneID)
	}

	output := txbuilder.Output{Address: address, Value: cardano.NewValue(reward)}

	min, err := b.params.MinOutputValue(output)
	if err != nil {
		return output, errors.Wrap(err, "min output value")
	}
	if output.Value.Coin < min {
		output.Value.Coin = min
	}
	return output, nil
}

// checkMetadata compares the application's view of the milestone with the datum.
func (b *build) checkMetadata(agreement *JobAgreement) error {
	meta := b.meta
	if !meta.ClientAddress.IsZero() && meta.ClientAddress.PaymentHash() != agreement.Client {
		return newErrorf(ErrorCodeInvalidAction, "client %s is not datum client %s",
			meta.ClientAddress, agreement.Client)
	}
	if !meta.FreelancerAddress.IsZero() &&
		meta.FreelancerAddress.PaymentHash() != agreement.Freelancer {
		return newErrorf(ErrorCodeInvalidAction, "freelancer %s is not datum freelancer %s",
			meta.FreelancerAddress, agreement.Freelancer)
	}
	if meta.Reward != 0 && meta.Reward != agreement.Milestone.Reward {
		return newErrorf(ErrorCodeInvalidAction, "reward %d is not datum reward %d",
			meta.Reward, agreement.Milestone.Reward)
	}
	return nil
}

// role returns which party the signer acts as. When the signer is both parties the client role
// is used to refund and for the client's own approval, and the freelancer role otherwise.
func (b *build) role(agreement JobAgreement, action Action) (bool, bool, error) {
	isClient := b.signerHash == agreement.Client
	isFreelancer := b.signerHash == agreement.Freelancer

	if !isClient && !isFreelancer {
		return false, false, newErrorf(ErrorCodeInvalidAction,
			"signer %s is neither client %s nor freelancer %s", b.signerHash, agreement.Client,
			agreement.Freelancer)
	}

	if isClient && isFreelancer {
		switch action {
		case ActionRefund:
			isFreelancer = false
		case ActionRedeem:
			isClient = false
		default:
			if agreement.Milestone.ApprovedByClient {
				isClient = false
			} else {
				isFreelancer = false
			}
		}
	}

	return isClient, isFreelancer, nil
}

// fundingUTXOs returns the wallet UTXOs that can pay for a transaction.
func fundingUTXOs(wallet []txbuilder.UTXO) []txbuilder.UTXO {
	var result []txbuilder.UTXO
	for _, u := range wallet {
		if len(u.Datum) == 0 && u.DatumHash == nil && !u.HasScript && !u.Address.IsScript() {
			result = append(result, u)
		}
	}
	return result
}

// buildError converts a transaction builder failure.
func buildError(err error, wallet []txbuilder.UTXO) error {
	if txbuilder.IsErrorCode(err, txbuilder.ErrorCodeInsufficientValue) ||
		txbuilder.IsErrorCode(err, txbuilder.ErrorCodeBelowMinimum) {
		return newErrorf(ErrorCodeInsufficientFunds, "wallet holds %d lovelace : %s",
			txbuilder.UTXOs(wallet).Value().Coin, err)
	}
	return errors.Wrap(err, "build tx")
}
