package network

import (
	"context"
	"fmt"

	"github.com/tokenized/milestone-escrow/internal/platform/logger"
	"github.com/tokenized/milestone-escrow/pkg/cardano"
	"github.com/tokenized/milestone-escrow/pkg/ogmios"
	"github.com/tokenized/milestone-escrow/pkg/submitapi"
	"github.com/tokenized/milestone-escrow/pkg/txbuilder"
)

/**
 * Network Kit
 *
 * What is my purpose?
 * - You query the ledger through Ogmios
 * - You evaluate scripts through Ogmios
 * - You submit through the submit API when there is one, and through Ogmios otherwise
 * - You tell me when the node could not be reached, as opposed to rejecting a request
 */
type Network struct {
	Ogmios    *ogmios.Client
	SubmitAPI *submitapi.Client // optional
}

func NewNetwork(oc *ogmios.Config, sc *submitapi.Config) *Network {
	n := &Network{
		Ogmios: ogmios.NewClient(oc),
	}

	if sc != nil && len(sc.URL) > 0 {
		n.SubmitAPI = submitapi.NewClient(*sc)
	}

	return n
}

// UnavailableError marks a failure to reach a provider. Callers test for it with an
// `Unavailable() bool` method after errors.Cause.
type UnavailableError struct {
	err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("provider unavailable : %s", e.err)
}

func (e *UnavailableError) Unavailable() bool {
	return true
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if ogmios.IsUnavailable(err) || submitapi.IsUnavailable(err) {
		return &UnavailableError{err: err}
	}
	return err
}

func (n *Network) UTXOs(ctx context.Context, address cardano.Address) ([]txbuilder.UTXO, error) {
	utxos, err := n.Ogmios.UTXOs(ctx, address)
	return utxos, classify(err)
}

func (n *Network) ProtocolParameters(ctx context.Context) (*txbuilder.ProtocolParameters, error) {
	params, err := n.Ogmios.ProtocolParameters(ctx)
	return params, classify(err)
}

func (n *Network) Evaluate(ctx context.Context, tx []byte) ([]txbuilder.Evaluation, error) {
	evaluations, err := n.Ogmios.Evaluate(ctx, tx)
	return evaluations, classify(err)
}

func (n *Network) Submit(ctx context.Context, tx []byte) (cardano.Hash32, error) {
	if n.SubmitAPI != nil {
		logger.Verbose(ctx, "Submitting through submit API")
		id, err := n.SubmitAPI.Submit(ctx, tx)
		return id, classify(err)
	}

	id, err := n.Ogmios.Submit(ctx, tx)
	return id, classify(err)
}

func (n *Network) Close() error {
	return n.Ogmios.Close()
}
