package ogmios

/**
 * Ogmios Client
 *
 * What is my purpose?
 * - You connect to a cardano node's Ogmios bridge
 * - You query UTXOs and protocol parameters, evaluate scripts and submit transactions for me
 */

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/tokenized/milestone-escrow/internal/platform/logger"
	"github.com/tokenized/milestone-escrow/pkg/cardano"
	"github.com/tokenized/milestone-escrow/pkg/txbuilder"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	// SubSystem is used by the logger package
	SubSystem = "Ogmios"

	methodQueryUTXO       = "queryLedgerState/utxo"
	methodQueryParameters = "queryLedgerState/protocolParameters"
	methodEvaluate        = "evaluateTransaction"
	methodSubmit          = "submitTransaction"
)

// Client is a JSON-RPC client for Ogmios. Requests are serialized over one websocket connection
// that is reopened after any transport failure.
type Client struct {
	config *Config
	dialer websocket.Dialer

	lock   sync.Mutex
	conn   *websocket.Conn
	nextID uint64
}

// NewClient returns a client. The connection is opened by the first request.
func NewClient(config *Config) *Client {
	return &Client{
		config: config,
		dialer: websocket.Dialer{HandshakeTimeout: config.Timeout},
	}
}

// UTXOs returns the unspent outputs at an address.
func (c *Client) UTXOs(ctx context.Context, address cardano.Address) ([]txbuilder.UTXO, error) {
	var raw []utxo
	if err := c.call(ctx, methodQueryUTXO, addressesParams{
		Addresses: []string{address.String()},
	}, &raw); err != nil {
		return nil, err
	}

	result := make([]txbuilder.UTXO, 0, len(raw))
	for _, u := range raw {
		converted, err := u.convert()
		if err != nil {
			return nil, errors.Wrapf(err, "utxo %s#%d", u.Transaction.ID, u.Index)
		}
		result = append(result, converted)
	}

	return result, nil
}

// ProtocolParameters returns the current ledger parameters.
func (c *Client) ProtocolParameters(ctx context.Context) (*txbuilder.ProtocolParameters, error) {
	var raw protocolParameters
	if err := c.call(ctx, methodQueryParameters, nil, &raw); err != nil {
		return nil, err
	}

	result, err := raw.convert()
	if err != nil {
		return nil, errors.Wrap(err, "protocol parameters")
	}
	return result, nil
}

// Evaluate runs the scripts of a transaction and returns the budget of each redeemer. A script
// failure is returned as an *RPCError.
func (c *Client) Evaluate(ctx context.Context, tx []byte) ([]txbuilder.Evaluation, error) {
	var raw []evaluation
	if err := c.call(ctx, methodEvaluate, newTransactionParams(tx), &raw); err != nil {
		return nil, err
	}

	result := make([]txbuilder.Evaluation, 0, len(raw))
	for _, e := range raw {
		converted, err := e.convert()
		if err != nil {
			return nil, err
		}
		result = append(result, converted)
	}

	return result, nil
}

// Submit submits a signed transaction and returns its id. A ledger rejection is returned as an
// *RPCError.
func (c *Client) Submit(ctx context.Context, tx []byte) (cardano.Hash32, error) {
	var raw submitResult
	if err := c.call(ctx, methodSubmit, newTransactionParams(tx), &raw); err != nil {
		return cardano.Hash32{}, err
	}

	id, err := cardano.NewHash32FromStr(raw.Transaction.ID)
	if err != nil {
		return cardano.Hash32{}, errors.Wrap(err, "tx id")
	}
	return *id, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) call(ctx context.Context, method string, params, result interface{}) error {
	ctx = logger.ContextWithLogSubSystem(ctx, SubSystem)
	defer logger.Elapsed(ctx, time.Now(), method)

	deadline := time.Now().Add(c.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	if err := c.connect(ctx, deadline); err != nil {
		return err
	}

	c.nextID++
	id := c.nextID
	logger.Verbose(ctx, "Requesting %s (%d)", method, id)

	c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(request{
		JSONRPC: jsonRPCVersion,
		Method:  method,
		Params:  params,
		ID:      id,
	}); err != nil {
		c.reset()
		return unavailable(err, method)
	}

	// Cancelling ctx interrupts the read.
	conn := c.conn
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.SetReadDeadline(time.Now())
		case <-done:
		}
	}()

	conn.SetReadDeadline(deadline)
	for {
		var resp response
		if err := conn.ReadJSON(&resp); err != nil {
			c.reset()
			if ctx.Err() != nil {
				return unavailable(ctx.Err(), method)
			}
			return unavailable(err, method)
		}

		if resp.ID != id {
			logger.Warn(ctx, "Ignoring response %d to %s, waiting for %d", resp.ID, resp.Method,
				id)
			continue
		}

		if resp.Error != nil {
			return errors.Wrap(resp.Error, method)
		}

		if result != nil {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return errors.Wrapf(err, "%s result", method)
			}
		}
		return nil
	}
}

func (c *Client) connect(ctx context.Context, deadline time.Time) error {
	if c.conn != nil {
		return nil
	}

	dialCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	conn, resp, err := c.dialer.DialContext(dialCtx, c.config.URL, http.Header{})
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return unavailable(err, "dial")
	}

	logger.Verbose(ctx, "Connected to %s", redact(c.config.URL))
	c.conn = conn
	return nil
}

func (c *Client) reset() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}
