// Package submitapi submits signed transactions to a cardano-submit-api server.
package submitapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tokenized/milestone-escrow/internal/platform/logger"
	"github.com/tokenized/milestone-escrow/pkg/cardano"

	"github.com/pkg/errors"
)

const (
	// SubSystem is used by the logger package
	SubSystem = "SubmitAPI"

	submitPath  = "/api/submit/tx"
	contentType = "application/cbor"

	// maxResponseSize bounds the body read from the server.
	maxResponseSize = 1 << 20
)

var ErrUnavailable = errors.New("Submit API unavailable")

// RejectedError is returned when the server refuses the transaction.
type RejectedError struct {
	Status int
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("submit rejected (%d) : %s", e.Status, e.Reason)
}

// IsUnavailable returns true when err means the server could not be reached or did not answer in
// time.
func IsUnavailable(err error) bool {
	return errors.Cause(err) == ErrUnavailable
}

type Config struct {
	URL     string
	Timeout time.Duration
}

func (c Config) String() string {
	return fmt.Sprintf("{URL:%v Timeout:%v}", c.URL, c.Timeout)
}

type Client struct {
	config Config
	client *http.Client
}

func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &Client{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// Submit posts the serialized transaction and returns the id the server reports.
func (c *Client) Submit(ctx context.Context, tx []byte) (cardano.Hash32, error) {
	ctx = logger.ContextWithLogSubSystem(ctx, SubSystem)
	defer logger.Elapsed(ctx, time.Now(), "Submit")

	url := strings.TrimSuffix(c.config.URL, "/") + submitPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(tx))
	if err != nil {
		return cardano.Hash32{}, errors.Wrap(err, "request")
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return cardano.Hash32{}, errors.Wrapf(ErrUnavailable, "post : %s", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return cardano.Hash32{}, errors.Wrapf(ErrUnavailable, "read response : %s", err)
	}

	switch {
	case resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		return cardano.Hash32{}, errors.Wrapf(ErrUnavailable, "status %d : %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	default:
		return cardano.Hash32{}, &RejectedError{
			Status: resp.StatusCode,
			Reason: strings.TrimSpace(string(body)),
		}
	}

	// The id is returned as a JSON string.
	var id string
	if err := json.Unmarshal(body, &id); err != nil {
		id = strings.Trim(strings.TrimSpace(string(body)), "\"")
	}

	hash, err := cardano.NewHash32FromStr(id)
	if err != nil {
		return cardano.Hash32{}, errors.Wrapf(err, "tx id %q", id)
	}

	logger.Verbose(ctx, "Submitted %s", hash)
	return *hash, nil
}
