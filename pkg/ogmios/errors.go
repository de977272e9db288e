package ogmios

import (
	"context"
	"encoding/json"
	"fmt"
	"net"

	"github.com/pkg/errors"
)

var ErrUnavailable = errors.New("Ogmios unavailable")

// RPCError is an error response from Ogmios. The ledger rejected or failed to evaluate the
// request, as opposed to the node being unreachable.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("ogmios error %d : %s : %s", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("ogmios error %d : %s", e.Code, e.Message)
}

// IsUnavailable returns true when err means the node could not be reached or did not answer in
// time.
func IsUnavailable(err error) bool {
	return errors.Cause(err) == ErrUnavailable
}

// AsRPCError returns the Ogmios error response wrapped by err.
func AsRPCError(err error) (*RPCError, bool) {
	rerr, ok := errors.Cause(err).(*RPCError)
	return rerr, ok
}

// unavailable wraps a transport failure so IsUnavailable reports it.
func unavailable(err error, msg string) error {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return errors.Wrapf(ErrUnavailable, "%s : timeout : %s", msg, err)
	}
	if err == context.DeadlineExceeded {
		return errors.Wrapf(ErrUnavailable, "%s : timeout", msg)
	}
	return errors.Wrapf(ErrUnavailable, "%s : %s", msg, err)
}
