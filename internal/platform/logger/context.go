package logger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type key int

const (
	// KeyRequestID is the Request ID in the Context.
	KeyRequestID key = 0

	// KeyLogger is the Logger in the Context.
	KeyLogger key = 1

	// KeyTxID is the id of the transaction being built or submitted.
	KeyTxID key = 2

	// KeyMilestone is the milestone id the operation is for.
	KeyMilestone key = 3
)

// NewContext returns a Context from a background Context, with a new RequestID set and a Logger
// that includes the RequestID field.
func NewContext() context.Context {
	return ContextWithRequestID(context.Background(), "")
}

// NewContextWithRequestID returns a fully configured Context, the same
// as from NewContext, but with the given RequestID.
func NewContextWithRequestID(id string) context.Context {
	return ContextWithRequestID(context.Background(), id)
}

// ContextWithRequestID returns a Context with a RequestID, generating one when id is empty, and a
// Logger with the RequestID field set.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if len(id) == 0 {
		uid, _ := uuid.NewRandom()
		id = uid.String()
	}

	ctx = context.WithValue(ctx, KeyRequestID, id)
	return ContextWithLogger(ctx, newLogger(ctx))
}

// ContextWithTxID returns a Context whose Logger includes the transaction id.
func ContextWithTxID(ctx context.Context, txID string) context.Context {
	ctx = context.WithValue(ctx, KeyTxID, txID)

	logger := NewLoggerFromContext(ctx).With(zap.String(fieldTxID, txID))
	return ContextWithLogger(ctx, logger)
}

// ContextWithMilestone returns a Context whose Logger includes the milestone id.
func ContextWithMilestone(ctx context.Context, milestoneID uint64) context.Context {
	ctx = context.WithValue(ctx, KeyMilestone, milestoneID)

	logger := NewLoggerFromContext(ctx).With(zap.Uint64(fieldMilestone, milestoneID))
	return ContextWithLogger(ctx, logger)
}

// ContextWithLogger adds the Logger to the Context.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, KeyLogger, logger)
}

// NewContextWithNamedLogger returns a new Context with a named Logger.
func NewContextWithNamedLogger(name string) context.Context {
	return ContextWithNamedLogger(NewContext(), name)
}

// ContextWithNamedLogger returns a Context with a new named Logger.
func ContextWithNamedLogger(ctx context.Context, name string) context.Context {
	return ContextWithLogger(ctx, NewLoggerFromContext(ctx).Named(name))
}

// RequestIDFromContext returns the request ID from the Context.
//
// If the value was not set in the Context, "unknown/<uuid>" is returned so callers that don't set
// one can be found in the logs.
func RequestIDFromContext(ctx context.Context) string {
	v := ctx.Value(KeyRequestID)

	if v == nil {
		id, _ := uuid.NewRandom()
		return fmt.Sprintf("unknown/%s", id.String())
	}

	return v.(string)
}

// TxIDFromContext returns the id of the transaction being processed if set, otherwise an empty
// string.
func TxIDFromContext(ctx context.Context) string {
	v := ctx.Value(KeyTxID)

	if v == nil {
		return ""
	}

	return v.(string)
}
