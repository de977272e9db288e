package logger

import (
	"context"
	"regexp"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewContext(t *testing.T) {
	ctx := NewContext()

	if ctx.Value(KeyLogger) == nil {
		t.Errorf("Want not nil, got nil")
	}

	if ctx.Value(KeyRequestID) == "" {
		t.Errorf("Expected request ID value to be non-empty")
	}

	requestID := ctx.Value(KeyRequestID).(string)

	if len(requestID) != 36 {
		t.Errorf("Got %v, want %v", len(requestID), 36)
	}
}

func TestContextWithRequestID(t *testing.T) {
	ctx := context.Background()

	gotNotSet := RequestIDFromContext(ctx)

	pattern := "unknown/[[:ascii:]]{36}"
	match, _ := regexp.MatchString(pattern, gotNotSet)

	if !match {
		t.Errorf("%v did not match %v", gotNotSet, pattern)
	}

	want := "foo"
	ctx = ContextWithRequestID(ctx, want)

	if ctx.Value(KeyLogger) == nil {
		t.Errorf("Want not nil, got nil")
	}

	got := ctx.Value(KeyRequestID)
	if got != want {
		t.Errorf("Got %v, want %v", got, want)
	}

	got = RequestIDFromContext(ctx)
	if got != want {
		t.Errorf("Got %v, want %v", got, want)
	}
}

func TestContextWithLogger(t *testing.T) {
	ctx := context.Background()

	logger, _ := zap.NewProduction()
	ctx = ContextWithLogger(ctx, logger)

	if ctx.Value(KeyLogger) != logger {
		t.Errorf("Want %v, got %v", logger, ctx.Value(KeyLogger))
	}
}

func TestNewLoggerFromContext(t *testing.T) {
	ctx := NewContext()

	logger := NewLoggerFromContext(ctx)

	if logger == nil {
		t.Errorf("Want non-nil Logger")
	}
}

func TestNewLoggerFromContext_nilLogger(t *testing.T) {
	ctx := context.Background()

	logger := NewLoggerFromContext(ctx)

	if logger == nil {
		t.Errorf("Want non-nil Logger")
	}
}

func TestNewContextWithNamedLogger(t *testing.T) {
	ctx := NewContextWithNamedLogger("foo")

	requestID := RequestIDFromContext(ctx)

	if len(requestID) == 0 {
		t.Errorf("Expected non-zero length requestID")
	}

	logger := NewLoggerFromContext(ctx)

	if logger == nil {
		t.Errorf("Want non-nil Logger")
	}
}

func TestContextWithTxID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ctx := ContextWithLogger(NewContext(), zap.New(core))

	ctx = ContextWithMilestone(ctx, 7)
	ctx = ContextWithTxID(ctx, "ab12")

	if got := TxIDFromContext(ctx); got != "ab12" {
		t.Errorf("Got %v, want %v", got, "ab12")
	}

	Info(ctx, "Submitted\n")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("Got %d entries, want %d", len(entries), 1)
	}

	if entries[0].Message != "Submitted" {
		t.Errorf("Got %q, want %q", entries[0].Message, "Submitted")
	}

	fields := entries[0].ContextMap()
	if fields[fieldTxID] != "ab12" {
		t.Errorf("Got %v, want %v", fields[fieldTxID], "ab12")
	}
	if fields[fieldMilestone] != uint64(7) {
		t.Errorf("Got %v, want %v", fields[fieldMilestone], 7)
	}
}

func TestTxIDFromContext_notSet(t *testing.T) {
	if got := TxIDFromContext(context.Background()); got != "" {
		t.Errorf("Got %v, want empty", got)
	}
}

func TestSetup(t *testing.T) {
	if err := Setup(Config{Level: "verbose", Development: true}); err != nil {
		t.Fatalf("Failed to setup : %s", err)
	}

	if _, isVerbose := baseLogger(); !isVerbose {
		t.Errorf("Want verbose")
	}

	if err := Setup(Config{Level: "loud"}); err == nil {
		t.Errorf("Want error for invalid level")
	}

	if err := Setup(Config{Level: "warn"}); err != nil {
		t.Fatalf("Failed to setup : %s", err)
	}

	if _, isVerbose := baseLogger(); isVerbose {
		t.Errorf("Want not verbose")
	}
}
