package logging

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRunIDFromContext(t *testing.T) {
	if got := RunIDFromContext(context.Background()); got != nil {
		t.Fatalf("expected nil run ID, got %v", got)
	}
	ctx := WithRunID(context.Background(), "run-abc")
	got := RunIDFromContext(ctx)
	if got == nil || *got != "run-abc" {
		t.Fatalf("expected run-abc, got %v", got)
	}
}

func TestWithRunIDGeneratesUUID(t *testing.T) {
	ctx := WithRunID(context.Background(), "")
	got := RunIDFromContext(ctx)
	if got == nil {
		t.Fatal("expected generated run ID")
	}
	if _, err := uuid.Parse(*got); err != nil {
		t.Fatalf("expected UUID run ID, got %q: %v", *got, err)
	}
}

func TestWithRunIDStampsLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithLogger(context.Background(), zap.New(core))
	ctx = WithRunID(ctx, "run-xyz")

	LogInfo(ctx, "sweep started")

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["runId"]; got != "run-xyz" {
		t.Fatalf("expected runId run-xyz, got %v", got)
	}
}

func TestLogErrorAppendsErrorField(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	ctx := WithLogger(context.Background(), zap.New(core))

	LogError(ctx, "failed", errors.New("boom"), zap.String("foo", "bar"))

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Message != "failed" {
		t.Fatalf("unexpected log message: %s", entry.Message)
	}

	fields := map[string]zap.Field{}
	for _, f := range entry.Context {
		fields[f.Key] = f
	}
	if f, ok := fields["foo"]; !ok || f.String != "bar" {
		t.Fatalf("expected foo field, got %+v", fields)
	}
	if f, ok := fields["error"]; !ok || f.Type != zapcore.ErrorType {
		t.Fatalf("expected error field, got %+v", fields)
	}
}

func TestLogErrorNilError(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	ctx := WithLogger(context.Background(), zap.New(core))

	LogError(ctx, "no error", nil, zap.String("key", "value"))

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	for _, f := range entries[0].Context {
		if f.Key == "error" {
			t.Fatal("did not expect error field when err is nil")
		}
	}
}

func TestLogLevelsWriteEntries(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	ctx := WithLogger(context.Background(), zap.New(core))

	LogDebug(ctx, "debug message")
	LogInfo(ctx, "info message")
	LogWarn(ctx, "warn message", zap.Int("status", 500))

	entries := recorded.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(entries))
	}
	wantLevels := []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel}
	for i, lvl := range wantLevels {
		if entries[i].Level != lvl {
			t.Errorf("entry %d: expected level %s, got %s", i, lvl, entries[i].Level)
		}
	}
}

func TestLogFatalAppendsErrorField(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	logger := zap.New(core, zap.WithFatalHook(zapcore.WriteThenPanic))
	ctx := WithLogger(context.Background(), logger)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic triggered by fatal hook")
		}
		entries := recorded.All()
		if len(entries) != 1 {
			t.Fatalf("expected 1 log entry, got %d", len(entries))
		}
		if entries[0].Level != zapcore.FatalLevel {
			t.Fatalf("unexpected log level: %s", entries[0].Level)
		}
	}()

	LogFatal(ctx, "fatal failure", errors.New("boom"))
}

func TestLoggerFromContextFallsBack(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	if LoggerFromContext(nil) != Logger() {
		t.Fatal("expected global logger for nil context")
	}
	if LoggerFromContext(context.Background()) != Logger() {
		t.Fatal("expected global logger for bare context")
	}
}

func TestSugarFromContext(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithLogger(context.Background(), zap.New(core))

	SugarFromContext(ctx).Infow("test message", "key", "value")

	entries := recorded.All()
	if len(entries) != 1 || entries[0].Message != "test message" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}
