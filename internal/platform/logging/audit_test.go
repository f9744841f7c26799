package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogAuditEvent(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithLogger(context.Background(), zap.New(core))

	LogAuditEvent(ctx, "create", "qa@example.com", "profile", "01HZX3Q9", AuditSuccess, nil)

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].Message != "Audit event" {
		t.Errorf("expected message 'Audit event', got %v", entries[0].Message)
	}

	fields := entries[0].ContextMap()
	want := map[string]string{
		"audit.action":        "create",
		"audit.account":       "qa@example.com",
		"audit.resource_type": "profile",
		"audit.resource_id":   "01HZX3Q9",
		"audit.result":        "success",
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("expected %s %q, got %v", k, v, fields[k])
		}
	}
}

func TestLogAuditEventFailureDetails(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithLogger(context.Background(), zap.New(core))

	LogAuditEvent(ctx, "remove", "qa@example.com", "profile", "missing", AuditFailure,
		map[string]any{"status": 404})

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["audit.result"] != "failure" {
		t.Errorf("expected audit.result 'failure', got %v", fields["audit.result"])
	}
	details, ok := fields["audit.details"].(map[string]any)
	if !ok {
		t.Fatalf("expected audit.details to be a map, got %T", fields["audit.details"])
	}
	if details["status"] != 404 {
		t.Errorf("expected status 404, got %v", details["status"])
	}
}
