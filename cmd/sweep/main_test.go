package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/janisto/prima-profile-e2e/internal/config"
	"github.com/janisto/prima-profile-e2e/internal/service/gateway"
)

const (
	sweepEmail    = "qa@example.com"
	sweepPassword = "Secret123*"
)

func seeded(t *testing.T, n int) (*gateway.MockGatewayService, []string) {
	t.Helper()
	m := gateway.NewMockGatewayService(sweepEmail, sweepPassword)
	ids := make([]string, 0, n)
	for range n {
		id, err := m.CreateSimpleProfile(context.Background(), "Sweep")
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		ids = append(ids, id)
	}
	return m, ids
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-list", "-keep", " A, B,,A "}, io.Discard)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !opts.list {
		t.Fatal("expected list mode")
	}
	if strings.Join(opts.keep, ",") != "A,B" {
		t.Fatalf("unexpected keep list %v", opts.keep)
	}

	if _, err := parseFlags([]string{"-bogus"}, io.Discard); err == nil {
		t.Fatal("expected unknown flag to fail")
	}
}

func TestRunListOnlyPrintsIDs(t *testing.T) {
	m, ids := seeded(t, 2)
	var out bytes.Buffer
	if err := run(context.Background(), m, config.Config{}, options{list: true}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.Fields(out.String()); strings.Join(got, ",") != strings.Join(ids, ",") {
		t.Fatalf("expected %v, got %v", ids, got)
	}
	left, _ := m.ListProfileIDs(context.Background())
	if len(left) != 2 {
		t.Fatalf("list mode must not remove profiles, %d left", len(left))
	}
}

func TestRunRemovesAllButKept(t *testing.T) {
	m, ids := seeded(t, 3)
	var out bytes.Buffer
	if err := run(context.Background(), m, config.Config{}, options{keep: ids[:1]}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "found 3, kept 1, removed 2, failed 0") {
		t.Fatalf("unexpected summary %q", out.String())
	}
	left, _ := m.ListProfileIDs(context.Background())
	if len(left) != 1 || left[0] != ids[0] {
		t.Fatalf("expected only %s left, got %v", ids[0], left)
	}
}

func TestRunReportsEnumerationFailure(t *testing.T) {
	m := gateway.NewMockGatewayService("", "")
	err := run(context.Background(), m, config.Config{}, options{}, io.Discard)
	if !errors.Is(err, gateway.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
