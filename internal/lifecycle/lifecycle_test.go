package lifecycle

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	applog "github.com/janisto/prima-profile-e2e/internal/platform/logging"
	"github.com/janisto/prima-profile-e2e/internal/service/gateway"
)

const (
	email    = "qa@example.com"
	password = "pw"
)

var errBoom = errors.New("boom")

// flakyService fails removal of selected profiles.
type flakyService struct {
	*gateway.MockGatewayService
	failing map[string]bool
}

func (f *flakyService) RemoveProfile(ctx context.Context, id string, opts ...gateway.CallOption) error {
	if f.failing[id] {
		return errBoom
	}
	return f.MockGatewayService.RemoveProfile(ctx, id, opts...)
}

func seedProfiles(t *testing.T, svc gateway.Service, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := range n {
		id, err := svc.CreateProfile(context.Background(), UniqueName("Seed"), gateway.ProfileSpec{BirthYear: 1990 + i})
		if err != nil {
			t.Fatalf("seeding profile: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestTrackerCleanupRemovesTrackedProfiles(t *testing.T) {
	svc := gateway.NewMockGatewayService(email, password)
	ctx := context.Background()
	untracked := seedProfiles(t, svc, 1)

	tr := NewTracker(svc)
	for range 3 {
		if _, err := tr.Create(ctx, UniqueName("TestProfile"), gateway.ProfileSpec{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if n, _ := ProfileCount(ctx, svc); n != 4 {
		t.Fatalf("expected 4 profiles, got %d", n)
	}

	if removed := tr.Cleanup(ctx); removed != 3 {
		t.Fatalf("expected 3 removals, got %d", removed)
	}
	if len(tr.IDs()) != 0 {
		t.Fatal("expected tracker to forget removed IDs")
	}
	ids, err := svc.ListProfileIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids, untracked) {
		t.Fatalf("expected only untracked profile to remain, got %v", ids)
	}
}

func TestTrackerIgnoresBlankAndDuplicateIDs(t *testing.T) {
	tr := NewTracker(gateway.NewMockGatewayService(email, password))
	tr.Track("")
	tr.Track("01A")
	tr.Track("01A")
	tr.Track("01B")
	if got := tr.IDs(); !slices.Equal(got, []string{"01A", "01B"}) {
		t.Fatalf("unexpected IDs %v", got)
	}
}

func TestTrackerCleanupLogsFailuresWithoutReturningThem(t *testing.T) {
	svc := &flakyService{MockGatewayService: gateway.NewMockGatewayService(email, password), failing: map[string]bool{}}
	core, logs := observer.New(zapcore.WarnLevel)
	ctx := applog.WithLogger(context.Background(), zap.New(core))

	tr := NewTracker(svc)
	ok, err := tr.Create(ctx, "A", gateway.ProfileSpec{})
	if err != nil {
		t.Fatal(err)
	}
	bad, err := tr.Create(ctx, "B", gateway.ProfileSpec{})
	if err != nil {
		t.Fatal(err)
	}
	svc.failing[bad] = true

	if removed := tr.Cleanup(ctx); removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	warnings := logs.FilterMessage("failed to delete profile").All()
	if len(warnings) != 1 || warnings[0].ContextMap()["ulid"] != bad {
		t.Fatalf("expected one warning for %s, got %v", bad, warnings)
	}
	if err := VerifyProfileExists(ctx, svc, ok); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected %s to be gone, got %v", ok, err)
	}
}

func TestRemoveByNameLogsFailures(t *testing.T) {
	svc := &flakyService{MockGatewayService: gateway.NewMockGatewayService(email, password), failing: map[string]bool{}}
	core, logs := observer.New(zapcore.WarnLevel)
	ctx := applog.WithLogger(context.Background(), zap.New(core))

	other, err := svc.CreateProfile(ctx, "Other", gateway.ProfileSpec{})
	if err != nil {
		t.Fatal(err)
	}
	gone, err := svc.CreateProfile(ctx, "Target", gateway.ProfileSpec{})
	if err != nil {
		t.Fatal(err)
	}
	stuck, err := svc.CreateProfile(ctx, "Target", gateway.ProfileSpec{})
	if err != nil {
		t.Fatal(err)
	}
	svc.failing[stuck] = true

	if removed := RemoveByName(ctx, svc, "Target"); removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	warnings := logs.FilterMessage("failed to delete profile").All()
	if len(warnings) != 1 || warnings[0].ContextMap()["ulid"] != stuck {
		t.Fatalf("expected one warning for %s, got %v", stuck, warnings)
	}
	ids, err := svc.ListProfileIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids, []string{other, stuck}) {
		t.Fatalf("expected %s removed, got %v", gone, ids)
	}
}

func TestRemoveByNameLogsListFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	ctx := applog.WithLogger(context.Background(), zap.New(core))
	svc := gateway.NewMockGatewayService(email, password)

	removed := RemoveByName(ctx, svc, "Target", gateway.WithCredentials(email, "wrong"))
	if removed != 0 {
		t.Fatalf("expected no removals, got %d", removed)
	}
	if n := logs.FilterMessage("failed to list profiles").Len(); n != 1 {
		t.Fatalf("expected one list warning, got %d", n)
	}
}

func TestVerifyProfileExists(t *testing.T) {
	svc := gateway.NewMockGatewayService(email, password)
	ids := seedProfiles(t, svc, 2)
	ctx := context.Background()

	if err := VerifyProfileExists(ctx, svc, ids[1]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := VerifyProfileExists(ctx, svc, "01MISSING"); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestGuardCapacity(t *testing.T) {
	svc := gateway.NewMockGatewayService(email, password)
	ctx := context.Background()
	seedProfiles(t, svc, 2)

	if err := GuardCapacity(ctx, svc, 3); err != nil {
		t.Fatalf("unexpected error below limit: %v", err)
	}
	seedProfiles(t, svc, 1)
	if err := GuardCapacity(ctx, svc, 3); !errors.Is(err, ErrCapacity) {
		t.Fatalf("expected ErrCapacity at limit, got %v", err)
	}
}

func TestGuardCapacityPropagatesAuthFailure(t *testing.T) {
	svc := gateway.NewMockGatewayService(email, password)
	err := GuardCapacity(context.Background(), svc, 10, gateway.WithCredentials(email, "wrong"))
	if !errors.Is(err, gateway.ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
}

func TestSweepRemovesAllButKept(t *testing.T) {
	svc := &flakyService{MockGatewayService: gateway.NewMockGatewayService(email, password), failing: map[string]bool{}}
	ids := seedProfiles(t, svc, 4)
	svc.failing[ids[2]] = true

	report, err := Sweep(context.Background(), svc, SweepOptions{
		Timeout: time.Second,
		KeepIDs: []string{ids[0]},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(report.Found, ids) {
		t.Errorf("expected found %v, got %v", ids, report.Found)
	}
	if !slices.Equal(report.Kept, []string{ids[0]}) {
		t.Errorf("unexpected kept %v", report.Kept)
	}
	if !slices.Equal(report.Removed, []string{ids[1], ids[3]}) {
		t.Errorf("unexpected removed %v", report.Removed)
	}
	if !errors.Is(report.Failed[ids[2]], errBoom) || len(report.Failed) != 1 {
		t.Errorf("unexpected failures %v", report.Failed)
	}

	left, err := svc.ListProfileIDs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(left, []string{ids[0], ids[2]}) {
		t.Fatalf("unexpected remaining profiles %v", left)
	}
}

func TestSweepDryRunLeavesProfiles(t *testing.T) {
	svc := gateway.NewMockGatewayService(email, password)
	ids := seedProfiles(t, svc, 2)

	report, err := Sweep(context.Background(), svc, SweepOptions{DryRun: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(report.Found, ids) || len(report.Removed) != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if n, _ := ProfileCount(context.Background(), svc); n != 2 {
		t.Fatalf("expected profiles untouched, got %d", n)
	}
}

func TestSweepStopsWhenDeadlineExpires(t *testing.T) {
	svc := gateway.NewMockGatewayService(email, password)
	seedProfiles(t, svc, 2)

	ctx, cancel := context.WithCancel(context.Background())
	svcCtx := context.Background()
	ids, _ := svc.ListProfileIDs(svcCtx)
	cancel()

	report, err := Sweep(ctx, svc, SweepOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !slices.Equal(report.Found, ids) || len(report.Removed) != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestSweepEnumerationFailure(t *testing.T) {
	svc := gateway.NewMockGatewayService(email, password)
	_, err := Sweep(context.Background(), svc, SweepOptions{
		CallOptions: []gateway.CallOption{gateway.WithCredentials("nobody@example.com", "x")},
	})
	if !errors.Is(err, gateway.ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
}
