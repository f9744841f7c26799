package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestMockGatewayServiceLifecycle(t *testing.T) {
	svc := NewMockGatewayService(testEmail, testPassword)
	ctx := context.Background()

	before, err := svc.ListProfileIDs(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id, err := svc.CreateProfile(ctx, " Kid ", ProfileSpec{AgeRating: AgeRatingKids, Gender: GenderFemale})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ulid.Parse(id); err != nil {
		t.Fatalf("expected a ULID, got %q: %v", id, err)
	}

	profiles, err := svc.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profiles) != len(before)+1 {
		t.Fatalf("expected %d profiles, got %d", len(before)+1, len(profiles))
	}
	got := profiles[len(profiles)-1]
	if got.Name != "Kid" || got.AvatarID != DefaultAvatarID || got.BirthYear != DefaultBirthYear || got.AgeRating != AgeRatingKids {
		t.Errorf("unexpected stored profile: %+v", got)
	}

	if err := svc.RemoveProfile(ctx, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after, err := svc.ListProfileIDs(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("expected %d profiles after removal, got %d", len(before), len(after))
	}
}

func TestMockGatewayServiceRemoveUnknownIsLenient(t *testing.T) {
	svc := NewMockGatewayService(testEmail, testPassword)
	if err := svc.RemoveProfile(context.Background(), "01UNKNOWN"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestMockGatewayServiceRejectsWrongPassword(t *testing.T) {
	svc := NewMockGatewayService(testEmail, testPassword)

	_, err := svc.ListProfileIDs(context.Background(), WithCredentials(testEmail, "wrong"))
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Status != 401 {
		t.Fatalf("expected 401 RequestError, got %#v", err)
	}
}

func TestMockGatewayServiceSeparatesAccounts(t *testing.T) {
	svc := NewMockGatewayService(testEmail, testPassword)
	svc.AddAccount("second@example.com", "pw2")
	svc.Seed(testEmail, Profile{ULID: "01SEEDED", Name: "Owner"})
	ctx := context.Background()

	other, err := svc.ListProfileIDs(ctx, WithCredentials("second@example.com", "pw2"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected second account to be empty, got %v", other)
	}
	ids, err := svc.ListProfileIDs(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "01SEEDED" {
		t.Fatalf("expected seeded profile, got %v", ids)
	}
}

func TestMockGatewayServiceValidatesBeforeCalling(t *testing.T) {
	svc := NewMockGatewayService(testEmail, testPassword)

	if _, err := svc.CreateProfile(context.Background(), "  ", ProfileSpec{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := svc.RemoveProfile(context.Background(), ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if n := len(svc.Calls()); n != 0 {
		t.Fatalf("expected no recorded calls, got %d", n)
	}
}

func TestMockGatewayServiceRecordsCalls(t *testing.T) {
	svc := NewMockGatewayService(testEmail, testPassword)
	ctx := context.Background()

	id, err := svc.CreateProfile(ctx, "A", ProfileSpec{})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.RemoveProfile(ctx, id); err != nil {
		t.Fatal(err)
	}

	want := []string{MethodTokenPassword, MethodProfileCreate, MethodTokenPassword, MethodProfileRemove}
	calls := svc.Calls()
	if len(calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, calls)
		}
	}
}

func TestMockGatewayServiceCreateSimpleProfileUsesDefaults(t *testing.T) {
	var svc Service = NewMockGatewayService(testEmail, testPassword)
	ctx := context.Background()

	id, err := svc.CreateSimpleProfile(ctx, "  Simple ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	profiles, err := svc.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profiles) != 1 || profiles[0].ULID != id {
		t.Fatalf("expected only %s, got %+v", id, profiles)
	}
	got := profiles[0]
	if got.Name != "Simple" || got.AvatarID != DefaultAvatarID || got.Gender != DefaultGender ||
		got.BirthYear != DefaultBirthYear || got.AgeRating != "" {
		t.Errorf("defaults not applied: %+v", got)
	}

	if _, err := svc.CreateSimpleProfile(ctx, " "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
