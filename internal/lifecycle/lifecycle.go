// Package lifecycle keeps test accounts clean: it tracks profiles created by tests,
// sweeps leftovers after a run and guards against the service's profile cap.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	applog "github.com/janisto/prima-profile-e2e/internal/platform/logging"
	"github.com/janisto/prima-profile-e2e/internal/service/gateway"
)

// Errors
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrCapacity        = errors.New("account is at its test profile limit")
)

// Tracker remembers the profiles a test created so they can be removed afterwards.
type Tracker struct {
	svc  gateway.Service
	opts []gateway.CallOption

	mu  sync.Mutex
	ids []string
}

// NewTracker returns a Tracker whose calls act with opts (typically WithCredentials).
func NewTracker(svc gateway.Service, opts ...gateway.CallOption) *Tracker {
	return &Tracker{svc: svc, opts: opts}
}

// Track records a ULID for cleanup. Blank and duplicate IDs are ignored.
func (t *Tracker) Track(ulid string) {
	if ulid == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !slices.Contains(t.ids, ulid) {
		t.ids = append(t.ids, ulid)
	}
}

// IDs returns the tracked ULIDs in creation order.
func (t *Tracker) IDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.ids)
}

// Create creates a profile and tracks it.
func (t *Tracker) Create(ctx context.Context, name string, spec gateway.ProfileSpec) (string, error) {
	id, err := t.svc.CreateProfile(ctx, name, spec, t.opts...)
	if err != nil {
		return "", err
	}
	t.Track(id)
	return id, nil
}

// Cleanup removes every tracked profile and forgets them. Failures are logged,
// never returned; the result is the number of removals that did not error.
func (t *Tracker) Cleanup(ctx context.Context) int {
	t.mu.Lock()
	ids := t.ids
	t.ids = nil
	t.mu.Unlock()

	removed := 0
	for _, id := range ids {
		if err := t.svc.RemoveProfile(ctx, id, t.opts...); err != nil {
			applog.LogWarn(ctx, "failed to delete profile", zap.String("ulid", id), zap.Error(err))
			continue
		}
		removed++
	}
	return removed
}

// RemoveByName removes every profile called name. Like Cleanup it logs failures
// instead of returning them and reports how many removals succeeded.
func RemoveByName(ctx context.Context, svc gateway.Service, name string, opts ...gateway.CallOption) int {
	profiles, err := svc.ListProfiles(ctx, opts...)
	if err != nil {
		applog.LogWarn(ctx, "failed to list profiles", zap.String("name", name), zap.Error(err))
		return 0
	}
	removed := 0
	for _, p := range profiles {
		if p.Name != name {
			continue
		}
		if err := svc.RemoveProfile(ctx, p.ULID, opts...); err != nil {
			applog.LogWarn(ctx, "failed to delete profile", zap.String("ulid", p.ULID), zap.Error(err))
			continue
		}
		removed++
	}
	return removed
}

// ProfileCount returns how many profiles the account holds.
func ProfileCount(ctx context.Context, svc gateway.Service, opts ...gateway.CallOption) (int, error) {
	ids, err := svc.ListProfileIDs(ctx, opts...)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// VerifyProfileExists returns ErrProfileNotFound when ulid is not in the account's list.
func VerifyProfileExists(ctx context.Context, svc gateway.Service, ulid string, opts ...gateway.CallOption) error {
	ids, err := svc.ListProfileIDs(ctx, opts...)
	if err != nil {
		return err
	}
	if !slices.Contains(ids, ulid) {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, ulid)
	}
	return nil
}

// GuardCapacity fails with ErrCapacity when the account already holds limit or more profiles.
func GuardCapacity(ctx context.Context, svc gateway.Service, limit int, opts ...gateway.CallOption) error {
	n, err := ProfileCount(ctx, svc, opts...)
	if err != nil {
		return err
	}
	if n >= limit {
		return fmt.Errorf("%w: %d of %d", ErrCapacity, n, limit)
	}
	return nil
}

// SweepOptions tunes Sweep.
type SweepOptions struct {
	// Timeout bounds the whole sweep. Zero means no extra deadline.
	Timeout time.Duration
	// KeepIDs are left untouched.
	KeepIDs []string
	// DryRun enumerates without removing.
	DryRun bool
	// CallOptions apply to every gateway call.
	CallOptions []gateway.CallOption
}

// SweepReport summarizes a sweep.
type SweepReport struct {
	Found   []string
	Kept    []string
	Removed []string
	Failed  map[string]error
}

// Sweep removes every profile of the account except opts.KeepIDs. Individual
// removal failures are recorded in the report; only enumeration failures and an
// expired deadline are returned as errors.
func Sweep(ctx context.Context, svc gateway.Service, opts SweepOptions) (SweepReport, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	report := SweepReport{Failed: map[string]error{}}
	ids, err := svc.ListProfileIDs(ctx, opts.CallOptions...)
	if err != nil {
		return report, fmt.Errorf("listing profiles: %w", err)
	}
	report.Found = ids
	applog.LogInfo(ctx, "starting profile cleanup", zap.Int("profiles", len(ids)))

	for _, id := range ids {
		if slices.Contains(opts.KeepIDs, id) {
			report.Kept = append(report.Kept, id)
			continue
		}
		if opts.DryRun {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("profile cleanup interrupted: %w", err)
		}
		if err := svc.RemoveProfile(ctx, id, opts.CallOptions...); err != nil {
			applog.LogWarn(ctx, "failed to delete profile", zap.String("ulid", id), zap.Error(err))
			report.Failed[id] = err
			continue
		}
		report.Removed = append(report.Removed, id)
	}

	applog.LogInfo(ctx, "profile cleanup completed",
		zap.Int("found", len(report.Found)),
		zap.Int("removed", len(report.Removed)),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}
