//go:build e2e

package e2e

import (
	"errors"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janisto/prima-profile-e2e/internal/fixtures"
	"github.com/janisto/prima-profile-e2e/internal/lifecycle"
	"github.com/janisto/prima-profile-e2e/internal/service/gateway"
)

func requireCapacity(t *testing.T, needed int) {
	t.Helper()
	err := lifecycle.GuardCapacity(runCtx, client, cfg.MaxTestProfiles-needed+1)
	if errors.Is(err, lifecycle.ErrCapacity) {
		t.Skipf("%d more profiles would exceed MAX_TEST_PROFILES=%d: %v", needed, cfg.MaxTestProfiles, err)
	}
	require.NoError(t, err)
}

func loadFixtures(t *testing.T) fixtures.Data {
	t.Helper()
	data, err := fixtures.Load()
	require.NoError(t, err)
	return data
}

func TestAPI_CreateVerifyDelete(t *testing.T) {
	requireCapacity(t, 1)
	tr := newTracker(t)

	initial, err := client.ListProfileIDs(runCtx)
	require.NoError(t, err)

	id, err := client.CreateSimpleProfile(runCtx, lifecycle.UniqueName("TestProfile"))
	require.NoError(t, err)
	tr.Track(id)
	assert.Greater(t, len(id), 10, "profile ULID should have a reasonable length")

	updated, err := client.ListProfileIDs(runCtx)
	require.NoError(t, err)
	assert.Contains(t, updated, id)
	assert.Len(t, updated, len(initial)+1)

	require.NoError(t, client.RemoveProfile(runCtx, id))

	final, err := client.ListProfileIDs(runCtx)
	require.NoError(t, err)
	assert.NotContains(t, final, id)
	assert.Len(t, final, len(initial))
}

func TestAPI_CreatePresets(t *testing.T) {
	data := loadFixtures(t)
	for _, key := range data.Keys() {
		t.Run(key, func(t *testing.T) {
			requireCapacity(t, 1)
			tr := newTracker(t)
			preset, err := data.Preset(key)
			require.NoError(t, err)

			id, err := tr.Create(runCtx, lifecycle.UniqueName(preset.Name), preset.Spec(""))
			require.NoError(t, err)
			require.NoError(t, lifecycle.VerifyProfileExists(runCtx, client, id))
		})
	}
}

func TestAPI_CreatePresetsWithPIN(t *testing.T) {
	data := loadFixtures(t)
	for _, key := range data.Keys() {
		t.Run(key, func(t *testing.T) {
			requireCapacity(t, 1)
			tr := newTracker(t)
			preset, err := data.Preset(key)
			require.NoError(t, err)

			id, err := tr.Create(runCtx, lifecycle.UniqueName(preset.Name+"_PIN"), preset.Spec(data.PIN))
			require.NoError(t, err)
			require.NoError(t, lifecycle.VerifyProfileExists(runCtx, client, id))
		})
	}
}

func TestAPI_CreateAllPresetsGrowsListByFour(t *testing.T) {
	data := loadFixtures(t)
	requireCapacity(t, 1+len(data.Keys()))
	tr := newTracker(t)

	// At least one existing entry so the prefix check covers something.
	_, err := tr.Create(runCtx, lifecycle.UniqueName("Existing"), gateway.ProfileSpec{})
	require.NoError(t, err)
	before, err := client.ListProfileIDs(runCtx)
	require.NoError(t, err)
	require.NotEmpty(t, before)

	for _, key := range data.Keys() {
		preset, err := data.Preset(key)
		require.NoError(t, err)
		_, err = tr.Create(runCtx, lifecycle.UniqueName(preset.Name), preset.Spec(""))
		require.NoError(t, err)
	}

	after, err := client.ListProfileIDs(runCtx)
	require.NoError(t, err)
	require.Len(t, after, len(before)+len(data.Keys()))
	assert.Equal(t, before, after[:len(before)])
	assert.Equal(t, tr.IDs()[1:], after[len(before):])
}

func TestAPI_ListProfilesReturnsAttributes(t *testing.T) {
	requireCapacity(t, 1)
	tr := newTracker(t)
	data := loadFixtures(t)
	preset, err := data.Preset(fixtures.KidFemale)
	require.NoError(t, err)

	name := lifecycle.UniqueName("Attrs")
	id, err := tr.Create(runCtx, name, preset.Spec(""))
	require.NoError(t, err)

	profiles, err := client.ListProfiles(runCtx)
	require.NoError(t, err)
	var found *gateway.Profile
	for i := range profiles {
		if profiles[i].ULID == id {
			found = &profiles[i]
		}
	}
	require.NotNil(t, found, "created profile missing from list")
	assert.Equal(t, name, found.Name)
	assert.Equal(t, preset.Gender, found.Gender)
	assert.Equal(t, preset.BirthYear, found.BirthYear)
	assert.Equal(t, gateway.AgeRatingKids, found.AgeRating)
}

func TestAPI_SimulatorIssuesULIDs(t *testing.T) {
	if live {
		t.Skip("identifier format is only guaranteed by the simulator")
	}
	tr := newTracker(t)
	id, err := tr.Create(runCtx, lifecycle.UniqueName("Ulid"), gateway.ProfileSpec{})
	require.NoError(t, err)
	_, err = ulid.Parse(id)
	assert.NoError(t, err)
}

func TestAPI_RemoveUnknownProfileIsLenient(t *testing.T) {
	assert.NoError(t, client.RemoveProfile(runCtx, ulid.Make().String()))
}

func TestAPI_WrongPasswordIsAuthenticationError(t *testing.T) {
	_, err := client.ListProfileIDs(runCtx, gateway.WithCredentials(cfg.Email, cfg.Password+"-wrong"))
	assert.ErrorIs(t, err, gateway.ErrAuthentication)
}

func TestAPI_ValidationHappensBeforeNetwork(t *testing.T) {
	_, err := client.CreateSimpleProfile(runCtx, "   ")
	assert.ErrorIs(t, err, gateway.ErrValidation)
	assert.ErrorIs(t, client.RemoveProfile(runCtx, ""), gateway.ErrValidation)
}
