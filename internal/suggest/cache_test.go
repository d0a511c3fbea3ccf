package suggest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tweag/nix-security-tracker/model"
	"github.com/tweag/nix-security-tracker/util"
)

type fakeStore struct {
	suggestion       *model.Suggestion
	record           *model.CveRecord
	derivations      []ResolvedDerivation
	packageEdits     []model.PackageEdit
	maintainersEdits []model.MaintainersEdit
	cached           *model.CachedSuggestion

	replaced       *model.CachedSuggestion
	patchAttempts  int
	patchConflicts int
	patched        *model.CachedSuggestion
}

func (f *fakeStore) Suggestion(_ context.Context, _ string) (*model.Suggestion, error) {
	return f.suggestion, nil
}

func (f *fakeStore) CveRecord(_ context.Context, _ string) (*model.CveRecord, error) {
	return f.record, nil
}

func (f *fakeStore) LinkedDerivations(_ context.Context, _ string) ([]ResolvedDerivation, error) {
	return f.derivations, nil
}

func (f *fakeStore) PackageEdits(_ context.Context, _ string) ([]model.PackageEdit, error) {
	return f.packageEdits, nil
}

func (f *fakeStore) MaintainersEdits(_ context.Context, _ string) ([]model.MaintainersEdit, error) {
	return f.maintainersEdits, nil
}

func (f *fakeStore) CachedSuggestion(_ context.Context, _ string) (*model.CachedSuggestion, error) {
	return f.cached, nil
}

func (f *fakeStore) ReplaceCachedSuggestion(_ context.Context, cached *model.CachedSuggestion) (bool, error) {
	created := f.replaced == nil
	f.replaced = cached
	return created, nil
}

func (f *fakeStore) PatchCachedSuggestion(_ context.Context, cached *model.CachedSuggestion) error {
	f.patchAttempts++
	if f.patchConflicts > 0 {
		f.patchConflicts--
		return ErrRevConflict
	}
	f.patched = cached
	return nil
}

func testAggregator(store *fakeStore, maxDerivations int) *Aggregator {
	return New(store, util.NewChannelClassifier(), util.DefaultNixpkgsRepoURL, maxDerivations, zap.NewNop())
}

func testRecord() *model.CveRecord {
	r := model.NewCveRecord("CVE-2024-1000")
	r.Key = "cve1"
	r.Title = "Something bad"
	r.Affected = []model.AffectedProduct{{
		PackageName: "foo",
		Versions: []model.VersionConstraint{{
			Status:   model.StatusAffected,
			Version:  "0",
			LessThan: "2.5",
		}},
	}}
	return r
}

func TestRebuildBuildsPayload(t *testing.T) {
	now := time.Now()
	store := &fakeStore{
		suggestion: &model.Suggestion{Key: "s1", CveKey: "cve1", CveID: "CVE-2024-1000", Status: model.SuggestionPending},
		record:     testRecord(),
		derivations: []ResolvedDerivation{
			resolvedDrv("d1", "foo", "foo-2.0", "nixos-unstable", "c1", now, nil),
		},
	}

	cached, err := testAggregator(store, 1000).Rebuild(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, cached)
	require.NotNil(t, store.replaced)

	payload := cached.Payload
	assert.Equal(t, "CVE-2024-1000", payload.CveID)
	assert.Equal(t, "Something bad", payload.Title)

	require.Contains(t, payload.OriginalPackages, "foo")
	require.Contains(t, payload.Packages, "foo")
	channel := payload.Packages["foo"].Channels["nixos-unstable"]
	require.NotNil(t, channel)
	assert.Equal(t, "2.0", channel.MajorVersion)
	assert.Equal(t, model.StatusAffected, channel.Status)

	require.Contains(t, payload.AffectedProducts, "foo")
	affected := payload.AffectedProducts["foo"]
	require.Len(t, affected.VersionConstraints, 1)
	assert.Equal(t, ">= 0, < 2.5", affected.VersionConstraints[0].Constraint)
}

func TestRebuildAppliesPackageEdits(t *testing.T) {
	now := time.Now()
	store := &fakeStore{
		suggestion: &model.Suggestion{Key: "s1", CveKey: "cve1", CveID: "CVE-2024-1000"},
		record:     testRecord(),
		derivations: []ResolvedDerivation{
			resolvedDrv("d1", "foo", "foo-2.0", "nixos-unstable", "c1", now, nil),
		},
		packageEdits: []model.PackageEdit{
			{SuggestionKey: "s1", PackageAttribute: "foo", EditType: model.EditRemove},
		},
	}

	cached, err := testAggregator(store, 1000).Rebuild(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, cached)

	assert.Contains(t, cached.Payload.OriginalPackages, "foo")
	assert.NotContains(t, cached.Payload.Packages, "foo")
}

func TestRebuildSkipsRecordWithoutPackageName(t *testing.T) {
	record := model.NewCveRecord("CVE-2024-2000")
	record.Affected = []model.AffectedProduct{{Product: "Foo Product"}}
	store := &fakeStore{
		suggestion: &model.Suggestion{Key: "s1", CveKey: "cve1", CveID: "CVE-2024-2000"},
		record:     record,
	}

	cached, err := testAggregator(store, 1000).Rebuild(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, cached)
	assert.Nil(t, store.replaced)
}

func TestRebuildSkipsOversizedSuggestion(t *testing.T) {
	now := time.Now()
	store := &fakeStore{
		suggestion: &model.Suggestion{Key: "s1", CveKey: "cve1", CveID: "CVE-2024-1000"},
		record:     testRecord(),
		derivations: []ResolvedDerivation{
			resolvedDrv("d1", "foo", "foo-2.0", "nixos-unstable", "c1", now, nil),
			resolvedDrv("d2", "foo", "foo-2.1", "nixos-unstable", "c2", now, nil),
		},
	}

	cached, err := testAggregator(store, 1).Rebuild(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, cached)
	assert.Nil(t, store.replaced)
}

func TestApplyEditsFallsBackToRebuild(t *testing.T) {
	now := time.Now()
	store := &fakeStore{
		suggestion: &model.Suggestion{Key: "s1", CveKey: "cve1", CveID: "CVE-2024-1000"},
		record:     testRecord(),
		derivations: []ResolvedDerivation{
			resolvedDrv("d1", "foo", "foo-2.0", "nixos-unstable", "c1", now, nil),
		},
	}

	cached, err := testAggregator(store, 1000).ApplyEdits(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.NotNil(t, store.replaced)
	assert.Zero(t, store.patchAttempts)
}

func TestApplyEditsPatchesAndRetriesOnConflict(t *testing.T) {
	original := map[string]*model.PackageSummary{
		"foo": {Channels: map[string]*model.ChannelVersion{}, Maintainers: []model.Maintainer{}},
		"bar": {Channels: map[string]*model.ChannelVersion{}, Maintainers: []model.Maintainer{}},
	}
	store := &fakeStore{
		cached: &model.CachedSuggestion{
			Key: "s1",
			Rev: "r1",
			Payload: model.SuggestionPayload{
				CveID:            "CVE-2024-1000",
				OriginalPackages: original,
				Packages:         original,
			},
		},
		packageEdits: []model.PackageEdit{
			{SuggestionKey: "s1", PackageAttribute: "foo", EditType: model.EditRemove},
		},
		patchConflicts: 1,
	}

	cached, err := testAggregator(store, 1000).ApplyEdits(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, cached)

	assert.Equal(t, 2, store.patchAttempts)
	require.NotNil(t, store.patched)
	assert.Contains(t, store.patched.Payload.OriginalPackages, "foo")
	assert.NotContains(t, store.patched.Payload.Packages, "foo")
}
