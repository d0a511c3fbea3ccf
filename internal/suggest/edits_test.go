package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tweag/nix-security-tracker/model"
)

func summaryWith(maintainers ...model.Maintainer) *model.PackageSummary {
	return &model.PackageSummary{
		Channels:    map[string]*model.ChannelVersion{},
		Maintainers: maintainers,
	}
}

func TestApplyPackageEdits(t *testing.T) {
	packages := map[string]*model.PackageSummary{
		"foo": summaryWith(),
		"bar": summaryWith(),
	}
	edits := []model.PackageEdit{
		{PackageAttribute: "foo", EditType: model.EditRemove},
	}

	active := ApplyPackageEdits(packages, edits)
	assert.NotContains(t, active, "foo")
	assert.Contains(t, active, "bar")
	// The input map is left untouched.
	assert.Contains(t, packages, "foo")
}

func TestApplyPackageEditsNoEdits(t *testing.T) {
	packages := map[string]*model.PackageSummary{"foo": summaryWith()}
	active := ApplyPackageEdits(packages, nil)
	assert.Len(t, active, 1)
}

func TestMaintainersListDedupes(t *testing.T) {
	alice := model.Maintainer{GithubID: 1, Github: "alice"}
	bob := model.Maintainer{GithubID: 2, Github: "bob"}
	carol := model.Maintainer{GithubID: 3, Github: "carol"}

	packages := map[string]*model.PackageSummary{
		"a": summaryWith(alice, bob),
		"b": summaryWith(bob, carol),
	}

	maintainers := MaintainersList(packages, nil)
	require.Len(t, maintainers, 3)
	assert.Equal(t, []model.Maintainer{alice, bob, carol}, maintainers)
}

func TestMaintainersListRemoveDominates(t *testing.T) {
	alice := model.Maintainer{GithubID: 1, Github: "alice"}
	bob := model.Maintainer{GithubID: 2, Github: "bob"}

	packages := map[string]*model.PackageSummary{
		"a": summaryWith(alice, bob),
	}
	edits := []model.MaintainersEdit{
		{GithubID: 2, Maintainer: bob, EditType: model.EditRemove},
		// A concurrent add of the same maintainer must not resurrect it.
		{GithubID: 2, Maintainer: bob, EditType: model.EditAdd},
	}

	maintainers := MaintainersList(packages, edits)
	require.Len(t, maintainers, 1)
	assert.Equal(t, alice, maintainers[0])
}

func TestMaintainersListAddAppends(t *testing.T) {
	alice := model.Maintainer{GithubID: 1, Github: "alice"}
	dave := model.Maintainer{GithubID: 4, Github: "dave"}

	packages := map[string]*model.PackageSummary{
		"a": summaryWith(alice),
	}
	edits := []model.MaintainersEdit{
		{GithubID: 4, Maintainer: dave, EditType: model.EditAdd},
		// Adding an already present maintainer is a no-op.
		{GithubID: 1, Maintainer: alice, EditType: model.EditAdd},
	}

	maintainers := MaintainersList(packages, edits)
	assert.Equal(t, []model.Maintainer{alice, dave}, maintainers)
}
