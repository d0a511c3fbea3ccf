package suggest

import (
	"sort"

	"github.com/tweag/nix-security-tracker/model"
)

// ApplyPackageEdits returns the packages map with user-supplied package
// edits applied. Packages marked for removal are filtered out.
func ApplyPackageEdits(packages map[string]*model.PackageSummary, edits []model.PackageEdit) map[string]*model.PackageSummary {
	toSkip := make(map[string]bool)
	for _, edit := range edits {
		if edit.EditType == model.EditRemove {
			toSkip[edit.PackageAttribute] = true
		}
	}

	active := make(map[string]*model.PackageSummary, len(packages))
	for attribute, data := range packages {
		if !toSkip[attribute] {
			active[attribute] = data
		}
	}
	return active
}

// MaintainersList returns a deduplicated list (by github id) of the
// maintainers of all active packages, modified by user-supplied edits:
// Add edits are appended, Remove edits always exclude their maintainer even
// when it also appears via metadata or an Add edit. Package iteration is by
// sorted attribute name so the result is deterministic.
func MaintainersList(packages map[string]*model.PackageSummary, edits []model.MaintainersEdit) []model.Maintainer {
	// Ids removed by the user, reused to record ids already emitted. Once
	// an id is in this set it stays ignored.
	toSkipOrSeen := make(map[int64]bool)
	var toAdd []model.Maintainer
	for _, edit := range edits {
		switch edit.EditType {
		case model.EditRemove:
			toSkipOrSeen[edit.GithubID] = true
		case model.EditAdd:
			toAdd = append(toAdd, edit.Maintainer)
		}
	}

	attributes := make([]string, 0, len(packages))
	for attribute := range packages {
		attributes = append(attributes, attribute)
	}
	sort.Strings(attributes)

	maintainers := []model.Maintainer{}
	emit := func(m model.Maintainer) {
		if toSkipOrSeen[m.GithubID] {
			return
		}
		toSkipOrSeen[m.GithubID] = true
		maintainers = append(maintainers, m)
	}
	for _, attribute := range attributes {
		for _, m := range packages[attribute].Maintainers {
			emit(m)
		}
	}
	for _, m := range toAdd {
		emit(m)
	}
	return maintainers
}
