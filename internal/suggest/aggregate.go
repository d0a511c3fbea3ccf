// Package suggest implements the suggestion aggregator: it collapses the
// per-channel, per-evaluation derivations linked to a suggestion into one
// canonical, user-editable summary per package, and keeps the cached form
// consistent as user edits arrive.
package suggest

import (
	"sort"

	"github.com/tweag/nix-security-tracker/internal/versioncheck"
	"github.com/tweag/nix-security-tracker/model"
	"github.com/tweag/nix-security-tracker/util"
)

// ResolvedDerivation pairs a linked derivation with its owning evaluation.
type ResolvedDerivation struct {
	Derivation model.Derivation
	Evaluation model.Evaluation
}

// channelSlot accumulates one (attribute, major channel) rollup while
// grouping. Sub-branches are collected in a map and ordered on finalize.
type channelSlot struct {
	headline    model.ChannelVersion
	subBranches map[string]model.BranchVersion
}

// ChannelStructure groups linked derivations into the per-package,
// per-major-channel rollup of the suggestion payload.
//
// Derivations are processed oldest evaluation first; later writes overwrite
// earlier ones for the same slot, so the most recently evaluated data for a
// channel wins without a separate max pass. Branch names without a known
// major channel are dropped from the rollup.
func ChannelStructure(
	constraints []model.VersionConstraint,
	derivations []ResolvedDerivation,
	channels *util.ChannelClassifier,
	repoURL string,
) map[string]*model.PackageSummary {
	ordered := append([]ResolvedDerivation(nil), derivations...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.Evaluation.UpdatedAt.Equal(b.Evaluation.UpdatedAt) {
			return a.Evaluation.UpdatedAt.Before(b.Evaluation.UpdatedAt)
		}
		return a.Derivation.Key < b.Derivation.Key
	})

	packages := make(map[string]*model.PackageSummary)
	slots := make(map[string]map[string]*channelSlot)

	for _, resolved := range ordered {
		drv := resolved.Derivation
		attribute := drv.Attribute
		_, version := util.ParseDrvName(drv.Name)

		pkg, ok := packages[attribute]
		if !ok {
			pkg = &model.PackageSummary{
				Channels:    make(map[string]*model.ChannelVersion),
				Maintainers: []model.Maintainer{},
				Purl:        util.NixPurl(attribute, ""),
			}
			if drv.Metadata != nil {
				pkg.Description = drv.Metadata.Description
				pkg.Maintainers = dedupeMaintainers(drv.Metadata.Maintainers)
			}
			packages[attribute] = pkg
			slots[attribute] = make(map[string]*channelSlot)
		}

		branch := resolved.Evaluation.ChannelBranch
		major := channels.MajorChannel(branch)
		if major == "" {
			continue
		}

		slot, ok := slots[attribute][major]
		if !ok {
			slot = &channelSlot{subBranches: make(map[string]model.BranchVersion)}
			slots[attribute][major] = slot
		}

		position := ""
		if drv.Metadata != nil {
			position = drv.Metadata.Position
		}
		srcPosition := util.SrcPosition(repoURL, position, resolved.Evaluation.CommitSha1)

		if branch == major {
			slot.headline.MajorVersion = version
			slot.headline.SrcPosition = srcPosition
			slot.headline.Updated = resolved.Evaluation.UpdatedAt
		} else {
			slot.subBranches[branch] = model.BranchVersion{
				Branch:      branch,
				Version:     version,
				Status:      statusFor(version, constraints),
				SrcPosition: srcPosition,
			}
		}
	}

	for attribute, channelSlots := range slots {
		for major, slot := range channelSlots {
			slot.headline.Status = statusFor(slot.headline.MajorVersion, constraints)
			slot.headline.UniformVersions = true
			slot.headline.SubBranches = make([]model.BranchVersion, 0, len(slot.subBranches))
			for _, sub := range slot.subBranches {
				if sub.Version != slot.headline.MajorVersion {
					slot.headline.UniformVersions = false
				}
				slot.headline.SubBranches = append(slot.headline.SubBranches, sub)
			}
			sort.Slice(slot.headline.SubBranches, func(i, j int) bool {
				return slot.headline.SubBranches[i].Branch > slot.headline.SubBranches[j].Branch
			})
			headline := slot.headline
			packages[attribute].Channels[major] = &headline
		}
	}

	return packages
}

// statusFor evaluates every version constraint against a version and folds
// the answers.
func statusFor(version string, constraints []model.VersionConstraint) model.VersionStatus {
	statuses := make([]model.VersionStatus, 0, len(constraints))
	for _, vc := range constraints {
		statuses = append(statuses, versioncheck.Affects(version, vc))
	}
	return CombineAffectedStatus(statuses)
}

// dedupeMaintainers drops duplicate metadata maintainers by github id,
// keeping first occurrence.
func dedupeMaintainers(maintainers []model.Maintainer) []model.Maintainer {
	seen := make(map[int64]bool)
	result := []model.Maintainer{}
	for _, m := range maintainers {
		if seen[m.GithubID] {
			continue
		}
		seen[m.GithubID] = true
		result = append(result, m)
	}
	return result
}
