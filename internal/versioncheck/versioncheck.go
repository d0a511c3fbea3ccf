// Package versioncheck evaluates the version constraints of CVE affected
// products against concrete package versions. Versions in the wild are
// rarely clean semver, so comparison runs through a parser chain: semver
// first, then npm and PEP 440, with a plain string comparison as the last
// resort.
package versioncheck

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	npm "github.com/aquasecurity/go-npm-version/pkg"
	pep440 "github.com/aquasecurity/go-pep440-version"

	"github.com/tweag/nix-security-tracker/model"
)

// Affects evaluates a single constraint against a version. The constraint's
// own status applies when the version falls inside the constrained range;
// outside the range, or when the version is unusable, the answer is
// unknown. The aggregator folds these per-constraint answers with
// CombineAffectedStatus.
func Affects(version string, vc model.VersionConstraint) model.VersionStatus {
	if strings.TrimSpace(version) == "" {
		return model.StatusUnknown
	}

	// No version bounds at all: the status covers every version.
	if vc.Version == "" && vc.LessThan == "" && vc.LessThanOrEqual == "" {
		return vc.Status
	}

	if inRange(version, vc) {
		return vc.Status
	}
	return model.StatusUnknown
}

func inRange(version string, vc model.VersionConstraint) bool {
	// Exact version constraint, no upper bound.
	if vc.Version != "" && vc.LessThan == "" && vc.LessThanOrEqual == "" {
		return Compare(version, vc.Version) == 0
	}

	// "0" means "from the beginning" in CVE ranges.
	if vc.Version != "" && vc.Version != "0" && Compare(version, vc.Version) < 0 {
		return false
	}
	if vc.LessThan != "" && Compare(version, vc.LessThan) >= 0 {
		return false
	}
	if vc.LessThanOrEqual != "" && Compare(version, vc.LessThanOrEqual) > 0 {
		return false
	}
	return true
}

// Compare orders two version strings, returning -1, 0 or 1. Both versions
// must parse under the same scheme for that scheme to be used; mixed or
// unparseable versions fall back to lexicographic order.
func Compare(a, b string) int {
	if av, err := semver.NewVersion(a); err == nil {
		if bv, err := semver.NewVersion(b); err == nil {
			return av.Compare(bv)
		}
	}

	if av, err := npm.NewVersion(a); err == nil {
		if bv, err := npm.NewVersion(b); err == nil {
			return cmpNpm(av, bv)
		}
	}

	if av, err := pep440.Parse(a); err == nil {
		if bv, err := pep440.Parse(b); err == nil {
			return cmpPep440(av, bv)
		}
	}

	return strings.Compare(a, b)
}

func cmpNpm(a, b npm.Version) int {
	switch {
	case a.LessThan(b):
		return -1
	case a.GreaterThan(b):
		return 1
	default:
		return 0
	}
}

func cmpPep440(a, b pep440.Version) int {
	switch {
	case a.LessThan(b):
		return -1
	case a.GreaterThan(b):
		return 1
	default:
		return 0
	}
}
