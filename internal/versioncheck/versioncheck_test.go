package versioncheck

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tweag/nix-security-tracker/model"
)

func TestCompareSemver(t *testing.T) {
	assert.Equal(t, -1, Compare("1.2.3", "1.10.0"))
	assert.Equal(t, 1, Compare("2.0.0", "1.99.99"))
	assert.Equal(t, 0, Compare("1.2.3", "1.2.3"))
}

func TestComparePep440Fallback(t *testing.T) {
	// Four components defeat semver; numeric ordering must still hold,
	// where lexicographic order would invert it.
	assert.Equal(t, -1, Compare("1.2.3.4", "1.2.10.0"))
}

func TestCompareStringFallback(t *testing.T) {
	assert.Equal(t, -1, Compare("abc", "abd"))
	assert.Equal(t, 0, Compare("same", "same"))
}

func TestAffectsEmptyVersion(t *testing.T) {
	vc := model.VersionConstraint{Status: model.StatusAffected, LessThan: "2.0"}
	assert.Equal(t, model.StatusUnknown, Affects("", vc))
	assert.Equal(t, model.StatusUnknown, Affects("   ", vc))
}

func TestAffectsNoBounds(t *testing.T) {
	vc := model.VersionConstraint{Status: model.StatusAffected}
	assert.Equal(t, model.StatusAffected, Affects("1.0", vc))

	vc.Status = model.StatusUnaffected
	assert.Equal(t, model.StatusUnaffected, Affects("1.0", vc))
}

func TestAffectsExactVersion(t *testing.T) {
	vc := model.VersionConstraint{Status: model.StatusAffected, Version: "1.2.3"}
	assert.Equal(t, model.StatusAffected, Affects("1.2.3", vc))
	assert.Equal(t, model.StatusUnknown, Affects("1.2.4", vc))
}

func TestAffectsRange(t *testing.T) {
	vc := model.VersionConstraint{
		Status:   model.StatusAffected,
		Version:  "0",
		LessThan: "2.5.0",
	}
	assert.Equal(t, model.StatusAffected, Affects("2.0.0", vc))
	// Upper bound is exclusive.
	assert.Equal(t, model.StatusUnknown, Affects("2.5.0", vc))

	inclusive := model.VersionConstraint{
		Status:          model.StatusAffected,
		Version:         "0",
		LessThanOrEqual: "2.5.0",
	}
	assert.Equal(t, model.StatusAffected, Affects("2.5.0", inclusive))
	assert.Equal(t, model.StatusUnknown, Affects("2.5.1", inclusive))
}

func TestAffectsLowerBound(t *testing.T) {
	vc := model.VersionConstraint{
		Status:   model.StatusAffected,
		Version:  "1.5.0",
		LessThan: "2.0.0",
	}
	assert.Equal(t, model.StatusUnknown, Affects("1.0.0", vc))
	assert.Equal(t, model.StatusAffected, Affects("1.7.0", vc))
}
