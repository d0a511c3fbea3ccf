package suggest

import "github.com/tweag/nix-security-tracker/model"

// CombineAffectedStatus folds a list of per-constraint statuses into one.
// The fold is commutative and idempotent: affected dominates whenever there
// is any ambiguity, and unknown never yields to unaffected. The system is
// deliberately biased toward over-reporting possible impact.
func CombineAffectedStatus(statuses []model.VersionStatus) model.VersionStatus {
	result := model.StatusUnknown
	for _, status := range statuses {
		result = combine(result, status)
	}
	return result
}

func combine(a, b model.VersionStatus) model.VersionStatus {
	if a == b {
		return a
	}
	if a == model.StatusAffected || b == model.StatusAffected {
		return model.StatusAffected
	}
	// The remaining pair is unknown vs unaffected.
	return model.StatusUnknown
}
