package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tweag/nix-security-tracker/model"
)

func TestCombineAffectedStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []model.VersionStatus
		want     model.VersionStatus
	}{
		{"empty", nil, model.StatusUnknown},
		{"single affected", []model.VersionStatus{model.StatusAffected}, model.StatusAffected},
		{"affected dominates", []model.VersionStatus{model.StatusUnaffected, model.StatusAffected}, model.StatusAffected},
		{"unknown beats unaffected", []model.VersionStatus{model.StatusUnaffected, model.StatusUnknown}, model.StatusUnknown},
		{"only unaffected keeps seed", []model.VersionStatus{model.StatusUnaffected}, model.StatusUnknown},
		{"all unknown", []model.VersionStatus{model.StatusUnknown, model.StatusUnknown}, model.StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CombineAffectedStatus(tt.statuses))
		})
	}
}

func TestCombineAffectedStatusOrderIndependent(t *testing.T) {
	forward := []model.VersionStatus{model.StatusAffected, model.StatusUnknown, model.StatusUnaffected}
	backward := []model.VersionStatus{model.StatusUnaffected, model.StatusUnknown, model.StatusAffected}
	assert.Equal(t, CombineAffectedStatus(forward), CombineAffectedStatus(backward))
}
