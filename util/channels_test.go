package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMajorChannel(t *testing.T) {
	c := NewChannelClassifier()

	tests := []struct {
		branch string
		major  string
	}{
		{"nixos-unstable", "nixos-unstable"},
		{"nixos-unstable-small", "nixos-unstable"},
		{"nixos-24.05", "nixos-24.05"},
		{"nixos-24.05-darwin", "nixos-24.05"},
		{"nixos-24.05-small", "nixos-24.05"},
		{"staging", ""},
		{"master", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.major, c.MajorChannel(tt.branch), "branch %q", tt.branch)
	}
}

func TestLoadChannelClassifier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.yaml")
	content := "major_channels:\n  - release-23.11\n  - release-23.11-lts\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := LoadChannelClassifier(path)
	require.NoError(t, err)

	assert.Equal(t, "release-23.11", c.MajorChannel("release-23.11"))
	assert.Equal(t, "release-23.11", c.MajorChannel("release-23.11-small"))
	// The longer configured major wins over its prefix.
	assert.Equal(t, "release-23.11-lts", c.MajorChannel("release-23.11-lts"))
	// Built-in naming still applies.
	assert.Equal(t, "nixos-unstable", c.MajorChannel("nixos-unstable"))
	assert.Equal(t, "", c.MajorChannel("staging"))
}

func TestLoadChannelClassifierEmptyPath(t *testing.T) {
	c, err := LoadChannelClassifier("")
	require.NoError(t, err)
	assert.Equal(t, "nixos-unstable", c.MajorChannel("nixos-unstable"))
}
