// Package util - branch name to major channel classification.
//
//revive:disable-next-line:var-naming
package util

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"
)

// majorChannelPattern recognizes the canonical nixpkgs release lines:
// nixos-unstable and nixos-YY.MM, with any dash-separated variant suffix
// ("-small", "-darwin", ...).
var majorChannelPattern = regexp.MustCompile(`^(nixos-(?:unstable|\d{2}\.\d{2}))(?:-[0-9a-z]+)*$`)

// ChannelClassifier maps branch names to their major channel.
type ChannelClassifier struct {
	// Extra major channels beyond the built-in nixpkgs naming scheme,
	// loaded from configuration. A branch classifies to one of these when
	// it equals the major channel or is a dash-suffixed variant of it.
	extra []string
}

// NewChannelClassifier returns a classifier for the built-in nixpkgs
// release naming.
func NewChannelClassifier() *ChannelClassifier {
	return &ChannelClassifier{}
}

// channelsConfig is the YAML shape of the optional channel configuration.
type channelsConfig struct {
	MajorChannels []string `yaml:"major_channels"`
}

// LoadChannelClassifier reads extra major channels from a YAML file. An
// empty path yields the built-in classifier.
func LoadChannelClassifier(path string) (*ChannelClassifier, error) {
	if path == "" {
		return NewChannelClassifier(), nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read channel config %s: %w", path, err)
	}
	var cfg channelsConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse channel config %s: %w", path, err)
	}
	extra := append([]string(nil), cfg.MajorChannels...)
	// Longest first so variant branches match their most specific major.
	sort.Slice(extra, func(i, j int) bool { return len(extra[i]) > len(extra[j]) })
	return &ChannelClassifier{extra: extra}, nil
}

// MajorChannel returns the major channel grouping a branch name, or ""
// when the branch has no known major channel. Unknown branches are dropped
// from rollups by the aggregator, not treated as errors.
func (c *ChannelClassifier) MajorChannel(branch string) string {
	if branch == "" {
		return ""
	}
	for _, major := range c.extra {
		if branch == major || strings.HasPrefix(branch, major+"-") {
			return major
		}
	}
	matches := majorChannelPattern.FindStringSubmatch(branch)
	if matches == nil {
		return ""
	}
	return matches[1]
}
