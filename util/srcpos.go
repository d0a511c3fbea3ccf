// Package util - source position permalinks.
//
//revive:disable-next-line:var-naming
package util

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Recorded positions look like
// `/tmp/tmpfh7ff2xs/pkgs/development/python-modules/qemu/default.nix:67`:
// an evaluation store prefix, the path relative to the repository root, and
// a line number. Positions that do not fit this shape yield no link.
var srcPositionPattern = regexp.MustCompile(`^/tmp/[^/]+/(.+):(\d+)$`)

// DefaultNixpkgsRepoURL is the source repository positions resolve against.
const DefaultNixpkgsRepoURL = "https://github.com/NixOS/nixpkgs"

// SrcPosition derives a permalink into the package source repository from a
// derivation's recorded file position and the commit of its evaluation.
// Returns "" when the position is absent or malformed.
func SrcPosition(repoURL, position, commitSha1 string) string {
	if position == "" || commitSha1 == "" {
		return ""
	}
	matches := srcPositionPattern.FindStringSubmatch(position)
	if matches == nil {
		return ""
	}
	if repoURL == "" {
		repoURL = DefaultNixpkgsRepoURL
	}
	rev := url.PathEscape(commitSha1)
	path := escapePath(matches[1])
	return fmt.Sprintf("%s/blob/%s/%s#L%s", repoURL, rev, path, matches[2])
}

// escapePath escapes each path segment while keeping the separators.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
