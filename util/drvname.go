// Package util - derivation name parsing.
//
//revive:disable-next-line:var-naming
package util

import "regexp"

// The version starts at the first dash whose following segment contains a
// digit before the next dash. Same split rule as builtins.parseDrvName.
var drvNamePattern = regexp.MustCompile(`^(.+?)-([^-]*\d.*)$`)

// ParseDrvName splits a derivation name into its base name and version.
// The base name is everything up to but not including the first dash not
// followed by a letter; the version is everything after that dash.
// A name with no such dash yields an empty version.
//
// Examples:
//   - "hello-2.12.1"      -> ("hello", "2.12.1")
//   - "python3.12-requests-2.32.3" -> ("python3.12-requests", "2.32.3")
//   - "gcc-wrapper"       -> ("gcc-wrapper", "")
func ParseDrvName(name string) (string, string) {
	matches := drvNamePattern.FindStringSubmatch(name)
	if matches == nil {
		return name, ""
	}
	return matches[1], matches[2]
}
