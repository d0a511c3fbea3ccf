// Package util - package URL construction for downstream consumers.
//
//revive:disable-next-line:var-naming
package util

import "github.com/package-url/packageurl-go"

// NixPurl builds the canonical package URL for a nixpkgs attribute, e.g.
// ("hello", "2.12.1") -> "pkg:nix/hello@2.12.1". Version may be empty for a
// base PURL.
func NixPurl(name, version string) string {
	purl := packageurl.NewPackageURL("nix", "", name, version, nil, "")
	return purl.ToString()
}
