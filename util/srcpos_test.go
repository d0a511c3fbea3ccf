package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSrcPosition(t *testing.T) {
	position := "/tmp/tmpfh7ff2xs/pkgs/development/python-modules/qemu/default.nix:67"
	link := SrcPosition(DefaultNixpkgsRepoURL, position, "0123abcd")
	assert.Equal(t,
		"https://github.com/NixOS/nixpkgs/blob/0123abcd/pkgs/development/python-modules/qemu/default.nix#L67",
		link)
}

func TestSrcPositionDefaultsRepo(t *testing.T) {
	link := SrcPosition("", "/tmp/tmpx/pkgs/foo/default.nix:10", "abc")
	assert.Equal(t, "https://github.com/NixOS/nixpkgs/blob/abc/pkgs/foo/default.nix#L10", link)
}

func TestSrcPositionEscapesSegments(t *testing.T) {
	link := SrcPosition("", "/tmp/tmpx/pkgs/foo bar/default.nix:3", "abc")
	assert.Equal(t, "https://github.com/NixOS/nixpkgs/blob/abc/pkgs/foo%20bar/default.nix#L3", link)
}

func TestSrcPositionMalformed(t *testing.T) {
	assert.Equal(t, "", SrcPosition("", "", "abc"))
	assert.Equal(t, "", SrcPosition("", "/tmp/tmpx/pkgs/foo/default.nix:10", ""))
	assert.Equal(t, "", SrcPosition("", "/nix/store/foo.nix:10", "abc"))
	assert.Equal(t, "", SrcPosition("", "/tmp/tmpx/pkgs/foo/default.nix", "abc"))
}
