package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDrvName(t *testing.T) {
	tests := []struct {
		input   string
		name    string
		version string
	}{
		{"hello-2.12.1", "hello", "2.12.1"},
		{"python3.12-requests-2.32.3", "python3.12-requests", "2.32.3"},
		{"foo-2.0-beta", "foo", "2.0-beta"},
		{"gcc-wrapper", "gcc-wrapper", ""},
		{"hello", "hello", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		name, version := ParseDrvName(tt.input)
		assert.Equal(t, tt.name, name, "name of %q", tt.input)
		assert.Equal(t, tt.version, version, "version of %q", tt.input)
	}
}
