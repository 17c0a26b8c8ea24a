package version

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersion(t *testing.T) {
	oldVersion, oldHash := Version, GitHash
	defer func() { Version, GitHash = oldVersion, oldHash }()

	Version = "v1.2.0"

	GitHash = "0123456789abcdef"
	assert.Equal(t, "v1.2.0-0123456", GetVersion())

	GitHash = "None"
	assert.Equal(t, "v1.2.0", GetVersion())
}

func TestFprint(t *testing.T) {
	var buf bytes.Buffer
	Fprint(&buf)

	assert.Contains(t, buf.String(), "Version:")
	assert.Contains(t, buf.String(), "Git Commit:")
}
