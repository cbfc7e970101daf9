package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullVersion(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = origVersion, origCommit })

	Version, GitCommit = "dev", "unknown"
	assert.Equal(t, "dev", FullVersion())

	GitCommit = "0123456789abcdef"
	assert.Equal(t, "dev+01234567", FullVersion())
	assert.Equal(t, "tinyscripts/dev+01234567", UserAgent())

	Version = "1.2.0"
	assert.Equal(t, "1.2.0", FullVersion())
}
