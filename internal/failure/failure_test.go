package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs(t *testing.T) {
	err := NoMatchf("match series", "nothing matched %q", "GTX 1080")

	assert.True(t, errors.Is(err, ErrNoMatch))
	assert.False(t, errors.Is(err, ErrNotFound))

	wrapped := fmt.Errorf("resolve: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNoMatch))
	assert.Equal(t, NoMatch, ReasonOf(wrapped))
}

func TestNetworkUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Network("lookup", cause)

	assert.True(t, errors.Is(err, ErrNetwork))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "lookup: network error: connection refused", err.Error())
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("boom"), 1},
		{"no match", NoMatchf("op", "x"), 2},
		{"not found", NotFoundf("op", "x"), 2},
		{"network", Network("op", errors.New("x")), 3},
		{"install", &Error{Reason: InstallFailed, Op: "install"}, 4},
		{"unsupported", Unsupportedf("op", "x"), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "no match", (&Error{Reason: NoMatch}).Error())
	assert.Equal(t, "install: install failed", (&Error{Reason: InstallFailed, Op: "install"}).Error())
}
