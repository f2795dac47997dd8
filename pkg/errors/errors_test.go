package errors

import (
	stderr "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	e1 := New("cause1")
	e2 := New("cause2").Wrap(e1)
	e := New("dummy").Wrap(e2)
	e3 := e.Unwrap()
	assert.True(t, Is(e, e1))
	assert.True(t, Is(e, e2))
	assert.True(t, e3 == e2)
}

func TestWrapKeepsSentinel(t *testing.T) {
	sentinel := New("not found")
	other := New("forbidden")

	wrapped := sentinel.Wrap(stderr.New("repo.json"))
	require.Error(t, wrapped)

	assert.True(t, Is(wrapped, sentinel))
	assert.False(t, Is(wrapped, other))
	assert.Equal(t, "not found: repo.json", wrapped.Error())

	// the sentinel itself is left untouched
	assert.Nil(t, sentinel.Unwrap())
	assert.Equal(t, "not found", sentinel.Error())

	rewrapped := wrapped.Wrapf("at %s", "ds/v1")
	assert.True(t, Is(rewrapped, sentinel))
	assert.Equal(t, "not found: at ds/v1", rewrapped.Error())
}

func TestAs(t *testing.T) {
	sentinel := New("boom")
	err := fmt.Errorf("context: %w", sentinel.Wrap(stderr.New("cause")))

	var target *Error
	require.True(t, As(err, &target))
	assert.True(t, Is(target, sentinel))
	assert.Equal(t, "context: boom: cause", err.Error())
}
