package dErrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches the direct code", func(t *testing.T) {
		err := New(CodeConflict, "group name taken")
		assert.True(t, HasCode(err, CodeConflict))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("walks the wrapped chain", func(t *testing.T) {
		inner := New(CodeValidation, "bad email")
		wrapped := fmt.Errorf("create person: %w", inner)
		assert.True(t, HasCode(wrapped, CodeValidation))
	})

	t.Run("nil and plain errors have no code", func(t *testing.T) {
		assert.False(t, HasCode(nil, CodeInternal))
		assert.False(t, HasCode(errors.New("plain"), CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(cause, CodeInternal, "save person")

	require.Error(t, err)
	assert.True(t, HasCode(err, CodeInternal))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "save person")
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "missing")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeConflict, CodeOf(fmt.Errorf("save: %w", New(CodeConflict, "duplicate"))))
}
