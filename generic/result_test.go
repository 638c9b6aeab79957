package generic

import (
	"errors"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	assert := assert_.New(t)

	ok := Ok(123)
	assert.True(ok.IsOk())
	assert.False(ok.IsErr())
	assert.Equal(123, ok.Unwrap())

	failed := Err[int](errors.New("boom"))
	assert.True(failed.IsErr())
	assert.Panics(func() { failed.Unwrap() })
	value, err := failed.Parts()
	assert.Equal(0, value)
	assert.EqualError(err, "boom")

	assert.NotPanics(func() { Unwrap_(nil) })
	assert.Panics(func() { Unwrap_(errors.New("boom")) })
	assert.Equal("x", Unwrap("x", nil))
}
