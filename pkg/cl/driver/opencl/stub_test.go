//go:build !opencl

package opencl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithoutTag(t *testing.T) {
	assert.False(t, Available())
	drv, err := New()
	assert.ErrorIs(t, err, ErrNotBuilt)
	assert.Nil(t, drv)
}
