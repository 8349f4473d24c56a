package qparams

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestU8ClampingApply(t *testing.T) {
	c := ComputeU8Clamping(10, 200)
	require.Equal(t, uint8(10), c.Apply(3))
	require.Equal(t, uint8(10), c.Apply(10))
	require.Equal(t, uint8(42), c.Apply(42))
	require.Equal(t, uint8(200), c.Apply(200))
	require.Equal(t, uint8(200), c.Apply(255))

	full := ComputeU8Clamping(0, 255)
	require.Equal(t, uint8(0), full.Apply(0))
	require.Equal(t, uint8(255), full.Apply(255))
}
