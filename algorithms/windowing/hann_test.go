package windowing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHannEndpoints(t *testing.T) {
	periodic := NewHann(8, false)
	coeffs := periodic.GetCoefficients()
	require.Len(t, coeffs, 8)
	assert.InDelta(t, 0.0, coeffs[0], 1e-12)
	assert.InDelta(t, 1.0, coeffs[4], 1e-12, "periodic window peaks at N/2")

	symmetric := NewHann(9, true)
	coeffs = symmetric.GetCoefficients()
	assert.InDelta(t, 0.0, coeffs[0], 1e-12)
	assert.InDelta(t, 0.0, coeffs[8], 1e-12)
	assert.InDelta(t, 1.0, coeffs[4], 1e-12)
}

func TestHannOverlapAdd(t *testing.T) {
	// The periodic variant sums to a constant at 50% overlap
	size := 64
	hop := size / 2
	window := NewHann(size, false)
	coeffs := window.GetCoefficients()

	for i := 0; i < hop; i++ {
		assert.InDelta(t, 1.0, coeffs[i]+coeffs[i+hop], 1e-12)
	}
}

func TestHannApply(t *testing.T) {
	window := NewHann(4, false)
	signal := []float64{1, 1, 1, 1}

	windowed := window.Apply(signal)
	require.NotNil(t, windowed)
	assert.Equal(t, window.GetCoefficients(), windowed)
	assert.Equal(t, []float64{1, 1, 1, 1}, signal, "Apply must not mutate its input")

	assert.Nil(t, window.Apply([]float64{1, 2}))
	assert.Error(t, window.ApplyInPlace([]float64{1, 2}))
}
