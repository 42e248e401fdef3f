package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreEmphasisDifferenceEquation(t *testing.T) {
	pe := NewPreEmphasis(0.97)
	input := []float64{1.0, 0.5, -0.25, 0.0, 0.75}

	output := pe.ProcessBuffer(input)

	require.Len(t, output, len(input))
	assert.Equal(t, input[0], output[0], "first sample has no predecessor")
	for n := 1; n < len(input); n++ {
		assert.InDelta(t, input[n]-0.97*input[n-1], output[n], 1e-12)
	}
}

func TestPreEmphasisReset(t *testing.T) {
	pe := NewPreEmphasisDefault()
	pe.Process(1.0)
	pe.Reset()

	assert.Equal(t, 0.5, pe.Process(0.5), "state must be cleared after reset")
}

func TestPreEmphasisStateCarriesAcrossBuffers(t *testing.T) {
	pe := NewPreEmphasis(0.9)
	pe.ProcessBuffer([]float64{0.0, 1.0})

	out := pe.Process(0.0)
	assert.InDelta(t, -0.9, out, 1e-12)
}

func TestPreEmphasisSetCoefficient(t *testing.T) {
	pe := NewPreEmphasisDefault()
	assert.Equal(t, 0.97, pe.GetCoefficient())

	require.NoError(t, pe.SetCoefficient(0.95))
	assert.Equal(t, 0.95, pe.GetCoefficient())

	assert.Error(t, pe.SetCoefficient(0.0))
	assert.Error(t, pe.SetCoefficient(1.0))
	assert.Error(t, pe.SetCoefficient(-0.5))
}
