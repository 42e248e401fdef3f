package chroma

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSumUnitSum(t *testing.T) {
	vec := Vector{3.0, 1.0, 0.5, 0.0, 2.5, 1.0, 0.0, 4.0, 0.0, 1.0, 0.5, 0.5}

	normalized, ok := vec.NormalizeSum()

	require.True(t, ok)
	assert.InDelta(t, 1.0, normalized.Sum(), 1e-9)
	for pc, val := range normalized {
		assert.GreaterOrEqual(t, val, 0.0, "pitch class %d", pc)
	}
	// Relative proportions survive normalization
	assert.InDelta(t, vec[7]/vec[0], normalized[7]/normalized[0], 1e-12)
}

func TestNormalizeSumZeroSentinel(t *testing.T) {
	tests := []struct {
		name string
		vec  Vector
	}{
		{"all_zeros", Vector{}},
		{"below_epsilon", Vector{1e-14, 1e-15, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
		{"nan_energy", Vector{math.NaN(), 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
		{"inf_energy", Vector{math.Inf(1), 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normalized, ok := tt.vec.NormalizeSum()
			assert.False(t, ok)
			assert.True(t, normalized.IsZero())
		})
	}
}

func TestRotate(t *testing.T) {
	vec := Vector{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}

	assert.Equal(t, vec, vec.Rotate(0))
	assert.Equal(t, vec, vec.Rotate(12))

	rotated := vec.Rotate(1)
	for i := range vec {
		assert.Equal(t, vec[(i-1+PitchClasses)%PitchClasses], rotated[i])
	}

	// A full cycle of single steps returns to the original
	cycled := vec
	for range PitchClasses {
		cycled = cycled.Rotate(1)
	}
	assert.Equal(t, vec, cycled)
}

func TestAggregateMedianAcrossFrames(t *testing.T) {
	frames := [][]float64{
		{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		{3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		{100, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, // Outlier frame
	}

	vec := Aggregate(frames)

	assert.InDelta(t, 3.0, vec[0], 1e-12, "median must ignore the outlier")
	for pc := 1; pc < PitchClasses; pc++ {
		assert.Equal(t, 0.0, vec[pc])
	}
}

func TestAggregateEmpty(t *testing.T) {
	vec := Aggregate(nil)
	assert.True(t, vec.IsZero())
}

func TestChromaCQTPureTone(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping kernel computation in short mode")
	}

	sampleRate := 22050
	duration := 0.5
	freq := 440.0 // A4

	numSamples := int(duration * float64(sampleRate))
	signal := make([]float64, numSamples)
	for i := range signal {
		signal[i] = math.Sin(2.0 * math.Pi * freq * float64(i) / float64(sampleRate))
	}

	cqt := NewChromaCQTDefault(sampleRate)
	frames, err := cqt.ComputeChroma(signal, 512)

	require.NoError(t, err)
	require.NotEmpty(t, frames)

	vec, ok := Aggregate(frames).NormalizeSum()
	require.True(t, ok)

	// Pitch class 9 (A) must dominate the aggregate
	best := 0
	for pc := 1; pc < PitchClasses; pc++ {
		if vec[pc] > vec[best] {
			best = pc
		}
	}
	assert.Equal(t, 9, best)
	assert.Greater(t, vec[9], 0.5, "a pure tone should concentrate most energy in its pitch class")
}

func TestChromaCQTRejectsBadInput(t *testing.T) {
	cqt := NewChromaCQTDefault(22050)

	_, err := cqt.ComputeChroma(nil, 512)
	assert.Error(t, err)

	_, err = cqt.ComputeChroma([]float64{1, 2, 3}, 0)
	assert.Error(t, err)
}
