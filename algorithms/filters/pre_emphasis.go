package filters

import (
	"fmt"
)

// PreEmphasis implements a first-order pre-emphasis filter.
// Pre-emphasis boosts higher frequencies relative to lower ones ahead of
// spectral analysis, flattening the natural roll-off of musical signals.
//
// The filter implements the transfer function:
// H(z) = 1 - α*z^-1
//
// With the difference equation:
// y[n] = x[n] - α*x[n-1]
//
// Where α is the pre-emphasis coefficient (typically 0.95-0.97).
type PreEmphasis struct {
	coefficient float64 // Pre-emphasis coefficient α
	lastSample  float64 // Previous input sample x[n-1]
}

// NewPreEmphasis creates a pre-emphasis filter with specified coefficient.
//
// Parameters:
//   - coefficient: Pre-emphasis coefficient α (0.0 < α < 1.0)
//     Higher values = more emphasis of high frequencies
func NewPreEmphasis(coefficient float64) *PreEmphasis {
	return &PreEmphasis{
		coefficient: coefficient,
	}
}

// NewPreEmphasisDefault creates a pre-emphasis filter with the standard
// coefficient (0.97) used for general tonal analysis.
func NewPreEmphasisDefault() *PreEmphasis {
	return NewPreEmphasis(0.97)
}

// Process applies pre-emphasis filtering to a single sample.
// Implements: y[n] = x[n] - α*x[n-1]
func (pe *PreEmphasis) Process(input float64) float64 {
	output := input - pe.coefficient*pe.lastSample
	pe.lastSample = input
	return output
}

// ProcessBuffer applies pre-emphasis to an entire buffer of samples.
func (pe *PreEmphasis) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = pe.Process(sample)
	}
	return output
}

// Reset clears the filter's internal state.
// Call this when processing discontinuous audio segments.
func (pe *PreEmphasis) Reset() {
	pe.lastSample = 0.0
}

// SetCoefficient updates the pre-emphasis coefficient.
func (pe *PreEmphasis) SetCoefficient(coefficient float64) error {
	if coefficient <= 0.0 || coefficient >= 1.0 {
		return fmt.Errorf("coefficient must be between 0 and 1, got %f", coefficient)
	}

	pe.coefficient = coefficient
	return nil
}

// GetCoefficient returns the current coefficient.
func (pe *PreEmphasis) GetCoefficient() float64 {
	return pe.coefficient
}
