package harmonic

import (
	"fmt"

	"github.com/tonalhq/keysense/algorithms/common"
	"github.com/tonalhq/keysense/algorithms/spectral"
	"github.com/tonalhq/keysense/algorithms/windowing"
)

// HPSSParams contains parameters for harmonic/percussive source separation
type HPSSParams struct {
	WindowSize       int     `json:"window_size"`       // STFT window size
	HopSize          int     `json:"hop_size"`          // STFT hop size
	HarmonicKernel   int     `json:"harmonic_kernel"`   // Median filter length across time (frames)
	PercussiveKernel int     `json:"percussive_kernel"` // Median filter length across frequency (bins)
	Power            float64 `json:"power"`             // Soft mask exponent (2.0 = Wiener filtering)
}

// DefaultHPSSParams returns standard HPSS parameters for musical content
func DefaultHPSSParams() HPSSParams {
	return HPSSParams{
		WindowSize:       2048,
		HopSize:          512,
		HarmonicKernel:   17,
		PercussiveKernel: 17,
		Power:            2.0,
	}
}

// HPSS implements harmonic/percussive source separation by median filtering
// of the STFT magnitude. Harmonic content forms horizontal ridges in the
// spectrogram (stable frequency over time) while percussive content forms
// vertical ridges (broadband at one instant); median filtering along each
// axis enhances one structure and suppresses the other. Soft masks derived
// from the two enhanced magnitudes split the complex spectrogram, and the
// harmonic component is reconstructed by inverse STFT.
type HPSS struct {
	params HPSSParams
	stft   *spectral.STFT
}

// NewHPSS creates an HPSS separator with custom parameters
func NewHPSS(params HPSSParams) *HPSS {
	return &HPSS{
		params: params,
		stft:   spectral.NewSTFT(),
	}
}

// NewHPSSDefault creates an HPSS separator with standard parameters
func NewHPSSDefault() *HPSS {
	return NewHPSS(DefaultHPSSParams())
}

// SeparateHarmonic extracts the harmonic component of a signal.
// The output has exactly the same length as the input.
func (h *HPSS) SeparateHarmonic(signal []float64, sampleRate int) ([]float64, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}

	windowSize := h.params.WindowSize
	hopSize := h.params.HopSize

	// Shrink the analysis window for very short clips
	if len(signal) < windowSize {
		windowSize = largestPowerOfTwo(len(signal))
		if windowSize < 64 {
			// Too short for spectral separation; pass through unchanged
			out := make([]float64, len(signal))
			copy(out, signal)
			return out, nil
		}
		hopSize = windowSize / 4
	}

	window := windowing.NewHann(windowSize, false)

	result, err := h.stft.Compute(signal, windowSize, hopSize, sampleRate, window)
	if err != nil {
		return nil, err
	}

	harmonicMag := h.medianAcrossTime(result.Magnitude)
	percussiveMag := h.medianAcrossFrequency(result.Magnitude)

	h.applyHarmonicMask(result, harmonicMag, percussiveMag)

	return h.stft.Inverse(result, window)
}

// medianAcrossTime median-filters each frequency bin along the time axis,
// enhancing harmonic (horizontally stable) structure.
func (h *HPSS) medianAcrossTime(magnitude [][]float64) [][]float64 {
	numFrames := len(magnitude)
	if numFrames == 0 {
		return nil
	}
	freqBins := len(magnitude[0])
	half := h.params.HarmonicKernel / 2

	enhanced := make([][]float64, numFrames)
	scratch := make([]float64, 0, h.params.HarmonicKernel)

	for t := range numFrames {
		enhanced[t] = make([]float64, freqBins)
		lo := max(0, t-half)
		hi := min(numFrames-1, t+half)

		for f := range freqBins {
			scratch = scratch[:0]
			for tt := lo; tt <= hi; tt++ {
				scratch = append(scratch, magnitude[tt][f])
			}
			enhanced[t][f] = common.Median(scratch)
		}
	}

	return enhanced
}

// medianAcrossFrequency median-filters each frame along the frequency axis,
// enhancing percussive (vertically broadband) structure.
func (h *HPSS) medianAcrossFrequency(magnitude [][]float64) [][]float64 {
	numFrames := len(magnitude)
	if numFrames == 0 {
		return nil
	}
	freqBins := len(magnitude[0])
	half := h.params.PercussiveKernel / 2

	enhanced := make([][]float64, numFrames)
	scratch := make([]float64, 0, h.params.PercussiveKernel)

	for t := range numFrames {
		enhanced[t] = make([]float64, freqBins)

		for f := range freqBins {
			lo := max(0, f-half)
			hi := min(freqBins-1, f+half)

			scratch = scratch[:0]
			for ff := lo; ff <= hi; ff++ {
				scratch = append(scratch, magnitude[t][ff])
			}
			enhanced[t][f] = common.Median(scratch)
		}
	}

	return enhanced
}

// applyHarmonicMask scales the complex spectrogram in place by the soft
// harmonic mask H^p / (H^p + P^p).
func (h *HPSS) applyHarmonicMask(result *spectral.STFTResult, harmonicMag, percussiveMag [][]float64) {
	const eps = 1e-10
	power := h.params.Power

	for t := range result.TimeFrames {
		for f := range result.FreqBins {
			hp := pow(harmonicMag[t][f], power)
			pp := pow(percussiveMag[t][f], power)

			mask := 0.0
			if hp+pp > eps {
				mask = hp / (hp + pp)
			}

			result.Complex[t][f] *= complex(mask, 0)
			result.Magnitude[t][f] *= mask
		}
	}
}

// pow is a fast path for the common integer exponents used by HPSS masks
func pow(x, p float64) float64 {
	switch p {
	case 1.0:
		return x
	case 2.0:
		return x * x
	default:
		result := x
		for i := 1; i < int(p); i++ {
			result *= x
		}
		return result
	}
}

// largestPowerOfTwo returns the largest power of two <= n
func largestPowerOfTwo(n int) int {
	power := 1
	for power*2 <= n {
		power *= 2
	}
	return power
}
