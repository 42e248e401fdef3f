package keyfind

import (
	"github.com/tonalhq/keysense/algorithms/common"
)

// Waveform is an already-decoded audio signal at a known sample rate.
// This package performs no container decoding or resampling.
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the waveform length in seconds
func (w Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0.0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// PreprocessResult is a normalized mono waveform plus the energy
// diagnostics measured before normalization.
type PreprocessResult struct {
	Waveform Waveform
	Duration float64 // Seconds
	Peak     float64 // Peak absolute amplitude before normalization
	RMS      float64 // Root-mean-square energy before normalization
}

// Preprocessor downmixes multi-channel input to mono, verifies the signal
// carries energy, and peak-normalizes it for the analysis stages.
type Preprocessor struct{}

// NewPreprocessor creates a new audio preprocessor
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

// Process downmixes, checks energy, and peak-normalizes the input.
// Silent input (zero peak or zero RMS) fails with SilentAudioError that
// still reports duration, peak, and RMS for diagnostics.
func (p *Preprocessor) Process(channels [][]float64, sampleRate int) (*PreprocessResult, error) {
	mono := downmix(channels)

	duration := 0.0
	if sampleRate > 0 {
		duration = float64(len(mono)) / float64(sampleRate)
	}

	peak := common.MaxAbs(mono)
	rms := common.RMS(mono)

	if peak == 0 || rms == 0 {
		return nil, &SilentAudioError{Duration: duration, Peak: peak, RMS: rms}
	}

	normalized := make([]float64, len(mono))
	for i, sample := range mono {
		normalized[i] = sample / peak
	}

	return &PreprocessResult{
		Waveform: Waveform{Samples: normalized, SampleRate: sampleRate},
		Duration: duration,
		Peak:     peak,
		RMS:      rms,
	}, nil
}

// downmix averages all channels per sample. Single-channel input is copied
// unchanged; channels shorter than the longest contribute zeros at the tail.
func downmix(channels [][]float64) []float64 {
	if len(channels) == 0 {
		return []float64{}
	}
	if len(channels) == 1 {
		mono := make([]float64, len(channels[0]))
		copy(mono, channels[0])
		return mono
	}

	length := 0
	for _, channel := range channels {
		if len(channel) > length {
			length = len(channel)
		}
	}

	mono := make([]float64, length)
	count := float64(len(channels))
	for _, channel := range channels {
		for i, sample := range channel {
			mono[i] += sample / count
		}
	}

	return mono
}
