package spectral

import (
	"fmt"
	"math/cmplx"
	"runtime"
	"sync"
)

// STFT provides Short-Time Fourier Transform functionality with inverse
// reconstruction support for mask-based source separation.
type STFT struct {
	fft *FFT
}

// STFTResult holds the result of STFT analysis
type STFTResult struct {
	Magnitude    [][]float64    `json:"magnitude"` // Time x Frequency magnitude matrix
	Complex      [][]complex128 `json:"-"`         // Raw complex spectrogram (not serialized)
	TimeFrames   int            `json:"time_frames"`
	FreqBins     int            `json:"freq_bins"` // Positive frequencies only (N/2+1)
	SampleRate   int            `json:"sample_rate"`
	WindowSize   int            `json:"window_size"`
	HopSize      int            `json:"hop_size"`
	SignalLength int            `json:"signal_length"` // Original signal length, for inverse
}

// Window interface for windowing functions
type Window interface {
	Apply(signal []float64) []float64
	ApplyInPlace(signal []float64) error
	GetCoefficients() []float64
}

// NewSTFT creates a new STFT calculator
func NewSTFT() *STFT {
	return &STFT{
		fft: NewFFT(),
	}
}

// Compute computes the STFT of a signal with the given window.
// Frames start every hopSize samples; the final frames are zero-padded so
// every input sample is covered by at least one frame.
func (s *STFT) Compute(signal []float64, windowSize, hopSize, sampleRate int, window Window) (*STFTResult, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive")
	}
	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive")
	}

	numFrames := (len(signal)-1)/hopSize + 1
	freqBins := windowSize/2 + 1

	magnitude := make([][]float64, numFrames)
	complexSpectrum := make([][]complex128, numFrames)
	for i := range numFrames {
		magnitude[i] = make([]float64, freqBins)
		complexSpectrum[i] = make([]complex128, freqBins)
	}

	numWorkers := min(runtime.NumCPU(), numFrames)
	jobs := make(chan int, numFrames)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Reuse the frame buffer within a worker
			frameBuffer := make([]float64, windowSize)

			for frameIdx := range jobs {
				startIdx := frameIdx * hopSize

				for i := range windowSize {
					if startIdx+i < len(signal) {
						frameBuffer[i] = signal[startIdx+i]
					} else {
						frameBuffer[i] = 0.0
					}
				}

				if window != nil {
					if err := window.ApplyInPlace(frameBuffer); err != nil {
						continue
					}
				}

				fftResult := s.fft.Compute(frameBuffer)

				for i := range freqBins {
					complexSpectrum[frameIdx][i] = fftResult[i]
					magnitude[frameIdx][i] = cmplx.Abs(fftResult[i])
				}
			}
		}()
	}

	for frameIdx := range numFrames {
		jobs <- frameIdx
	}
	close(jobs)
	wg.Wait()

	return &STFTResult{
		Magnitude:    magnitude,
		Complex:      complexSpectrum,
		TimeFrames:   numFrames,
		FreqBins:     freqBins,
		SampleRate:   sampleRate,
		WindowSize:   windowSize,
		HopSize:      hopSize,
		SignalLength: len(signal),
	}, nil
}

// Inverse reconstructs a time-domain signal from a (possibly modified)
// complex spectrogram using weighted overlap-add. The same window used for
// analysis must be supplied; the output is trimmed to the original length.
func (s *STFT) Inverse(result *STFTResult, window Window) ([]float64, error) {
	if result == nil || result.TimeFrames == 0 {
		return nil, fmt.Errorf("empty spectrogram")
	}
	if window == nil {
		return nil, fmt.Errorf("window required for reconstruction")
	}

	windowSize := result.WindowSize
	hopSize := result.HopSize
	coeffs := window.GetCoefficients()
	if len(coeffs) != windowSize {
		return nil, fmt.Errorf("window length (%d) doesn't match STFT window size (%d)", len(coeffs), windowSize)
	}

	outLen := (result.TimeFrames-1)*hopSize + windowSize
	signal := make([]float64, outLen)
	windowSum := make([]float64, outLen)

	fullSpectrum := make([]complex128, windowSize)

	for frameIdx := range result.TimeFrames {
		frame := result.Complex[frameIdx]

		// Rebuild the full spectrum from positive frequencies by
		// conjugate symmetry (the signal is real)
		for i := range result.FreqBins {
			fullSpectrum[i] = frame[i]
		}
		for i := result.FreqBins; i < windowSize; i++ {
			fullSpectrum[i] = cmplx.Conj(frame[windowSize-i])
		}

		timeFrame := s.fft.ComputeInverseReal(fullSpectrum)

		startIdx := frameIdx * hopSize
		for i := range windowSize {
			signal[startIdx+i] += timeFrame[i] * coeffs[i]
			windowSum[startIdx+i] += coeffs[i] * coeffs[i]
		}
	}

	// Normalize by the accumulated squared window weight
	for i := range signal {
		if windowSum[i] > 1e-10 {
			signal[i] /= windowSum[i]
		}
	}

	if result.SignalLength > 0 && result.SignalLength < len(signal) {
		signal = signal[:result.SignalLength]
	}

	return signal, nil
}
