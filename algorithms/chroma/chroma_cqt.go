package chroma

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/tonalhq/keysense/algorithms/spectral"
)

// ChromaCQT computes a chromagram using a Constant-Q analysis.
//
// Unlike an STFT-based chromagram with linear frequency spacing, the CQT
// uses logarithmic frequency spacing with per-semitone resolution that is
// equal across octaves:
//
//	f_k = f_min * 2^(k/bins_per_octave)
//
// This matches musical note spacing, separates low-frequency harmonics more
// accurately, and makes the resulting pitch-class energies robust to octave
// register.
type ChromaCQT struct {
	sampleRate    int
	fft           *spectral.FFT
	minFreq       float64 // Minimum analysis frequency
	maxFreq       float64 // Maximum analysis frequency
	binsPerOctave int     // Bins per octave (12 = semitone resolution)
	qFactor       float64 // Quality factor (frequency/bandwidth)
	tuningFreq    float64 // A4 reference frequency

	// Pre-computed frequency-domain CQT kernels
	cqtKernel      [][]complex128
	freqBins       []float64
	fftSize        int
	kernelComputed bool
}

// NewChromaCQT creates a new CQT-based chromagram calculator
func NewChromaCQT(sampleRate int, minFreq, maxFreq float64, binsPerOctave int, qFactor, tuningFreq float64) *ChromaCQT {
	return &ChromaCQT{
		sampleRate:    sampleRate,
		fft:           spectral.NewFFT(),
		minFreq:       minFreq,
		maxFreq:       maxFreq,
		binsPerOctave: binsPerOctave,
		qFactor:       qFactor,
		tuningFreq:    tuningFreq,
	}
}

// NewChromaCQTDefault creates a CQT chromagram with standard musical settings
func NewChromaCQTDefault(sampleRate int) *ChromaCQT {
	return NewChromaCQT(
		sampleRate,
		65.4,   // C2 frequency
		2093.0, // C7 frequency (5 octaves)
		12,     // semitone resolution
		25.0,   // quality factor
		440.0,  // A4 = 440 Hz
	)
}

// ComputeChroma computes the time-by-pitch-class energy matrix of a signal.
// Each row is one analysis frame with 12 non-negative energies normalized
// to unit sum (all-zero for frames with no measurable energy).
func (cqt *ChromaCQT) ComputeChroma(signal []float64, hopSize int) ([][]float64, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}
	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive")
	}

	if !cqt.kernelComputed {
		if err := cqt.computeCQTKernel(); err != nil {
			return nil, err
		}
	}

	cqtSpectrogram := cqt.computeCQTSpectrogram(signal, hopSize)

	return cqt.convertCQTToChroma(cqtSpectrogram), nil
}

// computeCQTKernel pre-computes the frequency-domain CQT kernels.
// Each kernel is a Gaussian-windowed complex exponential at the bin's center
// frequency; correlation against frame spectra is done in the frequency
// domain (Brown-Puckette method).
func (cqt *ChromaCQT) computeCQTKernel() error {
	if cqt.minFreq <= 0 || cqt.maxFreq <= cqt.minFreq {
		return fmt.Errorf("invalid frequency range [%f, %f]", cqt.minFreq, cqt.maxFreq)
	}
	if cqt.maxFreq > float64(cqt.sampleRate)/2 {
		return fmt.Errorf("max frequency %f exceeds Nyquist for sample rate %d", cqt.maxFreq, cqt.sampleRate)
	}

	numOctaves := math.Log2(cqt.maxFreq / cqt.minFreq)
	totalBins := int(numOctaves * float64(cqt.binsPerOctave))

	cqt.freqBins = make([]float64, totalBins)
	for k := range totalBins {
		cqt.freqBins[k] = cqt.minFreq * math.Pow(2.0, float64(k)/float64(cqt.binsPerOctave))
	}

	// The lowest frequency has the longest kernel; size the FFT to fit it
	maxKernelLength := cqt.calculateKernelLength(cqt.freqBins[0])
	cqt.fftSize = nextPowerOfTwo(maxKernelLength)

	cqt.cqtKernel = make([][]complex128, totalBins)

	for k, freq := range cqt.freqBins {
		kernelLength := cqt.calculateKernelLength(freq)

		kernel := make([]complex128, cqt.fftSize)

		// Gaussian window matched to the bin bandwidth
		bandwidth := freq / cqt.qFactor
		sigma := float64(cqt.sampleRate) / (2.0 * math.Pi * bandwidth)

		center := kernelLength / 2
		norm := 0.0
		for n := range kernelLength {
			t := float64(n - center)

			window := math.Exp(-(t * t) / (2.0 * sigma * sigma))
			norm += window

			phase := 2.0 * math.Pi * freq * t / float64(cqt.sampleRate)
			kernel[n] = complex(window, 0) * cmplx.Exp(complex(0, phase))
		}

		// Unit-gain normalization so bins are comparable across frequency
		if norm > 0 {
			for n := range kernelLength {
				kernel[n] /= complex(norm, 0)
			}
		}

		cqt.cqtKernel[k] = cqt.fft.ComputeComplex(kernel)
	}

	cqt.kernelComputed = true
	return nil
}

// calculateKernelLength calculates the CQT kernel length for a frequency
func (cqt *ChromaCQT) calculateKernelLength(frequency float64) int {
	// Kernel length is inversely proportional to frequency (Q = f/bandwidth)
	kernelLength := int(cqt.qFactor * float64(cqt.sampleRate) / frequency)

	// Odd length keeps the kernel symmetric around its center
	if kernelLength%2 == 0 {
		kernelLength++
	}

	if kernelLength < 3 {
		kernelLength = 3
	}
	if kernelLength > cqt.sampleRate {
		kernelLength = cqt.sampleRate
	}

	return kernelLength
}

// computeCQTSpectrogram computes per-frame CQT magnitudes
func (cqt *ChromaCQT) computeCQTSpectrogram(signal []float64, hopSize int) [][]float64 {
	numFrames := len(signal) / hopSize
	if numFrames <= 0 {
		numFrames = 1
	}

	spectrogram := make([][]float64, numFrames)
	frame := make([]float64, cqt.fftSize)

	for frameIdx := range numFrames {
		startIdx := frameIdx * hopSize

		// Extract frame with zero-padding past the signal end
		for i := range cqt.fftSize {
			if startIdx+i < len(signal) {
				frame[i] = signal[startIdx+i]
			} else {
				frame[i] = 0.0
			}
		}

		frameFFT := cqt.fft.Compute(frame)

		// Frequency-domain correlation with each kernel; by Parseval this
		// equals the time-domain inner product scaled by the FFT size
		cqtFrame := make([]float64, len(cqt.freqBins))
		for k := range cqt.freqBins {
			var cqtBin complex128
			kernelFFT := cqt.cqtKernel[k]
			for n := range frameFFT {
				cqtBin += frameFFT[n] * cmplx.Conj(kernelFFT[n])
			}
			cqtFrame[k] = cmplx.Abs(cqtBin) / float64(cqt.fftSize)
		}

		spectrogram[frameIdx] = cqtFrame
	}

	return spectrogram
}

// convertCQTToChroma folds the CQT spectrogram into pitch classes by
// summing bin energies across octaves
func (cqt *ChromaCQT) convertCQTToChroma(cqtSpectrogram [][]float64) [][]float64 {
	chromagram := make([][]float64, len(cqtSpectrogram))

	for t := range cqtSpectrogram {
		chromagram[t] = make([]float64, PitchClasses)

		for k, freq := range cqt.freqBins {
			midiNote := cqt.frequencyToMIDI(freq)
			chromaBin := int(math.Round(midiNote)) % PitchClasses
			if chromaBin < 0 {
				chromaBin += PitchClasses
			}

			energy := cqtSpectrogram[t][k] * cqtSpectrogram[t][k]
			chromagram[t][chromaBin] += energy
		}

		normalizeChromaFrame(chromagram[t])
	}

	return chromagram
}

// frequencyToMIDI converts a frequency to a MIDI note number relative to
// the configured tuning (A4 = MIDI 69)
func (cqt *ChromaCQT) frequencyToMIDI(frequency float64) float64 {
	if frequency <= 0 {
		return 0
	}
	return 69.0 + 12.0*math.Log2(frequency/cqt.tuningFreq)
}

// normalizeChromaFrame scales one chroma frame to unit sum in place
func normalizeChromaFrame(chromaFrame []float64) {
	totalEnergy := 0.0
	for _, energy := range chromaFrame {
		totalEnergy += energy
	}

	if totalEnergy > 1e-10 {
		for i := range chromaFrame {
			chromaFrame[i] /= totalEnergy
		}
	}
}

// GetCQTFrequencies returns the CQT frequency bins
func (cqt *ChromaCQT) GetCQTFrequencies() []float64 {
	if !cqt.kernelComputed {
		return []float64{}
	}

	freqs := make([]float64, len(cqt.freqBins))
	copy(freqs, cqt.freqBins)
	return freqs
}

// SetTuning updates the tuning frequency and forces kernel recomputation
func (cqt *ChromaCQT) SetTuning(tuningFreq float64) {
	cqt.tuningFreq = tuningFreq
	cqt.kernelComputed = false
}

// nextPowerOfTwo finds the next power of 2 >= n
func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}

	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
