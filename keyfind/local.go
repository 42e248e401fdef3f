package keyfind

import (
	"context"
	"errors"

	"github.com/tonalhq/keysense/algorithms/chroma"
	"github.com/tonalhq/keysense/algorithms/filters"
	"github.com/tonalhq/keysense/algorithms/harmonic"
	"github.com/tonalhq/keysense/algorithms/tonal"
	"github.com/tonalhq/keysense/logging"
)

// LocalConfig holds configuration for the local estimation pipeline
type LocalConfig struct {
	PreEmphasisCoefficient float64             `json:"pre_emphasis_coefficient"`
	HPSS                   harmonic.HPSSParams `json:"hpss"`
	ChromaHopSize          int                 `json:"chroma_hop_size"`
	MaxNotes               int                 `json:"max_notes"`        // Dominant-note list cap
	MinNotePercent         float64             `json:"min_note_percent"` // Drop notes below this energy share
}

// DefaultLocalConfig returns the standard local pipeline configuration
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		PreEmphasisCoefficient: 0.97,
		HPSS:                   harmonic.DefaultHPSSParams(),
		ChromaHopSize:          512,
		MaxNotes:               7,
		MinNotePercent:         3.0,
	}
}

// LocalEstimator derives the key from acoustic features alone:
// downmix/normalize, pre-emphasis, harmonic/percussive separation,
// constant-Q chroma, then correlation against the 24 rotated key templates.
//
// Each call is a self-contained, stateless computation over its own input;
// the only shared state is the read-only template table. The pipeline is
// pure and CPU-bound, so it can run on its own goroutine to overlap with
// I/O-bound remote calls.
type LocalEstimator struct {
	config       *LocalConfig
	preprocessor *Preprocessor
	normalizer   *Normalizer
	logger       logging.Logger
}

// NewLocalEstimator creates a local estimator. A nil config selects the
// defaults.
func NewLocalEstimator(config *LocalConfig) *LocalEstimator {
	if config == nil {
		config = DefaultLocalConfig()
	}

	return &LocalEstimator{
		config:       config,
		preprocessor: NewPreprocessor(),
		normalizer:   NewLocalNormalizer(),
		logger: logging.WithFields(logging.Fields{
			"component": "local_estimator",
		}),
	}
}

// Estimate runs the full local pipeline over an already-decoded waveform.
// The returned estimate is never nil: on failure it carries ok=false, the
// error message, and whatever diagnostics were measured before the failure;
// the same failure is also returned as a typed error for errors.As matching.
func (le *LocalEstimator) Estimate(ctx context.Context, channels [][]float64, sampleRate int) (*KeyEstimate, error) {
	pre, err := le.preprocessor.Process(channels, sampleRate)
	if err != nil {
		failed := le.fail(err)
		var silent *SilentAudioError
		if errors.As(err, &silent) {
			failed.Duration = silent.Duration
			failed.Peak = silent.Peak
			failed.RMS = silent.RMS
		}
		return failed, err
	}

	estimate, err := le.estimateNormalized(ctx, pre)
	if err != nil {
		failed := le.fail(err)
		failed.Duration = pre.Duration
		failed.Peak = pre.Peak
		failed.RMS = pre.RMS
		return failed, err
	}

	estimate.Duration = pre.Duration
	estimate.Peak = pre.Peak
	estimate.RMS = pre.RMS

	le.logger.Debug("local estimate complete", logging.Fields{
		"tonic":      estimate.Tonic,
		"mode":       estimate.Mode,
		"confidence": estimate.Confidence,
		"duration":   estimate.Duration,
	})

	return estimate, nil
}

func (le *LocalEstimator) estimateNormalized(ctx context.Context, pre *PreprocessResult) (*KeyEstimate, error) {
	if err := ctx.Err(); err != nil {
		return nil, &CanceledError{Err: err}
	}

	// Pre-emphasis flattens the spectral roll-off before separation
	preEmphasis := filters.NewPreEmphasis(le.config.PreEmphasisCoefficient)
	emphasized := preEmphasis.ProcessBuffer(pre.Waveform.Samples)

	// Keep only the harmonic component; percussive transients would bias
	// the pitch-class estimate toward broadband noise
	hpss := harmonic.NewHPSS(le.config.HPSS)
	harmonicSignal, err := hpss.SeparateHarmonic(emphasized, pre.Waveform.SampleRate)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, &CanceledError{Err: err}
	}

	cqt := chroma.NewChromaCQTDefault(pre.Waveform.SampleRate)
	frames, err := cqt.ComputeChroma(harmonicSignal, le.config.ChromaHopSize)
	if err != nil {
		return nil, err
	}

	vec, ok := chroma.Aggregate(frames).NormalizeSum()
	if !ok {
		return nil, &AtonalError{Duration: pre.Duration, Peak: pre.Peak, RMS: pre.RMS}
	}

	correlation := tonal.CorrelateProfiles(vec)

	raw := RawEstimate{
		Tonic:      NoteNames[correlation.Tonic],
		Mode:       correlation.Mode.String(),
		Confidence: correlation.Confidence,
		Notes:      RankNotes(vec, le.config.MaxNotes, le.config.MinNotePercent),
	}

	return le.normalizer.Normalize(raw, ProvenanceLocal)
}

func (le *LocalEstimator) fail(err error) *KeyEstimate {
	le.logger.Warn("local estimation failed", logging.Fields{"error": err.Error()})
	return FailedEstimate(ProvenanceLocal, err)
}
