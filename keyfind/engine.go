package keyfind

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tonalhq/keysense/logging"
)

// WaveformEstimator estimates a key from an already-decoded waveform
type WaveformEstimator interface {
	Estimate(ctx context.Context, channels [][]float64, sampleRate int) (*KeyEstimate, error)
}

// ClipEstimator estimates a key from encoded clip bytes
type ClipEstimator interface {
	EstimateClip(ctx context.Context, clip []byte, mimeType string) (*KeyEstimate, error)
}

// AnalyzeRequest carries one clip's inputs for both estimation paths.
// Channels/SampleRate feed the local path; Clip feeds the remote path.
// Either side may be absent, in which case that path is skipped.
type AnalyzeRequest struct {
	Channels     [][]float64
	SampleRate   int
	Clip         []byte
	ClipMIMEType string
}

// AnalyzeResult holds both paths' estimates plus the preferred one.
// Best is the remote estimate when it succeeded, otherwise the local one;
// it is nil only when every attempted path failed.
type AnalyzeResult struct {
	Best   *KeyEstimate `json:"best,omitempty"`
	Local  *KeyEstimate `json:"local,omitempty"`
	Remote *KeyEstimate `json:"remote,omitempty"`
}

// Engine runs the local and remote estimators concurrently for one request.
// The local path is CPU-bound and the remote path blocks on a network round
// trip, so each runs on its own goroutine; neither holds shared state beyond
// the read-only template table. No ordering is guaranteed between
// concurrent Analyze calls.
type Engine struct {
	local  WaveformEstimator
	remote ClipEstimator
	logger logging.Logger
}

// NewEngine creates an analysis engine. Either estimator may be nil; the
// corresponding path is skipped.
func NewEngine(local WaveformEstimator, remote ClipEstimator) *Engine {
	return &Engine{
		local:  local,
		remote: remote,
		logger: logging.WithFields(logging.Fields{
			"component": "analysis_engine",
		}),
	}
}

// Analyze runs both estimation paths and returns their results. Estimator
// failures never abort the other path: each failure is already folded into
// its own ok=false estimate. The error return is reserved for requests
// where no path could be attempted.
func (e *Engine) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	requestID := uuid.NewString()
	logger := e.logger.WithFields(logging.Fields{"request_id": requestID})

	runLocal := e.local != nil && len(req.Channels) > 0
	runRemote := e.remote != nil && len(req.Clip) > 0

	if !runLocal && !runRemote {
		err := &RemoteUnavailableError{Reason: "no estimator available for the request inputs"}
		return nil, err
	}

	result := &AnalyzeResult{}
	group, groupCtx := errgroup.WithContext(ctx)

	if runLocal {
		group.Go(func() error {
			estimate, err := e.local.Estimate(groupCtx, req.Channels, req.SampleRate)
			if err != nil {
				logger.Warn("local path failed", logging.Fields{"error": err.Error()})
			}
			result.Local = estimate
			return nil
		})
	}

	if runRemote {
		group.Go(func() error {
			mimeType := req.ClipMIMEType
			if mimeType == "" {
				mimeType = "audio/wav"
			}

			estimate, err := e.remote.EstimateClip(groupCtx, req.Clip, mimeType)
			if err != nil {
				logger.Warn("remote path failed", logging.Fields{"error": err.Error()})
			}
			result.Remote = estimate
			return nil
		})
	}

	// Estimator goroutines always return nil; failures live in the
	// estimates themselves
	_ = group.Wait()

	result.Best = pickBest(result.Remote, result.Local)

	if result.Best != nil {
		logger.Info("analysis complete", logging.Fields{
			"provenance": result.Best.Provenance,
			"tonic":      result.Best.Tonic,
			"mode":       result.Best.Mode,
		})
	}

	return result, nil
}

// pickBest prefers the remote estimate when it succeeded, falling back to
// the local one. Candidates are ordered by preference.
func pickBest(candidates ...*KeyEstimate) *KeyEstimate {
	for _, estimate := range candidates {
		if estimate != nil && estimate.OK {
			return estimate
		}
	}
	for _, estimate := range candidates {
		if estimate != nil {
			return estimate
		}
	}
	return nil
}
