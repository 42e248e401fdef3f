package remote

import (
	"context"
	"errors"

	"github.com/tonalhq/keysense/keyfind"
	"github.com/tonalhq/keysense/logging"
)

// estimationPrompt is the fixed instruction the estimator sends with every
// clip. It pins the exact schema and value rules the normalizer expects.
const estimationPrompt = `Return only JSON (no markdown, no extra text).
Schema:
{
  "tonic": "G",
  "mode": "major",
  "confidence": 0.0,
  "notes_heard": ["G","B","D"]
}
Rules:
- tonic: A-G optionally with # or b
- mode: "major" or "minor"
- confidence: 0.0 to 1.0
`

// Estimator estimates the key of a clip by querying a multimodal inference
// provider and defensively normalizing its reply.
//
// The call blocks on one network round trip with no internal retry; callers
// bound it with their context and must not hold exclusive resources across
// the call. Context cancellation surfaces as CanceledError, service
// failures as NetworkError.
type Estimator struct {
	provider   Provider
	normalizer *keyfind.Normalizer
	logger     logging.Logger
}

// NewEstimator creates a remote estimator. The provider may be nil when the
// integration is unconfigured; every estimate then fails immediately with
// RemoteUnavailableError and no network call is attempted.
func NewEstimator(provider Provider) *Estimator {
	return &Estimator{
		provider:   provider,
		normalizer: keyfind.NewRemoteNormalizer(),
		logger: logging.WithFields(logging.Fields{
			"component": "remote_estimator",
		}),
	}
}

// EstimateClip sends the clip to the inference service and normalizes the
// reply. The returned estimate is never nil; on failure it carries ok=false
// plus the raw model text (when one was received) for audit, and the same
// failure is returned as a typed error.
func (e *Estimator) EstimateClip(ctx context.Context, clip []byte, mimeType string) (*keyfind.KeyEstimate, error) {
	if e.provider == nil {
		err := &keyfind.RemoteUnavailableError{Reason: "no inference provider configured"}
		return keyfind.FailedEstimate(keyfind.ProvenanceRemote, err), err
	}

	rawText, err := e.provider.GenerateFromAudio(ctx, estimationPrompt, clip, mimeType)
	if err != nil {
		wrapped := e.classifyCallError(ctx, err)
		return keyfind.FailedEstimate(keyfind.ProvenanceRemote, wrapped), wrapped
	}

	data, err := ExtractJSONObject(rawText)
	if err != nil {
		e.logger.Warn("failed to recover JSON from model output", logging.Fields{
			"provider": e.provider.Name(),
			"error":    err.Error(),
		})
		failed := keyfind.FailedEstimate(keyfind.ProvenanceRemote, err)
		failed.RawText = rawText
		return failed, err
	}

	raw := keyfind.CoerceRawFields(data)
	raw.RawText = rawText

	estimate, err := e.normalizer.Normalize(raw, keyfind.ProvenanceRemote)
	if err != nil {
		failed := keyfind.FailedEstimate(keyfind.ProvenanceRemote, err)
		failed.RawText = rawText
		return failed, err
	}

	e.logger.Debug("remote estimate complete", logging.Fields{
		"provider":   e.provider.Name(),
		"tonic":      estimate.Tonic,
		"mode":       estimate.Mode,
		"confidence": estimate.Confidence,
	})

	return estimate, nil
}

// classifyCallError maps a provider failure to the right error kind:
// caller-initiated cancellation is distinct from a service failure.
func (e *Estimator) classifyCallError(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &keyfind.CanceledError{Err: err}
	}
	return &keyfind.NetworkError{Err: err}
}
