package keyfind

import "fmt"

// SilentAudioError indicates the input waveform carries no signal at all
// (zero peak or zero RMS). Diagnostics are retained for reporting.
type SilentAudioError struct {
	Duration float64 // Seconds
	Peak     float64
	RMS      float64
}

func (e *SilentAudioError) Error() string {
	return "audio is all zeros"
}

// AtonalError indicates the harmonic content was too weak to produce a
// usable chroma vector; the all-zero sentinel was emitted instead.
type AtonalError struct {
	Duration float64
	Peak     float64
	RMS      float64
}

func (e *AtonalError) Error() string {
	return "no tonal content detected"
}

// InvalidTonicError indicates a tonic symbol outside A-G with an optional
// trailing # or b.
type InvalidTonicError struct {
	Tonic string
}

func (e *InvalidTonicError) Error() string {
	return fmt.Sprintf("invalid tonic: %q", e.Tonic)
}

// InvalidModeError indicates a mode other than major/minor (or their
// maj/min abbreviations).
type InvalidModeError struct {
	Mode string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid mode: %q", e.Mode)
}

// MalformedOutputError indicates no valid JSON object could be recovered
// from the remote model's text.
type MalformedOutputError struct {
	Reason string
	Err    error // Underlying parse error, when one exists
}

func (e *MalformedOutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed model output: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed model output: %s", e.Reason)
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Err
}

// RemoteUnavailableError indicates the remote integration is not configured
// (missing client or credential); no network call was attempted.
type RemoteUnavailableError struct {
	Reason string
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("remote estimator unavailable: %s", e.Reason)
}

// NetworkError wraps a failure of the remote service call. No retry is
// performed; the failure surfaces immediately.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("remote service call failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// CanceledError indicates the caller's context ended while a remote call
// was in flight. Kept distinct from NetworkError so callers can tell a
// timeout they imposed from a failure of the service.
type CanceledError struct {
	Err error
}

func (e *CanceledError) Error() string {
	return fmt.Sprintf("estimation canceled: %v", e.Err)
}

func (e *CanceledError) Unwrap() error {
	return e.Err
}
