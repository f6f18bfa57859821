// Package tts contains the backend-dispatch core of speakmcp: request
// types, the engine capability interface, the backend resolver and the
// dispatch engine that ties them together.
package tts

// Backend identifies a speech-synthesis engine.
type Backend string

const (
	// BackendAuto lets the resolver pick a backend.
	BackendAuto Backend = "auto"
	// BackendSay is the local OS speech command (macOS `say`).
	BackendSay Backend = "say"
	// BackendVoicevox is the VOICEVOX engine HTTP API.
	BackendVoicevox Backend = "voicevox"
	// BackendAivis is the Aivis Speech engine HTTP API
	// (VOICEVOX-compatible).
	BackendAivis Backend = "aivis"
)

// KnownBackend reports whether b names a backend this server understands.
// BackendAuto counts: it is a valid request value, resolved later.
func KnownBackend(b Backend) bool {
	switch b {
	case BackendAuto, BackendSay, BackendVoicevox, BackendAivis:
		return true
	}
	return false
}

// SpeakRequest is one normalized speak call. It is created per inbound
// tool call, never mutated, and discarded when the call completes.
type SpeakRequest struct {
	// Text to synthesize. Must be non-empty.
	Text string

	// Backend is an optional explicit engine choice. Empty means
	// BackendAuto.
	Backend Backend

	// Speaker is an optional backend-specific voice identifier:
	// a style id for VOICEVOX/Aivis, a voice name for the say command.
	// Empty means "use the configured default".
	Speaker string

	// Speed is an optional rate hint. Zero means engine default.
	// The say command interprets it as words per minute, the HTTP
	// engines as a speedScale multiplier.
	Speed float64
}

// ResolvedTarget is the resolver's output: a concrete backend plus the
// speaker to use. It is owned by the dispatcher for the request's
// lifetime and never escapes it.
type ResolvedTarget struct {
	// Backend is concrete, never BackendAuto.
	Backend Backend

	// SpeakerID selects the voice. Empty is only legal for
	// BackendSay, where it means the OS default voice.
	SpeakerID string
}

// Outcome is the terminal state of a dispatch.
type Outcome string

const (
	// OutcomeSpoken means the audio was produced and played.
	OutcomeSpoken Outcome = "spoken"
	// OutcomeFailed means the request failed at some stage.
	OutcomeFailed Outcome = "failed"
)

// DispatchResult is the uniform result returned for every speak call,
// regardless of which backend served it. It is never persisted.
type DispatchResult struct {
	Outcome Outcome
	// Detail is a stable, human-readable diagnostic. For failures it
	// names the backend and the reason; it never contains raw HTTP
	// bodies or stack traces.
	Detail string
}

// Spoken reports whether the request succeeded.
func (r DispatchResult) Spoken() bool { return r.Outcome == OutcomeSpoken }

// Speaker is one voice offered by an engine, as reported by its
// listing endpoint. Fetched on demand, never persisted.
type Speaker struct {
	// ID is the backend-specific identifier (a numeric style id for
	// VOICEVOX/Aivis, a voice name for the say command).
	ID string
	// Name is the human-readable label, e.g. "Zundamon (Normal)".
	Name string
}
