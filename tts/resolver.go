package tts

import (
	"fmt"
	"strconv"
)

// Resolver turns a request's optional backend/speaker hints plus the
// configuration snapshot into a concrete target. Resolution is
// deterministic and side-effect-free: no health probing, no network,
// no process spawning. The same (backend, speaker, config) triple
// always yields the same target.
type Resolver struct {
	// Auto is the backend chosen when the request does not name one.
	// The zero value means BackendSay, the documented default: the
	// say command has no external process dependency, while the HTTP
	// engines may simply not be running and must not be guessed at.
	Auto Backend
}

// Resolve picks the backend and speaker for one request.
//
// Explicit backends are honored as-is. VOICEVOX/Aivis need a speaker
// from the request or from config, otherwise resolution fails with
// CodeUnconfiguredBackend before any network call is made. The say
// backend always resolves: an empty speaker means the OS default voice.
func (r Resolver) Resolve(backend Backend, speaker string, cfg EngineConfig) (ResolvedTarget, error) {
	if backend == "" {
		backend = BackendAuto
	}
	if !KnownBackend(backend) {
		return ResolvedTarget{}, NewError(CodeUnknownBackend, backend,
			fmt.Sprintf("unknown backend %q", string(backend)), ErrUnknownBackend)
	}

	if backend == BackendAuto {
		backend = r.autoBackend(speaker, cfg)
	}

	switch backend {
	case BackendSay:
		if speaker == "" && cfg.MacosDefaultVoice != nil {
			speaker = *cfg.MacosDefaultVoice
		}
		return ResolvedTarget{Backend: BackendSay, SpeakerID: speaker}, nil

	case BackendVoicevox:
		return resolveHTTPSpeaker(BackendVoicevox, speaker, cfg.VoicevoxDefaultSpeaker)

	case BackendAivis:
		return resolveHTTPSpeaker(BackendAivis, speaker, cfg.AivisDefaultSpeaker)
	}

	// Unreachable: KnownBackend filtered everything else.
	return ResolvedTarget{}, NewError(CodeUnknownBackend, backend,
		fmt.Sprintf("unknown backend %q", string(backend)), ErrUnknownBackend)
}

// autoBackend applies the auto-selection policy. A configured
// preference for an HTTP engine only holds when that engine would
// actually resolve; otherwise the guaranteed fallback wins, so Auto
// can never fail with CodeUnconfiguredBackend.
func (r Resolver) autoBackend(speaker string, cfg EngineConfig) Backend {
	switch r.Auto {
	case BackendVoicevox:
		if speaker != "" || cfg.VoicevoxDefaultSpeaker != nil {
			return BackendVoicevox
		}
	case BackendAivis:
		if speaker != "" || cfg.AivisDefaultSpeaker != nil {
			return BackendAivis
		}
	}
	return BackendSay
}

func resolveHTTPSpeaker(backend Backend, speaker string, configured *int) (ResolvedTarget, error) {
	if speaker != "" {
		return ResolvedTarget{Backend: backend, SpeakerID: speaker}, nil
	}
	if configured != nil {
		return ResolvedTarget{Backend: backend, SpeakerID: strconv.Itoa(*configured)}, nil
	}
	return ResolvedTarget{}, NewError(CodeUnconfiguredBackend, backend,
		fmt.Sprintf("no default speaker configured for %s", string(backend)), ErrUnconfiguredBackend)
}
