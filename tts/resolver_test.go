package tts_test

import (
	"testing"

	"github.com/speakmcp/speakmcp/tts"
)

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func TestResolveExplicitBackend(t *testing.T) {
	tests := []struct {
		name    string
		backend tts.Backend
		speaker string
		cfg     tts.EngineConfig
		want    tts.ResolvedTarget
	}{
		{
			name:    "say with explicit voice",
			backend: tts.BackendSay,
			speaker: "Kyoko",
			want:    tts.ResolvedTarget{Backend: tts.BackendSay, SpeakerID: "Kyoko"},
		},
		{
			name:    "say falls back to configured voice",
			backend: tts.BackendSay,
			cfg:     tts.EngineConfig{MacosDefaultVoice: strPtr("Samantha")},
			want:    tts.ResolvedTarget{Backend: tts.BackendSay, SpeakerID: "Samantha"},
		},
		{
			name:    "say with nothing uses OS default",
			backend: tts.BackendSay,
			want:    tts.ResolvedTarget{Backend: tts.BackendSay, SpeakerID: ""},
		},
		{
			name:    "voicevox explicit speaker overrides config",
			backend: tts.BackendVoicevox,
			speaker: "3",
			cfg:     tts.EngineConfig{VoicevoxDefaultSpeaker: intPtr(1)},
			want:    tts.ResolvedTarget{Backend: tts.BackendVoicevox, SpeakerID: "3"},
		},
		{
			name:    "voicevox uses configured default",
			backend: tts.BackendVoicevox,
			cfg:     tts.EngineConfig{VoicevoxDefaultSpeaker: intPtr(1)},
			want:    tts.ResolvedTarget{Backend: tts.BackendVoicevox, SpeakerID: "1"},
		},
		{
			name:    "aivis uses configured default",
			backend: tts.BackendAivis,
			cfg:     tts.EngineConfig{AivisDefaultSpeaker: intPtr(888753760)},
			want:    tts.ResolvedTarget{Backend: tts.BackendAivis, SpeakerID: "888753760"},
		},
	}

	var r tts.Resolver
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.backend, tt.speaker, tt.cfg)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveUnconfiguredHTTPBackend(t *testing.T) {
	var r tts.Resolver
	for _, backend := range []tts.Backend{tts.BackendVoicevox, tts.BackendAivis} {
		_, err := r.Resolve(backend, "", tts.EngineConfig{})
		if err == nil {
			t.Fatalf("Resolve(%s) expected error, got nil", backend)
		}
		if tts.CodeOf(err) != tts.CodeUnconfiguredBackend {
			t.Errorf("Resolve(%s) code = %v, want %v", backend, tts.CodeOf(err), tts.CodeUnconfiguredBackend)
		}
	}
}

func TestResolveUnknownBackend(t *testing.T) {
	var r tts.Resolver
	_, err := r.Resolve("espeak", "", tts.EngineConfig{})
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if tts.CodeOf(err) != tts.CodeUnknownBackend {
		t.Errorf("code = %v, want %v", tts.CodeOf(err), tts.CodeUnknownBackend)
	}
}

func TestResolveAutoDefaultsToSay(t *testing.T) {
	// All defaults null: auto must still resolve, never error.
	var r tts.Resolver
	for _, backend := range []tts.Backend{"", tts.BackendAuto} {
		got, err := r.Resolve(backend, "", tts.EngineConfig{})
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", backend, err)
		}
		if got.Backend != tts.BackendSay {
			t.Errorf("Resolve(%q).Backend = %v, want %v", backend, got.Backend, tts.BackendSay)
		}
	}
}

func TestResolveAutoPreference(t *testing.T) {
	r := tts.Resolver{Auto: tts.BackendVoicevox}

	// Preference holds when the engine has a configured default.
	cfg := tts.EngineConfig{VoicevoxDefaultSpeaker: intPtr(1)}
	got, err := r.Resolve(tts.BackendAuto, "", cfg)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Backend != tts.BackendVoicevox {
		t.Errorf("Backend = %v, want %v", got.Backend, tts.BackendVoicevox)
	}

	// Without a usable speaker the preference is ignored: auto must
	// never fail with an unconfigured backend.
	got, err = r.Resolve(tts.BackendAuto, "", tts.EngineConfig{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Backend != tts.BackendSay {
		t.Errorf("Backend = %v, want %v", got.Backend, tts.BackendSay)
	}
}

func TestResolveIdempotent(t *testing.T) {
	r := tts.Resolver{Auto: tts.BackendAivis}
	cfg := tts.EngineConfig{
		VoicevoxDefaultSpeaker: intPtr(1),
		AivisDefaultSpeaker:    intPtr(2),
		MacosDefaultVoice:      strPtr("Kyoko"),
	}

	for _, backend := range []tts.Backend{tts.BackendAuto, tts.BackendSay, tts.BackendVoicevox, tts.BackendAivis} {
		first, err1 := r.Resolve(backend, "", cfg)
		second, err2 := r.Resolve(backend, "", cfg)
		if (err1 == nil) != (err2 == nil) {
			t.Fatalf("Resolve(%s) errors disagree: %v vs %v", backend, err1, err2)
		}
		if first != second {
			t.Errorf("Resolve(%s) not idempotent: %+v vs %+v", backend, first, second)
		}
	}
}
