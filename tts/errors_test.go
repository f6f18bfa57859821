package tts_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/speakmcp/speakmcp/tts"
)

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := tts.NewError(tts.CodeUnavailable, tts.BackendVoicevox, "engine not reachable", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() should reach the cause")
	}
	var te *tts.Error
	if !errors.As(err, &te) {
		t.Fatal("errors.As() failed")
	}
	if te.Code != tts.CodeUnavailable || te.Backend != tts.BackendVoicevox {
		t.Errorf("got code=%v backend=%v", te.Code, te.Backend)
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w",
		tts.NewError(tts.CodeTimeout, tts.BackendSay, "took too long", nil))
	if got := tts.CodeOf(wrapped); got != tts.CodeTimeout {
		t.Errorf("CodeOf(wrapped) = %v, want %v", got, tts.CodeTimeout)
	}

	if got := tts.CodeOf(errors.New("plain")); got != tts.CodeUnexpected {
		t.Errorf("CodeOf(plain) = %v, want %v", got, tts.CodeUnexpected)
	}
}
