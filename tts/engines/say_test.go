package engines

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/speakmcp/speakmcp/internal/subprocess"
	"github.com/speakmcp/speakmcp/tts"
)

// fakeSay writes a shell script that records its argv, one element per
// line, so tests can assert exactly what reached the child process.
func fakeSay(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script test doubles are not available on windows")
	}
	path := filepath.Join(t.TempDir(), "fakesay")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

// sayRecorder returns a fake say that writes its argv (one element per
// line) to argvFile and whatever it reads on stdin to stdinFile.
func sayRecorder(t *testing.T, argvFile, stdinFile string) string {
	t.Helper()
	return fakeSay(t,
		`for a in "$@"; do printf '%s\n' "$a" >> `+argvFile+`; done
cat > `+stdinFile)
}

func TestSayEngineArgs(t *testing.T) {
	dir := t.TempDir()
	argvFile := filepath.Join(dir, "argv")
	stdinFile := filepath.Join(dir, "stdin")
	engine := NewSay(sayRecorder(t, argvFile, stdinFile), subprocess.NewRunner(0))

	err := engine.Synthesize(context.Background(), "hello world", "Kyoko", 180)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	data, err := os.ReadFile(argvFile)
	if err != nil {
		t.Fatal(err)
	}
	got := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	want := []string{"-v", "Kyoko", "-r", "180"}
	if len(got) != len(want) {
		t.Fatalf("argv = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("argv[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	stdin, err := os.ReadFile(stdinFile)
	if err != nil {
		t.Fatal(err)
	}
	if string(stdin) != "hello world" {
		t.Errorf("stdin = %q, want the text", stdin)
	}
}

func TestSayEngineNoVoiceNoSpeed(t *testing.T) {
	dir := t.TempDir()
	argvFile := filepath.Join(dir, "argv")
	stdinFile := filepath.Join(dir, "stdin")
	engine := NewSay(sayRecorder(t, argvFile, stdinFile), subprocess.NewRunner(0))

	if err := engine.Synthesize(context.Background(), "hi", "", 0); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if _, err := os.Stat(argvFile); !os.IsNotExist(err) {
		data, _ := os.ReadFile(argvFile)
		t.Errorf("argv = %q, want none", data)
	}
	stdin, _ := os.ReadFile(stdinFile)
	if string(stdin) != "hi" {
		t.Errorf("stdin = %q, want the text", stdin)
	}
}

func TestSayEngineInjectionSafety(t *testing.T) {
	dir := t.TempDir()
	argvFile := filepath.Join(dir, "argv")
	stdinFile := filepath.Join(dir, "stdin")
	engine := NewSay(sayRecorder(t, argvFile, stdinFile), subprocess.NewRunner(0))

	text := `hello"; rm -rf /"`
	if err := engine.Synthesize(context.Background(), text, "", 0); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	// The metacharacter text reaches the child as literal stdin data,
	// never as command-line input.
	stdin, err := os.ReadFile(stdinFile)
	if err != nil {
		t.Fatal(err)
	}
	if string(stdin) != text {
		t.Errorf("stdin = %q, want the literal text %q", stdin, text)
	}
	if _, err := os.Stat(argvFile); !os.IsNotExist(err) {
		data, _ := os.ReadFile(argvFile)
		t.Errorf("argv = %q, want the text kept off the command line", data)
	}
}

func TestSayEngineNotFound(t *testing.T) {
	engine := NewSay("definitely-not-a-real-binary-xyz", subprocess.NewRunner(0))
	err := engine.Synthesize(context.Background(), "hello", "", 0)
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if got := tts.CodeOf(err); got != tts.CodeUnavailable {
		t.Errorf("code = %v, want %v", got, tts.CodeUnavailable)
	}
}

func TestSayEngineTimeout(t *testing.T) {
	engine := NewSay(fakeSay(t, "sleep 5"), subprocess.NewRunner(0))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := engine.Synthesize(ctx, "hello", "", 0)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if got := tts.CodeOf(err); got != tts.CodeTimeout {
		t.Errorf("code = %v, want %v", got, tts.CodeTimeout)
	}
	if elapsed := time.Since(start); elapsed > 4*time.Second {
		t.Errorf("Synthesize() took %s, the child must be killed at the deadline", elapsed)
	}
}

func TestSayEngineExitFailure(t *testing.T) {
	engine := NewSay(fakeSay(t, "exit 3"), subprocess.NewRunner(0))
	err := engine.Synthesize(context.Background(), "hello", "", 0)
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if got := tts.CodeOf(err); got != tts.CodeUnexpected {
		t.Errorf("code = %v, want %v", got, tts.CodeUnexpected)
	}
}

func TestSayEngineSpeakers(t *testing.T) {
	script := `cat <<'VOICES'
Alex                en_US    # Most people recognize me by my voice.
Bad News            en_US    # The light you see at the end of the tunnel is the headlamp of a fast approaching train.
Kyoko               ja_JP    # こんにちは、私の名前はKyokoです。
VOICES`
	engine := NewSay(fakeSay(t, script), subprocess.NewRunner(0))

	speakers, err := engine.Speakers(context.Background())
	if err != nil {
		t.Fatalf("Speakers() error = %v", err)
	}

	want := []tts.Speaker{
		{ID: "Alex", Name: "Alex (en_US)"},
		{ID: "Bad News", Name: "Bad News (en_US)"},
		{ID: "Kyoko", Name: "Kyoko (ja_JP)"},
	}
	if len(speakers) != len(want) {
		t.Fatalf("Speakers() = %+v, want %d entries", speakers, len(want))
	}
	for i := range want {
		if speakers[i] != want[i] {
			t.Errorf("speakers[%d] = %+v, want %+v", i, speakers[i], want[i])
		}
	}
}
