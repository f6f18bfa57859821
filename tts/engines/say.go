// Package engines provides the concrete backend adapters: the local
// say command and the VOICEVOX-compatible HTTP engines.
package engines

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/speakmcp/speakmcp/internal/subprocess"
	"github.com/speakmcp/speakmcp/tts"
)

// SayEngine speaks through the OS text-to-speech command as a child
// process. The text travels over the child's stdin, never through a
// shell, so arbitrary request text cannot inject a command and argv
// length limits do not apply to long texts.
type SayEngine struct {
	command string
	runner  *subprocess.Runner
}

// NewSay creates the adapter for the macOS say command. command
// overrides the binary name when non-empty (other platforms, tests).
func NewSay(command string, runner *subprocess.Runner) *SayEngine {
	if command == "" {
		command = "say"
	}
	return &SayEngine{command: command, runner: runner}
}

// Backend implements tts.Engine.
func (e *SayEngine) Backend() tts.Backend { return tts.BackendSay }

// Synthesize runs the speech command. Exit status 0 is success. An
// empty speakerID leaves voice selection to the OS. There is no
// separate "is installed" probe: availability is discovered by the
// spawn attempt itself.
//
// With no text operand on the command line, say reads the text from
// stdin.
func (e *SayEngine) Synthesize(ctx context.Context, text, speakerID string, speed float64) error {
	args := make([]string, 0, 4)
	if speakerID != "" {
		args = append(args, "-v", speakerID)
	}
	if speed > 0 {
		args = append(args, "-r", strconv.Itoa(int(speed)))
	}

	err := e.runner.RunWithStdin(ctx, strings.NewReader(text), e.command, args...)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, subprocess.ErrNotFound):
		return tts.NewError(tts.CodeUnavailable, tts.BackendSay,
			e.command+" command not found", err)
	case errors.Is(err, subprocess.ErrTimedOut):
		return tts.NewError(tts.CodeTimeout, tts.BackendSay,
			e.command+" did not finish in time", err)
	default:
		return tts.NewError(tts.CodeUnexpected, tts.BackendSay,
			e.command+" exited with an error", err)
	}
}

// sayVoiceLine matches `say -v ?` output: a voice name column, a
// locale column, then a `# sample` comment.
var sayVoiceLine = regexp.MustCompile(`^(.+?)\s{2,}([A-Za-z_-]+)\s+#`)

// Speakers lists installed voices via `say -v ?`.
func (e *SayEngine) Speakers(ctx context.Context) ([]tts.Speaker, error) {
	out, err := e.runner.Output(ctx, e.command, "-v", "?")
	if err != nil {
		if errors.Is(err, subprocess.ErrNotFound) {
			return nil, tts.NewError(tts.CodeUnavailable, tts.BackendSay,
				e.command+" command not found", err)
		}
		return nil, tts.NewError(tts.CodeUnexpected, tts.BackendSay,
			"unable to list voices", err)
	}

	var speakers []tts.Speaker
	for _, line := range strings.Split(string(out), "\n") {
		m := sayVoiceLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		speakers = append(speakers, tts.Speaker{
			ID:   name,
			Name: name + " (" + m[2] + ")",
		})
	}
	return speakers, nil
}
