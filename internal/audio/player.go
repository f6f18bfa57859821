// Package audio plays synthesized WAV payloads on the local machine.
// Two implementations exist: an external player command run as a
// scoped subprocess (the default) and an in-process player on oto.
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/speakmcp/speakmcp/internal/subprocess"
)

// Player plays one WAV payload to completion or until the context is
// done, whichever comes first. Cancellation must stop the audio: no
// orphaned playback survives a timed-out request.
type Player interface {
	Play(ctx context.Context, wav []byte) error
}

// ErrNoPlayer means no playback command exists for this platform.
var ErrNoPlayer = errors.New("no audio player available on this platform")

// CommandPlayer plays audio through an external player binary. The
// payload is written to a temp file, the player runs under the request
// context, and the file is removed afterwards.
type CommandPlayer struct {
	command string
	args    []string
	runner  *subprocess.Runner
}

// NewCommandPlayer builds a player around the platform's default
// command: afplay on darwin, aplay on linux, PowerShell's SoundPlayer
// on windows. command overrides the default when non-empty.
func NewCommandPlayer(command string, runner *subprocess.Runner) (*CommandPlayer, error) {
	if command != "" {
		return &CommandPlayer{command: command, runner: runner}, nil
	}
	switch runtime.GOOS {
	case "darwin":
		return &CommandPlayer{command: "afplay", runner: runner}, nil
	case "linux":
		return &CommandPlayer{command: "aplay", args: []string{"-q"}, runner: runner}, nil
	case "windows":
		return &CommandPlayer{command: "powershell", args: []string{"-NoProfile", "-Command"}, runner: runner}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoPlayer, runtime.GOOS)
	}
}

// Command returns the player binary in use.
func (p *CommandPlayer) Command() string { return p.command }

// Play writes wav to a temp file and hands it to the player command.
func (p *CommandPlayer) Play(ctx context.Context, wav []byte) error {
	if len(wav) == 0 {
		return errors.New("empty audio payload")
	}

	f, err := os.CreateTemp("", "speakmcp-*.wav")
	if err != nil {
		return fmt.Errorf("unable to create temp audio file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(wav); err != nil {
		f.Close()
		return fmt.Errorf("unable to write temp audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("unable to close temp audio file: %w", err)
	}

	args := append([]string{}, p.args...)
	if p.command == "powershell" {
		args = append(args, fmt.Sprintf("(New-Object System.Media.SoundPlayer '%s').PlaySync()", path))
	} else {
		args = append(args, path)
	}
	return p.runner.Run(ctx, p.command, args...)
}
