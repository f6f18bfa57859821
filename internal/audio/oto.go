package audio

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoPlayer plays WAV payloads in-process through the system audio
// device. The oto context is created lazily from the first payload's
// format; oto supports a single context per process, so later payloads
// must match that format. The VOICEVOX-compatible engines emit a fixed
// format per engine, which makes this workable; mixed-format setups
// should use the command player instead.
type OtoPlayer struct {
	mu     sync.Mutex
	ctx    *oto.Context
	format Format
}

// NewOtoPlayer creates an in-process player. Device initialization is
// deferred to the first Play call.
func NewOtoPlayer() *OtoPlayer {
	return &OtoPlayer{}
}

// Play decodes wav and blocks until playback finishes or ctx is done.
// Cancellation closes the device player immediately, stopping audible
// output.
func (p *OtoPlayer) Play(ctx context.Context, wav []byte) error {
	format, pcm, err := DecodeWAV(wav)
	if err != nil {
		return fmt.Errorf("unable to decode wav payload: %w", err)
	}

	otoCtx, err := p.contextFor(format)
	if err != nil {
		return err
	}

	player := otoCtx.NewPlayer(bytes.NewReader(pcm))
	defer player.Close()
	player.Play()

	// oto has no completion callback; poll IsPlaying the way the
	// library's own examples do.
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return player.Err()
}

func (p *OtoPlayer) contextFor(format Format) (*oto.Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx != nil {
		if format != p.format {
			return nil, fmt.Errorf("audio device opened at %d Hz/%d ch but payload is %d Hz/%d ch; use the command player for mixed formats",
				p.format.SampleRate, p.format.Channels, format.SampleRate, format.Channels)
		}
		return p.ctx, nil
	}

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open audio device: %w", err)
	}
	<-ready

	p.ctx = otoCtx
	p.format = format
	return otoCtx, nil
}
