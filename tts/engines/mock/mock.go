// Package mock provides a scriptable engine for dispatcher and server
// tests. It records every call and can simulate latency and failures.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/speakmcp/speakmcp/tts"
)

// Call records the arguments of one Synthesize invocation.
type Call struct {
	Text      string
	SpeakerID string
	Speed     float64
}

// Engine is a test double implementing tts.Engine and
// tts.SpeakerLister.
type Engine struct {
	mu sync.Mutex

	backend tts.Backend

	// Delay is how long each Synthesize blocks, respecting ctx.
	Delay time.Duration
	// Err is returned from every Synthesize when set.
	Err error
	// SpeakerList backs Speakers. SpeakersErr takes precedence.
	SpeakerList []tts.Speaker
	SpeakersErr error

	calls []Call
}

// New creates a mock engine reporting itself as backend.
func New(backend tts.Backend) *Engine {
	return &Engine{backend: backend}
}

// Backend implements tts.Engine.
func (e *Engine) Backend() tts.Backend { return e.backend }

// Synthesize records the call, then honors Delay and Err.
func (e *Engine) Synthesize(ctx context.Context, text, speakerID string, speed float64) error {
	e.mu.Lock()
	e.calls = append(e.calls, Call{Text: text, SpeakerID: speakerID, Speed: speed})
	delay, err := e.Delay, e.Err
	e.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return tts.NewError(tts.CodeTimeout, e.backend, "synthesis interrupted", ctx.Err())
		case <-time.After(delay):
		}
	}
	return err
}

// Speakers implements tts.SpeakerLister.
func (e *Engine) Speakers(ctx context.Context) ([]tts.Speaker, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.SpeakersErr != nil {
		return nil, e.SpeakersErr
	}
	return append([]tts.Speaker(nil), e.SpeakerList...), nil
}

// Calls returns a copy of every recorded Synthesize call.
func (e *Engine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

// CallCount returns how many times Synthesize ran.
func (e *Engine) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

// LastCall returns the most recent call and whether one exists.
func (e *Engine) LastCall() (Call, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.calls) == 0 {
		return Call{}, false
	}
	return e.calls[len(e.calls)-1], true
}
