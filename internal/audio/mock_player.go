package audio

import (
	"context"
	"sync"
	"time"
)

// MockPlayer records Play calls for tests. It can simulate playback
// latency and scripted failures.
type MockPlayer struct {
	mu sync.Mutex

	// Delay is how long each Play blocks (respecting ctx).
	Delay time.Duration
	// Err is returned from every Play when set.
	Err error

	payloads [][]byte
}

// NewMockPlayer creates a mock that succeeds instantly.
func NewMockPlayer() *MockPlayer { return &MockPlayer{} }

// Play records the payload and honors Delay/Err.
func (m *MockPlayer) Play(ctx context.Context, wav []byte) error {
	m.mu.Lock()
	buf := make([]byte, len(wav))
	copy(buf, wav)
	m.payloads = append(m.payloads, buf)
	delay, err := m.Delay, m.Err
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

// Calls returns how many times Play was invoked.
func (m *MockPlayer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payloads)
}

// LastPayload returns the most recent payload, or nil.
func (m *MockPlayer) LastPayload() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.payloads) == 0 {
		return nil
	}
	return m.payloads[len(m.payloads)-1]
}
