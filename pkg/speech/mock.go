package speech

import (
	"sync"
	"time"
)

// MockListener serves scripted transcripts, one per call; the last entry
// repeats. An empty script returns ErrNoSpeech. Errs, when non-nil at the
// call index, is returned instead of the transcript.
type MockListener struct {
	mu          sync.Mutex
	Transcripts []string
	Errs        []error
	Delay       time.Duration
	calls       int
}

func (m *MockListener) Listen(timeout, minDuration time.Duration) (string, error) {
	m.mu.Lock()
	i := m.calls
	m.calls++
	delay := m.Delay
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if i < len(m.Errs) && m.Errs[i] != nil {
		return "", m.Errs[i]
	}
	if len(m.Transcripts) == 0 {
		return "", ErrNoSpeech
	}
	if i >= len(m.Transcripts) {
		i = len(m.Transcripts) - 1
	}
	return m.Transcripts[i], nil
}

func (m *MockListener) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ Listener = (*MockListener)(nil)
