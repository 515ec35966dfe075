package transport

import (
	"fmt"
	"sync"
)

// MockSession is an in-process Session for tests. Deliver pushes a message
// to every handler subscribed to the topic.
type MockSession struct {
	mu        sync.Mutex
	handlers  map[string][]func([]byte)
	published map[string][][]byte
	closed    bool
	SubErr    error
}

// NewMockSession creates an empty in-process session.
func NewMockSession() *MockSession {
	return &MockSession{
		handlers:  make(map[string][]func([]byte)),
		published: make(map[string][][]byte),
	}
}

func (m *MockSession) Publish(topic string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("session closed")
	}
	m.published[topic] = append(m.published[topic], data)
	return nil
}

func (m *MockSession) Subscribe(topic string, handler func(data []byte)) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SubErr != nil {
		return nil, m.SubErr
	}
	if m.closed {
		return nil, fmt.Errorf("session closed")
	}
	m.handlers[topic] = append(m.handlers[topic], handler)
	return &mockSubscription{session: m, topic: topic}, nil
}

func (m *MockSession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.handlers = make(map[string][]func([]byte))
	return nil
}

// Deliver synchronously invokes every handler subscribed to topic.
func (m *MockSession) Deliver(topic string, data []byte) {
	m.mu.Lock()
	handlers := append([]func([]byte){}, m.handlers[topic]...)
	m.mu.Unlock()

	for _, h := range handlers {
		h(data)
	}
}

// Published returns everything published to topic.
func (m *MockSession) Published(topic string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.published[topic]))
	copy(out, m.published[topic])
	return out
}

// Subscribers returns the number of active handlers on topic.
func (m *MockSession) Subscribers(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handlers[topic])
}

type mockSubscription struct {
	session *MockSession
	topic   string
}

func (s *mockSubscription) Unsubscribe() error {
	s.session.mu.Lock()
	defer s.session.mu.Unlock()
	delete(s.session.handlers, s.topic)
	return nil
}

var _ Session = (*MockSession)(nil)
