package speech

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second

	// Grace added on top of the caller's listen window before the read
	// deadline fires, covering transcription latency after capture ends.
	readGrace = 2 * time.Second
)

// WSTranscriber is a WebSocket client for the robot's streaming STT service.
// Each Listen call opens a fresh session: the service captures microphone
// audio on its side and streams partial and final transcripts back.
type WSTranscriber struct {
	url    string
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewWSTranscriber creates a transcriber for the given ws:// endpoint.
func NewWSTranscriber(url string, logger *slog.Logger) *WSTranscriber {
	return &WSTranscriber{
		url:    url,
		logger: logger.With("component", "speech.ws"),
	}
}

// listenRequest opens an STT session on the service side.
type listenRequest struct {
	Type          string `json:"type"`
	MaxDurationMS int64  `json:"max_duration_ms"`
	MinDurationMS int64  `json:"min_duration_ms"`
}

// transcriptMessage is one server frame. Partial frames carry interim text;
// the final frame ends the session.
type transcriptMessage struct {
	Type string `json:"type"` // "partial" | "final" | "error"
	Text string `json:"text"`
}

// Listen opens a session, waits up to timeout for speech, and returns the
// final transcript. Returns ErrNoSpeech when the window elapses with
// nothing transcribed.
func (t *WSTranscriber) Listen(timeout, minDuration time.Duration) (string, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return "", ErrClosed
	}
	t.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.Dial(t.url, nil)
	if err != nil {
		if resp != nil {
			return "", fmt.Errorf("stt dial failed (status %d): %w", resp.StatusCode, err)
		}
		return "", fmt.Errorf("stt dial failed: %w", err)
	}
	defer conn.Close()

	req := listenRequest{
		Type:          "listen",
		MaxDurationMS: timeout.Milliseconds(),
		MinDurationMS: minDuration.Milliseconds(),
	}
	if err := conn.WriteJSON(req); err != nil {
		return "", fmt.Errorf("failed to send listen request: %w", err)
	}

	deadline := time.Now().Add(timeout + readGrace)
	if err := conn.SetReadDeadline(deadline); err != nil {
		return "", fmt.Errorf("failed to set read deadline: %w", err)
	}

	var lastPartial string
	for {
		var msg transcriptMessage
		if err := conn.ReadJSON(&msg); err != nil {
			// Deadline hit with only partial text: treat the partial
			// as the best available transcript.
			if strings.TrimSpace(lastPartial) != "" {
				t.logger.Warn("stt session ended early, using partial transcript",
					"error", err)
				return lastPartial, nil
			}
			return "", fmt.Errorf("stt read failed: %w", err)
		}

		switch msg.Type {
		case "partial":
			lastPartial = msg.Text
		case "final":
			if strings.TrimSpace(msg.Text) == "" {
				return "", ErrNoSpeech
			}
			return msg.Text, nil
		case "error":
			return "", fmt.Errorf("stt service error: %s", msg.Text)
		default:
			t.logger.Warn("unknown stt message type", "type", msg.Type)
		}
	}
}

// Close marks the transcriber closed; subsequent Listen calls fail fast.
func (t *WSTranscriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

var _ Listener = (*WSTranscriber)(nil)
