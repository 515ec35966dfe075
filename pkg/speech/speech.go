// Package speech provides access to the robot's speech-to-text service.
package speech

import (
	"errors"
	"time"
)

// Sentinel errors for speech operations.
var (
	// ErrNoSpeech is returned when the listen window elapses without a
	// usable transcript.
	ErrNoSpeech = errors.New("speech: no speech detected")

	// ErrClosed is returned when listening on a closed transcriber.
	ErrClosed = errors.New("speech: transcriber closed")
)

// Listener captures one utterance from the robot's microphone and returns
// its transcript. timeout bounds the whole listen window; minDuration is the
// minimum amount of audio the service should accumulate before transcribing.
// Implementations block until a transcript arrives or the window elapses.
type Listener interface {
	Listen(timeout, minDuration time.Duration) (string, error)
}
