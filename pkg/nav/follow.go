package nav

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/walkielabs/go-walkie/pkg/perception"
	"github.com/walkielabs/go-walkie/pkg/robot"
	"github.com/walkielabs/go-walkie/pkg/speech"
)

// listenerJoinTimeout bounds the wait for the voice goroutine on exit. A
// listener blocked inside a capture is abandoned; it exits after its
// current window.
const listenerJoinTimeout = listenWindow + 2*time.Second

// Follower tracks the largest visible person and keeps FollowStopDistance
// from them until the word "stop" is heard or an actuator fails.
type Follower struct {
	camera    robot.Camera
	detector  perception.ObjectDetector
	localizer robot.Localizer
	navigator robot.Navigator
	listener  speech.Listener
	logger    *slog.Logger
}

// NewFollower wires the follow loop's collaborators.
func NewFollower(
	camera robot.Camera,
	det perception.ObjectDetector,
	localizer robot.Localizer,
	navigator robot.Navigator,
	listener speech.Listener,
	logger *slog.Logger,
) *Follower {
	return &Follower{
		camera:    camera,
		detector:  det,
		localizer: localizer,
		navigator: navigator,
		listener:  listener,
		logger:    logger.With("component", "nav.follow"),
	}
}

// Follow blocks until stopped by voice, by ctx, or by an actuator error,
// and returns a human-readable status. A stop command is always attempted
// before returning.
func (f *Follower) Follow(ctx context.Context) string {
	var stopFlag atomic.Bool

	listenCtx, cancelListen := context.WithCancel(ctx)
	defer cancelListen()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.listenForStop(listenCtx, &stopFlag)
	}()

	status := f.run(ctx, &stopFlag)

	if err := f.navigator.Stop(); err != nil {
		f.logger.Warn("failed to stop navigation on exit", "error", err)
	}

	cancelListen()
	joined := make(chan struct{})
	go func() {
		wg.Wait()
		close(joined)
	}()
	select {
	case <-joined:
	case <-time.After(listenerJoinTimeout):
		f.logger.Warn("voice listener did not exit in time, abandoning")
	}

	return status
}

// run is the main tick loop; it returns the status string.
func (f *Follower) run(ctx context.Context, stopFlag *atomic.Bool) string {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		if stopFlag.Load() {
			return "stopped by user"
		}
		select {
		case <-ctx.Done():
			return "stopped by user"
		case <-ticker.C:
		}

		if err := f.tick(); err != nil {
			return fmt.Sprintf("stopped due to error: %v", err)
		}
	}
}

// tick runs one perceive→localize→command pass. Perception failures are
// logged and skip the tick; actuator failures are returned and terminate
// the loop.
func (f *Follower) tick() error {
	frame, err := f.camera.Capture()
	if err != nil {
		f.logger.Warn("capture failed, skipping tick", "error", err)
		return nil
	}

	detections, err := f.detector.DetectObjects(frame)
	if err != nil {
		f.logger.Warn("detection failed, skipping tick", "error", err)
		return nil
	}

	people := perception.FilterClass(detections, "person")
	if len(people) == 0 {
		if err := f.navigator.Stop(); err != nil {
			return fmt.Errorf("stop command failed: %w", err)
		}
		return nil
	}

	target := perception.LargestBBox(people)
	if target == nil {
		return nil
	}

	positions, err := f.localizer.BBoxesToPositions([]perception.BBox{target.BBox})
	if err != nil {
		f.logger.Warn("localization failed, skipping tick", "error", err)
		return nil
	}
	if len(positions) == 0 {
		return nil
	}

	pose, err := f.navigator.Pose()
	if err != nil {
		return fmt.Errorf("pose read failed: %w", err)
	}

	x, y, heading := StandoffGoal(positions[0], pose, FollowStopDistance)
	if err := f.navigator.GoTo(x, y, heading, false); err != nil {
		return fmt.Errorf("goal command failed: %w", err)
	}
	return nil
}

// listenForStop performs bounded voice captures until ctx is cancelled,
// setting stopFlag the moment "stop" appears in a transcript. Listener
// errors are logged and retried after a short backoff.
func (f *Follower) listenForStop(ctx context.Context, stopFlag *atomic.Bool) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		transcript, err := f.listener.Listen(listenWindow, listenMinSpeech)
		if err != nil {
			if err != speech.ErrNoSpeech {
				f.logger.Warn("voice capture failed, retrying", "error", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(listenRetryBackoff):
			}
			continue
		}

		if strings.Contains(strings.ToLower(transcript), "stop") {
			f.logger.Info("stop command heard", "transcript", transcript)
			stopFlag.Store(true)
			return
		}
	}
}
