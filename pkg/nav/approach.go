package nav

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/walkielabs/go-walkie/pkg/geometry"
	"github.com/walkielabs/go-walkie/pkg/perception"
	"github.com/walkielabs/go-walkie/pkg/robot"
)

// Approacher drives toward the person with a raised hand. The search is
// time-bounded by RaisedHandTimeout; there is no external cancel beyond ctx.
type Approacher struct {
	camera    robot.Camera
	estimator perception.PoseEstimator
	localizer robot.Localizer
	navigator robot.Navigator
	logger    *slog.Logger

	// Timeout overrides RaisedHandTimeout when set; used by tests.
	Timeout time.Duration
}

// NewApproacher wires the approach loop's collaborators.
func NewApproacher(
	camera robot.Camera,
	estimator perception.PoseEstimator,
	localizer robot.Localizer,
	navigator robot.Navigator,
	logger *slog.Logger,
) *Approacher {
	return &Approacher{
		camera:    camera,
		estimator: estimator,
		localizer: localizer,
		navigator: navigator,
		logger:    logger.With("component", "nav.approach"),
	}
}

// GoToRaisedHand blocks until the robot is within ApproachDistance of a
// person with a raised hand, the timeout elapses, or an actuator fails.
// Returns a human-readable status. A stop command is always attempted
// before returning.
func (a *Approacher) GoToRaisedHand(ctx context.Context) string {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = RaisedHandTimeout
	}
	deadline := time.Now().Add(timeout)

	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	status := a.run(ctx, deadline, ticker)

	if err := a.navigator.Stop(); err != nil {
		a.logger.Warn("failed to stop navigation on exit", "error", err)
	}
	return status
}

func (a *Approacher) run(ctx context.Context, deadline time.Time, ticker *time.Ticker) string {
	for {
		if time.Now().After(deadline) {
			return "timed out, no one detected"
		}
		select {
		case <-ctx.Done():
			return "cancelled"
		case <-ticker.C:
		}

		done, status, err := a.tick()
		if err != nil {
			return fmt.Sprintf("stopped due to error: %v", err)
		}
		if done {
			return status
		}
	}
}

// tick runs one pass. done reports loop completion with its status;
// err terminates the loop as a failure.
func (a *Approacher) tick() (done bool, status string, err error) {
	frame, err := a.camera.Capture()
	if err != nil {
		a.logger.Warn("capture failed, skipping tick", "error", err)
		return false, "", nil
	}

	poses, err := a.estimator.EstimatePoses(frame)
	if err != nil {
		a.logger.Warn("pose estimation failed, skipping tick", "error", err)
		return false, "", nil
	}

	var raised []perception.BodyPose
	for _, p := range poses {
		if p.HasRaisedHand() {
			raised = append(raised, p)
		}
	}
	if len(raised) == 0 {
		if err := a.navigator.Stop(); err != nil {
			return false, "", fmt.Errorf("stop command failed: %w", err)
		}
		return false, "", nil
	}

	target := perception.LargestPose(raised)
	if target == nil {
		return false, "", nil
	}

	positions, err := a.localizer.BBoxesToPositions([]perception.BBox{target.BBox})
	if err != nil {
		a.logger.Warn("localization failed, skipping tick", "error", err)
		return false, "", nil
	}
	if len(positions) == 0 {
		return false, "", nil
	}

	pose, err := a.navigator.Pose()
	if err != nil {
		return false, "", fmt.Errorf("pose read failed: %w", err)
	}

	target2D := geometry.Pose2D{X: positions[0][0], Y: positions[0][1]}
	dist := geometry.Distance2D(pose, target2D)
	if dist <= ApproachDistance {
		if err := a.navigator.Stop(); err != nil {
			return false, "", fmt.Errorf("stop command failed: %w", err)
		}
		return true, fmt.Sprintf("reached person with raised hand (%.2fm away)", dist), nil
	}

	x, y, heading := StandoffGoal(positions[0], pose, ApproachDistance)
	if err := a.navigator.GoTo(x, y, heading, false); err != nil {
		return false, "", fmt.Errorf("goal command failed: %w", err)
	}
	return false, "", nil
}
