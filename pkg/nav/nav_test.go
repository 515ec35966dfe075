package nav

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/walkielabs/go-walkie/pkg/geometry"
	"github.com/walkielabs/go-walkie/pkg/perception"
	"github.com/walkielabs/go-walkie/pkg/robot"
	"github.com/walkielabs/go-walkie/pkg/speech"
)

const floatTolerance = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestStandoffGoal_Oracle(t *testing.T) {
	// Target at (5,0,0), robot at origin, standoff 0.7: the goal sits
	// 0.7m from the target on the robot's side, facing the target.
	x, y, heading := StandoffGoal([3]float64{5, 0, 0}, geometry.Pose2D{}, 0.7)
	if !floatEquals(x, 4.3) || !floatEquals(y, 0) {
		t.Errorf("goal: got (%v, %v), want (4.3, 0)", x, y)
	}
	if !floatEquals(heading, 0) {
		t.Errorf("heading: got %v, want 0", heading)
	}

	// Same geometry with standoff 3.5: ratio 0.7, goal (1.5, 0).
	x, y, _ = StandoffGoal([3]float64{5, 0, 0}, geometry.Pose2D{}, 3.5)
	if !floatEquals(x, 1.5) || !floatEquals(y, 0) {
		t.Errorf("goal: got (%v, %v), want (1.5, 0)", x, y)
	}
}

func TestStandoffGoal_FacesTarget(t *testing.T) {
	// Robot north of the target: the goal heading points south (-pi/2).
	_, _, heading := StandoffGoal([3]float64{0, 0, 0}, geometry.Pose2D{X: 0, Y: 3}, 0.7)
	if !floatEquals(heading, -math.Pi/2) {
		t.Errorf("heading: got %v, want %v", heading, -math.Pi/2)
	}
}

func TestStandoffGoal_RobotOnTarget(t *testing.T) {
	pose := geometry.Pose2D{X: 2, Y: 3, Heading: 1.1}
	x, y, heading := StandoffGoal([3]float64{2, 3, 0}, pose, 0.7)
	if x != pose.X || y != pose.Y || heading != pose.Heading {
		t.Errorf("degenerate goal: got (%v, %v, %v), want hold at current pose", x, y, heading)
	}
}

func personDetection(x1, y1, x2, y2 float64, conf float32) perception.Detection {
	id := 0
	return perception.Detection{
		BBox:       perception.BBox{X1: x1, Y1: y1, X2: x2, Y2: y2},
		ClassID:    &id,
		ClassName:  "person",
		Confidence: &conf,
	}
}

func newFollower(det *perception.MockDetector, loc *robot.MockLocalizer, nav *robot.MockNavigator, listener speech.Listener) *Follower {
	return NewFollower(&robot.MockCamera{}, det, loc, nav, listener, testLogger())
}

func TestFollow_StopsOnVoice(t *testing.T) {
	det := &perception.MockDetector{
		Results: [][]perception.Detection{{personDetection(0, 0, 100, 200, 0.9)}},
	}
	loc := &robot.MockLocalizer{Results: [][][3]float64{{{5, 0, 0}}}}
	nav := &robot.MockNavigator{}
	listener := &speech.MockListener{Transcripts: []string{"please STOP now"}}

	f := newFollower(det, loc, nav, listener)

	start := time.Now()
	status := f.Follow(context.Background())
	elapsed := time.Since(start)

	if status != "stopped by user" {
		t.Errorf("status: got %q, want %q", status, "stopped by user")
	}
	// Liveness: the flag is observed at the top of the next tick.
	if elapsed > 2*time.Second {
		t.Errorf("follow took %v to observe the stop flag", elapsed)
	}
	if nav.StopCalls() == 0 {
		t.Error("stop command must be issued before returning")
	}
}

func TestFollow_IssuesStandoffGoals(t *testing.T) {
	det := &perception.MockDetector{
		Results: [][]perception.Detection{{
			personDetection(0, 0, 100, 200, 0.9),
			personDetection(200, 0, 220, 20, 0.9), // smaller, ignored
		}},
	}
	loc := &robot.MockLocalizer{Results: [][][3]float64{{{5, 0, 0}}}}
	nav := &robot.MockNavigator{}
	// The per-call delay keeps the loop running for a few ticks before
	// the stop word lands.
	listener := &speech.MockListener{
		Transcripts: []string{"keep going", "keep going", "stop"},
		Delay:       150 * time.Millisecond,
	}

	f := newFollower(det, loc, nav, listener)
	status := f.Follow(context.Background())
	if status != "stopped by user" {
		t.Fatalf("status: got %q", status)
	}

	goals := nav.Goals()
	if len(goals) == 0 {
		t.Fatal("no goals issued while following")
	}
	g := goals[0]
	if !floatEquals(g.X, 4.3) || !floatEquals(g.Y, 0) || !floatEquals(g.Heading, 0) {
		t.Errorf("goal: got (%v, %v, %v), want (4.3, 0, 0)", g.X, g.Y, g.Heading)
	}
	if g.Blocking {
		t.Error("follow goals must be non-blocking")
	}
}

func TestFollow_NoPersonStops(t *testing.T) {
	det := &perception.MockDetector{} // nothing detected
	nav := &robot.MockNavigator{}
	listener := &speech.MockListener{
		Transcripts: []string{"", "stop"},
		Delay:       150 * time.Millisecond,
	}

	f := newFollower(det, &robot.MockLocalizer{}, nav, listener)
	f.Follow(context.Background())

	if len(nav.Goals()) != 0 {
		t.Error("no goals expected with no person visible")
	}
	// At least one stop from the no-person ticks plus the exit stop.
	if nav.StopCalls() < 2 {
		t.Errorf("stop calls: got %d, want the base held stopped while no person is visible", nav.StopCalls())
	}
}

func TestFollow_ActuatorErrorTerminates(t *testing.T) {
	det := &perception.MockDetector{
		Results: [][]perception.Detection{{personDetection(0, 0, 100, 200, 0.9)}},
	}
	loc := &robot.MockLocalizer{Results: [][][3]float64{{{5, 0, 0}}}}
	nav := &robot.MockNavigator{GoToErr: errors.New("daemon unreachable")}
	listener := &speech.MockListener{Transcripts: []string{"nothing to report"}}

	f := newFollower(det, loc, nav, listener)
	status := f.Follow(context.Background())

	if !strings.HasPrefix(status, "stopped due to error:") {
		t.Errorf("status: got %q, want an error status", status)
	}
	if !strings.Contains(status, "daemon unreachable") {
		t.Errorf("status must carry the cause: %q", status)
	}
	if nav.StopCalls() == 0 {
		t.Error("stop command must still be attempted after an error")
	}
}

func TestFollow_ListenerErrorsAreRetried(t *testing.T) {
	det := &perception.MockDetector{
		Results: [][]perception.Detection{{personDetection(0, 0, 100, 200, 0.9)}},
	}
	loc := &robot.MockLocalizer{Results: [][][3]float64{{{5, 0, 0}}}}
	nav := &robot.MockNavigator{}
	listener := &speech.MockListener{
		Errs:        []error{errors.New("ws closed"), nil},
		Transcripts: []string{"", "stop"},
	}

	f := newFollower(det, loc, nav, listener)
	status := f.Follow(context.Background())

	if status != "stopped by user" {
		t.Errorf("status: got %q, want voice stop after listener retry", status)
	}
	if listener.Calls() < 2 {
		t.Errorf("listener calls: got %d, want a retry after the error", listener.Calls())
	}
}

func raisedHandPose(x1, y1, x2, y2 float64) perception.BodyPose {
	p := perception.BodyPose{
		BBox:       perception.BBox{X1: x1, Y1: y1, X2: x2, Y2: y2},
		Confidence: 0.9,
	}
	p.Keypoints[perception.KeypointLeftWrist] = perception.Keypoint{
		X: 50, Y: 100, Confidence: 0.9, Index: perception.KeypointLeftWrist,
	}
	p.Keypoints[perception.KeypointLeftShoulder] = perception.Keypoint{
		X: 50, Y: 200, Confidence: 0.9, Index: perception.KeypointLeftShoulder,
	}
	return p
}

func TestApproach_ReachesTarget(t *testing.T) {
	est := &perception.MockPoseEstimator{
		Results: [][]perception.BodyPose{{raisedHandPose(0, 0, 100, 300)}},
	}
	// Target 0.5m away: already within ApproachDistance.
	loc := &robot.MockLocalizer{Results: [][][3]float64{{{0.5, 0, 0}}}}
	nav := &robot.MockNavigator{}

	a := NewApproacher(&robot.MockCamera{}, est, loc, nav, testLogger())
	a.Timeout = 5 * time.Second

	status := a.GoToRaisedHand(context.Background())
	if !strings.Contains(status, "reached person with raised hand") {
		t.Errorf("status: got %q", status)
	}
	if !strings.Contains(status, "0.50m") {
		t.Errorf("status must report the final distance: %q", status)
	}
	if nav.StopCalls() == 0 {
		t.Error("stop command must be issued on success")
	}
}

func TestApproach_IssuesGoalWhenFar(t *testing.T) {
	est := &perception.MockPoseEstimator{
		Results: [][]perception.BodyPose{{raisedHandPose(0, 0, 100, 300)}},
	}
	loc := &robot.MockLocalizer{Results: [][][3]float64{{{5, 0, 0}}}}
	nav := &robot.MockNavigator{}

	a := NewApproacher(&robot.MockCamera{}, est, loc, nav, testLogger())
	a.Timeout = 350 * time.Millisecond

	status := a.GoToRaisedHand(context.Background())
	if status != "timed out, no one detected" {
		// The target never gets closer with a static mock, so the loop
		// must end on the deadline.
		t.Errorf("status: got %q", status)
	}

	goals := nav.Goals()
	if len(goals) == 0 {
		t.Fatal("no goals issued while approaching")
	}
	g := goals[0]
	if !floatEquals(g.X, 4.3) || !floatEquals(g.Y, 0) {
		t.Errorf("goal: got (%v, %v), want (4.3, 0)", g.X, g.Y)
	}
	if g.Blocking {
		t.Error("approach goals must be non-blocking")
	}
}

func TestApproach_TimesOutWithNoOne(t *testing.T) {
	est := &perception.MockPoseEstimator{} // nobody
	nav := &robot.MockNavigator{}

	a := NewApproacher(&robot.MockCamera{}, est, &robot.MockLocalizer{}, nav, testLogger())
	a.Timeout = 250 * time.Millisecond

	start := time.Now()
	status := a.GoToRaisedHand(context.Background())
	elapsed := time.Since(start)

	if status != "timed out, no one detected" {
		t.Errorf("status: got %q", status)
	}
	if elapsed > 2*time.Second {
		t.Errorf("timeout took %v", elapsed)
	}
	if nav.StopCalls() == 0 {
		t.Error("base must be stopped while nobody qualifies")
	}
}

func TestApproach_IgnoresLoweredHands(t *testing.T) {
	lowered := raisedHandPose(0, 0, 100, 300)
	lowered.Keypoints[perception.KeypointLeftWrist].Y = 250 // below shoulder

	est := &perception.MockPoseEstimator{
		Results: [][]perception.BodyPose{{lowered}},
	}
	nav := &robot.MockNavigator{}

	a := NewApproacher(&robot.MockCamera{}, est, &robot.MockLocalizer{}, nav, testLogger())
	a.Timeout = 250 * time.Millisecond

	status := a.GoToRaisedHand(context.Background())
	if status != "timed out, no one detected" {
		t.Errorf("status: got %q", status)
	}
	if len(nav.Goals()) != 0 {
		t.Error("lowered hand must not produce goals")
	}
}
