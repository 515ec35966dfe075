package teleop

import (
	"encoding/json"
	"log/slog"
	"math"
	"testing"

	"github.com/walkielabs/go-walkie/pkg/geometry"
	"github.com/walkielabs/go-walkie/pkg/robot"
	"github.com/walkielabs/go-walkie/pkg/transport"
)

const floatTolerance = 1e-9

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func identityDelta(group string) []byte {
	data, _ := json.Marshal(deltaMessage{GroupName: group, QW: 1})
	return data
}

func newHandler(t *testing.T) (*VRTeleopHandler, *transport.MockSession, *robot.MockArm) {
	t.Helper()
	session := transport.NewMockSession()
	arm := &robot.MockArm{
		EEPoses: map[string]geometry.RigidPose{
			"left_arm":  geometry.NewRigidPose(0.3, 0.2, 0.5, 0, 0, 0, 1),
			"right_arm": geometry.NewRigidPose(0.3, -0.2, 0.5, 0, 0, 0, 1),
		},
	}
	h := New(session, arm, arm, "walkie.teleop.arm_pose", nil, testLogger())
	return h, session, arm
}

func TestStartStop(t *testing.T) {
	h, session, _ := newHandler(t)

	if h.Active() {
		t.Fatal("handler must start idle")
	}
	if err := h.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !h.Active() {
		t.Fatal("handler must be active after Start")
	}
	if session.Subscribers("walkie.teleop.arm_pose") != 1 {
		t.Fatal("start must subscribe to the delta topic")
	}

	// Start while active is a no-op, not a second subscription.
	if err := h.Start(); err != nil {
		t.Fatalf("second start: %v", err)
	}
	if session.Subscribers("walkie.teleop.arm_pose") != 1 {
		t.Error("start while active must not subscribe again")
	}

	if err := h.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if h.Active() {
		t.Fatal("handler must be idle after Stop")
	}
	if session.Subscribers("walkie.teleop.arm_pose") != 0 {
		t.Error("stop must unsubscribe")
	}

	// Stop while idle is a no-op.
	if err := h.Stop(); err != nil {
		t.Errorf("stop while idle: %v", err)
	}
}

func TestStartFailsWithoutReferencePose(t *testing.T) {
	session := transport.NewMockSession()
	arm := &robot.MockArm{} // no EE poses: every group is unknown
	h := New(session, arm, arm, "walkie.teleop.arm_pose", nil, testLogger())

	if err := h.Start(); err == nil {
		t.Fatal("start must fail when a reference pose cannot be captured")
	}
	if h.Active() {
		t.Error("failed start must leave the handler idle")
	}
}

func TestDelta_ComposedWithReference(t *testing.T) {
	h, session, arm := newHandler(t)
	if err := h.Start(); err != nil {
		t.Fatal(err)
	}

	// An identity controller delta still passes through the frame remap:
	// the composed target must equal reference ∘ remap(identity), which
	// keeps the reference translation and applies the yaw offset rotation.
	session.Deliver("walkie.teleop.arm_pose", identityDelta("left_arm"))

	cmds := arm.Commands()
	if len(cmds) != 1 {
		t.Fatalf("commands: got %d, want 1", len(cmds))
	}
	cmd := cmds[0]
	if cmd.Group != "left_arm" {
		t.Errorf("group: got %q", cmd.Group)
	}
	if cmd.Blocking {
		t.Error("ik commands must be non-blocking")
	}

	want := geometry.Compose(
		geometry.NewRigidPose(0.3, 0.2, 0.5, 0, 0, 0, 1),
		geometry.RemapControllerToRobot(geometry.NewRigidPose(0, 0, 0, 0, 0, 0, 1)),
	)
	for i := 0; i < 3; i++ {
		if math.Abs(cmd.Pose.Translation[i]-want.Translation[i]) > floatTolerance {
			t.Errorf("translation[%d]: got %v, want %v",
				i, cmd.Pose.Translation[i], want.Translation[i])
		}
	}
	if math.Abs(cmd.Pose.Rotation.Real-want.Rotation.Real) > floatTolerance {
		t.Errorf("rotation: got %+v, want %+v", cmd.Pose.Rotation, want.Rotation)
	}
}

func TestDelta_TranslationRotatesIntoReferenceFrame(t *testing.T) {
	session := transport.NewMockSession()
	// Reference pose rotated 90° about z: a remapped +x nudge must move
	// the target along the reference's rotated axis, not the world axis.
	ref := geometry.RigidPose{
		Translation: [3]float64{0.3, 0.2, 0.5},
		Rotation:    geometry.EulerToQuat(0, 0, math.Pi/2),
	}
	arm := &robot.MockArm{EEPoses: map[string]geometry.RigidPose{"left_arm": ref, "right_arm": ref}}
	h := New(session, arm, arm, "t", nil, testLogger())
	if err := h.Start(); err != nil {
		t.Fatal(err)
	}

	data, _ := json.Marshal(deltaMessage{GroupName: "left_arm", X: 0.1, QW: 1})
	session.Deliver("t", data)

	cmds := arm.Commands()
	if len(cmds) != 1 {
		t.Fatalf("commands: got %d, want 1", len(cmds))
	}

	remapped := geometry.RemapControllerToRobot(geometry.NewRigidPose(0.1, 0, 0, 0, 0, 0, 1))
	want := geometry.Compose(ref, remapped)
	got := cmds[0].Pose
	for i := 0; i < 3; i++ {
		if math.Abs(got.Translation[i]-want.Translation[i]) > floatTolerance {
			t.Errorf("translation[%d]: got %v, want %v", i, got.Translation[i], want.Translation[i])
		}
	}
}

func TestDelta_UnknownGroupIgnored(t *testing.T) {
	h, session, arm := newHandler(t)
	if err := h.Start(); err != nil {
		t.Fatal(err)
	}

	session.Deliver("walkie.teleop.arm_pose", identityDelta("torso"))

	if len(arm.Commands()) != 0 {
		t.Error("unknown group must not produce ik commands")
	}
	if !h.Active() {
		t.Error("unknown group must not end the session")
	}
}

func TestDelta_MalformedMessageSurvives(t *testing.T) {
	h, session, arm := newHandler(t)
	if err := h.Start(); err != nil {
		t.Fatal(err)
	}

	session.Deliver("walkie.teleop.arm_pose", []byte("{not json"))
	session.Deliver("walkie.teleop.arm_pose", identityDelta("left_arm"))

	if len(arm.Commands()) != 1 {
		t.Errorf("commands after malformed message: got %d, want 1", len(arm.Commands()))
	}
	if !h.Active() {
		t.Error("malformed message must not end the session")
	}
}

func TestDelta_IKErrorSurvives(t *testing.T) {
	h, session, arm := newHandler(t)
	arm.CmdErr = robot.ErrUnknownGroup
	if err := h.Start(); err != nil {
		t.Fatal(err)
	}

	session.Deliver("walkie.teleop.arm_pose", identityDelta("left_arm"))
	session.Deliver("walkie.teleop.arm_pose", identityDelta("left_arm"))

	if len(arm.Commands()) != 2 {
		t.Errorf("commands: got %d, want both attempts", len(arm.Commands()))
	}
	if !h.Active() {
		t.Error("ik errors must not end the session")
	}
}
