// Package robot defines the contracts to the walkie robot stack: camera
// frames, bbox-to-world localization, base navigation, and arm control.
//
// This package follows the Interface Segregation Principle (ISP) by defining
// small, focused interfaces that can be composed as needed. Consumers should
// depend only on the interfaces they actually use.
package robot

import (
	"image"

	"github.com/walkielabs/go-walkie/pkg/geometry"
	"github.com/walkielabs/go-walkie/pkg/perception"
)

// Camera provides single-frame capture from the robot's RGB camera.
type Camera interface {
	Capture() (image.Image, error)
}

// Localizer projects pixel-space bounding boxes into 3D world coordinates
// using the robot's depth and localization stack. The result slice is
// parallel to the input: positions[i] corresponds to boxes[i].
// Implementations return ErrLocalizationTimeout when the stack does not
// answer in time; callers treat that as "this frame has no positions",
// not as a fatal error.
type Localizer interface {
	BBoxesToPositions(boxes []perception.BBox) ([][3]float64, error)
}

// Navigator provides base movement control.
// GoTo with blocking=false queues the goal and returns immediately; the
// reactive loops re-issue goals every tick, so later goals supersede
// earlier ones.
type Navigator interface {
	GoTo(x, y, heading float64, blocking bool) error
	Stop() error
	Pose() (geometry.Pose2D, error)
}

// ArmController sends a Cartesian end-effector target to the arm IK solver.
// group names a kinematic group such as "left_arm" or "right_arm".
type ArmController interface {
	GoToPoseQuaternion(p geometry.RigidPose, group string, blocking bool) error
}

// PoseSource reads back the current end-effector pose of a kinematic group.
type PoseSource interface {
	EndEffectorPose(group string) (geometry.RigidPose, error)
}

// Ensure the HTTP client implements every role it claims.
var (
	_ Navigator     = (*HTTPClient)(nil)
	_ Localizer     = (*HTTPClient)(nil)
	_ ArmController = (*HTTPClient)(nil)
	_ PoseSource    = (*HTTPClient)(nil)
)
