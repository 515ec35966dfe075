// Package geometry provides the pure math used by the navigation and
// teleoperation subsystems: 2D frame transforms between the robot's local
// frame and the world frame, 3D point distance, and rigid-pose composition
// (translation + unit quaternion).
//
// Everything here is stateless and has no failure modes.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Pose2D is the robot's pose in the world frame. Heading is in radians,
// 0 = forward, positive = counterclockwise.
type Pose2D struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
}

// LocalToWorld converts an offset expressed in the robot's local frame
// (dx forward, dy left, dheading counterclockwise) to a world-frame pose.
// The local offset is rotated by the robot's heading and added to its
// position; headings sum.
func LocalToWorld(pose Pose2D, dx, dy, dheading float64) Pose2D {
	sin, cos := math.Sincos(pose.Heading)
	return Pose2D{
		X:       pose.X + dx*cos - dy*sin,
		Y:       pose.Y + dx*sin + dy*cos,
		Heading: pose.Heading + dheading,
	}
}

// Distance2D returns the planar Euclidean distance between two poses.
func Distance2D(a, b Pose2D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Distance3 returns the Euclidean distance between two 3D points.
func Distance3(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// RigidPose is a 3D translation plus a unit quaternion rotation.
type RigidPose struct {
	Translation [3]float64
	Rotation    quat.Number
}

// IdentityPose returns the identity rigid pose (zero translation, unit rotation).
func IdentityPose() RigidPose {
	return RigidPose{Rotation: quat.Number{Real: 1}}
}

// NewRigidPose builds a RigidPose from a translation and quaternion
// components in (x, y, z, w) order, the order used on the wire.
func NewRigidPose(x, y, z, qx, qy, qz, qw float64) RigidPose {
	return RigidPose{
		Translation: [3]float64{x, y, z},
		Rotation:    quat.Number{Real: qw, Imag: qx, Jmag: qy, Kmag: qz},
	}
}

// RotateVector rotates vector v by unit quaternion q (q * v * q⁻¹).
func RotateVector(v [3]float64, q quat.Number) [3]float64 {
	vq := quat.Number{Imag: v[0], Jmag: v[1], Kmag: v[2]}
	r := quat.Mul(quat.Mul(q, vq), quat.Conj(q))
	return [3]float64{r.Imag, r.Jmag, r.Kmag}
}

// Compose applies child on top of parent: the child translation is rotated
// into the parent frame and added, rotations multiply. Associative up to
// floating-point tolerance.
func Compose(parent, child RigidPose) RigidPose {
	rotated := RotateVector(child.Translation, parent.Rotation)
	return RigidPose{
		Translation: [3]float64{
			parent.Translation[0] + rotated[0],
			parent.Translation[1] + rotated[1],
			parent.Translation[2] + rotated[2],
		},
		Rotation: quat.Mul(parent.Rotation, child.Rotation),
	}
}

// EulerToQuat converts roll, pitch, yaw (radians, ZYX order) to a unit
// quaternion.
func EulerToQuat(roll, pitch, yaw float64) quat.Number {
	sr, cr := math.Sincos(roll / 2)
	sp, cp := math.Sincos(pitch / 2)
	sy, cy := math.Sincos(yaw / 2)
	return quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}
}

// RemapControllerToRobot converts a VR controller delta into the robot's
// reference frame: controller X maps to robot -X, controller Z to robot -Y,
// controller Y to robot Z, followed by a fixed -90° yaw offset applied by
// quaternion composition.
//
// This mapping is a hard contract with the controller firmware. Do not
// change it without a matching firmware-side change.
func RemapControllerToRobot(delta RigidPose) RigidPose {
	t := delta.Translation
	q := delta.Rotation

	remapped := quat.Number{
		Real: q.Real,
		Imag: -q.Imag,
		Jmag: -q.Kmag,
		Kmag: q.Jmag,
	}
	offset := EulerToQuat(0, 0, -math.Pi/2)

	return RigidPose{
		Translation: [3]float64{-t[0], -t[2], t[1]},
		Rotation:    quat.Mul(remapped, offset),
	}
}
