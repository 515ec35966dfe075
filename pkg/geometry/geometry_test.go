package geometry

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/num/quat"
)

const floatTolerance = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func poseEquals(a, b RigidPose) bool {
	for i := 0; i < 3; i++ {
		if !floatEquals(a.Translation[i], b.Translation[i]) {
			return false
		}
	}
	return floatEquals(a.Rotation.Real, b.Rotation.Real) &&
		floatEquals(a.Rotation.Imag, b.Rotation.Imag) &&
		floatEquals(a.Rotation.Jmag, b.Rotation.Jmag) &&
		floatEquals(a.Rotation.Kmag, b.Rotation.Kmag)
}

func TestLocalToWorld_Identity(t *testing.T) {
	pose := Pose2D{X: 1, Y: 2, Heading: 0}
	got := LocalToWorld(pose, 3, 0, 0)

	if !floatEquals(got.X, 4) || !floatEquals(got.Y, 2) || !floatEquals(got.Heading, 0) {
		t.Errorf("LocalToWorld at heading 0: got %+v, want {4 2 0}", got)
	}
}

func TestLocalToWorld_Rotated(t *testing.T) {
	// Facing +Y (90° CCW): 1m forward lands at +Y, 1m left lands at -X.
	pose := Pose2D{X: 0, Y: 0, Heading: math.Pi / 2}

	forward := LocalToWorld(pose, 1, 0, 0)
	if !floatEquals(forward.X, 0) || !floatEquals(forward.Y, 1) {
		t.Errorf("forward at 90°: got (%v, %v), want (0, 1)", forward.X, forward.Y)
	}

	left := LocalToWorld(pose, 0, 1, 0)
	if !floatEquals(left.X, -1) || !floatEquals(left.Y, 0) {
		t.Errorf("left at 90°: got (%v, %v), want (-1, 0)", left.X, left.Y)
	}

	turned := LocalToWorld(pose, 0, 0, 0.5)
	if !floatEquals(turned.Heading, math.Pi/2+0.5) {
		t.Errorf("heading sum: got %v, want %v", turned.Heading, math.Pi/2+0.5)
	}
}

func TestDistance2D(t *testing.T) {
	a := Pose2D{X: 0, Y: 0, Heading: math.Pi}
	b := Pose2D{X: 3, Y: 4, Heading: 0}
	if d := Distance2D(a, b); !floatEquals(d, 5) {
		t.Errorf("Distance2D: got %v, want 5", d)
	}
	if d := Distance2D(a, a); !floatEquals(d, 0) {
		t.Errorf("Distance2D of a point with itself: got %v, want 0", d)
	}
}

func TestDistance3(t *testing.T) {
	a := [3]float64{1, 2, 3}
	b := [3]float64{4, 6, 3}
	if d := Distance3(a, b); !floatEquals(d, 5) {
		t.Errorf("Distance3: got %v, want 5", d)
	}
}

func TestCompose_Identity(t *testing.T) {
	p := NewRigidPose(1, 2, 3, 0, 0, 0.7071067811865476, 0.7071067811865476)

	if got := Compose(p, IdentityPose()); !poseEquals(got, p) {
		t.Errorf("Compose(p, I): got %+v, want %+v", got, p)
	}
	if got := Compose(IdentityPose(), p); !poseEquals(got, p) {
		t.Errorf("Compose(I, p): got %+v, want %+v", got, p)
	}
}

func TestCompose_TranslationRotated(t *testing.T) {
	// Parent rotated 90° about Z: child's +X becomes parent's +Y.
	parent := RigidPose{
		Translation: [3]float64{1, 0, 0},
		Rotation:    EulerToQuat(0, 0, math.Pi/2),
	}
	child := RigidPose{
		Translation: [3]float64{1, 0, 0},
		Rotation:    quat.Number{Real: 1},
	}

	got := Compose(parent, child)
	want := [3]float64{1, 1, 0}
	for i := 0; i < 3; i++ {
		if math.Abs(got.Translation[i]-want[i]) > 1e-12 {
			t.Fatalf("translation: got %v, want %v", got.Translation, want)
		}
	}
}

func TestCompose_Associativity(t *testing.T) {
	poses := []RigidPose{
		{Translation: [3]float64{0.3, -1.2, 0.8}, Rotation: EulerToQuat(0.1, 0.2, 0.3)},
		{Translation: [3]float64{-2.0, 0.5, 1.1}, Rotation: EulerToQuat(-0.7, 0.4, 1.9)},
		{Translation: [3]float64{0.05, 3.3, -0.6}, Rotation: EulerToQuat(2.1, -1.0, 0.02)},
		{Translation: [3]float64{1.0, 1.0, 1.0}, Rotation: EulerToQuat(-0.3, 0.9, -2.5)},
	}

	for i := 0; i < len(poses); i++ {
		for j := 0; j < len(poses); j++ {
			for k := 0; k < len(poses); k++ {
				a, b, c := poses[i], poses[j], poses[k]
				left := Compose(Compose(a, b), c)
				right := Compose(a, Compose(b, c))
				if !poseEquals(left, right) {
					t.Fatalf("associativity violated for (%d,%d,%d): %+v vs %+v",
						i, j, k, left, right)
				}
			}
		}
	}
}

func TestRotateVector_UnitNorm(t *testing.T) {
	q := EulerToQuat(0.4, -0.8, 1.3)
	v := [3]float64{1, 2, 3}
	r := RotateVector(v, q)

	lenBefore := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	lenAfter := math.Sqrt(r[0]*r[0] + r[1]*r[1] + r[2]*r[2])
	if !floatEquals(lenBefore, lenAfter) {
		t.Errorf("rotation changed vector length: %v -> %v", lenBefore, lenAfter)
	}
}

func TestRemapControllerToRobot_AxisPermutation(t *testing.T) {
	// Pure translation, identity rotation: check the fixed axis contract
	// (controller X -> -X, controller Z -> -Y, controller Y -> Z).
	delta := NewRigidPose(1, 2, 3, 0, 0, 0, 1)
	got := RemapControllerToRobot(delta)

	want := [3]float64{-1, -3, 2}
	for i := 0; i < 3; i++ {
		if !floatEquals(got.Translation[i], want[i]) {
			t.Fatalf("translation remap: got %v, want %v", got.Translation, want)
		}
	}

	// Identity controller rotation picks up exactly the -90° yaw offset.
	offset := EulerToQuat(0, 0, -math.Pi/2)
	if !floatEquals(got.Rotation.Real, offset.Real) || !floatEquals(got.Rotation.Kmag, offset.Kmag) {
		t.Errorf("yaw offset: got %+v, want %+v", got.Rotation, offset)
	}
}

func TestRemapControllerToRobot_PreservesUnitQuaternion(t *testing.T) {
	delta := RigidPose{Rotation: EulerToQuat(0.2, 0.5, -1.1)}
	got := RemapControllerToRobot(delta)

	q := got.Rotation
	norm := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if !floatEquals(norm, 1) {
		t.Errorf("remapped quaternion not unit: norm=%v", norm)
	}
}
