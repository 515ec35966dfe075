package robot

import (
	"image"
	"sync"

	"github.com/walkielabs/go-walkie/pkg/geometry"
	"github.com/walkielabs/go-walkie/pkg/perception"
)

// MockCamera returns a fixed frame, or Err if set.
type MockCamera struct {
	mu    sync.Mutex
	Frame image.Image
	Err   error
	calls int
}

func (m *MockCamera) Capture() (image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Frame == nil {
		return image.NewRGBA(image.Rect(0, 0, 640, 480)), nil
	}
	return m.Frame, nil
}

func (m *MockCamera) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockLocalizer returns scripted position batches, one per call; the last
// batch repeats. Err, if set, is returned on every call.
type MockLocalizer struct {
	mu      sync.Mutex
	Results [][][3]float64
	Err     error
	calls   int
}

func (m *MockLocalizer) BBoxesToPositions(boxes []perception.BBox) ([][3]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Results) == 0 {
		out := make([][3]float64, len(boxes))
		return out, nil
	}
	i := m.calls - 1
	if i >= len(m.Results) {
		i = len(m.Results) - 1
	}
	return m.Results[i], nil
}

func (m *MockLocalizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// GoToCall records one Navigator.GoTo invocation.
type GoToCall struct {
	X, Y, Heading float64
	Blocking      bool
}

// MockNavigator records goals and stop calls and serves a scripted pose.
type MockNavigator struct {
	mu        sync.Mutex
	CurPose   geometry.Pose2D
	PoseErr   error
	GoToErr   error
	StopErr   error
	goals     []GoToCall
	stopCalls int
}

func (m *MockNavigator) GoTo(x, y, heading float64, blocking bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.goals = append(m.goals, GoToCall{X: x, Y: y, Heading: heading, Blocking: blocking})
	return m.GoToErr
}

func (m *MockNavigator) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls++
	return m.StopErr
}

func (m *MockNavigator) Pose() (geometry.Pose2D, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PoseErr != nil {
		return geometry.Pose2D{}, m.PoseErr
	}
	return m.CurPose, nil
}

func (m *MockNavigator) Goals() []GoToCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]GoToCall, len(m.goals))
	copy(out, m.goals)
	return out
}

func (m *MockNavigator) StopCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalls
}

// ArmCall records one ArmController.GoToPoseQuaternion invocation.
type ArmCall struct {
	Pose     geometry.RigidPose
	Group    string
	Blocking bool
}

// MockArm records IK commands and serves scripted end-effector poses.
type MockArm struct {
	mu      sync.Mutex
	EEPoses map[string]geometry.RigidPose
	CmdErr  error
	PoseErr error
	cmds    []ArmCall
}

func (m *MockArm) GoToPoseQuaternion(p geometry.RigidPose, group string, blocking bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cmds = append(m.cmds, ArmCall{Pose: p, Group: group, Blocking: blocking})
	return m.CmdErr
}

func (m *MockArm) EndEffectorPose(group string) (geometry.RigidPose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PoseErr != nil {
		return geometry.RigidPose{}, m.PoseErr
	}
	p, ok := m.EEPoses[group]
	if !ok {
		return geometry.RigidPose{}, ErrUnknownGroup
	}
	return p, nil
}

func (m *MockArm) Commands() []ArmCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ArmCall, len(m.cmds))
	copy(out, m.cmds)
	return out
}

var (
	_ Camera        = (*MockCamera)(nil)
	_ Localizer     = (*MockLocalizer)(nil)
	_ Navigator     = (*MockNavigator)(nil)
	_ ArmController = (*MockArm)(nil)
	_ PoseSource    = (*MockArm)(nil)
)
