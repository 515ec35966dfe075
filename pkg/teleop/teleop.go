// Package teleop bridges VR controller deltas to arm inverse-kinematics
// commands. Controller poses arrive over the transport as deltas relative
// to where each controller was when the session started; each delta is
// remapped into the robot frame and composed with the arm's reference
// end-effector pose captured at session start.
//
// The handler borrows the transport session: Start subscribes and Stop
// unsubscribes, but the session itself stays open so it can serve later
// sessions or other subscribers. Whoever created the session closes it,
// as cmd/teleop does on shutdown.
package teleop

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/walkielabs/go-walkie/pkg/geometry"
	"github.com/walkielabs/go-walkie/pkg/robot"
	"github.com/walkielabs/go-walkie/pkg/transport"
)

// DefaultGroups maps kinematic group names to their end-effector links.
var DefaultGroups = map[string]string{
	"left_arm":  "left_link7",
	"right_arm": "right_link7",
}

// deltaMessage is one controller update off the wire.
type deltaMessage struct {
	GroupName string  `json:"group_name"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	QX        float64 `json:"qx"`
	QY        float64 `json:"qy"`
	QZ        float64 `json:"qz"`
	QW        float64 `json:"qw"`
}

// VRTeleopHandler owns one teleoperation session: Idle until Start, Active
// until Stop. Start while Active is a no-op.
type VRTeleopHandler struct {
	session transport.Session
	arm     robot.ArmController
	poses   robot.PoseSource
	topic   string
	groups  map[string]string
	logger  *slog.Logger

	mu        sync.Mutex
	active    bool
	reference map[string]geometry.RigidPose
	sub       transport.Subscription
}

// New creates an idle teleop handler listening on topic for controller
// deltas. A nil groups map falls back to DefaultGroups.
func New(
	session transport.Session,
	arm robot.ArmController,
	poses robot.PoseSource,
	topic string,
	groups map[string]string,
	logger *slog.Logger,
) *VRTeleopHandler {
	if groups == nil {
		groups = DefaultGroups
	}
	return &VRTeleopHandler{
		session: session,
		arm:     arm,
		poses:   poses,
		topic:   topic,
		groups:  groups,
		logger:  logger.With("component", "teleop"),
	}
}

// Start captures each group's current end-effector pose as the session
// reference and subscribes to the delta topic. Calling Start while active
// is a no-op.
func (h *VRTeleopHandler) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.active {
		h.logger.Info("teleop already running")
		return nil
	}

	reference := make(map[string]geometry.RigidPose, len(h.groups))
	for group := range h.groups {
		pose, err := h.poses.EndEffectorPose(group)
		if err != nil {
			return fmt.Errorf("failed to capture reference pose for %s: %w", group, err)
		}
		reference[group] = pose
	}

	sub, err := h.session.Subscribe(h.topic, h.handleDelta)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", h.topic, err)
	}

	h.reference = reference
	h.sub = sub
	h.active = true

	h.logger.Info("teleop session started", "topic", h.topic, "groups", len(h.groups))
	return nil
}

// Stop unsubscribes and returns to Idle. Idempotent.
func (h *VRTeleopHandler) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.active {
		return nil
	}
	h.active = false

	if h.sub != nil {
		if err := h.sub.Unsubscribe(); err != nil {
			h.logger.Warn("failed to unsubscribe", "error", err)
		}
		h.sub = nil
	}
	h.reference = nil

	h.logger.Info("teleop session stopped")
	return nil
}

// Active reports whether a session is running.
func (h *VRTeleopHandler) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// handleDelta processes one controller update. Errors are logged, never
// propagated: a bad message must not kill the subscription.
func (h *VRTeleopHandler) handleDelta(data []byte) {
	var msg deltaMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.logger.Warn("malformed teleop delta", "error", err)
		return
	}

	h.mu.Lock()
	reference, known := h.reference[msg.GroupName]
	active := h.active
	h.mu.Unlock()

	if !active {
		return
	}
	if !known {
		// Unknown groups are ignored, not errors.
		return
	}

	delta := geometry.NewRigidPose(msg.X, msg.Y, msg.Z, msg.QX, msg.QY, msg.QZ, msg.QW)
	remapped := geometry.RemapControllerToRobot(delta)
	target := geometry.Compose(reference, remapped)

	if err := h.arm.GoToPoseQuaternion(target, msg.GroupName, false); err != nil {
		h.logger.Warn("ik command failed", "group", msg.GroupName, "error", err)
	}
}
