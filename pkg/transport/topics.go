package transport

import "fmt"

// Topic constants for walkie communication.
// All topics are prefixed with the configured prefix (default: "walkie").

// TopicArmPose is the teleoperation controller-delta topic.
// Subscribes: JSON with group_name and a rigid pose delta.
const TopicArmPose = "teleop.arm_pose"

// TopicCommand is the base command topic.
// Publishes: JSON navigation and control commands.
const TopicCommand = "command"

// TopicObjects is the visible-objects snapshot topic.
// Publishes: JSON snapshot of what the detector currently sees.
const TopicObjects = "perception.objects"

// TopicStatus is the subsystem status topic.
// Publishes: JSON with loop states and store counts.
const TopicStatus = "status"

// Topics is a helper to build fully-qualified topic names.
type Topics struct {
	prefix string
}

// NewTopics creates a Topics helper with the given prefix.
func NewTopics(prefix string) *Topics {
	return &Topics{prefix: prefix}
}

// ArmPose returns the full teleoperation delta topic.
func (t *Topics) ArmPose() string {
	return fmt.Sprintf("%s.%s", t.prefix, TopicArmPose)
}

// Command returns the full command topic.
func (t *Topics) Command() string {
	return fmt.Sprintf("%s.%s", t.prefix, TopicCommand)
}

// Objects returns the full visible-objects topic.
func (t *Topics) Objects() string {
	return fmt.Sprintf("%s.%s", t.prefix, TopicObjects)
}

// Status returns the full status topic.
func (t *Topics) Status() string {
	return fmt.Sprintf("%s.%s", t.prefix, TopicStatus)
}
