package robot

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/walkielabs/go-walkie/internal/httpc"
	"github.com/walkielabs/go-walkie/pkg/geometry"
	"github.com/walkielabs/go-walkie/pkg/perception"
)

// DefaultDaemonTimeout bounds every request to the walkie daemon. Blocking
// navigation and arm moves can legitimately take a while; everything else
// answers well inside this.
const DefaultDaemonTimeout = 30 * time.Second

// HTTPClient talks to the walkie daemon's JSON-over-HTTP API. One client
// covers navigation, localization, and arm control; consumers should still
// depend on the narrow interfaces, not on this type.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a daemon client for the given host:port.
func NewHTTPClient(addr string) *HTTPClient {
	return &HTTPClient{
		baseURL: fmt.Sprintf("http://%s", addr),
		client:  httpc.NewClient(DefaultDaemonTimeout),
	}
}

// GoTo sends a base navigation goal in world coordinates.
func (c *HTTPClient) GoTo(x, y, heading float64, blocking bool) error {
	payload := map[string]interface{}{
		"x":        x,
		"y":        y,
		"heading":  heading,
		"blocking": blocking,
	}
	return c.post("/api/nav/goto", payload, nil)
}

// Stop halts the base immediately and clears any queued goal.
func (c *HTTPClient) Stop() error {
	return c.post("/api/nav/stop", map[string]interface{}{}, nil)
}

// Pose returns the robot's current base pose in world coordinates.
func (c *HTTPClient) Pose() (geometry.Pose2D, error) {
	resp, err := c.client.Get(c.baseURL + "/api/nav/pose")
	if err != nil {
		return geometry.Pose2D{}, fmt.Errorf("pose request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geometry.Pose2D{}, fmt.Errorf("pose request: status %d", resp.StatusCode)
	}

	var pose struct {
		X       float64 `json:"x"`
		Y       float64 `json:"y"`
		Heading float64 `json:"heading"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pose); err != nil {
		return geometry.Pose2D{}, fmt.Errorf("failed to decode pose: %w", err)
	}
	return geometry.Pose2D{X: pose.X, Y: pose.Y, Heading: pose.Heading}, nil
}

// BBoxesToPositions asks the daemon's depth stack to project the given
// pixel boxes into world coordinates. A 504 from the daemon maps to
// ErrLocalizationTimeout.
func (c *HTTPClient) BBoxesToPositions(boxes []perception.BBox) ([][3]float64, error) {
	flat := make([][4]float64, len(boxes))
	for i, b := range boxes {
		flat[i] = [4]float64{b.X1, b.Y1, b.X2, b.Y2}
	}

	var out struct {
		Positions [][3]float64 `json:"positions"`
	}
	err := c.post("/api/vision/localize", map[string]interface{}{"bboxes": flat}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Positions) != len(boxes) {
		return nil, fmt.Errorf("localize: got %d positions for %d boxes",
			len(out.Positions), len(boxes))
	}
	return out.Positions, nil
}

// GoToPoseQuaternion sends a Cartesian end-effector target to the IK solver.
func (c *HTTPClient) GoToPoseQuaternion(p geometry.RigidPose, group string, blocking bool) error {
	payload := map[string]interface{}{
		"group":    group,
		"position": p.Translation,
		"quaternion": [4]float64{
			p.Rotation.Imag, p.Rotation.Jmag, p.Rotation.Kmag, p.Rotation.Real,
		},
		"blocking": blocking,
	}
	return c.post("/api/arm/goto_pose", payload, nil)
}

// EndEffectorPose reads the current pose of a kinematic group's end effector.
func (c *HTTPClient) EndEffectorPose(group string) (geometry.RigidPose, error) {
	resp, err := c.client.Get(c.baseURL + "/api/arm/pose?group=" + group)
	if err != nil {
		return geometry.RigidPose{}, fmt.Errorf("arm pose request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return geometry.RigidPose{}, ErrUnknownGroup
	default:
		return geometry.RigidPose{}, fmt.Errorf("arm pose request: status %d", resp.StatusCode)
	}

	var pose struct {
		Position   [3]float64 `json:"position"`
		Quaternion [4]float64 `json:"quaternion"` // [qx, qy, qz, qw]
	}
	if err := json.NewDecoder(resp.Body).Decode(&pose); err != nil {
		return geometry.RigidPose{}, fmt.Errorf("failed to decode arm pose: %w", err)
	}
	q := pose.Quaternion
	return geometry.NewRigidPose(
		pose.Position[0], pose.Position[1], pose.Position[2],
		q[0], q[1], q[2], q[3],
	), nil
}

// post sends a JSON payload and optionally decodes a JSON response into out.
func (c *HTTPClient) post(path string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", path, err)
	}

	resp, err := httpc.Post(c.baseURL+path, "application/json", data)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusGatewayTimeout:
		return ErrLocalizationTimeout
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s request: status %d: %s", path, resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
