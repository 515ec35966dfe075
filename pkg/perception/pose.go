package perception

// COCO keypoint indices used by the raised-hand check.
const (
	KeypointNose          = 0
	KeypointLeftEye       = 1
	KeypointRightEye      = 2
	KeypointLeftEar       = 3
	KeypointRightEar      = 4
	KeypointLeftShoulder  = 5
	KeypointRightShoulder = 6
	KeypointLeftElbow     = 7
	KeypointRightElbow    = 8
	KeypointLeftWrist     = 9
	KeypointRightWrist    = 10
	KeypointLeftHip       = 11
	KeypointRightHip      = 12
	KeypointLeftKnee      = 13
	KeypointRightKnee     = 14
	KeypointLeftAnkle     = 15
	KeypointRightAnkle    = 16

	// NumKeypoints is the standard COCO skeletal layout size.
	NumKeypoints = 17
)

// KeypointNames maps COCO keypoint indices to human-readable names.
var KeypointNames = [NumKeypoints]string{
	"nose", "left_eye", "right_eye", "left_ear", "right_ear",
	"left_shoulder", "right_shoulder", "left_elbow", "right_elbow",
	"left_wrist", "right_wrist", "left_hip", "right_hip",
	"left_knee", "right_knee", "left_ankle", "right_ankle",
}

// SkeletonConnections pairs keypoint indices for visualization.
var SkeletonConnections = [][2]int{
	{0, 1}, {0, 2}, {1, 3}, {2, 4},
	{5, 6}, {5, 7}, {7, 9}, {6, 8}, {8, 10},
	{5, 11}, {6, 12}, {11, 12},
	{11, 13}, {13, 15}, {12, 14}, {14, 16},
}

// Keypoint is one body landmark in pixel coordinates.
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
	Index      int     `json:"index"`
}

// BodyPose is a detected person with their 17 COCO keypoints.
type BodyPose struct {
	BBox       BBox
	Confidence float64
	Keypoints  [NumKeypoints]Keypoint
}

// keypointConfidenceThreshold is the minimum confidence for a keypoint to
// count in gesture checks.
const keypointConfidenceThreshold = 0.5

// HasRaisedHand reports whether either wrist is above its shoulder.
// Image y grows downward, so "above" means a smaller pixel y. Both keypoints
// of a pair must meet the confidence threshold.
func (p BodyPose) HasRaisedHand() bool {
	pairs := [][2]int{
		{KeypointLeftWrist, KeypointLeftShoulder},
		{KeypointRightWrist, KeypointRightShoulder},
	}
	for _, pair := range pairs {
		wrist := p.Keypoints[pair[0]]
		shoulder := p.Keypoints[pair[1]]
		if wrist.Confidence >= keypointConfidenceThreshold &&
			shoulder.Confidence >= keypointConfidenceThreshold &&
			wrist.Y < shoulder.Y {
			return true
		}
	}
	return false
}

// LargestPose selects the pose with the largest bounding-box area, breaking
// ties by confidence. Returns nil for an empty slice.
func LargestPose(poses []BodyPose) *BodyPose {
	if len(poses) == 0 {
		return nil
	}
	best := &poses[0]
	for i := 1; i < len(poses); i++ {
		p := &poses[i]
		switch {
		case p.BBox.Area() > best.BBox.Area():
			best = p
		case p.BBox.Area() == best.BBox.Area() && p.Confidence > best.Confidence:
			best = p
		}
	}
	return best
}
