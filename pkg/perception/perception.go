// Package perception defines the contracts between the control subsystem and
// the pre-trained inference engines it consumes: object detection, body pose
// estimation, and image/text embedding.
//
// The models themselves live behind these interfaces (see the yolo and clip
// subpackages). Callers treat any provider error as "no detections this
// cycle" — perception failures are never fatal to a control loop.
package perception

import "image"

// BBox is an axis-aligned bounding box in pixel coordinates.
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width returns the box width in pixels.
func (b BBox) Width() float64 { return b.X2 - b.X1 }

// Height returns the box height in pixels.
func (b BBox) Height() float64 { return b.Y2 - b.Y1 }

// Area returns the box area in square pixels.
func (b BBox) Area() float64 { return b.Width() * b.Height() }

// Center returns the box center point.
func (b BBox) Center() (x, y float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// Detection is a single detected object. Produced fresh each cycle and never
// mutated; the caller owns it.
type Detection struct {
	BBox       BBox
	ClassID    *int
	ClassName  string
	Confidence *float32
	Crop       image.Image
}

// ObjectDetector finds objects in a frame.
type ObjectDetector interface {
	DetectObjects(img image.Image) ([]Detection, error)
}

// PoseEstimator finds people and their body keypoints in a frame.
type PoseEstimator interface {
	EstimatePoses(img image.Image) ([]BodyPose, error)
}

// Embedder produces fixed-length L2-normalized vectors for images and text.
// Similarity between two embeddings is their dot product, in [-1, 1].
type Embedder interface {
	EmbedImage(img image.Image) ([]float32, error)
	EmbedText(text string) ([]float32, error)
}

// Similarity returns the dot product of two L2-normalized embeddings.
// Mismatched lengths score zero.
func Similarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// FilterClass returns the detections whose class name matches name
// (case-sensitive; COCO names are lowercase).
func FilterClass(dets []Detection, name string) []Detection {
	var out []Detection
	for _, d := range dets {
		if d.ClassName == name {
			out = append(out, d)
		}
	}
	return out
}

// FilterConfidence drops detections with missing confidence or confidence
// below min.
func FilterConfidence(dets []Detection, min float32) []Detection {
	var out []Detection
	for _, d := range dets {
		if d.Confidence != nil && *d.Confidence >= min {
			out = append(out, d)
		}
	}
	return out
}

// LargestBBox selects the detection with the largest bounding-box area.
// On equal areas the higher-confidence detection wins, so target selection
// is deterministic across runs. Returns nil for an empty slice.
func LargestBBox(dets []Detection) *Detection {
	if len(dets) == 0 {
		return nil
	}
	best := &dets[0]
	for i := 1; i < len(dets); i++ {
		d := &dets[i]
		switch {
		case d.BBox.Area() > best.BBox.Area():
			best = d
		case d.BBox.Area() == best.BBox.Area() && conf(d) > conf(best):
			best = d
		}
	}
	return best
}

func conf(d *Detection) float32 {
	if d.Confidence == nil {
		return 0
	}
	return *d.Confidence
}
