package perception

import (
	"math"
	"testing"
)

func confPtr(v float32) *float32 { return &v }

func TestBBox_Geometry(t *testing.T) {
	b := BBox{X1: 10, Y1: 20, X2: 110, Y2: 70}

	if b.Width() != 100 || b.Height() != 50 {
		t.Errorf("size: got %vx%v, want 100x50", b.Width(), b.Height())
	}
	if b.Area() != 5000 {
		t.Errorf("area: got %v, want 5000", b.Area())
	}
	cx, cy := b.Center()
	if cx != 60 || cy != 45 {
		t.Errorf("center: got (%v, %v), want (60, 45)", cx, cy)
	}
}

func TestSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0, 1, 0}

	if s := Similarity(a, a); math.Abs(float64(s)-1) > 1e-6 {
		t.Errorf("self similarity: got %v, want 1", s)
	}
	if s := Similarity(a, b); s != 0 {
		t.Errorf("orthogonal: got %v, want 0", s)
	}
	if s := Similarity(a, []float32{1, 0}); s != 0 {
		t.Errorf("mismatched length: got %v, want 0", s)
	}
}

func TestFilterConfidence(t *testing.T) {
	dets := []Detection{
		{ClassName: "cup", Confidence: confPtr(0.9)},
		{ClassName: "chair", Confidence: confPtr(0.3)},
		{ClassName: "tv"}, // confidence unknown
		{ClassName: "person", Confidence: confPtr(0.4)},
	}

	got := FilterConfidence(dets, 0.4)
	if len(got) != 2 {
		t.Fatalf("got %d detections, want 2", len(got))
	}
	if got[0].ClassName != "cup" || got[1].ClassName != "person" {
		t.Errorf("got %q and %q, want cup and person", got[0].ClassName, got[1].ClassName)
	}
}

func TestLargestBBox_PrefersArea(t *testing.T) {
	dets := []Detection{
		{ClassName: "a", BBox: BBox{X2: 10, Y2: 10}, Confidence: confPtr(0.99)},
		{ClassName: "b", BBox: BBox{X2: 20, Y2: 20}, Confidence: confPtr(0.5)},
	}
	best := LargestBBox(dets)
	if best == nil || best.ClassName != "b" {
		t.Fatalf("want largest-area detection b, got %+v", best)
	}
}

func TestLargestBBox_TieBreaksOnConfidence(t *testing.T) {
	dets := []Detection{
		{ClassName: "low", BBox: BBox{X2: 10, Y2: 10}, Confidence: confPtr(0.4)},
		{ClassName: "high", BBox: BBox{X2: 10, Y2: 10}, Confidence: confPtr(0.8)},
	}
	best := LargestBBox(dets)
	if best == nil || best.ClassName != "high" {
		t.Fatalf("want higher-confidence detection on tie, got %+v", best)
	}
}

func TestLargestBBox_Empty(t *testing.T) {
	if LargestBBox(nil) != nil {
		t.Error("want nil for empty input")
	}
}

func TestHasRaisedHand_LeftWristAboveShoulder(t *testing.T) {
	var p BodyPose
	p.Keypoints[KeypointLeftWrist] = Keypoint{X: 50, Y: 100, Confidence: 0.9, Index: KeypointLeftWrist}
	p.Keypoints[KeypointLeftShoulder] = Keypoint{X: 55, Y: 200, Confidence: 0.9, Index: KeypointLeftShoulder}

	if !p.HasRaisedHand() {
		t.Error("wrist y=100 above shoulder y=200: want raised hand")
	}
}

func TestHasRaisedHand_WristBelowShoulder(t *testing.T) {
	var p BodyPose
	p.Keypoints[KeypointLeftWrist] = Keypoint{X: 50, Y: 250, Confidence: 0.9, Index: KeypointLeftWrist}
	p.Keypoints[KeypointLeftShoulder] = Keypoint{X: 55, Y: 200, Confidence: 0.9, Index: KeypointLeftShoulder}

	if p.HasRaisedHand() {
		t.Error("wrist y=250 below shoulder y=200: want no raised hand")
	}
}

func TestHasRaisedHand_LowConfidenceIgnored(t *testing.T) {
	var p BodyPose
	p.Keypoints[KeypointRightWrist] = Keypoint{Y: 100, Confidence: 0.4, Index: KeypointRightWrist}
	p.Keypoints[KeypointRightShoulder] = Keypoint{Y: 200, Confidence: 0.9, Index: KeypointRightShoulder}

	if p.HasRaisedHand() {
		t.Error("low-confidence wrist must not count as raised")
	}
}

func TestHasRaisedHand_RightPair(t *testing.T) {
	var p BodyPose
	// Left pair unusable, right pair raised.
	p.Keypoints[KeypointRightWrist] = Keypoint{Y: 80, Confidence: 0.7, Index: KeypointRightWrist}
	p.Keypoints[KeypointRightShoulder] = Keypoint{Y: 190, Confidence: 0.6, Index: KeypointRightShoulder}

	if !p.HasRaisedHand() {
		t.Error("right wrist above right shoulder: want raised hand")
	}
}
