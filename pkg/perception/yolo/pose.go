package yolo

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/walkielabs/go-walkie/pkg/perception"
)

// DefaultPoseConfig returns production defaults for YOLOv8n-pose.
func DefaultPoseConfig() Config {
	return Config{
		ModelPath:        "models/yolov8n-pose.onnx",
		ConfidenceThresh: 0.5,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
	}
}

// PoseModel runs YOLOv8-pose body keypoint estimation. Safe for concurrent
// use.
type PoseModel struct {
	net       gocv.Net
	config    Config
	mu        sync.Mutex
	inputSize image.Point
}

// NewPoseModel loads a YOLOv8-pose ONNX model.
func NewPoseModel(cfg Config) (*PoseModel, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("yolo: pose model file not found: %s", cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("yolo: failed to load pose model from %s", cfg.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &PoseModel{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// EstimatePoses finds people in the frame and returns their 17 COCO
// keypoints.
func (p *PoseModel) EstimatePoses(img image.Image) ([]perception.BodyPose, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("yolo: convert image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("yolo: empty image")
	}

	imgW := float32(mat.Cols())
	imgH := float32(mat.Rows())

	blob := gocv.BlobFromImage(mat, 1.0/255.0, p.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	p.net.SetInput(blob, "")
	output := p.net.Forward("")
	defer output.Close()

	return p.parseOutput(output, imgW, imgH), nil
}

// parseOutput parses the YOLOv8-pose tensor.
// Output shape: [1, 56, 8400] — 4 bbox values, 1 person score, then 17
// keypoints as (x, y, confidence) triples per anchor.
func (p *PoseModel) parseOutput(output gocv.Mat, imgW, imgH float32) []perception.BodyPose {
	rows := output.Cols() // anchors
	cols := output.Rows() // 56

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil
	}

	scaleX := imgW / float32(p.config.InputWidth)
	scaleY := imgH / float32(p.config.InputHeight)

	var boxes []image.Rectangle
	var scores []float32
	var poses []perception.BodyPose

	for i := 0; i < rows; i++ {
		score := data[4*rows+i]
		if score < p.config.ConfidenceThresh {
			continue
		}

		cx := data[0*rows+i]
		cy := data[1*rows+i]
		w := data[2*rows+i]
		h := data[3*rows+i]

		x1 := int((cx - w/2) * scaleX)
		y1 := int((cy - h/2) * scaleY)
		x2 := int((cx + w/2) * scaleX)
		y2 := int((cy + h/2) * scaleY)

		var pose perception.BodyPose
		pose.Confidence = float64(score)
		pose.BBox = perception.BBox{
			X1: float64(x1), Y1: float64(y1),
			X2: float64(x2), Y2: float64(y2),
		}
		for k := 0; k < perception.NumKeypoints; k++ {
			base := 5 + k*3
			pose.Keypoints[k] = perception.Keypoint{
				X:          float64(data[(base+0)*rows+i] * scaleX),
				Y:          float64(data[(base+1)*rows+i] * scaleY),
				Confidence: float64(data[(base+2)*rows+i]),
				Index:      k,
			}
		}

		boxes = append(boxes, image.Rect(x1, y1, x2, y2))
		scores = append(scores, score)
		poses = append(poses, pose)
	}

	if len(boxes) == 0 {
		return nil
	}

	indices := gocv.NMSBoxes(boxes, scores, p.config.ConfidenceThresh, p.config.NMSThresh)
	kept := make([]perception.BodyPose, 0, len(indices))
	for _, idx := range indices {
		kept = append(kept, poses[idx])
	}
	return kept
}

// Close releases the pose model resources.
func (p *PoseModel) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.net.Close()
}
