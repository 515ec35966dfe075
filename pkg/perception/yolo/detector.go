// Package yolo provides gocv-backed implementations of the perception
// provider interfaces using YOLOv8 ONNX models: object detection and body
// pose estimation.
package yolo

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/walkielabs/go-walkie/pkg/perception"
)

// Config holds YOLO model configuration shared by the detector and the pose
// model.
type Config struct {
	ModelPath        string
	ConfidenceThresh float32
	NMSThresh        float32
	InputWidth       int
	InputHeight      int
}

// DefaultDetectorConfig returns production defaults for YOLOv8n detection.
func DefaultDetectorConfig() Config {
	return Config{
		ModelPath:        "models/yolov8n.onnx",
		ConfidenceThresh: 0.25,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
	}
}

// Detector runs YOLOv8 object detection. Safe for concurrent use; the
// underlying network is guarded by a mutex.
type Detector struct {
	net       gocv.Net
	config    Config
	mu        sync.Mutex
	inputSize image.Point
}

// NewDetector loads a YOLOv8 ONNX model.
func NewDetector(cfg Config) (*Detector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("yolo: model file not found: %s", cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("yolo: failed to load model from %s", cfg.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &Detector{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// DetectObjects finds objects in the frame and returns them with class info,
// confidence, and the cropped region.
func (d *Detector) DetectObjects(img image.Image) ([]perception.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

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

	blob := gocv.BlobFromImage(mat, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	boxes, confidences, classIDs := d.parseOutput(output, imgW, imgH)
	if len(boxes) == 0 {
		return nil, nil
	}

	indices := gocv.NMSBoxes(boxes, confidences, d.config.ConfidenceThresh, d.config.NMSThresh)

	detections := make([]perception.Detection, 0, len(indices))
	for _, idx := range indices {
		box := boxes[idx]
		classID := classIDs[idx]
		conf := confidences[idx]
		detections = append(detections, perception.Detection{
			BBox: perception.BBox{
				X1: float64(box.Min.X),
				Y1: float64(box.Min.Y),
				X2: float64(box.Max.X),
				Y2: float64(box.Max.Y),
			},
			ClassID:    &classID,
			ClassName:  className(classID),
			Confidence: &conf,
			Crop:       cropRegion(img, box),
		})
	}

	return detections, nil
}

// parseOutput parses the YOLOv8 detection tensor.
// Output shape: [1, 84, 8400] — 4 bbox values + 80 class scores per anchor.
func (d *Detector) parseOutput(output gocv.Mat, imgW, imgH float32) ([]image.Rectangle, []float32, []int) {
	var boxes []image.Rectangle
	var confidences []float32
	var classIDs []int

	rows := output.Cols() // anchors
	cols := output.Rows() // 4 + classes

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, nil, nil
	}

	for i := 0; i < rows; i++ {
		maxScore := float32(0)
		maxClassID := 0
		for c := 4; c < cols; c++ {
			if score := data[c*rows+i]; score > maxScore {
				maxScore = score
				maxClassID = c - 4
			}
		}
		if maxScore < d.config.ConfidenceThresh {
			continue
		}

		cx := data[0*rows+i]
		cy := data[1*rows+i]
		w := data[2*rows+i]
		h := data[3*rows+i]

		x1 := int((cx - w/2) * imgW / float32(d.config.InputWidth))
		y1 := int((cy - h/2) * imgH / float32(d.config.InputHeight))
		x2 := int((cx + w/2) * imgW / float32(d.config.InputWidth))
		y2 := int((cy + h/2) * imgH / float32(d.config.InputHeight))

		boxes = append(boxes, image.Rect(x1, y1, x2, y2))
		confidences = append(confidences, maxScore)
		classIDs = append(classIDs, maxClassID)
	}

	return boxes, confidences, classIDs
}

// Close releases the detector resources.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// cropRegion extracts the detection region from the source image. Falls back
// to the full frame when the image type does not support sub-imaging.
func cropRegion(img image.Image, box image.Rectangle) image.Image {
	box = box.Intersect(img.Bounds())
	if box.Empty() {
		return img
	}
	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	if s, ok := img.(subImager); ok {
		return s.SubImage(box)
	}
	return img
}

func className(classID int) string {
	if classID >= 0 && classID < len(COCOClasses) {
		return COCOClasses[classID]
	}
	return "unknown"
}

// COCOClasses contains the 80 COCO class names in model output order.
var COCOClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// PersonClassID is the COCO class ID for "person".
const PersonClassID = 0
