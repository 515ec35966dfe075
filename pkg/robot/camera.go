package robot

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// WebcamCamera captures frames from a local video device via gocv.
// Safe for concurrent use; capture is serialized on a mutex because
// OpenCV capture handles are not thread-safe.
type WebcamCamera struct {
	mu     sync.Mutex
	cap    *gocv.VideoCapture
	closed bool
}

// OpenWebcam opens the video device with the given index (0 is the
// default camera).
func OpenWebcam(deviceID int) (*WebcamCamera, error) {
	cap, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to open video device %d: %w", deviceID, err)
	}
	return &WebcamCamera{cap: cap}, nil
}

// Capture reads one frame and converts it to an image.Image.
func (w *WebcamCamera) Capture() (image.Image, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrCameraClosed
	}

	mat := gocv.NewMat()
	defer mat.Close()

	if ok := w.cap.Read(&mat); !ok || mat.Empty() {
		return nil, ErrEmptyFrame
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	return img, nil
}

// Close releases the video device. Safe to call more than once.
func (w *WebcamCamera) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.cap.Close()
}

var _ Camera = (*WebcamCamera)(nil)
