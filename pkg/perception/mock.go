package perception

import (
	"image"
	"sync"
)

// MockDetector returns scripted detection results, one per call, repeating
// the last entry once exhausted. Useful for exercising control loops without
// a model.
type MockDetector struct {
	mu      sync.Mutex
	Results [][]Detection
	Err     error
	calls   int
}

// DetectObjects returns the next scripted result.
func (m *MockDetector) DetectObjects(_ image.Image) ([]Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Results) == 0 {
		return nil, nil
	}
	idx := m.calls
	if idx >= len(m.Results) {
		idx = len(m.Results) - 1
	}
	m.calls++
	return m.Results[idx], nil
}

// Calls returns how many times DetectObjects has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockPoseEstimator returns scripted pose results, repeating the last entry
// once exhausted.
type MockPoseEstimator struct {
	mu      sync.Mutex
	Results [][]BodyPose
	Err     error
	calls   int
}

// EstimatePoses returns the next scripted result.
func (m *MockPoseEstimator) EstimatePoses(_ image.Image) ([]BodyPose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Results) == 0 {
		return nil, nil
	}
	idx := m.calls
	if idx >= len(m.Results) {
		idx = len(m.Results) - 1
	}
	m.calls++
	return m.Results[idx], nil
}

// MockEmbedder returns a fixed vector for every input.
type MockEmbedder struct {
	Vector []float32
	Err    error
}

// EmbedImage returns the fixed vector.
func (m *MockEmbedder) EmbedImage(_ image.Image) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Vector, nil
}

// EmbedText returns the fixed vector.
func (m *MockEmbedder) EmbedText(_ string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Vector, nil
}
