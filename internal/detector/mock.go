package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// finger describes where one finger's tip sits relative to its MCP joint.
type finger struct {
	mcp, pip, dip, tip int
	x                  float64
	mcpY               float64
	extended           bool
}

// syntheticHand builds an upright right hand with the wrist at the bottom of
// the frame. Extended fingers have their tips well above their MCP joint;
// curled fingers fold back down below every MCP.
func syntheticHand(index, middle, ring, pinky bool) HandLandmarks {
	landmarks := HandLandmarks{
		Points:     make([]Point3D, NumLandmarks),
		Handedness: "Right",
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb tucked across the palm. It is never constrained by the rules.
	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.0}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.70, Z: -0.01}
	landmarks.Points[ThumbIP] = Point3D{X: 0.55, Y: 0.67, Z: -0.02}
	landmarks.Points[ThumbTip] = Point3D{X: 0.52, Y: 0.66, Z: -0.03}

	fingers := []finger{
		{IndexMCP, IndexPIP, IndexDIP, IndexTip, 0.55, 0.68, index},
		{MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip, 0.50, 0.66, middle},
		{RingMCP, RingPIP, RingDIP, RingTip, 0.45, 0.68, ring},
		{PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip, 0.40, 0.70, pinky},
	}

	for _, f := range fingers {
		landmarks.Points[f.mcp] = Point3D{X: f.x, Y: f.mcpY, Z: 0.0}
		if f.extended {
			landmarks.Points[f.pip] = Point3D{X: f.x, Y: f.mcpY - 0.12, Z: 0.0}
			landmarks.Points[f.dip] = Point3D{X: f.x, Y: f.mcpY - 0.22, Z: 0.0}
			landmarks.Points[f.tip] = Point3D{X: f.x, Y: f.mcpY - 0.32, Z: 0.0}
		} else {
			landmarks.Points[f.pip] = Point3D{X: f.x, Y: f.mcpY - 0.02, Z: -0.05}
			landmarks.Points[f.dip] = Point3D{X: f.x - 0.02, Y: f.mcpY + 0.01, Z: -0.04}
			landmarks.Points[f.tip] = Point3D{X: f.x - 0.03, Y: 0.76, Z: -0.02}
		}
	}

	return landmarks
}

// VSignLandmarks returns a hand showing the two-finger sign: index and
// middle extended, ring and pinky curled.
func VSignLandmarks() HandLandmarks {
	return syntheticHand(true, true, false, false)
}

// OneFingerUpLandmarks returns a hand with only the index finger extended.
func OneFingerUpLandmarks() HandLandmarks {
	return syntheticHand(true, false, false, false)
}

// OpenPalmLandmarks returns a hand with all four fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	return syntheticHand(true, true, true, true)
}

// FistLandmarks returns a hand with every finger curled.
func FistLandmarks() HandLandmarks {
	return syntheticHand(false, false, false, false)
}
