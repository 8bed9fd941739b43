// Package detector provides hand detection interfaces and landmark types.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is a landmark in normalized image space. X and Y are in [0,1] with
// Y growing downward; Z is relative depth and may be zero.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// finite reports whether all coordinates are usable in comparisons.
func (p Point3D) finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0) &&
		!math.IsNaN(p.Z) && !math.IsInf(p.Z, 0)
}

// HandLandmarks is one hand's keypoints for a single frame, indexed by the
// constants above. A detection that lost points carries fewer than
// NumLandmarks entries.
type HandLandmarks struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"` // "Left" or "Right"
	Score      float64   `json:"score"`
}

// Valid reports whether every expected keypoint is present and finite.
// Geometric rules must not be evaluated on an invalid set.
func (h *HandLandmarks) Valid() bool {
	if h == nil || len(h.Points) < NumLandmarks {
		return false
	}
	for _, p := range h.Points[:NumLandmarks] {
		if !p.finite() {
			return false
		}
	}
	return true
}

// Point returns the landmark at index i, or false when it is missing.
func (h *HandLandmarks) Point(i int) (Point3D, bool) {
	if h == nil || i < 0 || i >= len(h.Points) {
		return Point3D{}, false
	}
	return h.Points[i], true
}

// Clone returns a deep copy so a frame can be handed across goroutines.
func (h *HandLandmarks) Clone() *HandLandmarks {
	if h == nil {
		return nil
	}
	c := *h
	c.Points = append([]Point3D(nil), h.Points...)
	return &c
}
