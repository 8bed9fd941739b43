package gesture

import "github.com/ayusman/mudra/internal/detector"

// Classify maps one frame's landmarks to a gesture using fixed geometric
// rules in image space, where a raised fingertip has a smaller Y than its
// MCP joint.
//
// Absent or malformed landmark sets classify to None. TwoFingerSign is
// checked first and wins any tie.
func Classify(hand *detector.HandLandmarks) ID {
	if !hand.Valid() {
		return None
	}

	switch {
	case isTwoFingerSign(hand.Points):
		return TwoFingerSign
	case isOneFingerUp(hand.Points):
		return OneFingerUp
	default:
		return None
	}
}

// isTwoFingerSign measures ring and pinky against the middle finger MCP
// rather than their own joints, which tolerates a tilted hand.
func isTwoFingerSign(p []detector.Point3D) bool {
	indexUp := p[detector.IndexTip].Y < p[detector.IndexMCP].Y
	middleUp := p[detector.MiddleTip].Y < p[detector.MiddleMCP].Y
	ringDown := p[detector.RingTip].Y > p[detector.MiddleMCP].Y
	pinkyDown := p[detector.PinkyTip].Y > p[detector.MiddleMCP].Y

	return indexUp && middleUp && ringDown && pinkyDown
}

// isOneFingerUp leaves the thumb unconstrained.
func isOneFingerUp(p []detector.Point3D) bool {
	indexUp := p[detector.IndexTip].Y < p[detector.IndexMCP].Y
	middleDown := p[detector.MiddleTip].Y > p[detector.MiddleMCP].Y
	ringDown := p[detector.RingTip].Y > p[detector.RingMCP].Y
	pinkyDown := p[detector.PinkyTip].Y > p[detector.PinkyMCP].Y

	return indexUp && middleDown && ringDown && pinkyDown
}
