package capture

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/ayusman/mudra/internal/detector"
)

// LandmarkSource yields the landmarks of at most one hand per frame. A nil
// hand with a nil error means no hand was seen.
type LandmarkSource interface {
	NextFrame(ctx context.Context) (*detector.HandLandmarks, error)
}

// HandSource reads frames from a camera and runs them through a detector.
type HandSource struct {
	camera   Camera
	detector detector.Detector
}

// NewHandSource combines an opened camera with a detector.
func NewHandSource(camera Camera, det detector.Detector) *HandSource {
	return &HandSource{camera: camera, detector: det}
}

// NextFrame captures one frame and returns the first detected hand.
func (s *HandSource) NextFrame(ctx context.Context) (*detector.HandLandmarks, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frame, err := s.camera.ReadFrame()
	if err != nil {
		return nil, err
	}
	defer frame.Close()

	hands, err := s.detector.Detect(frame)
	if err != nil {
		return nil, fmt.Errorf("detect hands: %w", err)
	}
	if len(hands) == 0 {
		return nil, nil
	}

	hand := hands[0]
	return &hand, nil
}

// Close releases the camera and the detector.
func (s *HandSource) Close() error {
	camErr := s.camera.Close()
	if err := s.detector.Close(); err != nil {
		return err
	}
	return camErr
}

// ReplaySource replays a fixed sequence of observations. Nil entries are
// frames without a hand.
type ReplaySource struct {
	mu     sync.Mutex
	frames []*detector.HandLandmarks
	next   int
	loop   bool
}

// NewReplaySource creates a source over frames. Without loop, reads past
// the end return io.EOF.
func NewReplaySource(frames []*detector.HandLandmarks, loop bool) *ReplaySource {
	return &ReplaySource{frames: frames, loop: loop}
}

func (s *ReplaySource) NextFrame(ctx context.Context) (*detector.HandLandmarks, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= len(s.frames) {
		if !s.loop || len(s.frames) == 0 {
			return nil, io.EOF
		}
		s.next = 0
	}

	hand := s.frames[s.next]
	s.next++
	if hand == nil {
		return nil, nil
	}
	return hand.Clone(), nil
}
