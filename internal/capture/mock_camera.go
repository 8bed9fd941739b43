package capture

import (
	"io"
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera plays back blank frames of a fixed size, for driving a
// detector without a device.
type MockCamera struct {
	mu      sync.Mutex
	frames  int
	read    int
	loop    bool
	running bool
	fps     int
}

// NewMockCamera creates a camera that yields frames blank frames, forever
// when loop is set. Reads past the end return io.EOF.
func NewMockCamera(frames int, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		loop:   loop,
		fps:    DefaultFPS,
	}
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.read = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}
	if !c.loop && c.read >= c.frames {
		return nil, io.EOF
	}
	if c.frames == 0 {
		return nil, ErrNoFrame
	}
	c.read++

	mat := gocv.NewMatWithSize(DefaultHeight, DefaultWidth, gocv.MatTypeCV8UC3)
	return &mat, nil
}

func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Reads returns how many frames have been handed out since Open.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read
}
