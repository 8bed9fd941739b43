package device

import (
	"context"
	"sync"
)

// Recorder is a Microphone test double that records every call.
type Recorder struct {
	mu    sync.Mutex
	calls []bool
	err   error
}

// NewRecorder creates a Recorder that succeeds until SetError is called.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// SetError makes subsequent calls fail with err.
func (r *Recorder) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// SetMicrophoneEnabled records the call.
func (r *Recorder) SetMicrophoneEnabled(ctx context.Context, enable bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, enable)
	return r.err
}

// Calls returns the enable values passed so far, oldest first.
func (r *Recorder) Calls() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.calls...)
}
