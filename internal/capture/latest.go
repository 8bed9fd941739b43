package capture

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// Sample is one observation with its capture time.
type Sample struct {
	Hand *detector.HandLandmarks
	At   time.Time
}

// Latest is a single-slot handoff between frame acquisition and processing.
// Put never blocks: an unconsumed sample is replaced, not queued. It
// supports one producer.
type Latest struct {
	ch      chan Sample
	dropped atomic.Uint64
}

// NewLatest creates an empty slot.
func NewLatest() *Latest {
	return &Latest{ch: make(chan Sample, 1)}
}

// Put stores s, discarding a stale sample the consumer has not taken yet.
// It reports whether one was discarded.
func (l *Latest) Put(s Sample) bool {
	dropped := false
	for {
		select {
		case l.ch <- s:
			return dropped
		default:
		}
		select {
		case <-l.ch:
			dropped = true
			l.dropped.Add(1)
		default:
		}
	}
}

// C returns the channel samples are delivered on.
func (l *Latest) C() <-chan Sample {
	return l.ch
}

// Get waits for the next sample.
func (l *Latest) Get(ctx context.Context) (Sample, error) {
	select {
	case s := <-l.ch:
		return s, nil
	case <-ctx.Done():
		return Sample{}, ctx.Err()
	}
}

// Dropped returns how many samples were replaced before being consumed.
func (l *Latest) Dropped() uint64 {
	return l.dropped.Load()
}
