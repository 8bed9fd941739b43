package gesture

import "time"

// DefaultHoldThreshold is the minimum spacing between two confirmations of
// the same gesture.
const DefaultHoldThreshold = time.Second

// HoldTracker turns a per-frame classification stream into discrete
// confirmations, at most one per threshold for each gesture.
//
// It is a self-resetting rate limiter, not a sustained-hold detector: a pose
// held continuously confirms at 0s, then again each time more than the
// threshold has elapsed since the previous confirmation.
//
// HoldTracker is not safe for concurrent use; the pipeline owns it.
type HoldTracker struct {
	threshold time.Duration
	last      map[ID]time.Time
}

// NewHoldTracker creates a tracker. A non-positive threshold selects
// DefaultHoldThreshold.
func NewHoldTracker(threshold time.Duration) *HoldTracker {
	if threshold <= 0 {
		threshold = DefaultHoldThreshold
	}
	return &HoldTracker{
		threshold: threshold,
		last:      make(map[ID]time.Time),
	}
}

// Threshold returns the configured hold threshold.
func (t *HoldTracker) Threshold() time.Duration {
	return t.threshold
}

// Confirm reports whether id should be confirmed at now and, if so, records
// now as its last confirmation. A gesture never confirmed before always
// passes. Timers are independent per gesture. None never confirms.
func (t *HoldTracker) Confirm(id ID, now time.Time) bool {
	if id == None {
		return false
	}

	if last, ok := t.last[id]; ok && now.Sub(last) <= t.threshold {
		return false
	}

	t.last[id] = now
	return true
}

// LastConfirmed returns when id was last confirmed, or false if never.
func (t *HoldTracker) LastConfirmed(id ID) (time.Time, bool) {
	last, ok := t.last[id]
	return last, ok
}

// Reset forgets every confirmation, as at startup.
func (t *HoldTracker) Reset() {
	clear(t.last)
}
