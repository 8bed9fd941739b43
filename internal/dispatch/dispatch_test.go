package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/binding"
	"github.com/ayusman/mudra/internal/device"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/logging"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func at(seconds float64) time.Time {
	return t0.Add(time.Duration(seconds * float64(time.Second)))
}

func setup(t *testing.T) (*Dispatcher, *binding.Store, *device.Recorder) {
	t.Helper()
	bindings := binding.NewStore(nil, logging.NewNop())
	mic := device.NewRecorder()
	d := New(Config{
		Cooldown:   4 * time.Second,
		Bindings:   bindings,
		Microphone: mic,
		Logger:     logging.NewNop(),
	})
	return d, bindings, mic
}

func TestDispatcher_CooldownSequence(t *testing.T) {
	d, bindings, mic := setup(t)
	require.NoError(t, bindings.Set(binding.MuteTrigger, gesture.TwoFingerSign))
	ctx := context.Background()

	res := d.OnConfirmedGesture(ctx, gesture.TwoFingerSign, at(0))
	assert.Equal(t, ActionMute, res.Action)
	assert.Equal(t, binding.MuteTrigger, res.Role)
	assert.NoError(t, res.ToggleErr)

	res = d.OnConfirmedGesture(ctx, gesture.TwoFingerSign, at(2))
	assert.Equal(t, ActionNone, res.Action)
	assert.Equal(t, ReasonCooldown, res.Suppressed)

	res = d.OnConfirmedGesture(ctx, gesture.TwoFingerSign, at(4.1))
	assert.Equal(t, ActionMute, res.Action)

	assert.Equal(t, []bool{false, false}, mic.Calls())
}

func TestDispatcher_SuppressedCallDoesNotExtendCooldown(t *testing.T) {
	d, bindings, mic := setup(t)
	require.NoError(t, bindings.Set(binding.MuteTrigger, gesture.TwoFingerSign))
	ctx := context.Background()

	d.OnConfirmedGesture(ctx, gesture.TwoFingerSign, at(0))
	for _, s := range []float64{1, 2, 3, 3.9} {
		assert.False(t, d.OnConfirmedGesture(ctx, gesture.TwoFingerSign, at(s)).Dispatched())
	}

	last, ok := d.LastActionAt()
	require.True(t, ok)
	assert.Equal(t, at(0), last)

	assert.True(t, d.OnConfirmedGesture(ctx, gesture.TwoFingerSign, at(4.01)).Dispatched())
	assert.Len(t, mic.Calls(), 2)
}

func TestDispatcher_ExactCooldownIsSuppressed(t *testing.T) {
	d, bindings, _ := setup(t)
	require.NoError(t, bindings.Set(binding.MuteTrigger, gesture.TwoFingerSign))
	ctx := context.Background()

	d.OnConfirmedGesture(ctx, gesture.TwoFingerSign, at(0))
	assert.False(t, d.OnConfirmedGesture(ctx, gesture.TwoFingerSign, at(4)).Dispatched())
}

func TestDispatcher_MuteAndUnmuteShareCooldown(t *testing.T) {
	d, bindings, mic := setup(t)
	require.NoError(t, bindings.Set(binding.MuteTrigger, gesture.TwoFingerSign))
	require.NoError(t, bindings.Set(binding.UnmuteTrigger, gesture.OneFingerUp))
	ctx := context.Background()

	assert.Equal(t, ActionMute, d.OnConfirmedGesture(ctx, gesture.TwoFingerSign, at(0)).Action)

	res := d.OnConfirmedGesture(ctx, gesture.OneFingerUp, at(1))
	assert.Equal(t, ActionNone, res.Action)
	assert.Equal(t, ReasonCooldown, res.Suppressed)
	assert.Equal(t, binding.UnmuteTrigger, res.Role)

	assert.Equal(t, ActionUnmute, d.OnConfirmedGesture(ctx, gesture.OneFingerUp, at(5)).Action)
	assert.Equal(t, []bool{false, true}, mic.Calls())
}

func TestDispatcher_Unbound(t *testing.T) {
	d, bindings, mic := setup(t)
	require.NoError(t, bindings.Set(binding.MuteTrigger, gesture.TwoFingerSign))
	ctx := context.Background()

	res := d.OnConfirmedGesture(ctx, gesture.OneFingerUp, at(0))
	assert.Equal(t, ActionNone, res.Action)
	assert.Equal(t, ReasonUnbound, res.Suppressed)

	res = d.OnConfirmedGesture(ctx, gesture.None, at(0))
	assert.Equal(t, ReasonUnbound, res.Suppressed)

	_, ok := d.LastActionAt()
	assert.False(t, ok, "unbound gestures must not start the cooldown")
	assert.Empty(t, mic.Calls())

	// The first bound gesture still fires immediately.
	assert.True(t, d.OnConfirmedGesture(ctx, gesture.TwoFingerSign, at(0.5)).Dispatched())
}

func TestDispatcher_NilBindings(t *testing.T) {
	d := New(Config{Logger: logging.NewNop()})
	assert.Equal(t, DefaultCooldown, d.Cooldown())
	assert.Equal(t, ReasonUnbound, d.OnConfirmedGesture(context.Background(), gesture.TwoFingerSign, at(0)).Suppressed)
}

func TestDispatcher_FailedToggleStillCounts(t *testing.T) {
	d, bindings, mic := setup(t)
	require.NoError(t, bindings.Set(binding.MuteTrigger, gesture.TwoFingerSign))
	mic.SetError(device.ErrDeviceUnavailable)
	ctx := context.Background()

	res := d.OnConfirmedGesture(ctx, gesture.TwoFingerSign, at(0))
	assert.Equal(t, ActionMute, res.Action)
	assert.ErrorIs(t, res.ToggleErr, device.ErrDeviceUnavailable)

	last, ok := d.LastActionAt()
	require.True(t, ok)
	assert.Equal(t, at(0), last)

	assert.False(t, d.OnConfirmedGesture(ctx, gesture.TwoFingerSign, at(1)).Dispatched())
	assert.Len(t, mic.Calls(), 1)
}

func TestDispatcher_BindingChangesApplyImmediately(t *testing.T) {
	d, bindings, mic := setup(t)
	ctx := context.Background()

	assert.False(t, d.OnConfirmedGesture(ctx, gesture.OneFingerUp, at(0)).Dispatched())

	require.NoError(t, bindings.Set(binding.UnmuteTrigger, gesture.OneFingerUp))
	assert.Equal(t, ActionUnmute, d.OnConfirmedGesture(ctx, gesture.OneFingerUp, at(0.1)).Action)
	assert.Equal(t, []bool{true}, mic.Calls())
}

func TestDispatcher_Reset(t *testing.T) {
	d, bindings, _ := setup(t)
	require.NoError(t, bindings.Set(binding.MuteTrigger, gesture.TwoFingerSign))
	ctx := context.Background()

	d.OnConfirmedGesture(ctx, gesture.TwoFingerSign, at(0))
	d.Reset()
	assert.True(t, d.OnConfirmedGesture(ctx, gesture.TwoFingerSign, at(1)).Dispatched())
}

func TestDispatcher_ConcurrentConfirmationsFireOnce(t *testing.T) {
	d, bindings, mic := setup(t)
	require.NoError(t, bindings.Set(binding.MuteTrigger, gesture.TwoFingerSign))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.OnConfirmedGesture(context.Background(), gesture.TwoFingerSign, at(0))
		}()
	}
	wg.Wait()

	assert.Len(t, mic.Calls(), 1)
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "none", ActionNone.String())
	assert.Equal(t, "mute", ActionMute.String())
	assert.Equal(t, "unmute", ActionUnmute.String())
}
