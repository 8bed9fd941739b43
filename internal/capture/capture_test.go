package capture

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/detector"
)

func TestNewCamera(t *testing.T) {
	for _, id := range []int{0, 1, 2} {
		cam := NewCamera(id)
		require.NotNil(t, cam)
		assert.Equal(t, DefaultFPS, cam.FPS())
		assert.False(t, cam.IsOpen(), "camera should not be running initially")
	}
}

func TestCamera_ReadBeforeOpen(t *testing.T) {
	_, err := NewCamera(0).ReadFrame()
	assert.ErrorIs(t, err, ErrCameraNotOpen)
}

func TestCamera_SetFPS(t *testing.T) {
	cam := NewCamera(0)
	cam.SetFPS(30)
	assert.Equal(t, 30, cam.FPS())
	cam.SetFPS(0)
	cam.SetFPS(-1)
	assert.Equal(t, 30, cam.FPS())
	assert.NoError(t, cam.Close())
}

func TestMockCamera_Playback(t *testing.T) {
	cam := NewMockCamera(2, false)

	_, err := cam.ReadFrame()
	assert.ErrorIs(t, err, ErrCameraNotOpen)

	require.NoError(t, cam.Open())
	defer cam.Close()

	for i := 0; i < 2; i++ {
		f, err := cam.ReadFrame()
		require.NoError(t, err)
		assert.False(t, f.Empty())
		f.Close()
	}

	_, err = cam.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, cam.Reads())
}

func TestMockCamera_Loop(t *testing.T) {
	cam := NewMockCamera(1, true)
	require.NoError(t, cam.Open())
	defer cam.Close()

	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		require.NoError(t, err, "iteration %d", i)
		f.Close()
	}
}

func TestHandSource_FirstHand(t *testing.T) {
	cam := NewMockCamera(3, false)
	require.NoError(t, cam.Open())

	det := detector.NewMockDetector()
	v, up := detector.VSignLandmarks(), detector.OneFingerUpLandmarks()
	det.SetHands([]detector.HandLandmarks{v, up})

	src := NewHandSource(cam, det)
	defer src.Close()
	ctx := context.Background()

	hand, err := src.NextFrame(ctx)
	require.NoError(t, err)
	require.NotNil(t, hand)
	assert.Equal(t, v.Points, hand.Points)

	det.SetHands(nil)
	hand, err = src.NextFrame(ctx)
	require.NoError(t, err)
	assert.Nil(t, hand)

	det.SetError(errors.New("model crashed"))
	_, err = src.NextFrame(ctx)
	assert.Error(t, err)

	_, err = src.NextFrame(ctx)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 3, det.Calls())
}

func TestHandSource_CancelledContext(t *testing.T) {
	cam := NewMockCamera(1, true)
	require.NoError(t, cam.Open())
	src := NewHandSource(cam, detector.NewMockDetector())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.NextFrame(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, cam.Reads())
}

func TestReplaySource(t *testing.T) {
	v := detector.VSignLandmarks()
	src := NewReplaySource([]*detector.HandLandmarks{&v, nil}, false)
	ctx := context.Background()

	hand, err := src.NextFrame(ctx)
	require.NoError(t, err)
	require.NotNil(t, hand)
	hand.Points[0].X = 99
	assert.NotEqual(t, 99.0, v.Points[0].X, "replayed frames must be copies")

	hand, err = src.NextFrame(ctx)
	require.NoError(t, err)
	assert.Nil(t, hand)

	_, err = src.NextFrame(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReplaySource_Loop(t *testing.T) {
	v := detector.VSignLandmarks()
	src := NewReplaySource([]*detector.HandLandmarks{&v}, true)
	for i := 0; i < 3; i++ {
		hand, err := src.NextFrame(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, hand)
	}

	_, err := NewReplaySource(nil, true).NextFrame(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestLatest_ReplacesStaleSample(t *testing.T) {
	l := NewLatest()
	base := time.Now()

	assert.False(t, l.Put(Sample{At: base}))
	assert.True(t, l.Put(Sample{At: base.Add(time.Second)}))
	assert.True(t, l.Put(Sample{At: base.Add(2 * time.Second)}))
	assert.EqualValues(t, 2, l.Dropped())

	s, err := l.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, base.Add(2*time.Second), s.At)

	select {
	case <-l.C():
		t.Fatal("slot should be empty after Get")
	default:
	}
}

func TestLatest_GetCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := NewLatest().Get(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLatest_ProducerNeverBlocks(t *testing.T) {
	l := NewLatest()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			l.Put(Sample{At: time.Unix(int64(i), 0)})
		}
	}()
	wg.Wait()

	s, err := l.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Unix(999, 0), s.At)
}
