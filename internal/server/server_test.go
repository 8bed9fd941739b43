package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/binding"
	"github.com/ayusman/mudra/internal/device"
	"github.com/ayusman/mudra/internal/dispatch"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/store"
)

func do(t *testing.T, s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestServer_Health(t *testing.T) {
	s := New(Config{Logger: logging.NewNop()})

	rec := do(t, s, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "uptime")

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		assert.Equal(t, http.StatusMethodNotAllowed, do(t, s, method, "/api/health", "").Code, method)
	}
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{Logger: logging.NewNop()})
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/nonexistent", "").Code)
	// Optional routes are absent without their dependency.
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/bindings", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/metrics", "").Code)
}

func TestServer_Gestures(t *testing.T) {
	s := New(Config{Logger: logging.NewNop()})

	rec := do(t, s, http.MethodGet, "/api/gestures", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		Gestures []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
		} `json:"gestures"`
	}](t, rec)
	require.Len(t, body.Gestures, 2)
	assert.Equal(t, "two_finger_sign", body.Gestures[0].ID)
	assert.Equal(t, "one_finger_up", body.Gestures[1].ID)
}

type bindingsBody struct {
	Bindings []struct {
		Role    string  `json:"role"`
		Gesture *string `json:"gesture"`
	} `json:"bindings"`
}

func (b bindingsBody) gesture(role string) string {
	for _, x := range b.Bindings {
		if x.Role == role && x.Gesture != nil {
			return *x.Gesture
		}
	}
	return ""
}

func TestServer_BindingWorkflow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gesture_settings.json")
	bindings := binding.NewStore(binding.NewFileBackend(path), logging.NewNop())
	s := New(Config{Bindings: bindings, Logger: logging.NewNop()})

	rec := do(t, s, http.MethodGet, "/api/bindings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[bindingsBody](t, rec)
	require.Len(t, body.Bindings, 2)
	assert.Empty(t, body.gesture("mute"))

	rec = do(t, s, http.MethodPut, "/api/bindings/mute", `{"gesture": "✌️"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, gesture.TwoFingerSign, bindings.Get(binding.MuteTrigger))

	rec = do(t, s, http.MethodPut, "/api/bindings/unmute_trigger", `{"gesture": "one_finger_up"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/bindings/unmute", "")
	require.Equal(t, http.StatusOK, rec.Code)
	one := decode[struct {
		Gesture *string `json:"gesture"`
	}](t, rec)
	require.NotNil(t, one.Gesture)
	assert.Equal(t, "one_finger_up", *one.Gesture)

	rec = do(t, s, http.MethodPost, "/api/bindings/save", "")
	require.Equal(t, http.StatusOK, rec.Code)

	// Unsaved edits are discarded by load.
	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/bindings/mute", "").Code)
	assert.Equal(t, gesture.None, bindings.Get(binding.MuteTrigger))

	rec = do(t, s, http.MethodPost, "/api/bindings/load", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[bindingsBody](t, rec)
	assert.Equal(t, "two_finger_sign", body.gesture("mute"))
	assert.Equal(t, "one_finger_up", body.gesture("unmute"))
}

func TestServer_BindingErrors(t *testing.T) {
	bindings := binding.NewStore(nil, logging.NewNop())
	s := New(Config{Bindings: bindings, Logger: logging.NewNop()})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown role", http.MethodPut, "/api/bindings/toggle", `{"gesture": "one_finger_up"}`, http.StatusNotFound},
		{"unknown role get", http.MethodGet, "/api/bindings/toggle", "", http.StatusNotFound},
		{"unknown role delete", http.MethodDelete, "/api/bindings/toggle", "", http.StatusNotFound},
		{"unknown gesture", http.MethodPut, "/api/bindings/mute", `{"gesture": "wave"}`, http.StatusBadRequest},
		{"empty gesture", http.MethodPut, "/api/bindings/mute", `{"gesture": ""}`, http.StatusBadRequest},
		{"bad body", http.MethodPut, "/api/bindings/mute", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, do(t, s, tt.method, tt.path, tt.body).Code)
		})
	}
	assert.Equal(t, binding.Document{}, bindings.Document())
}

func TestServer_BindingSaveError(t *testing.T) {
	bindings := binding.NewStore(&binding.MemoryBackend{Err: assert.AnError}, logging.NewNop())
	s := New(Config{Bindings: bindings, Logger: logging.NewNop()})

	assert.Equal(t, http.StatusInternalServerError, do(t, s, http.MethodPost, "/api/bindings/save", "").Code)
}

func TestServer_Events(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer st.Close()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, st.Events().Create(&store.Event{
			Gesture: "two_finger_sign", Role: "mute", Action: "mute", Succeeded: true,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	s := New(Config{Events: st.Events(), Logger: logging.NewNop()})

	rec := do(t, s, http.MethodGet, "/api/events?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Events []store.Event `json:"events"`
		Total  int           `json:"total"`
	}](t, rec)
	assert.Len(t, body.Events, 2)
	assert.Equal(t, 3, body.Total)
	assert.True(t, body.Events[0].CreatedAt.After(body.Events[1].CreatedAt))

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/events?limit=x", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/events?limit=0", "").Code)
}

type fakeController struct {
	mu      sync.Mutex
	enabled bool
}

func (c *fakeController) Status() app.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return app.Status{Running: true, Enabled: c.enabled, Cooldown: "4s"}
}

func (c *fakeController) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

func TestServer_StatusAndDetection(t *testing.T) {
	c := &fakeController{enabled: true}
	s := New(Config{Controller: c, Logger: logging.NewNop()})

	rec := do(t, s, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[app.Status](t, rec)
	assert.True(t, st.Enabled)
	assert.Equal(t, "4s", st.Cooldown)

	rec = do(t, s, http.MethodPut, "/api/detection", `{"enabled": false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[app.Status](t, rec).Enabled)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPut, "/api/detection", `{}`).Code)
}

func TestServer_StatusFromApp(t *testing.T) {
	a := app.New(app.Config{Microphone: device.NewRecorder(), Logger: logging.NewNop()})
	s := New(Config{Controller: a, Logger: logging.NewNop()})

	rec := do(t, s, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, false, body["running"])
	assert.Nil(t, body["mic_enabled"])
	assert.Equal(t, "1s", body["hold_threshold"])
}

func TestServer_DetectionNotifiesWatchers(t *testing.T) {
	a := app.New(app.Config{Microphone: device.NewRecorder(), Logger: logging.NewNop()})
	var seen []bool
	a.OnEnabledChange(func(enabled bool) { seen = append(seen, enabled) })
	s := New(Config{Controller: a, Logger: logging.NewNop()})

	require.Equal(t, http.StatusOK, do(t, s, http.MethodPut, "/api/detection", `{"enabled": false}`).Code)
	assert.False(t, a.IsEnabled())
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPut, "/api/detection", `{"enabled": true}`).Code)

	assert.Equal(t, []bool{false, true}, seen)
}

func TestServer_Metrics(t *testing.T) {
	m := metrics.New()
	m.Frames.Add(7)
	s := New(Config{Metrics: m, Logger: logging.NewNop()})

	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mudra_frames_total 7")
}

func TestServer_EventStream(t *testing.T) {
	hub := NewHub(logging.NewNop())
	ts := httptest.NewServer(New(Config{Hub: hub, Logger: logging.NewNop()}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	hub.Broadcast(&store.Event{
		ID:        "evt-1",
		Gesture:   string(gesture.OneFingerUp),
		Role:      string(binding.UnmuteTrigger),
		Action:    string(dispatch.ActionUnmute),
		Error:     device.ErrDeviceUnavailable.Error(),
		CreatedAt: at,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var e store.Event
	require.NoError(t, json.NewDecoder(bytes.NewReader(msg)).Decode(&e))
	assert.Equal(t, "evt-1", e.ID)
	assert.Equal(t, "unmute", e.Action)
	assert.Equal(t, "one_finger_up", e.Gesture)
	assert.False(t, e.Succeeded)
	assert.NotEmpty(t, e.Error)
	assert.True(t, at.Equal(e.CreatedAt))

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)
}
