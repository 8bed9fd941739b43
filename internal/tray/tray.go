// Package tray provides the system tray menu: microphone state, last
// action, detection toggle and quit.
package tray

import (
	"sync"
	"time"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()
	enabled    bool
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle     *systray.MenuItem
	menuMic        *systray.MenuItem
	menuLastAction *systray.MenuItem
}

// New creates a new Tray with detection enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application. It blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra gesture mute control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture detection")
	systray.AddSeparator()

	t.menuMic = systray.AddMenuItem(micTitle(false, false), "Microphone state")
	t.menuMic.Disable()
	t.menuLastAction = systray.AddMenuItem(lastActionTitle("", time.Time{}), "Last dispatched action")
	t.menuLastAction.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	t.menuToggle.SetTitle(toggleTitle(enabled))
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetMicrophone updates the microphone line. known is false until a toggle
// has succeeded.
func (t *Tray) SetMicrophone(enabled, known bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuMic == nil {
		return
	}
	t.menuMic.SetTitle(micTitle(enabled, known))
	if known && !enabled {
		systray.SetTitle("Mudra (muted)")
	} else {
		systray.SetTitle("Mudra")
	}
}

// SetLastAction updates the last action display in the menu.
func (t *Tray) SetLastAction(action string, at time.Time) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastAction != nil {
		t.menuLastAction.SetTitle(lastActionTitle(action, at))
	}
}

// SetEnabled shows a detection state changed elsewhere, such as through the
// HTTP API. It does not call the toggle callback.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Detection enabled"
	}
	return "○ Detection disabled"
}

func micTitle(enabled, known bool) string {
	switch {
	case !known:
		return "Microphone: unknown"
	case enabled:
		return "Microphone: live"
	default:
		return "Microphone: muted"
	}
}

func lastActionTitle(action string, at time.Time) string {
	if action == "" {
		return "Last: none"
	}
	return "Last: " + action + " at " + at.Format("15:04:05")
}
