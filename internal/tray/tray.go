// Package tray provides a system tray presence for mudra: it shows the
// active gesture and toggles detection.
package tray

import (
	"context"
	"sync"

	"github.com/getlantern/systray"
	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/dispatch"
	"github.com/ayusman/mudra/internal/gesture"
)

const title = "Mudra"

// Tray is the system tray application. It is also a dispatch sink that keeps
// the menu in step with the active gesture.
type Tray struct {
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()
	enabled    bool
	active     gesture.Kind
	log        *zap.Logger
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuActive *systray.MenuItem
}

// New creates a new Tray with detection enabled.
func New(log *zap.Logger) *Tray {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tray{
		enabled: true,
		log:     log.Named("tray"),
	}
}

// OnToggle sets the callback run when detection is toggled from the menu.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback run when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback run when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray. It blocks until Quit is called and must run
// on the main goroutine on macOS.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the tray event loop.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle(title)
	systray.SetTooltip("Mudra gesture detection")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture detection")
	systray.AddSeparator()
	t.menuActive = systray.AddMenuItem(activeTitle(t.active), "Active gesture")
	t.menuActive.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.SetEnabled(!t.IsEnabled(), true)
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	t.log.Debug("tray exited")
}

// SetEnabled updates the enabled state. When notify is true the toggle
// callback runs, outside the lock.
func (t *Tray) SetEnabled(enabled, notify bool) {
	t.mu.Lock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	t.log.Info("detection toggled", zap.Bool("enabled", enabled))
	if notify && callback != nil {
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

// Notify implements dispatch.Sink by tracking the active gesture.
func (t *Tray) Notify(_ context.Context, n dispatch.Notification) error {
	active := gesture.KindNone
	if n.Action == dispatch.ActionReveal {
		active = n.Gesture
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = active
	if t.menuActive != nil {
		t.menuActive.SetTitle(activeTitle(active))
		if active == gesture.KindNone {
			systray.SetTitle(title)
		} else {
			systray.SetTitle(title + " ● " + active.String())
		}
	}
	return nil
}

// Active returns the gesture the tray currently shows.
func (t *Tray) Active() gesture.Kind {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func activeTitle(k gesture.Kind) string {
	return "Active: " + k.String()
}
