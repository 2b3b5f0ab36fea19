package sn

import (
	"os"
	"strconv"
	"strings"

	"github.com/gogpu/sn/internal/xproto"
)

// LauncheeContext is a thin adapter the launched application uses to
// report progress back to its launcher: it holds no registry entry and
// keeps no subscription, just the launch ID and launch window it read
// from the environment.
type LauncheeContext struct {
	display      *Display
	launchID     string
	launchWindow xproto.ResourceID
}

// NewLauncheeFromEnvironment reads DESKTOP_LAUNCH_ID and
// DESKTOP_LAUNCH_WINDOW, returning ErrMissingEnvironment if either is
// absent or the window parses as 0.
func NewLauncheeFromEnvironment(display *Display) (*LauncheeContext, error) {
	id := os.Getenv("DESKTOP_LAUNCH_ID")
	windowHex := os.Getenv("DESKTOP_LAUNCH_WINDOW")
	if id == "" || windowHex == "" {
		return nil, ErrMissingEnvironment
	}

	trimmed := strings.TrimPrefix(strings.TrimPrefix(windowHex, "0x"), "0X")
	v, err := strconv.ParseUint(trimmed, 16, 32)
	if err != nil || v == 0 {
		return nil, ErrMissingEnvironment
	}

	return &LauncheeContext{
		display:      display,
		launchID:     id,
		launchWindow: xproto.ResourceID(v),
	}, nil
}

// NewLauncheeExplicit builds a launchee context directly, for callers that
// already know the launch ID and window (e.g. forwarded by a wrapper
// process rather than inherited through the environment).
func NewLauncheeExplicit(display *Display, launchID string, window xproto.ResourceID) *LauncheeContext {
	return &LauncheeContext{display: display, launchID: launchID, launchWindow: window}
}

// LaunchID returns the launch ID this launchee is reporting progress for.
func (l *LauncheeContext) LaunchID() string { return l.launchID }

// LaunchWindow returns the launch window identifier.
func (l *LauncheeContext) LaunchWindow() xproto.ResourceID { return l.launchWindow }

// Pulse sends a format-32 _NET_LAUNCH_PULSE ClientMessage directly to the
// launch window, signalling that progress is being made.
func (l *LauncheeContext) Pulse() error {
	var data [5]uint32
	if err := l.display.conn.SendClientMessage(l.launchWindow, l.launchWindow, l.display.atoms.Pulse, false, xproto.EventMaskPropertyChange, data); err != nil {
		return err
	}
	return l.display.conn.Flush()
}

// Cancel sets _NET_LAUNCH_CANCELED on the launch window.
func (l *LauncheeContext) Cancel() error {
	return l.display.setCardinal(l.launchWindow, l.display.atoms.Canceled, 0)
}

// Complete sets _NET_LAUNCH_COMPLETE on the launch window.
func (l *LauncheeContext) Complete() error {
	return l.display.setCardinal(l.launchWindow, l.display.atoms.Complete, 0)
}

// SetupWindow marks an arbitrary window (typically a group-leader window
// created by the launchee) with this launch's ID.
func (l *LauncheeContext) SetupWindow(window xproto.ResourceID) error {
	return l.display.setString(window, l.display.atoms.ID, l.launchID)
}
