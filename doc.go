// Package sn implements the freedesktop startup-notification protocol: the
// mechanism a launcher (file manager, menu), a launchee (the started
// program) and a monitor (panel, window manager, "busy cursor" daemon) use
// to coordinate user-visible feedback during application launch.
//
// State for an in-flight launch lives in X server window properties on a
// dedicated launch window plus a textual sidechannel ("xmessage") carried
// in ClientMessage fragments; this package never runs an event loop
// itself. Callers either use Open, which dials $DISPLAY and builds a fresh
// *Runtime and *Display, or dial an *xproto.Conn themselves and build the
// *Display with NewDisplay; either way they pump Conn.ReadEvent results
// into Display.ProcessEvent from their own event loop.
//
// # Roles
//
//   - Launcher: sn.NewLauncher, then set attributes, then Initiate.
//   - Launchee: sn.NewLauncheeFromEnvironment, then Pulse/Cancel/Complete.
//   - Monitor: sn.NewMonitorContext, observing Display.ProcessEvent output.
//
// # Scoping
//
// The original protocol keeps its launcher and monitor registries as
// process-wide globals. This package scopes them to a *Runtime instead,
// so multiple independent displays (or test harnesses) never share state.
package sn
