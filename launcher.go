package sn

import (
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/gogpu/sn/internal/launchid"
	"github.com/gogpu/sn/internal/xproto"
)

// LaunchType is one of the five launch origins the protocol distinguishes.
type LaunchType int

const (
	LaunchTypeOther LaunchType = iota
	LaunchTypeDockIcon
	LaunchTypeDesktopIcon
	LaunchTypeMenu
	LaunchTypeKeyShortcut
)

func (t LaunchType) atomName() string {
	switch t {
	case LaunchTypeDockIcon:
		return xproto.AtomNetLaunchTypeDockIcon
	case LaunchTypeDesktopIcon:
		return xproto.AtomNetLaunchTypeDesktopIcon
	case LaunchTypeMenu:
		return xproto.AtomNetLaunchTypeMenu
	case LaunchTypeKeyShortcut:
		return xproto.AtomNetLaunchTypeKeyShortcut
	default:
		return xproto.AtomNetLaunchTypeOther
	}
}

// LauncherContext is owned by the launching application. Configure it with
// the Set* methods, then call Initiate exactly once; afterwards further
// Set* calls are no-ops logged as misuse.
type LauncherContext struct {
	display *Display

	mu sync.Mutex

	initiated bool
	canceled  bool
	completed bool

	launchID     string
	launchWindow xproto.ResourceID

	launchType     LaunchType
	name           string
	description    string
	workspace      uint32
	hasWorkspace   bool
	resourceClass  string
	resourceName   string
	windowTitle    string
	binaryName     string
	iconName       string
	pid            uint32
	hasPID         bool
	supportsCancel bool
	geometry       [4]uint32
	hasGeometry    bool
	geometryWindow xproto.ResourceID
	hasGeomWindow  bool

	callback LauncherCallback
}

// NewLauncher creates an unconfigured, uninitiated launcher context bound
// to display and registers it in the display's runtime so inbound events
// (Pulse, Canceled, Completed, DestroyNotify) can find it.
func NewLauncher(display *Display, callback LauncherCallback) *LauncherContext {
	c := &LauncherContext{display: display, callback: callback}
	display.rt.addLauncher(c)
	return c
}

func (c *LauncherContext) log() *zap.Logger { return zap.L().Named("sn.launcher") }

func (c *LauncherContext) guardNotInitiated(op string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initiated {
		c.log().Warn("ignoring setter after initiation", zap.String("op", op))
		return false
	}
	return true
}

// SetType sets the launch-type hint. No-op if already initiated.
func (c *LauncherContext) SetType(t LaunchType) {
	if !c.guardNotInitiated("SetType") {
		return
	}
	c.mu.Lock()
	c.launchType = t
	c.mu.Unlock()
}

// SetGeometryWindow sets the window whose geometry should be used as the
// launch feedback hint. No-op if already initiated.
func (c *LauncherContext) SetGeometryWindow(w xproto.ResourceID) {
	if !c.guardNotInitiated("SetGeometryWindow") {
		return
	}
	c.mu.Lock()
	c.geometryWindow, c.hasGeomWindow = w, true
	c.mu.Unlock()
}

// SetGeometry sets the x, y, width, height feedback hint.
func (c *LauncherContext) SetGeometry(x, y, w, h uint32) {
	if !c.guardNotInitiated("SetGeometry") {
		return
	}
	c.mu.Lock()
	c.geometry, c.hasGeometry = [4]uint32{x, y, w, h}, true
	c.mu.Unlock()
}

// SetSupportsCancel declares whether the launcher will honor cancel().
func (c *LauncherContext) SetSupportsCancel(v bool) {
	if !c.guardNotInitiated("SetSupportsCancel") {
		return
	}
	c.mu.Lock()
	c.supportsCancel = v
	c.mu.Unlock()
}

// SetName sets the user-visible launch name.
func (c *LauncherContext) SetName(name string) {
	if !c.guardNotInitiated("SetName") {
		return
	}
	c.mu.Lock()
	c.name = name
	c.mu.Unlock()
}

// SetDescription sets the user-visible launch description.
func (c *LauncherContext) SetDescription(desc string) {
	if !c.guardNotInitiated("SetDescription") {
		return
	}
	c.mu.Lock()
	c.description = desc
	c.mu.Unlock()
}

// SetWorkspace sets the target workspace/desktop number.
func (c *LauncherContext) SetWorkspace(ws uint32) {
	if !c.guardNotInitiated("SetWorkspace") {
		return
	}
	c.mu.Lock()
	c.workspace, c.hasWorkspace = ws, true
	c.mu.Unlock()
}

// SetLegacyResourceClass sets the ICCCM WM_CLASS resource class hint.
func (c *LauncherContext) SetLegacyResourceClass(v string) {
	if !c.guardNotInitiated("SetLegacyResourceClass") {
		return
	}
	c.mu.Lock()
	c.resourceClass = v
	c.mu.Unlock()
}

// SetLegacyResourceName sets the ICCCM WM_CLASS resource name hint.
func (c *LauncherContext) SetLegacyResourceName(v string) {
	if !c.guardNotInitiated("SetLegacyResourceName") {
		return
	}
	c.mu.Lock()
	c.resourceName = v
	c.mu.Unlock()
}

// SetLegacyName sets the ICCCM WM_NAME window-title hint.
func (c *LauncherContext) SetLegacyName(v string) {
	if !c.guardNotInitiated("SetLegacyName") {
		return
	}
	c.mu.Lock()
	c.windowTitle = v
	c.mu.Unlock()
}

// SetBinaryName sets the launched binary's identifier.
func (c *LauncherContext) SetBinaryName(v string) {
	if !c.guardNotInitiated("SetBinaryName") {
		return
	}
	c.mu.Lock()
	c.binaryName = v
	c.mu.Unlock()
}

// SetIconName sets the icon identifier shown for the launch.
func (c *LauncherContext) SetIconName(v string) {
	if !c.guardNotInitiated("SetIconName") {
		return
	}
	c.mu.Lock()
	c.iconName = v
	c.mu.Unlock()
}

// SetPID updates the launched process's pid. Unlike the other setters this
// is valid at any time: if the context has already been initiated, the
// new value is also written to the live _NET_LAUNCH_PID property.
func (c *LauncherContext) SetPID(pid uint32) error {
	c.mu.Lock()
	c.pid, c.hasPID = pid, true
	initiated := c.initiated
	window := c.launchWindow
	c.mu.Unlock()

	if !initiated {
		return nil
	}
	return c.display.setCardinal(window, c.display.atoms.PID, pid)
}

// GetInitiated, GetCanceled and GetCompleted read the context's lifecycle
// flags.
func (c *LauncherContext) GetInitiated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initiated
}

func (c *LauncherContext) GetCanceled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canceled
}

func (c *LauncherContext) GetCompleted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

// LaunchID returns the ID built at Initiate, or "" before that.
func (c *LauncherContext) LaunchID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.launchID
}

// LaunchWindow returns the launch window created at Initiate.
func (c *LauncherContext) LaunchWindow() xproto.ResourceID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.launchWindow
}

// Initiate builds the launch ID, creates the launch window, writes every
// configured property under one trapped batch, and broadcasts
// _NET_LAUNCH_INITIATE to every screen root.
func (c *LauncherContext) Initiate(launcherName, launcheeName string, timestamp uint32) error {
	c.mu.Lock()
	if c.initiated {
		c.mu.Unlock()
		c.log().Warn("Initiate called twice", zap.String("launchID", c.launchID))
		return ErrAlreadyInitiated
	}
	c.mu.Unlock()

	id := launchid.New(launcherName, launcheeName, timestamp)

	screen := c.display.conn.DefaultScreen()
	window, err := c.display.conn.CreateOverrideRedirectWindow(screen)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.launchID = id
	c.launchWindow = window
	c.mu.Unlock()

	atoms := c.display.atoms
	d := c.display

	d.PushTrap()
	err = d.rawSetString(window, atoms.ID, id)
	err = firstErr(err, d.rawSetString(window, atoms.Hostname, hostnameOrEmpty()))
	err = firstErr(err, d.rawSetAtomList(window, atoms.Type, []xproto.Atom{atomFor(d, c.launchType.atomName())}))

	c.mu.Lock()
	if c.name != "" {
		err = firstErr(err, d.rawSetUTF8String(window, atoms.Name, c.name, nil))
	}
	if c.description != "" {
		err = firstErr(err, d.rawSetUTF8String(window, atoms.Description, c.description, nil))
	}
	if c.hasWorkspace {
		err = firstErr(err, d.rawSetCardinal(window, atoms.Desktop, c.workspace))
	}
	if c.resourceClass != "" {
		err = firstErr(err, d.rawSetString(window, atoms.LegacyResClass, c.resourceClass))
	}
	if c.resourceName != "" {
		err = firstErr(err, d.rawSetString(window, atoms.LegacyResName, c.resourceName))
	}
	if c.windowTitle != "" {
		err = firstErr(err, d.rawSetString(window, atoms.LegacyName, c.windowTitle))
	}
	if c.binaryName != "" {
		err = firstErr(err, d.rawSetString(window, atoms.BinaryName, c.binaryName))
	}
	if c.iconName != "" {
		err = firstErr(err, d.rawSetString(window, atoms.IconName, c.iconName))
	}
	if c.hasPID {
		err = firstErr(err, d.rawSetCardinal(window, atoms.PID, c.pid))
	}
	err = firstErr(err, d.rawSetCardinal(window, atoms.SupportsCancel, boolToCardinal(c.supportsCancel)))
	if c.hasGeometry {
		err = firstErr(err, d.rawSetCardinalList(window, atoms.Geometry, c.geometry[:]))
	}
	if c.hasGeomWindow {
		err = firstErr(err, d.rawSetWindow(window, atoms.GeometryWindow, c.geometryWindow))
	}
	c.mu.Unlock()

	if popErr := d.PopTrap(); err == nil {
		err = popErr
	}
	if err != nil {
		return err
	}

	var data [5]uint32
	data[0] = timestamp
	for _, root := range d.conn.RootWindows() {
		if sendErr := d.conn.SendClientMessage(root, window, atoms.Initiate, false, xproto.EventMaskPropertyChange, data); sendErr != nil {
			c.log().Warn("failed to broadcast initiation", zap.Error(sendErr))
		}
	}

	c.mu.Lock()
	c.initiated = true
	c.mu.Unlock()
	return nil
}

func firstErr(existing, candidate error) error {
	if existing != nil {
		return existing
	}
	return candidate
}

func atomFor(d *Display, name string) xproto.Atom {
	a, err := d.conn.InternAtom(name, false)
	if err != nil {
		return xproto.AtomNone
	}
	return a
}

func boolToCardinal(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func hostnameOrEmpty() string {
	h, err := os.Hostname()
	if err != nil {
		return ""
	}
	return h
}

// Cancel sets _NET_LAUNCH_CANCELED on the launch window. Only valid after
// Initiate.
func (c *LauncherContext) Cancel() error {
	c.mu.Lock()
	initiated := c.initiated
	window := c.launchWindow
	c.mu.Unlock()
	if !initiated {
		return ErrNotInitiated
	}
	return c.display.setCardinal(window, c.display.atoms.Canceled, 0)
}

// Complete sets _NET_LAUNCH_COMPLETE on the launch window. Only valid
// after Initiate.
func (c *LauncherContext) Complete() error {
	c.mu.Lock()
	initiated := c.initiated
	window := c.launchWindow
	c.mu.Unlock()
	if !initiated {
		return ErrNotInitiated
	}
	return c.display.setCardinal(window, c.display.atoms.Complete, 0)
}

// SetupChildProcess exports DESKTOP_LAUNCH_ID and DESKTOP_LAUNCH_WINDOW
// into env, in the post-fork-pre-exec shape a caller would pass to
// os/exec.Cmd.Env.
func (c *LauncherContext) SetupChildProcess(env []string) ([]string, error) {
	c.mu.Lock()
	initiated := c.initiated
	id := c.launchID
	window := c.launchWindow
	c.mu.Unlock()
	if !initiated {
		return env, ErrNotInitiated
	}
	env = append(env, "DESKTOP_LAUNCH_ID="+id)
	env = append(env, "DESKTOP_LAUNCH_WINDOW="+hexWindow(window))
	return env, nil
}

// Release destroys the launch window and deregisters the context from its
// runtime. Call once a launch has reached a terminal state.
func (c *LauncherContext) Release() {
	c.mu.Lock()
	window := c.launchWindow
	c.mu.Unlock()
	if window != 0 {
		_ = c.display.conn.DestroyWindow(window)
	}
	c.display.rt.removeLauncher(c)
}

// dispatchLauncher synthesizes launcher-side events from one X event and
// delivers them to every matching, not-yet-completed launcher context.
func (d *Display) dispatchLauncher(ev xproto.Event) bool {
	consumed := false
	for _, c := range d.rt.launchersSnapshot() {
		if d.deliverLauncherEvent(c, ev) {
			consumed = true
		}
	}
	return consumed
}

func (d *Display) deliverLauncherEvent(c *LauncherContext, ev xproto.Event) bool {
	c.mu.Lock()
	window := c.launchWindow
	initiated := c.initiated
	completed := c.completed
	c.mu.Unlock()
	if !initiated || completed {
		return false
	}

	switch e := ev.(type) {
	case *xproto.PropertyNotifyEvent:
		if e.Window != window || e.State != xproto.PropertyNewValue {
			return false
		}
		switch e.Atom {
		case d.atoms.Canceled:
			c.deliverTerminal(LauncherCanceled, e.Time)
			return true
		case d.atoms.Complete:
			c.deliverTerminal(LauncherCompleted, e.Time)
			return true
		}
		return false

	case *xproto.ClientMessageEvent:
		if e.Window != window || e.Type != d.atoms.Pulse {
			return false
		}
		c.deliver(LauncherEvent{Kind: LauncherPulse, Context: c, Time: xproto.CurrentTime})
		return true

	case *xproto.DestroyNotifyEvent:
		if e.Window != window {
			return false
		}
		c.deliverTerminal(LauncherCompleted, xproto.CurrentTime)
		return true
	}
	return false
}

// deliverTerminal enforces at-most-once delivery of Canceled/Completed per
// context: the flag check and the set happen under the same lock as the
// delivery decision.
func (c *LauncherContext) deliverTerminal(kind LauncherEventKind, t xproto.Timestamp) {
	c.mu.Lock()
	var already bool
	switch kind {
	case LauncherCanceled:
		already = c.canceled
		c.canceled = true
	case LauncherCompleted:
		already = c.completed
		c.completed = true
	}
	c.mu.Unlock()
	if already {
		return
	}
	c.deliver(LauncherEvent{Kind: kind, Context: c, Time: t})
}

func (c *LauncherContext) deliver(ev LauncherEvent) {
	if c.callback != nil {
		c.callback(ev)
	}
}

func hexWindow(w xproto.ResourceID) string {
	const hexDigits = "0123456789abcdef"
	if w == 0 {
		return "0x0"
	}
	var buf [10]byte
	i := len(buf)
	v := uint32(w)
	for v > 0 {
		i--
		buf[i] = hexDigits[v&0xF]
		v >>= 4
	}
	return "0x" + string(buf[i:])
}
