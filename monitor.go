package sn

import (
	"go.uber.org/zap"

	"github.com/gogpu/sn/internal/snmsg"
	"github.com/gogpu/sn/internal/xproto"
)

// Sequence is the monitor's mirror of one in-flight launch. For launches
// observed only through xmessage (no launch window), Window is zero.
type Sequence struct {
	ID             string
	Window         xproto.ResourceID
	CreationSerial uint64

	Canceled  bool
	Completed bool

	LaunchType     LaunchType
	HasLaunchType  bool
	Name           string
	Description    string
	ResourceClass  string
	ResourceName   string
	WindowTitle    string
	Desktop        uint32
	HasDesktop     bool
	BinaryName     string
	Hostname       string
	IconName       string
	GeometryWindow xproto.ResourceID
	HasGeomWindow  bool
	SupportsCancel bool
	Geometry       [4]uint32
	HasGeometry    bool
	PID            uint32
	HasPID         bool
}

// MonitorContext is a subscription held by a monitor application. It only
// observes sequences whose creation serial is at or after its own — a
// monitor that starts watching mid-session never sees stale launches.
type MonitorContext struct {
	display        *Display
	creationSerial uint64
	callback       MonitorCallback
}

// NewMonitorContext creates a subscription snapshotting the runtime's
// current sequence-serial counter, and registers it so future dispatch
// considers it.
func NewMonitorContext(display *Display, callback MonitorCallback) *MonitorContext {
	m := &MonitorContext{
		display:        display,
		creationSerial: display.rt.peekNextSerial(),
		callback:       callback,
	}
	display.rt.addMonitor(m)
	return m
}

// Release deregisters the context from its runtime.
func (m *MonitorContext) Release() {
	m.display.rt.removeMonitor(m)
}

func monitorLog() *zap.Logger { return zap.L().Named("sn.monitor") }

// dispatchMonitor synthesizes monitor-side events from one X event.
func (d *Display) dispatchMonitor(ev xproto.Event) bool {
	switch e := ev.(type) {
	case *xproto.ClientMessageEvent:
		switch e.Type {
		case d.atoms.Initiate:
			if _, exists := d.rt.sequenceByWindow(e.Window); exists {
				return false // duplicate initiation, swallowed
			}
			seq, ok := d.newSequenceFromWindow(e.Window)
			if !ok {
				return false
			}
			d.dispatchToMonitors(MonitorInitiated, seq)
			return true

		case d.atoms.Pulse:
			seq, ok := d.rt.sequenceByWindow(e.Window)
			if !ok {
				return false
			}
			d.dispatchToMonitors(MonitorPulse, seq)
			return true
		}
		return false

	case *xproto.PropertyNotifyEvent:
		if e.State != xproto.PropertyNewValue {
			return false
		}
		seq, ok := d.rt.sequenceByWindow(e.Window)
		if !ok {
			return false
		}
		switch e.Atom {
		case d.atoms.Canceled:
			d.dispatchTerminalToMonitors(MonitorCanceled, seq)
			return true
		case d.atoms.Complete:
			d.dispatchTerminalToMonitors(MonitorCompleted, seq)
			return true
		case d.atoms.Geometry:
			d.refreshGeometry(seq)
			d.dispatchToMonitors(MonitorGeometryChanged, seq)
			return true
		case d.atoms.PID:
			d.refreshPID(seq)
			d.dispatchToMonitors(MonitorPidChanged, seq)
			return true
		}
		return false

	case *xproto.DestroyNotifyEvent:
		seq, ok := d.rt.sequenceByWindow(e.Window)
		if !ok {
			return false
		}
		d.dispatchTerminalToMonitors(MonitorCompleted, seq)
		return true
	}
	return false
}

func (d *Display) refreshGeometry(seq *Sequence) {
	if vals, ok := d.getCardinalList(seq.Window, d.atoms.Geometry); ok && len(vals) >= 4 {
		seq.Geometry = [4]uint32{vals[0], vals[1], vals[2], vals[3]}
		seq.HasGeometry = true
	}
}

func (d *Display) refreshPID(seq *Sequence) {
	if v, ok := d.getCardinal(seq.Window, d.atoms.PID); ok {
		seq.PID = v
		seq.HasPID = true
	}
}

// newSequenceFromWindow implements new-sequence(display, launch-window):
// select PropertyChangeMask|StructureNotifyMask, read the mandatory ID,
// then the rest of the fixed and mutable properties.
func (d *Display) newSequenceFromWindow(window xproto.ResourceID) (*Sequence, bool) {
	d.PushTrap()
	selErr := d.conn.SelectPropertyAndStructureNotify(window)
	popErr := d.PopTrap()
	if selErr != nil || popErr != nil {
		return nil, false
	}

	id, ok := d.getString(window, d.atoms.ID)
	if !ok {
		return nil, false
	}

	seq := &Sequence{
		ID:             id,
		Window:         window,
		CreationSerial: d.rt.nextSequenceSerial(),
	}

	if name, ok := d.getUTF8String(window, d.atoms.Name, nil); ok {
		seq.Name = name
	}
	if desc, ok := d.getUTF8String(window, d.atoms.Description, nil); ok {
		seq.Description = desc
	}
	if v, ok := d.getString(window, d.atoms.LegacyResClass); ok {
		seq.ResourceClass = v
	}
	if v, ok := d.getString(window, d.atoms.LegacyResName); ok {
		seq.ResourceName = v
	}
	if v, ok := d.getString(window, d.atoms.LegacyName); ok {
		seq.WindowTitle = v
	}
	if v, ok := d.getCardinal(window, d.atoms.Desktop); ok {
		seq.Desktop, seq.HasDesktop = v, true
	}
	if v, ok := d.getString(window, d.atoms.BinaryName); ok {
		seq.BinaryName = v
	}
	if v, ok := d.getString(window, d.atoms.Hostname); ok {
		seq.Hostname = v
	}
	if v, ok := d.getString(window, d.atoms.IconName); ok {
		seq.IconName = v
	}
	if v, ok := d.getWindow(window, d.atoms.GeometryWindow); ok {
		seq.GeometryWindow, seq.HasGeomWindow = v, true
	}
	if v, ok := d.getCardinal(window, d.atoms.SupportsCancel); ok {
		seq.SupportsCancel = v != 0
	}

	d.refreshGeometry(seq)
	d.refreshPID(seq)

	d.rt.putSequence(seq)
	return seq, true
}

// dispatchToMonitors clones ev into every eligible monitor context and
// delivers it — the two-phase "snapshot contexts, then dispatch" pattern
// that keeps reentrant context/sequence mutation from corrupting the
// iteration.
func (d *Display) dispatchToMonitors(kind MonitorEventKind, seq *Sequence) {
	for _, m := range d.rt.monitorsSnapshot() {
		if m.creationSerial > seq.CreationSerial {
			continue
		}
		if m.callback != nil {
			m.callback(MonitorEvent{Kind: kind, Sequence: seq})
		}
	}
}

// dispatchTerminalToMonitors enforces the same at-most-once terminal
// delivery semantics as the launcher side, then removes a completed
// sequence from the registry once delivery has happened.
func (d *Display) dispatchTerminalToMonitors(kind MonitorEventKind, seq *Sequence) {
	switch kind {
	case MonitorCanceled:
		if seq.Canceled {
			return
		}
		seq.Canceled = true
	case MonitorCompleted:
		if seq.Completed {
			return
		}
		seq.Completed = true
	}
	d.dispatchToMonitors(kind, seq)
	if kind == MonitorCompleted {
		d.rt.removeSequence(seq)
	}
}

// handleXmessageRecord is the xmessage-path entry point, registered once
// per Display against the _KDE_STARTUP_INFO atom. It implements the
// new:/change:/remove: record handling of the xmessage sidechannel.
func (d *Display) handleXmessageRecord(raw string) {
	msg, err := snmsg.Parse(raw)
	if err != nil {
		monitorLog().Debug("dropping malformed xmessage record", zap.Error(err))
		return
	}

	id, ok := msg.Get("ID")
	if !ok {
		monitorLog().Debug("xmessage record missing ID", zap.String("prefix", msg.Prefix))
		return
	}

	switch msg.Prefix {
	case "new":
		if _, exists := d.rt.sequenceByID(id); !exists {
			seq := &Sequence{ID: id, CreationSerial: d.rt.nextSequenceSerial()}
			d.rt.putSequence(seq)
			d.dispatchToMonitors(MonitorInitiated, seq)
		}
		d.applyXmessageFields(id, msg)

	case "change":
		d.applyXmessageFields(id, msg)

	case "remove":
		if seq, ok := d.rt.sequenceByID(id); ok {
			d.dispatchTerminalToMonitors(MonitorCompleted, seq)
		}

	default:
		monitorLog().Debug("unknown xmessage prefix", zap.String("prefix", msg.Prefix))
	}
}

// applyXmessageFields implements the write-once string population and the
// two mutable fields (DESKTOP, PID) that raise their own change events.
func (d *Display) applyXmessageFields(id string, msg *snmsg.Message) {
	seq, ok := d.rt.sequenceByID(id)
	if !ok {
		return
	}

	changed := false
	if v, present := msg.Get("BIN"); present && seq.BinaryName == "" {
		seq.BinaryName = v
		changed = true
	}
	if v, present := msg.Get("NAME"); present && seq.Name == "" {
		seq.Name = v
		changed = true
	}
	if v, present := msg.Get("ICON"); present && seq.IconName == "" {
		seq.IconName = v
		changed = true
	}
	if v, present := msg.Get("WMCLASS"); present && seq.ResourceClass == "" {
		seq.ResourceClass = v
		changed = true
	}
	if v, present := msg.Get("HOSTNAME"); present && seq.Hostname == "" {
		seq.Hostname = v
		changed = true
	}
	if changed {
		d.dispatchToMonitors(MonitorMetadataChanged, seq)
	}

	if v, present := msg.Get("DESKTOP"); present {
		if n, err := parseUint32(v); err == nil {
			seq.Desktop, seq.HasDesktop = n, true
			d.dispatchToMonitors(MonitorWorkspaceChanged, seq)
		}
	}
	if v, present := msg.Get("PID"); present {
		if n, err := parseUint32(v); err == nil && n > 0 {
			seq.PID, seq.HasPID = n, true
			d.dispatchToMonitors(MonitorPidChanged, seq)
		}
	}
}

func parseUint32(s string) (uint32, error) {
	var n uint64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrPropertyAbsent
		}
		n = n*10 + uint64(r-'0')
	}
	return uint32(n), nil
}
