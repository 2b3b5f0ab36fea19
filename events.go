package sn

import "github.com/gogpu/sn/internal/xproto"

// LauncherEventKind enumerates the events a launcher context can deliver
// to its owner.
type LauncherEventKind int

const (
	LauncherCanceled LauncherEventKind = iota
	LauncherCompleted
	LauncherPulse
)

func (k LauncherEventKind) String() string {
	switch k {
	case LauncherCanceled:
		return "Canceled"
	case LauncherCompleted:
		return "Completed"
	case LauncherPulse:
		return "Pulse"
	default:
		return "Unknown"
	}
}

// LauncherEvent is delivered to a launcher context's callback.
type LauncherEvent struct {
	Kind    LauncherEventKind
	Context *LauncherContext
	Time    xproto.Timestamp
}

// LauncherCallback receives events for one launcher context.
type LauncherCallback func(ev LauncherEvent)

// MonitorEventKind enumerates the events a monitor context can observe.
type MonitorEventKind int

const (
	MonitorInitiated MonitorEventKind = iota
	MonitorCompleted
	MonitorCanceled
	MonitorPulse
	MonitorGeometryChanged
	MonitorPidChanged
	MonitorWorkspaceChanged
	// MonitorMetadataChanged is synthesized in addition to, and never
	// instead of, the write-once semantics of the xmessage change: path —
	// it fires once when a write-once field (BIN, NAME, ICON, WMCLASS,
	// HOSTNAME) first gets populated.
	MonitorMetadataChanged
)

func (k MonitorEventKind) String() string {
	switch k {
	case MonitorInitiated:
		return "Initiated"
	case MonitorCompleted:
		return "Completed"
	case MonitorCanceled:
		return "Canceled"
	case MonitorPulse:
		return "Pulse"
	case MonitorGeometryChanged:
		return "GeometryChanged"
	case MonitorPidChanged:
		return "PidChanged"
	case MonitorWorkspaceChanged:
		return "WorkspaceChanged"
	case MonitorMetadataChanged:
		return "MetadataChanged"
	default:
		return "Unknown"
	}
}

// MonitorEvent is delivered to a monitor context's callback.
type MonitorEvent struct {
	Kind     MonitorEventKind
	Sequence *Sequence
}

// MonitorCallback receives events for one monitor context.
type MonitorCallback func(ev MonitorEvent)
