package sn

import "testing"

func TestLauncherEventKindString(t *testing.T) {
	cases := map[LauncherEventKind]string{
		LauncherCanceled:        "Canceled",
		LauncherCompleted:       "Completed",
		LauncherPulse:           "Pulse",
		LauncherEventKind(-1):   "Unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("%v.String(): got %q want %q", int(kind), got, want)
		}
	}
}

func TestMonitorEventKindString(t *testing.T) {
	cases := map[MonitorEventKind]string{
		MonitorInitiated:        "Initiated",
		MonitorCompleted:        "Completed",
		MonitorCanceled:         "Canceled",
		MonitorPulse:            "Pulse",
		MonitorGeometryChanged:  "GeometryChanged",
		MonitorPidChanged:       "PidChanged",
		MonitorWorkspaceChanged: "WorkspaceChanged",
		MonitorMetadataChanged:  "MetadataChanged",
		MonitorEventKind(-1):    "Unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("%v.String(): got %q want %q", int(kind), got, want)
		}
	}
}
