package sn

import (
	"context"
	"testing"
)

func newTestDisplay() *Display {
	return &Display{ctx: context.Background(), rt: NewRuntime()}
}

func TestParseUint32(t *testing.T) {
	v, err := parseUint32("42")
	if err != nil || v != 42 {
		t.Fatalf("got %d, %v", v, err)
	}
	if _, err := parseUint32("4x2"); err == nil {
		t.Fatalf("expected error for non-digit input")
	}
	if _, err := parseUint32(""); err != nil {
		t.Fatalf("empty string should parse to zero, got %v", err)
	}
}

func TestHandleXmessageRecordNewCreatesSequenceAndDispatches(t *testing.T) {
	d := newTestDisplay()

	var events []MonitorEvent
	NewMonitorContext(d, func(ev MonitorEvent) { events = append(events, ev) })

	d.handleXmessageRecord(`new: ID=l/e/1/2-3-host NAME=Firefox BIN=firefox`)

	seq, ok := d.rt.sequenceByID("l/e/1/2-3-host")
	if !ok {
		t.Fatalf("expected sequence to be registered")
	}
	if seq.Name != "Firefox" || seq.BinaryName != "firefox" {
		t.Fatalf("unexpected sequence fields: %+v", seq)
	}

	if len(events) == 0 || events[0].Kind != MonitorInitiated {
		t.Fatalf("expected a MonitorInitiated event first, got %+v", events)
	}
}

func TestHandleXmessageRecordNewIsIdempotent(t *testing.T) {
	d := newTestDisplay()
	var initiated int
	NewMonitorContext(d, func(ev MonitorEvent) {
		if ev.Kind == MonitorInitiated {
			initiated++
		}
	})

	d.handleXmessageRecord(`new: ID=l/e/1/2-3-host NAME=A`)
	d.handleXmessageRecord(`new: ID=l/e/1/2-3-host NAME=B`)

	if initiated != 1 {
		t.Fatalf("expected exactly one Initiated dispatch for a repeated ID, got %d", initiated)
	}
	seq, _ := d.rt.sequenceByID("l/e/1/2-3-host")
	if seq.Name != "A" {
		t.Fatalf("write-once NAME must not be overwritten by the second record, got %q", seq.Name)
	}
}

func TestApplyXmessageFieldsWriteOnceSemantics(t *testing.T) {
	d := newTestDisplay()
	d.handleXmessageRecord(`new: ID=x NAME=First`)
	d.handleXmessageRecord(`change: ID=x NAME=Second`)

	seq, _ := d.rt.sequenceByID("x")
	if seq.Name != "First" {
		t.Fatalf("NAME must be write-once, got %q", seq.Name)
	}
}

func TestApplyXmessageFieldsMetadataChangedEvent(t *testing.T) {
	d := newTestDisplay()
	var kinds []MonitorEventKind
	NewMonitorContext(d, func(ev MonitorEvent) { kinds = append(kinds, ev.Kind) })

	d.handleXmessageRecord(`new: ID=x`)
	d.handleXmessageRecord(`change: ID=x BIN=firefox`)

	found := false
	for _, k := range kinds {
		if k == MonitorMetadataChanged {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a MetadataChanged event once BIN is written, got %v", kinds)
	}
}

func TestApplyXmessageFieldsDesktopAndPIDAlwaysUpdate(t *testing.T) {
	d := newTestDisplay()
	var kinds []MonitorEventKind
	NewMonitorContext(d, func(ev MonitorEvent) { kinds = append(kinds, ev.Kind) })

	d.handleXmessageRecord(`new: ID=x DESKTOP=0 PID=100`)
	d.handleXmessageRecord(`change: ID=x DESKTOP=1 PID=200`)

	seq, _ := d.rt.sequenceByID("x")
	if seq.Desktop != 1 || seq.PID != 200 {
		t.Fatalf("DESKTOP/PID must update on every record, got desktop=%d pid=%d", seq.Desktop, seq.PID)
	}

	count := 0
	for _, k := range kinds {
		if k == MonitorWorkspaceChanged {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected WorkspaceChanged dispatched for both records, got %d", count)
	}
}

func TestHandleXmessageRecordRemoveDispatchesCompletedAndForgetsSequence(t *testing.T) {
	d := newTestDisplay()
	var kinds []MonitorEventKind
	NewMonitorContext(d, func(ev MonitorEvent) { kinds = append(kinds, ev.Kind) })

	d.handleXmessageRecord(`new: ID=x`)
	d.handleXmessageRecord(`remove: ID=x`)

	if _, ok := d.rt.sequenceByID("x"); ok {
		t.Fatalf("expected the sequence to be forgotten after remove")
	}
	last := kinds[len(kinds)-1]
	if last != MonitorCompleted {
		t.Fatalf("expected the final dispatch to be Completed, got %v", last)
	}
}

func TestHandleXmessageRecordRemoveUnknownIDIsNoop(t *testing.T) {
	d := newTestDisplay()
	called := false
	NewMonitorContext(d, func(ev MonitorEvent) { called = true })

	d.handleXmessageRecord(`remove: ID=never-seen`)
	if called {
		t.Fatalf("removing an unknown ID must not dispatch anything")
	}
}

func TestHandleXmessageRecordMissingIDIsDropped(t *testing.T) {
	d := newTestDisplay()
	called := false
	NewMonitorContext(d, func(ev MonitorEvent) { called = true })

	d.handleXmessageRecord(`new: NAME=no-id-here`)
	if called {
		t.Fatalf("a record with no ID key must be dropped silently")
	}
}

func TestDispatchToMonitorsFiltersByCreationSerial(t *testing.T) {
	d := newTestDisplay()

	early := &Sequence{ID: "early", CreationSerial: d.rt.nextSequenceSerial()}
	_ = early

	var lateEvents int
	NewMonitorContext(d, func(ev MonitorEvent) { lateEvents++ })

	staleSeq := &Sequence{ID: "stale", CreationSerial: 0}
	d.dispatchToMonitors(MonitorPulse, staleSeq)

	if lateEvents != 0 {
		t.Fatalf("a monitor created after a sequence must not see events for it, got %d", lateEvents)
	}

	freshSeq := &Sequence{ID: "fresh", CreationSerial: d.rt.nextSequenceSerial()}
	d.dispatchToMonitors(MonitorPulse, freshSeq)
	if lateEvents != 1 {
		t.Fatalf("expected the monitor to see a sequence created after it, got %d events", lateEvents)
	}
}

func TestDispatchTerminalToMonitorsAtMostOnce(t *testing.T) {
	d := newTestDisplay()
	count := 0
	NewMonitorContext(d, func(ev MonitorEvent) { count++ })

	seq := &Sequence{ID: "x", Window: 0x10}
	d.rt.putSequence(seq)

	d.dispatchTerminalToMonitors(MonitorCompleted, seq)
	d.dispatchTerminalToMonitors(MonitorCompleted, seq)

	if count != 1 {
		t.Fatalf("expected Completed dispatched exactly once, got %d", count)
	}
	if _, ok := d.rt.sequenceByWindow(0x10); ok {
		t.Fatalf("expected sequence removed from the registry after Completed")
	}
}
