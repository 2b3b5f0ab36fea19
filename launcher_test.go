package sn

import (
	"context"
	"testing"

	"github.com/gogpu/sn/internal/xproto"
)

const (
	testCanceledAtom xproto.Atom = 101
	testCompleteAtom xproto.Atom = 102
	testPulseAtom    xproto.Atom = 103
)

func newTestDisplayWithAtoms() *Display {
	return &Display{
		ctx:   context.Background(),
		rt:    NewRuntime(),
		atoms: &xproto.LaunchAtoms{Canceled: testCanceledAtom, Complete: testCompleteAtom, Pulse: testPulseAtom},
	}
}

func TestLauncherSettersNoopAfterInitiate(t *testing.T) {
	d := newTestDisplayWithAtoms()
	c := NewLauncher(d, nil)
	c.initiated = true // simulate a completed Initiate without a real conn

	c.SetName("should not stick")
	if c.name != "" {
		t.Fatalf("SetName must be a no-op once initiated, got %q", c.name)
	}
}

func TestLauncherGuardAllowsSettersBeforeInitiate(t *testing.T) {
	d := newTestDisplayWithAtoms()
	c := NewLauncher(d, nil)

	c.SetName("Firefox")
	c.SetDescription("a browser")
	c.SetWorkspace(2)
	c.SetSupportsCancel(true)

	if c.name != "Firefox" || c.description != "a browser" || !c.hasWorkspace || c.workspace != 2 || !c.supportsCancel {
		t.Fatalf("unexpected context state: %+v", c)
	}
}

func TestLauncherCancelCompleteRequireInitiate(t *testing.T) {
	d := newTestDisplayWithAtoms()
	c := NewLauncher(d, nil)

	if err := c.Cancel(); err != ErrNotInitiated {
		t.Fatalf("expected ErrNotInitiated, got %v", err)
	}
	if err := c.Complete(); err != ErrNotInitiated {
		t.Fatalf("expected ErrNotInitiated, got %v", err)
	}
}

func TestLauncherSetupChildProcessRequiresInitiate(t *testing.T) {
	d := newTestDisplayWithAtoms()
	c := NewLauncher(d, nil)
	if _, err := c.SetupChildProcess(nil); err != ErrNotInitiated {
		t.Fatalf("expected ErrNotInitiated, got %v", err)
	}
}

func TestLauncherSetupChildProcessExportsEnv(t *testing.T) {
	d := newTestDisplayWithAtoms()
	c := NewLauncher(d, nil)
	c.initiated = true
	c.launchID = "l/e/1/2-3-host"
	c.launchWindow = 0x2a

	env, err := c.SetupChildProcess([]string{"PATH=/bin"})
	if err != nil {
		t.Fatalf("SetupChildProcess: %v", err)
	}
	if env[0] != "PATH=/bin" {
		t.Fatalf("expected existing env preserved, got %v", env)
	}
	if env[1] != "DESKTOP_LAUNCH_ID=l/e/1/2-3-host" {
		t.Fatalf("unexpected launch ID env: %v", env)
	}
	if env[2] != "DESKTOP_LAUNCH_WINDOW=0x2a" {
		t.Fatalf("unexpected launch window env: %v", env)
	}
}

func TestHexWindow(t *testing.T) {
	cases := map[xproto.ResourceID]string{
		0:      "0x0",
		0x2a:   "0x2a",
		0xdead: "0xdead",
	}
	for w, want := range cases {
		if got := hexWindow(w); got != want {
			t.Fatalf("hexWindow(%d): got %q want %q", w, got, want)
		}
	}
}

func TestDeliverLauncherEventCanceledIsTerminal(t *testing.T) {
	d := newTestDisplayWithAtoms()
	var kinds []LauncherEventKind
	c := NewLauncher(d, func(ev LauncherEvent) { kinds = append(kinds, ev.Kind) })
	c.initiated = true
	c.launchWindow = 0x99

	consumed := d.deliverLauncherEvent(c, &xproto.PropertyNotifyEvent{
		Window: 0x99, Atom: testCanceledAtom, State: xproto.PropertyNewValue,
	})
	if !consumed {
		t.Fatalf("expected the Canceled property change to be consumed")
	}
	// A second delivery of the same terminal kind must not fire twice.
	d.deliverLauncherEvent(c, &xproto.PropertyNotifyEvent{
		Window: 0x99, Atom: testCanceledAtom, State: xproto.PropertyNewValue,
	})

	if len(kinds) != 1 || kinds[0] != LauncherCanceled {
		t.Fatalf("expected exactly one Canceled delivery, got %v", kinds)
	}
}

func TestDeliverLauncherEventIgnoresOtherWindows(t *testing.T) {
	d := newTestDisplayWithAtoms()
	called := false
	c := NewLauncher(d, func(ev LauncherEvent) { called = true })
	c.initiated = true
	c.launchWindow = 0x1

	consumed := d.deliverLauncherEvent(c, &xproto.PropertyNotifyEvent{
		Window: 0x2, Atom: testCanceledAtom, State: xproto.PropertyNewValue,
	})
	if consumed || called {
		t.Fatalf("events for a different window must not be delivered to this context")
	}
}

func TestDeliverLauncherEventIgnoredBeforeInitiate(t *testing.T) {
	d := newTestDisplayWithAtoms()
	called := false
	c := NewLauncher(d, func(ev LauncherEvent) { called = true })
	c.launchWindow = 0x1 // not initiated

	consumed := d.deliverLauncherEvent(c, &xproto.PropertyNotifyEvent{
		Window: 0x1, Atom: testCanceledAtom, State: xproto.PropertyNewValue,
	})
	if consumed || called {
		t.Fatalf("an uninitiated context must never receive dispatch")
	}
}

func TestDeliverLauncherEventPulse(t *testing.T) {
	d := newTestDisplayWithAtoms()
	var kinds []LauncherEventKind
	c := NewLauncher(d, func(ev LauncherEvent) { kinds = append(kinds, ev.Kind) })
	c.initiated = true
	c.launchWindow = 0x5

	consumed := d.deliverLauncherEvent(c, &xproto.ClientMessageEvent{Window: 0x5, Type: testPulseAtom})
	if !consumed || len(kinds) != 1 || kinds[0] != LauncherPulse {
		t.Fatalf("expected a Pulse delivery, got consumed=%v kinds=%v", consumed, kinds)
	}
}

func TestDeliverLauncherEventDestroyNotifyIsCompleted(t *testing.T) {
	d := newTestDisplayWithAtoms()
	var kinds []LauncherEventKind
	c := NewLauncher(d, func(ev LauncherEvent) { kinds = append(kinds, ev.Kind) })
	c.initiated = true
	c.launchWindow = 0x7

	consumed := d.deliverLauncherEvent(c, &xproto.DestroyNotifyEvent{Window: 0x7})
	if !consumed || len(kinds) != 1 || kinds[0] != LauncherCompleted {
		t.Fatalf("expected window destruction to deliver Completed, got consumed=%v kinds=%v", consumed, kinds)
	}
}

func TestDispatchLauncherFansOutToAllContexts(t *testing.T) {
	d := newTestDisplayWithAtoms()
	var aKinds, bKinds []LauncherEventKind
	a := NewLauncher(d, func(ev LauncherEvent) { aKinds = append(aKinds, ev.Kind) })
	a.initiated = true
	a.launchWindow = 0x1
	b := NewLauncher(d, func(ev LauncherEvent) { bKinds = append(bKinds, ev.Kind) })
	b.initiated = true
	b.launchWindow = 0x2

	consumed := d.dispatchLauncher(&xproto.PropertyNotifyEvent{Window: 0x2, Atom: testCompleteAtom, State: xproto.PropertyNewValue})
	if !consumed {
		t.Fatalf("expected the event to be consumed")
	}
	if len(aKinds) != 0 {
		t.Fatalf("context a should not have received anything, got %v", aKinds)
	}
	if len(bKinds) != 1 || bKinds[0] != LauncherCompleted {
		t.Fatalf("context b should have received Completed, got %v", bKinds)
	}
}
