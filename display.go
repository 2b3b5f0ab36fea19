package sn

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gogpu/sn/internal/snlog"
	"github.com/gogpu/sn/internal/xproto"
)

// TrapPush is called every time Display.PushTrap is invoked, innermost
// call first. Pushing and popping the X error trap is an external
// collaborator this package never implements itself — the caller owns the
// X error handler.
type TrapPush func()

// TrapPop is called on Display.PopTrap and returns whatever error the
// caller's trap accumulated since the matching push.
type TrapPop func() error

// Display wraps an X connection, its screens, and the caller-provided
// error-trap discipline every property mutation and event dispatch runs
// under. It is the entry point ProcessEvent fans out from.
type Display struct {
	ctx      context.Context
	conn     *xproto.Conn
	propConn propertyConn
	rt       *Runtime
	atoms    *xproto.LaunchAtoms

	trapPush TrapPush
	trapPop  TrapPop
	depth    int
}

// NewDisplay builds a Display around an already-connected Conn, a Runtime
// to scope its registries to, and the caller's trap push/pop callables.
// It interns the full startup-notification atom set immediately.
func NewDisplay(ctx context.Context, conn *xproto.Conn, rt *Runtime, trapPush TrapPush, trapPop TrapPop) (*Display, error) {
	atoms, err := conn.InternLaunchAtoms()
	if err != nil {
		return nil, err
	}
	if rt == nil {
		rt = NewRuntime()
	}
	d := &Display{
		ctx:      ctx,
		conn:     conn,
		propConn: conn,
		rt:       rt,
		atoms:    atoms,
		trapPush: trapPush,
		trapPop:  trapPop,
	}
	rt.xmsg.Register(atoms.KDEStartupInfo, "sn.monitor", d.handleXmessageRecord)
	return d, nil
}

// Conn returns the underlying X connection.
func (d *Display) Conn() *xproto.Conn { return d.conn }

// Runtime returns the registry scope this display dispatches into.
func (d *Display) Runtime() *Runtime { return d.rt }

// Screen returns the i-th screen, or false if the display has fewer.
func (d *Display) Screen(i int) (*xproto.ScreenInfo, bool) {
	screens := d.conn.Screens()
	if i < 0 || i >= len(screens) {
		return nil, false
	}
	return &screens[i], true
}

// PushTrap begins a (possibly nested) error-trapped section.
func (d *Display) PushTrap() {
	d.depth++
	if d.trapPush != nil {
		d.trapPush()
	}
}

// PopTrap ends the most recently pushed section. The outermost pop
// synchronizes with the server, matching the upstream contract that batched
// property writes are only guaranteed visible after the outer pop returns.
func (d *Display) PopTrap() error {
	var err error
	if d.trapPop != nil {
		err = d.trapPop()
	}
	d.depth--
	if d.depth == 0 {
		if syncErr := d.propConn.Sync(); syncErr != nil {
			err = multierr.Append(err, syncErr)
		}
	}
	if err != nil {
		snlog.L(d.ctx).Debug("sn: trap pop reported error", zap.Error(err))
	}
	return err
}

// ProcessEvent is the single entry point X events are submitted through.
// It fans the event to the launcher, monitor and xmessage sub-dispatchers
// independently and returns the logical OR of their "consumed" results —
// deliberately without short-circuiting, since one ClientMessage can be
// meaningful to more than one layer (initiation is both a launcher and a
// monitor event).
func (d *Display) ProcessEvent(ev xproto.Event) bool {
	consumedLauncher := d.dispatchLauncher(ev)
	consumedMonitor := d.dispatchMonitor(ev)
	consumedXmessage := d.dispatchXmessage(ev)
	return consumedLauncher || consumedMonitor || consumedXmessage
}

func (d *Display) dispatchXmessage(ev xproto.Event) bool {
	cm, ok := ev.(*xproto.ClientMessageEvent)
	if !ok || cm.Format != 8 {
		return false
	}
	if cm.Type != d.atoms.KDEStartupInfo {
		return false
	}
	d.rt.xmsg.Deliver(cm)
	return true
}
