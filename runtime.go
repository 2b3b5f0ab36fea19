package sn

import (
	"sync"

	"github.com/gogpu/sn/internal/xmessage"
	"github.com/gogpu/sn/internal/xproto"
)

// Runtime holds every piece of state the protocol keeps process-wide: the
// live launcher contexts, the live monitor contexts, the launch-sequence
// registry, and the xmessage handler/reassembly registry. Scoping these to
// an explicit Runtime, rather than package-level globals, means nothing in
// the protocol requires a single process-wide instance, and multiple
// displays (or a test harness) never share state.
type Runtime struct {
	mu sync.Mutex

	launchers []*LauncherContext
	monitors  []*MonitorContext

	sequencesByWindow map[xproto.ResourceID]*Sequence
	sequencesByID     map[string]*Sequence
	nextSerial        uint64

	xmsg *xmessage.Registry
}

// NewRuntime returns an empty, ready-to-use Runtime.
func NewRuntime() *Runtime {
	return &Runtime{
		sequencesByWindow: make(map[xproto.ResourceID]*Sequence),
		sequencesByID:     make(map[string]*Sequence),
		xmsg:              xmessage.NewRegistry(),
	}
}

func (rt *Runtime) addLauncher(c *LauncherContext) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.launchers = append(rt.launchers, c)
}

func (rt *Runtime) removeLauncher(c *LauncherContext) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for i, l := range rt.launchers {
		if l == c {
			rt.launchers = append(rt.launchers[:i:i], rt.launchers[i+1:]...)
			return
		}
	}
}

// launchersSnapshot returns a stable copy of the launcher list for
// reentrancy-safe iteration during event dispatch.
func (rt *Runtime) launchersSnapshot() []*LauncherContext {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make([]*LauncherContext, len(rt.launchers))
	copy(out, rt.launchers)
	return out
}

func (rt *Runtime) addMonitor(c *MonitorContext) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.monitors = append(rt.monitors, c)
}

func (rt *Runtime) removeMonitor(c *MonitorContext) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for i, m := range rt.monitors {
		if m == c {
			rt.monitors = append(rt.monitors[:i:i], rt.monitors[i+1:]...)
			return
		}
	}
}

func (rt *Runtime) monitorsSnapshot() []*MonitorContext {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make([]*MonitorContext, len(rt.monitors))
	copy(out, rt.monitors)
	return out
}

// peekNextSerial returns the serial the next observed sequence will
// receive, without consuming it — used to snapshot a fresh monitor
// context's visibility threshold.
func (rt *Runtime) peekNextSerial() uint64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.nextSerial
}

func (rt *Runtime) nextSequenceSerial() uint64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	s := rt.nextSerial
	rt.nextSerial++
	return s
}

func (rt *Runtime) putSequence(s *Sequence) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if s.Window != 0 {
		rt.sequencesByWindow[s.Window] = s
	}
	rt.sequencesByID[s.ID] = s
}

func (rt *Runtime) sequenceByWindow(w xproto.ResourceID) (*Sequence, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	s, ok := rt.sequencesByWindow[w]
	return s, ok
}

func (rt *Runtime) sequenceByID(id string) (*Sequence, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	s, ok := rt.sequencesByID[id]
	return s, ok
}

func (rt *Runtime) removeSequence(s *Sequence) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if s.Window != 0 {
		delete(rt.sequencesByWindow, s.Window)
	}
	delete(rt.sequencesByID, s.ID)
}
