// Package xmessage implements the startup-notification sidechannel: UTF-8
// text payloads broadcast as trains of format-8 ClientMessage events and
// reassembled by the receiver, keyed by (atom, window) with a bounded
// buffer so a malicious or buggy sender cannot grow memory unbounded.
package xmessage

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/gogpu/sn/internal/snlog"
	"github.com/gogpu/sn/internal/xproto"
)

// MaxBufferedBytes bounds a single in-flight reassembly buffer. Exceeding
// it before the terminating NUL arrives discards the buffer outright.
const MaxBufferedBytes = 4096

// Validator reports whether b is well-formed UTF-8. The default is
// utf8.Valid; callers may inject a stricter or looser check.
type Validator func(b []byte) bool

// Handler is invoked with a fully reassembled, NUL-stripped message.
type Handler func(msg string)

type registeredHandler struct {
	typeName string
	fn       Handler
}

type pendingKey struct {
	atom   xproto.Atom
	window xproto.ResourceID
}

// Registry tracks handlers per (connection, atom) and in-flight reassembly
// buffers per (atom, window). One Registry is normally shared by a single
// Display.
type Registry struct {
	mu       sync.Mutex
	handlers map[xproto.Atom][]registeredHandler
	pending  map[pendingKey][]byte
}

// NewRegistry returns an empty transport registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[xproto.Atom][]registeredHandler),
		pending:  make(map[pendingKey][]byte),
	}
}

// Register adds fn as a handler for messages arriving on atom, tagged with
// typeName for later deregistration matching.
func (r *Registry) Register(atom xproto.Atom, typeName string, fn Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[atom] = append(r.handlers[atom], registeredHandler{typeName: typeName, fn: fn})
}

// Deregister removes the first handler matching (atom, typeName).
func (r *Registry) Deregister(atom xproto.Atom, typeName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.handlers[atom]
	for i, h := range list {
		if h.typeName == typeName {
			r.handlers[atom] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Send validates payload as UTF-8, creates a throwaway override-redirect
// window, fragments the NUL-terminated payload into 20-byte ClientMessage
// trains, and broadcasts each fragment to every screen's root window.
func Send(ctx context.Context, conn *xproto.Conn, msgType xproto.Atom, payload string, valid Validator) error {
	if valid == nil {
		valid = utf8.Valid
	}
	if !valid([]byte(payload)) {
		snlog.L(ctx).Warn("xmessage: dropping non-UTF-8 payload")
		return fmt.Errorf("xmessage: payload is not valid UTF-8")
	}

	screen := conn.DefaultScreen()
	window, err := conn.CreateOverrideRedirectWindow(screen)
	if err != nil {
		return fmt.Errorf("xmessage: failed to create carrier window: %w", err)
	}
	defer func() { _ = conn.DestroyWindow(window) }()

	data := append([]byte(payload), 0) // include terminating NUL
	roots := conn.RootWindows()

	for off := 0; off < len(data); off += 20 {
		end := off + 20
		if end > len(data) {
			end = len(data)
		}
		var chunk [20]byte
		copy(chunk[:], data[off:end])

		for _, root := range roots {
			if err := conn.SendClientMessage8(root, window, msgType, false, xproto.EventMaskPropertyChange, chunk); err != nil {
				return fmt.Errorf("xmessage: send failed: %w", err)
			}
		}
	}
	return conn.Flush()
}

// Deliver feeds one incoming ClientMessage event into the reassembly
// buffers, dispatching to every registered handler once a payload
// completes. It is a no-op for atoms with no registered handler.
func (r *Registry) Deliver(ev *xproto.ClientMessageEvent) {
	r.mu.Lock()
	handlers := r.handlers[ev.Type]
	if len(handlers) == 0 {
		r.mu.Unlock()
		return
	}
	// snapshot so concurrent (de)registration during dispatch is safe
	snapshot := make([]registeredHandler, len(handlers))
	copy(snapshot, handlers)

	key := pendingKey{atom: ev.Type, window: ev.Window}
	buf := r.pending[key]
	buf = append(buf, ev.Data[:]...)

	complete := false
	nulAt := -1
	for i, b := range ev.Data[:] {
		if b == 0 {
			nulAt = len(buf) - len(ev.Data) + i
			complete = true
			break
		}
	}

	if len(buf) > MaxBufferedBytes && !complete {
		delete(r.pending, key)
		r.mu.Unlock()
		return
	}

	if !complete {
		r.pending[key] = buf
		r.mu.Unlock()
		return
	}

	delete(r.pending, key)
	r.mu.Unlock()

	msg := string(buf[:nulAt])
	for _, h := range snapshot {
		h.fn(msg)
	}
}
