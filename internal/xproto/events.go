//go:build unix

package xproto

import "fmt"

// Event is implemented by every event this package parses off the wire.
// The startup-notification protocol only needs three of the X11 event
// types (PropertyNotify, ClientMessage, DestroyNotify); everything else
// arrives as UnknownEvent so a caller's event loop can still dispatch it
// elsewhere without this package choking on it.
type Event interface {
	eventMarker()
}

// PropertyNotifyEvent is generated when a window property changes.
type PropertyNotifyEvent struct {
	Sequence uint16
	Window   ResourceID
	Atom     Atom
	Time     Timestamp
	State    uint8 // PropertyNewValue or PropertyDelete
}

func (*PropertyNotifyEvent) eventMarker() {}

// ClientMessageEvent is generated for client-to-client communication —
// carries both the _NET_LAUNCH_* control messages and xmessage fragments.
type ClientMessageEvent struct {
	Format   uint8 // 8, 16 or 32
	Sequence uint16
	Window   ResourceID
	Type     Atom
	Data     [20]byte
}

func (*ClientMessageEvent) eventMarker() {}

// Data32 reinterprets Data as five little/big-endian uint32 words, for
// format-32 messages such as _NET_LAUNCH_INITIATE and _NET_LAUNCH_PULSE.
func (e *ClientMessageEvent) Data32(order ByteOrder) [5]uint32 {
	var result [5]uint32
	d := NewDecoder(order, e.Data[:])
	for i := range result {
		v, _ := d.Uint32()
		result[i] = v
	}
	return result
}

// DestroyNotifyEvent is generated when a window is destroyed — the
// launcher's window-destruction-implies-Completed signal.
type DestroyNotifyEvent struct {
	Sequence uint16
	Event    ResourceID
	Window   ResourceID
}

func (*DestroyNotifyEvent) eventMarker() {}

// UnknownEvent represents any event type this package doesn't interpret.
type UnknownEvent struct {
	Type uint8
	Data [31]byte
}

func (*UnknownEvent) eventMarker() {}

// ParseEvent decodes a 32-byte server message into an Event.
func ParseEvent(order ByteOrder, buf []byte) (Event, error) {
	if len(buf) < 32 {
		return nil, fmt.Errorf("xproto: event buffer too short")
	}

	eventType := buf[0] & 0x7F // high bit marks a synthetic (SendEvent) event

	switch eventType {
	case EventPropertyNotify:
		return parsePropertyNotifyEvent(order, buf)
	case EventClientMessage:
		return parseClientMessageEvent(order, buf)
	case EventDestroyNotify:
		return parseDestroyNotifyEvent(order, buf)
	default:
		event := &UnknownEvent{Type: eventType}
		copy(event.Data[:], buf[1:32])
		return event, nil
	}
}

func parsePropertyNotifyEvent(order ByteOrder, buf []byte) (Event, error) {
	d := NewDecoder(order, buf)
	_, _ = d.Uint8() // event type
	_, _ = d.Uint8() // unused
	seq, _ := d.Uint16()
	window, _ := d.Uint32()
	atom, _ := d.Uint32()
	time, _ := d.Uint32()
	state, _ := d.Uint8()

	return &PropertyNotifyEvent{
		Sequence: seq,
		Window:   ResourceID(window),
		Atom:     Atom(atom),
		Time:     Timestamp(time),
		State:    state,
	}, nil
}

func parseClientMessageEvent(order ByteOrder, buf []byte) (Event, error) {
	d := NewDecoder(order, buf)
	_, _ = d.Uint8() // event type
	format, _ := d.Uint8()
	seq, _ := d.Uint16()
	window, _ := d.Uint32()
	msgType, _ := d.Uint32()

	event := &ClientMessageEvent{
		Format:   format,
		Sequence: seq,
		Window:   ResourceID(window),
		Type:     Atom(msgType),
	}
	data, _ := d.Bytes(20)
	copy(event.Data[:], data)
	return event, nil
}

func parseDestroyNotifyEvent(order ByteOrder, buf []byte) (Event, error) {
	d := NewDecoder(order, buf)
	_, _ = d.Uint8() // event type
	_, _ = d.Uint8() // unused
	seq, _ := d.Uint16()
	event, _ := d.Uint32()
	window, _ := d.Uint32()

	return &DestroyNotifyEvent{
		Sequence: seq,
		Event:    ResourceID(event),
		Window:   ResourceID(window),
	}, nil
}
