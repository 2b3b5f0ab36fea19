//go:build unix

package xproto

import "testing"

func padTo32(e *Encoder) []byte {
	if e.Len() < 32 {
		e.PutPadN(32 - e.Len())
	}
	return e.Bytes()
}

func TestParseEventPropertyNotify(t *testing.T) {
	e := NewEncoder(MSBFirst)
	e.PutUint8(EventPropertyNotify)
	e.PutUint8(0) // unused
	e.PutUint16(42)
	e.PutUint32(0x1000)
	e.PutUint32(55)
	e.PutUint32(123456)
	e.PutUint8(PropertyNewValue)

	ev, err := ParseEvent(MSBFirst, padTo32(e))
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	pn, ok := ev.(*PropertyNotifyEvent)
	if !ok {
		t.Fatalf("expected *PropertyNotifyEvent, got %T", ev)
	}
	if pn.Sequence != 42 || pn.Window != 0x1000 || pn.Atom != 55 || pn.Time != 123456 || pn.State != PropertyNewValue {
		t.Fatalf("unexpected fields: %+v", pn)
	}
}

func TestParseEventClientMessage(t *testing.T) {
	e := NewEncoder(MSBFirst)
	e.PutUint8(EventClientMessage)
	e.PutUint8(32) // format
	e.PutUint16(7)
	e.PutUint32(0x2000)
	e.PutUint32(99)
	var payload [20]byte
	for i := range payload {
		payload[i] = byte(i + 1)
	}
	e.PutBytes(payload[:])

	ev, err := ParseEvent(MSBFirst, padTo32(e))
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	cm, ok := ev.(*ClientMessageEvent)
	if !ok {
		t.Fatalf("expected *ClientMessageEvent, got %T", ev)
	}
	if cm.Format != 32 || cm.Sequence != 7 || cm.Window != 0x2000 || cm.Type != 99 {
		t.Fatalf("unexpected fields: %+v", cm)
	}
	if cm.Data != payload {
		t.Fatalf("data mismatch: got %v want %v", cm.Data, payload)
	}
}

func TestParseEventClientMessageData32(t *testing.T) {
	cm := &ClientMessageEvent{Format: 32}
	d := NewEncoder(MSBFirst)
	d.PutUint32(1)
	d.PutUint32(2)
	d.PutUint32(3)
	d.PutUint32(4)
	d.PutUint32(5)
	copy(cm.Data[:], d.Bytes())

	got := cm.Data32(MSBFirst)
	want := [5]uint32{1, 2, 3, 4, 5}
	if got != want {
		t.Fatalf("Data32: got %v want %v", got, want)
	}
}

func TestParseEventDestroyNotify(t *testing.T) {
	e := NewEncoder(MSBFirst)
	e.PutUint8(EventDestroyNotify)
	e.PutUint8(0)
	e.PutUint16(3)
	e.PutUint32(0x10)
	e.PutUint32(0x20)

	ev, err := ParseEvent(MSBFirst, padTo32(e))
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	dn, ok := ev.(*DestroyNotifyEvent)
	if !ok {
		t.Fatalf("expected *DestroyNotifyEvent, got %T", ev)
	}
	if dn.Sequence != 3 || dn.Event != 0x10 || dn.Window != 0x20 {
		t.Fatalf("unexpected fields: %+v", dn)
	}
}

func TestParseEventUnknownFallsThrough(t *testing.T) {
	e := NewEncoder(MSBFirst)
	e.PutUint8(2) // KeyPress, not handled by this package
	e.PutPadN(31)

	ev, err := ParseEvent(MSBFirst, e.Bytes())
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if _, ok := ev.(*UnknownEvent); !ok {
		t.Fatalf("expected *UnknownEvent, got %T", ev)
	}
}

func TestParseEventSyntheticBitIgnored(t *testing.T) {
	e := NewEncoder(MSBFirst)
	e.PutUint8(EventDestroyNotify | 0x80) // synthetic SendEvent marker
	e.PutUint8(0)
	e.PutUint16(0)
	e.PutUint32(1)
	e.PutUint32(2)

	ev, err := ParseEvent(MSBFirst, padTo32(e))
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if _, ok := ev.(*DestroyNotifyEvent); !ok {
		t.Fatalf("expected synthetic bit to be masked off, got %T", ev)
	}
}

func TestParseEventTooShort(t *testing.T) {
	if _, err := ParseEvent(MSBFirst, []byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for short buffer")
	}
}
