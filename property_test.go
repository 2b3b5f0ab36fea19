package sn

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/sn/internal/xproto"
)

// fakePropConn is an in-memory stand-in for *xproto.Conn, covering exactly
// the methods property.go calls through propertyConn. It lets the property
// codec be exercised without a real X server.
type fakePropConn struct {
	byteOrder xproto.ByteOrder

	props map[xproto.Atom]fakeProp

	changeErr error
	getErr    error
	syncErr   error

	changes []fakeChange
}

type fakeProp struct {
	propType xproto.Atom
	format   uint8
	data     []byte
}

type fakeChange struct {
	window   xproto.ResourceID
	property xproto.Atom
	propType xproto.Atom
	format   uint8
	data     []byte
}

func newFakePropConn() *fakePropConn {
	return &fakePropConn{byteOrder: xproto.MSBFirst, props: make(map[xproto.Atom]fakeProp)}
}

func (f *fakePropConn) ChangeProperty(window xproto.ResourceID, property, propType xproto.Atom, format uint8, mode uint8, data []byte) error {
	if f.changeErr != nil {
		return f.changeErr
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	f.props[property] = fakeProp{propType: propType, format: format, data: stored}
	f.changes = append(f.changes, fakeChange{window: window, property: property, propType: propType, format: format, data: stored})
	return nil
}

func (f *fakePropConn) GetProperty(window xproto.ResourceID, property, reqType xproto.Atom, del bool, longLength uint32) (*xproto.GetPropertyReply, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.props[property]
	if !ok {
		return &xproto.GetPropertyReply{}, nil
	}
	return &xproto.GetPropertyReply{ActualType: p.propType, ActualFormat: p.format, Data: p.data}, nil
}

func (f *fakePropConn) ByteOrder() xproto.ByteOrder { return f.byteOrder }

func (f *fakePropConn) Sync() error { return f.syncErr }

// newTestDisplayWithConn builds a Display wired to a fake propertyConn, with
// no-op trap push/pop so PushTrap/PopTrap never touch a real connection.
func newTestDisplayWithConn(conn *fakePropConn) *Display {
	return &Display{
		ctx:      context.Background(),
		propConn: conn,
		rt:       NewRuntime(),
		atoms:    &xproto.LaunchAtoms{UTF8String: xproto.AtomUTF8String},
	}
}

func TestSetGetStringRoundTrip(t *testing.T) {
	conn := newFakePropConn()
	d := newTestDisplayWithConn(conn)

	const prop xproto.Atom = 900
	if err := d.setString(1, prop, "firefox"); err != nil {
		t.Fatalf("setString: %v", err)
	}
	got, ok := d.getString(1, prop)
	if !ok || got != "firefox" {
		t.Fatalf("getString = %q, %v; want \"firefox\", true", got, ok)
	}
}

func TestGetUTF8StringValid(t *testing.T) {
	conn := newFakePropConn()
	d := newTestDisplayWithConn(conn)

	const prop xproto.Atom = 901
	if err := d.setUTF8String(1, prop, "Fire Fox 🦊", nil); err != nil {
		t.Fatalf("setUTF8String: %v", err)
	}
	got, ok := d.getUTF8String(1, prop, nil)
	if !ok || got != "Fire Fox 🦊" {
		t.Fatalf("getUTF8String = %q, %v; want valid payload", got, ok)
	}
}

func TestGetUTF8StringInvalidFailsClosed(t *testing.T) {
	conn := newFakePropConn()
	d := newTestDisplayWithConn(conn)

	const prop xproto.Atom = 902
	// Write raw invalid UTF-8 bytes directly, bypassing the set-side
	// validator, to simulate a misbehaving peer.
	conn.props[prop] = fakeProp{propType: xproto.AtomUTF8String, format: 8, data: []byte{0xff, 0xfe, 0xfd}}

	got, ok := d.getUTF8String(1, prop, nil)
	if ok || got != "" {
		t.Fatalf("getUTF8String = %q, %v; want failure on invalid UTF-8", got, ok)
	}
}

func TestSetUTF8StringRejectsInvalidPayload(t *testing.T) {
	conn := newFakePropConn()
	d := newTestDisplayWithConn(conn)

	const prop xproto.Atom = 903
	err := d.setUTF8String(1, prop, "bad", func(string) bool { return false })
	if !errors.Is(err, ErrPropertyAbsent) {
		t.Fatalf("setUTF8String = %v; want ErrPropertyAbsent", err)
	}
	if len(conn.changes) != 0 {
		t.Fatalf("ChangeProperty must not be called when validation fails")
	}
}

func TestSetGetCardinalRoundTrip(t *testing.T) {
	conn := newFakePropConn()
	d := newTestDisplayWithConn(conn)

	const prop xproto.Atom = 904
	if err := d.setCardinal(1, prop, 42); err != nil {
		t.Fatalf("setCardinal: %v", err)
	}
	got, ok := d.getCardinal(1, prop)
	if !ok || got != 42 {
		t.Fatalf("getCardinal = %d, %v; want 42, true", got, ok)
	}
}

func TestSetGetAtomListRoundTrip(t *testing.T) {
	conn := newFakePropConn()
	d := newTestDisplayWithConn(conn)

	const prop xproto.Atom = 905
	want := []xproto.Atom{10, 20, 30}
	if err := d.setAtomList(1, prop, want); err != nil {
		t.Fatalf("setAtomList: %v", err)
	}
	got, ok := d.getAtomList(1, prop)
	if !ok || len(got) != len(want) {
		t.Fatalf("getAtomList = %v, %v; want %v, true", got, ok, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("getAtomList[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSetGetCardinalListRoundTrip(t *testing.T) {
	conn := newFakePropConn()
	d := newTestDisplayWithConn(conn)

	const prop xproto.Atom = 906
	want := []uint32{1, 2, 3, 4}
	if err := d.setCardinalList(1, prop, want); err != nil {
		t.Fatalf("setCardinalList: %v", err)
	}
	got, ok := d.getCardinalList(1, prop)
	if !ok || len(got) != len(want) {
		t.Fatalf("getCardinalList = %v, %v; want %v, true", got, ok, want)
	}
}

func TestGetStringFailsClosedOnWrongType(t *testing.T) {
	conn := newFakePropConn()
	d := newTestDisplayWithConn(conn)

	const prop xproto.Atom = 907
	conn.props[prop] = fakeProp{propType: xproto.AtomCardinal, format: 32, data: []byte{0, 0, 0, 1}}

	got, ok := d.getString(1, prop)
	if ok || got != "" {
		t.Fatalf("getString = %q, %v; want failure on type mismatch", got, ok)
	}
}

func TestGetCardinalFailsClosedOnAbsentProperty(t *testing.T) {
	conn := newFakePropConn()
	d := newTestDisplayWithConn(conn)

	got, ok := d.getCardinal(1, 908)
	if ok || got != 0 {
		t.Fatalf("getCardinal = %d, %v; want failure on absent property", got, ok)
	}
}

func TestGetPropertyXErrorFailsClosed(t *testing.T) {
	conn := newFakePropConn()
	conn.getErr = errors.New("boom")
	d := newTestDisplayWithConn(conn)

	if _, ok := d.getString(1, 909); ok {
		t.Fatalf("getString must fail closed on an X error")
	}
	if _, ok := d.getCardinal(1, 909); ok {
		t.Fatalf("getCardinal must fail closed on an X error")
	}
}

func TestSetCardinalPropagatesChangeError(t *testing.T) {
	conn := newFakePropConn()
	conn.changeErr = errors.New("write failed")
	d := newTestDisplayWithConn(conn)

	if err := d.setCardinal(1, 910, 7); err == nil {
		t.Fatalf("setCardinal must surface the ChangeProperty error")
	}
}

func TestTrapPopErrorFailsGetEvenOnSuccessfulRead(t *testing.T) {
	conn := newFakePropConn()
	const prop xproto.Atom = 911
	conn.props[prop] = fakeProp{propType: xproto.AtomString, format: 8, data: []byte("ok")}

	d := &Display{
		ctx:      context.Background(),
		propConn: conn,
		rt:       NewRuntime(),
		atoms:    &xproto.LaunchAtoms{UTF8String: xproto.AtomUTF8String},
		trapPop:  func() error { return errors.New("trapped X error") },
	}

	got, ok := d.getString(1, prop)
	if ok || got != "" {
		t.Fatalf("getString = %q, %v; want failure when the trap reports an error", got, ok)
	}
}

func TestPopTrapSyncsOnlyAtOutermostDepth(t *testing.T) {
	conn := newFakePropConn()
	d := &Display{ctx: context.Background(), propConn: conn, rt: NewRuntime()}

	conn.syncErr = errors.New("sync failed")
	d.PushTrap()
	d.PushTrap()
	if err := d.PopTrap(); err != nil {
		t.Fatalf("inner PopTrap: %v", err)
	}
	if err := d.PopTrap(); err == nil {
		t.Fatalf("outermost PopTrap must surface the sync error")
	}
}
