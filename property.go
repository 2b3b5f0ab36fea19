package sn

import (
	"encoding/binary"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/gogpu/sn/internal/snlog"
	"github.com/gogpu/sn/internal/xproto"
)

// Request-length caps, bounding per-call memory on the get- side: 1000
// items for atom/cardinal lists, 20000 bytes for strings, 256 items for
// single scalars.
const (
	maxListItems   = 1000
	maxStringBytes = 20000
	maxScalarItems = 256
)

// propertyConn is the slice of *xproto.Conn the property codec actually
// calls. Extracted so tests can exercise getString/getUTF8String/etc.
// against an in-memory fake instead of a live X connection.
type propertyConn interface {
	ChangeProperty(window xproto.ResourceID, property, propType xproto.Atom, format uint8, mode uint8, data []byte) error
	GetProperty(window xproto.ResourceID, property, reqType xproto.Atom, delete bool, longLength uint32) (*xproto.GetPropertyReply, error)
	ByteOrder() xproto.ByteOrder
	Sync() error
}

// UTF8Validator is injected by the caller; this package treats UTF-8
// validation as an external predicate rather than hand-rolling one.
type UTF8Validator func(s string) bool

func defaultUTF8Validator(s string) bool { return utf8.ValidString(s) }

// rawSetString writes an 8-bit STRING property without its own trap —
// callers that need to batch several writes under one push/pop (Initiate)
// call these directly; standalone callers use the trapped set* wrappers.
func (d *Display) rawSetString(window xproto.ResourceID, property xproto.Atom, value string) error {
	return d.propConn.ChangeProperty(window, property, xproto.AtomString, 8, xproto.PropModeReplace, []byte(value))
}

func (d *Display) rawSetUTF8String(window xproto.ResourceID, property xproto.Atom, value string, valid UTF8Validator) error {
	if valid == nil {
		valid = defaultUTF8Validator
	}
	if !valid(value) {
		return ErrPropertyAbsent
	}
	return d.propConn.ChangeProperty(window, property, d.atoms.UTF8String, 8, xproto.PropModeReplace, []byte(value))
}

func (d *Display) rawSetCardinal(window xproto.ResourceID, property xproto.Atom, value uint32) error {
	buf := make([]byte, 4)
	d.putUint32(buf, value)
	return d.propConn.ChangeProperty(window, property, xproto.AtomCardinal, 32, xproto.PropModeReplace, buf)
}

func (d *Display) rawSetWindow(window xproto.ResourceID, property xproto.Atom, value xproto.ResourceID) error {
	return d.rawSetCardinal(window, property, uint32(value))
}

func (d *Display) rawSetAtomList(window xproto.ResourceID, property xproto.Atom, values []xproto.Atom) error {
	buf := make([]byte, 0, len(values)*4)
	for _, a := range values {
		b := make([]byte, 4)
		d.putUint32(b, uint32(a))
		buf = append(buf, b...)
	}
	return d.propConn.ChangeProperty(window, property, xproto.AtomAtom, 32, xproto.PropModeReplace, buf)
}

func (d *Display) rawSetCardinalList(window xproto.ResourceID, property xproto.Atom, values []uint32) error {
	buf := make([]byte, 0, len(values)*4)
	for _, v := range values {
		b := make([]byte, 4)
		d.putUint32(b, v)
		buf = append(buf, b...)
	}
	return d.propConn.ChangeProperty(window, property, xproto.AtomCardinal, 32, xproto.PropModeReplace, buf)
}

// setString writes an 8-bit STRING property under its own trapped section.
func (d *Display) setString(window xproto.ResourceID, property xproto.Atom, value string) error {
	d.PushTrap()
	err := d.rawSetString(window, property, value)
	if popErr := d.PopTrap(); err == nil {
		err = popErr
	}
	return err
}

// setUTF8String writes a UTF8_STRING property, validating first.
func (d *Display) setUTF8String(window xproto.ResourceID, property xproto.Atom, value string, valid UTF8Validator) error {
	d.PushTrap()
	err := d.rawSetUTF8String(window, property, value, valid)
	if popErr := d.PopTrap(); err == nil {
		err = popErr
	}
	return err
}

// setCardinal writes a 32-bit CARDINAL property.
func (d *Display) setCardinal(window xproto.ResourceID, property xproto.Atom, value uint32) error {
	d.PushTrap()
	err := d.rawSetCardinal(window, property, value)
	if popErr := d.PopTrap(); err == nil {
		err = popErr
	}
	return err
}

// setWindow writes a WINDOW property.
func (d *Display) setWindow(window xproto.ResourceID, property xproto.Atom, value xproto.ResourceID) error {
	return d.setCardinal(window, property, uint32(value))
}

// setAtomList writes an ATOM-typed property holding one or more atoms.
func (d *Display) setAtomList(window xproto.ResourceID, property xproto.Atom, values []xproto.Atom) error {
	d.PushTrap()
	err := d.rawSetAtomList(window, property, values)
	if popErr := d.PopTrap(); err == nil {
		err = popErr
	}
	return err
}

// setCardinalList writes a CARDINAL-typed property holding several values
// (e.g. the four-field geometry hint).
func (d *Display) setCardinalList(window xproto.ResourceID, property xproto.Atom, values []uint32) error {
	d.PushTrap()
	err := d.rawSetCardinalList(window, property, values)
	if popErr := d.PopTrap(); err == nil {
		err = popErr
	}
	return err
}

func (d *Display) putUint32(b []byte, v uint32) {
	if d.propConn.ByteOrder() == xproto.MSBFirst {
		binary.BigEndian.PutUint32(b, v)
	} else {
		binary.LittleEndian.PutUint32(b, v)
	}
}

func (d *Display) getUint32(b []byte) uint32 {
	if d.propConn.ByteOrder() == xproto.MSBFirst {
		return binary.BigEndian.Uint32(b)
	}
	return binary.LittleEndian.Uint32(b)
}

// getString reads an 8-bit STRING property. Any of {X error, wrong type,
// wrong format, zero length} is reported as failure with an empty string,
// matching the upstream "gets fail closed" contract.
func (d *Display) getString(window xproto.ResourceID, property xproto.Atom) (string, bool) {
	d.PushTrap()
	reply, err := d.propConn.GetProperty(window, property, xproto.AtomString, false, maxStringBytes/4)
	popErr := d.PopTrap()
	if err != nil || popErr != nil {
		return "", false
	}
	if reply.ActualType != xproto.AtomString || reply.ActualFormat != 8 || len(reply.Data) == 0 {
		return "", false
	}
	return string(reply.Data), true
}

// getUTF8String reads a UTF8_STRING property and validates the payload,
// emitting a diagnostic and failing closed if validation fails.
func (d *Display) getUTF8String(window xproto.ResourceID, property xproto.Atom, valid UTF8Validator) (string, bool) {
	if valid == nil {
		valid = defaultUTF8Validator
	}
	d.PushTrap()
	reply, err := d.propConn.GetProperty(window, property, d.atoms.UTF8String, false, maxStringBytes/4)
	popErr := d.PopTrap()
	if err != nil || popErr != nil {
		return "", false
	}
	if reply.ActualType != d.atoms.UTF8String || reply.ActualFormat != 8 || len(reply.Data) == 0 {
		return "", false
	}
	s := string(reply.Data)
	if !valid(s) {
		snlog.L(d.ctx).Warn("sn: invalid UTF-8 in property",
			zap.Uint32("window", uint32(window)),
			zap.Uint32("property", uint32(property)))
		return "", false
	}
	return s, true
}

// getCardinal reads a single 32-bit CARDINAL property.
func (d *Display) getCardinal(window xproto.ResourceID, property xproto.Atom) (uint32, bool) {
	d.PushTrap()
	reply, err := d.propConn.GetProperty(window, property, xproto.AtomCardinal, false, maxScalarItems)
	popErr := d.PopTrap()
	if err != nil || popErr != nil {
		return 0, false
	}
	if reply.ActualType != xproto.AtomCardinal || reply.ActualFormat != 32 || len(reply.Data) < 4 {
		return 0, false
	}
	return d.getUint32(reply.Data[:4]), true
}

// getWindow reads a single WINDOW property.
func (d *Display) getWindow(window xproto.ResourceID, property xproto.Atom) (xproto.ResourceID, bool) {
	v, ok := d.getCardinal(window, property)
	return xproto.ResourceID(v), ok
}

// getAtomList reads an ATOM-typed property, returning up to maxListItems
// atoms.
func (d *Display) getAtomList(window xproto.ResourceID, property xproto.Atom) ([]xproto.Atom, bool) {
	d.PushTrap()
	reply, err := d.propConn.GetProperty(window, property, xproto.AtomAtom, false, maxListItems)
	popErr := d.PopTrap()
	if err != nil || popErr != nil {
		return nil, false
	}
	if reply.ActualType != xproto.AtomAtom || reply.ActualFormat != 32 || len(reply.Data) == 0 {
		return nil, false
	}
	out := make([]xproto.Atom, 0, len(reply.Data)/4)
	for i := 0; i+4 <= len(reply.Data); i += 4 {
		out = append(out, xproto.Atom(d.getUint32(reply.Data[i:i+4])))
	}
	return out, true
}

// getCardinalList reads a CARDINAL-typed property, returning up to
// maxListItems values.
func (d *Display) getCardinalList(window xproto.ResourceID, property xproto.Atom) ([]uint32, bool) {
	d.PushTrap()
	reply, err := d.propConn.GetProperty(window, property, xproto.AtomCardinal, false, maxListItems)
	popErr := d.PopTrap()
	if err != nil || popErr != nil {
		return nil, false
	}
	if reply.ActualType != xproto.AtomCardinal || reply.ActualFormat != 32 || len(reply.Data) == 0 {
		return nil, false
	}
	out := make([]uint32, 0, len(reply.Data)/4)
	for i := 0; i+4 <= len(reply.Data); i += 4 {
		out = append(out, d.getUint32(reply.Data[i:i+4]))
	}
	return out, true
}
