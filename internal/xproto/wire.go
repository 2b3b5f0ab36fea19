// Package xproto implements the slice of the X11 wire protocol the
// startup-notification protocol needs: connection setup with
// MIT-MAGIC-COOKIE-1 authentication (Connect, ConnectTo), atom interning,
// window creation, property get/set and ClientMessage send/receive. It does
// not run an event loop — callers read events with Conn.ReadEvent (which
// decodes them with ParseEvent) and dispatch them themselves.
package xproto

import (
	"encoding/binary"
	"errors"
)

// ByteOrder represents the X11 protocol byte order.
// Clients can choose big-endian ('B') or little-endian ('l').
type ByteOrder byte

const (
	// MSBFirst is big-endian byte order (0x42 = 'B').
	MSBFirst ByteOrder = 'B'
	// LSBFirst is little-endian byte order (0x6c = 'l').
	LSBFirst ByteOrder = 'l'
)

// ResourceID represents an X11 resource identifier (a Window ID here).
type ResourceID uint32

// Atom represents an interned string identifier.
type Atom uint32

// Timestamp represents an X11 timestamp (milliseconds since server start).
type Timestamp uint32

// CurrentTime is a special timestamp value meaning "now".
const CurrentTime Timestamp = 0

// Predefined atoms that this package's property codec writes or expects.
const (
	AtomNone     Atom = 0
	AtomAtom     Atom = 4
	AtomCardinal Atom = 6
	AtomString   Atom = 31
	AtomWindow   Atom = 33
)

// Request opcodes used by this package.
const (
	OpcodeCreateWindow      = 1
	OpcodeChangeWindowAttrs = 2
	OpcodeDestroyWindow     = 4
	OpcodeInternAtom        = 16
	OpcodeChangeProperty    = 18
	OpcodeGetProperty       = 20
	OpcodeSendEvent         = 25
	OpcodeGetInputFocus     = 43
)

// Event codes this package parses.
const (
	EventDestroyNotify  = 17
	EventPropertyNotify = 28
	EventClientMessage  = 33
)

// X11 error codes, used when reporting a server-side failure from the
// error-trap discipline.
const (
	ErrorRequest  = 1
	ErrorValue    = 2
	ErrorWindow   = 3
	ErrorAtom     = 5
	ErrorMatch    = 8
	ErrorAlloc    = 11
)

// Window class values.
const (
	WindowClassCopyFromParent = 0
	WindowClassInputOutput    = 1
)

// CreateWindow value-mask bits this package sets.
const (
	CWBackPixel        = 1 << 1
	CWOverrideRedirect = 1 << 9
	CWEventMask        = 1 << 11
)

// Event mask bits this package selects.
const (
	EventMaskStructureNotify = 1 << 17
	EventMaskPropertyChange  = 1 << 22
)

// Property mode values for ChangeProperty.
const (
	PropModeReplace = 0
)

// PropertyNewValue/PropertyDelete — the State field of a PropertyNotify event.
const (
	PropertyNewValue = 0
	PropertyDelete   = 1
)

// Wire protocol errors.
var (
	ErrMessageTooSmall  = errors.New("xproto: message smaller than header")
	ErrUnexpectedEOF     = errors.New("xproto: unexpected end of message")
	ErrInvalidStringLen = errors.New("xproto: invalid string length")
)

// Encoder encodes X11 requests to wire format.
type Encoder struct {
	buf       []byte
	byteOrder binary.ByteOrder
}

// NewEncoder creates a new Encoder with the given byte order.
func NewEncoder(order ByteOrder) *Encoder {
	e := &Encoder{
		buf: make([]byte, 0, 256),
	}
	if order == MSBFirst {
		e.byteOrder = binary.BigEndian
	} else {
		e.byteOrder = binary.LittleEndian
	}
	return e
}

// Reset clears the encoder buffer for reuse.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// Bytes returns the encoded data.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the current buffer length.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// PutUint8 appends a single byte.
func (e *Encoder) PutUint8(v uint8) {
	e.buf = append(e.buf, v)
}

// PutUint16 appends a 16-bit value.
func (e *Encoder) PutUint16(v uint16) {
	b := make([]byte, 2)
	e.byteOrder.PutUint16(b, v)
	e.buf = append(e.buf, b...)
}

// PutUint32 appends a 32-bit value.
func (e *Encoder) PutUint32(v uint32) {
	b := make([]byte, 4)
	e.byteOrder.PutUint32(b, v)
	e.buf = append(e.buf, b...)
}

// PutInt16 appends a signed 16-bit value.
func (e *Encoder) PutInt16(v int16) {
	e.PutUint16(uint16(v))
}

// PutBytes appends raw bytes.
func (e *Encoder) PutBytes(data []byte) {
	e.buf = append(e.buf, data...)
}

// PutPad pads the buffer to a 4-byte boundary.
func (e *Encoder) PutPad() {
	pad := (4 - len(e.buf)%4) % 4
	for i := 0; i < pad; i++ {
		e.buf = append(e.buf, 0)
	}
}

// PutPadN pads with n zero bytes.
func (e *Encoder) PutPadN(n int) {
	for i := 0; i < n; i++ {
		e.buf = append(e.buf, 0)
	}
}

// Decoder decodes X11 responses from wire format.
type Decoder struct {
	buf       []byte
	offset    int
	byteOrder binary.ByteOrder
}

// NewDecoder creates a new Decoder with the given byte order.
func NewDecoder(order ByteOrder, buf []byte) *Decoder {
	d := &Decoder{
		buf: buf,
	}
	if order == MSBFirst {
		d.byteOrder = binary.BigEndian
	} else {
		d.byteOrder = binary.LittleEndian
	}
	return d
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.offset
}

// Skip advances the offset by n bytes.
func (d *Decoder) Skip(n int) error {
	if d.offset+n > len(d.buf) {
		return ErrUnexpectedEOF
	}
	d.offset += n
	return nil
}

// Uint8 reads a single byte.
func (d *Decoder) Uint8() (uint8, error) {
	if d.offset >= len(d.buf) {
		return 0, ErrUnexpectedEOF
	}
	v := d.buf[d.offset]
	d.offset++
	return v, nil
}

// Uint16 reads a 16-bit value.
func (d *Decoder) Uint16() (uint16, error) {
	if d.offset+2 > len(d.buf) {
		return 0, ErrUnexpectedEOF
	}
	v := d.byteOrder.Uint16(d.buf[d.offset:])
	d.offset += 2
	return v, nil
}

// Uint32 reads a 32-bit value.
func (d *Decoder) Uint32() (uint32, error) {
	if d.offset+4 > len(d.buf) {
		return 0, ErrUnexpectedEOF
	}
	v := d.byteOrder.Uint32(d.buf[d.offset:])
	d.offset += 4
	return v, nil
}

// Int16 reads a signed 16-bit value.
func (d *Decoder) Int16() (int16, error) {
	v, err := d.Uint16()
	return int16(v), err
}

// Bytes reads n bytes from the buffer.
func (d *Decoder) Bytes(n int) ([]byte, error) {
	if n < 0 || d.offset+n > len(d.buf) {
		return nil, ErrUnexpectedEOF
	}
	data := make([]byte, n)
	copy(data, d.buf[d.offset:d.offset+n])
	d.offset += n
	return data, nil
}

// String reads n bytes as a string.
func (d *Decoder) String(n int) (string, error) {
	data, err := d.Bytes(n)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SkipPad skips padding to align to a 4-byte boundary based on a
// just-read field's length.
func (d *Decoder) SkipPad(length int) error {
	return d.Skip(pad(length))
}

// pad calculates padding needed for 4-byte alignment.
func pad(n int) int {
	return (4 - n%4) % 4
}

// requestLength calculates a request length in 4-byte units, inclusive of
// any trailing padding needed to reach a 4-byte boundary.
func requestLength(dataLen int) uint16 {
	return uint16((dataLen + 3) / 4)
}
