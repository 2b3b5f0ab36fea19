//go:build unix

package xproto

import "fmt"

// CreateOverrideRedirectWindow creates an unmapped, override-redirect
// window on the given screen. The launch window and the xmessage
// throwaway window are both exactly this: carriers for properties and
// ClientMessage targets, never shown to the user.
func (c *Conn) CreateOverrideRedirectWindow(screen *ScreenInfo) (ResourceID, error) {
	if screen == nil {
		return 0, fmt.Errorf("xproto: no screen")
	}

	windowID := c.GenerateID()

	valueMask := uint32(CWBackPixel | CWOverrideRedirect | CWEventMask)
	valueList := []uint32{
		screen.WhitePixel,
		1, // override-redirect = true
		EventMaskStructureNotify | EventMaskPropertyChange,
	}

	reqLen := uint16(8 + len(valueList))

	e := NewEncoder(c.byteOrder)
	e.PutUint8(OpcodeCreateWindow)
	e.PutUint8(screen.RootDepth)
	e.PutUint16(reqLen)
	e.PutUint32(uint32(windowID))
	e.PutUint32(uint32(screen.Root))
	e.PutInt16(0) // x
	e.PutInt16(0) // y
	e.PutUint16(1) // width
	e.PutUint16(1) // height
	e.PutUint16(0) // border width
	e.PutUint16(WindowClassInputOutput)
	e.PutUint32(screen.RootVisual)
	e.PutUint32(valueMask)
	for _, v := range valueList {
		e.PutUint32(v)
	}

	if err := c.sendRequest(e.Bytes()); err != nil {
		return 0, fmt.Errorf("xproto: CreateWindow failed: %w", err)
	}
	return windowID, nil
}

// DestroyWindow destroys a window. Destroying the launch window is itself
// a terminal protocol event: everyone watching its DestroyNotify treats it
// as launch completion.
func (c *Conn) DestroyWindow(window ResourceID) error {
	e := NewEncoder(c.byteOrder)
	e.PutUint8(OpcodeDestroyWindow)
	e.PutUint8(0)
	e.PutUint16(2)
	e.PutUint32(uint32(window))

	if err := c.sendRequest(e.Bytes()); err != nil {
		return fmt.Errorf("xproto: DestroyWindow failed: %w", err)
	}
	return nil
}

// SelectPropertyAndStructureNotify arranges for PropertyNotify and
// StructureNotify (including DestroyNotify) events on a window the caller
// did not create itself — the monitor side needs this on launch windows it
// discovers via _NET_LAUNCH_INITIATE.
func (c *Conn) SelectPropertyAndStructureNotify(window ResourceID) error {
	valueMask := uint32(CWEventMask)

	e := NewEncoder(c.byteOrder)
	e.PutUint8(OpcodeChangeWindowAttrs)
	e.PutUint8(0)
	e.PutUint16(4) // 3 header units + 1 value
	e.PutUint32(uint32(window))
	e.PutUint32(valueMask)
	e.PutUint32(EventMaskStructureNotify | EventMaskPropertyChange)

	if err := c.sendRequest(e.Bytes()); err != nil {
		return fmt.Errorf("xproto: ChangeWindowAttributes failed: %w", err)
	}
	return nil
}

// ChangeProperty sets a window property. mode is PropModeReplace for every
// caller in this module — the protocol never appends to or prepends onto
// a startup-notification property.
func (c *Conn) ChangeProperty(window ResourceID, property, propType Atom, format uint8, mode uint8, data []byte) error {
	dataLen := len(data)
	var numElements uint32
	switch format {
	case 8:
		numElements = uint32(dataLen)
	case 16:
		numElements = uint32(dataLen / 2)
	case 32:
		numElements = uint32(dataLen / 4)
	default:
		return fmt.Errorf("xproto: invalid property format %d", format)
	}

	reqLen := uint16(6 + (dataLen+3)/4)

	e := NewEncoder(c.byteOrder)
	e.PutUint8(OpcodeChangeProperty)
	e.PutUint8(mode)
	e.PutUint16(reqLen)
	e.PutUint32(uint32(window))
	e.PutUint32(uint32(property))
	e.PutUint32(uint32(propType))
	e.PutUint8(format)
	e.PutPadN(3)
	e.PutUint32(numElements)
	e.PutBytes(data)
	e.PutPad()

	if err := c.sendRequest(e.Bytes()); err != nil {
		return fmt.Errorf("xproto: ChangeProperty failed: %w", err)
	}
	return nil
}

// DeleteProperty removes a property from a window outright. No caller in
// this module uses it: cancel and complete write a cardinal rather than
// clearing one.
func (c *Conn) DeleteProperty(window ResourceID, property Atom) error {
	e := NewEncoder(c.byteOrder)
	e.PutUint8(19) // DeleteProperty
	e.PutUint8(0)
	e.PutUint16(3)
	e.PutUint32(uint32(window))
	e.PutUint32(uint32(property))

	if err := c.sendRequest(e.Bytes()); err != nil {
		return fmt.Errorf("xproto: DeleteProperty failed: %w", err)
	}
	return nil
}

// GetPropertyReply is the decoded result of a GetProperty request.
type GetPropertyReply struct {
	ActualType   Atom
	ActualFormat uint8
	BytesAfter   uint32
	Data         []byte // raw, (ActualFormat/8)-byte-per-element data
}

// GetProperty reads a window property. longLength bounds the number of
// 32-bit units requested — the property codec uses this to cap per-call
// memory (spec: 1000 atoms/cardinals, 20000 bytes of string, 256 scalars).
func (c *Conn) GetProperty(window ResourceID, property, reqType Atom, delete bool, longLength uint32) (*GetPropertyReply, error) {
	e := NewEncoder(c.byteOrder)
	e.PutUint8(OpcodeGetProperty)
	if delete {
		e.PutUint8(1)
	} else {
		e.PutUint8(0)
	}
	e.PutUint16(6)
	e.PutUint32(uint32(window))
	e.PutUint32(uint32(property))
	e.PutUint32(uint32(reqType))
	e.PutUint32(0) // long-offset
	e.PutUint32(longLength)

	reply, err := c.sendRequestWithReply(e.Bytes())
	if err != nil {
		return nil, fmt.Errorf("xproto: GetProperty failed: %w", err)
	}
	if len(reply) < 32 {
		return nil, fmt.Errorf("xproto: GetProperty reply too short")
	}

	d := NewDecoder(c.byteOrder, reply)
	_, _ = d.Uint8() // reply marker
	format, _ := d.Uint8()
	_, _ = d.Uint16() // sequence
	_, _ = d.Uint32() // reply length in 4-byte units
	actualType, _ := d.Uint32()
	bytesAfter, _ := d.Uint32()
	valueLen, _ := d.Uint32()
	if err := d.Skip(12); err != nil { // unused
		return nil, err
	}

	var elemSize uint32
	switch format {
	case 8:
		elemSize = 1
	case 16:
		elemSize = 2
	case 32:
		elemSize = 4
	}
	dataLen := int(valueLen * elemSize)
	data, err := d.Bytes(dataLen)
	if err != nil {
		return nil, fmt.Errorf("xproto: GetProperty reply truncated: %w", err)
	}

	return &GetPropertyReply{
		ActualType:   Atom(actualType),
		ActualFormat: format,
		BytesAfter:   bytesAfter,
		Data:         data,
	}, nil
}

// SendClientMessage sends a format-32 ClientMessage. destination is the
// window the request is addressed to (a screen root for a broadcast, or
// the launch window itself for a direct send); eventWindow is the value
// carried in the event's own window field, which identifies the launch
// regardless of which root it was broadcast to. propagate controls
// whether the server may pass it to ancestor windows if destination
// doesn't select for it; eventMask selects which of destination's masks
// must match for the server to actually deliver it.
func (c *Conn) SendClientMessage(destination, eventWindow ResourceID, msgType Atom, propagate bool, eventMask uint32, data [5]uint32) error {
	eventData := make([]byte, 32)
	eventData[0] = EventClientMessage
	eventData[1] = 32 // format

	enc := NewEncoder(c.byteOrder)
	enc.PutUint32(uint32(eventWindow))
	copy(eventData[4:8], enc.Bytes())
	enc.Reset()
	enc.PutUint32(uint32(msgType))
	copy(eventData[8:12], enc.Bytes())

	for i, v := range data {
		enc.Reset()
		enc.PutUint32(v)
		copy(eventData[12+i*4:16+i*4], enc.Bytes())
	}

	e := NewEncoder(c.byteOrder)
	e.PutUint8(OpcodeSendEvent)
	if propagate {
		e.PutUint8(1)
	} else {
		e.PutUint8(0)
	}
	e.PutUint16(11)
	e.PutUint32(uint32(destination))
	e.PutUint32(eventMask)
	e.PutBytes(eventData)

	if err := c.sendRequest(e.Bytes()); err != nil {
		return fmt.Errorf("xproto: SendEvent failed: %w", err)
	}
	return nil
}

// SendClientMessage8 sends a format-8 ClientMessage carrying up to 20 raw
// data bytes — the wire shape xmessage fragments use. destination and
// eventWindow follow the same split as SendClientMessage.
func (c *Conn) SendClientMessage8(destination, eventWindow ResourceID, msgType Atom, propagate bool, eventMask uint32, data [20]byte) error {
	eventData := make([]byte, 32)
	eventData[0] = EventClientMessage
	eventData[1] = 8 // format

	enc := NewEncoder(c.byteOrder)
	enc.PutUint32(uint32(eventWindow))
	copy(eventData[4:8], enc.Bytes())
	enc.Reset()
	enc.PutUint32(uint32(msgType))
	copy(eventData[8:12], enc.Bytes())
	copy(eventData[12:32], data[:])

	e := NewEncoder(c.byteOrder)
	e.PutUint8(OpcodeSendEvent)
	if propagate {
		e.PutUint8(1)
	} else {
		e.PutUint8(0)
	}
	e.PutUint16(11)
	e.PutUint32(uint32(destination))
	e.PutUint32(eventMask)
	e.PutBytes(eventData)

	if err := c.sendRequest(e.Bytes()); err != nil {
		return fmt.Errorf("xproto: SendEvent failed: %w", err)
	}
	return nil
}
