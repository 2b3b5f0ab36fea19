//go:build unix

package xproto

import (
	"errors"
	"fmt"
)

// Setup response status codes.
const (
	SetupFailed       = 0
	SetupSuccess      = 1
	SetupAuthenticate = 2
)

// SetupInfo contains information from the X server setup response.
type SetupInfo struct {
	ProtocolMajorVersion uint16
	ProtocolMinorVersion uint16

	Vendor        string
	ReleaseNumber uint32

	ResourceIDBase uint32
	ResourceIDMask uint32

	MaxRequestLength uint16

	Screens []ScreenInfo

	pixmapFormats []pixmapFormat
}

// ScreenInfo describes one of the server's screens, each with its own root
// window — the startup-notification broadcast operations (initiate, pulse,
// xmessage) address every screen's root in turn.
type ScreenInfo struct {
	Root            ResourceID
	DefaultColormap ResourceID
	WhitePixel      uint32
	BlackPixel      uint32
	WidthInPixels   uint16
	HeightInPixels  uint16
	RootVisual      uint32
	RootDepth       uint8

	depths []depthInfo
}

// depthInfo and visualType are parsed only to keep the decoder's cursor
// aligned with the wire format; this package has no use for per-depth
// visual lists.
type depthInfo struct {
	depth   uint8
	visuals []visualType
}

type visualType struct {
	visualID uint32
}

type pixmapFormat struct {
	depth        uint8
	bitsPerPixel uint8
	scanlinePad  uint8
}

// Errors from the setup handshake.
var (
	ErrSetupFailed       = errors.New("xproto: connection setup failed")
	ErrSetupAuthenticate = errors.New("xproto: server requires additional authentication")
	ErrInvalidSetup      = errors.New("xproto: invalid setup response")
)

// buildSetupRequest builds the initial connection setup request.
func buildSetupRequest(order ByteOrder, authName string, authData []byte) []byte {
	authNameLen := len(authName)
	authDataLen := len(authData)
	totalLen := 12 + authNameLen + pad(authNameLen) + authDataLen + pad(authDataLen)

	e := NewEncoder(order)
	e.PutUint8(byte(order))
	e.PutUint8(0) // unused
	e.PutUint16(11)
	e.PutUint16(0)
	e.PutUint16(uint16(authNameLen))
	e.PutUint16(uint16(authDataLen))
	e.PutUint16(0) // unused

	e.PutBytes([]byte(authName))
	e.PutPadN(pad(authNameLen))
	e.PutBytes(authData)
	e.PutPadN(pad(authDataLen))

	result := e.Bytes()
	for len(result) < totalLen {
		result = append(result, 0)
	}
	return result
}

// parseSetupResponse parses the server's setup response.
func parseSetupResponse(order ByteOrder, data []byte) (*SetupInfo, error) {
	if len(data) < 8 {
		return nil, ErrInvalidSetup
	}

	d := NewDecoder(order, data)

	status, err := d.Uint8()
	if err != nil {
		return nil, err
	}

	switch status {
	case SetupFailed:
		reasonLen, _ := d.Uint8()
		_, _ = d.Uint16() // protocol major
		_, _ = d.Uint16() // protocol minor
		_, _ = d.Uint16() // additional data length
		reason, _ := d.String(int(reasonLen))
		return nil, fmt.Errorf("%w: %s", ErrSetupFailed, reason)

	case SetupAuthenticate:
		return nil, ErrSetupAuthenticate

	case SetupSuccess:
		return parseSetupSuccess(d)

	default:
		return nil, ErrInvalidSetup
	}
}

func parseSetupSuccess(d *Decoder) (*SetupInfo, error) {
	info := &SetupInfo{}

	if err := d.Skip(1); err != nil { // unused byte after status
		return nil, err
	}

	var err error
	if info.ProtocolMajorVersion, err = d.Uint16(); err != nil {
		return nil, err
	}
	if info.ProtocolMinorVersion, err = d.Uint16(); err != nil {
		return nil, err
	}
	if _, err = d.Uint16(); err != nil { // additional data length, in 4-byte units
		return nil, err
	}
	if info.ReleaseNumber, err = d.Uint32(); err != nil {
		return nil, err
	}
	if info.ResourceIDBase, err = d.Uint32(); err != nil {
		return nil, err
	}
	if info.ResourceIDMask, err = d.Uint32(); err != nil {
		return nil, err
	}
	if _, err = d.Uint32(); err != nil { // motion buffer size
		return nil, err
	}

	vendorLength, err := d.Uint16()
	if err != nil {
		return nil, err
	}
	if info.MaxRequestLength, err = d.Uint16(); err != nil {
		return nil, err
	}

	numScreens, err := d.Uint8()
	if err != nil {
		return nil, err
	}
	numFormats, err := d.Uint8()
	if err != nil {
		return nil, err
	}

	if err := d.Skip(4); err != nil { // image/bitmap byte-order and scanline fields
		return nil, err
	}
	if err := d.Skip(2); err != nil { // min/max keycode
		return nil, err
	}
	if err := d.Skip(4); err != nil { // unused
		return nil, err
	}

	info.Vendor, err = d.String(int(vendorLength))
	if err != nil {
		return nil, err
	}
	if err := d.SkipPad(int(vendorLength)); err != nil {
		return nil, err
	}

	info.pixmapFormats = make([]pixmapFormat, numFormats)
	for i := range info.pixmapFormats {
		f, err := parsePixmapFormat(d)
		if err != nil {
			return nil, err
		}
		info.pixmapFormats[i] = f
	}

	info.Screens = make([]ScreenInfo, numScreens)
	for i := range info.Screens {
		screen, err := parseScreenInfo(d)
		if err != nil {
			return nil, err
		}
		info.Screens[i] = screen
	}

	return info, nil
}

func parsePixmapFormat(d *Decoder) (pixmapFormat, error) {
	var f pixmapFormat
	var err error
	if f.depth, err = d.Uint8(); err != nil {
		return f, err
	}
	if f.bitsPerPixel, err = d.Uint8(); err != nil {
		return f, err
	}
	if f.scanlinePad, err = d.Uint8(); err != nil {
		return f, err
	}
	if err := d.Skip(5); err != nil {
		return f, err
	}
	return f, nil
}

func parseScreenInfo(d *Decoder) (ScreenInfo, error) {
	var s ScreenInfo
	var err error

	root, err := d.Uint32()
	if err != nil {
		return s, err
	}
	s.Root = ResourceID(root)

	colormap, err := d.Uint32()
	if err != nil {
		return s, err
	}
	s.DefaultColormap = ResourceID(colormap)

	if s.WhitePixel, err = d.Uint32(); err != nil {
		return s, err
	}
	if s.BlackPixel, err = d.Uint32(); err != nil {
		return s, err
	}
	if _, err = d.Uint32(); err != nil { // current input masks
		return s, err
	}
	if s.WidthInPixels, err = d.Uint16(); err != nil {
		return s, err
	}
	if s.HeightInPixels, err = d.Uint16(); err != nil {
		return s, err
	}
	if err := d.Skip(4); err != nil { // width/height in millimeters
		return s, err
	}
	if err := d.Skip(4); err != nil { // min/max installed maps
		return s, err
	}
	if s.RootVisual, err = d.Uint32(); err != nil {
		return s, err
	}
	if err := d.Skip(2); err != nil { // backing stores, save-unders
		return s, err
	}
	if s.RootDepth, err = d.Uint8(); err != nil {
		return s, err
	}

	allowedDepthsCount, err := d.Uint8()
	if err != nil {
		return s, err
	}

	s.depths = make([]depthInfo, allowedDepthsCount)
	for i := range s.depths {
		depth, err := parseDepthInfo(d)
		if err != nil {
			return s, err
		}
		s.depths[i] = depth
	}

	return s, nil
}

func parseDepthInfo(d *Decoder) (depthInfo, error) {
	var di depthInfo
	var err error

	if di.depth, err = d.Uint8(); err != nil {
		return di, err
	}
	if err := d.Skip(1); err != nil {
		return di, err
	}
	visualsCount, err := d.Uint16()
	if err != nil {
		return di, err
	}
	if err := d.Skip(4); err != nil {
		return di, err
	}

	di.visuals = make([]visualType, visualsCount)
	for i := range di.visuals {
		v, err := parseVisualType(d)
		if err != nil {
			return di, err
		}
		di.visuals[i] = v
	}

	return di, nil
}

func parseVisualType(d *Decoder) (visualType, error) {
	var v visualType
	var err error
	if v.visualID, err = d.Uint32(); err != nil {
		return v, err
	}
	if err := d.Skip(2); err != nil { // class, bits-per-rgb-value
		return v, err
	}
	if err := d.Skip(2); err != nil { // colormap entries
		return v, err
	}
	if err := d.Skip(12); err != nil { // red/green/blue masks
		return v, err
	}
	if err := d.Skip(4); err != nil { // unused
		return v, err
	}
	return v, nil
}
