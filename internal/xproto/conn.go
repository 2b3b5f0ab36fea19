//go:build unix

package xproto

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Conn errors.
var (
	ErrNotConnected     = errors.New("xproto: not connected")
	ErrConnectionClosed = errors.New("xproto: connection closed")
	ErrNoDisplay        = errors.New("xproto: DISPLAY not set")
	ErrInvalidDisplay   = errors.New("xproto: invalid DISPLAY format")
	ErrProtocolError    = errors.New("xproto: protocol error")
)

// Conn is a connection to an X server, dialed and authenticated by Connect
// or ConnectTo. Running the event loop around it is the caller's
// responsibility (see package doc).
type Conn struct {
	conn     net.Conn
	connFile *os.File

	byteOrder ByteOrder
	setup     *SetupInfo

	resourceIDBase uint32
	resourceIDLast uint32

	nextSeq atomic.Uint32

	mu     sync.Mutex
	closed bool

	atomCache     map[string]Atom
	atomCacheLock sync.RWMutex

	pendingReplies     map[uint16]chan []byte
	pendingRepliesLock sync.Mutex
}

// Connect establishes a connection to the X server named by the DISPLAY
// environment variable.
func Connect() (*Conn, error) {
	display := os.Getenv("DISPLAY")
	if display == "" {
		return nil, ErrNoDisplay
	}
	return ConnectTo(display)
}

// ConnectTo connects to the given display string: [host]:display[.screen].
func ConnectTo(display string) (*Conn, error) {
	host, displayNum, _, err := parseDisplay(display)
	if err != nil {
		return nil, err
	}

	var network, address string
	if host == "" {
		network = "unix"
		address = "/tmp/.X11-unix/X" + strconv.Itoa(displayNum)
	} else {
		network = "tcp"
		address = fmt.Sprintf("%s:%d", host, 6000+displayNum)
	}

	netConn, err := net.Dial(network, address)
	if err != nil {
		return nil, fmt.Errorf("xproto: failed to connect to %s: %w", address, err)
	}

	c := &Conn{
		conn:           netConn,
		byteOrder:      LSBFirst,
		atomCache:      make(map[string]Atom),
		pendingReplies: make(map[uint16]chan []byte),
	}

	switch tc := netConn.(type) {
	case *net.UnixConn:
		c.connFile, _ = tc.File()
	case *net.TCPConn:
		c.connFile, _ = tc.File()
	}

	if err := c.performSetup(host, strconv.Itoa(displayNum)); err != nil {
		_ = netConn.Close()
		return nil, err
	}

	return c, nil
}

// parseDisplay parses an X11 display string into host, display and screen.
func parseDisplay(display string) (host string, displayNum int, screenNum int, err error) {
	colonIdx := strings.LastIndex(display, ":")
	if colonIdx == -1 {
		return "", 0, 0, ErrInvalidDisplay
	}

	host = display[:colonIdx]
	rest := display[colonIdx+1:]

	dotIdx := strings.Index(rest, ".")
	displayStr, screenStr := rest, "0"
	if dotIdx != -1 {
		displayStr, screenStr = rest[:dotIdx], rest[dotIdx+1:]
	}

	if displayNum, err = strconv.Atoi(displayStr); err != nil {
		return "", 0, 0, ErrInvalidDisplay
	}
	if screenNum, err = strconv.Atoi(screenStr); err != nil {
		return "", 0, 0, ErrInvalidDisplay
	}
	return host, displayNum, screenNum, nil
}

func (c *Conn) performSetup(hostname, displayNum string) error {
	authName, authData, err := getAuth(hostname, displayNum)
	if err != nil {
		authName, authData = "", nil
	}

	setupReq := buildSetupRequest(c.byteOrder, authName, authData)
	if _, err := c.conn.Write(setupReq); err != nil {
		return fmt.Errorf("xproto: failed to send setup request: %w", err)
	}

	initialBuf := make([]byte, 8)
	if _, err := io.ReadFull(c.conn, initialBuf); err != nil {
		return fmt.Errorf("xproto: failed to read setup response: %w", err)
	}

	d := NewDecoder(c.byteOrder, initialBuf[6:8])
	additionalLen, _ := d.Uint16()

	remainingBuf := make([]byte, int(additionalLen)*4)
	if _, err := io.ReadFull(c.conn, remainingBuf); err != nil {
		return fmt.Errorf("xproto: failed to read setup data: %w", err)
	}

	full := append(append([]byte{}, initialBuf...), remainingBuf...)
	setup, err := parseSetupResponse(c.byteOrder, full)
	if err != nil {
		return err
	}

	c.setup = setup
	c.resourceIDBase = setup.ResourceIDBase
	return nil
}

// Close closes the connection.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	c.pendingRepliesLock.Lock()
	for _, ch := range c.pendingReplies {
		close(ch)
	}
	c.pendingReplies = nil
	c.pendingRepliesLock.Unlock()

	if c.connFile != nil {
		_ = c.connFile.Close()
	}
	return c.conn.Close()
}

// GenerateID allocates a fresh window resource ID from the base the server
// granted us during setup. Used by the launcher to create the launch window
// and by xmessage broadcast to create its throwaway window.
func (c *Conn) GenerateID() ResourceID {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.resourceIDLast
	c.resourceIDLast++
	return ResourceID(id | c.resourceIDBase)
}

func (c *Conn) getNextSeq() uint16 {
	return uint16(c.nextSeq.Add(1))
}

// Fd returns the underlying socket descriptor, for callers running their own
// select/poll-based event loop around this connection.
func (c *Conn) Fd() int {
	if c.connFile != nil {
		return int(c.connFile.Fd())
	}
	return -1
}

// ByteOrder reports the wire byte order negotiated at connect time.
func (c *Conn) ByteOrder() ByteOrder { return c.byteOrder }

// Screens returns every screen the server advertised. Startup-notification
// broadcasts (initiate, pulse, xmessage fragments) address every screen's
// root window, not just the default one.
func (c *Conn) Screens() []ScreenInfo {
	if c.setup == nil {
		return nil
	}
	return c.setup.Screens
}

// RootWindows returns the root window of every screen.
func (c *Conn) RootWindows() []ResourceID {
	screens := c.Screens()
	roots := make([]ResourceID, len(screens))
	for i, s := range screens {
		roots[i] = s.Root
	}
	return roots
}

// DefaultScreen returns the first screen, used when creating the launch
// window (its exact screen placement has no protocol meaning).
func (c *Conn) DefaultScreen() *ScreenInfo {
	screens := c.Screens()
	if len(screens) == 0 {
		return nil
	}
	return &screens[0]
}

// sendRequest sends a request with no reply expected.
func (c *Conn) sendRequest(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	c.getNextSeq()
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("xproto: failed to send request: %w", err)
	}
	return nil
}

// sendRequestWithReply sends a request and blocks for its matching reply,
// skipping over any events that arrive interleaved on the same connection.
func (c *Conn) sendRequestWithReply(data []byte) ([]byte, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrConnectionClosed
	}
	seq := c.getNextSeq()
	replyCh := make(chan []byte, 1)

	c.pendingRepliesLock.Lock()
	c.pendingReplies[seq] = replyCh
	c.pendingRepliesLock.Unlock()

	if _, err := c.conn.Write(data); err != nil {
		c.mu.Unlock()
		c.pendingRepliesLock.Lock()
		delete(c.pendingReplies, seq)
		c.pendingRepliesLock.Unlock()
		return nil, fmt.Errorf("xproto: failed to send request: %w", err)
	}
	c.mu.Unlock()

	for {
		select {
		case reply := <-replyCh:
			return reply, nil
		default:
		}
		if _, err := c.readResponse(); err != nil {
			return nil, err
		}
		select {
		case reply := <-replyCh:
			return reply, nil
		default:
		}
	}
}

// readResponse reads and routes one server response: errors are returned,
// replies are delivered to their waiting sendRequestWithReply call, and
// events are handed back to the caller (ReadEvent decodes them with ParseEvent).
func (c *Conn) readResponse() ([]byte, error) {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(c.conn, buf); err != nil {
		return nil, fmt.Errorf("xproto: failed to read response: %w", err)
	}

	switch buf[0] {
	case 0:
		return nil, c.parseError(buf)

	case 1:
		d := NewDecoder(c.byteOrder, buf[4:8])
		additionalLen, _ := d.Uint32()
		if additionalLen > 0 {
			additional := make([]byte, additionalLen*4)
			if _, err := io.ReadFull(c.conn, additional); err != nil {
				return nil, fmt.Errorf("xproto: failed to read reply data: %w", err)
			}
			combined := make([]byte, 0, 32+len(additional))
			combined = append(combined, buf...)
			combined = append(combined, additional...)
			buf = combined
		}

		seqD := NewDecoder(c.byteOrder, buf[2:4])
		seq, _ := seqD.Uint16()

		c.pendingRepliesLock.Lock()
		ch, ok := c.pendingReplies[seq]
		if ok {
			delete(c.pendingReplies, seq)
		}
		c.pendingRepliesLock.Unlock()

		if ok {
			ch <- buf
		}
		return buf, nil

	default:
		return buf, nil
	}
}

func (c *Conn) parseError(buf []byte) error {
	d := NewDecoder(c.byteOrder, buf)
	_, _ = d.Uint8() // response type (0)
	errorCode, _ := d.Uint8()
	seq, _ := d.Uint16()
	resourceID, _ := d.Uint32()
	_, _ = d.Uint16() // minor opcode
	majorOpcode, _ := d.Uint8()

	return fmt.Errorf("%w: code=%d seq=%d resource=%d major=%d",
		ErrProtocolError, errorCode, seq, resourceID, majorOpcode)
}

// Flush is a no-op: requests are written synchronously as they are built.
func (c *Conn) Flush() error { return nil }

// Sync performs a round trip so the caller can be sure every request sent
// so far has been processed by the server — the contract the error-trap
// discipline's outermost Pop relies on.
func (c *Conn) Sync() error {
	e := NewEncoder(c.byteOrder)
	e.PutUint8(OpcodeGetInputFocus)
	e.PutUint8(0)
	e.PutUint16(1)
	_, err := c.sendRequestWithReply(e.Bytes())
	return err
}

// ReadEvent reads the next server message off the wire and parses it into
// an Event, skipping over replies that arrive between events. Callers run
// their own loop (select/poll or a dedicated goroutine) calling ReadEvent
// and feeding the result to Display.ProcessEvent.
func (c *Conn) ReadEvent() (Event, error) {
	for {
		buf, err := c.readResponse()
		if err != nil {
			return nil, err
		}
		if buf[0] == 1 { // reply consumed by readResponse's caller elsewhere
			continue
		}
		return ParseEvent(c.byteOrder, buf)
	}
}
