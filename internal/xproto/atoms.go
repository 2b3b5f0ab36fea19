//go:build unix

package xproto

import "fmt"

// InternAtom interns an atom name and returns its ID, consulting and
// populating the per-connection cache first.
func (c *Conn) InternAtom(name string, onlyIfExists bool) (Atom, error) {
	c.atomCacheLock.RLock()
	if atom, ok := c.atomCache[name]; ok {
		c.atomCacheLock.RUnlock()
		return atom, nil
	}
	c.atomCacheLock.RUnlock()

	nameLen := len(name)
	reqLen := 2 + requestLength(nameLen)

	e := NewEncoder(c.byteOrder)
	e.PutUint8(OpcodeInternAtom)
	if onlyIfExists {
		e.PutUint8(1)
	} else {
		e.PutUint8(0)
	}
	e.PutUint16(reqLen)
	e.PutUint16(uint16(nameLen))
	e.PutUint16(0) // unused
	e.PutBytes([]byte(name))
	e.PutPad()

	reply, err := c.sendRequestWithReply(e.Bytes())
	if err != nil {
		return AtomNone, fmt.Errorf("xproto: InternAtom(%q) failed: %w", name, err)
	}
	if len(reply) < 12 {
		return AtomNone, fmt.Errorf("xproto: InternAtom(%q) reply too short", name)
	}

	d := NewDecoder(c.byteOrder, reply[8:12])
	atomID, err := d.Uint32()
	if err != nil {
		return AtomNone, err
	}

	atom := Atom(atomID)
	if atom != AtomNone {
		c.atomCacheLock.Lock()
		c.atomCache[name] = atom
		c.atomCacheLock.Unlock()
	}
	return atom, nil
}

// InternAtoms interns a batch of names, reusing the cache for each.
func (c *Conn) InternAtoms(names []string) (map[string]Atom, error) {
	result := make(map[string]Atom, len(names))
	for _, name := range names {
		atom, err := c.InternAtom(name, false)
		if err != nil {
			return nil, err
		}
		result[name] = atom
	}
	return result, nil
}
