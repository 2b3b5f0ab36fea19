package xproto

import "testing"

func TestEncoderDecoderRoundTrip(t *testing.T) {
	e := NewEncoder(MSBFirst)
	e.PutUint8(7)
	e.PutUint16(0xBEEF)
	e.PutUint32(0xCAFEF00D)
	e.PutInt16(-12)
	e.PutPadN(3) // align the string field to a 4-byte boundary
	e.PutBytes([]byte("abc"))
	e.PutPad()

	if e.Len()%4 != 0 {
		t.Fatalf("expected 4-byte aligned buffer, got len %d", e.Len())
	}

	d := NewDecoder(MSBFirst, e.Bytes())
	if v, err := d.Uint8(); err != nil || v != 7 {
		t.Fatalf("Uint8: got %d, %v", v, err)
	}
	if v, err := d.Uint16(); err != nil || v != 0xBEEF {
		t.Fatalf("Uint16: got %x, %v", v, err)
	}
	if v, err := d.Uint32(); err != nil || v != 0xCAFEF00D {
		t.Fatalf("Uint32: got %x, %v", v, err)
	}
	if v, err := d.Int16(); err != nil || v != -12 {
		t.Fatalf("Int16: got %d, %v", v, err)
	}
	if err := d.Skip(3); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	s, err := d.String(3)
	if err != nil || s != "abc" {
		t.Fatalf("String: got %q, %v", s, err)
	}
	if err := d.SkipPad(3); err != nil {
		t.Fatalf("SkipPad: %v", err)
	}
	if d.Remaining() != 0 {
		t.Fatalf("expected fully consumed buffer, %d bytes remaining", d.Remaining())
	}
}

func TestEncoderByteOrder(t *testing.T) {
	be := NewEncoder(MSBFirst)
	be.PutUint32(0x01020304)
	want := []byte{0x01, 0x02, 0x03, 0x04}
	for i, b := range want {
		if be.Bytes()[i] != b {
			t.Fatalf("big-endian byte %d: got %x want %x", i, be.Bytes()[i], b)
		}
	}

	le := NewEncoder(LSBFirst)
	le.PutUint32(0x01020304)
	want = []byte{0x04, 0x03, 0x02, 0x01}
	for i, b := range want {
		if le.Bytes()[i] != b {
			t.Fatalf("little-endian byte %d: got %x want %x", i, le.Bytes()[i], b)
		}
	}
}

func TestDecoderUnexpectedEOF(t *testing.T) {
	d := NewDecoder(MSBFirst, []byte{1, 2})
	if _, err := d.Uint32(); err != ErrUnexpectedEOF {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
	if err := d.Skip(100); err != ErrUnexpectedEOF {
		t.Fatalf("expected ErrUnexpectedEOF on Skip, got %v", err)
	}
}

func TestPad(t *testing.T) {
	cases := map[int]int{0: 0, 1: 3, 2: 2, 3: 1, 4: 0, 5: 3}
	for n, want := range cases {
		if got := pad(n); got != want {
			t.Fatalf("pad(%d): got %d want %d", n, got, want)
		}
	}
}

func TestRequestLength(t *testing.T) {
	cases := map[int]uint16{0: 0, 1: 1, 4: 1, 5: 2, 8: 2}
	for n, want := range cases {
		if got := requestLength(n); got != want {
			t.Fatalf("requestLength(%d): got %d want %d", n, got, want)
		}
	}
}
