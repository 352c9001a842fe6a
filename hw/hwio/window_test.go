package hwio

import (
	"errors"
	"testing"
)

func TestWindowBounds(t *testing.T) {
	win, _ := newTestWindow(0x10)

	tests := []struct {
		off  uint32
		want error
	}{
		{0x00, nil},
		{0x0C, nil},
		{0x0E, ErrOutOfRange},
		{0x10, ErrOutOfRange},
		{0xFFFFFFFC, ErrOutOfRange},
		{0x02, ErrUnaligned},
	}
	for _, tt := range tests {
		if err := win.Write32(tt.off, 0xCAFE); !errors.Is(err, tt.want) {
			t.Errorf("Write32(%#x) err = %v, want %v", tt.off, err, tt.want)
		}
		if _, err := win.Read32(tt.off); !errors.Is(err, tt.want) {
			t.Errorf("Read32(%#x) err = %v, want %v", tt.off, err, tt.want)
		}
	}

	var rerr *RangeError
	_, err := win.Read32(0x10)
	if !errors.As(err, &rerr) {
		t.Fatalf("err = %T, want *RangeError", err)
	}
	if rerr.Off != 0x10 || rerr.Len != 4 || rerr.Size != 0x10 {
		t.Errorf("unexpected range error: %+v", rerr)
	}
}

func TestWindowClose(t *testing.T) {
	win, _ := newTestWindow(0x10)
	if err := win.Close(); err != nil {
		t.Fatal(err)
	}
	if err := win.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := win.Read32(0); !errors.Is(err, ErrClosed) {
		t.Errorf("Read32 after Close: err = %v, want ErrClosed", err)
	}
}

func TestDevice32(t *testing.T) {
	var last struct{ off, val uint32 }
	dev := &Device32{
		Name:    "dev",
		ReadCb:  func(off uint32) uint32 { return off | 0xA0000000 },
		WriteCb: func(off, val uint32) { last.off, last.val = off, val },
	}
	win := NewWindow("dev", 0x100, dev)

	if got, _ := win.Read32(0x48); got != 0xA0000048 {
		t.Errorf("Read32(0x48) = %08x, want a0000048", got)
	}
	win.Write32(0x58, 0x800)
	if last.off != 0x58 || last.val != 0x800 {
		t.Errorf("WriteCb got (%#x, %#x)", last.off, last.val)
	}

	ro := &Device32{Name: "ro", Flags: ReadOnlyFlag, WriteCb: func(off, val uint32) { t.Error("write callback called on readonly device") }}
	ro.Write32(0, 1)
	if got := ro.Read32(0); got != 0 {
		t.Errorf("Read32 without callback = %x, want 0", got)
	}
}

func TestSplitJoin64(t *testing.T) {
	for _, v := range []uint64{0, 1, 0xFFFFFFFF, 0x1_0000_0000, 0x12345678_9ABCDEF0, ^uint64(0)} {
		lo, hi := Split64(v)
		if got := Join64(lo, hi); got != v {
			t.Errorf("Join64(Split64(%#x)) = %#x", v, got)
		}
	}
}
