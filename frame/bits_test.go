package frame

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseBitOrder(t *testing.T) {
	tests := []struct {
		s       string
		want    BitOrder
		wantErr bool
	}{
		{s: "big", want: Big},
		{s: "little", want: Little},
		{s: "msb", want: Big},
		{s: "lsb", want: Little},
		{s: "Big", wantErr: true},
		{s: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseBitOrder(tt.s)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseBitOrder(%q) err = %v, wantErr %t", tt.s, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseBitOrder(%q) = %s, want %s", tt.s, got, tt.want)
		}
	}
}

func TestBitOrderToggle(t *testing.T) {
	if Big.Toggle() != Little || Little.Toggle() != Big {
		t.Errorf("Toggle: big -> %s, little -> %s", Big.Toggle(), Little.Toggle())
	}
	if Big.String() != "big" || Little.String() != "little" {
		t.Errorf("String: %q, %q", Big.String(), Little.String())
	}

	var o BitOrder
	if err := o.UnmarshalText([]byte("little")); err != nil || o != Little {
		t.Errorf("UnmarshalText(little) = %s, %v", o, err)
	}
}

func TestUnpackBits(t *testing.T) {
	src := []byte{0x80, 0x01}

	tests := []struct {
		order BitOrder
		want  []bool
	}{
		{Big, []bool{
			true, false, false, false, false, false, false, false,
			false, false, false, false, false, false, false, true,
		}},
		{Little, []bool{
			false, false, false, false, false, false, false, true,
			true, false, false, false, false, false, false, false,
		}},
	}
	for _, tt := range tests {
		got := make([]bool, 16)
		if n := UnpackBits(got, src, tt.order); n != 16 {
			t.Errorf("%s: UnpackBits() = %d, want 16", tt.order, n)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%s: bits mismatch (-want +got):\n%s", tt.order, diff)
		}
	}
}

func TestUnpackBitsTruncates(t *testing.T) {
	dst := make([]bool, 9)
	if n := UnpackBits(dst, []byte{0xFF, 0xFF}, Big); n != 9 {
		t.Errorf("UnpackBits() = %d, want 9", n)
	}

	dst = make([]bool, 32)
	if n := UnpackBits(dst, []byte{0xFF}, Big); n != 8 {
		t.Errorf("UnpackBits() = %d, want 8", n)
	}
	if dst[8] {
		t.Errorf("bit past source end was written")
	}
}

func TestPackUnpackBits(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for _, order := range []BitOrder{Big, Little} {
		for _, n := range []int{0, 1, 7, 8, 9, 100, 16384} {
			bits := make([]bool, n)
			for i := range bits {
				bits[i] = rng.IntN(2) == 1
			}

			packed := PackBits(bits, order)
			if len(packed) != (n+7)/8 {
				t.Fatalf("%s: PackBits(%d bits) is %d bytes", order, n, len(packed))
			}

			got := make([]bool, n)
			UnpackBits(got, packed, order)
			if diff := cmp.Diff(bits, got); diff != "" {
				t.Errorf("%s/%d: round trip mismatch (-want +got):\n%s", order, n, diff)
			}

			// Repacking yields the same bytes.
			if diff := cmp.Diff(packed, PackBits(got, order)); diff != "" {
				t.Errorf("%s/%d: repack mismatch (-want +got):\n%s", order, n, diff)
			}
		}
	}
}

func TestPackBitsPadding(t *testing.T) {
	bits := []bool{true, true, true}
	if got := PackBits(bits, Big); got[0] != 0xE0 {
		t.Errorf("PackBits(big) = %#02x, want 0xe0", got[0])
	}
	if got := PackBits(bits, Little); got[0] != 0x07 {
		t.Errorf("PackBits(little) = %#02x, want 0x07", got[0])
	}
}
