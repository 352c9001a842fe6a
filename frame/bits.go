// Package frame decodes bit-packed two-channel frames and composes them into
// mosaics for display.
//
// A frame is two equal-sized bit planes stored back to back. Each plane holds
// one bit per pixel, row-major, packed eight pixels per byte.
package frame

import "fmt"

//go:generate go tool stringer -type=BitOrder -linecomment -output=bitorder_string.go

// BitOrder is the order of pixels within a byte of a bit plane.
type BitOrder uint8

const (
	Big    BitOrder = iota // big
	Little                 // little
)

// ParseBitOrder parses "big" or "little".
func ParseBitOrder(s string) (BitOrder, error) {
	switch s {
	case "big", "msb":
		return Big, nil
	case "little", "lsb":
		return Little, nil
	}
	return 0, fmt.Errorf("invalid bit order %q (want big or little)", s)
}

// Toggle returns the other bit order.
func (o BitOrder) Toggle() BitOrder {
	if o == Big {
		return Little
	}
	return Big
}

func (o BitOrder) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *BitOrder) UnmarshalText(text []byte) error {
	v, err := ParseBitOrder(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// shift returns the position, from the least significant bit, of bit i
// (0 to 7) of a byte.
func (o BitOrder) shift(i int) uint {
	if o == Little {
		return uint(i)
	}
	return uint(7 - i)
}

// Bit returns bit n of src, counting bits in order.
func Bit(src []byte, n int, order BitOrder) bool {
	return src[n>>3]>>order.shift(n&7)&1 != 0
}

// UnpackBits fills dst with the bits of src, in order, and returns how many
// were written: the smallest of len(dst) and 8*len(src). Trailing bits of src
// that don't fit in dst are discarded.
func UnpackBits(dst []bool, src []byte, order BitOrder) int {
	n := min(len(dst), 8*len(src))
	for i := range n {
		dst[i] = Bit(src, i, order)
	}
	return n
}

// PackBits packs src into ceil(len(src)/8) bytes. Padding bits of the last
// byte are zero.
func PackBits(src []bool, order BitOrder) []byte {
	dst := make([]byte, (len(src)+7)/8)
	for i, b := range src {
		if b {
			dst[i>>3] |= 1 << order.shift(i&7)
		}
	}
	return dst
}
