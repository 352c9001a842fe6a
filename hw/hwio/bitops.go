package hwio

// Split64 returns the low and high 32-bit halves of v, for registers pairs
// holding a 64-bit address.
func Split64(v uint64) (lo, hi uint32) {
	return uint32(v), uint32(v >> 32)
}

// Join64 is the inverse of Split64.
func Join64(lo, hi uint32) uint64 {
	return uint64(hi)<<32 | uint64(lo)
}
