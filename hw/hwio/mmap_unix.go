//go:build unix

package hwio

import (
	"os"

	"golang.org/x/sys/unix"
)

func mmap(f *os.File, size int, rw bool) ([]byte, error) {
	prot := unix.PROT_READ
	if rw {
		prot |= unix.PROT_WRITE
	}
	return unix.Mmap(int(f.Fd()), 0, size, prot, unix.MAP_SHARED)
}

func munmap(b []byte) error {
	return unix.Munmap(b)
}
