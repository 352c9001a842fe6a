//go:build !unix

package hwio

import (
	"errors"
	"os"
)

func mmap(f *os.File, size int, rw bool) ([]byte, error) {
	return nil, errors.New("hwio: mmap not supported on this platform")
}

func munmap(b []byte) error {
	return errors.New("hwio: unreachable code")
}
