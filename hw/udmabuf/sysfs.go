package udmabuf

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"axiloop/hw/hwio"
)

// Metadata reads the physical address and size the driver published for the
// buffer name under sysfsRoot. The size is decimal, the address hexadecimal
// (with or without 0x prefix).
func Metadata(sysfsRoot, name string) (phys uint64, size int, err error) {
	dir := filepath.Join(sysfsRoot, name)

	sz, err := readUint(filepath.Join(dir, "size"), 10)
	if err != nil {
		return 0, 0, err
	}
	if sz == 0 || sz > uint64(maxInt) {
		return 0, 0, &hwio.AcquireError{Dev: filepath.Join(dir, "size"), Op: "parse", Err: strconv.ErrRange}
	}

	phys, err = readUint(filepath.Join(dir, "phys_addr"), 16)
	if err != nil {
		return 0, 0, err
	}
	return phys, int(sz), nil
}

const maxInt = int(^uint(0) >> 1)

func readUint(path string, base int) (uint64, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return 0, &hwio.AcquireError{Dev: path, Op: "read", Err: err}
	}

	s := strings.TrimSpace(string(buf))
	if base == 16 {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	}
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, &hwio.AcquireError{Dev: path, Op: "parse", Err: err}
	}
	return v, nil
}
