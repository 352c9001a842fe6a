package hwio

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type regInfo struct {
	name   string
	offset uint32
	flags  RWFlags
	regPtr *Reg32
}

var reg32Type = reflect.TypeOf(Reg32{})

// bankGetRegs parses the `hwio` struct tags of all Reg32 fields in bank, which
// must be a pointer to a struct. Fields without an offset are not part of the
// bank and are ignored.
func bankGetRegs(bank any) ([]regInfo, error) {
	v := reflect.ValueOf(bank)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("hwio: bank must be a pointer to struct, got %T", bank)
	}
	v = v.Elem()
	t := v.Type()

	var regs []regInfo
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type != reg32Type {
			continue
		}
		tag, ok := f.Tag.Lookup("hwio")
		if !ok {
			continue
		}

		info := regInfo{name: f.Name}
		hasOffset := false
		for _, opt := range strings.Split(tag, ",") {
			opt = strings.TrimSpace(opt)
			key, val, _ := strings.Cut(opt, "=")
			switch key {
			case "offset":
				off, err := strconv.ParseUint(val, 0, 32)
				if err != nil {
					return nil, fmt.Errorf("hwio: field %s: invalid offset %q: %w", f.Name, val, err)
				}
				info.offset = uint32(off)
				hasOffset = true
			case "name":
				info.name = val
			case "readonly":
				info.flags |= ReadOnlyFlag
			case "writeonly":
				info.flags |= WriteOnlyFlag
			case "":
			default:
				return nil, fmt.Errorf("hwio: field %s: unknown option %q", f.Name, opt)
			}
		}
		if info.flags == ReadOnlyFlag|WriteOnlyFlag {
			return nil, fmt.Errorf("hwio: field %s: both readonly and writeonly", f.Name)
		}
		if !hasOffset {
			continue
		}
		info.regPtr = v.Field(i).Addr().Interface().(*Reg32)
		regs = append(regs, info)
	}
	return regs, nil
}

// InitRegs binds all the registers of a register bank to win, the bank being
// mapped at base. Registers are Reg32 fields with a "hwio" struct tag made of
// the following comma-separated options:
//
//	offset=0x18     Byte-offset of the register within the bank. There is no
//	                default value: fields without an offset are not part of
//	                the bank and are left untouched.
//
//	readonly        Writes are rejected.
//
//	writeonly       Reads are rejected.
//
//	name=NAME       Register name, defaults to the field name.
//
// Every register must fit in the window.
func InitRegs(bank any, win *Window, base uint32) error {
	regs, err := bankGetRegs(bank)
	if err != nil {
		return err
	}
	if len(regs) == 0 {
		return errors.New("hwio: bank has no registers")
	}

	for _, reg := range regs {
		r, err := NewReg32(win, reg.name, base+reg.offset, reg.flags)
		if err != nil {
			return err
		}
		*reg.regPtr = r
	}
	return nil
}
