package log

import (
	"fmt"
	"strconv"
	"time"
)

type FieldType uint8

const (
	FieldTypeUnknown FieldType = iota
	FieldTypeBool
	FieldTypeString
	FieldTypeStringer
	FieldTypeHex32 // register values
	FieldTypeHex64 // physical addresses
	FieldTypeInt
	FieldTypeError
	FieldTypeDuration
)

// ZField is a single key/value of an EntryZ. Only the member matching Type
// is set.
type ZField struct {
	Type FieldType
	Key  string

	Str      string
	Num      uint64
	Dur      time.Duration
	Err      error
	Stringer fmt.Stringer
}

func (f *ZField) Value() string {
	switch f.Type {
	case FieldTypeBool:
		return strconv.FormatBool(f.Num != 0)
	case FieldTypeString:
		return f.Str
	case FieldTypeStringer:
		if f.Stringer == nil {
			return "<nil>"
		}
		return f.Stringer.String()
	case FieldTypeHex32:
		return fmt.Sprintf("%08x", uint32(f.Num))
	case FieldTypeHex64:
		return fmt.Sprintf("%016x", f.Num)
	case FieldTypeInt:
		return strconv.FormatInt(int64(f.Num), 10)
	case FieldTypeError:
		if f.Err == nil {
			return "<nil>"
		}
		return f.Err.Error()
	case FieldTypeDuration:
		return f.Dur.String()
	}
	return ""
}
