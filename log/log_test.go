package log

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestModuleByName(t *testing.T) {
	for _, name := range ModuleNames() {
		mod, ok := ModuleByName(name)
		if !ok {
			t.Fatalf("ModuleByName(%q) not found", name)
		}
		if mod.String() != name {
			t.Errorf("ModuleByName(%q).String() = %q", name, mod.String())
		}
	}

	if _, ok := ModuleByName("<error>"); ok {
		t.Errorf("ModuleByName(<error>) should not be found")
	}
	if _, ok := ModuleByName("foobar"); ok {
		t.Errorf("ModuleByName(foobar) should not be found")
	}
}

func TestDebugModules(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer DisableDebugModules(ModuleMaskAll)

	if ModDMA.DebugZ("hidden") != nil {
		t.Fatalf("debug entry should be nil when module is disabled")
	}
	// nil entries are no-ops
	ModDMA.DebugZ("hidden").Hex32("status", 0x4002).End()
	if buf.Len() != 0 {
		t.Fatalf("unexpected output: %q", buf.String())
	}

	EnableDebugModules(ModDMA.Mask())
	ModDMA.DebugZ("visible").Hex32("status", 0x4002).String("ch", "send").End()

	out := buf.String()
	for _, want := range []string{"visible", "status=00004002", "ch=send", "_mod=dma"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

func TestWarnAlwaysEnabled(t *testing.T) {
	if !ModView.Enabled(WarnLevel) {
		t.Errorf("warnings should always be enabled")
	}
	if ModView.Enabled(DebugLevel) {
		t.Errorf("debug should be disabled by default")
	}
}

func TestFieldValue(t *testing.T) {
	tests := []struct {
		f    ZField
		want string
	}{
		{ZField{Type: FieldTypeBool, Num: 1}, "true"},
		{ZField{Type: FieldTypeBool}, "false"},
		{ZField{Type: FieldTypeString, Str: "udmabuf0"}, "udmabuf0"},
		{ZField{Type: FieldTypeHex32, Num: 0x4002}, "00004002"},
		{ZField{Type: FieldTypeHex64, Num: 0x1_3F100000}, "000000013f100000"},
		{ZField{Type: FieldTypeInt, Num: uint64(4096)}, "4096"},
		{ZField{Type: FieldTypeError}, "<nil>"},
		{ZField{Type: FieldTypeStringer, Stringer: ModDMA}, "dma"},
		{ZField{Type: FieldTypeDuration, Dur: 10 * time.Millisecond}, "10ms"},
	}
	for _, tt := range tests {
		if got := tt.f.Value(); got != tt.want {
			t.Errorf("Value(%+v) = %q, want %q", tt.f, got, tt.want)
		}
	}
}
