package config

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"axiloop/frame"
)

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	want := Default()
	want.Devices.DMA = "/dev/uio7"
	want.DMA.Timeout = 250 * time.Millisecond
	want.DMA.IRQEnable = true
	want.Frame.BitOrder = frame.Big
	want.Mosaic.Scale = 2
	want.Filter.Decay = 0x10

	if err := Save(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	const content = `
[dma]
timeout = "20ms"

[frame]
bit_order = "big"
width = 64

[mosaic]
rows = 1
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	want := Default()
	want.DMA.Timeout = 20 * time.Millisecond
	want.Frame.BitOrder = frame.Big
	want.Frame.W = 64
	want.Mosaic.Rows = 1
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissing(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	for _, content := range []string{
		"[frame\n",
		"[frame]\nbit_order = \"middle\"\n",
	} {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("Load(%q) should fail", content)
		}
	}
}

func TestMosaicView(t *testing.T) {
	cfg := Default()

	v := cfg.Mosaic.View(cfg.Frame.Geometry)
	want := frame.Layout{Rows: 2, Cols: 4, Scale: 3, Divider: 10}
	if v.Layout != want {
		t.Errorf("layout = %+v, want %+v", v.Layout, want)
	}
	if v.Target != image.Pt(1920, 1080) || v.Order != frame.Big {
		t.Errorf("target %v, order %s", v.Target, v.Order)
	}

	cfg.Mosaic.Scale = 1
	if v := cfg.Mosaic.View(cfg.Frame.Geometry); v.Layout.Scale != 1 {
		t.Errorf("explicit scale = %d, want 1", v.Layout.Scale)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"no cols", func(c *Config) { c.Mosaic.Cols = 0 }},
		{"no rows", func(c *Config) { c.Mosaic.Rows = 0 }},
		{"negative divider", func(c *Config) { c.Mosaic.Divider = -1 }},
		{"zero mosaic tick", func(c *Config) { c.Mosaic.Tick = 0 }},
		{"no target", func(c *Config) { c.Mosaic.TargetWidth = 0 }},
		{"zero width", func(c *Config) { c.Frame.W = 0 }},
		{"negative height", func(c *Config) { c.Frame.H = -8 }},
		{"zero frame tick", func(c *Config) { c.Frame.Tick = 0 }},
		{"zero frame scale", func(c *Config) { c.Frame.Scale = 0 }},
		{"zero poll interval", func(c *Config) { c.DMA.PollInterval = 0 }},
		{"negative settle", func(c *Config) { c.DMA.Settle = -time.Millisecond }},
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("default configuration: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.edit(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Validate() should fail")
			}
		})
	}
}

func TestLoadInvalidGeometry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	for _, content := range []string{
		"[mosaic]\ncols = 0\n",
		"[mosaic]\nrows = 0\n",
		"[frame]\nwidth = 0\n",
		"[frame]\ntick = \"0s\"\n",
	} {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("Load(%q) should fail", content)
		}
	}
}
