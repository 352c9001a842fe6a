// Package config holds the axiloop configuration, stored as toml in the user
// configuration directory.
package config

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"axiloop/frame"
	"axiloop/hw/axidma"
	"axiloop/hw/filter"
	"axiloop/log"
	"axiloop/view"
)

// DevicesConfig names the devices used by the tools.
type DevicesConfig struct {
	Src    string `toml:"src"`    // source u-dma-buf
	Dst    string `toml:"dst"`    // destination u-dma-buf, also shown by the viewers
	DMA    string `toml:"dma"`    // AXI DMA register window
	Filter string `toml:"filter"` // neural filter register window

	SysfsRoot string `toml:"sysfs_root"`
	DevRoot   string `toml:"dev_root"`
}

type FrameConfig struct {
	frame.Geometry
	BitOrder frame.BitOrder `toml:"bit_order"`

	// Single frame viewer.
	Scale int           `toml:"scale"`
	Tick  time.Duration `toml:"tick"`
}

func (c FrameConfig) validate() error {
	var errs []error
	if err := c.Geometry.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Scale <= 0 {
		errs = append(errs, fmt.Errorf("invalid scale %d", c.Scale))
	}
	if c.Tick <= 0 {
		errs = append(errs, fmt.Errorf("invalid tick %v", c.Tick))
	}
	return errors.Join(errs...)
}

type MosaicConfig struct {
	Rows         int            `toml:"rows"`
	Cols         int            `toml:"cols"`
	Divider      int            `toml:"divider"`
	Scale        int            `toml:"scale"` // 0 to fit the target size
	TargetWidth  int            `toml:"target_width"`
	TargetHeight int            `toml:"target_height"`
	BitOrder     frame.BitOrder `toml:"bit_order"`
	Tick         time.Duration  `toml:"tick"`
}

func (c MosaicConfig) validate() error {
	var errs []error
	if c.Rows <= 0 || c.Cols <= 0 {
		errs = append(errs, fmt.Errorf("invalid grid %dx%d", c.Rows, c.Cols))
	}
	if c.Divider < 0 {
		errs = append(errs, fmt.Errorf("invalid divider %d", c.Divider))
	}
	if c.Scale < 0 {
		errs = append(errs, fmt.Errorf("invalid scale %d", c.Scale))
	}
	if c.TargetWidth <= 0 || c.TargetHeight <= 0 {
		errs = append(errs, fmt.Errorf("invalid target size %dx%d", c.TargetWidth, c.TargetHeight))
	}
	if c.Tick <= 0 {
		errs = append(errs, fmt.Errorf("invalid tick %v", c.Tick))
	}
	return errors.Join(errs...)
}

// View returns the mosaic viewer configuration for frames of geometry g.
func (c MosaicConfig) View(g frame.Geometry) view.MosaicConfig {
	cfg := view.DefaultMosaicConfig(g)
	cfg.Target = image.Pt(c.TargetWidth, c.TargetHeight)
	cfg.Layout = frame.Layout{
		Rows:    c.Rows,
		Cols:    c.Cols,
		Divider: c.Divider,
		Scale:   c.Scale,
	}
	if c.Scale == 0 {
		cfg.Layout.Scale = frame.FitScale(g, c.Rows, c.Cols, c.Divider, cfg.Target)
	}
	cfg.Order = c.BitOrder
	cfg.Tick = c.Tick
	return cfg
}

type FilterConfig struct {
	filter.Offsets
}

type Config struct {
	Devices DevicesConfig `toml:"devices"`
	DMA     axidma.Config `toml:"dma"`
	Frame   FrameConfig   `toml:"frame"`
	Mosaic  MosaicConfig  `toml:"mosaic"`
	Filter  FilterConfig  `toml:"filter"`
}

// Validate checks the settings a file can get wrong. It reports every
// invalid setting, prefixed by its section.
func (c Config) Validate() error {
	var errs []error
	add := func(section string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("[%s] %w", section, err))
		}
	}

	switch {
	case c.DMA.PollInterval <= 0:
		add("dma", fmt.Errorf("invalid poll interval %v", c.DMA.PollInterval))
	case c.DMA.Timeout < 0 || c.DMA.Settle < 0:
		add("dma", errors.New("negative timeout or settle delay"))
	}
	add("frame", c.Frame.validate())
	add("mosaic", c.Mosaic.validate())
	return errors.Join(errs...)
}

// Default returns the configuration of the reference design.
func Default() Config {
	return Config{
		Devices: DevicesConfig{
			Src:       "udmabuf0",
			Dst:       "udmabuf1",
			DMA:       "/dev/uio4",
			Filter:    "/dev/uio5",
			SysfsRoot: "/sys/class/u-dma-buf",
			DevRoot:   "/dev",
		},
		DMA: axidma.DefaultConfig(),
		Frame: FrameConfig{
			Geometry: frame.DefaultGeometry,
			BitOrder: frame.Little,
			Scale:    6,
			Tick:     10 * time.Millisecond,
		},
		Mosaic: MosaicConfig{
			Rows:         2,
			Cols:         4,
			Divider:      10,
			TargetWidth:  1920,
			TargetHeight: 1080,
			BitOrder:     frame.Big,
			Tick:         10 * time.Millisecond,
		},
		Filter: FilterConfig{
			Offsets: filter.DefaultOffsets(),
		},
	}
}

const DefaultFileMode = os.FileMode(0755)

var ConfigDir = sync.OnceValue(func() string {
	cfgdir, err := os.UserConfigDir()
	if err != nil {
		log.ModApp.Fatalf("failed to get user config directory: %v", err)
	}

	dir := filepath.Join(cfgdir, "axiloop")
	if err := os.MkdirAll(dir, DefaultFileMode); err != nil {
		log.ModApp.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

const cfgFilename = "config.toml"

// DefaultPath is the path of the configuration file in the user config
// directory.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), cfgFilename)
}

// Load loads the configuration file at path. Settings absent from the file
// keep their default value. A missing file is not an error, an invalid
// setting is.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		log.ModApp.WarnZ("unknown configuration keys").
			String("file", path).
			Stringer("key", undec[0]).
			Int("count", len(undec)).
			End()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigOrDefault loads the configuration from the axiloop config
// directory, or provide a default one.
func LoadConfigOrDefault() Config {
	cfg, err := Load(DefaultPath())
	if err != nil {
		log.ModApp.Warnf("invalid configuration, using defaults: %v", err)
		return Default()
	}
	return cfg
}

// Save writes cfg to path.
func Save(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}
