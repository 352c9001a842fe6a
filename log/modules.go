// Package log is a module-masked logger on top of logrus. Warnings and errors
// are always emitted; debug and info messages only for the modules enabled
// with EnableDebugModules.
package log

import "slices"

type (
	Module     uint
	ModuleMask uint64
)

const ModuleMaskAll ModuleMask = 1<<64 - 1

const (
	ModApp    Module = iota + 1 // command line tools
	ModHwIo                     // register windows
	ModMem                      // u-dma-buf buffers
	ModDMA                      // AXI DMA engine
	ModFrame                    // frame decoding and mosaic
	ModView                     // viewers
	ModFilter                   // neural filter limits

	numModules
)

var modNames = [numModules]string{
	ModApp:    "app",
	ModHwIo:   "hwio",
	ModMem:    "mem",
	ModDMA:    "dma",
	ModFrame:  "frame",
	ModView:   "view",
	ModFilter: "filter",
}

var debugMask ModuleMask

// ModuleNames returns the names of all modules.
func ModuleNames() []string {
	return slices.Clone(modNames[1:])
}

func ModuleByName(name string) (Module, bool) {
	for mod := ModApp; mod < numModules; mod++ {
		if modNames[mod] == name {
			return mod, true
		}
	}
	return 0, false
}

func (mod Module) String() string {
	if mod == 0 || mod >= numModules {
		return "<error>"
	}
	return modNames[mod]
}

func EnableDebugModules(mask ModuleMask)  { debugMask |= mask }
func DisableDebugModules(mask ModuleMask) { debugMask &^= mask }

func (mod Module) Mask() ModuleMask { return 1 << ModuleMask(mod) }

// Enabled reports whether mod logs at lvl.
func (mod Module) Enabled(lvl Level) bool {
	if disabled {
		return false
	}
	return lvl <= WarnLevel || debugMask&mod.Mask() != 0
}

// Field builders. They return nil when lvl is disabled for the module.

func (mod Module) logz(lvl Level, msg string) *EntryZ {
	if !mod.Enabled(lvl) {
		return nil
	}
	e := NewEntryZ()
	e.lvl, e.msg, e.mod = lvl, msg, mod
	return e
}

func (mod Module) DebugZ(msg string) *EntryZ { return mod.logz(DebugLevel, msg) }
func (mod Module) InfoZ(msg string) *EntryZ  { return mod.logz(InfoLevel, msg) }
func (mod Module) WarnZ(msg string) *EntryZ  { return mod.logz(WarnLevel, msg) }
func (mod Module) ErrorZ(msg string) *EntryZ { return mod.logz(ErrorLevel, msg) }
