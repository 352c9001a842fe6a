package log

import (
	"gopkg.in/Sirupsen/logrus.v0"
)

// entry returns the logrus entry for mod, tagged with the module name.
func (mod Module) entry() *logrus.Entry {
	return logrus.StandardLogger().WithField("_mod", mod.String())
}

func (mod Module) logf(lvl Level, format string, args ...any) {
	if !mod.Enabled(lvl) {
		return
	}
	e := mod.entry()
	switch lvl {
	case DebugLevel:
		e.Debugf(format, args...)
	case InfoLevel:
		e.Infof(format, args...)
	case WarnLevel:
		e.Warnf(format, args...)
	case ErrorLevel:
		e.Errorf(format, args...)
	case FatalLevel:
		e.Fatalf(format, args...)
	}
}

// printf-like family, for messages that don't fit the EntryZ field builder.

func (mod Module) Debugf(format string, args ...any) { mod.logf(DebugLevel, format, args...) }
func (mod Module) Infof(format string, args ...any)  { mod.logf(InfoLevel, format, args...) }
func (mod Module) Warnf(format string, args ...any)  { mod.logf(WarnLevel, format, args...) }
func (mod Module) Errorf(format string, args ...any) { mod.logf(ErrorLevel, format, args...) }

// Fatalf logs then exits, whatever the module mask.
func (mod Module) Fatalf(format string, args ...any) {
	mod.entry().Fatalf(format, args...)
}
