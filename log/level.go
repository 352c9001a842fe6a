package log

import (
	"io"

	"gopkg.in/Sirupsen/logrus.v0"
)

// Level mirrors the logrus levels, from most to least severe.
type Level uint8

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

var disabled bool

func init() {
	// Filtering happens per module, logrus must let everything through.
	logrus.SetLevel(logrus.DebugLevel)
}

// Disable turns off all logging, errors included.
func Disable() {
	disabled = true
}

// SetOutput redirects the log output.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}
