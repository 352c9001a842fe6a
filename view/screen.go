package view

import "image"

//go:generate go tool stringer -type=Key -trimprefix=Key -output=key_string.go

// Key is a viewer command.
type Key uint8

const (
	KeyNone Key = iota
	KeyQuit
	KeyBitBig
	KeyBitLittle
	KeyNext
	KeyPrev
	KeyBitToggle
)

// Screen is where viewers show their images and get their commands from.
type Screen interface {
	// Present displays img.
	Present(img *image.RGBA) error

	// PollKeys returns the commands received since the last call.
	PollKeys() []Key

	// Closed reports whether the screen was closed by the user.
	Closed() bool
}
