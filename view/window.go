package view

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/veandco/go-sdl2/sdl"

	"axiloop/log"
)

// Window is an SDL window showing an image stretched over its whole surface.
// It implements Screen.
//
// Window methods can be called from any goroutine once sdl.Main has been
// started: SDL and GL calls are run on the main thread with sdl.Do.
type Window struct {
	win  *sdl.Window
	ctx  sdl.GLContext
	quad *quad

	closed bool
}

// NewWindow opens a winw x winh window presenting images of texw x texh
// pixels.
func NewWindow(title string, texw, texh, winw, winh int) (*Window, error) {
	var (
		w   *Window
		err error
	)
	sdl.Do(func() { w, err = openWindow(title, texw, texh, winw, winh) })
	return w, err
}

func openWindow(title string, texw, texh, winw, winh int) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("SDL init: %s", err)
	}

	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 3)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 3)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)

	w := &Window{}
	var err error
	w.win, err = sdl.CreateWindow(title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(winw), int32(winh), sdl.WINDOW_OPENGL|sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("create window: %s", err)
	}

	if w.ctx, err = w.win.GLCreateContext(); err != nil {
		w.destroy()
		return nil, fmt.Errorf("OpenGL context: %s", err)
	}
	if err := gl.Init(); err != nil {
		w.destroy()
		return nil, fmt.Errorf("OpenGL init: %s", err)
	}
	if w.quad, err = newQuad(texw, texh); err != nil {
		w.destroy()
		return nil, err
	}

	log.ModView.DebugZ("window opened").
		String("title", title).
		Int("texw", texw).
		Int("texh", texh).
		Int("winw", winw).
		Int("winh", winh).
		End()
	return w, nil
}

// Present shows img. img must be of the texture size given to NewWindow.
func (w *Window) Present(img *image.RGBA) error {
	var err error
	sdl.Do(func() {
		if err = w.quad.upload(img); err == nil {
			w.redraw()
		}
	})
	if err != nil {
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

func (w *Window) redraw() {
	w.quad.draw()
	w.win.GLSwap()
}

// Viewer key bindings.
var keymap = map[sdl.Keycode]Key{
	sdl.K_q:      KeyQuit,
	sdl.K_ESCAPE: KeyQuit,
	sdl.K_b:      KeyBitBig,
	sdl.K_l:      KeyBitLittle,
	sdl.K_t:      KeyBitToggle,
	sdl.K_m:      KeyNext,
	sdl.K_n:      KeyPrev,
}

// PollKeys drains the SDL event queue and returns the viewer keys pressed.
// Window events (close, resize, expose) are handled here.
func (w *Window) PollKeys() []Key {
	var keys []Key
	sdl.Do(func() {
		for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
			switch e := ev.(type) {
			case sdl.QuitEvent:
				w.closed = true
			case sdl.KeyboardEvent:
				if k, ok := keymap[e.Keysym.Sym]; ok && e.State == sdl.PRESSED {
					keys = append(keys, k)
				}
			case sdl.WindowEvent:
				w.windowEvent(e)
			}
		}
	})
	return keys
}

func (w *Window) windowEvent(e sdl.WindowEvent) {
	switch e.Event {
	case sdl.WINDOWEVENT_CLOSE:
		w.closed = true
	case sdl.WINDOWEVENT_RESIZED:
		gl.Viewport(0, 0, e.Data1, e.Data2)
		w.redraw()
	case sdl.WINDOWEVENT_EXPOSED:
		w.redraw()
	}
}

// Closed reports whether the user closed the window.
func (w *Window) Closed() bool {
	var closed bool
	sdl.Do(func() { closed = w.closed })
	return closed
}

func (w *Window) Close() error {
	var err error
	sdl.Do(func() { err = w.destroy() })
	return err
}

func (w *Window) destroy() error {
	if w.quad != nil {
		w.quad.delete()
		w.quad = nil
	}
	if w.ctx != nil {
		sdl.GLDeleteContext(w.ctx)
		w.ctx = nil
	}
	var err error
	if w.win != nil {
		err = w.win.Destroy()
		w.win = nil
	}
	sdl.Quit()
	return err
}
