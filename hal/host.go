package hal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

type hostHAL struct {
	logger *hostLogger
	disp   *hostDisplay
	ptr    *hostPointer
	t      *hostTime
}

// newHost returns a host HAL with a width×height logical viewport. The
// framebuffer starts at the physical size for scale.
func newHost(w io.Writer, width, height int, scale float64, t *hostTime) *hostHAL {
	if w == nil {
		w = os.Stderr
	}
	if scale <= 0 {
		scale = 1
	}
	fb := newHostFramebuffer(int(float64(width)*scale), int(float64(height)*scale))
	return &hostHAL{
		logger: &hostLogger{w: w},
		disp:   &hostDisplay{fb: fb, vp: Viewport{Width: width, Height: height, Scale: scale}},
		ptr:    newHostPointer(),
		t:      t,
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) Display() Display { return h.disp }
func (h *hostHAL) Input() Input     { return hostInput{ptr: h.ptr} }
func (h *hostHAL) Time() Time       { return h.t }

type hostDisplay struct {
	fb *hostFramebuffer

	mu sync.Mutex
	vp Viewport
}

func (d *hostDisplay) Framebuffer() Framebuffer { return d.fb }

func (d *hostDisplay) Viewport() Viewport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.vp
}

// setViewport records a new window size; the app picks it up on its next
// frame and resizes the framebuffer itself.
func (d *hostDisplay) setViewport(vp Viewport) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if vp == d.vp {
		return false
	}
	d.vp = vp
	return true
}

type hostInput struct {
	ptr *hostPointer
}

func (in hostInput) Pointer() Pointer { return in.ptr }

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

// haltingStep runs the app step once per frame. A step error wrapping
// ErrHalted freezes stepping instead of ending the run.
type haltingStep struct {
	step   func() error
	halted error
}

func (s *haltingStep) run() error {
	if s.halted != nil || s.step == nil {
		return nil
	}
	err := s.step()
	if errors.Is(err, ErrHalted) {
		s.halted = err
		return nil
	}
	return err
}
