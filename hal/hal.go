package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var (
	ErrNotImplemented = errors.New("not implemented")
	ErrNoDisplay      = errors.New("no display available")
	// ErrHalted marks a step error after which a windowed host stops stepping
	// but keeps showing the last frame until the window is closed.
	ErrHalted = errors.New("halted")
)

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGBA8888 is 32bpp, bytes in R, G, B, A order.
	PixelFormatRGBA8888 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
	// Resize reallocates the buffer; previously returned slices go stale.
	Resize(width, height int)
}

// Viewport is the logical size of the output area and the number of
// physical pixels per logical pixel.
type Viewport struct {
	Width, Height int
	Scale         float64
}

// Display provides access to the framebuffer and the current viewport.
type Display interface {
	Framebuffer() Framebuffer
	Viewport() Viewport
}

// PointerKind identifies a pointer event.
type PointerKind uint8

const (
	PointerDown PointerKind = iota + 1
	PointerMove
	PointerUp
	PointerWheel
)

// PointerButton identifies what is pressing.
type PointerButton uint8

const (
	ButtonPrimary PointerButton = iota
	ButtonSecondary
	ButtonMiddle
	ButtonTouch
)

// PointerEvent is a mouse, wheel or touch event in logical pixels.
// Mouse events use ID 0; touches use their touch id plus one.
type PointerEvent struct {
	Kind   PointerKind
	ID     int
	X, Y   float64
	Button PointerButton
	WheelY float64 // positive scrolls down, toward the user
}

// Pointer provides pointer events (best-effort on each platform).
type Pointer interface {
	Events() <-chan PointerEvent
}

// Input provides access to input devices (if available).
type Input interface {
	Pointer() Pointer
}

// Time provides the frame clock.
type Time interface {
	// NowMillis returns milliseconds since the host started.
	NowMillis() float64
}

// HAL provides the only contact point between the program and the outside world.
type HAL interface {
	Logger() Logger
	Display() Display
	Input() Input
	Time() Time
}
