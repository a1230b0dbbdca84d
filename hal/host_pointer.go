//go:build cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type hostPointer struct {
	ch chan PointerEvent

	mouseDown    bool
	lastX, lastY int
	ids          []ebiten.TouchID
}

func newHostPointer() *hostPointer {
	return &hostPointer{ch: make(chan PointerEvent, 256)}
}

func (p *hostPointer) Events() <-chan PointerEvent { return p.ch }

var mouseButtons = [...]struct {
	eb ebiten.MouseButton
	b  PointerButton
}{
	{ebiten.MouseButtonLeft, ButtonPrimary},
	{ebiten.MouseButtonRight, ButtonSecondary},
	{ebiten.MouseButtonMiddle, ButtonMiddle},
}

// poll converts this tick's ebiten input state to events. Coordinates are
// divided by scale so consumers see logical pixels.
func (p *hostPointer) poll(scale float64) {
	emit := func(ev PointerEvent) {
		select {
		case p.ch <- ev:
		default:
		}
	}
	if scale <= 0 {
		scale = 1
	}
	logical := func(x, y int) (float64, float64) { return float64(x) / scale, float64(y) / scale }

	cx, cy := ebiten.CursorPosition()
	x, y := logical(cx, cy)
	pressed := false
	for _, mb := range mouseButtons {
		if !p.mouseDown && inpututil.IsMouseButtonJustPressed(mb.eb) {
			emit(PointerEvent{Kind: PointerDown, X: x, Y: y, Button: mb.b})
			p.mouseDown = true
		}
		pressed = pressed || ebiten.IsMouseButtonPressed(mb.eb)
	}
	if p.mouseDown && (cx != p.lastX || cy != p.lastY) {
		emit(PointerEvent{Kind: PointerMove, X: x, Y: y})
	}
	if p.mouseDown && !pressed {
		emit(PointerEvent{Kind: PointerUp, X: x, Y: y})
		p.mouseDown = false
	}
	p.lastX, p.lastY = cx, cy

	if _, wy := ebiten.Wheel(); wy != 0 {
		emit(PointerEvent{Kind: PointerWheel, X: x, Y: y, WheelY: -wy})
	}

	p.ids = inpututil.AppendJustPressedTouchIDs(p.ids[:0])
	for _, id := range p.ids {
		tx, ty := logical(ebiten.TouchPosition(id))
		emit(PointerEvent{Kind: PointerDown, ID: int(id) + 1, X: tx, Y: ty, Button: ButtonTouch})
	}
	p.ids = ebiten.AppendTouchIDs(p.ids[:0])
	for _, id := range p.ids {
		nx, ny := ebiten.TouchPosition(id)
		px, py := inpututil.TouchPositionInPreviousTick(id)
		if nx != px || ny != py {
			tx, ty := logical(nx, ny)
			emit(PointerEvent{Kind: PointerMove, ID: int(id) + 1, X: tx, Y: ty})
		}
	}
	p.ids = inpututil.AppendJustReleasedTouchIDs(p.ids[:0])
	for _, id := range p.ids {
		tx, ty := logical(inpututil.TouchPositionInPreviousTick(id))
		emit(PointerEvent{Kind: PointerUp, ID: int(id) + 1, X: tx, Y: ty})
	}
}
