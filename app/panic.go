package app

import (
	"fmt"
	"image/color"
	"runtime/debug"
	"strings"
	"unicode/utf8"

	"lumen/hal"

	"tinygo.org/x/tinyfont"
)

// ErrFault is returned by a frame that panicked. It wraps hal.ErrHalted so a
// window host keeps the fault screen up.
var ErrFault = fmt.Errorf("frame fault: %w", hal.ErrHalted)

// recoverFault turns a panic in the current frame into a logged fault screen
// and an ErrFault result.
func (a *App) recoverFault(err *error) {
	v := recover()
	if v == nil {
		return
	}
	stack := debug.Stack()
	a.faulted = true
	a.log.Error("frame panic", "panic", v, "frame", a.driver.Frames())
	if l := a.h.Logger(); l != nil {
		for _, line := range strings.Split(string(stack), "\n") {
			if line == "" {
				continue
			}
			l.WriteLineString(line)
		}
	}
	drawFault(a.surface.Framebuffer(), v, stack)
	*err = fmt.Errorf("%w: %v", ErrFault, v)
}

// drawFault fills fb with a white screen listing the panic value and stack.
func drawFault(fb hal.Framebuffer, v any, stack []byte) {
	if fb == nil {
		return
	}
	fb.ClearRGB(255, 255, 255)

	font := hudFont
	fontHeight := int16(font.GetYAdvance())
	_, outboxWidth := tinyfont.LineWidth(font, "0")
	fontWidth := int16(outboxWidth)
	if fontWidth <= 0 || fontHeight <= 0 {
		_ = fb.Present()
		return
	}

	lines := []string{
		"lumen fault:",
		fmt.Sprintf("panic: %v", v),
	}
	if len(stack) > 0 {
		lines = append(lines, "stack:")
		for _, line := range strings.Split(string(stack), "\n") {
			if line == "" {
				continue
			}
			lines = append(lines, strings.ReplaceAll(line, "\t", "  "))
		}
	} else {
		lines = append(lines, "stack: unavailable")
	}

	d := fbDisplay{fb: fb}
	fg := color.RGBA{A: 255}
	maxH := int16(min(fb.Height(), 1<<15-1))
	cols := int16(min(fb.Width(), 1<<15-1)) / fontWidth
	if cols <= 0 {
		cols = 1
	}

	y := int16(0)
	for _, line := range lines {
		for len(line) > 0 {
			if y+fontHeight > maxH {
				_ = fb.Present()
				return
			}
			chunk, rest := takeRunes(line, cols)
			drawTextLine(d, font, fontWidth, fontHeight, 0, y, chunk, fg)
			y += fontHeight
			line = strings.TrimLeft(rest, " ")
		}
	}
	_ = fb.Present()
}

func drawTextLine(d fbDisplay, font tinyfont.Fonter, fontWidth, baseline, x0, y0 int16, s string, fg color.RGBA) {
	x := x0
	for _, r := range s {
		tinyfont.DrawChar(d, font, x, y0+baseline-2, r, fg)
		x += fontWidth
	}
}

func takeRunes(s string, n int16) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	if int64(len(s)) <= int64(n) {
		return s, ""
	}
	var i int
	var count int16
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		if size <= 0 {
			break
		}
		i += size
		count++
	}
	if i >= len(s) {
		return s, ""
	}
	return s[:i], s[i:]
}
