package app

import (
	"fmt"
	"image/color"

	"lumen/gfx/envmap"
	"lumen/hal"
	"lumen/internal/buildinfo"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

var hudFont tinyfont.Fonter = &proggy.TinySZ8pt7b

// HUD draws a two-line status overlay into the framebuffer.
type HUD struct {
	Enabled bool

	fg, shadow color.RGBA

	windowStart float64
	windowCount int
	fps         float64
}

func NewHUD(enabled bool) *HUD {
	return &HUD{
		Enabled: enabled,
		fg:      color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		shadow:  color.RGBA{A: 0xFF},
	}
}

// Tick counts a frame at nowMs; the rate is refreshed once per second.
func (h *HUD) Tick(nowMs float64) {
	if h.windowCount == 0 {
		h.windowStart = nowMs
	}
	h.windowCount++
	if d := nowMs - h.windowStart; d >= 1000 {
		h.fps = float64(h.windowCount-1) * 1000 / d
		h.windowStart = nowMs
		h.windowCount = 1
	}
}

// FPS returns the last measured frame rate.
func (h *HUD) FPS() float64 { return h.fps }

// Lines returns the text the overlay shows.
func (h *HUD) Lines(env envmap.State) [2]string {
	return [2]string{
		"lumen " + buildinfo.Short(),
		fmt.Sprintf("env: %s  %.0f fps", env, h.fps),
	}
}

// Draw writes the overlay if enabled.
func (h *HUD) Draw(fb hal.Framebuffer, env envmap.State) {
	if !h.Enabled || fb == nil {
		return
	}
	d := fbDisplay{fb: fb}
	lh := int16(hudFont.GetYAdvance())
	if lh <= 0 {
		lh = 10
	}
	y := lh
	for _, s := range h.Lines(env) {
		tinyfont.WriteLine(d, hudFont, 5, y+1, s, h.shadow)
		tinyfont.WriteLine(d, hudFont, 4, y, s, h.fg)
		y += lh
	}
}

// fbDisplay adapts an RGBA framebuffer to the tinyfont display interface.
type fbDisplay struct {
	fb hal.Framebuffer
}

var _ drivers.Displayer = fbDisplay{}

func (d fbDisplay) Size() (x, y int16) {
	if d.fb == nil {
		return 0, 0
	}
	return int16(d.fb.Width()), int16(d.fb.Height())
}

func (d fbDisplay) SetPixel(x, y int16, c color.RGBA) {
	if d.fb == nil || d.fb.Format() != hal.PixelFormatRGBA8888 {
		return
	}
	buf := d.fb.Buffer()
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= d.fb.Width() || iy < 0 || iy >= d.fb.Height() {
		return
	}
	off := iy*d.fb.StrideBytes() + ix*4
	if off < 0 || off+3 >= len(buf) {
		return
	}
	buf[off] = c.R
	buf[off+1] = c.G
	buf[off+2] = c.B
	buf[off+3] = 0xFF
}

func (d fbDisplay) Display() error {
	if d.fb == nil {
		return nil
	}
	return d.fb.Present()
}
