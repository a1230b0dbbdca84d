//go:build cgo

package hal

import (
	"io"

	"lumen/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
)

// WindowConfig controls the desktop window runner.
type WindowConfig struct {
	Title  string
	Width  int // logical pixels
	Height int
	TPS    int // 0 syncs updates with the display refresh
	Log    io.Writer
}

// RunWindow starts a resizable desktop window that displays the framebuffer
// and forwards pointer input. It blocks until the window closes or a frame
// returns an error.
func RunWindow(cfg WindowConfig, newApp func(HAL) (func() error, error)) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 960, 540
	}
	if cfg.Title == "" {
		cfg.Title = "lumen"
	}

	h := newHost(cfg.Log, cfg.Width, cfg.Height, deviceScale(), newHostTime())
	step, err := newApp(h)
	if err != nil {
		return err
	}

	g := &hostGame{h: h, step: haltingStep{step: step}}
	ebiten.SetWindowTitle(cfg.Title + " (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	} else {
		ebiten.SetTPS(ebiten.SyncWithFPS)
	}
	if err := ebiten.RunGame(g); err != nil {
		return err
	}
	return g.step.halted
}

func deviceScale() float64 {
	if m := ebiten.Monitor(); m != nil {
		if s := m.DeviceScaleFactor(); s > 0 {
			return s
		}
	}
	return 1
}

type hostGame struct {
	h       *hostHAL
	fbImg   *ebiten.Image
	scratch []byte
	step    haltingStep
}

func (g *hostGame) Update() error {
	g.h.ptr.poll(g.h.disp.Viewport().Scale)
	return g.step.run()
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	var w, h int
	g.scratch, w, h = g.h.disp.fb.snapshot(g.scratch)
	if g.fbImg == nil || g.fbImg.Bounds().Dx() != w || g.fbImg.Bounds().Dy() != h {
		if g.fbImg != nil {
			g.fbImg.Deallocate()
		}
		g.fbImg = ebiten.NewImage(w, h)
	}
	g.fbImg.WritePixels(g.scratch)

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	if sw == w && sh == h {
		screen.DrawImage(g.fbImg, nil)
		return
	}
	op := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
	op.GeoM.Scale(float64(sw)/float64(w), float64(sh)/float64(h))
	screen.DrawImage(g.fbImg, op)
}

// Layout publishes the logical window size and scale factor, and asks for a
// screen in physical pixels.
func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := deviceScale()
	g.h.disp.setViewport(Viewport{Width: outsideWidth, Height: outsideHeight, Scale: s})
	return max(int(float64(outsideWidth)*s), 1), max(int(float64(outsideHeight)*s), 1)
}
