// Package app wires the demo together: surface, scene, environment loader,
// orbit controls and the animation driver, stepped once per host frame.
package app

import (
	"context"
	"errors"
	"log/slog"

	"lumen/gfx/anim"
	"lumen/gfx/envmap"
	"lumen/gfx/quarkgl"
	"lumen/hal"
	"lumen/internal/buildinfo"
	"lumen/internal/config"
)

// InitError reports a startup failure; the program cannot run without it.
type InitError struct {
	Stage string
	Err   error
}

func (e *InitError) Error() string {
	if e.Err == nil {
		return "init " + e.Stage
	}
	return "init " + e.Stage + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error { return e.Err }

// App is the running demo.
type App struct {
	h   hal.HAL
	cfg config.Config
	log *slog.Logger

	surface  *Surface
	demo     *Demo
	controls *quarkgl.OrbitControls
	driver   *anim.Driver
	hud      *HUD

	ctx    context.Context
	cancel context.CancelFunc
	env    *envmap.Pending
	envSet bool

	faulted bool
}

// New initializes the demo and returns its per-frame step and a closer that
// cancels the environment load. Ending ctx also stops it.
func New(ctx context.Context, h hal.HAL, cfg config.Config) (step func() error, closer func(), err error) {
	a, err := NewApp(ctx, h, cfg)
	if err != nil {
		return nil, nil, err
	}
	return a.Step, a.Close, nil
}

// NewApp builds the surface and scene, starts the environment load under
// ctx and renders the first frame.
func NewApp(ctx context.Context, h hal.HAL, cfg config.Config) (*App, error) {
	if h == nil {
		return nil, &InitError{Stage: "hal", Err: hal.ErrNoDisplay}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	level, err := cfg.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	log := NewLogger(h.Logger(), level)

	surface, err := NewSurface(h.Display(), cfg.Render)
	if err != nil {
		return nil, err
	}

	a := &App{
		h:       h,
		cfg:     cfg,
		log:     log,
		surface: surface,
		demo:    BuildScene(),
		hud:     NewHUD(cfg.HUD),
	}
	vp := surface.Viewport()
	log.Info("surface ready",
		"build", buildinfo.Short(),
		"viewport", [2]int{vp.Width, vp.Height},
		"ratio", surface.Renderer.PixelRatio(),
		"tone_mapping", surface.Renderer.ToneMapping,
		"exposure", surface.Renderer.ToneMappingExposure)

	a.ctx, a.cancel = context.WithCancel(ctx)
	a.env = envmap.Load(a.ctx, cfg.Environment.Source, envmap.Options{
		Timeout:  cfg.Environment.Timeout.Duration,
		MaxWidth: cfg.Environment.MaxWidth,
		Logger:   log,
	})
	if cfg.Environment.Source != "" {
		log.Info("environment loading", "src", cfg.Environment.Source)
	}

	// The first frame goes out before controls exist, with the camera as built.
	if err := a.render(); err != nil {
		a.cancel()
		return nil, &InitError{Stage: "first frame", Err: err}
	}
	surface.Resize(vp.Width, vp.Height, surface.ratio(vp), a.demo.Camera)

	a.controls = newControls(a.demo.Camera, vp.Height, cfg.Controls)
	a.driver = anim.NewDriver(a.render, a.controls, a.demo.Meshes()...)
	return a, nil
}

func newControls(cam *quarkgl.PerspectiveCamera, height int, cfg config.Controls) *quarkgl.OrbitControls {
	c := quarkgl.NewOrbitControls(cam, height)
	c.Enabled = cfg.Enabled
	c.RotateSpeed = quarkgl.Scalar(cfg.RotateSpeed)
	c.ZoomSpeed = quarkgl.Scalar(cfg.ZoomSpeed)
	c.MinDistance = quarkgl.Scalar(cfg.MinDistance)
	if cfg.MaxDistance > 0 {
		c.MaxDistance = quarkgl.Scalar(cfg.MaxDistance)
	}
	c.EnableDamping = cfg.EnableDamping
	c.DampingFactor = quarkgl.Scalar(cfg.DampingFactor)
	return c
}

// Step runs one frame: pending environment, resize and pointer input are
// taken in, then the driver rotates, renders and updates the controls. Once
// the app's context ends, Step returns its error.
func (a *App) Step() (err error) {
	if a.faulted {
		return ErrFault
	}
	if err := a.ctx.Err(); err != nil {
		return err
	}
	defer a.recoverFault(&err)

	a.pollEnvironment()
	if a.surface.Sync(a.demo.Camera) {
		vp := a.surface.Viewport()
		a.controls.SetViewportHeight(vp.Height)
		a.log.Debug("resized", "width", vp.Width, "height", vp.Height, "scale", vp.Scale)
	}
	a.drainPointer()

	now := a.h.Time().NowMillis()
	a.hud.Tick(now)
	return a.driver.Frame(now)
}

func (a *App) render() error {
	t := a.surface.Target()
	if err := a.surface.Renderer.RenderContext(a.ctx, t, a.demo.Scene, a.demo.Camera); err != nil {
		return err
	}
	_, st, _ := a.env.Poll()
	a.hud.Draw(a.surface.Framebuffer(), st)
	return a.surface.Framebuffer().Present()
}

// pollEnvironment installs the texture on its first Ready; failures leave
// the scene without background or environment.
func (a *App) pollEnvironment() {
	if a.envSet {
		return
	}
	tex, st, err := a.env.Poll()
	switch st {
	case envmap.StateReady:
		a.demo.SetEnvironment(tex)
		a.envSet = true
		a.log.Info("environment ready", "src", a.env.Source(), "width", tex.Width, "height", tex.Height)
	case envmap.StateFailed:
		a.envSet = true
		a.log.Warn("environment unavailable, rendering without it", "err", err)
	case envmap.StateCanceled:
		a.envSet = true
		if !errors.Is(err, context.Canceled) {
			a.log.Warn("environment canceled", "err", err)
		}
	}
}

func (a *App) drainPointer() {
	in := a.h.Input()
	if in == nil {
		return
	}
	p := in.Pointer()
	if p == nil {
		return
	}
	ch := p.Events()
	for {
		select {
		case ev := <-ch:
			a.handlePointer(ev)
		default:
			return
		}
	}
}

func (a *App) handlePointer(ev hal.PointerEvent) {
	x, y := quarkgl.Scalar(ev.X), quarkgl.Scalar(ev.Y)
	switch ev.Kind {
	case hal.PointerDown:
		a.controls.PointerDown(ev.ID, x, y, pointerButton(ev.Button))
	case hal.PointerMove:
		a.controls.PointerMove(ev.ID, x, y)
	case hal.PointerUp:
		a.controls.PointerUp(ev.ID)
	case hal.PointerWheel:
		a.controls.Wheel(quarkgl.Scalar(ev.WheelY))
	}
}

func pointerButton(b hal.PointerButton) quarkgl.PointerButton {
	switch b {
	case hal.ButtonSecondary:
		return quarkgl.ButtonSecondary
	case hal.ButtonMiddle:
		return quarkgl.ButtonMiddle
	case hal.ButtonTouch:
		return quarkgl.ButtonTouch
	default:
		return quarkgl.ButtonPrimary
	}
}

// Close cancels the environment load.
func (a *App) Close() {
	a.env.Cancel()
	a.cancel()
}

// Demo returns the scene graph.
func (a *App) Demo() *Demo { return a.demo }

// Surface returns the render surface.
func (a *App) Surface() *Surface { return a.surface }

// Controls returns the orbit controls.
func (a *App) Controls() *quarkgl.OrbitControls { return a.controls }

// Environment returns the pending environment load.
func (a *App) Environment() *envmap.Pending { return a.env }
