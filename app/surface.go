package app

import (
	"fmt"
	"runtime"

	"lumen/gfx/quarkgl"
	"lumen/hal"
	"lumen/internal/config"
)

// Surface couples the renderer with the host framebuffer it draws into.
type Surface struct {
	Renderer *quarkgl.Renderer

	disp   hal.Display
	fb     hal.Framebuffer
	cfg    config.Render
	vp     hal.Viewport
	target quarkgl.RGBATarget
}

// NewSurface sizes a renderer to the display's viewport with the device pixel
// ratio, ACES/exposure/sRGB output as configured. A missing display fails
// with an *InitError wrapping hal.ErrNoDisplay.
func NewSurface(d hal.Display, cfg config.Render) (*Surface, error) {
	if d == nil {
		return nil, &InitError{Stage: "surface", Err: hal.ErrNoDisplay}
	}
	fb := d.Framebuffer()
	if fb == nil {
		return nil, &InitError{Stage: "surface", Err: fmt.Errorf("%w: no framebuffer", hal.ErrNoDisplay)}
	}
	if fb.Format() != hal.PixelFormatRGBA8888 {
		return nil, &InitError{Stage: "surface", Err: fmt.Errorf("unsupported pixel format %d", fb.Format())}
	}
	vp := d.Viewport()
	if vp.Width <= 0 || vp.Height <= 0 {
		return nil, &InitError{Stage: "surface", Err: fmt.Errorf("%w: viewport %dx%d", hal.ErrNoDisplay, vp.Width, vp.Height)}
	}

	tm, ok := quarkgl.ParseToneMapping(cfg.ToneMapping)
	if !ok {
		return nil, &InitError{Stage: "surface", Err: fmt.Errorf("tone mapping %q", cfg.ToneMapping)}
	}
	enc, ok := quarkgl.ParseOutputEncoding(cfg.Encoding)
	if !ok {
		return nil, &InitError{Stage: "surface", Err: fmt.Errorf("output encoding %q", cfg.Encoding)}
	}
	clearColor, err := cfg.ClearColor()
	if err != nil {
		return nil, &InitError{Stage: "surface", Err: err}
	}

	r := quarkgl.NewRenderer(vp.Width, vp.Height)
	r.ToneMapping = tm
	r.ToneMappingExposure = float32(cfg.Exposure)
	r.OutputEncoding = enc
	r.ClearColor = clearColor
	if cfg.Wireframe {
		r.Mode = quarkgl.RenderWireframe
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	r.SetWorkers(workers)

	s := &Surface{Renderer: r, disp: d, fb: fb, cfg: cfg, vp: vp}
	s.Resize(vp.Width, vp.Height, s.ratio(vp), nil)
	return s, nil
}

func (s *Surface) ratio(vp hal.Viewport) float32 {
	if s.cfg.PixelRatio > 0 {
		return float32(s.cfg.PixelRatio)
	}
	if vp.Scale > 0 {
		return float32(vp.Scale)
	}
	return 1
}

// Resize updates the renderer size, pixel ratio, framebuffer and camera
// aspect together. It must run on the frame thread.
func (s *Surface) Resize(w, h int, ratio float32, cam *quarkgl.PerspectiveCamera) {
	s.Renderer.SetSize(w, h)
	s.Renderer.SetPixelRatio(ratio)
	s.fb.Resize(s.Renderer.DrawingBufferSize())
	s.target = quarkgl.RGBATarget{}
	if cam != nil && h > 0 {
		cam.Aspect = quarkgl.Scalar(w) / quarkgl.Scalar(h)
	}
}

// Sync re-reads the display viewport and resizes when it changed.
func (s *Surface) Sync(cam *quarkgl.PerspectiveCamera) bool {
	vp := s.disp.Viewport()
	if vp == s.vp || vp.Width <= 0 || vp.Height <= 0 {
		return false
	}
	s.vp = vp
	s.Resize(vp.Width, vp.Height, s.ratio(vp), cam)
	return true
}

// Viewport returns the viewport the surface was last sized for.
func (s *Surface) Viewport() hal.Viewport { return s.vp }

// Target returns a render target over the current framebuffer.
func (s *Surface) Target() *quarkgl.RGBATarget {
	buf := s.fb.Buffer()
	if len(s.target.Buf) != len(buf) || (len(buf) > 0 && &s.target.Buf[0] != &buf[0]) {
		s.target = quarkgl.RGBATarget{Buf: buf, Stride: s.fb.StrideBytes(), W: s.fb.Width(), H: s.fb.Height()}
	}
	return &s.target
}

// Framebuffer returns the framebuffer the surface draws into.
func (s *Surface) Framebuffer() hal.Framebuffer { return s.fb }
