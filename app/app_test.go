package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumen/gfx/envmap"
	"lumen/gfx/quarkgl"
	"lumen/gfx/rgbe"
	"lumen/hal"
	"lumen/internal/config"
)

type fakeLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *fakeLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, s)
}

func (l *fakeLogger) WriteLineBytes(b []byte) { l.WriteLineString(string(b)) }

func (l *fakeLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

type fakeDisplay struct {
	fb hal.Framebuffer
	vp hal.Viewport
}

func (d *fakeDisplay) Framebuffer() hal.Framebuffer { return d.fb }
func (d *fakeDisplay) Viewport() hal.Viewport       { return d.vp }

type fakePointer struct{ ch chan hal.PointerEvent }

func (p *fakePointer) Pointer() hal.Pointer              { return p }
func (p *fakePointer) Events() <-chan hal.PointerEvent { return p.ch }

type fakeTime struct{ ms float64 }

func (t *fakeTime) NowMillis() float64 { return t.ms }

type fakeHAL struct {
	log  *fakeLogger
	disp *fakeDisplay
	ptr  *fakePointer
	t    *fakeTime
}

func newFakeHAL(w, h int, scale float64) *fakeHAL {
	return &fakeHAL{
		log:  &fakeLogger{},
		disp: &fakeDisplay{fb: hal.NewFramebuffer(1, 1), vp: hal.Viewport{Width: w, Height: h, Scale: scale}},
		ptr:  &fakePointer{ch: make(chan hal.PointerEvent, 16)},
		t:    &fakeTime{},
	}
}

func (h *fakeHAL) Logger() hal.Logger   { return h.log }
func (h *fakeHAL) Display() hal.Display { return h.disp }
func (h *fakeHAL) Input() hal.Input     { return h.ptr }
func (h *fakeHAL) Time() hal.Time       { return h.t }

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Environment.Source = ""
	cfg.Render.Workers = 2
	cfg.LogLevel = "debug"
	return cfg
}

func writeSky(t *testing.T) string {
	t.Helper()
	pix := make([]float32, 16*8*3)
	for i := range pix {
		pix[i] = 0.5
	}
	var buf bytes.Buffer
	require.NoError(t, rgbe.Encode(&buf, 16, 8, pix))
	path := filepath.Join(t.TempDir(), "sky.hdr")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func newTestApp(t *testing.T, h *fakeHAL, cfg config.Config) *App {
	t.Helper()
	a, err := NewApp(context.Background(), h, cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func waitEnv(t *testing.T, a *App) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	select {
	case <-a.Environment().Done():
	case <-ctx.Done():
		t.Fatal("environment load did not finish")
	}
}

func TestBuildScene(t *testing.T) {
	d := BuildScene()

	assert.Equal(t, quarkgl.Scalar(75), d.Camera.FOV)
	assert.Equal(t, quarkgl.Scalar(2), d.Camera.Aspect)
	assert.Equal(t, quarkgl.Scalar(0.1), d.Camera.Near)
	assert.Equal(t, quarkgl.Scalar(10), d.Camera.Far)
	assert.Equal(t, quarkgl.V3(0, 0, 4), d.Camera.Position)

	assert.Equal(t, quarkgl.Vec3{}, d.Cube.Position)
	assert.Equal(t, quarkgl.V3(2, 0, 0), d.Sphere.Position)
	assert.Equal(t, quarkgl.V3(-2, 0, 0), d.Tetrahedron.Position)

	metal, ok := d.Cube.Material.(*quarkgl.PhysicalMaterial)
	require.True(t, ok)
	assert.Equal(t, quarkgl.Scalar(1), metal.Clearcoat)
	assert.Equal(t, quarkgl.Scalar(0.9), metal.Metalness)
	assert.Equal(t, quarkgl.Scalar(0.1), metal.Roughness)
	assert.Equal(t, quarkgl.Hex(0xFF2D00), metal.Color)

	glass, ok := d.Sphere.Material.(*quarkgl.PhysicalMaterial)
	require.True(t, ok)
	assert.Equal(t, quarkgl.Scalar(0), glass.Roughness)
	assert.Equal(t, quarkgl.Scalar(1), glass.Transmission)
	assert.Equal(t, quarkgl.Scalar(5), glass.Thickness)

	phong, ok := d.Tetrahedron.Material.(*quarkgl.PhongMaterial)
	require.True(t, ok)
	assert.Equal(t, quarkgl.Hex(0x0059FF), phong.Color)
	assert.Equal(t, 4, d.Tetrahedron.Geometry.Triangles())

	assert.Equal(t, quarkgl.V3(-1, 2, 4), d.Sun.Position)
	assert.Equal(t, float32(0.1), d.Sun.Intensity)
	assert.Equal(t, float32(0.1), d.Ambient.Intensity)

	assert.Equal(t, 5, d.Scene.Len())
	assert.Nil(t, d.Scene.Background)
	assert.Nil(t, d.Scene.Environment)
	assert.False(t, d.Scene.HasEnvironment())
	assert.NotSame(t, d.Cube.Material, d.Sphere.Material)
}

func TestMissingDisplayIsInitError(t *testing.T) {
	cfg := testConfig()

	_, err := NewSurface(nil, cfg.Render)
	var ie *InitError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "surface", ie.Stage)
	assert.ErrorIs(t, err, hal.ErrNoDisplay)

	_, err = NewSurface(&fakeDisplay{vp: hal.Viewport{Width: 4, Height: 4}}, cfg.Render)
	assert.ErrorIs(t, err, hal.ErrNoDisplay)

	_, err = NewSurface(&fakeDisplay{fb: hal.NewFramebuffer(4, 4)}, cfg.Render)
	assert.ErrorIs(t, err, hal.ErrNoDisplay)

	_, _, err = New(context.Background(), nil, cfg)
	require.ErrorAs(t, err, &ie)
	assert.Contains(t, ie.Error(), "init hal")
}

func TestSurfaceResizeHandshake(t *testing.T) {
	d := &fakeDisplay{fb: hal.NewFramebuffer(1, 1), vp: hal.Viewport{Width: 40, Height: 20, Scale: 2}}
	s, err := NewSurface(d, testConfig().Render)
	require.NoError(t, err)

	assert.Equal(t, float32(2), s.Renderer.PixelRatio())
	assert.Equal(t, 80, d.fb.Width())
	assert.Equal(t, 40, d.fb.Height())
	assert.Equal(t, quarkgl.ACESFilmicToneMapping, s.Renderer.ToneMapping)
	assert.Equal(t, float32(4), s.Renderer.ToneMappingExposure)
	assert.Equal(t, quarkgl.SRGBEncoding, s.Renderer.OutputEncoding)

	cam := quarkgl.NewPerspectiveCamera(75, 2, 0.1, 10)
	assert.False(t, s.Sync(cam), "unchanged viewport")

	d.vp = hal.Viewport{Width: 30, Height: 30, Scale: 1.5}
	require.True(t, s.Sync(cam))
	assert.Equal(t, quarkgl.Scalar(1), cam.Aspect)
	w, h := s.Renderer.Size()
	assert.Equal(t, [2]int{30, 30}, [2]int{w, h})
	assert.Equal(t, 45, d.fb.Width())
	tgt := s.Target()
	assert.Equal(t, 45, tgt.W)
	assert.Len(t, tgt.Buf, 45*45*4)

	cfg := testConfig().Render
	cfg.PixelRatio = 1
	s, err = NewSurface(d, cfg)
	require.NoError(t, err)
	assert.Equal(t, 30, d.fb.Width(), "configured ratio overrides the display")
}

func TestNewAppSetsCameraAspect(t *testing.T) {
	h := newFakeHAL(32, 16, 1)
	a := newTestApp(t, h, testConfig())
	assert.Equal(t, quarkgl.Scalar(2), a.Demo().Camera.Aspect)

	h.disp.vp = hal.Viewport{Width: 16, Height: 16, Scale: 1}
	require.NoError(t, a.Step())
	assert.Equal(t, quarkgl.Scalar(1), a.Demo().Camera.Aspect)
}

func TestEnvironmentInstalledOnReady(t *testing.T) {
	cfg := testConfig()
	cfg.Environment.Source = writeSky(t)
	h := newFakeHAL(32, 16, 1)
	a := newTestApp(t, h, cfg)

	waitEnv(t, a)
	require.NoError(t, a.Step())

	s := a.Demo().Scene
	require.NotNil(t, s.Background)
	assert.Same(t, s.Background, s.Environment)
	assert.Equal(t, quarkgl.EquirectangularReflectionMapping, s.Background.Mapping)
	assert.True(t, s.HasEnvironment())
	assert.Contains(t, h.log.String(), "environment ready")
}

func TestEnvironmentFailureDegrades(t *testing.T) {
	cfg := testConfig()
	cfg.Environment.Source = filepath.Join(t.TempDir(), "missing.hdr")
	h := newFakeHAL(32, 16, 1)
	a := newTestApp(t, h, cfg)

	waitEnv(t, a)
	require.NoError(t, a.Step())
	require.NoError(t, a.Step())

	assert.Nil(t, a.Demo().Scene.Background)
	assert.Nil(t, a.Demo().Scene.Environment)
	_, st, _ := a.Environment().Poll()
	assert.Equal(t, envmap.StateFailed, st)
	assert.Equal(t, 1, strings.Count(h.log.String(), "level=WARN"), "warned once")
}

func TestRotationFollowsClock(t *testing.T) {
	h := newFakeHAL(32, 16, 1)
	a := newTestApp(t, h, testConfig())

	h.t.ms = 1234
	require.NoError(t, a.Step())
	for _, n := range a.Demo().Meshes() {
		assert.Equal(t, quarkgl.Euler{}, n.Object().Rotation, "first frame is t=0")
	}

	h.t.ms = 3234
	require.NoError(t, a.Step())
	for _, n := range a.Demo().Meshes() {
		assert.Equal(t, float32(2), n.Object().Rotation.X)
		assert.Equal(t, float32(2), n.Object().Rotation.Y)
	}
}

func TestCameraUntouchedWithoutInput(t *testing.T) {
	h := newFakeHAL(32, 16, 1)
	a := newTestApp(t, h, testConfig())
	for i := 0; i < 3; i++ {
		h.t.ms += 16
		require.NoError(t, a.Step())
	}
	assert.Equal(t, quarkgl.V3(0, 0, 4), a.Demo().Camera.Position)
}

func TestPointerDragOrbitsCamera(t *testing.T) {
	h := newFakeHAL(32, 16, 1)
	a := newTestApp(t, h, testConfig())

	h.ptr.ch <- hal.PointerEvent{Kind: hal.PointerDown, X: 10, Y: 8, Button: hal.ButtonPrimary}
	h.ptr.ch <- hal.PointerEvent{Kind: hal.PointerMove, X: 14, Y: 8}
	h.ptr.ch <- hal.PointerEvent{Kind: hal.PointerUp, X: 14, Y: 8}
	require.NoError(t, a.Step())

	pos := a.Demo().Camera.Position
	assert.Greater(t, pos.X*pos.X, quarkgl.Scalar(1), "camera swung sideways")
	assert.InDelta(t, 4, quarkgl.Len(pos), 1e-4)

	h.ptr.ch <- hal.PointerEvent{Kind: hal.PointerWheel, WheelY: -1}
	require.NoError(t, a.Step())
	assert.InDelta(t, 3.8, quarkgl.Len(a.Demo().Camera.Position), 1e-4)
}

func TestFramePanicShowsFaultScreen(t *testing.T) {
	h := newFakeHAL(64, 48, 1)
	a := newTestApp(t, h, testConfig())
	a.driver.Render = func() error { panic("boom") }

	err := a.Step()
	require.ErrorIs(t, err, ErrFault)
	assert.ErrorIs(t, err, hal.ErrHalted, "window host holds the fault screen")
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, h.log.String(), "frame panic")
	assert.ErrorIs(t, a.Step(), ErrFault, "stays faulted")

	buf := h.disp.fb.Buffer()
	white := 0
	for i := 0; i+3 < len(buf); i += 4 {
		if buf[i] == 255 && buf[i+1] == 255 && buf[i+2] == 255 {
			white++
		}
	}
	assert.Greater(t, white, len(buf)/8, "fault screen is mostly white")
	assert.Less(t, white, len(buf)/4, "and carries text")
}

func TestRenderErrorPropagates(t *testing.T) {
	h := newFakeHAL(32, 16, 1)
	a := newTestApp(t, h, testConfig())
	boom := errors.New("present failed")
	a.driver.Render = func() error { return boom }
	assert.ErrorIs(t, a.Step(), boom)
}

func TestHUD(t *testing.T) {
	hud := NewHUD(true)
	for ms := 0.0; ms <= 1000; ms += 100 {
		hud.Tick(ms)
	}
	assert.InDelta(t, 10, hud.FPS(), 1e-9)
	lines := hud.Lines(envmap.StateReady)
	assert.True(t, strings.HasPrefix(lines[0], "lumen "))
	assert.Equal(t, "env: ready  10 fps", lines[1])

	fb := hal.NewFramebuffer(120, 40)
	hud.Draw(fb, envmap.StateLoading)
	assert.NotEqual(t, make([]byte, len(fb.Buffer())), fb.Buffer())

	off := hal.NewFramebuffer(120, 40)
	hud.Enabled = false
	hud.Draw(off, envmap.StateLoading)
	assert.Equal(t, make([]byte, len(off.Buffer())), off.Buffer())
}

func TestLoggerWritesOneLinePerRecord(t *testing.T) {
	l := &fakeLogger{}
	log := NewLogger(l, 0)
	log.Info("hello", "k", 1)
	log.Debug("hidden")
	require.Len(t, l.lines, 1)
	assert.Contains(t, l.lines[0], "level=INFO msg=hello k=1")
	assert.NotContains(t, l.lines[0], "\n")
}

func TestTakeRunes(t *testing.T) {
	p, r := takeRunes("héllo", 2)
	assert.Equal(t, "hé", p)
	assert.Equal(t, "llo", r)
	p, r = takeRunes("ab", 5)
	assert.Equal(t, "ab", p)
	assert.Empty(t, r)
}

func TestInitError(t *testing.T) {
	e := &InitError{Stage: "surface", Err: hal.ErrNoDisplay}
	assert.Equal(t, "init surface: no display available", e.Error())
	assert.Equal(t, hal.ErrNoDisplay, errors.Unwrap(e))
}

func TestParentContextStopsApp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := testConfig()
	cfg.Environment.Source = "slow.hdr"
	cfg.Environment.Timeout = config.Duration{Duration: time.Minute}
	h := newFakeHAL(32, 16, 1)
	step, closer, err := New(ctx, h, cfg)
	require.NoError(t, err)
	defer closer()
	require.NoError(t, step())

	cancel()
	assert.ErrorIs(t, step(), context.Canceled)
}

func TestCloserCancelsEnvironmentLoad(t *testing.T) {
	cfg := testConfig()
	cfg.Environment.Source = filepath.Join(t.TempDir(), "sky.hdr")
	h := newFakeHAL(32, 16, 1)
	a := newTestApp(t, h, cfg)
	a.Close()
	waitEnv(t, a)
	_, st, _ := a.Environment().Poll()
	assert.Contains(t, []envmap.State{envmap.StateCanceled, envmap.StateFailed}, st)
	assert.ErrorIs(t, a.Step(), context.Canceled)
	assert.NotContains(t, h.log.String(), "environment canceled")
}
