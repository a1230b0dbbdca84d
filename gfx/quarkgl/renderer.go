package quarkgl

import (
	"context"

	"github.com/chewxy/math32"
	"golang.org/x/sync/errgroup"
)

// Renderer is a fixed-pipeline software renderer.
//
// Create it once and reuse it to avoid allocations. Size is in logical pixels;
// the drawing buffer is Size × PixelRatio physical pixels. Render always draws
// into the full extent of the Target it is given.
type Renderer struct {
	Mode       RenderMode
	Depth      bool
	ClearColor Color

	ToneMapping         ToneMapping
	ToneMappingExposure float32
	OutputEncoding      OutputEncoding

	width      int
	height     int
	pixelRatio float32
	workers    int

	depthBuf []float32
	tris     []rasterTri
}

// NewRenderer creates a renderer for a logical size of w×h.
func NewRenderer(w, h int) *Renderer {
	r := &Renderer{
		Mode:                RenderShaded,
		Depth:               true,
		ClearColor:          RGB(0, 0, 0),
		ToneMapping:         NoToneMapping,
		ToneMappingExposure: 1,
		OutputEncoding:      LinearEncoding,
		pixelRatio:          1,
		workers:             1,
	}
	r.SetSize(w, h)
	return r
}

// SetSize sets the logical size.
func (r *Renderer) SetSize(w, h int) {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	r.width, r.height = w, h
}

// Size returns the logical size.
func (r *Renderer) Size() (w, h int) { return r.width, r.height }

// SetPixelRatio sets the physical pixels per logical pixel. Non-positive
// values reset it to 1.
func (r *Renderer) SetPixelRatio(ratio float32) {
	if ratio <= 0 {
		ratio = 1
	}
	r.pixelRatio = ratio
}

func (r *Renderer) PixelRatio() float32 { return r.pixelRatio }

// DrawingBufferSize returns the physical size a Target should have.
func (r *Renderer) DrawingBufferSize() (w, h int) {
	return int(math32.Floor(float32(r.width) * r.pixelRatio)), int(math32.Floor(float32(r.height) * r.pixelRatio))
}

// SetWorkers sets how many row bands are rendered in parallel.
func (r *Renderer) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	r.workers = n
}

func (r *Renderer) EnableDepth(on bool, w, h int) {
	r.Depth = on
	if !on || w <= 0 || h <= 0 {
		r.depthBuf = nil
		return
	}
	if cap(r.depthBuf) < w*h {
		r.depthBuf = make([]float32, w*h)
	} else {
		r.depthBuf = r.depthBuf[:w*h]
	}
}

// Render renders a scene as seen from cam into the target.
func (r *Renderer) Render(t Target, s *Scene, cam *PerspectiveCamera) {
	_ = r.RenderContext(context.Background(), t, s, cam)
}

// RenderContext is Render with cancellation between rows. The scene and
// camera are only read.
func (r *Renderer) RenderContext(ctx context.Context, t Target, s *Scene, cam *PerspectiveCamera) error {
	if r == nil || t == nil || s == nil || cam == nil {
		return nil
	}
	w, h := t.Size()
	if w <= 0 || h <= 0 {
		return nil
	}
	if r.Depth {
		r.EnableDepth(true, w, h)
	}

	f := r.newFrame(w, h, s, cam)
	r.prepare(f, s, cam)

	bands := r.workers
	if bands > h {
		bands = h
	}
	if bands <= 1 {
		return r.renderBand(ctx, t, f, 0, h)
	}

	g, gctx := errgroup.WithContext(ctx)
	rows := (h + bands - 1) / bands
	for y0 := 0; y0 < h; y0 += rows {
		y0, y1 := y0, min(y0+rows, h)
		g.Go(func() error {
			return r.renderBand(gctx, t, f, y0, y1)
		})
	}
	return g.Wait()
}

type dirLight struct {
	toLight  Vec3
	radiance LinearRGB
}

// frame holds everything derived from the scene and camera for one Render.
type frame struct {
	w, h int

	eye     Vec3
	forward Vec3
	right   Vec3
	up      Vec3
	tanY    Scalar
	tanX    Scalar

	background  *Texture
	environment *Texture
	clearLinear LinearRGB

	ambient LinearRGB
	dirs    []dirLight
}

func (r *Renderer) newFrame(w, h int, s *Scene, cam *PerspectiveCamera) *frame {
	up := cam.Up
	if up == (Vec3{}) {
		up = V3(0, 1, 0)
	}
	fwd := Normalize(cam.Target.Sub(cam.Position))
	right := Normalize(Cross(fwd, up))
	fov := cam.FOV
	if fov == 0 {
		fov = 50
	}
	aspect := cam.Aspect
	if aspect == 0 {
		aspect = 1
	}
	tanY := math32.Tan(DegToRad(fov) / 2)

	f := &frame{
		w:           w,
		h:           h,
		eye:         cam.Position,
		forward:     fwd,
		right:       right,
		up:          Cross(right, fwd),
		tanY:        tanY,
		tanX:        tanY * aspect,
		background:  s.Background,
		environment: s.Environment,
		clearLinear: LinearRGB{
			R: srgbToLinear(float32(r.ClearColor.R) / 255),
			G: srgbToLinear(float32(r.ClearColor.G) / 255),
			B: srgbToLinear(float32(r.ClearColor.B) / 255),
		},
	}
	s.eachLight(func(l Light) {
		switch lt := l.(type) {
		case *AmbientLight:
			f.ambient = f.ambient.Add(lt.Radiance())
		case *DirectionalLight:
			d := lt.ToLight()
			if d == (Vec3{}) {
				return
			}
			f.dirs = append(f.dirs, dirLight{toLight: d, radiance: lt.Radiance()})
		}
	})
	return f
}

// viewRay returns the world direction through the centre of pixel (x, y).
func (f *frame) viewRay(x, y int) Vec3 {
	nx := (2*(Scalar(x)+0.5)/Scalar(f.w) - 1) * f.tanX
	ny := (1 - 2*(Scalar(y)+0.5)/Scalar(f.h)) * f.tanY
	return Normalize(f.forward.Add(f.right.Mul(nx)).Add(f.up.Mul(ny)))
}

type clipVert struct {
	clip   Vec4
	world  Vec3
	normal Vec3
}

type rasterVert struct {
	x, y, z Scalar
	invW    Scalar
	world   Vec3 // world * invW
	normal  Vec3 // normal * invW
}

type rasterTri struct {
	v          [3]rasterVert
	minY, maxY int
	mat        Material
}

// prepare transforms, clips and projects every visible triangle.
func (r *Renderer) prepare(f *frame, s *Scene, cam *PerspectiveCamera) {
	r.tris = r.tris[:0]
	viewProj := Mat4Mul(cam.Projection(), cam.View())

	s.eachMesh(func(m *Mesh) {
		g := m.Geometry
		if g == nil || len(g.Vertices) == 0 || len(g.Indices) < 3 || m.Material == nil {
			return
		}
		model := m.Matrix()

		var poly, scratch [8]clipVert
		for i := 0; i+2 < len(g.Indices); i += 3 {
			var tri [3]clipVert
			ok := true
			for k := 0; k < 3; k++ {
				idx := int(g.Indices[i+k])
				if idx >= len(g.Vertices) {
					ok = false
					break
				}
				v := g.Vertices[idx]
				wp := Mat4MulPoint(model, v.Pos)
				tri[k] = clipVert{
					clip:   Mat4MulV4(viewProj, Vec4{X: wp.X, Y: wp.Y, Z: wp.Z, W: 1}),
					world:  wp,
					normal: Normalize(Mat4MulDir(model, v.Normal)),
				}
			}
			if !ok {
				continue
			}

			n := clipPolygon(tri[:], poly[:0], scratch[:0])
			if n < 3 {
				continue
			}
			for k := 1; k+1 < n; k++ {
				r.addTriangle(f, poly[0], poly[k], poly[k+1], m.Material)
			}
		}
	})
}

// clipPolygon clips a triangle against the near (z >= -w) and far (z <= w)
// planes. The result is written into out and its length returned.
func clipPolygon(in []clipVert, out, scratch []clipVert) int {
	src := append(scratch[:0], in...)
	for plane := 0; plane < 2; plane++ {
		dist := func(v clipVert) Scalar {
			if plane == 0 {
				return v.clip.Z + v.clip.W
			}
			return v.clip.W - v.clip.Z
		}
		out = out[:0]
		for i := range src {
			a := src[i]
			b := src[(i+1)%len(src)]
			da, db := dist(a), dist(b)
			if da >= 0 {
				out = append(out, a)
			}
			if (da >= 0) != (db >= 0) {
				t := da / (da - db)
				out = append(out, lerpClip(a, b, t))
			}
		}
		if len(out) < 3 {
			return 0
		}
		if plane == 0 {
			src = append(src[:0], out...)
		}
	}
	return len(out)
}

func lerpClip(a, b clipVert, t Scalar) clipVert {
	return clipVert{
		clip: Vec4{
			X: a.clip.X + (b.clip.X-a.clip.X)*t,
			Y: a.clip.Y + (b.clip.Y-a.clip.Y)*t,
			Z: a.clip.Z + (b.clip.Z-a.clip.Z)*t,
			W: a.clip.W + (b.clip.W-a.clip.W)*t,
		},
		world:  a.world.Lerp(b.world, t),
		normal: a.normal.Lerp(b.normal, t),
	}
}

func (r *Renderer) addTriangle(f *frame, a, b, c clipVert, mat Material) {
	var t rasterTri
	t.mat = mat
	for k, v := range [3]clipVert{a, b, c} {
		if v.clip.W <= 0 {
			return
		}
		invW := 1 / v.clip.W
		t.v[k] = rasterVert{
			x:      (v.clip.X*invW*0.5 + 0.5) * Scalar(f.w),
			y:      (1 - (v.clip.Y*invW*0.5 + 0.5)) * Scalar(f.h),
			z:      v.clip.Z * invW,
			invW:   invW,
			world:  v.world.Mul(invW),
			normal: v.normal.Mul(invW),
		}
	}
	minY := math32.Min(t.v[0].y, math32.Min(t.v[1].y, t.v[2].y))
	maxY := math32.Max(t.v[0].y, math32.Max(t.v[1].y, t.v[2].y))
	t.minY = int(math32.Floor(minY))
	t.maxY = int(math32.Ceil(maxY))
	if t.maxY < 0 || t.minY >= f.h {
		return
	}
	r.tris = append(r.tris, t)
}

// renderBand draws rows [y0, y1): background, then every triangle.
func (r *Renderer) renderBand(ctx context.Context, t Target, f *frame, y0, y1 int) error {
	for y := y0; y < y1; y++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := y * f.w
		for x := 0; x < f.w; x++ {
			if r.depthBuf != nil && r.Depth {
				r.depthBuf[row+x] = 1e9
			}
			if f.background != nil {
				t.SetPixel(x, y, r.output(f.background.SampleDir(f.viewRay(x, y))))
			} else {
				t.SetPixel(x, y, r.ClearColor)
			}
		}
	}

	for i := range r.tris {
		if err := ctx.Err(); err != nil {
			return err
		}
		tri := &r.tris[i]
		if tri.maxY < y0 || tri.minY >= y1 {
			continue
		}
		if r.Mode == RenderWireframe {
			c := r.output(tri.mat.BaseColor())
			for k := 0; k < 3; k++ {
				a, b := tri.v[k], tri.v[(k+1)%3]
				r.drawLine(t, int(a.x), int(a.y), int(b.x), int(b.y), y0, y1, c)
			}
			continue
		}
		r.fillTriangle(t, f, tri, y0, y1)
	}
	return nil
}

// output tone maps and encodes a linear color.
func (r *Renderer) output(c LinearRGB) Color {
	return encode(toneMap(c, r.ToneMapping, r.ToneMappingExposure), r.OutputEncoding)
}

func (r *Renderer) depthTest(w int, x, y int, z float32) bool {
	if !r.Depth || r.depthBuf == nil {
		return true
	}
	if x < 0 || y < 0 || x >= w {
		return false
	}
	idx := y*w + x
	if idx < 0 || idx >= len(r.depthBuf) {
		return false
	}
	// NDC z is in [-1,1]. Map to [0,1].
	d := clampF32(z*0.5+0.5, 0, 1)
	if d >= r.depthBuf[idx] {
		return false
	}
	r.depthBuf[idx] = d
	return true
}

func (r *Renderer) drawLine(t Target, x0, y0, x1, y1, bandY0, bandY1 int, c Color) {
	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		if y0 >= bandY0 && y0 < bandY1 {
			t.SetPixel(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (r *Renderer) fillTriangle(t Target, f *frame, tri *rasterTri, y0, y1 int) {
	v0, v1, v2 := tri.v[0], tri.v[1], tri.v[2]

	minX := int(math32.Floor(math32.Min(v0.x, math32.Min(v1.x, v2.x))))
	maxX := int(math32.Ceil(math32.Max(v0.x, math32.Max(v1.x, v2.x))))
	minY, maxY := tri.minY, tri.maxY
	minX = max(minX, 0)
	minY = max(minY, y0)
	maxX = min(maxX, f.w-1)
	maxY = min(maxY, y1-1)
	if minX > maxX || minY > maxY {
		return
	}

	area := edgeFn(v0.x, v0.y, v1.x, v1.y, v2.x, v2.y)
	if area == 0 {
		return
	}
	invArea := 1 / area

	for y := minY; y <= maxY; y++ {
		py := Scalar(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := Scalar(x) + 0.5
			a0 := edgeFn(v1.x, v1.y, v2.x, v2.y, px, py) * invArea
			a1 := edgeFn(v2.x, v2.y, v0.x, v0.y, px, py) * invArea
			a2 := edgeFn(v0.x, v0.y, v1.x, v1.y, px, py) * invArea
			if a0 < 0 || a1 < 0 || a2 < 0 {
				continue
			}
			z := a0*v0.z + a1*v1.z + a2*v2.z
			if !r.depthTest(f.w, x, y, z) {
				continue
			}

			iw := a0*v0.invW + a1*v1.invW + a2*v2.invW
			if iw <= 0 {
				continue
			}
			world := v0.world.Mul(a0).Add(v1.world.Mul(a1)).Add(v2.world.Mul(a2)).Mul(1 / iw)
			normal := Normalize(v0.normal.Mul(a0).Add(v1.normal.Mul(a1)).Add(v2.normal.Mul(a2)))

			t.SetPixel(x, y, r.output(f.shade(tri.mat, world, normal)))
		}
	}
}

// edgeFn is twice the signed area of (a, b, p). Dividing by the triangle's
// own edgeFn makes the barycentrics positive inside for either winding.
func edgeFn(ax, ay, bx, by, px, py Scalar) Scalar {
	return (px-ax)*(by-ay) - (py-ay)*(bx-ax)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clampF32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
