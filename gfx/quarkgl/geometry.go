package quarkgl

import "github.com/chewxy/math32"

// Vertex is a mesh vertex in object space.
type Vertex struct {
	Pos    Vec3
	Normal Vec3
}

// Geometry is an immutable indexed triangle list.
type Geometry struct {
	Vertices []Vertex
	Indices  []uint32
}

// Triangles returns the number of triangles.
func (g *Geometry) Triangles() int {
	if g == nil {
		return 0
	}
	return len(g.Indices) / 3
}

// NewBoxGeometry returns an axis-aligned box centred at the origin with flat
// per-face normals.
func NewBoxGeometry(width, height, depth Scalar) *Geometry {
	size := V3(width, height, depth)
	faces := [6]struct{ n, u, v Vec3 }{
		{V3(1, 0, 0), V3(0, 0, -1), V3(0, 1, 0)},
		{V3(-1, 0, 0), V3(0, 0, 1), V3(0, 1, 0)},
		{V3(0, 1, 0), V3(1, 0, 0), V3(0, 0, -1)},
		{V3(0, -1, 0), V3(1, 0, 0), V3(0, 0, 1)},
		{V3(0, 0, 1), V3(1, 0, 0), V3(0, 1, 0)},
		{V3(0, 0, -1), V3(-1, 0, 0), V3(0, 1, 0)},
	}
	corners := [4][2]Scalar{{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5}}

	g := &Geometry{
		Vertices: make([]Vertex, 0, 24),
		Indices:  make([]uint32, 0, 36),
	}
	for _, f := range faces {
		base := uint32(len(g.Vertices))
		for _, c := range corners {
			p := f.n.Mul(0.5).Add(f.u.Mul(c[0])).Add(f.v.Mul(c[1]))
			p = V3(p.X*size.X, p.Y*size.Y, p.Z*size.Z)
			g.Vertices = append(g.Vertices, Vertex{Pos: p, Normal: f.n})
		}
		g.Indices = append(g.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return g
}

// NewSphereGeometry returns a UV sphere with smooth normals. Segment counts
// are clamped to the minimum that still encloses a volume (3 and 2).
func NewSphereGeometry(radius Scalar, widthSegments, heightSegments int) *Geometry {
	if widthSegments < 3 {
		widthSegments = 3
	}
	if heightSegments < 2 {
		heightSegments = 2
	}

	g := &Geometry{
		Vertices: make([]Vertex, 0, (widthSegments+1)*(heightSegments+1)),
		Indices:  make([]uint32, 0, widthSegments*heightSegments*6),
	}
	grid := make([][]uint32, heightSegments+1)
	for iy := 0; iy <= heightSegments; iy++ {
		v := Scalar(iy) / Scalar(heightSegments)
		sinT, cosT := math32.Sincos(v * math32.Pi)
		row := make([]uint32, widthSegments+1)
		for ix := 0; ix <= widthSegments; ix++ {
			u := Scalar(ix) / Scalar(widthSegments)
			sinP, cosP := math32.Sincos(u * 2 * math32.Pi)
			n := V3(-cosP*sinT, cosT, sinP*sinT)
			row[ix] = uint32(len(g.Vertices))
			g.Vertices = append(g.Vertices, Vertex{Pos: n.Mul(radius), Normal: n})
		}
		grid[iy] = row
	}

	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := grid[iy][ix+1]
			b := grid[iy][ix]
			c := grid[iy+1][ix]
			d := grid[iy+1][ix+1]
			if iy != 0 {
				g.Indices = append(g.Indices, a, b, d)
			}
			if iy != heightSegments-1 {
				g.Indices = append(g.Indices, b, c, d)
			}
		}
	}
	return g
}

// NewTetrahedronGeometry returns a regular tetrahedron inscribed in a sphere
// of the given radius. detail > 0 subdivides each face and pushes the new
// vertices onto the sphere. Normals are flat.
func NewTetrahedronGeometry(radius Scalar, detail int) *Geometry {
	if detail < 0 {
		detail = 0
	}
	base := [4]Vec3{V3(1, 1, 1), V3(-1, -1, 1), V3(-1, 1, -1), V3(1, -1, -1)}
	faces := [4][3]int{{2, 1, 0}, {0, 3, 2}, {1, 3, 0}, {2, 3, 1}}

	var tris [][3]Vec3
	for _, f := range faces {
		tris = subdivideFace(tris, base[f[0]], base[f[1]], base[f[2]], detail)
	}

	g := &Geometry{
		Vertices: make([]Vertex, 0, len(tris)*3),
		Indices:  make([]uint32, 0, len(tris)*3),
	}
	for _, t := range tris {
		a := Normalize(t[0]).Mul(radius)
		b := Normalize(t[1]).Mul(radius)
		c := Normalize(t[2]).Mul(radius)
		n := triangleNormal(a, b, c)
		if Dot(n, a.Add(b).Add(c)) < 0 {
			n = n.Neg()
			b, c = c, b
		}
		i := uint32(len(g.Vertices))
		g.Vertices = append(g.Vertices,
			Vertex{Pos: a, Normal: n},
			Vertex{Pos: b, Normal: n},
			Vertex{Pos: c, Normal: n},
		)
		g.Indices = append(g.Indices, i, i+1, i+2)
	}
	return g
}

// subdivideFace splits triangle abc into (detail+1)^2 triangles.
func subdivideFace(out [][3]Vec3, a, b, c Vec3, detail int) [][3]Vec3 {
	cols := detail + 1
	v := make([][]Vec3, cols+1)
	for i := 0; i <= cols; i++ {
		t := Scalar(i) / Scalar(cols)
		aj := a.Lerp(c, t)
		bj := b.Lerp(c, t)
		rows := cols - i
		v[i] = make([]Vec3, rows+1)
		for j := 0; j <= rows; j++ {
			if j == 0 && i == cols {
				v[i][j] = aj
				continue
			}
			v[i][j] = aj.Lerp(bj, Scalar(j)/Scalar(rows))
		}
	}

	for i := 0; i < cols; i++ {
		for j := 0; j < 2*(cols-i)-1; j++ {
			k := j / 2
			if j%2 == 0 {
				out = append(out, [3]Vec3{v[i][k+1], v[i+1][k], v[i][k]})
			} else {
				out = append(out, [3]Vec3{v[i][k+1], v[i+1][k+1], v[i+1][k]})
			}
		}
	}
	return out
}

func triangleNormal(a, b, c Vec3) Vec3 {
	return Normalize(Cross(b.Sub(a), c.Sub(a)))
}
