package quarkgl

import "github.com/chewxy/math32"

// minRoughness keeps the GGX lobe finite for mirror-like surfaces.
const minRoughness = 0.0525

// shade returns the linear radiance leaving point p with normal n towards the
// camera.
func (f *frame) shade(mat Material, p, n Vec3) LinearRGB {
	v := Normalize(f.eye.Sub(p))
	if Dot(n, v) < 0 {
		n = n.Neg()
	}
	switch m := mat.(type) {
	case *PhysicalMaterial:
		return f.shadePhysical(m, p, n, v)
	case *PhongMaterial:
		return f.shadePhong(m, n, v)
	default:
		return mat.BaseColor().Mul(f.ambient)
	}
}

func (f *frame) shadePhong(m *PhongMaterial, n, v Vec3) LinearRGB {
	diffuse := f.ambient
	var spec LinearRGB
	for _, l := range f.dirs {
		nl := Dot(n, l.toLight)
		if nl <= 0 {
			continue
		}
		diffuse = diffuse.Add(l.radiance.Scale(nl))
		h := Normalize(l.toLight.Add(v))
		s := math32.Pow(math32.Max(Dot(n, h), 0), m.Shininess)
		spec = spec.Add(l.radiance.Scale(s * nl))
	}
	return m.Color.Mul(diffuse).Add(m.Specular.Mul(spec))
}

func (f *frame) shadePhysical(m *PhysicalMaterial, p, n, v Vec3) LinearRGB {
	metal := Clamp01(m.Metalness)
	rough := math32.Max(Clamp01(m.Roughness), minRoughness)
	diffuseColor := m.Color.Scale(1 - metal)
	f0 := Gray(0.04).Lerp(m.Color, metal)
	nv := math32.Max(Dot(n, v), 1e-4)

	diffuse := diffuseColor.Mul(f.ambient)
	var spec LinearRGB
	for _, l := range f.dirs {
		nl := Dot(n, l.toLight)
		if nl <= 0 {
			continue
		}
		diffuse = diffuse.Add(diffuseColor.Mul(l.radiance).Scale(nl))
		spec = spec.Add(ggx(f0, n, v, l.toLight, rough).Mul(l.radiance).Scale(nl * math32.Pi))
	}

	if env := f.environment; env != nil {
		r := Reflect(v.Neg(), n)
		envDiffuse := env.SampleDir(n)
		envSpec := env.SampleDir(r).Lerp(envDiffuse, rough*rough)
		fr := fresnelRoughness(f0, nv, rough)
		diffuse = diffuse.Add(diffuseColor.Mul(envDiffuse).Mul(LinearRGB{1 - fr.R, 1 - fr.G, 1 - fr.B}))
		spec = spec.Add(envSpec.Mul(fr))
	}

	if tr := Clamp01(m.Transmission) * (1 - metal); tr > 0 {
		diffuse = diffuse.Lerp(f.transmitted(m, p, n, v), tr)
	}

	out := diffuse.Add(spec)

	if cc := Clamp01(m.Clearcoat); cc > 0 {
		fc := schlick(0.04, nv) * cc
		coat := f.clearcoat(m, n, v)
		out = out.Scale(1 - fc).Add(coat.Scale(fc))
	}
	return out
}

// transmitted follows the refracted ray Thickness units into the volume and
// looks up what lies behind it, the way a screen-space transmission pass
// samples the opaque scene.
func (f *frame) transmitted(m *PhysicalMaterial, p, n, v Vec3) LinearRGB {
	ior := m.IOR
	if ior <= 0 {
		ior = 1.5
	}
	thickness := m.Thickness
	if thickness <= 0 {
		thickness = 1e-3
	}
	dir := Normalize(Refract(v.Neg(), n, 1/ior))
	exit := p.Add(dir.Mul(thickness))
	look := Normalize(exit.Sub(f.eye))

	var behind LinearRGB
	switch {
	case f.background != nil:
		behind = f.background.SampleDir(look)
	case f.environment != nil:
		behind = f.environment.SampleDir(look)
	default:
		behind = f.clearLinear
	}
	return behind.Mul(m.Color)
}

func (f *frame) clearcoat(m *PhysicalMaterial, n, v Vec3) LinearRGB {
	rough := math32.Max(Clamp01(m.ClearcoatRoughness), minRoughness)
	var out LinearRGB
	for _, l := range f.dirs {
		nl := Dot(n, l.toLight)
		if nl <= 0 {
			continue
		}
		out = out.Add(ggx(Gray(0.04), n, v, l.toLight, rough).Mul(l.radiance).Scale(nl * math32.Pi / 0.04))
	}
	if env := f.environment; env != nil {
		out = out.Add(env.SampleDir(Reflect(v.Neg(), n)))
	}
	return out
}

// ggx is the Cook-Torrance specular BRDF with a GGX distribution and the
// height-correlated Smith visibility term.
func ggx(f0 LinearRGB, n, v, l Vec3, roughness Scalar) LinearRGB {
	h := Normalize(l.Add(v))
	nl := Clamp01(Dot(n, l))
	nv := Clamp01(Dot(n, v))
	nh := Clamp01(Dot(n, h))
	vh := Clamp01(Dot(v, h))

	a := roughness * roughness
	a2 := a * a

	den := nh*nh*(a2-1) + 1
	d := a2 / (math32.Pi * den * den)

	gv := nl * math32.Sqrt(nv*nv*(1-a2)+a2)
	gl := nv * math32.Sqrt(nl*nl*(1-a2)+a2)
	vis := Scalar(0)
	if gv+gl > 0 {
		vis = 0.5 / (gv + gl)
	}

	return fresnel(f0, vh).Scale(d * vis)
}

func schlick(f0, cos Scalar) Scalar {
	k := math32.Pow(1-Clamp01(cos), 5)
	return f0 + (1-f0)*k
}

func fresnel(f0 LinearRGB, cos Scalar) LinearRGB {
	k := math32.Pow(1-Clamp01(cos), 5)
	return LinearRGB{
		R: f0.R + (1-f0.R)*k,
		G: f0.G + (1-f0.G)*k,
		B: f0.B + (1-f0.B)*k,
	}
}

// fresnelRoughness damps the grazing boost for rough surfaces.
func fresnelRoughness(f0 LinearRGB, cos, roughness Scalar) LinearRGB {
	k := math32.Pow(1-Clamp01(cos), 5)
	g := 1 - roughness
	return LinearRGB{
		R: f0.R + (math32.Max(g, f0.R)-f0.R)*k,
		G: f0.G + (math32.Max(g, f0.G)-f0.G)*k,
		B: f0.B + (math32.Max(g, f0.B)-f0.B)*k,
	}
}
