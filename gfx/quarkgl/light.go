package quarkgl

// Light is a scene node that illuminates meshes.
type Light interface {
	Node
	// Radiance returns color * intensity.
	Radiance() LinearRGB
	isLight()
}

// AmbientLight lights every surface uniformly.
type AmbientLight struct {
	Object3D
	Color     LinearRGB
	Intensity float32
}

func NewAmbientLight(color LinearRGB, intensity float32) *AmbientLight {
	return &AmbientLight{Object3D: NewObject3D("ambient"), Color: color, Intensity: intensity}
}

func (l *AmbientLight) Radiance() LinearRGB { return l.Color.Scale(l.Intensity) }
func (l *AmbientLight) isLight()            {}

// DirectionalLight shines parallel rays from Position towards Target.
type DirectionalLight struct {
	Object3D
	Color     LinearRGB
	Intensity float32
	Target    Vec3
}

func NewDirectionalLight(color LinearRGB, intensity float32) *DirectionalLight {
	l := &DirectionalLight{
		Object3D:  NewObject3D("directional"),
		Color:     color,
		Intensity: intensity,
	}
	l.Position = V3(0, 1, 0)
	return l
}

func (l *DirectionalLight) Radiance() LinearRGB { return l.Color.Scale(l.Intensity) }
func (l *DirectionalLight) isLight()            {}

// ToLight returns the unit direction from a surface towards the light.
func (l *DirectionalLight) ToLight() Vec3 {
	return Normalize(l.Position.Sub(l.Target))
}
