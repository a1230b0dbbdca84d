package quarkgl

// Material describes how a surface responds to light.
//
// Materials are values owned by a single mesh; the renderer only reads them.
type Material interface {
	// BaseColor is the albedo in linear light.
	BaseColor() LinearRGB
	isMaterial()
}

// PhysicalMaterial is a metallic-roughness material with clear coat and
// transmission extensions.
type PhysicalMaterial struct {
	Color     LinearRGB
	Metalness float32 // 0..1
	Roughness float32 // 0..1

	// Clearcoat adds a thin dielectric layer on top of the base.
	Clearcoat          float32
	ClearcoatRoughness float32

	// Transmission is the fraction of light refracted through the surface.
	// Thickness is the volume depth used for the exit refraction.
	Transmission float32
	Thickness    float32
	IOR          float32
}

// NewPhysicalMaterial returns a white dielectric with full roughness and an
// index of refraction of 1.5.
func NewPhysicalMaterial() *PhysicalMaterial {
	return &PhysicalMaterial{
		Color:     Gray(1),
		Roughness: 1,
		IOR:       1.5,
	}
}

func (m *PhysicalMaterial) BaseColor() LinearRGB { return m.Color }
func (m *PhysicalMaterial) isMaterial()          {}

// PhongMaterial is a classic Blinn-Phong diffuse/specular material. It does
// not sample the scene environment.
type PhongMaterial struct {
	Color     LinearRGB
	Specular  LinearRGB
	Shininess float32
}

// NewPhongMaterial returns a material of the given color with a faint
// specular highlight.
func NewPhongMaterial(color LinearRGB) *PhongMaterial {
	return &PhongMaterial{
		Color:     color,
		Specular:  Hex(0x111111),
		Shininess: 30,
	}
}

func (m *PhongMaterial) BaseColor() LinearRGB { return m.Color }
func (m *PhongMaterial) isMaterial()          {}
