package app

import "lumen/gfx/quarkgl"

// Demo is the scene graph and the handles the frame loop needs.
type Demo struct {
	Scene  *quarkgl.Scene
	Camera *quarkgl.PerspectiveCamera

	Cube        *quarkgl.Mesh
	Sphere      *quarkgl.Mesh
	Tetrahedron *quarkgl.Mesh

	Sun     *quarkgl.DirectionalLight
	Ambient *quarkgl.AmbientLight
}

// BuildScene creates the camera and adds three meshes with distinct
// materials and two lights to a new scene.
func BuildScene() *Demo {
	cam := quarkgl.NewPerspectiveCamera(75, 2, 0.1, 10)
	cam.Position = quarkgl.V3(0, 0, 4)
	cam.LookAt(quarkgl.Vec3{})

	// Clear-coated metal.
	metal := quarkgl.NewPhysicalMaterial()
	metal.Clearcoat = 1
	metal.Metalness = 0.9
	metal.Roughness = 0.1
	metal.Color = quarkgl.Hex(0xFF2D00)
	cube := quarkgl.NewMesh("cube", quarkgl.NewBoxGeometry(1, 1, 1), metal)

	// Glass.
	glass := quarkgl.NewPhysicalMaterial()
	glass.Roughness = 0
	glass.Transmission = 1
	glass.Thickness = 5
	sphere := quarkgl.NewMesh("sphere", quarkgl.NewSphereGeometry(0.5, 32, 16), glass)
	sphere.Position.X = 2

	tetra := quarkgl.NewMesh("tetrahedron", quarkgl.NewTetrahedronGeometry(1, 0), quarkgl.NewPhongMaterial(quarkgl.Hex(0x0059FF)))
	tetra.Position.X = -2

	sun := quarkgl.NewDirectionalLight(quarkgl.Hex(0xFFFFFF), 0.1)
	sun.Position = quarkgl.V3(-1, 2, 4)
	ambient := quarkgl.NewAmbientLight(quarkgl.Hex(0xFFFFFF), 0.1)

	s := quarkgl.NewScene()
	s.Add(cube, sphere, tetra, sun, ambient)

	return &Demo{
		Scene:       s,
		Camera:      cam,
		Cube:        cube,
		Sphere:      sphere,
		Tetrahedron: tetra,
		Sun:         sun,
		Ambient:     ambient,
	}
}

// Meshes returns the animated meshes.
func (d *Demo) Meshes() []quarkgl.Node {
	return []quarkgl.Node{d.Cube, d.Sphere, d.Tetrahedron}
}

// SetEnvironment installs tex as both background and lighting environment.
// A nil tex clears both slots.
func (d *Demo) SetEnvironment(tex *quarkgl.Texture) {
	d.Scene.Background = tex
	d.Scene.Environment = tex
}
