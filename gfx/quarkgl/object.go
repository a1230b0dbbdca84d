package quarkgl

// Euler holds rotation angles in radians, applied in X, Y, Z order.
type Euler struct {
	X, Y, Z Scalar
}

// Object3D is the transform shared by every scene node.
type Object3D struct {
	Name     string
	Position Vec3
	Rotation Euler
	Visible  bool
}

// NewObject3D returns a visible object at the origin.
func NewObject3D(name string) Object3D {
	return Object3D{Name: name, Visible: true}
}

// Object returns the node's transform; it makes every embedding type a Node.
func (o *Object3D) Object() *Object3D { return o }

// Matrix returns the object-to-world transform T·Rx·Ry·Rz.
func (o *Object3D) Matrix() Mat4 {
	r := Mat4Mul(Mat4RotateX(o.Rotation.X), Mat4Mul(Mat4RotateY(o.Rotation.Y), Mat4RotateZ(o.Rotation.Z)))
	return Mat4Mul(Mat4Translate(o.Position), r)
}

// Node is anything that can be added to a Scene.
type Node interface {
	Object() *Object3D
}

// Mesh pairs a geometry with exactly one material.
type Mesh struct {
	Object3D
	Geometry *Geometry
	Material Material
}

// NewMesh returns a visible mesh at the origin.
func NewMesh(name string, g *Geometry, m Material) *Mesh {
	return &Mesh{Object3D: NewObject3D(name), Geometry: g, Material: m}
}
