package quarkgl

// PerspectiveCamera describes the viewing transform.
type PerspectiveCamera struct {
	Position Vec3
	Target   Vec3
	Up       Vec3

	FOV    Scalar // vertical, degrees
	Aspect Scalar
	Near   Scalar
	Far    Scalar
}

// NewPerspectiveCamera returns a camera at the origin looking down -Z.
func NewPerspectiveCamera(fov, aspect, near, far Scalar) *PerspectiveCamera {
	return &PerspectiveCamera{
		Target: V3(0, 0, -1),
		Up:     V3(0, 1, 0),
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
	}
}

// LookAt points the camera at p.
func (c *PerspectiveCamera) LookAt(p Vec3) { c.Target = p }

// View returns the camera view matrix.
func (c *PerspectiveCamera) View() Mat4 {
	up := c.Up
	if up == (Vec3{}) {
		up = V3(0, 1, 0)
	}
	return Mat4LookAt(c.Position, c.Target, up)
}

// Projection returns the projection matrix for the camera's own aspect.
func (c *PerspectiveCamera) Projection() Mat4 {
	fov := c.FOV
	if fov == 0 {
		fov = 50
	}
	return Mat4Perspective(DegToRad(fov), c.Aspect, c.Near, c.Far)
}

// Scene is an ordered collection of meshes and lights plus optional
// background and environment textures. A nil texture slot means "none".
type Scene struct {
	Background  *Texture
	Environment *Texture

	nodes []Node
}

// NewScene returns an empty scene.
func NewScene() *Scene {
	return &Scene{}
}

// Add appends nodes in order. Nil nodes and nodes already present are ignored.
func (s *Scene) Add(nodes ...Node) {
	if s == nil {
		return
	}
	for _, n := range nodes {
		if n == nil || s.indexOf(n) >= 0 {
			continue
		}
		s.nodes = append(s.nodes, n)
	}
}

// Len returns the number of nodes.
func (s *Scene) Len() int {
	if s == nil {
		return 0
	}
	return len(s.nodes)
}

// Nodes returns a copy of the node list.
func (s *Scene) Nodes() []Node {
	if s == nil {
		return nil
	}
	return append([]Node(nil), s.nodes...)
}

// HasEnvironment reports whether an environment map is installed.
func (s *Scene) HasEnvironment() bool {
	return s != nil && s.Environment != nil
}

func (s *Scene) indexOf(n Node) int {
	for i, m := range s.nodes {
		if m == n {
			return i
		}
	}
	return -1
}

func (s *Scene) eachMesh(fn func(m *Mesh)) {
	for _, n := range s.nodes {
		if m, ok := n.(*Mesh); ok && m.Visible {
			fn(m)
		}
	}
}

func (s *Scene) eachLight(fn func(l Light)) {
	for _, n := range s.nodes {
		if l, ok := n.(Light); ok && l.Object().Visible {
			fn(l)
		}
	}
}
