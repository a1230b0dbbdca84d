package quarkgl

import "github.com/chewxy/math32"

const orbitEPS = 1e-6

// PointerButton identifies the button behind a pointer-down.
type PointerButton uint8

const (
	ButtonPrimary PointerButton = iota
	ButtonSecondary
	ButtonMiddle
	ButtonTouch
)

// OrbitControls rotates and zooms a camera around a fixed target.
//
// It does not depend on any input system: hosts feed it pointer events and
// call Update once per frame, which applies everything accumulated since the
// previous Update. Without damping, motion is directly coupled to input.
type OrbitControls struct {
	Camera *PerspectiveCamera
	Target Vec3

	Enabled     bool
	RotateSpeed Scalar
	ZoomSpeed   Scalar

	MinDistance Scalar
	MaxDistance Scalar

	EnableDamping bool
	DampingFactor Scalar

	viewportHeight Scalar

	deltaTheta Scalar
	deltaPhi   Scalar
	scale      Scalar

	pointers  map[int]pointerState
	pinchDist Scalar
}

type pointerState struct {
	x, y   Scalar
	rotate bool
}

// NewOrbitControls binds controls to cam. viewportHeight is the logical height
// of the input surface; it converts pixel drags into angles.
func NewOrbitControls(cam *PerspectiveCamera, viewportHeight int) *OrbitControls {
	c := &OrbitControls{
		Camera:        cam,
		Enabled:       true,
		RotateSpeed:   1,
		ZoomSpeed:     1,
		MaxDistance:   math32.Inf(1),
		DampingFactor: 0.05,
		scale:         1,
		pointers:      make(map[int]pointerState, 2),
	}
	c.SetViewportHeight(viewportHeight)
	return c
}

// SetViewportHeight updates the height used to scale drag rotation.
func (c *OrbitControls) SetViewportHeight(h int) {
	if h <= 0 {
		h = 1
	}
	c.viewportHeight = Scalar(h)
}

// Rotate queues an orbit by the given angles (radians). Positive yaw turns the
// camera to the left around the target, positive pitch moves it up.
func (c *OrbitControls) Rotate(deltaYaw, deltaPitch Scalar) {
	c.deltaTheta -= deltaYaw
	c.deltaPhi -= deltaPitch
}

// Zoom queues a dolly by factor: values above 1 move towards the target.
func (c *OrbitControls) Zoom(factor Scalar) {
	if factor <= 0 {
		return
	}
	c.scale /= factor
}

func (c *OrbitControls) zoomScale() Scalar {
	return math32.Pow(0.95, c.ZoomSpeed)
}

// PointerDown starts tracking a pointer. Primary-button and touch pointers
// rotate; a second touch turns the gesture into a pinch zoom.
func (c *OrbitControls) PointerDown(id int, x, y Scalar, button PointerButton) {
	if !c.Enabled {
		return
	}
	rotate := button == ButtonPrimary || button == ButtonTouch
	c.pointers[id] = pointerState{x: x, y: y, rotate: rotate}
	if len(c.pointers) == 2 {
		c.pinchDist = c.pointerSpread()
	}
}

// PointerMove updates a tracked pointer.
func (c *OrbitControls) PointerMove(id int, x, y Scalar) {
	if !c.Enabled {
		return
	}
	p, ok := c.pointers[id]
	if !ok {
		return
	}
	dx, dy := x-p.x, y-p.y
	p.x, p.y = x, y
	c.pointers[id] = p

	switch len(c.pointers) {
	case 1:
		if !p.rotate {
			return
		}
		full := 2 * math32.Pi * c.RotateSpeed / c.viewportHeight
		c.Rotate(dx*full, dy*full)
	case 2:
		d := c.pointerSpread()
		if c.pinchDist > 0 && d > 0 {
			c.Zoom(math32.Pow(d/c.pinchDist, c.ZoomSpeed))
		}
		c.pinchDist = d
	}
}

// PointerUp stops tracking a pointer.
func (c *OrbitControls) PointerUp(id int) {
	delete(c.pointers, id)
	c.pinchDist = 0
	if len(c.pointers) == 2 {
		c.pinchDist = c.pointerSpread()
	}
}

// Wheel applies a scroll step; positive deltaY zooms out.
func (c *OrbitControls) Wheel(deltaY Scalar) {
	if !c.Enabled || deltaY == 0 {
		return
	}
	if deltaY < 0 {
		c.Zoom(1 / c.zoomScale())
	} else {
		c.Zoom(c.zoomScale())
	}
}

func (c *OrbitControls) pointerSpread() Scalar {
	var pts [2]pointerState
	i := 0
	for _, p := range c.pointers {
		if i == 2 {
			break
		}
		pts[i] = p
		i++
	}
	return math32.Hypot(pts[0].x-pts[1].x, pts[0].y-pts[1].y)
}

// Update applies accumulated input to the camera. It reports whether the
// camera moved. With nothing accumulated the camera is left untouched.
func (c *OrbitControls) Update() bool {
	cam := c.Camera
	if cam == nil {
		return false
	}
	if c.deltaTheta == 0 && c.deltaPhi == 0 && c.scale == 1 {
		return false
	}

	offset := cam.Position.Sub(c.Target)
	radius := Len(offset)
	theta := math32.Atan2(offset.X, offset.Z)
	phi := Scalar(0)
	if radius > 0 {
		phi = math32.Acos(clampF32(offset.Y/radius, -1, 1))
	}

	k := Scalar(1)
	if c.EnableDamping {
		k = c.DampingFactor
	}
	theta += c.deltaTheta * k
	phi += c.deltaPhi * k
	phi = clampF32(phi, orbitEPS, math32.Pi-orbitEPS)

	radius *= c.scale
	if radius < c.MinDistance {
		radius = c.MinDistance
	}
	if radius > c.MaxDistance {
		radius = c.MaxDistance
	}

	sinPhi, cosPhi := math32.Sincos(phi)
	sinTheta, cosTheta := math32.Sincos(theta)
	next := c.Target.Add(V3(radius*sinPhi*sinTheta, radius*cosPhi, radius*sinPhi*cosTheta))

	moved := Len(next.Sub(cam.Position)) > orbitEPS
	cam.Position = next
	cam.LookAt(c.Target)

	if c.EnableDamping {
		c.deltaTheta *= 1 - c.DampingFactor
		c.deltaPhi *= 1 - c.DampingFactor
		if math32.Abs(c.deltaTheta) < orbitEPS {
			c.deltaTheta = 0
		}
		if math32.Abs(c.deltaPhi) < orbitEPS {
			c.deltaPhi = 0
		}
	} else {
		c.deltaTheta = 0
		c.deltaPhi = 0
	}
	c.scale = 1
	return moved
}
