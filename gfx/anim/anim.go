// Package anim drives the per-frame spin of the demo meshes.
package anim

import (
	"math"

	"lumen/gfx/quarkgl"
)

// State is the animation state derived from the frame clock.
type State struct {
	ElapsedSeconds float64
}

// Step returns the state for a frame at nowMs given the first frame at
// originMs. Clocks running backwards clamp to zero.
func Step(originMs, nowMs float64) State {
	d := nowMs - originMs
	if d < 0 || math.IsNaN(d) {
		d = 0
	}
	return State{ElapsedSeconds: d / 1000}
}

// Angle is the rotation for s in radians, reduced to [0, 2π).
func (s State) Angle() float32 {
	return float32(math.Mod(s.ElapsedSeconds, 2*math.Pi))
}

// Apply sets the X and Y rotation of every node to s.Angle(). Rotation is
// assigned, never accumulated, so the spin rate is independent of frame rate.
func Apply(s State, nodes ...quarkgl.Node) {
	a := s.Angle()
	for _, n := range nodes {
		if n == nil {
			continue
		}
		o := n.Object()
		o.Rotation.X = a
		o.Rotation.Y = a
	}
}

// Updater is the per-frame hook of an input controller.
type Updater interface {
	Update() bool
}

// Driver runs one animation frame per host callback.
type Driver struct {
	Nodes    []quarkgl.Node
	Render   func() error
	Controls Updater

	origin  float64
	started bool
	state   State
	frames  uint64
}

// NewDriver returns a driver spinning nodes.
func NewDriver(render func() error, controls Updater, nodes ...quarkgl.Node) *Driver {
	return &Driver{Nodes: nodes, Render: render, Controls: controls}
}

// Frame advances to nowMs: it rotates the nodes, renders, then applies
// pending controller input. The first call fixes the time origin.
func (d *Driver) Frame(nowMs float64) error {
	if !d.started {
		d.origin, d.started = nowMs, true
	}
	d.state = Step(d.origin, nowMs)
	Apply(d.state, d.Nodes...)
	d.frames++

	if d.Render != nil {
		if err := d.Render(); err != nil {
			return err
		}
	}
	if d.Controls != nil {
		d.Controls.Update()
	}
	return nil
}

// State returns the state of the most recent frame.
func (d *Driver) State() State { return d.state }

// Frames returns the number of frames run.
func (d *Driver) Frames() uint64 { return d.frames }

// Reset makes the next frame the new time origin.
func (d *Driver) Reset() {
	d.started = false
	d.state = State{}
}
