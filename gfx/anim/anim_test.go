package anim

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumen/gfx/quarkgl"
)

type countingControls struct{ n int }

func (c *countingControls) Update() bool { c.n++; return false }

func meshes() []quarkgl.Node {
	box := quarkgl.NewBoxGeometry(1, 1, 1)
	return []quarkgl.Node{
		quarkgl.NewMesh("a", box, quarkgl.NewPhongMaterial(quarkgl.Gray(1))),
		quarkgl.NewMesh("b", box, quarkgl.NewPhongMaterial(quarkgl.Gray(1))),
		quarkgl.NewMesh("c", box, quarkgl.NewPhongMaterial(quarkgl.Gray(1))),
	}
}

func TestStep(t *testing.T) {
	assert.Equal(t, State{}, Step(500, 500))
	assert.Equal(t, 2.0, Step(0, 2000).ElapsedSeconds)
	assert.Equal(t, State{}, Step(1000, 10), "clock going backwards")
}

func TestAngleWraps(t *testing.T) {
	assert.Equal(t, float32(2), State{ElapsedSeconds: 2}.Angle())
	assert.InDelta(t, 1, State{ElapsedSeconds: 2*math.Pi + 1}.Angle(), 1e-6)
}

func TestApplySetsXAndY(t *testing.T) {
	nodes := meshes()
	Apply(State{ElapsedSeconds: 1.5}, append(nodes, nil)...)
	for _, n := range nodes {
		assert.Equal(t, quarkgl.Euler{X: 1.5, Y: 1.5}, n.Object().Rotation)
	}
}

func TestDriverFirstFrameIsZero(t *testing.T) {
	nodes := meshes()
	d := NewDriver(nil, nil, nodes...)
	require.NoError(t, d.Frame(16789.5))
	for _, n := range nodes {
		assert.Equal(t, quarkgl.Euler{}, n.Object().Rotation)
	}
}

func TestDriverTwoSeconds(t *testing.T) {
	nodes := meshes()
	d := NewDriver(nil, nil, nodes...)
	require.NoError(t, d.Frame(0))
	require.NoError(t, d.Frame(2000))
	assert.Equal(t, 2.0, d.State().ElapsedSeconds)
	for _, n := range nodes {
		assert.Equal(t, float32(2), n.Object().Rotation.X)
		assert.Equal(t, float32(2), n.Object().Rotation.Y)
	}
}

func TestDriverIndependentOfFrameRate(t *testing.T) {
	fast, slow := meshes(), meshes()
	df := NewDriver(nil, nil, fast...)
	ds := NewDriver(nil, nil, slow...)
	last := 0.0
	for ms := 0.0; ms <= 3000; ms += 1000.0 / 60 {
		require.NoError(t, df.Frame(ms))
		last = ms
	}
	require.NoError(t, ds.Frame(0))
	require.NoError(t, ds.Frame(last))
	assert.Equal(t, fast[0].Object().Rotation, slow[0].Object().Rotation)
}

func TestDriverOrderAndErrors(t *testing.T) {
	nodes := meshes()
	ctl := &countingControls{}
	var seen []float32
	boom := errors.New("boom")
	fail := false
	d := NewDriver(func() error {
		seen = append(seen, nodes[0].Object().Rotation.X)
		if fail {
			return boom
		}
		return nil
	}, ctl, nodes...)

	require.NoError(t, d.Frame(0))
	require.NoError(t, d.Frame(500))
	assert.Equal(t, []float32{0, 0.5}, seen, "render sees this frame's rotation")
	assert.Equal(t, 2, ctl.n)

	fail = true
	assert.ErrorIs(t, d.Frame(1000), boom)
	assert.Equal(t, 2, ctl.n, "controls skipped after a failed render")
	assert.Equal(t, uint64(3), d.Frames())

	fail = false
	d.Reset()
	require.NoError(t, d.Frame(90000))
	assert.Equal(t, float32(0), nodes[0].Object().Rotation.X)
}
