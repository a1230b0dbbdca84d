package quarkgl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bandTexture returns a 4x2 texture whose top row is red and bottom row blue.
func bandTexture(t *testing.T) *Texture {
	t.Helper()
	pix := make([]float32, 4*2*3)
	for x := 0; x < 4; x++ {
		pix[x*3] = 1
		pix[(4+x)*3+2] = 1
	}
	tex, err := NewTexture(4, 2, pix)
	require.NoError(t, err)
	return tex
}

func TestNewTextureRejectsBadSize(t *testing.T) {
	_, err := NewTexture(2, 2, make([]float32, 3))
	assert.Error(t, err)
	_, err = NewTexture(0, 1, nil)
	assert.Error(t, err)
}

func TestTextureAtWrapsAndClamps(t *testing.T) {
	tex := bandTexture(t)
	assert.Equal(t, tex.At(0, 0), tex.At(4, 0))
	assert.Equal(t, tex.At(3, 0), tex.At(-1, 0))
	assert.Equal(t, tex.At(0, 1), tex.At(0, 7))
}

func TestSampleDirUpAndDown(t *testing.T) {
	tex := bandTexture(t)
	up := tex.SampleDir(V3(0, 1, 0))
	down := tex.SampleDir(V3(0, -1, 0))
	assert.InDelta(t, 1, up.R, 1e-6)
	assert.InDelta(t, 0, up.B, 1e-6)
	assert.InDelta(t, 1, down.B, 1e-6)
	assert.InDelta(t, 0, down.R, 1e-6)

	// The horizon sits between the two rows.
	h := tex.SampleDir(V3(1, 0, 0))
	assert.InDelta(t, 0.5, h.R, 1e-5)
	assert.InDelta(t, 0.5, h.B, 1e-5)

	assert.Equal(t, LinearRGB{}, tex.SampleDir(Vec3{}))
}
