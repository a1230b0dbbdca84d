package quarkgl

import (
	"errors"

	"github.com/chewxy/math32"
)

// Mapping describes how a texture is projected.
type Mapping uint8

const (
	UVMapping Mapping = iota
	// EquirectangularReflectionMapping wraps a 2:1 panorama around the scene.
	// It is used for both backgrounds and environment lighting.
	EquirectangularReflectionMapping
)

func (m Mapping) String() string {
	switch m {
	case UVMapping:
		return "uv"
	case EquirectangularReflectionMapping:
		return "equirect-reflection"
	default:
		return "unknown"
	}
}

var errTextureSize = errors.New("quarkgl: texture pixel count does not match size")

// Texture is a linear float RGB image. Row 0 is the top of the image.
type Texture struct {
	Width   int
	Height  int
	Pix     []float32 // RGB triplets, len = Width*Height*3
	Mapping Mapping
}

// NewTexture wraps pix as a texture. pix is not copied.
func NewTexture(w, h int, pix []float32) (*Texture, error) {
	if w <= 0 || h <= 0 || len(pix) != w*h*3 {
		return nil, errTextureSize
	}
	return &Texture{Width: w, Height: h, Pix: pix}, nil
}

// At returns the texel at (x, y); x wraps, y clamps.
func (t *Texture) At(x, y int) LinearRGB {
	x %= t.Width
	if x < 0 {
		x += t.Width
	}
	if y < 0 {
		y = 0
	}
	if y >= t.Height {
		y = t.Height - 1
	}
	i := (y*t.Width + x) * 3
	return LinearRGB{t.Pix[i], t.Pix[i+1], t.Pix[i+2]}
}

// SampleUV bilinearly samples at normalized coordinates, u wrapping, v=0 at
// the top row.
func (t *Texture) SampleUV(u, v float32) LinearRGB {
	if t == nil || t.Width == 0 || t.Height == 0 {
		return LinearRGB{}
	}
	fx := u*float32(t.Width) - 0.5
	fy := v*float32(t.Height) - 0.5
	x0 := int(math32.Floor(fx))
	y0 := int(math32.Floor(fy))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	c00 := t.At(x0, y0)
	c10 := t.At(x0+1, y0)
	c01 := t.At(x0, y0+1)
	c11 := t.At(x0+1, y0+1)
	top := c00.Lerp(c10, tx)
	bot := c01.Lerp(c11, tx)
	return top.Lerp(bot, ty)
}

// SampleDir samples an equirectangular texture along a world direction.
// +Y is up; the panorama seam lies on -X.
func (t *Texture) SampleDir(dir Vec3) LinearRGB {
	d := Normalize(dir)
	if d == (Vec3{}) {
		return LinearRGB{}
	}
	u := math32.Atan2(d.Z, d.X)/(2*math32.Pi) + 0.5
	v := 0.5 - math32.Asin(clampF32(d.Y, -1, 1))/math32.Pi
	return t.SampleUV(u, v)
}
