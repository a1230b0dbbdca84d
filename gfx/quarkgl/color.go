package quarkgl

import "github.com/chewxy/math32"

// Color is an RGBA color in 8-bit channels. It is the output format of the
// renderer after tone mapping and encoding.
type Color struct {
	R, G, B, A uint8
}

func RGB(r, g, b uint8) Color { return Color{R: r, G: g, B: b, A: 0xFF} }

// LinearRGB is a color in linear light. Components are unbounded above; values
// above 1 are normal for HDR sources and are compressed by tone mapping.
type LinearRGB struct {
	R, G, B float32
}

// Hex converts a 0xRRGGBB sRGB color into linear light.
func Hex(v uint32) LinearRGB {
	return LinearRGB{
		R: srgbToLinear(float32((v>>16)&0xFF) / 255),
		G: srgbToLinear(float32((v>>8)&0xFF) / 255),
		B: srgbToLinear(float32(v&0xFF) / 255),
	}
}

// Gray returns a linear gray of level v.
func Gray(v float32) LinearRGB { return LinearRGB{v, v, v} }

func (c LinearRGB) Add(o LinearRGB) LinearRGB { return LinearRGB{c.R + o.R, c.G + o.G, c.B + o.B} }
func (c LinearRGB) Mul(o LinearRGB) LinearRGB { return LinearRGB{c.R * o.R, c.G * o.G, c.B * o.B} }
func (c LinearRGB) Scale(s float32) LinearRGB { return LinearRGB{c.R * s, c.G * s, c.B * s} }

// Lerp mixes c towards o by t.
func (c LinearRGB) Lerp(o LinearRGB, t float32) LinearRGB {
	return LinearRGB{c.R + (o.R-c.R)*t, c.G + (o.G-c.G)*t, c.B + (o.B-c.B)*t}
}

func srgbToLinear(c float32) float32 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math32.Pow((c+0.055)/1.055, 2.4)
}

func linearToSRGB(c float32) float32 {
	if c <= 0.0031308 {
		return c * 12.92
	}
	return 1.055*math32.Pow(c, 1/2.4) - 0.055
}

func to8(c float32) uint8 {
	return uint8(clampF32(c, 0, 1)*255 + 0.5)
}
