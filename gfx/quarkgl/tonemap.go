package quarkgl

// ToneMapping selects the curve that compresses linear radiance into [0,1].
type ToneMapping uint8

const (
	NoToneMapping ToneMapping = iota
	LinearToneMapping
	ACESFilmicToneMapping
)

func (t ToneMapping) String() string {
	switch t {
	case NoToneMapping:
		return "none"
	case LinearToneMapping:
		return "linear"
	case ACESFilmicToneMapping:
		return "aces"
	default:
		return "unknown"
	}
}

// ParseToneMapping parses the names returned by String.
func ParseToneMapping(s string) (ToneMapping, bool) {
	switch s {
	case "none", "":
		return NoToneMapping, true
	case "linear":
		return LinearToneMapping, true
	case "aces", "aces-filmic":
		return ACESFilmicToneMapping, true
	}
	return NoToneMapping, false
}

// OutputEncoding selects the transfer function applied after tone mapping.
type OutputEncoding uint8

const (
	LinearEncoding OutputEncoding = iota
	SRGBEncoding
)

func (e OutputEncoding) String() string {
	if e == SRGBEncoding {
		return "srgb"
	}
	return "linear"
}

// ParseOutputEncoding parses the names returned by String.
func ParseOutputEncoding(s string) (OutputEncoding, bool) {
	switch s {
	case "srgb":
		return SRGBEncoding, true
	case "linear", "":
		return LinearEncoding, true
	}
	return LinearEncoding, false
}

// toneMap applies exposure and the selected curve.
func toneMap(c LinearRGB, mode ToneMapping, exposure float32) LinearRGB {
	switch mode {
	case LinearToneMapping:
		return c.Scale(exposure)
	case ACESFilmicToneMapping:
		return acesFilmic(c.Scale(exposure))
	default:
		return c
	}
}

// acesFilmic is the Stephen Hill RRT+ODT fit, including the sRGB→ACEScg input
// and ACEScg→sRGB output matrices. The 1/0.6 pre-scale matches the common
// realtime convention so exposure 1 keeps mid-gray close to unchanged.
func acesFilmic(c LinearRGB) LinearRGB {
	c = c.Scale(1 / 0.6)

	r := 0.59719*c.R + 0.35458*c.G + 0.04823*c.B
	g := 0.07600*c.R + 0.90834*c.G + 0.01566*c.B
	b := 0.02840*c.R + 0.13383*c.G + 0.83777*c.B

	r, g, b = rrtAndODT(r), rrtAndODT(g), rrtAndODT(b)

	out := LinearRGB{
		R: 1.60475*r - 0.53108*g - 0.07367*b,
		G: -0.10208*r + 1.10813*g - 0.00605*b,
		B: -0.00327*r - 0.07276*g + 1.07602*b,
	}
	out.R = clampF32(out.R, 0, 1)
	out.G = clampF32(out.G, 0, 1)
	out.B = clampF32(out.B, 0, 1)
	return out
}

func rrtAndODT(v float32) float32 {
	a := v*(v+0.0245786) - 0.000090537
	b := v*(0.983729*v+0.4329510) + 0.238081
	return a / b
}

// encode converts a tone mapped linear color into an 8-bit output color.
func encode(c LinearRGB, enc OutputEncoding) Color {
	if enc == SRGBEncoding {
		c = LinearRGB{
			R: linearToSRGB(clampF32(c.R, 0, 1)),
			G: linearToSRGB(clampF32(c.G, 0, 1)),
			B: linearToSRGB(clampF32(c.B, 0, 1)),
		}
	}
	return Color{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: 0xFF}
}
