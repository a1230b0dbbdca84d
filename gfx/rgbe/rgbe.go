// Package rgbe reads and writes Radiance HDR (.hdr, .pic) images.
//
// Only the common layout is supported: 32-bit RGBE pixels, top-to-bottom
// rows ("-Y h +X w"), with flat, old-style or new-style run-length scanlines.
// Pixels are returned as linear float32 RGB.
package rgbe

import (
	"errors"
	"math"
)

const (
	// FormatRGBE is the only pixel format accepted.
	FormatRGBE = "32-bit_rle_rgbe"

	// MaxWidth is the largest width the new-style RLE can express.
	MaxWidth = 0x7fff

	minRLEWidth = 8
	maxPixels   = 1 << 28
)

var (
	errBadMagic     = errors.New("rgbe: missing #? signature")
	errBadFormat    = errors.New("rgbe: unsupported pixel format")
	errBadSize      = errors.New("rgbe: invalid resolution line")
	errOrientation  = errors.New("rgbe: unsupported orientation")
	errHeaderTooBig = errors.New("rgbe: header too long")
	errBadScanline  = errors.New("rgbe: corrupt scanline")
	errTooLarge     = errors.New("rgbe: image too large")
	errShortBuffer  = errors.New("rgbe: destination buffer too small")
)

// tooLarge reports whether a w×h image (both positive) exceeds maxPixels.
// Each side is bounded before multiplying so the product cannot wrap.
func tooLarge(w, h int) bool {
	return w > maxPixels || h > maxPixels/w
}

// Header describes a Radiance image.
type Header struct {
	Program  string // text after "#?", usually RADIANCE or RGBE
	Format   string
	Exposure float64 // product of EXPOSURE lines; 1 if absent
	Gamma    float64 // 0 if absent
	Width    int
	Height   int
}

// toFloat converts one RGBE pixel to linear RGB.
func toFloat(r, g, b, e byte) (float32, float32, float32) {
	if e == 0 {
		return 0, 0, 0
	}
	f := float32(math.Ldexp(1, int(e)-(128+8)))
	return (float32(r) + 0.5) * f, (float32(g) + 0.5) * f, (float32(b) + 0.5) * f
}

// fromFloat converts linear RGB to one RGBE pixel.
func fromFloat(r, g, b float32) [4]byte {
	v := max(r, g, b)
	if v < 1e-32 {
		return [4]byte{}
	}
	mant, exp := math.Frexp(float64(v))
	scale := mant * 256 / float64(v)
	return [4]byte{
		clampByte(float64(r) * scale),
		clampByte(float64(g) * scale),
		clampByte(float64(b) * scale),
		byte(exp + 128),
	}
}

func clampByte(v float64) byte {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(v)
}
