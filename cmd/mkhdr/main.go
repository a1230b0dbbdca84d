package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"lumen/gfx/rgbe"
)

func main() {
	var (
		inPath  = flag.String("in", "", "Input .hdr file (info mode).")
		outPath = flag.String("out", "", "Output .hdr file (sky mode).")
		mode    = flag.String("mode", "sky", "sky|info.")
		width   = flag.Int("w", 512, "Panorama width (sky mode).")
		height  = flag.Int("h", 0, "Panorama height (sky mode, default w/2).")
		sunX    = flag.Float64("sun-x", -1, "Sun direction X.")
		sunY    = flag.Float64("sun-y", 2, "Sun direction Y.")
		sunZ    = flag.Float64("sun-z", 4, "Sun direction Z.")
		sun     = flag.Float64("sun", 40, "Sun disk radiance.")
	)
	flag.Parse()

	switch strings.ToLower(*mode) {
	case "sky":
		if *outPath == "" {
			fatalf("usage: mkhdr -out sky.hdr [-w 512] [-h 256] [-sun 40] [-sun-x -1 -sun-y 2 -sun-z 4]\n       mkhdr -mode info -in sky.hdr")
		}
		h := *height
		if h <= 0 {
			h = *width / 2
		}
		s := skyParams{sun: normalize(*sunX, *sunY, *sunZ), sunRadiance: *sun}
		if err := writeSky(*outPath, *width, h, s); err != nil {
			fatalf("sky: %v", err)
		}
	case "info":
		if *inPath == "" {
			fatalf("usage: mkhdr -mode info -in sky.hdr")
		}
		if err := printInfo(*inPath); err != nil {
			fatalf("info: %v", err)
		}
	default:
		fatalf("unknown mode: %s", *mode)
	}
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}

type skyParams struct {
	sun         [3]float64
	sunRadiance float64
}

func normalize(x, y, z float64) [3]float64 {
	l := math.Sqrt(x*x + y*y + z*z)
	if l == 0 {
		return [3]float64{0, 1, 0}
	}
	return [3]float64{x / l, y / l, z / l}
}

// direction inverts the equirectangular lookup used by the renderer.
func direction(u, v float64) [3]float64 {
	el := (0.5 - v) * math.Pi
	az := (u - 0.5) * 2 * math.Pi
	c := math.Cos(el)
	return [3]float64{c * math.Cos(az), math.Sin(el), c * math.Sin(az)}
}

func lerp(a, b [3]float64, t float64) [3]float64 {
	return [3]float64{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t, a[2] + (b[2]-a[2])*t}
}

var (
	zenith  = [3]float64{0.12, 0.25, 0.75}
	horizon = [3]float64{0.95, 0.9, 0.85}
	ground  = [3]float64{0.12, 0.1, 0.08}
)

// radiance returns a simple sky: a zenith-to-horizon gradient, a dark
// ground and a sun disk with a soft halo.
func radiance(d [3]float64, s skyParams) [3]float64 {
	var c [3]float64
	if d[1] >= 0 {
		c = lerp(horizon, zenith, math.Sqrt(d[1]))
	} else {
		c = lerp(horizon, ground, math.Min(1, -d[1]*8))
	}
	cos := d[0]*s.sun[0] + d[1]*s.sun[1] + d[2]*s.sun[2]
	if cos > math.Cos(1.5*math.Pi/180) {
		return [3]float64{s.sunRadiance, s.sunRadiance * 0.95, s.sunRadiance * 0.85}
	}
	if cos > 0 {
		halo := math.Pow(cos, 64) * s.sunRadiance * 0.05
		c = [3]float64{c[0] + halo, c[1] + halo*0.9, c[2] + halo*0.7}
	}
	return c
}

func renderSky(w, h int, s skyParams) []float32 {
	pix := make([]float32, w*h*3)
	for y := 0; y < h; y++ {
		v := (float64(y) + 0.5) / float64(h)
		for x := 0; x < w; x++ {
			u := (float64(x) + 0.5) / float64(w)
			c := radiance(direction(u, v), s)
			i := (y*w + x) * 3
			pix[i], pix[i+1], pix[i+2] = float32(c[0]), float32(c[1]), float32(c[2])
		}
	}
	return pix
}

func writeSky(path string, w, h int, s skyParams) error {
	if w <= 0 || w > rgbe.MaxWidth || h <= 0 {
		return fmt.Errorf("size out of range: %dx%d", w, h)
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := rgbe.Encode(out, w, h, renderSky(w, h, s)); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func printInfo(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()
	return describe(os.Stdout, in)
}

// describe streams the image one scanline at a time and prints its header
// and pixel statistics. A truncated file reports how many rows are missing.
func describe(w io.Writer, r io.Reader) error {
	dec, err := rgbe.NewDecoder(r)
	if err != nil {
		return err
	}
	hd := dec.Header
	row := make([]float32, 3*hd.Width)
	var peak float32
	var sum float64
	var n int
	for {
		err := dec.ReadScanline(row)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w (%d of %d rows missing)", err, dec.Remaining(), hd.Height)
		}
		for _, v := range row {
			peak = max(peak, v)
			sum += float64(v)
		}
		n += len(row)
	}
	fmt.Fprintf(w, "program:  %s\nformat:   %s\nsize:     %dx%d\nexposure: %g\npeak:     %g\nmean:     %g\n",
		hd.Program, hd.Format, hd.Width, hd.Height, hd.Exposure, peak, sum/float64(n))
	return nil
}
