package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lumen/gfx/rgbe"
)

func TestDirectionMatchesEquirectLookup(t *testing.T) {
	up := direction(0.5, 0)
	if math.Abs(up[1]-1) > 1e-9 {
		t.Fatalf("top row points %v, want +Y", up)
	}
	d := direction(0.75, 0.5)
	// u = atan2(z, x)/2π + 0.5 must give back 0.75.
	if u := math.Atan2(d[2], d[0])/(2*math.Pi) + 0.5; math.Abs(u-0.75) > 1e-9 {
		t.Fatalf("u = %v, want 0.75", u)
	}
}

func TestSkyHasSunAndDarkGround(t *testing.T) {
	s := skyParams{sun: normalize(0, 1, 0), sunRadiance: 40}
	if c := radiance([3]float64{0, 1, 0}, s); c[0] != 40 {
		t.Fatalf("sun radiance = %v", c)
	}
	g := radiance([3]float64{0, -1, 0}, s)
	for i := range g {
		if math.Abs(g[i]-ground[i]) > 1e-9 {
			t.Fatalf("ground = %v, want %v", g, ground)
		}
	}
}

func TestWriteSkyDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sky.hdr")
	if err := writeSky(path, 32, 16, skyParams{sun: normalize(-1, 2, 4), sunRadiance: 40}); err != nil {
		t.Fatalf("writeSky: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := rgbe.Decode(f)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Header.Width != 32 || img.Header.Height != 16 {
		t.Fatalf("size = %dx%d", img.Header.Width, img.Header.Height)
	}
	if err := writeSky(path, 0, 16, skyParams{}); err == nil {
		t.Fatal("expected error for zero width")
	}
}

func TestDescribeReportsStatsAndTruncation(t *testing.T) {
	const w, h = 16, 4
	pix := make([]float32, w*h*3)
	for i := range pix {
		pix[i] = 0.5
	}
	pix[5] = 8
	var src bytes.Buffer
	if err := rgbe.Encode(&src, w, h, pix); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	data := src.Bytes()

	var out bytes.Buffer
	if err := describe(&out, bytes.NewReader(data)); err != nil {
		t.Fatalf("describe: %v", err)
	}
	if got := out.String(); !strings.Contains(got, "size:     16x4") || !strings.Contains(got, "peak:     8") {
		t.Fatalf("unexpected output:\n%s", got)
	}

	err := describe(&out, bytes.NewReader(data[:len(data)-10]))
	if err == nil || !strings.Contains(err.Error(), "1 of 4 rows missing") {
		t.Fatalf("truncated err = %v", err)
	}
}
