package rgbe

import (
	"bufio"
	"fmt"
	"io"
)

const minRun = 4

// Encode writes pix (RGB triplets, row 0 at the top) as a Radiance image.
// Scanlines are run-length encoded when the width allows it.
func Encode(w io.Writer, width, height int, pix []float32) error {
	if w == nil {
		return fmt.Errorf("rgbe encode: nil writer")
	}
	if width <= 0 || height <= 0 || tooLarge(width, height) {
		return fmt.Errorf("rgbe encode: %w: %dx%d", errBadSize, width, height)
	}
	if len(pix) < width*height*3 {
		return fmt.Errorf("rgbe encode: %w", errShortBuffer)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "#?RADIANCE\nFORMAT=%s\n\n-Y %d +X %d\n", FormatRGBE, height, width)

	rle := width >= minRLEWidth && width <= MaxWidth
	planes := make([]byte, 4*width)
	for y := 0; y < height; y++ {
		row := pix[y*width*3 : (y+1)*width*3]
		if !rle {
			for x := 0; x < width; x++ {
				px := fromFloat(row[x*3], row[x*3+1], row[x*3+2])
				bw.Write(px[:])
			}
			continue
		}
		for x := 0; x < width; x++ {
			px := fromFloat(row[x*3], row[x*3+1], row[x*3+2])
			planes[x], planes[width+x], planes[2*width+x], planes[3*width+x] = px[0], px[1], px[2], px[3]
		}
		bw.Write([]byte{2, 2, byte(width >> 8), byte(width)})
		for ch := 0; ch < 4; ch++ {
			writeRLE(bw, planes[ch*width:(ch+1)*width])
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("rgbe encode: %w", err)
	}
	return nil
}

// writeRLE emits one channel plane as run and literal packets.
func writeRLE(bw *bufio.Writer, data []byte) {
	n := len(data)
	for cur := 0; cur < n; {
		beg, run := cur, 0
		for beg < n {
			run = 1
			for beg+run < n && run < 127 && data[beg+run] == data[beg] {
				run++
			}
			if run >= minRun {
				break
			}
			beg += run
		}
		if beg >= n {
			beg, run = n, 0
		}
		for cur < beg {
			k := min(beg-cur, 128)
			bw.WriteByte(byte(k))
			bw.Write(data[cur : cur+k])
			cur += k
		}
		if run >= minRun {
			bw.WriteByte(byte(128 + run))
			bw.WriteByte(data[beg])
			cur += run
		}
	}
}
