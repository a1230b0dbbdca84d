package rgbe

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const maxHeaderBytes = 64 << 10

// Decoder reads a Radiance image one scanline at a time.
type Decoder struct {
	r *bufio.Reader

	Header Header

	row  int
	raw  []byte // 4 planes of Width bytes for RLE scanlines
	prev [4]byte
}

// NewDecoder reads the header and resolution line.
func NewDecoder(r io.Reader) (*Decoder, error) {
	if r == nil {
		return nil, fmt.Errorf("rgbe decoder: nil reader")
	}
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 64<<10)
	}
	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	d := &Decoder{r: br, Header: h}
	if h.Width >= minRLEWidth && h.Width <= MaxWidth {
		d.raw = make([]byte, 4*h.Width)
	}
	return d, nil
}

func readHeader(br *bufio.Reader) (Header, error) {
	h := Header{Exposure: 1}
	total := 0
	readLine := func() (string, error) {
		line, err := br.ReadString('\n')
		total += len(line)
		if total > maxHeaderBytes {
			return "", errHeaderTooBig
		}
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return "", fmt.Errorf("rgbe: read header: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	first, err := readLine()
	if err != nil {
		return h, err
	}
	if !strings.HasPrefix(first, "#?") {
		return h, errBadMagic
	}
	h.Program = strings.TrimSpace(first[2:])

	for {
		line, err := readLine()
		if err != nil {
			return h, err
		}
		if line == "" {
			break
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok || strings.HasPrefix(line, "#") {
			continue
		}
		switch strings.TrimSpace(key) {
		case "FORMAT":
			h.Format = strings.TrimSpace(val)
		case "EXPOSURE":
			if v, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil && v > 0 {
				h.Exposure *= v
			}
		case "GAMMA":
			if v, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
				h.Gamma = v
			}
		}
	}
	if h.Format != "" && h.Format != FormatRGBE {
		return h, fmt.Errorf("%w: %s", errBadFormat, h.Format)
	}
	h.Format = FormatRGBE

	res, err := readLine()
	if err != nil {
		return h, err
	}
	f := strings.Fields(res)
	if len(f) != 4 {
		return h, fmt.Errorf("%w: %q", errBadSize, res)
	}
	if f[0] != "-Y" || f[2] != "+X" {
		return h, fmt.Errorf("%w: %q", errOrientation, res)
	}
	if h.Height, err = strconv.Atoi(f[1]); err != nil || h.Height <= 0 {
		return h, fmt.Errorf("%w: %q", errBadSize, res)
	}
	if h.Width, err = strconv.Atoi(f[3]); err != nil || h.Width <= 0 {
		return h, fmt.Errorf("%w: %q", errBadSize, res)
	}
	if tooLarge(h.Width, h.Height) {
		return h, errTooLarge
	}
	return h, nil
}

// Remaining returns the number of scanlines not yet read.
func (d *Decoder) Remaining() int { return d.Header.Height - d.row }

// ReadScanline decodes the next row into dst as RGB float triplets. dst must
// hold at least 3*Width values. It returns io.EOF after the last row.
func (d *Decoder) ReadScanline(dst []float32) error {
	if d == nil {
		return fmt.Errorf("rgbe decoder: nil")
	}
	w := d.Header.Width
	if len(dst) < 3*w {
		return errShortBuffer
	}
	if d.row >= d.Header.Height {
		return io.EOF
	}

	var first [4]byte
	if _, err := io.ReadFull(d.r, first[:]); err != nil {
		return d.scanErr(err)
	}

	var err error
	if w < minRLEWidth || w > MaxWidth || first[0] != 2 || first[1] != 2 || first[2]&0x80 != 0 {
		err = d.readFlat(dst, first)
	} else if int(first[2])<<8|int(first[3]) != w {
		err = fmt.Errorf("%w: row %d width mismatch", errBadScanline, d.row)
	} else {
		err = d.readRLE(dst)
	}
	if err != nil {
		return err
	}
	d.row++
	return nil
}

func (d *Decoder) scanErr(err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("rgbe: row %d: %w", d.row, err)
}

// readFlat reads uncompressed pixels, expanding old-style (1,1,1,n) runs.
func (d *Decoder) readFlat(dst []float32, px [4]byte) error {
	w := d.Header.Width
	shift := uint(0)
	for x := 0; x < w; {
		if x > 0 || shift > 0 {
			if _, err := io.ReadFull(d.r, px[:]); err != nil {
				return d.scanErr(err)
			}
		}
		if px[0] == 1 && px[1] == 1 && px[2] == 1 {
			if x == 0 || shift > 16 {
				return fmt.Errorf("%w: row %d stray run", errBadScanline, d.row)
			}
			n := int(px[3]) << shift
			if x+n > w {
				return fmt.Errorf("%w: row %d run overflow", errBadScanline, d.row)
			}
			r, g, b := toFloat(d.prev[0], d.prev[1], d.prev[2], d.prev[3])
			for i := 0; i < n; i++ {
				dst[(x+i)*3], dst[(x+i)*3+1], dst[(x+i)*3+2] = r, g, b
			}
			x += n
			shift += 8
			continue
		}
		dst[x*3], dst[x*3+1], dst[x*3+2] = toFloat(px[0], px[1], px[2], px[3])
		d.prev = px
		shift = 0
		x++
	}
	return nil
}

// readRLE reads four run-length encoded channel planes.
func (d *Decoder) readRLE(dst []float32) error {
	w := d.Header.Width
	for ch := 0; ch < 4; ch++ {
		plane := d.raw[ch*w : (ch+1)*w]
		for x := 0; x < w; {
			c, err := d.r.ReadByte()
			if err != nil {
				return d.scanErr(err)
			}
			if c > 128 {
				n := int(c) - 128
				if x+n > w {
					return fmt.Errorf("%w: row %d run overflow", errBadScanline, d.row)
				}
				v, err := d.r.ReadByte()
				if err != nil {
					return d.scanErr(err)
				}
				for i := 0; i < n; i++ {
					plane[x+i] = v
				}
				x += n
				continue
			}
			n := int(c)
			if n == 0 || x+n > w {
				return fmt.Errorf("%w: row %d literal overflow", errBadScanline, d.row)
			}
			if _, err := io.ReadFull(d.r, plane[x:x+n]); err != nil {
				return d.scanErr(err)
			}
			x += n
		}
	}
	for x := 0; x < w; x++ {
		dst[x*3], dst[x*3+1], dst[x*3+2] = toFloat(d.raw[x], d.raw[w+x], d.raw[2*w+x], d.raw[3*w+x])
	}
	d.prev = [4]byte{d.raw[w-1], d.raw[2*w-1], d.raw[3*w-1], d.raw[4*w-1]}
	return nil
}

// Image is a fully decoded Radiance image.
type Image struct {
	Header Header
	Pix    []float32 // RGB triplets, row 0 at the top
}

// Decode reads a whole image.
func Decode(r io.Reader) (*Image, error) {
	d, err := NewDecoder(r)
	if err != nil {
		return nil, err
	}
	w, h := d.Header.Width, d.Header.Height
	img := &Image{Header: d.Header, Pix: make([]float32, w*h*3)}
	for y := 0; y < h; y++ {
		if err := d.ReadScanline(img.Pix[y*w*3 : (y+1)*w*3]); err != nil {
			return nil, err
		}
	}
	return img, nil
}
