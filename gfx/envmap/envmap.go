// Package envmap loads equirectangular HDR environment maps in the background.
//
// Load returns immediately with a Pending handle; the frame loop polls it and
// installs the texture once it is Ready. A failed or canceled load never
// blocks rendering.
package envmap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"lumen/gfx/quarkgl"
	"lumen/gfx/rgbe"
)

// State is the lifecycle of a load.
type State uint8

const (
	StateNone State = iota
	StateLoading
	StateReady
	StateFailed
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// DefaultTimeout bounds a load when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

var (
	errHTTPStatus = errors.New("envmap: unexpected http status")
	errLoadPanic  = errors.New("envmap: loader panicked")
)

// Options configures Load.
type Options struct {
	// Timeout bounds the whole load; negative disables it.
	Timeout time.Duration
	// MaxWidth box-downsamples wider images while decoding; 0 keeps full size.
	MaxWidth int
	// Client is used for http(s) sources; nil means http.DefaultClient.
	Client *http.Client
	// Open replaces the default file/http opener.
	Open func(ctx context.Context, src string) (io.ReadCloser, error)
	// Logger receives debug records; nil discards them.
	Logger *slog.Logger
}

// Pending is a cancellable handle to an in-flight load.
type Pending struct {
	src    string
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	mu    sync.Mutex
	state State
	tex   *quarkgl.Texture
	err   error
}

// Load starts reading src (a file path, file:// or http(s) URL) on its own
// goroutine. An empty src yields a handle already in StateNone.
func Load(ctx context.Context, src string, opts Options) *Pending {
	p := &Pending{src: src, done: make(chan struct{})}
	if src == "" {
		p.state = StateNone
		close(p.done)
		return p
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Open == nil {
		opts.Open = opener(opts.Client)
	}

	p.state = StateLoading
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	go p.run(ctx, opts)
	return p
}

func (p *Pending) run(ctx context.Context, opts Options) {
	defer p.cancel()
	defer func() {
		if v := recover(); v != nil {
			p.settle(nil, StateFailed, fmt.Errorf("envmap: load %s: %w: %v", p.src, errLoadPanic, v))
		}
	}()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	tex, err := load(ctx, p.src, opts)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			p.settle(nil, StateCanceled, err)
			return
		}
		p.settle(nil, StateFailed, fmt.Errorf("envmap: load %s: %w", p.src, err))
		return
	}
	if opts.Logger != nil {
		opts.Logger.Debug("environment decoded", "src", p.src, "width", tex.Width, "height", tex.Height, "took", time.Since(start))
	}
	p.settle(tex, StateReady, nil)
}

// settle publishes the first terminal result; later calls are ignored.
func (p *Pending) settle(tex *quarkgl.Texture, st State, err error) {
	p.once.Do(func() {
		p.mu.Lock()
		p.tex, p.state, p.err = tex, st, err
		p.mu.Unlock()
		close(p.done)
	})
}

// Poll reports the current state without blocking.
func (p *Pending) Poll() (*quarkgl.Texture, State, error) {
	if p == nil {
		return nil, StateNone, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tex, p.state, p.err
}

// Done is closed once the load reaches a terminal state.
func (p *Pending) Done() <-chan struct{} {
	if p == nil {
		c := make(chan struct{})
		close(c)
		return c
	}
	return p.done
}

// Wait blocks until the load finishes or ctx ends.
func (p *Pending) Wait(ctx context.Context) (*quarkgl.Texture, error) {
	select {
	case <-p.Done():
		tex, _, err := p.Poll()
		return tex, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel aborts the load. It does not wait for the reader goroutine.
func (p *Pending) Cancel() {
	if p == nil || p.cancel == nil {
		return
	}
	p.cancel()
	p.settle(nil, StateCanceled, context.Canceled)
}

// Source returns the location passed to Load.
func (p *Pending) Source() string {
	if p == nil {
		return ""
	}
	return p.src
}

func opener(client *http.Client) func(ctx context.Context, src string) (io.ReadCloser, error) {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, src string) (io.ReadCloser, error) {
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
			if err != nil {
				return nil, err
			}
			resp, err := client.Do(req)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode != http.StatusOK {
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %s", errHTTPStatus, resp.Status)
			}
			return resp.Body, nil
		}
		return os.Open(strings.TrimPrefix(src, "file://"))
	}
}

func load(ctx context.Context, src string, opts Options) (*quarkgl.Texture, error) {
	rc, err := opts.Open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	dec, err := rgbe.NewDecoder(&ctxReader{ctx: ctx, r: rc})
	if err != nil {
		return nil, err
	}
	w, h, pix, err := decodeScaled(ctx, dec, opts.MaxWidth)
	if err != nil {
		return nil, err
	}
	tex, err := quarkgl.NewTexture(w, h, pix)
	if err != nil {
		return nil, err
	}
	tex.Mapping = quarkgl.EquirectangularReflectionMapping
	return tex, nil
}

// decodeScaled reads every scanline, averaging k×k blocks when the image is
// wider than maxWidth.
func decodeScaled(ctx context.Context, dec *rgbe.Decoder, maxWidth int) (int, int, []float32, error) {
	w, h := dec.Header.Width, dec.Header.Height
	k := 1
	if maxWidth > 0 && w > maxWidth {
		k = (w + maxWidth - 1) / maxWidth
	}
	ow, oh := (w+k-1)/k, (h+k-1)/k
	out := make([]float32, ow*oh*3)
	if k == 1 {
		for y := 0; y < h; y++ {
			if err := dec.ReadScanline(out[y*w*3 : (y+1)*w*3]); err != nil {
				return 0, 0, nil, err
			}
		}
		return w, h, out, nil
	}

	row := make([]float32, w*3)
	counts := make([]int, ow)
	for y := 0; y < h; y++ {
		if err := ctx.Err(); err != nil {
			return 0, 0, nil, err
		}
		if err := dec.ReadScanline(row); err != nil {
			return 0, 0, nil, err
		}
		oy := y / k
		acc := out[oy*ow*3 : (oy+1)*ow*3]
		for x := 0; x < w; x++ {
			ox := x / k
			acc[ox*3] += row[x*3]
			acc[ox*3+1] += row[x*3+1]
			acc[ox*3+2] += row[x*3+2]
			counts[ox]++
		}
		if (y+1)%k == 0 || y == h-1 {
			for ox, n := range counts {
				if n > 0 {
					inv := 1 / float32(n)
					acc[ox*3] *= inv
					acc[ox*3+1] *= inv
					acc[ox*3+2] *= inv
				}
				counts[ox] = 0
			}
		}
	}
	return ow, oh, out, nil
}

// ctxReader stops reads once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
