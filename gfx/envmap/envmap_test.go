package envmap

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumen/gfx/quarkgl"
	"lumen/gfx/rgbe"
)

func hdrBytes(t *testing.T, w, h int, v float32) []byte {
	t.Helper()
	pix := make([]float32, w*h*3)
	for i := range pix {
		pix[i] = v
	}
	var buf bytes.Buffer
	require.NoError(t, rgbe.Encode(&buf, w, h, pix))
	return buf.Bytes()
}

func blockingOpen(ctx context.Context, _ string) (io.ReadCloser, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func waitCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sky.hdr")
	require.NoError(t, os.WriteFile(path, hdrBytes(t, 16, 8, 1), 0o644))

	p := Load(context.Background(), path, Options{})
	tex, err := p.Wait(waitCtx(t))
	require.NoError(t, err)
	require.NotNil(t, tex)
	assert.Equal(t, 16, tex.Width)
	assert.Equal(t, 8, tex.Height)
	assert.Equal(t, quarkgl.EquirectangularReflectionMapping, tex.Mapping)

	got, st, err := p.Poll()
	assert.Same(t, tex, got)
	assert.Equal(t, StateReady, st)
	assert.NoError(t, err)
	assert.Equal(t, path, p.Source())
}

func TestLoadFromHTTP(t *testing.T) {
	data := hdrBytes(t, 8, 4, 0.5)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sky.hdr" {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()

	tex, err := Load(context.Background(), srv.URL+"/sky.hdr", Options{Client: srv.Client()}).Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 8, tex.Width)

	p := Load(context.Background(), srv.URL+"/missing.hdr", Options{Client: srv.Client()})
	_, err = p.Wait(waitCtx(t))
	assert.ErrorIs(t, err, errHTTPStatus)
	_, st, _ := p.Poll()
	assert.Equal(t, StateFailed, st)
}

func TestLoadMissingFileFails(t *testing.T) {
	p := Load(context.Background(), filepath.Join(t.TempDir(), "nope.hdr"), Options{})
	tex, err := p.Wait(waitCtx(t))
	assert.Nil(t, tex)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, st, _ := p.Poll()
	assert.Equal(t, StateFailed, st)
}

func TestLoadCorruptDataFails(t *testing.T) {
	open := func(context.Context, string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("not an hdr\n")), nil
	}
	_, err := Load(context.Background(), "mem", Options{Open: open}).Wait(waitCtx(t))
	assert.Error(t, err)
}

func TestLoadTimeout(t *testing.T) {
	p := Load(context.Background(), "slow", Options{Timeout: 20 * time.Millisecond, Open: blockingOpen})
	_, st, _ := p.Poll()
	assert.Equal(t, StateLoading, st)

	_, err := p.Wait(waitCtx(t))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	_, st, _ = p.Poll()
	assert.Equal(t, StateFailed, st)
}

func TestCancel(t *testing.T) {
	p := Load(context.Background(), "slow", Options{Timeout: -1, Open: blockingOpen})
	p.Cancel()

	tex, st, err := p.Poll()
	assert.Nil(t, tex)
	assert.Equal(t, StateCanceled, st)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = p.Wait(waitCtx(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Load(ctx, "slow", Options{Open: blockingOpen})
	cancel()
	_, err := p.Wait(waitCtx(t))
	assert.ErrorIs(t, err, context.Canceled)
	_, st, _ := p.Poll()
	assert.Equal(t, StateCanceled, st)
}

func TestEmptySourceIsNone(t *testing.T) {
	p := Load(context.Background(), "", Options{})
	tex, st, err := p.Poll()
	assert.Nil(t, tex)
	assert.Equal(t, StateNone, st)
	assert.NoError(t, err)

	select {
	case <-p.Done():
	default:
		t.Fatal("Done not closed for empty source")
	}
	p.Cancel()

	var nilP *Pending
	_, st, _ = nilP.Poll()
	assert.Equal(t, StateNone, st)
}

func TestMaxWidthDownsamples(t *testing.T) {
	data := hdrBytes(t, 16, 8, 2)
	open := func(context.Context, string) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	tex, err := Load(context.Background(), "mem", Options{Open: open, MaxWidth: 4}).Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 4, tex.Width)
	assert.Equal(t, 2, tex.Height)
	c := tex.At(1, 1)
	assert.InDelta(t, 2, c.R, 0.05)
	assert.InDelta(t, 2, c.B, 0.05)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "state(9)", State(9).String())
}

func TestLoadRejectsOversizedHeader(t *testing.T) {
	hdr := "#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y 8 +X 2305843009213693952\n"
	p := Load(context.Background(), "huge.hdr", Options{
		Open: func(context.Context, string) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(hdr)), nil
		},
	})
	_, err := p.Wait(waitCtx(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
	_, st, _ := p.Poll()
	assert.Equal(t, StateFailed, st)
}

func TestLoadPanicSettlesFailed(t *testing.T) {
	p := Load(context.Background(), "boom.hdr", Options{
		Open: func(context.Context, string) (io.ReadCloser, error) {
			panic("opener exploded")
		},
	})
	_, err := p.Wait(waitCtx(t))
	require.ErrorIs(t, err, errLoadPanic)
	assert.Contains(t, err.Error(), "opener exploded")
	tex, st, _ := p.Poll()
	assert.Nil(t, tex)
	assert.Equal(t, StateFailed, st)
}
