package hal

import (
	"context"
	"fmt"
	"image/png"
	"io"
	"os"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Width  int // logical pixels
	Height int
	Scale  float64
	Hz     int
	Frames uint64 // 0 runs until ctx is done
	// Snapshot, if set, receives a PNG of the last frame.
	Snapshot string
	// Unpaced runs frames back to back instead of on a Hz ticker. The frame
	// clock still advances by 1000/Hz ms per frame.
	Unpaced bool
	Log     io.Writer
}

// RunHeadless runs the app without opening a window.
func RunHeadless(ctx context.Context, newApp func(HAL) (func() error, error), cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 320, 180
	}

	h := newHost(cfg.Log, cfg.Width, cfg.Height, cfg.Scale, newSimTime())
	step, err := newApp(h)
	if err != nil {
		return err
	}

	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}
	frameMs := 1000 / float64(cfg.Hz)

	var tick <-chan time.Time
	if !cfg.Unpaced {
		t := time.NewTicker(d)
		defer t.Stop()
		tick = t.C
	}

	var frames uint64
	err = func() error {
		for {
			if tick != nil {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-tick:
				}
			} else if err := ctx.Err(); err != nil {
				return err
			}

			if step != nil {
				if err := step(); err != nil {
					return err
				}
			}
			frames++
			h.t.advance(frameMs)
			if cfg.Frames > 0 && frames >= cfg.Frames {
				return nil
			}
		}
	}()

	if cfg.Snapshot != "" && frames > 0 {
		if serr := writeSnapshot(cfg.Snapshot, h.disp.fb); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}

func writeSnapshot(path string, fb *hostFramebuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := png.Encode(f, fb.Image()); err != nil {
		f.Close()
		return fmt.Errorf("snapshot: %w", err)
	}
	return f.Close()
}
