package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"lumen/app"
	"lumen/hal"
	"lumen/internal/buildinfo"
	"lumen/internal/config"
)

func main() {
	var (
		cfgPath    string
		hdr        string
		dumpConfig bool
		version    bool
		fl         config.Headless
		hud        bool
		logLevel   string
	)
	flag.StringVar(&cfgPath, "config", "", "TOML settings file.")
	flag.StringVar(&hdr, "hdr", "", "Environment panorama (path or http(s) URL; empty keeps the configured one).")
	flag.BoolVar(&fl.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&fl.Hz, "hz", 0, "Tick rate in headless mode.")
	flag.Uint64Var(&fl.Frames, "frames", 0, "Stop after N frames in headless mode (0 = run until interrupted).")
	flag.StringVar(&fl.Snapshot, "snapshot", "", "Write the last headless frame to this PNG.")
	flag.BoolVar(&hud, "hud", false, "Draw the status overlay.")
	flag.StringVar(&logLevel, "log", "", "Log level (debug, info, warn, error).")
	flag.BoolVar(&dumpConfig, "dump-config", false, "Print the effective settings as TOML and exit.")
	flag.BoolVar(&version, "version", false, "Print the build version and exit.")
	flag.Parse()

	if version {
		fmt.Println("lumen", buildinfo.String())
		return
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "hdr":
			cfg.Environment.Source = hdr
		case "headless":
			cfg.Headless.Enabled = fl.Enabled
		case "hz":
			cfg.Headless.Hz = fl.Hz
		case "frames":
			cfg.Headless.Frames = fl.Frames
		case "snapshot":
			cfg.Headless.Snapshot = fl.Snapshot
		case "hud":
			cfg.HUD = hud
		case "log":
			cfg.LogLevel = logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		fatalf("%v", err)
	}

	if dumpConfig {
		if err := config.Encode(os.Stdout, cfg); err != nil {
			fatalf("%v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	var closeApp func()
	newApp := func(h hal.HAL) (func() error, error) {
		step, closer, err := app.New(ctx, h, cfg)
		closeApp = closer
		return step, err
	}

	if cfg.Headless.Enabled {
		err = hal.RunHeadless(ctx, newApp, hal.HeadlessConfig{
			Width:    cfg.Headless.Width,
			Height:   cfg.Headless.Height,
			Scale:    cfg.Headless.Scale,
			Hz:       cfg.Headless.Hz,
			Frames:   cfg.Headless.Frames,
			Snapshot: cfg.Headless.Snapshot,
			Unpaced:  cfg.Headless.Unpaced,
		})
	} else {
		err = hal.RunWindow(hal.WindowConfig{
			Title:  cfg.Window.Title,
			Width:  cfg.Window.Width,
			Height: cfg.Window.Height,
			TPS:    cfg.Window.TPS,
		}, newApp)
	}
	if closeApp != nil {
		closeApp()
	}
	stop()
	if errors.Is(err, context.Canceled) {
		return
	}
	if err != nil {
		var ie *app.InitError
		if errors.As(err, &ie) {
			fatalf("lumen: %v", ie)
		}
		fatalf("%v", err)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
