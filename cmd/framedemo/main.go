// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command framedemo runs the frame loop on a chosen backend and window.
//
//	framedemo -backend sim -frames 120 -dump last.bmp
//	framedemo -backend vulkan -window glfw -config demo.toml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	_ "github.com/gogpu/wgpu/hal/allbackends"
	"golang.org/x/image/bmp"

	"github.com/gogpu/framecore"
	"github.com/gogpu/framecore/backend"
	"github.com/gogpu/framecore/backend/sim"
	_ "github.com/gogpu/framecore/backend/wgpu"
	"github.com/gogpu/framecore/bootstrap"
	"github.com/gogpu/framecore/driver"
	"github.com/gogpu/framecore/frame"
	"github.com/gogpu/framecore/window"
	"github.com/gogpu/framecore/window/glfw"
)

// Exit codes.
const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

func init() {
	// GLFW must run on the main thread.
	runtime.LockOSThread()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	config   string
	backend  string
	window   string
	frames   uint64
	vsync    bool
	buffers  int
	timeout  time.Duration
	logLevel string
	dump     string
	debug    bool
}

func parseFlags(args []string, stderr io.Writer) (options, *flag.FlagSet, error) {
	var o options
	fs := flag.NewFlagSet("framedemo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.config, "config", "", "TOML or YAML config file")
	fs.StringVar(&o.backend, "backend", backend.BackendSim, "backend name, or \"auto\" for the best available")
	fs.StringVar(&o.window, "window", "headless", "window kind: headless or glfw")
	fs.Uint64Var(&o.frames, "frames", 0, "stop after this many frames (0 runs until closed)")
	fs.BoolVar(&o.vsync, "vsync", true, "wait for vertical refresh on present")
	fs.IntVar(&o.buffers, "buffers", framecore.DefaultBufferCount, "number of back buffers")
	fs.DurationVar(&o.timeout, "timeout", 0, "fence wait timeout (0 waits forever)")
	fs.StringVar(&o.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	fs.StringVar(&o.dump, "dump", "", "write the last presented frame as BMP (sim backend only)")
	fs.BoolVar(&o.debug, "debug", false, "enable the GPU debug and validation layers")
	if err := fs.Parse(args); err != nil {
		return o, fs, err
	}
	if fs.NArg() > 0 {
		return o, fs, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if o.window != "headless" && o.window != "glfw" {
		return o, fs, fmt.Errorf("unknown window kind %q", o.window)
	}
	if o.dump != "" && o.backend != backend.BackendSim {
		return o, fs, errors.New("-dump requires -backend sim")
	}
	return o, fs, nil
}

// buildConfig loads the config file, if any, and applies the flags that were
// set explicitly on top of it.
func buildConfig(o options, fs *flag.FlagSet) (framecore.Config, error) {
	cfg := framecore.DefaultConfig()
	if o.config != "" {
		var err error
		if cfg, err = framecore.LoadConfig(o.config); err != nil {
			return cfg, err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "vsync":
			cfg.SyncInterval = 0
			if o.vsync {
				cfg.SyncInterval = 1
			}
		case "buffers":
			cfg.BufferCount = o.buffers
		case "timeout":
			cfg.WaitTimeout = o.timeout
		case "debug":
			cfg.Debug = o.debug
		}
	})
	if o.backend == backend.BackendNoop {
		cfg.AllowSoftwareAdapter = true
	}
	return cfg, cfg.Validate()
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(s))
	return l, err
}

func openBackend(name string, cfg framecore.Config) (driver.Instance, error) {
	opts := []backend.Option{
		backend.WithDebug(cfg.Debug),
		backend.WithSoftwareAdapters(cfg.AllowSoftwareAdapter),
	}
	if name == "auto" {
		return backend.Default(opts...)
	}
	return backend.Get(name, opts...)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	o, fs, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, "framedemo:", err)
		}
		return exitUsage
	}
	level, err := parseLevel(o.logLevel)
	if err != nil {
		fmt.Fprintln(stderr, "framedemo:", err)
		return exitUsage
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	framecore.SetLogger(log)
	defer framecore.SetLogger(nil)

	cfg, err := buildConfig(o, fs)
	if err != nil {
		log.Error("invalid configuration", "err", err)
		return exitUsage
	}

	inst, err := openBackend(o.backend, cfg)
	if err != nil {
		log.Error("backend unavailable", "backend", o.backend, "err", err)
		return exitFatal
	}

	var (
		gate     window.Gate
		bootOpts []bootstrap.Option
	)
	switch o.window {
	case "glfw":
		w, err := glfw.Open(cfg)
		if err != nil {
			inst.Destroy()
			log.Error("open window", "err", err)
			return exitFatal
		}
		defer w.Close()
		gate = w
		if w.Handle() == 0 {
			log.Warn("window has no native surface handle, presenting offscreen")
		}
		bootOpts = append(bootOpts, bootstrap.WithWindow(w.Handle()), bootstrap.WithDisplay(w.Display()))
	default:
		gate = window.NewHeadless(0)
	}

	c, err := bootstrap.New(inst, cfg, bootOpts...)
	if err != nil {
		inst.Destroy()
		log.Error("bootstrap", "err", err)
		return exitFatal
	}

	loop, err := frame.New(c, cfg, frame.WithMaxFrames(o.frames))
	if err != nil {
		c.Close()
		log.Error("frame loop", "err", err)
		return exitFatal
	}
	// The device may still set the loop's fence event until it is destroyed.
	defer func() {
		c.Close()
		if err := loop.Close(); err != nil {
			log.Warn("close frame loop", "err", err)
		}
	}()

	runErr := loop.Run(ctx, gate)
	st := loop.Stats()
	log.Info("done", "frames", st.Frames, "presents", st.Presents, "os_waits", st.Fence.OSWaits, "wait", st.WaitTime)
	if runErr != nil {
		log.Error("frame loop halted", "err", runErr, "kind", framecore.KindOf(runErr))
		return exitFatal
	}

	if o.dump != "" {
		if err := dump(c, o.dump); err != nil {
			log.Error("dump", "err", err)
			return exitFatal
		}
		log.Info("frame written", "path", o.dump)
	}
	return exitOK
}

// dump writes the front image of a sim swap chain to path.
func dump(c *bootstrap.Context, path string) error {
	sc, ok := c.SwapChain.(*sim.SwapChain)
	if !ok {
		return fmt.Errorf("swap chain %T cannot be read back", c.SwapChain)
	}
	if q, ok := c.Queue.(*sim.Queue); ok {
		if err := q.Flush(); err != nil {
			return err
		}
	}
	front := sc.Front()
	if front < 0 {
		return errors.New("nothing presented")
	}
	f, err := os.Create(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return err
	}
	if err := bmp.Encode(f, sc.Image(front).Snapshot()); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
