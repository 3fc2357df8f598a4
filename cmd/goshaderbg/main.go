package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/richinsley/goshaderbg/glcontext"
	"github.com/richinsley/goshaderbg/gldevice"
	"github.com/richinsley/goshaderbg/inputs"
	"github.com/richinsley/goshaderbg/renderer"
)

func init() {
	runtime.LockOSThread()
}

func run(presetPath, mediaDir string, width, height int, watch bool) error {
	if err := glcontext.InitGraphics(); err != nil {
		return fmt.Errorf("initialize graphics: %w", err)
	}
	defer glcontext.TerminateGraphics()

	input := &inputs.State{}
	ctx, err := glcontext.New(width, height, input)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer ctx.Shutdown()
	ctx.MakeCurrent()

	dev, err := gldevice.New()
	if err != nil {
		return fmt.Errorf("create device: %w", err)
	}
	defer dev.Destroy()

	engine := renderer.New(dev, &inputs.FileAssets{Root: mediaDir}, input)
	defer engine.Close()

	if err := engine.SetMonitors(glcontext.Monitors()); err != nil {
		return err
	}
	if err := engine.Load(presetPath); err != nil {
		return err
	}

	if watch {
		watchCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := engine.Watch(watchCtx, presetPath); err != nil {
			log.Printf("preset watching disabled: %v", err)
		}
	}

	log.Println("Starting render loop...")
	last := ctx.Time()
	lastOverlay := ""
	for !ctx.ShouldClose() {
		now := ctx.Time()
		wall := time.Duration((now - last) * float64(time.Second))
		last = now

		ctx.PumpInput()
		w, h := ctx.GetFramebufferSize()
		dev.SetSurfaceSize(w, h)

		if _, err := engine.Tick(wall); err != nil {
			return fmt.Errorf("render: %w", err)
		}
		if msg := engine.OverlayText(); msg != lastOverlay {
			if msg != "" {
				log.Printf("overlay: %s", msg)
			}
			lastOverlay = msg
		}
		ctx.EndFrame()
	}
	return nil
}

func main() {
	var presetPath = flag.String("preset", "", "Path to the preset TOML file (required)")
	var mediaDir = flag.String("media", ".", "Directory texture/cubemap/volume asset names resolve against")
	var width = flag.Int("width", 0, "Window width (0 spans all monitors)")
	var height = flag.Int("height", 0, "Window height (0 spans all monitors)")
	var watch = flag.Bool("watch", true, "Reload the preset when the file changes")
	var help = flag.Bool("help", false, "Show help message")

	flag.Parse()

	if *help || *presetPath == "" {
		fmt.Println("ShaderToy-style live wallpaper renderer")
		flag.PrintDefaults()
		if *presetPath == "" && !*help {
			log.Fatal("-preset is required")
		}
		return
	}

	if err := run(*presetPath, *mediaDir, *width, *height, *watch); err != nil {
		log.Fatalf("goshaderbg: %v", err)
	}
}
