// Package viewer implements the interactive polygon viewer loop.
package viewer

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/vmora/cesium/internal/config"
	"github.com/vmora/cesium/internal/engine/camera"
	"github.com/vmora/cesium/internal/engine/debug"
	"github.com/vmora/cesium/internal/engine/globe"
	"github.com/vmora/cesium/internal/engine/groundpolygon"
	"github.com/vmora/cesium/internal/engine/input"
	"github.com/vmora/cesium/internal/engine/render"
	"github.com/vmora/cesium/internal/engine/renderer"
	"github.com/vmora/cesium/internal/engine/window"
	"github.com/vmora/cesium/internal/logger"
	"github.com/vmora/cesium/pkg/ellipsoid"
)

// Viewer is the main viewer instance.
type Viewer struct {
	cfg     *config.Config
	running bool
	log     *zap.Logger

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	capture  *debug.ScreenshotCapture

	ellipsoid *ellipsoid.Ellipsoid
	camera    *camera.GlobeCamera
	globe     *globe.Globe
	layers    []Layer

	strategy   groundpolygon.Strategy
	insideMode InsideMode
	commands   []render.DrawCommand

	captureNext bool
}

// New creates a new viewer instance.
func New(cfg *config.Config) (*Viewer, error) {
	v := &Viewer{
		cfg: cfg,
		log: logger.Named("viewer"),
	}
	v.log.Info("initializing viewer",
		zap.String("title", cfg.Window.Title),
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
		zap.Int("polygons", len(cfg.Polygons)),
	)

	var err error
	if v.ellipsoid, err = cfg.Volume.Surface(); err != nil {
		return nil, err
	}
	if v.strategy, err = groundpolygon.ParseStrategy(cfg.Render.Strategy); err != nil {
		return nil, err
	}
	if v.layers, err = BuildLayers(cfg, v.ellipsoid); err != nil {
		return nil, err
	}

	// Create window (this also creates OpenGL context)
	v.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create renderer (AFTER window, since OpenGL context must exist)
	width, height := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{
		Width:      width,
		Height:     height,
		ClearColor: [4]float32{0.02, 0.02, 0.05, 1},
	})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.input = input.New()
	v.capture = debug.NewScreenshotCapture(cfg.Window.ScreenshotDir, "polyview")

	v.camera = camera.NewGlobeCamera(v.ellipsoid, cfg.Camera.StartHeight)
	if cfg.Camera.FitPolygons {
		v.camera.FitToPoints(footprint(v.layers))
	}

	gopts := globe.DefaultOptions()
	if cfg.Render.GlobeSlices > 0 {
		gopts.Slices = cfg.Render.GlobeSlices
	}
	if cfg.Render.GlobeStacks > 0 {
		gopts.Stacks = cfg.Render.GlobeStacks
	}
	v.globe = globe.New(v.ellipsoid, gopts)

	v.updateTitle()
	v.log.Info("viewer initialized successfully")
	return v, nil
}

// Run starts the main loop.
func (v *Viewer) Run() error {
	v.running = true

	// Timing
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting viewer loop")

	for v.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		// 1. Process input
		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()

		// 2. Render
		if err := v.render(); err != nil {
			return fmt.Errorf("render error: %w", err)
		}

		// 3. Present (swap buffers)
		v.window.SwapBuffers()

		// FPS counter
		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			stats := v.renderer.Stats()
			v.log.Debug("fps",
				zap.Int("count", frameCount),
				zap.String("dt", fmt.Sprintf("%.2fms", dt*1000)),
				zap.Int("commands", stats.Commands),
				zap.Int("skipped", stats.Skipped),
			)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) handleEvents() {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			// Event sizes are in window points.
			v.renderer.Resize(v.window.DrawableSize())
		case input.EventKeyDown:
			switch event.Key {
			case sdl.SCANCODE_ESCAPE:
				v.running = false
			case sdl.SCANCODE_I:
				v.insideMode = v.insideMode.Next()
				v.log.Info("camera containment", zap.Stringer("mode", v.insideMode))
				v.updateTitle()
			case sdl.SCANCODE_S:
				v.cycleStrategy()
			case sdl.SCANCODE_F12:
				v.captureNext = true
			case sdl.SCANCODE_F:
				v.camera.FitToPoints(footprint(v.layers))
			case sdl.SCANCODE_UP:
				v.camera.HandleTilt(0.05)
			case sdl.SCANCODE_DOWN:
				v.camera.HandleTilt(-0.05)
			}
		}
	}

	if dx, dy := v.input.DragDelta(); dx != 0 || dy != 0 {
		v.camera.HandleDrag(float64(dx), float64(dy))
	}
	if w := v.input.WheelDelta(); w != 0 {
		v.camera.HandleZoom(float64(w))
	}
}

func (v *Viewer) cycleStrategy() {
	v.strategy = v.strategy.Next()
	for _, l := range v.layers {
		l.Polygon.SetStrategy(v.strategy)
	}
	v.log.Info("strategy changed", zap.Stringer("strategy", v.strategy))
	v.updateTitle()
}

func (v *Viewer) updateTitle() {
	if v.window == nil {
		return
	}
	v.window.SetTitle(fmt.Sprintf("%s [%s, camera %s]", v.cfg.Window.Title, v.strategy, v.insideMode))
}

// render draws the current frame.
func (v *Viewer) render() error {
	eye := v.camera.Position()
	v.commands = v.commands[:0]

	frame := render.FrameState{Passes: render.Passes{Render: true}}
	if err := v.globe.Update(v.renderer, &frame, &v.commands); err != nil {
		return fmt.Errorf("globe: %w", err)
	}

	kept := v.layers[:0]
	for _, l := range v.layers {
		frame.CameraInsideVolume = v.insideMode.resolve(cameraInside(l.Polygon, eye, v.ellipsoid))
		if err := l.Polygon.Update(v.renderer, &frame, &v.commands); err != nil {
			v.log.Error("dropping polygon", zap.String("name", l.Name), zap.Error(err))
			l.Polygon.Destroy()
			continue
		}
		kept = append(kept, l)
	}
	v.layers = kept

	light := eye.Normalize()
	v.renderer.Begin()
	v.renderer.Execute(v.commands, renderer.View{
		Projection: v.camera.ProjectionMatrix(v.renderer.AspectRatio()),
		View:       v.camera.ViewMatrix(),
		Eye:        eye,
		LightDir:   mgl32.Vec3{float32(light[0]), float32(light[1]), float32(light[2])},
	})
	v.renderer.End()

	if v.captureNext {
		v.captureNext = false
		pixels, w, h := v.renderer.ReadPixels()
		if path, err := v.capture.CaptureFromPixels(pixels, w, h); err != nil {
			v.log.Warn("screenshot failed", zap.Error(err))
		} else {
			v.log.Info("screenshot saved", zap.String("path", path))
		}
	}

	return nil
}

// Close cleans up viewer resources.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	for _, l := range v.layers {
		l.Polygon.Destroy()
	}
	if v.globe != nil {
		v.globe.Destroy()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
