// Package renderer provides OpenGL rendering functionality.
package renderer

import (
	"fmt"
	"sort"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/vmora/cesium/internal/engine/render"
	"github.com/vmora/cesium/internal/engine/shader"
	"github.com/vmora/cesium/internal/engine/shadowvolume"
	"github.com/vmora/cesium/internal/logger"
)

// Config holds renderer configuration.
type Config struct {
	Width      int
	Height     int
	ClearColor [4]float32
}

// View is the camera a frame is drawn with. Positions are rendered relative
// to Eye so that float32 keeps precision at globe scale.
type View struct {
	Projection mgl64.Mat4
	View       mgl64.Mat4
	Eye        mgl64.Vec3
	LightDir   mgl32.Vec3
}

// Stats counts the work of the last Execute.
type Stats struct {
	Commands int
	Skipped  int
}

// Renderer implements render.Context over OpenGL and executes draw commands.
type Renderer struct {
	config Config

	current *render.RenderStateConfig
	stats   Stats
	log     *zap.Logger
}

var _ render.Context = (*Renderer)(nil)

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
		log:    logger.Named("renderer"),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	var stencilBits int32
	gl.GetFramebufferAttachmentParameteriv(gl.DRAW_FRAMEBUFFER, gl.STENCIL,
		gl.FRAMEBUFFER_ATTACHMENT_STENCIL_SIZE, &stencilBits)
	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.Int32("stencilBits", stencilBits),
	)
	if stencilBits == 0 {
		logger.Warn("default framebuffer has no stencil buffer; stencil strategy will not clip")
	}

	c := cfg.ClearColor
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.ClearStencil(0)
	gl.ClearDepth(1)
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	r.current = nil
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// AspectRatio returns width over height.
func (r *Renderer) AspectRatio() float64 {
	if r.config.Height == 0 {
		return 1
	}
	return float64(r.config.Width) / float64(r.config.Height)
}

// Begin starts a new frame, clearing color, depth and stencil.
func (r *Renderer) Begin() {
	// Clears honor the write masks.
	gl.DepthMask(true)
	gl.StencilMask(^uint32(0))
	gl.ColorMask(true, true, true, true)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT | gl.STENCIL_BUFFER_BIT)
	r.current = nil
	r.stats = Stats{}
}

// End finishes the current frame.
func (r *Renderer) End() {
	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

// ReadPixels reads the back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() (pixels []byte, width, height int) {
	width, height = r.config.Width, r.config.Height
	pixels = make([]byte, width*height*4)
	if len(pixels) == 0 {
		return pixels, width, height
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, width, height
}

// Stats returns the counters of the current frame.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// Execute draws commands ordered by pass. Commands within a pass keep their
// order, which the stencil passes depend on.
func (r *Renderer) Execute(commands []render.DrawCommand, view View) {
	sorted := make([]render.DrawCommand, len(commands))
	copy(sorted, commands)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Pass < sorted[j].Pass })

	viewRTE := view.View
	viewRTE.SetCol(3, mgl64.Vec4{0, 0, 0, 1})
	viewProjection := view.Projection.Mul4(viewRTE)
	eyeHigh, eyeLow := shadowvolume.EncodeVec3(view.Eye)

	for i := range sorted {
		cmd := &sorted[i]

		program, ok := cmd.ShaderProgram.(*shader.Program)
		if !ok || program.ID == 0 {
			r.stats.Skipped++
			continue
		}
		va, ok := cmd.VertexArray.(*vertexArray)
		if !ok || va.id == 0 {
			r.stats.Skipped++
			continue
		}

		if cmd.RenderState != nil {
			r.applyState(cmd.RenderState.Config())
		} else {
			r.applyState(render.DefaultRenderState())
		}

		program.Use()
		mvp := toMat32(viewProjection.Mul4(cmd.Transform))
		gl.UniformMatrix4fv(program.Uniform("uModelViewProjectionRTE"), 1, false, &mvp[0])
		gl.Uniform3f(program.Uniform("uEyeHigh"), eyeHigh[0], eyeHigh[1], eyeHigh[2])
		gl.Uniform3f(program.Uniform("uEyeLow"), eyeLow[0], eyeLow[1], eyeLow[2])
		gl.Uniform3f(program.Uniform("uLightDir"), view.LightDir[0], view.LightDir[1], view.LightDir[2])
		if u := cmd.Uniforms; u != nil {
			gl.Uniform1f(program.Uniform("uAltitudeThreshold"), u.AltitudeThreshold)
			gl.Uniform1f(program.Uniform("uRampCoefficient"), u.RampCoefficient)
			gl.Uniform4f(program.Uniform("uColor"), u.Color[0], u.Color[1], u.Color[2], u.Color[3])
		}

		gl.BindVertexArray(va.id)
		ib := va.indices
		gl.DrawElements(
			primitiveMode(cmd.Primitive),
			int32(cmd.Count),
			indexType(ib.width),
			gl.PtrOffset(cmd.Offset*int(ib.width)),
		)
		r.stats.Commands++
	}
}

func toMat32(m mgl64.Mat4) mgl32.Mat4 {
	var out mgl32.Mat4
	for i := range m {
		out[i] = float32(m[i])
	}
	return out
}
