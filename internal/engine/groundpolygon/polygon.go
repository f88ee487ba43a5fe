// Package groundpolygon drapes polygons over the globe with stencil shadow
// volumes. A Polygon lazily builds its volume mesh and GPU resources on the
// first Update and then emits the draw commands of its strategy every frame.
package groundpolygon

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/vmora/cesium/internal/engine/render"
	"github.com/vmora/cesium/internal/engine/shaders"
	"github.com/vmora/cesium/internal/engine/shadowvolume"
	"github.com/vmora/cesium/internal/logger"
	"github.com/vmora/cesium/pkg/ellipsoid"
	"github.com/vmora/cesium/pkg/polygon"
)

// Uniform defaults, in meters.
const (
	DefaultAltitudeThreshold = -100.0
	DefaultRampCoefficient   = -2.0
)

// Relative tolerance for collapsing repeated boundary points.
const duplicateEpsilon = 1e-12

const positionStride = shadowvolume.PositionComponents * 4

var (
	ErrNoEllipsoid     = errors.New("groundpolygon: ellipsoid is required")
	ErrNoContext       = errors.New("groundpolygon: render context is required")
	ErrUnknownStrategy = errors.New("groundpolygon: unknown strategy")
	ErrDestroyed       = errors.New("groundpolygon: polygon destroyed")
)

// Options configure a Polygon.
type Options struct {
	Ellipsoid          *ellipsoid.Ellipsoid
	Granularity        float64 // radians
	MaxTerrainAltitude float64 // meters
	Strategy           Strategy

	// Color is the RGBA fill. Nil picks a random translucent color.
	Color *[4]float32

	AltitudeThreshold float32
	RampCoefficient   float32
}

// DefaultOptions returns options for a WGS84 globe using the stencil
// strategy.
func DefaultOptions() Options {
	return Options{
		Ellipsoid:          ellipsoid.WGS84,
		Granularity:        shadowvolume.DefaultGranularity,
		MaxTerrainAltitude: shadowvolume.DefaultMaxTerrainAltitude,
		Strategy:           StrategyStencil,
		AltitudeThreshold:  DefaultAltitudeThreshold,
		RampCoefficient:    DefaultRampCoefficient,
	}
}

// commandSet holds the prebuilt commands of the active strategy.
type commandSet struct {
	simple       []render.DrawCommand
	zFail        []render.DrawCommand
	zPass        []render.DrawCommand
	colorInside  []render.DrawCommand
	colorOutside []render.DrawCommand
}

// Polygon is a polygon on the globe surface rendered as a shadow volume.
type Polygon struct {
	mu sync.Mutex

	hierarchy polygon.Hierarchy
	opts      Options
	state     State
	destroyed bool
	log       *zap.Logger

	mesh      *shadowvolume.Mesh
	positions render.VertexBuffer
	normals   render.VertexBuffer
	indices   render.IndexBuffer
	va        render.VertexArray
	program   render.ShaderProgram

	commands commandSet
	uniforms render.Uniforms
}

// New creates a polygon. Nothing is validated or allocated until the first
// Update.
func New(h polygon.Hierarchy, opts Options) *Polygon {
	p := &Polygon{
		hierarchy: h,
		opts:      opts,
		log:       logger.Named("groundpolygon"),
	}

	if opts.Color != nil {
		p.uniforms.Color = *opts.Color
	} else {
		p.uniforms.Color = randomColor()
	}
	p.uniforms.AltitudeThreshold = opts.AltitudeThreshold
	p.uniforms.RampCoefficient = opts.RampCoefficient
	return p
}

func randomColor() [4]float32 {
	return [4]float32{rand.Float32(), rand.Float32(), rand.Float32(), 0.5}
}

// State returns the construction state.
func (p *Polygon) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Strategy returns the active strategy.
func (p *Polygon) Strategy() Strategy {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opts.Strategy
}

// Hierarchy returns the polygon as given to New.
func (p *Polygon) Hierarchy() polygon.Hierarchy {
	return p.hierarchy
}

// Color returns the fill color.
func (p *Polygon) Color() [4]float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uniforms.Color
}

// Mesh returns the volume mesh, or nil before it is built.
func (p *Polygon) Mesh() *shadowvolume.Mesh {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mesh
}

// SetStrategy switches strategy. Commands are rebuilt on the next Update;
// the mesh and shader are kept.
func (p *Polygon) SetStrategy(s Strategy) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s == p.opts.Strategy {
		return
	}
	p.opts.Strategy = s
	p.commands = commandSet{}
	if p.state == CommandsBuilt {
		p.transition(ShaderReady)
	}
}

// Update completes construction if needed and appends this frame's commands
// to commands when the frame renders.
func (p *Polygon) Update(ctx render.Context, frame *render.FrameState, commands *[]render.DrawCommand) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return ErrDestroyed
	}
	if err := p.construct(ctx); err != nil {
		return err
	}

	p.refreshUniforms(frame)

	if frame == nil || !frame.Passes.Render || commands == nil {
		return nil
	}
	*commands = p.appendCommands(*commands, frame.CameraInsideVolume)
	return nil
}

// Destroy releases every GPU resource. Later calls do nothing.
func (p *Polygon) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return
	}
	p.release()
	p.destroyed = true
	p.state = Uninitialized
	p.log.Debug("destroyed")
}

func (p *Polygon) construct(ctx render.Context) error {
	if p.state == CommandsBuilt {
		return nil
	}
	if ctx == nil {
		return ErrNoContext
	}

	if p.state == Uninitialized {
		if p.mesh == nil {
			mesh, err := p.buildMesh()
			if err != nil {
				return err
			}
			p.mesh = mesh
		}
		if err := p.createVertexArray(ctx); err != nil {
			return p.fail(err)
		}
		p.transition(MeshReady)
	}

	if p.state == MeshReady {
		program, err := ctx.CreateShaderProgram(
			shaders.ShadowVolumeVertexShader,
			shaders.ShadowVolumeFragmentShader,
			shaders.AttributeLocations(),
		)
		if err != nil {
			return p.fail(fmt.Errorf("create shader program: %w", err))
		}
		p.program = program
		p.transition(ShaderReady)
	}

	if p.state == ShaderReady {
		if err := p.buildCommands(ctx); err != nil {
			return p.fail(err)
		}
		p.transition(CommandsBuilt)
	}
	return nil
}

// buildMesh runs every precondition check. It allocates no GPU resources.
func (p *Polygon) buildMesh() (*shadowvolume.Mesh, error) {
	mesh, err := BuildMesh(p.hierarchy, p.opts)
	if err != nil {
		return nil, err
	}
	if mesh.CapFallback {
		p.log.Warn("degenerate boundary, using placeholder cap", zap.Int("points", len(p.hierarchy.Outer)))
	}
	return mesh, nil
}

// BuildMesh cleans and normalizes h, triangulates its outer ring and
// extrudes the volume mesh with the surface and extrusion settings of opts.
func BuildMesh(h polygon.Hierarchy, opts Options) (*shadowvolume.Mesh, error) {
	e := opts.Ellipsoid
	if e == nil {
		return nil, ErrNoEllipsoid
	}

	if err := shadowvolume.CheckFinite(h.Outer, h.Holes); err != nil {
		return nil, err
	}

	h = h.Clean(duplicateEpsilon)
	if len(h.Outer) < 3 {
		return nil, fmt.Errorf("%w: got %d distinct points", shadowvolume.ErrBoundaryTooShort, len(h.Outer))
	}

	h, err := h.Normalize(e)
	if err != nil {
		return nil, fmt.Errorf("normalize winding: %w", err)
	}
	caps, err := h.TriangulateOuter(e)
	if err != nil {
		return nil, fmt.Errorf("triangulate: %w", err)
	}

	return shadowvolume.Build(shadowvolume.Input{
		Outer:              h.Outer,
		Holes:              h.Holes,
		CapIndices:         caps,
		Granularity:        opts.Granularity,
		MaxTerrainAltitude: opts.MaxTerrainAltitude,
		Surface:            e,
	})
}

func (p *Polygon) createVertexArray(ctx render.Context) error {
	var err error

	p.positions, err = ctx.CreateVertexBuffer(p.mesh.Positions)
	if err != nil {
		return fmt.Errorf("create position buffer: %w", err)
	}
	p.normals, err = ctx.CreateVertexBuffer(p.mesh.Normals)
	if err != nil {
		return fmt.Errorf("create normal buffer: %w", err)
	}
	p.indices, err = ctx.CreateIndexBuffer(p.mesh.Indices, p.mesh.IndexWidth)
	if err != nil {
		return fmt.Errorf("create index buffer: %w", err)
	}

	p.va, err = ctx.CreateVertexArray([]render.VertexAttribute{
		{Location: shaders.LocationPositionHigh, Buffer: p.positions, Components: 3, OffsetBytes: 0, StrideBytes: positionStride},
		{Location: shaders.LocationPositionLow, Buffer: p.positions, Components: 3, OffsetBytes: 12, StrideBytes: positionStride},
		{Location: shaders.LocationNormal, Buffer: p.normals, Components: 3},
	}, p.indices)
	if err != nil {
		return fmt.Errorf("create vertex array: %w", err)
	}
	return nil
}

func (p *Polygon) buildCommands(ctx render.Context) error {
	create := func(name string, cfg render.RenderStateConfig) (render.RenderState, error) {
		rs, err := ctx.CreateRenderState(cfg)
		if err != nil {
			return nil, fmt.Errorf("create %s render state: %w", name, err)
		}
		return rs, nil
	}

	var cs commandSet
	switch p.opts.Strategy {
	case StrategySimple:
		rs, err := create("simple", simpleRenderState())
		if err != nil {
			return err
		}
		cs.simple = p.newCommands(p.mesh.CapsAndWalls, rs)

	case StrategyStencil:
		zFail, err := create("z-fail", zFailRenderState())
		if err != nil {
			return err
		}
		zPass, err := create("z-pass", zPassRenderState())
		if err != nil {
			return err
		}
		inside, err := create("color-inside", colorInsideRenderState())
		if err != nil {
			return err
		}
		outside, err := create("color-outside", colorOutsideRenderState())
		if err != nil {
			return err
		}
		cs.zFail = p.newCommands(p.mesh.CapsAndWalls, zFail)
		cs.zPass = p.newCommands(p.mesh.TopCapAndWalls, zPass)
		cs.colorInside = p.newCommands(p.mesh.CapsAndWalls, inside)
		cs.colorOutside = p.newCommands(p.mesh.TopCapAndWalls, outside)

	default:
		return fmt.Errorf("%w: %d", ErrUnknownStrategy, int(p.opts.Strategy))
	}

	p.commands = cs
	return nil
}

func (p *Polygon) newCommands(ranges []shadowvolume.DrawRange, rs render.RenderState) []render.DrawCommand {
	out := make([]render.DrawCommand, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, render.DrawCommand{
			Primitive:     r.Primitive,
			Offset:        r.Offset,
			Count:         r.Count,
			VertexArray:   p.va,
			RenderState:   rs,
			ShaderProgram: p.program,
			Uniforms:      &p.uniforms,
			Transform:     mgl64.Ident4(),
			Pass:          render.PassTranslucent,
			Owner:         p,
		})
	}
	return out
}

func (p *Polygon) appendCommands(dst []render.DrawCommand, cameraInside bool) []render.DrawCommand {
	cs := &p.commands
	if p.opts.Strategy == StrategySimple {
		return append(dst, cs.simple...)
	}
	if cameraInside {
		dst = append(dst, cs.zFail...)
		return append(dst, cs.colorInside...)
	}
	dst = append(dst, cs.zPass...)
	return append(dst, cs.colorOutside...)
}

func (p *Polygon) refreshUniforms(frame *render.FrameState) {
	p.uniforms.AltitudeThreshold = p.opts.AltitudeThreshold
	p.uniforms.RampCoefficient = p.opts.RampCoefficient
	if frame == nil {
		return
	}
	if frame.AltitudeThreshold != nil {
		p.uniforms.AltitudeThreshold = *frame.AltitudeThreshold
	}
	if frame.RampCoefficient != nil {
		p.uniforms.RampCoefficient = *frame.RampCoefficient
	}
}

// fail releases partial resources and returns to Uninitialized so a later
// Update may retry.
func (p *Polygon) fail(err error) error {
	p.log.Warn("construction failed", zap.Stringer("state", p.state), zap.Error(err))
	p.release()
	p.state = Uninitialized
	return err
}

func (p *Polygon) release() {
	if p.va != nil {
		p.va.Destroy()
		p.va = nil
	}
	if p.indices != nil {
		p.indices.Destroy()
		p.indices = nil
	}
	if p.normals != nil {
		p.normals.Destroy()
		p.normals = nil
	}
	if p.positions != nil {
		p.positions.Destroy()
		p.positions = nil
	}
	if p.program != nil {
		p.program.Destroy()
		p.program = nil
	}
	p.commands = commandSet{}
}

func (p *Polygon) transition(to State) {
	p.log.Debug("state transition",
		zap.Stringer("from", p.state),
		zap.Stringer("to", to),
		zap.Stringer("strategy", p.opts.Strategy),
	)
	p.state = to
}
