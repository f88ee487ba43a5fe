// Package globe draws the ellipsoid as an opaque tessellated surface. It
// stands in for terrain so shadow volumes have scene depth to clip against.
package globe

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/vmora/cesium/internal/engine/render"
	"github.com/vmora/cesium/internal/engine/shaders"
	"github.com/vmora/cesium/internal/engine/shadowvolume"
	"github.com/vmora/cesium/internal/logger"
	"github.com/vmora/cesium/pkg/ellipsoid"
)

var ErrTooCoarse = errors.New("globe: need at least 3 slices and 2 stacks")

// Options configure the tessellation.
type Options struct {
	Slices int // around the polar axis
	Stacks int // pole to pole
	Color  [4]float32
}

// DefaultOptions returns a 1.5 degree grid in a muted blue.
func DefaultOptions() Options {
	return Options{
		Slices: 240,
		Stacks: 120,
		Color:  [4]float32{0.16, 0.27, 0.42, 1},
	}
}

// Mesh is a tessellated ellipsoid in the encoded position layout.
type Mesh struct {
	Positions []float32 // high xyz, low xyz
	Normals   []float32
	Indices   []uint32
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions) / shadowvolume.PositionComponents
}

// Tessellate builds a latitude/longitude grid over e. The seam column is
// duplicated so every row has slices+1 vertices.
func Tessellate(e *ellipsoid.Ellipsoid, slices, stacks int) (*Mesh, error) {
	if slices < 3 || stacks < 2 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrTooCoarse, slices, stacks)
	}

	cols := slices + 1
	rows := stacks + 1
	m := &Mesh{
		Positions: make([]float32, 0, cols*rows*shadowvolume.PositionComponents),
		Normals:   make([]float32, 0, cols*rows*3),
		Indices:   make([]uint32, 0, slices*stacks*6),
	}

	var high, low [3]float32
	for row := 0; row < rows; row++ {
		lat := -math.Pi/2 + math.Pi*float64(row)/float64(stacks)
		for col := 0; col < cols; col++ {
			lon := -math.Pi + 2*math.Pi*float64(col)/float64(slices)
			c := ellipsoid.Cartographic{Longitude: lon, Latitude: lat}
			p := e.CartographicToCartesian(c)
			n := e.GeodeticSurfaceNormalCartographic(c)

			high, low = shadowvolume.EncodeVec3(p)
			m.Positions = append(m.Positions, high[0], high[1], high[2], low[0], low[1], low[2])
			m.Normals = append(m.Normals, float32(n[0]), float32(n[1]), float32(n[2]))
		}
	}

	for row := 0; row < stacks; row++ {
		for col := 0; col < slices; col++ {
			a := uint32(row*cols + col)
			b := a + 1
			c := a + uint32(cols)
			d := c + 1
			// Counter-clockwise seen from outside.
			m.Indices = append(m.Indices, a, b, d, a, d, c)
		}
	}
	return m, nil
}

// Globe owns the GPU resources of a tessellated ellipsoid.
type Globe struct {
	ellipsoid *ellipsoid.Ellipsoid
	opts      Options
	log       *zap.Logger

	mesh      *Mesh
	positions render.VertexBuffer
	normals   render.VertexBuffer
	indices   render.IndexBuffer
	va        render.VertexArray
	program   render.ShaderProgram
	command   *render.DrawCommand
	uniforms  render.Uniforms
}

// New creates a globe. GPU resources are created on the first Update.
func New(e *ellipsoid.Ellipsoid, opts Options) *Globe {
	g := &Globe{
		ellipsoid: e,
		opts:      opts,
		log:       logger.Named("globe"),
	}
	g.uniforms.Color = opts.Color
	return g
}

// Update creates resources if needed and appends the globe draw command.
func (g *Globe) Update(ctx render.Context, frame *render.FrameState, commands *[]render.DrawCommand) error {
	if g.command == nil {
		if err := g.create(ctx); err != nil {
			g.release()
			return err
		}
	}
	if frame != nil && frame.Passes.Render && commands != nil {
		*commands = append(*commands, *g.command)
	}
	return nil
}

func (g *Globe) create(ctx render.Context) error {
	if g.mesh == nil {
		mesh, err := Tessellate(g.ellipsoid, g.opts.Slices, g.opts.Stacks)
		if err != nil {
			return err
		}
		g.mesh = mesh
	}

	var err error
	if g.positions, err = ctx.CreateVertexBuffer(g.mesh.Positions); err != nil {
		return fmt.Errorf("globe positions: %w", err)
	}
	if g.normals, err = ctx.CreateVertexBuffer(g.mesh.Normals); err != nil {
		return fmt.Errorf("globe normals: %w", err)
	}
	width := render.IndexWidthFor(g.mesh.VertexCount())
	if g.indices, err = ctx.CreateIndexBuffer(g.mesh.Indices, width); err != nil {
		return fmt.Errorf("globe indices: %w", err)
	}

	stride := shadowvolume.PositionComponents * 4
	g.va, err = ctx.CreateVertexArray([]render.VertexAttribute{
		{Location: shaders.LocationPositionHigh, Buffer: g.positions, Components: 3, StrideBytes: stride},
		{Location: shaders.LocationPositionLow, Buffer: g.positions, Components: 3, OffsetBytes: 12, StrideBytes: stride},
		{Location: shaders.LocationNormal, Buffer: g.normals, Components: 3},
	}, g.indices)
	if err != nil {
		return fmt.Errorf("globe vertex array: %w", err)
	}

	g.program, err = ctx.CreateShaderProgram(shaders.GlobeVertexShader, shaders.GlobeFragmentShader, shaders.AttributeLocations())
	if err != nil {
		return fmt.Errorf("globe shader: %w", err)
	}

	rs, err := ctx.CreateRenderState(render.DefaultRenderState())
	if err != nil {
		return fmt.Errorf("globe render state: %w", err)
	}

	g.command = &render.DrawCommand{
		Primitive:     render.Triangles,
		Count:         len(g.mesh.Indices),
		VertexArray:   g.va,
		RenderState:   rs,
		ShaderProgram: g.program,
		Uniforms:      &g.uniforms,
		Transform:     mgl64.Ident4(),
		Pass:          render.PassOpaque,
		Owner:         g,
	}

	g.log.Debug("globe created",
		zap.Int("vertices", g.mesh.VertexCount()),
		zap.Int("indices", len(g.mesh.Indices)),
	)
	return nil
}

// Destroy releases GPU resources.
func (g *Globe) Destroy() {
	g.release()
}

func (g *Globe) release() {
	for _, r := range []render.Resource{g.va, g.indices, g.normals, g.positions, g.program} {
		if r != nil {
			r.Destroy()
		}
	}
	g.va, g.indices, g.normals, g.positions, g.program = nil, nil, nil, nil, nil
	g.command = nil
}
