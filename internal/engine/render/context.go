package render

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Resource is a GPU object owned by whoever created it.
type Resource interface {
	// Destroy releases the GPU object. Calling it more than once is a no-op.
	Destroy()
}

// VertexBuffer holds float32 vertex data.
type VertexBuffer interface {
	Resource
	SizeInBytes() int
}

// IndexBuffer holds indices of a fixed width.
type IndexBuffer interface {
	Resource
	Width() IndexWidth
	Count() int
}

// VertexArray binds vertex attributes and an index buffer.
type VertexArray interface {
	Resource
	IndexBuffer() IndexBuffer
}

// ShaderProgram is a linked vertex+fragment program.
type ShaderProgram interface {
	Resource
}

// RenderState is an immutable, backend-side render state object.
type RenderState interface {
	Config() RenderStateConfig
}

// VertexAttribute describes one float32 attribute stream.
type VertexAttribute struct {
	Location    uint32
	Buffer      VertexBuffer
	Components  int
	OffsetBytes int
	StrideBytes int // 0 means tightly packed
}

// Context creates GPU resources. Implementations are not safe for
// concurrent use; call them from the rendering thread.
type Context interface {
	CreateVertexBuffer(data []float32) (VertexBuffer, error)
	CreateIndexBuffer(indices []uint32, width IndexWidth) (IndexBuffer, error)
	CreateVertexArray(attributes []VertexAttribute, indices IndexBuffer) (VertexArray, error)
	CreateShaderProgram(vertexSrc, fragmentSrc string, attributeLocations map[string]uint32) (ShaderProgram, error)
	CreateRenderState(cfg RenderStateConfig) (RenderState, error)
}

// Pass orders commands within a frame.
type Pass int

const (
	PassOpaque Pass = iota
	PassTranslucent
	PassOverlay
)

// Uniforms are the per-command shader inputs. Commands of one owner share a
// single Uniforms value that the owner refreshes once per frame.
type Uniforms struct {
	// AltitudeThreshold caps how far bottom vertices are pushed below the
	// surface (meters, negative is down).
	AltitudeThreshold float32
	// RampCoefficient scales the push with distance from the eye.
	RampCoefficient float32
	// Color is the RGBA fill color.
	Color [4]float32
}

// DrawCommand is one indexed draw call.
type DrawCommand struct {
	Primitive     PrimitiveType
	Offset        int // first index
	Count         int // number of indices
	VertexArray   VertexArray
	RenderState   RenderState
	ShaderProgram ShaderProgram
	Uniforms      *Uniforms
	Transform     mgl64.Mat4
	Pass          Pass
	Owner         any
}

// Passes reports which passes a frame renders.
type Passes struct {
	Render bool
}

// FrameState is the per-frame input from the frame driver.
type FrameState struct {
	Passes Passes
	// CameraInsideVolume selects the inside-camera command set for
	// stencil-volume owners. Containment detection is the driver's job.
	CameraInsideVolume bool
	// AltitudeThreshold and RampCoefficient override an owner's uniforms for
	// this frame when non-nil.
	AltitudeThreshold *float32
	RampCoefficient   *float32
}
