// Package render defines the backend-neutral rendering contract: GPU resource
// handles, render state descriptions and draw commands. Geometry producers
// build commands against Context; a backend executes them.
package render

// PrimitiveType selects how indices are assembled into primitives.
type PrimitiveType int

const (
	Triangles PrimitiveType = iota
	TriangleStrip
	TriangleFan
	Lines
)

func (p PrimitiveType) String() string {
	switch p {
	case Triangles:
		return "TRIANGLES"
	case TriangleStrip:
		return "TRIANGLE_STRIP"
	case TriangleFan:
		return "TRIANGLE_FAN"
	case Lines:
		return "LINES"
	default:
		return "UNKNOWN"
	}
}

// IndexWidth is the size of one index in an index buffer.
type IndexWidth int

const (
	Uint16 IndexWidth = 2
	Uint32 IndexWidth = 4
)

// IndexWidthFor returns the narrowest index width able to address
// vertexCount vertices.
func IndexWidthFor(vertexCount int) IndexWidth {
	if vertexCount < 1<<16 {
		return Uint16
	}
	return Uint32
}

// CompareFunc is a depth or stencil comparison function.
type CompareFunc int

const (
	Never CompareFunc = iota
	Less
	Equal
	LessOrEqual
	Greater
	NotEqual
	GreaterOrEqual
	Always
)

// StencilOp is applied to the stencil buffer after a stencil/depth test.
type StencilOp int

const (
	Keep StencilOp = iota
	Zero
	Replace
	Increment
	IncrementWrap
	Decrement
	DecrementWrap
	Invert
)

// CullFace selects which faces culling discards.
type CullFace int

const (
	CullBack CullFace = iota
	CullFront
	CullFrontAndBack
)

// Blending selects a blend equation.
type Blending int

const (
	BlendDisabled Blending = iota
	BlendAlpha
)

// DepthTest configures depth testing.
type DepthTest struct {
	Enabled bool
	Func    CompareFunc
}

// StencilOperation lists the operations for one face.
type StencilOperation struct {
	Fail  StencilOp // stencil test failed
	ZFail StencilOp // stencil passed, depth failed
	ZPass StencilOp // both passed
}

// StencilTest configures two-sided stencil testing.
type StencilTest struct {
	Enabled   bool
	FrontFunc CompareFunc
	FrontOp   StencilOperation
	BackFunc  CompareFunc
	BackOp    StencilOperation
	Reference int32
	Mask      uint32
}

// Cull configures face culling.
type Cull struct {
	Enabled bool
	Face    CullFace
}

// ColorMask enables writes per color channel.
type ColorMask struct {
	Red, Green, Blue, Alpha bool
}

// ColorMaskAll enables writes to every channel.
var ColorMaskAll = ColorMask{Red: true, Green: true, Blue: true, Alpha: true}

// RenderStateConfig is the fixed-function state a draw command runs with.
type RenderStateConfig struct {
	Blending    Blending
	DepthTest   DepthTest
	DepthMask   bool
	StencilTest StencilTest
	Cull        Cull
	ColorMask   ColorMask
}

// DefaultRenderState returns opaque rendering state: depth test LESS with
// depth writes, no stencil, no culling, all color channels written.
func DefaultRenderState() RenderStateConfig {
	return RenderStateConfig{
		DepthTest: DepthTest{Enabled: true, Func: Less},
		DepthMask: true,
		ColorMask: ColorMaskAll,
	}
}
