package renderer

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/vmora/cesium/internal/engine/render"
)

// applyState sets fixed-function state, skipping the calls when cfg matches
// the state applied last.
func (r *Renderer) applyState(cfg render.RenderStateConfig) {
	if r.current != nil && *r.current == cfg {
		return
	}

	switch cfg.Blending {
	case render.BlendAlpha:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	default:
		gl.Disable(gl.BLEND)
	}

	if cfg.DepthTest.Enabled {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(compareFunc(cfg.DepthTest.Func))
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	gl.DepthMask(cfg.DepthMask)

	st := cfg.StencilTest
	if st.Enabled {
		gl.Enable(gl.STENCIL_TEST)
		gl.StencilFuncSeparate(gl.FRONT, compareFunc(st.FrontFunc), st.Reference, st.Mask)
		gl.StencilFuncSeparate(gl.BACK, compareFunc(st.BackFunc), st.Reference, st.Mask)
		gl.StencilOpSeparate(gl.FRONT, stencilOp(st.FrontOp.Fail), stencilOp(st.FrontOp.ZFail), stencilOp(st.FrontOp.ZPass))
		gl.StencilOpSeparate(gl.BACK, stencilOp(st.BackOp.Fail), stencilOp(st.BackOp.ZFail), stencilOp(st.BackOp.ZPass))
	} else {
		gl.Disable(gl.STENCIL_TEST)
	}

	if cfg.Cull.Enabled {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(cullFace(cfg.Cull.Face))
	} else {
		gl.Disable(gl.CULL_FACE)
	}

	m := cfg.ColorMask
	gl.ColorMask(m.Red, m.Green, m.Blue, m.Alpha)

	applied := cfg
	r.current = &applied
}

func compareFunc(f render.CompareFunc) uint32 {
	switch f {
	case render.Never:
		return gl.NEVER
	case render.Less:
		return gl.LESS
	case render.Equal:
		return gl.EQUAL
	case render.LessOrEqual:
		return gl.LEQUAL
	case render.Greater:
		return gl.GREATER
	case render.NotEqual:
		return gl.NOTEQUAL
	case render.GreaterOrEqual:
		return gl.GEQUAL
	default:
		return gl.ALWAYS
	}
}

func stencilOp(op render.StencilOp) uint32 {
	switch op {
	case render.Zero:
		return gl.ZERO
	case render.Replace:
		return gl.REPLACE
	case render.Increment:
		return gl.INCR
	case render.IncrementWrap:
		return gl.INCR_WRAP
	case render.Decrement:
		return gl.DECR
	case render.DecrementWrap:
		return gl.DECR_WRAP
	case render.Invert:
		return gl.INVERT
	default:
		return gl.KEEP
	}
}

func cullFace(f render.CullFace) uint32 {
	switch f {
	case render.CullFront:
		return gl.FRONT
	case render.CullFrontAndBack:
		return gl.FRONT_AND_BACK
	default:
		return gl.BACK
	}
}

func primitiveMode(p render.PrimitiveType) uint32 {
	switch p {
	case render.TriangleStrip:
		return gl.TRIANGLE_STRIP
	case render.TriangleFan:
		return gl.TRIANGLE_FAN
	case render.Lines:
		return gl.LINES
	default:
		return gl.TRIANGLES
	}
}

func indexType(w render.IndexWidth) uint32 {
	if w == render.Uint16 {
		return gl.UNSIGNED_SHORT
	}
	return gl.UNSIGNED_INT
}
