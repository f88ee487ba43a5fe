package groundpolygon

import "github.com/vmora/cesium/internal/engine/render"

var allStencilBits = ^uint32(0)

// simpleRenderState blends the volume over the scene.
func simpleRenderState() render.RenderStateConfig {
	return render.RenderStateConfig{
		Blending:  render.BlendAlpha,
		DepthTest: render.DepthTest{Enabled: false},
		DepthMask: false,
		Cull:      render.Cull{Enabled: true, Face: render.CullBack},
		ColorMask: render.ColorMaskAll,
	}
}

// zFailRenderState counts volume faces behind the scene depth. It stays
// correct when the near plane clips the volume.
func zFailRenderState() render.RenderStateConfig {
	return render.RenderStateConfig{
		DepthTest: render.DepthTest{Enabled: true, Func: render.Less},
		DepthMask: false,
		StencilTest: render.StencilTest{
			Enabled:   true,
			FrontFunc: render.Always,
			FrontOp:   render.StencilOperation{Fail: render.Keep, ZFail: render.DecrementWrap, ZPass: render.Keep},
			BackFunc:  render.Always,
			BackOp:    render.StencilOperation{Fail: render.Keep, ZFail: render.IncrementWrap, ZPass: render.Keep},
			Reference: 0,
			Mask:      allStencilBits,
		},
	}
}

// zPassRenderState counts volume faces in front of the scene depth.
func zPassRenderState() render.RenderStateConfig {
	return render.RenderStateConfig{
		DepthTest: render.DepthTest{Enabled: true, Func: render.Less},
		DepthMask: false,
		StencilTest: render.StencilTest{
			Enabled:   true,
			FrontFunc: render.Always,
			FrontOp:   render.StencilOperation{Fail: render.Keep, ZFail: render.Keep, ZPass: render.IncrementWrap},
			BackFunc:  render.Always,
			BackOp:    render.StencilOperation{Fail: render.Keep, ZFail: render.Keep, ZPass: render.DecrementWrap},
			Reference: 0,
			Mask:      allStencilBits,
		},
	}
}

// colorStencilTest passes where the count is non-zero and clears it as
// pixels are filled, so each pixel is colored at most once.
func colorStencilTest() render.StencilTest {
	op := render.StencilOperation{Fail: render.Keep, ZFail: render.Keep, ZPass: render.Decrement}
	return render.StencilTest{
		Enabled:   true,
		FrontFunc: render.NotEqual,
		FrontOp:   op,
		BackFunc:  render.NotEqual,
		BackOp:    op,
		Reference: 0,
		Mask:      allStencilBits,
	}
}

func colorInsideRenderState() render.RenderStateConfig {
	return render.RenderStateConfig{
		Blending:    render.BlendAlpha,
		DepthTest:   render.DepthTest{Enabled: true, Func: render.Always},
		DepthMask:   false,
		StencilTest: colorStencilTest(),
		ColorMask:   render.ColorMaskAll,
	}
}

func colorOutsideRenderState() render.RenderStateConfig {
	return render.RenderStateConfig{
		Blending:    render.BlendAlpha,
		DepthTest:   render.DepthTest{Enabled: true, Func: render.Less},
		DepthMask:   false,
		StencilTest: colorStencilTest(),
		Cull:        render.Cull{Enabled: true, Face: render.CullBack},
		ColorMask:   render.ColorMaskAll,
	}
}
