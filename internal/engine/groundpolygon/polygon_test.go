package groundpolygon

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vmora/cesium/internal/engine/render"
	"github.com/vmora/cesium/internal/engine/render/rendertest"
	"github.com/vmora/cesium/internal/engine/shadowvolume"
	"github.com/vmora/cesium/pkg/ellipsoid"
	"github.com/vmora/cesium/pkg/polygon"
)

func ring(lonLat ...[2]float64) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(lonLat))
	for i, ll := range lonLat {
		out[i] = ellipsoid.WGS84.CartographicToCartesian(ellipsoid.FromDegrees(ll[0], ll[1], 0))
	}
	return out
}

func squareHierarchy() polygon.Hierarchy {
	return polygon.Hierarchy{
		Outer: ring([2]float64{10, 10}, [2]float64{11, 10}, [2]float64{11, 11}, [2]float64{10, 11}),
	}
}

func holedHierarchy() polygon.Hierarchy {
	h := squareHierarchy()
	h.Holes = [][]mgl64.Vec3{
		ring([2]float64{10.3, 10.3}, [2]float64{10.3, 10.6}, [2]float64{10.6, 10.3}),
	}
	return h
}

func nanHierarchy() polygon.Hierarchy {
	h := squareHierarchy()
	h.Outer[2] = mgl64.Vec3{math.NaN(), 1, 1}
	return h
}

func renderFrame(inside bool) *render.FrameState {
	return &render.FrameState{
		Passes:             render.Passes{Render: true},
		CameraInsideVolume: inside,
	}
}

func update(t *testing.T, p *Polygon, ctx render.Context, frame *render.FrameState) []render.DrawCommand {
	t.Helper()
	var cmds []render.DrawCommand
	if err := p.Update(ctx, frame, &cmds); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	return cmds
}

func isColorInside(cfg render.RenderStateConfig) bool {
	return cfg.StencilTest.Enabled && cfg.StencilTest.FrontFunc == render.NotEqual &&
		cfg.DepthTest.Func == render.Always
}

func isColorOutside(cfg render.RenderStateConfig) bool {
	return cfg.StencilTest.Enabled && cfg.StencilTest.FrontFunc == render.NotEqual &&
		cfg.DepthTest.Func == render.Less && cfg.Cull.Enabled
}

func TestStencilOutsideCommands(t *testing.T) {
	rec := rendertest.New()
	p := New(squareHierarchy(), DefaultOptions())

	cmds := update(t, p, rec, renderFrame(false))

	if p.State() != CommandsBuilt {
		t.Fatalf("expected CommandsBuilt, got %v", p.State())
	}
	if len(cmds) != 4 {
		t.Fatalf("expected 4 commands, got %d", len(cmds))
	}

	mesh := p.Mesh()
	for i, cmd := range cmds[:2] {
		cfg := cmd.RenderState.Config()
		if cfg.ColorMask != (render.ColorMask{}) {
			t.Errorf("z-pass command %d writes color", i)
		}
		if cfg.DepthMask {
			t.Errorf("z-pass command %d writes depth", i)
		}
		if cfg.StencilTest.FrontOp.ZPass != render.IncrementWrap || cfg.StencilTest.BackOp.ZPass != render.DecrementWrap {
			t.Errorf("z-pass command %d has ops %+v / %+v", i, cfg.StencilTest.FrontOp, cfg.StencilTest.BackOp)
		}
		if cmd.Offset != mesh.TopCapAndWalls[i].Offset || cmd.Count != mesh.TopCapAndWalls[i].Count {
			t.Errorf("z-pass command %d covers [%d,+%d), want %+v", i, cmd.Offset, cmd.Count, mesh.TopCapAndWalls[i])
		}
	}
	for i, cmd := range cmds[2:] {
		if !isColorOutside(cmd.RenderState.Config()) {
			t.Errorf("command %d is not color-outside: %+v", i+2, cmd.RenderState.Config())
		}
		if cmd.Pass != render.PassTranslucent {
			t.Errorf("command %d: expected translucent pass, got %v", i+2, cmd.Pass)
		}
	}

	if cmds[0].Primitive != render.Triangles || cmds[1].Primitive != render.TriangleStrip {
		t.Errorf("unexpected primitives %v, %v", cmds[0].Primitive, cmds[1].Primitive)
	}
}

func TestStencilInsideCommands(t *testing.T) {
	rec := rendertest.New()
	p := New(squareHierarchy(), DefaultOptions())

	cmds := update(t, p, rec, renderFrame(true))
	if len(cmds) != 4 {
		t.Fatalf("expected 4 commands, got %d", len(cmds))
	}

	mesh := p.Mesh()
	for i, cmd := range cmds[:2] {
		cfg := cmd.RenderState.Config()
		if cfg.StencilTest.FrontOp.ZFail != render.DecrementWrap || cfg.StencilTest.BackOp.ZFail != render.IncrementWrap {
			t.Errorf("z-fail command %d has ops %+v / %+v", i, cfg.StencilTest.FrontOp, cfg.StencilTest.BackOp)
		}
		if cfg.Cull.Enabled {
			t.Errorf("z-fail command %d culls faces", i)
		}
		if cmd.Offset != mesh.CapsAndWalls[i].Offset || cmd.Count != mesh.CapsAndWalls[i].Count {
			t.Errorf("z-fail command %d covers [%d,+%d), want %+v", i, cmd.Offset, cmd.Count, mesh.CapsAndWalls[i])
		}
	}
	for i, cmd := range cmds[2:] {
		cfg := cmd.RenderState.Config()
		if !isColorInside(cfg) {
			t.Errorf("command %d is not color-inside: %+v", i+2, cfg)
		}
		if cfg.StencilTest.FrontOp.ZPass != render.Decrement {
			t.Errorf("command %d: expected DECR on z-pass, got %v", i+2, cfg.StencilTest.FrontOp.ZPass)
		}
	}
}

func TestColorPassesMutuallyExclusive(t *testing.T) {
	for _, inside := range []bool{false, true} {
		rec := rendertest.New()
		p := New(holedHierarchy(), DefaultOptions())
		cmds := update(t, p, rec, renderFrame(inside))

		var nInside, nOutside int
		for _, cmd := range cmds {
			cfg := cmd.RenderState.Config()
			if isColorInside(cfg) {
				nInside++
			}
			if isColorOutside(cfg) {
				nOutside++
			}
			if isColorInside(cfg) && isColorOutside(cfg) {
				t.Errorf("command carries both color states")
			}
		}
		if nInside > 0 && nOutside > 0 {
			t.Errorf("inside=%v: frame mixes %d color-inside and %d color-outside commands", inside, nInside, nOutside)
		}
		if nInside+nOutside != 3 {
			t.Errorf("inside=%v: expected 3 color commands, got %d", inside, nInside+nOutside)
		}
	}
}

func TestSimpleStrategy(t *testing.T) {
	rec := rendertest.New()
	opts := DefaultOptions()
	opts.Strategy = StrategySimple
	p := New(squareHierarchy(), opts)

	cmds := update(t, p, rec, renderFrame(true))
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	if len(rec.RenderStates) != 1 {
		t.Errorf("expected 1 render state, got %d", len(rec.RenderStates))
	}

	for i, cmd := range cmds {
		cfg := cmd.RenderState.Config()
		if cfg.Blending != render.BlendAlpha {
			t.Errorf("command %d: expected alpha blending", i)
		}
		if cfg.DepthTest.Enabled {
			t.Errorf("command %d: expected depth test disabled", i)
		}
		if !cfg.Cull.Enabled || cfg.Cull.Face != render.CullBack {
			t.Errorf("command %d: expected back-face culling, got %+v", i, cfg.Cull)
		}
		if cfg.StencilTest.Enabled {
			t.Errorf("command %d: expected no stencil test", i)
		}
	}

	if c := cmds[0].Uniforms.Color; c[3] != 0.5 {
		t.Errorf("expected translucent random color, got alpha %v", c[3])
	}
}

func TestConfiguredColor(t *testing.T) {
	opts := DefaultOptions()
	opts.Color = &[4]float32{1, 0, 0, 0.25}
	p := New(squareHierarchy(), opts)
	cmds := update(t, p, rendertest.New(), renderFrame(false))

	if got := cmds[0].Uniforms.Color; got != *opts.Color {
		t.Errorf("expected color %v, got %v", *opts.Color, got)
	}
}

func TestRenderPassInactive(t *testing.T) {
	rec := rendertest.New()
	p := New(squareHierarchy(), DefaultOptions())

	cmds := update(t, p, rec, &render.FrameState{})
	if len(cmds) != 0 {
		t.Errorf("expected no commands, got %d", len(cmds))
	}
	if p.State() != CommandsBuilt {
		t.Errorf("expected construction to complete, got %v", p.State())
	}
}

func TestPreconditionAllocatesNothing(t *testing.T) {
	tests := []struct {
		name string
		h    polygon.Hierarchy
		opts func(*Options)
		want error
	}{
		{
			name: "two points",
			h:    polygon.Hierarchy{Outer: ring([2]float64{0, 0}, [2]float64{1, 0})},
			want: shadowvolume.ErrBoundaryTooShort,
		},
		{
			name: "duplicates collapse",
			h:    polygon.Hierarchy{Outer: ring([2]float64{0, 0}, [2]float64{1, 0}, [2]float64{1, 0}, [2]float64{0, 0})},
			want: shadowvolume.ErrBoundaryTooShort,
		},
		{
			name: "no ellipsoid",
			h:    squareHierarchy(),
			opts: func(o *Options) { o.Ellipsoid = nil },
			want: ErrNoEllipsoid,
		},
		{
			name: "bad granularity",
			h:    squareHierarchy(),
			opts: func(o *Options) { o.Granularity = 0 },
			want: shadowvolume.ErrInvalidGranularity,
		},
		{
			name: "nan point",
			h:    nanHierarchy(),
			want: shadowvolume.ErrNonFinitePoint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			if tt.opts != nil {
				tt.opts(&opts)
			}
			rec := rendertest.New()
			p := New(tt.h, opts)

			var cmds []render.DrawCommand
			err := p.Update(rec, renderFrame(false), &cmds)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if n := len(rec.VertexBuffers) + len(rec.IndexBuffers) + len(rec.VertexArrays) + len(rec.ShaderPrograms); n != 0 {
				t.Errorf("expected no allocations, got %d", n)
			}
			if p.State() != Uninitialized {
				t.Errorf("expected Uninitialized, got %v", p.State())
			}
			if len(cmds) != 0 {
				t.Errorf("expected no commands, got %d", len(cmds))
			}
		})
	}
}

func TestBackendFailureRollsBack(t *testing.T) {
	tests := []struct {
		name   string
		inject func(*rendertest.Recorder)
	}{
		{"vertex buffer", func(r *rendertest.Recorder) { r.FailVertexBuffer = true }},
		{"index buffer", func(r *rendertest.Recorder) { r.FailIndexBuffer = true }},
		{"vertex array", func(r *rendertest.Recorder) { r.FailVertexArray = true }},
		{"shader program", func(r *rendertest.Recorder) { r.FailShaderProgram = true }},
		{"render state", func(r *rendertest.Recorder) { r.FailRenderState = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := rendertest.New()
			tt.inject(rec)
			p := New(squareHierarchy(), DefaultOptions())

			var cmds []render.DrawCommand
			err := p.Update(rec, renderFrame(false), &cmds)
			if !errors.Is(err, rendertest.ErrInjected) {
				t.Fatalf("expected injected error, got %v", err)
			}
			if p.State() != Uninitialized {
				t.Errorf("expected Uninitialized, got %v", p.State())
			}
			if rec.Live() != 0 {
				t.Errorf("expected partial resources released, %d live", rec.Live())
			}
			if len(cmds) != 0 {
				t.Errorf("expected no commands, got %d", len(cmds))
			}

			// The failure was one-shot; the next frame retries.
			cmds = update(t, p, rec, renderFrame(false))
			if p.State() != CommandsBuilt {
				t.Errorf("expected CommandsBuilt after retry, got %v", p.State())
			}
			if len(cmds) != 4 {
				t.Errorf("expected 4 commands after retry, got %d", len(cmds))
			}
			if rec.DoubleDestroyed() {
				t.Error("resource destroyed twice")
			}
		})
	}
}

func TestUpdateIsIdempotent(t *testing.T) {
	rec := rendertest.New()
	p := New(squareHierarchy(), DefaultOptions())

	var cmds []render.DrawCommand
	for i := 0; i < 3; i++ {
		if err := p.Update(rec, renderFrame(false), &cmds); err != nil {
			t.Fatalf("Update %d failed: %v", i, err)
		}
	}

	if len(rec.VertexBuffers) != 2 || len(rec.IndexBuffers) != 1 || len(rec.VertexArrays) != 1 || len(rec.ShaderPrograms) != 1 {
		t.Errorf("expected one allocation pass, got %d/%d/%d/%d",
			len(rec.VertexBuffers), len(rec.IndexBuffers), len(rec.VertexArrays), len(rec.ShaderPrograms))
	}
	if len(rec.RenderStates) != 4 {
		t.Errorf("expected 4 render states, got %d", len(rec.RenderStates))
	}
	if len(cmds) != 12 {
		t.Errorf("expected 12 commands over 3 frames, got %d", len(cmds))
	}
}

func TestVertexLayout(t *testing.T) {
	rec := rendertest.New()
	p := New(squareHierarchy(), DefaultOptions())
	update(t, p, rec, renderFrame(false))

	va := rec.VertexArrays[0]
	if len(va.Attributes) != 3 {
		t.Fatalf("expected 3 attributes, got %d", len(va.Attributes))
	}
	want := []struct {
		location uint32
		offset   int
	}{{0, 0}, {1, 12}, {2, 0}}
	for i, w := range want {
		a := va.Attributes[i]
		if a.Location != w.location || a.OffsetBytes != w.offset || a.Components != 3 {
			t.Errorf("attribute %d: got %+v", i, a)
		}
	}

	sp := rec.ShaderPrograms[0]
	if sp.Locations["aPositionHigh"] != 0 || sp.Locations["aPositionLow"] != 1 || sp.Locations["aNormal"] != 2 {
		t.Errorf("unexpected attribute locations %v", sp.Locations)
	}

	ib := rec.IndexBuffers[0]
	if ib.IndexWidth != render.Uint16 || ib.Count() != 20 {
		t.Errorf("expected 20 16-bit indices, got %d of width %v", ib.Count(), ib.IndexWidth)
	}
}

func TestDestroy(t *testing.T) {
	rec := rendertest.New()
	p := New(squareHierarchy(), DefaultOptions())
	update(t, p, rec, renderFrame(false))

	p.Destroy()
	p.Destroy()

	if rec.Live() != 0 {
		t.Errorf("expected all resources released, %d live", rec.Live())
	}
	if rec.DoubleDestroyed() {
		t.Error("resource destroyed twice")
	}

	var cmds []render.DrawCommand
	if err := p.Update(rec, renderFrame(false), &cmds); !errors.Is(err, ErrDestroyed) {
		t.Errorf("expected ErrDestroyed, got %v", err)
	}
}

func TestDestroyBeforeUpdate(t *testing.T) {
	p := New(squareHierarchy(), DefaultOptions())
	p.Destroy()
	if p.State() != Uninitialized {
		t.Errorf("expected Uninitialized, got %v", p.State())
	}
}

func TestUniformOverrides(t *testing.T) {
	rec := rendertest.New()
	p := New(squareHierarchy(), DefaultOptions())

	threshold := float32(-250)
	ramp := float32(-4)
	frame := renderFrame(false)
	frame.AltitudeThreshold = &threshold
	frame.RampCoefficient = &ramp

	cmds := update(t, p, rec, frame)
	u := cmds[0].Uniforms
	if u.AltitudeThreshold != threshold || u.RampCoefficient != ramp {
		t.Errorf("expected overrides (%v, %v), got (%v, %v)", threshold, ramp, u.AltitudeThreshold, u.RampCoefficient)
	}

	update(t, p, rec, renderFrame(false))
	if u.AltitudeThreshold != DefaultAltitudeThreshold || u.RampCoefficient != DefaultRampCoefficient {
		t.Errorf("expected defaults restored, got (%v, %v)", u.AltitudeThreshold, u.RampCoefficient)
	}
}

func TestSetStrategyRebuildsCommands(t *testing.T) {
	rec := rendertest.New()
	p := New(squareHierarchy(), DefaultOptions())
	update(t, p, rec, renderFrame(false))

	p.SetStrategy(StrategySimple)
	if p.State() != ShaderReady {
		t.Errorf("expected ShaderReady after strategy change, got %v", p.State())
	}

	cmds := update(t, p, rec, renderFrame(false))
	if len(cmds) != 2 {
		t.Errorf("expected 2 simple commands, got %d", len(cmds))
	}
	if len(rec.VertexBuffers) != 2 || len(rec.ShaderPrograms) != 1 {
		t.Errorf("expected mesh and shader to be reused")
	}

	p.SetStrategy(StrategySimple)
	if p.State() != CommandsBuilt {
		t.Errorf("expected no change for same strategy, got %v", p.State())
	}
}

func TestCollinearBoundaryFallsBack(t *testing.T) {
	rec := rendertest.New()
	h := polygon.Hierarchy{Outer: ring([2]float64{0, 0}, [2]float64{1, 0}, [2]float64{2, 0})}
	p := New(h, DefaultOptions())

	update(t, p, rec, renderFrame(false))
	if p.State() != CommandsBuilt {
		t.Fatalf("expected CommandsBuilt, got %v", p.State())
	}
	if got := p.Mesh().CapsAndWalls[0].Count; got != 6 {
		t.Errorf("expected cap range count 6, got %d", got)
	}
}

func TestNoContext(t *testing.T) {
	p := New(squareHierarchy(), DefaultOptions())
	var cmds []render.DrawCommand
	if err := p.Update(nil, renderFrame(false), &cmds); !errors.Is(err, ErrNoContext) {
		t.Errorf("expected ErrNoContext, got %v", err)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"simple", StrategySimple, false},
		{"Stencil", StrategyStencil, false},
		{"", StrategyStencil, false},
		{"volume", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStrategy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseStrategy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if StrategySimple.Next() != StrategyStencil || StrategyStencil.Next() != StrategySimple {
		t.Error("Next does not cycle")
	}
}

func TestBuildMesh(t *testing.T) {
	opts := DefaultOptions()

	mesh, err := BuildMesh(holedHierarchy(), opts)
	if err != nil {
		t.Fatalf("BuildMesh failed: %v", err)
	}
	if mesh.VertexCount() != 14 {
		t.Errorf("expected 14 vertices, got %d", mesh.VertexCount())
	}
	if len(mesh.Indices) != 38 {
		t.Errorf("expected 38 indices, got %d", len(mesh.Indices))
	}

	opts.Ellipsoid = nil
	if _, err := BuildMesh(holedHierarchy(), opts); !errors.Is(err, ErrNoEllipsoid) {
		t.Errorf("expected ErrNoEllipsoid, got %v", err)
	}
}
