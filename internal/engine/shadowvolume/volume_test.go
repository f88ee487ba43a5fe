package shadowvolume

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vmora/cesium/internal/engine/render"
	"github.com/vmora/cesium/pkg/ellipsoid"
)

const testRadius = 6378137.0

func squareInput() Input {
	return Input{
		Outer: []mgl64.Vec3{
			{0, 0, testRadius},
			{1, 0, testRadius},
			{1, 1, testRadius},
			{0, 1, testRadius},
		},
		CapIndices:         []int{0, 1, 2, 0, 2, 3},
		Granularity:        DefaultGranularity,
		MaxTerrainAltitude: 0,
		Surface:            ellipsoid.Sphere(testRadius),
	}
}

func TestBuildSquare(t *testing.T) {
	m, err := Build(squareInput())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if m.VertexCount() != 8 {
		t.Errorf("expected 8 vertices, got %d", m.VertexCount())
	}
	if got := m.TopCap.Count + m.BottomCap.Count; got != 12 {
		t.Errorf("expected 12 cap indices, got %d", got)
	}
	if m.Wall.Count != 8 {
		t.Errorf("expected 8 wall indices, got %d", m.Wall.Count)
	}
	if len(m.Indices) != 20 {
		t.Errorf("expected 20 indices, got %d", len(m.Indices))
	}
	if m.IndexWidth != render.Uint16 {
		t.Errorf("expected 16-bit indices, got %v", m.IndexWidth)
	}
	if m.InteriorWalls.Count != 0 {
		t.Errorf("expected no interior walls, got %d", m.InteriorWalls.Count)
	}
	if len(m.CapsAndWalls) != 2 || len(m.TopCapAndWalls) != 2 {
		t.Errorf("expected 2 ranges each, got %d and %d", len(m.CapsAndWalls), len(m.TopCapAndWalls))
	}
	if len(m.Normals) != 8*NormalComponents {
		t.Errorf("expected %d normal floats, got %d", 8*NormalComponents, len(m.Normals))
	}
}

func TestBuildIndexLayout(t *testing.T) {
	m, err := Build(squareInput())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := []uint32{
		0, 2, 4, 0, 4, 6, // top cap
		5, 3, 1, 7, 5, 1, // bottom cap, reversed
		0, 1, 2, 3, 4, 5, 6, 7, // wall strip
	}
	for i, w := range want {
		if m.Indices[i] != w {
			t.Errorf("index %d: expected %d, got %d", i, w, m.Indices[i])
		}
	}

	if r := m.CapsAndWalls[0]; r.Offset != 0 || r.Count != 12 || r.Primitive != render.Triangles {
		t.Errorf("unexpected caps range %+v", r)
	}
	if r := m.CapsAndWalls[1]; r.Offset != 12 || r.Count != 8 || r.Primitive != render.TriangleStrip {
		t.Errorf("unexpected wall range %+v", r)
	}
	if r := m.TopCapAndWalls[0]; r.Offset != 0 || r.Count != 6 {
		t.Errorf("unexpected top cap range %+v", r)
	}
}

// The outer wall strip stops at the last pair: the quad between the last
// and first boundary points is not emitted.
func TestOuterWallStripStopsAtLastPair(t *testing.T) {
	m, err := Build(squareInput())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	n := len(squareInput().Outer)
	wall := m.Indices[m.Wall.Offset : m.Wall.Offset+m.Wall.Count]
	if len(wall) != 2*n {
		t.Fatalf("expected %d wall indices, got %d", 2*n, len(wall))
	}
	for k, idx := range wall {
		if idx != uint32(k) {
			t.Errorf("wall index %d: expected %d, got %d", k, k, idx)
		}
	}

	// A strip of 2N indices forms 2N-2 triangles covering N-1 side quads.
	last := uint32(2*n - 1)
	for i := 0; i+2 < len(wall); i++ {
		tri := wall[i : i+3]
		hasFirst, hasLast := false, false
		for _, v := range tri {
			hasFirst = hasFirst || v <= 1
			hasLast = hasLast || v >= last-1
		}
		if hasFirst && hasLast {
			t.Errorf("triangle %v joins the first and last pairs", tri)
		}
	}
}

func TestBuildWithHole(t *testing.T) {
	in := squareInput()
	in.Holes = [][]mgl64.Vec3{{
		{0.2, 0.2, testRadius},
		{0.2, 0.8, testRadius},
		{0.8, 0.2, testRadius},
	}}

	m, err := Build(in)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if m.VertexCount() != 14 {
		t.Errorf("expected 14 vertices, got %d", m.VertexCount())
	}
	if len(m.Indices) != 38 {
		t.Errorf("expected 38 indices, got %d", len(m.Indices))
	}
	if m.InteriorWalls.Count != 18 || m.InteriorWalls.Offset != 20 {
		t.Errorf("unexpected interior range %+v", m.InteriorWalls)
	}
	if len(m.CapsAndWalls) != 3 || len(m.TopCapAndWalls) != 3 {
		t.Fatalf("expected 3 ranges each, got %d and %d", len(m.CapsAndWalls), len(m.TopCapAndWalls))
	}

	// Last hole edge wraps to the first pair of the hole.
	tail := m.Indices[len(m.Indices)-6:]
	want := []uint32{12, 13, 8, 13, 9, 8}
	for i := range want {
		if tail[i] != want[i] {
			t.Errorf("wrap index %d: expected %d, got %d", i, want[i], tail[i])
		}
	}
}

func TestBuildSkipsShortHoles(t *testing.T) {
	in := squareInput()
	in.Holes = [][]mgl64.Vec3{{{0.5, 0.5, testRadius}}, {}}

	m, err := Build(in)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if m.VertexCount() != 8 || len(m.Indices) != 20 {
		t.Errorf("expected short holes to be skipped, got %d vertices %d indices",
			m.VertexCount(), len(m.Indices))
	}
}

func TestBuildCollinearFallback(t *testing.T) {
	in := Input{
		Outer: []mgl64.Vec3{
			{0, 0, testRadius},
			{1, 0, testRadius},
			{2, 0, testRadius},
		},
		Granularity: DefaultGranularity,
		Surface:     ellipsoid.Sphere(testRadius),
	}

	m, err := Build(in)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !m.CapFallback {
		t.Error("expected cap fallback")
	}
	if m.CapsAndWalls[0].Count != 6 {
		t.Errorf("expected cap range count 6, got %d", m.CapsAndWalls[0].Count)
	}
}

func TestBuildCapParity(t *testing.T) {
	in := squareInput()
	in.Holes = [][]mgl64.Vec3{{
		{0.2, 0.2, testRadius},
		{0.2, 0.8, testRadius},
		{0.8, 0.2, testRadius},
	}}
	m, err := Build(in)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for i := m.TopCap.Offset; i < m.TopCap.Offset+m.TopCap.Count; i++ {
		if m.Indices[i]%2 != 0 {
			t.Errorf("top cap index %d is odd: %d", i, m.Indices[i])
		}
	}
	for i := m.BottomCap.Offset; i < m.BottomCap.Offset+m.BottomCap.Count; i++ {
		if m.Indices[i]%2 != 1 {
			t.Errorf("bottom cap index %d is even: %d", i, m.Indices[i])
		}
	}
	for _, idx := range m.Indices {
		if int(idx) >= m.VertexCount() {
			t.Errorf("index %d out of range", idx)
		}
	}
}

func TestBuildNormals(t *testing.T) {
	m, err := Build(squareInput())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for v := 0; v < m.VertexCount(); v++ {
		n := m.Normals[v*NormalComponents : (v+1)*NormalComponents]
		length := math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2]))
		if v%2 == 0 && math.Abs(length-1) > 1e-6 {
			t.Errorf("top vertex %d: expected unit normal, got length %v", v, length)
		}
		if v%2 == 1 && length != 0 {
			t.Errorf("bottom vertex %d: expected zero normal, got %v", v, n)
		}
	}
}

func TestBuildTopAboveBottom(t *testing.T) {
	in := squareInput()
	in.MaxTerrainAltitude = DefaultMaxTerrainAltitude
	m, err := Build(in)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	decode := func(v int) mgl64.Vec3 {
		p := m.Positions[v*PositionComponents:]
		return mgl64.Vec3{
			float64(p[0]) + float64(p[3]),
			float64(p[1]) + float64(p[4]),
			float64(p[2]) + float64(p[5]),
		}
	}
	for k := 0; k < 4; k++ {
		top, bottom := decode(2*k), decode(2*k+1)
		if math.Abs(bottom.Len()-testRadius) > 1e-3 {
			t.Errorf("bottom %d not on surface: radius %v", k, bottom.Len())
		}
		if top.Len()-bottom.Len() < m.UpDelta-1 {
			t.Errorf("top %d: expected at least %v above bottom, got %v", k, m.UpDelta, top.Len()-bottom.Len())
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	a, err := Build(squareInput())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	b, err := Build(squareInput())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for i := range a.Positions {
		if math.Float32bits(a.Positions[i]) != math.Float32bits(b.Positions[i]) {
			t.Fatalf("position %d differs: %v vs %v", i, a.Positions[i], b.Positions[i])
		}
	}
	for i := range a.Indices {
		if a.Indices[i] != b.Indices[i] {
			t.Fatalf("index %d differs", i)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Input)
		want   error
	}{
		{"no surface", func(in *Input) { in.Surface = nil }, ErrNoSurface},
		{"short boundary", func(in *Input) { in.Outer = in.Outer[:2] }, ErrBoundaryTooShort},
		{"zero granularity", func(in *Input) { in.Granularity = 0 }, ErrInvalidGranularity},
		{"granularity pi", func(in *Input) { in.Granularity = math.Pi }, ErrInvalidGranularity},
		{"nan granularity", func(in *Input) { in.Granularity = math.NaN() }, ErrInvalidGranularity},
		{"index out of range", func(in *Input) { in.CapIndices = []int{0, 1, 4} }, ErrCapIndexOutOfRange},
		{"negative index", func(in *Input) { in.CapIndices = []int{0, -1, 2} }, ErrCapIndexOutOfRange},
		{"partial triangle", func(in *Input) { in.CapIndices = []int{0, 1, 2, 3} }, ErrCapIndicesNotTriangles},
		{"nan outer point", func(in *Input) { in.Outer[2] = mgl64.Vec3{math.NaN(), 1, testRadius} }, ErrNonFinitePoint},
		{"inf outer point", func(in *Input) { in.Outer[0] = mgl64.Vec3{0, math.Inf(1), testRadius} }, ErrNonFinitePoint},
		{"nan hole point", func(in *Input) {
			in.Holes = [][]mgl64.Vec3{{{0.2, 0.2, testRadius}, {0.4, 0.2, math.NaN()}, {0.2, 0.4, testRadius}}}
		}, ErrNonFinitePoint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := squareInput()
			tt.modify(&in)
			if _, err := Build(in); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestUpDeltaMonotonic(t *testing.T) {
	prev := -1.0
	for _, g := range []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.0, 3.0} {
		d := UpDelta(100, testRadius, g)
		if d <= prev {
			t.Errorf("UpDelta(%v) = %v, not above %v", g, d, prev)
		}
		prev = d
	}

	if d := UpDelta(DefaultMaxTerrainAltitude, testRadius, 1e-12); math.Abs(d-DefaultMaxTerrainAltitude) > 1e-3 {
		t.Errorf("expected upDelta near max altitude for tiny granularity, got %v", d)
	}
}

func TestIndexWidthForLargeMesh(t *testing.T) {
	const n = 40000
	outer := make([]mgl64.Vec3, n)
	for i := range outer {
		a := 2 * math.Pi * float64(i) / n
		outer[i] = mgl64.Vec3{math.Cos(a) * 1000, math.Sin(a) * 1000, testRadius}
	}

	m, err := Build(Input{
		Outer:       outer,
		Granularity: DefaultGranularity,
		Surface:     ellipsoid.Sphere(testRadius),
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if m.IndexWidth != render.Uint32 {
		t.Errorf("expected 32-bit indices for %d vertices, got %v", m.VertexCount(), m.IndexWidth)
	}
}

func TestEncodeFloat(t *testing.T) {
	tests := []struct {
		v         float64
		high, low float32
	}{
		{0, 0, 0},
		{65536, 65536, 0},
		{70000.5, 65536, 4464.5},
		{-70000.5, -65536, -4464.5},
		{6378137, 6356992, 21145},
	}

	for _, tt := range tests {
		high, low := EncodeFloat(tt.v)
		if high != tt.high || low != tt.low {
			t.Errorf("EncodeFloat(%v) = (%v, %v), want (%v, %v)", tt.v, high, low, tt.high, tt.low)
		}
	}
}

func TestEncodeVec3Precision(t *testing.T) {
	p := mgl64.Vec3{6378137.123, -1234567.891, 42.5}
	high, low := EncodeVec3(p)
	for i := 0; i < 3; i++ {
		got := float64(high[i]) + float64(low[i])
		if math.Abs(got-p[i]) > 1e-2 {
			t.Errorf("component %d: reconstructed %v, want %v", i, got, p[i])
		}
	}
}
