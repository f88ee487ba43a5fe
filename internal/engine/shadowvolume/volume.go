// Package shadowvolume builds the closed mesh used to drape a polygon over a
// curved surface with stencil shadow volumes. The boundary is extruded from
// the geodetic surface to above the highest expected terrain, producing
// top and bottom caps, an outer wall and one wall per hole.
package shadowvolume

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/vmora/cesium/internal/engine/render"
	"github.com/vmora/cesium/internal/logger"
)

// DefaultMaxTerrainAltitude is the altitude, in meters, the top cap is raised
// above the surface before the granularity correction.
const DefaultMaxTerrainAltitude = 8500.0

// DefaultGranularity is one degree, in radians.
const DefaultGranularity = math.Pi / 180

// Floats per vertex in the position and normal streams.
const (
	PositionComponents = 6 // high xyz, low xyz
	NormalComponents   = 3
)

var (
	ErrNoSurface              = errors.New("shadowvolume: surface is required")
	ErrBoundaryTooShort       = errors.New("shadowvolume: outer boundary needs at least 3 points")
	ErrCapIndicesNotTriangles = errors.New("shadowvolume: cap index count is not a multiple of 3")
	ErrCapIndexOutOfRange     = errors.New("shadowvolume: cap index outside the outer boundary")
	ErrInvalidGranularity     = errors.New("shadowvolume: granularity must be in (0, pi)")
	ErrNonFinitePoint         = errors.New("shadowvolume: boundary point is NaN or infinite")
)

// fallbackCap replaces a triangulation with fewer than 3 indices.
var fallbackCap = []int{0, 1, 2}

// Surface is the geodesy the builder depends on.
type Surface interface {
	SurfaceNormal(p mgl64.Vec3) mgl64.Vec3
	ScaleToGeodeticSurface(p mgl64.Vec3) (mgl64.Vec3, bool)
	MaximumRadius() float64
}

// Input describes one polygon to extrude.
type Input struct {
	// Outer is the counter-clockwise outer boundary.
	Outer []mgl64.Vec3
	// Holes are clockwise interior boundaries. Holes only receive walls.
	Holes [][]mgl64.Vec3
	// CapIndices triangulate Outer. Fewer than 3 indices select the
	// placeholder triangle [0 1 2].
	CapIndices []int
	// Granularity is the angular tessellation step in radians.
	Granularity float64
	// MaxTerrainAltitude is the highest terrain the volume must contain.
	MaxTerrainAltitude float64
	Surface            Surface
}

// DrawRange is a contiguous run of indices drawn as one primitive type.
type DrawRange struct {
	Offset    int
	Count     int
	Primitive render.PrimitiveType
}

// Mesh is the packed output of Build.
type Mesh struct {
	// Positions holds PositionComponents floats per vertex. Vertex 2k is the
	// top copy of boundary point k and 2k+1 its bottom copy.
	Positions []float32
	// Normals holds the surface normal for top vertices and zero for
	// bottom vertices.
	Normals    []float32
	Indices    []uint32
	IndexWidth render.IndexWidth

	TopCap        DrawRange
	BottomCap     DrawRange
	Wall          DrawRange
	InteriorWalls DrawRange

	// CapsAndWalls draws the whole closed volume.
	CapsAndWalls []DrawRange
	// TopCapAndWalls omits the bottom cap.
	TopCapAndWalls []DrawRange

	UpDelta float64
	// CapFallback is set when the placeholder cap was used.
	CapFallback bool
}

// VertexCount returns the number of vertices in the mesh.
func (m *Mesh) VertexCount() int {
	return len(m.Positions) / PositionComponents
}

// SurfaceDelta is the gap between a chord spanning granularity radians and
// the arc it approximates on a sphere of radius maxRadius.
func SurfaceDelta(maxRadius, granularity float64) float64 {
	return maxRadius - maxRadius*math.Cos(granularity/2)
}

// UpDelta is how far top vertices are raised above the surface.
func UpDelta(maxTerrainAltitude, maxRadius, granularity float64) float64 {
	return maxTerrainAltitude + SurfaceDelta(maxRadius, granularity)
}

// CapIndicesOrFallback returns indices, or the placeholder triangle when
// indices cannot form one.
func CapIndicesOrFallback(indices []int) ([]int, bool) {
	if len(indices) < 3 {
		return fallbackCap, true
	}
	return indices, false
}

// CheckFinite returns ErrNonFinitePoint when any outer or hole point has a
// NaN or infinite coordinate.
func CheckFinite(outer []mgl64.Vec3, holes [][]mgl64.Vec3) error {
	for i, p := range outer {
		if !isFinite(p) {
			return fmt.Errorf("%w: outer point %d is %v", ErrNonFinitePoint, i, p)
		}
	}
	for h, hole := range holes {
		for i, p := range hole {
			if !isFinite(p) {
				return fmt.Errorf("%w: hole %d point %d is %v", ErrNonFinitePoint, h, i, p)
			}
		}
	}
	return nil
}

func isFinite(p mgl64.Vec3) bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func validate(in Input) ([]int, bool, error) {
	if in.Surface == nil {
		return nil, false, ErrNoSurface
	}
	if len(in.Outer) < 3 {
		return nil, false, fmt.Errorf("%w: got %d", ErrBoundaryTooShort, len(in.Outer))
	}
	if err := CheckFinite(in.Outer, in.Holes); err != nil {
		return nil, false, err
	}
	if !(in.Granularity > 0 && in.Granularity < math.Pi) {
		return nil, false, fmt.Errorf("%w: got %v", ErrInvalidGranularity, in.Granularity)
	}

	caps, fallback := CapIndicesOrFallback(in.CapIndices)
	if len(caps)%3 != 0 {
		return nil, false, fmt.Errorf("%w: got %d", ErrCapIndicesNotTriangles, len(caps))
	}
	for i, idx := range caps {
		if idx < 0 || idx >= len(in.Outer) {
			return nil, false, fmt.Errorf("%w: index %d at %d, boundary has %d points",
				ErrCapIndexOutOfRange, idx, i, len(in.Outer))
		}
	}
	return caps, fallback, nil
}

// Build extrudes in into a shadow volume mesh. The output depends only on
// in: identical inputs give bit-identical buffers.
func Build(in Input) (*Mesh, error) {
	caps, fallback, err := validate(in)
	if err != nil {
		return nil, err
	}

	holes := make([][]mgl64.Vec3, 0, len(in.Holes))
	for _, h := range in.Holes {
		if len(h) < 2 {
			continue
		}
		holes = append(holes, h)
	}

	numHolePositions := 0
	for _, h := range holes {
		numHolePositions += len(h)
	}

	numOuter := len(in.Outer)
	numVertices := 2 * (numOuter + numHolePositions)
	numCapIndices := 2 * len(caps)
	numWallIndices := 2 * numOuter
	numInteriorIndices := 6 * numHolePositions
	numIndices := numCapIndices + numWallIndices + numInteriorIndices

	upDelta := UpDelta(in.MaxTerrainAltitude, in.Surface.MaximumRadius(), in.Granularity)

	m := &Mesh{
		Positions:   make([]float32, numVertices*PositionComponents),
		Normals:     make([]float32, numVertices*NormalComponents),
		Indices:     make([]uint32, 0, numIndices),
		IndexWidth:  render.IndexWidthFor(numVertices),
		UpDelta:     upDelta,
		CapFallback: fallback,
	}

	v := 0
	writePair := func(p mgl64.Vec3) {
		normal := in.Surface.SurfaceNormal(p)
		top := p.Add(normal.Mul(upDelta))
		bottom, ok := in.Surface.ScaleToGeodeticSurface(p)
		if !ok {
			bottom = p
		}

		writeEncoded(m.Positions[v*PositionComponents:], top)
		writeEncoded(m.Positions[(v+1)*PositionComponents:], bottom)

		n := m.Normals[v*NormalComponents:]
		n[0], n[1], n[2] = float32(normal[0]), float32(normal[1]), float32(normal[2])
		v += 2
	}

	for _, p := range in.Outer {
		writePair(p)
	}
	for _, h := range holes {
		for _, p := range h {
			writePair(p)
		}
	}

	// Top cap selects the even (top) copies.
	for i := 0; i < len(caps); i += 3 {
		m.Indices = append(m.Indices,
			uint32(caps[i]*2), uint32(caps[i+1]*2), uint32(caps[i+2]*2))
	}
	// Bottom cap reverses each triangle so it faces away from the volume.
	for i := 0; i < len(caps); i += 3 {
		m.Indices = append(m.Indices,
			uint32(caps[i+2]*2+1), uint32(caps[i+1]*2+1), uint32(caps[i]*2+1))
	}

	// Outer wall: one top/bottom pair per boundary point.
	for k := 0; k < numOuter; k++ {
		m.Indices = append(m.Indices, uint32(2*k), uint32(2*k+1))
	}

	// Interior walls: two triangles per hole edge, wrapping to the first
	// pair of the hole.
	base := 2 * numOuter
	for _, h := range holes {
		n := len(h)
		for k := 0; k < n; k++ {
			i := uint32(base + 2*k)
			j := uint32(base + 2*((k+1)%n))
			m.Indices = append(m.Indices,
				i, i+1, j,
				i+1, j+1, j,
			)
		}
		base += 2 * n
	}

	m.TopCap = DrawRange{Offset: 0, Count: len(caps), Primitive: render.Triangles}
	m.BottomCap = DrawRange{Offset: len(caps), Count: len(caps), Primitive: render.Triangles}
	m.Wall = DrawRange{Offset: numCapIndices, Count: numWallIndices, Primitive: render.TriangleStrip}
	m.InteriorWalls = DrawRange{Offset: numCapIndices + numWallIndices, Count: numInteriorIndices, Primitive: render.Triangles}

	m.CapsAndWalls = []DrawRange{{Offset: 0, Count: numCapIndices, Primitive: render.Triangles}, m.Wall}
	m.TopCapAndWalls = []DrawRange{m.TopCap, m.Wall}
	if numInteriorIndices > 0 {
		m.CapsAndWalls = append(m.CapsAndWalls, m.InteriorWalls)
		m.TopCapAndWalls = append(m.TopCapAndWalls, m.InteriorWalls)
	}

	logger.Named("shadowvolume").Debug("volume built",
		zap.Int("vertices", numVertices),
		zap.Int("indices", len(m.Indices)),
		zap.Int("holes", len(holes)),
		zap.Float64("upDelta", upDelta),
		zap.Bool("capFallback", fallback),
	)

	return m, nil
}
