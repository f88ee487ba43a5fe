// Package tin holds triangulated irregular network geometry: a flat list of
// triangles with texture coordinates that can be packed into a float array
// for transfer and expanded into an indexed mesh.
package tin

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vmora/cesium/pkg/ellipsoid"
)

var (
	// ErrNoPositions is returned when a TIN has no position data.
	ErrNoPositions = errors.New("tin: positions are required")
	// ErrNoTexCoords is returned when a TIN has no texture coordinates.
	ErrNoTexCoords = errors.New("tin: texture coordinates are required")
	// ErrShortArray is returned when unpacking runs past the end of the input.
	ErrShortArray = errors.New("tin: packed array too short")
)

// VertexFormat selects which attributes CreateGeometry computes.
type VertexFormat struct {
	Position bool
	Normal   bool
	ST       bool
	Binormal bool
	Tangent  bool
	Color    bool
}

// VertexFormatPackedLength is the number of floats a VertexFormat packs into.
const VertexFormatPackedLength = 6

// DefaultVertexFormat computes positions, normals and texture coordinates.
var DefaultVertexFormat = VertexFormat{Position: true, Normal: true, ST: true}

func (f VertexFormat) pack(array []float64, at int) {
	for i, on := range [...]bool{f.Position, f.Normal, f.ST, f.Binormal, f.Tangent, f.Color} {
		array[at+i] = boolFloat(on)
	}
}

func unpackVertexFormat(array []float64, at int) VertexFormat {
	return VertexFormat{
		Position: array[at] == 1,
		Normal:   array[at+1] == 1,
		ST:       array[at+2] == 1,
		Binormal: array[at+3] == 1,
		Tangent:  array[at+4] == 1,
		Color:    array[at+5] == 1,
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Geometry is a TIN: three cartesian positions and three texture
// coordinates per triangle, stored flat.
type Geometry struct {
	positions []float64
	st        []float64
	format    VertexFormat
}

// New creates a TIN from flat cartesian positions (x, y, z per vertex) and
// flat texture coordinates (s, t per vertex).
func New(positions, st []float64, format VertexFormat) (*Geometry, error) {
	if len(positions) == 0 {
		return nil, ErrNoPositions
	}
	if len(st) == 0 {
		return nil, ErrNoTexCoords
	}
	if len(positions)%9 != 0 {
		return nil, fmt.Errorf("tin: %d position values do not form whole triangles", len(positions))
	}
	if len(st)*3 != len(positions)*2 {
		return nil, fmt.Errorf("tin: %d texture values for %d vertices", len(st), len(positions)/3)
	}
	return &Geometry{
		positions: append([]float64(nil), positions...),
		st:        append([]float64(nil), st...),
		format:    format,
	}, nil
}

// Triangle is three vertices given as longitude, latitude (degrees) and
// height (meters).
type Triangle [3][3]float64

// FromDegrees converts geographic triangles to cartesian positions on e.
// st holds one (s, t) pair per triangle vertex.
func FromDegrees(e *ellipsoid.Ellipsoid, triangles []Triangle, st [][2]float64, format VertexFormat) (*Geometry, error) {
	positions := make([]float64, 0, len(triangles)*9)
	for _, tri := range triangles {
		for _, v := range tri {
			p := e.CartographicToCartesian(ellipsoid.FromDegrees(v[0], v[1], v[2]))
			positions = append(positions, p[0], p[1], p[2])
		}
	}
	flatST := make([]float64, 0, len(st)*2)
	for _, c := range st {
		flatST = append(flatST, c[0], c[1])
	}
	return New(positions, flatST, format)
}

// VertexCount returns the number of vertices (three per triangle).
func (g *Geometry) VertexCount() int {
	return len(g.positions) / 3
}

// PackedLength is the number of floats Pack writes.
func (g *Geometry) PackedLength() int {
	return 1 + len(g.positions) + len(g.st) + VertexFormatPackedLength
}

// Pack writes g into array starting at start: the position value count,
// the positions, the texture coordinates, then the vertex format.
func (g *Geometry) Pack(array []float64, start int) error {
	if start < 0 || len(array)-start < g.PackedLength() {
		return fmt.Errorf("%w: need %d values from %d, have %d", ErrShortArray, g.PackedLength(), start, len(array))
	}
	at := start
	array[at] = float64(len(g.positions))
	at++
	at += copy(array[at:], g.positions)
	at += copy(array[at:], g.st)
	g.format.pack(array, at)
	return nil
}

// Unpack reads a Geometry written by Pack.
func Unpack(array []float64, start int) (*Geometry, error) {
	if start < 0 || start >= len(array) {
		return nil, ErrShortArray
	}
	count := array[start]
	at := start + 1
	remaining := len(array) - at
	if math.IsNaN(count) || count < 0 || count != math.Trunc(count) {
		return nil, fmt.Errorf("tin: invalid position count %v", count)
	}
	// Compare before converting or summing so a huge count cannot overflow.
	if count > float64(remaining) {
		return nil, fmt.Errorf("%w: position count %v, %d values left", ErrShortArray, count, remaining)
	}
	n := int(count)
	if n%3 != 0 {
		return nil, fmt.Errorf("tin: invalid position count %v", count)
	}
	stLen := n / 3 * 2
	if remaining-n < stLen+VertexFormatPackedLength {
		return nil, ErrShortArray
	}

	g := &Geometry{
		positions: append([]float64(nil), array[at:at+n]...),
		st:        append([]float64(nil), array[at+n:at+n+stLen]...),
		format:    unpackVertexFormat(array, at+n+stLen),
	}
	return g, nil
}

// BoundingSphere encloses a set of positions.
type BoundingSphere struct {
	Center mgl64.Vec3
	Radius float64
}

// Mesh is the expanded, indexed form of a TIN.
type Mesh struct {
	Positions      []float64 // nil unless the format requests positions
	ST             []float32
	Normals        []float32
	Indices        []uint32
	BoundingSphere BoundingSphere
}

// CreateGeometry expands g into an indexed triangle list with sequential
// indices and a bounding sphere centered at the vertex centroid.
func (g *Geometry) CreateGeometry() *Mesh {
	count := g.VertexCount()
	m := &Mesh{Indices: make([]uint32, count)}
	for i := range m.Indices {
		m.Indices[i] = uint32(i)
	}

	var centroid mgl64.Vec3
	for i := 0; i < count; i++ {
		centroid = centroid.Add(g.vertex(i))
	}
	if count > 0 {
		centroid = centroid.Mul(1 / float64(count))
	}
	var r2 float64
	for i := 0; i < count; i++ {
		r2 = math.Max(r2, g.vertex(i).Sub(centroid).LenSqr())
	}
	m.BoundingSphere = BoundingSphere{Center: centroid, Radius: math.Sqrt(r2)}

	if g.format.Position {
		m.Positions = append([]float64(nil), g.positions...)
	}
	if g.format.ST {
		m.ST = make([]float32, len(g.st))
		for i, v := range g.st {
			m.ST[i] = float32(v)
		}
	}
	if g.format.Normal {
		m.Normals = g.flatNormals()
	}
	return m
}

func (g *Geometry) vertex(i int) mgl64.Vec3 {
	return mgl64.Vec3{g.positions[i*3], g.positions[i*3+1], g.positions[i*3+2]}
}

// flatNormals assigns each triangle's face normal to its three vertices.
// Degenerate triangles get a zero normal.
func (g *Geometry) flatNormals() []float32 {
	out := make([]float32, len(g.positions))
	for t := 0; t < g.VertexCount()/3; t++ {
		a, b, c := g.vertex(t*3), g.vertex(t*3+1), g.vertex(t*3+2)
		n := b.Sub(a).Cross(c.Sub(a))
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
		}
		for k := 0; k < 3; k++ {
			out[(t*3+k)*3] = float32(n[0])
			out[(t*3+k)*3+1] = float32(n[1])
			out[(t*3+k)*3+2] = float32(n[2])
		}
	}
	return out
}
