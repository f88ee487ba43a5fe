package polygon

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vmora/cesium/pkg/ellipsoid"
)

// ErrTooFewPositions is returned when an outer ring has fewer than three
// distinct points.
var ErrTooFewPositions = errors.New("polygon: outer ring needs at least 3 positions")

// Hierarchy is an outer ring with optional holes. Rings are open: the first
// point is not repeated at the end.
type Hierarchy struct {
	Outer []mgl64.Vec3
	Holes [][]mgl64.Vec3
}

// RemoveDuplicates returns a copy of ring with consecutive points closer
// than epsilon collapsed, including a trailing point equal to the first.
func RemoveDuplicates(ring []mgl64.Vec3, epsilon float64) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, 0, len(ring))
	for _, p := range ring {
		if len(out) > 0 && out[len(out)-1].ApproxEqualThreshold(p, epsilon) {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[len(out)-1].ApproxEqualThreshold(out[0], epsilon) {
		out = out[:len(out)-1]
	}
	return out
}

// Clean removes duplicate points from every ring.
func (h Hierarchy) Clean(epsilon float64) Hierarchy {
	out := Hierarchy{Outer: RemoveDuplicates(h.Outer, epsilon)}
	for _, hole := range h.Holes {
		out.Holes = append(out.Holes, RemoveDuplicates(hole, epsilon))
	}
	return out
}

// Normalize returns a copy of h whose outer ring is counter-clockwise and
// whose holes are clockwise when viewed from outside e. Each ring is
// classified on its own tangent plane. Applying Normalize to an already
// normalized hierarchy returns the same point order.
func (h Hierarchy) Normalize(e *ellipsoid.Ellipsoid) (Hierarchy, error) {
	if len(h.Outer) < 3 {
		return Hierarchy{}, fmt.Errorf("%w: got %d", ErrTooFewPositions, len(h.Outer))
	}

	outer, err := orient(h.Outer, e, CounterClockwise)
	if err != nil {
		return Hierarchy{}, fmt.Errorf("outer ring: %w", err)
	}

	out := Hierarchy{Outer: outer}
	for i, hole := range h.Holes {
		if len(hole) < 3 {
			out.Holes = append(out.Holes, append([]mgl64.Vec3(nil), hole...))
			continue
		}
		oriented, err := orient(hole, e, Clockwise)
		if err != nil {
			return Hierarchy{}, fmt.Errorf("hole %d: %w", i, err)
		}
		out.Holes = append(out.Holes, oriented)
	}
	return out, nil
}

// orient copies ring and reverses the copy when its winding is strictly
// opposite to want. Zero-area rings keep their order.
func orient(ring []mgl64.Vec3, e *ellipsoid.Ellipsoid, want WindingOrder) ([]mgl64.Vec3, error) {
	projected, err := ProjectOntoTangentPlane(ring, e)
	if err != nil {
		return nil, err
	}

	out := append([]mgl64.Vec3(nil), ring...)
	area := SignedArea(projected)
	if (want == CounterClockwise && area < 0) || (want == Clockwise && area > 0) {
		Reverse(out)
	}
	return out, nil
}

// TriangulateOuter projects the outer ring onto its tangent plane and
// triangulates it. Indices refer to h.Outer.
func (h Hierarchy) TriangulateOuter(e *ellipsoid.Ellipsoid) ([]int, error) {
	projected, err := ProjectOntoTangentPlane(h.Outer, e)
	if err != nil {
		return nil, err
	}
	return Triangulate(projected)
}
