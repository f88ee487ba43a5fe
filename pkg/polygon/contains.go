package polygon

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/vmora/cesium/pkg/ellipsoid"
)

// PointInRing reports whether p lies inside ring using the even-odd rule.
// Points on an edge may fall either way.
func PointInRing(ring []mgl64.Vec2, p mgl64.Vec2) bool {
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a[1] > p[1]) != (b[1] > p[1]) {
			x := a[0] + (p[1]-a[1])*(b[0]-a[0])/(b[1]-a[1])
			if p[0] < x {
				inside = !inside
			}
		}
	}
	return inside
}

// Contains reports whether the surface point below p falls inside the outer
// ring and outside every hole. All rings are projected on the tangent plane
// of the outer ring.
func (h Hierarchy) Contains(p mgl64.Vec3, e *ellipsoid.Ellipsoid) bool {
	if len(h.Outer) < 3 {
		return false
	}
	tp, err := NewTangentPlane(h.Outer, e)
	if err != nil {
		return false
	}
	if p.Dot(tp.Up) <= 0 {
		return false
	}

	q := tp.ProjectPoint(p)
	if !PointInRing(tp.ProjectPoints(h.Outer), q) {
		return false
	}
	for _, hole := range h.Holes {
		if len(hole) >= 3 && PointInRing(tp.ProjectPoints(hole), q) {
			return false
		}
	}
	return true
}
