// Package polygon provides the 2D geometry used to prepare surface polygons:
// tangent-plane projection, winding order classification, triangulation and
// ring normalization.
package polygon

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vmora/cesium/pkg/ellipsoid"
)

// ErrNoPoints is returned when a tangent plane is requested for an empty ring.
var ErrNoPoints = errors.New("polygon: no points")

// TangentPlane is a plane tangent to an ellipsoid with an east/north/up frame
// at its origin.
type TangentPlane struct {
	Origin mgl64.Vec3
	East   mgl64.Vec3
	North  mgl64.Vec3
	Up     mgl64.Vec3
}

// NewTangentPlane builds the plane tangent to e at the surface point below
// the center of the bounding box of points.
func NewTangentPlane(points []mgl64.Vec3, e *ellipsoid.Ellipsoid) (*TangentPlane, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}

	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], p[i])
			hi[i] = math.Max(hi[i], p[i])
		}
	}
	center := lo.Add(hi).Mul(0.5)

	origin, ok := e.ScaleToGeodeticSurface(center)
	if !ok {
		origin = center
	}
	return tangentPlaneAt(origin, e), nil
}

func tangentPlaneAt(origin mgl64.Vec3, e *ellipsoid.Ellipsoid) *TangentPlane {
	up := e.SurfaceNormal(origin)
	if up == (mgl64.Vec3{}) {
		up = mgl64.Vec3{0, 0, 1}
	}

	var east mgl64.Vec3
	if math.Abs(origin[0]) < 1e-14 && math.Abs(origin[1]) < 1e-14 {
		// On the polar axis east is undefined; pick +y.
		east = mgl64.Vec3{0, 1, 0}
	} else {
		east = mgl64.Vec3{-origin[1], origin[0], 0}.Normalize()
	}
	north := up.Cross(east)

	return &TangentPlane{
		Origin: origin,
		East:   east,
		North:  north,
		Up:     up,
	}
}

// ProjectPoint projects p onto the plane along the ray from the ellipsoid
// center through p and returns its east/north coordinates. Points whose ray
// is parallel to the plane are projected orthogonally.
func (tp *TangentPlane) ProjectPoint(p mgl64.Vec3) mgl64.Vec2 {
	q := p
	if l := p.Len(); l > 0 {
		dir := p.Mul(1 / l)
		denom := tp.Up.Dot(dir)
		if math.Abs(denom) > 1e-15 {
			t := tp.Up.Dot(tp.Origin.Sub(p)) / denom
			q = p.Add(dir.Mul(t))
		} else {
			q = p.Sub(tp.Up.Mul(tp.Up.Dot(p.Sub(tp.Origin))))
		}
	}

	d := q.Sub(tp.Origin)
	return mgl64.Vec2{d.Dot(tp.East), d.Dot(tp.North)}
}

// ProjectPoints projects every point. The result has one entry per input
// point, in order.
func (tp *TangentPlane) ProjectPoints(points []mgl64.Vec3) []mgl64.Vec2 {
	out := make([]mgl64.Vec2, len(points))
	for i, p := range points {
		out[i] = tp.ProjectPoint(p)
	}
	return out
}

// ProjectOntoTangentPlane builds a tangent plane for points and projects
// them onto it.
func ProjectOntoTangentPlane(points []mgl64.Vec3, e *ellipsoid.Ellipsoid) ([]mgl64.Vec2, error) {
	tp, err := NewTangentPlane(points, e)
	if err != nil {
		return nil, err
	}
	return tp.ProjectPoints(points), nil
}
