// Package ellipsoid provides geodetic math on a triaxial ellipsoid: surface
// normals, projection onto the geodetic surface and cartographic conversion.
package ellipsoid

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Ellipsoid is defined by its radii along the x, y and z axes (meters).
type Ellipsoid struct {
	radii               mgl64.Vec3
	radiiSquared        mgl64.Vec3
	oneOverRadii        mgl64.Vec3
	oneOverRadiiSquared mgl64.Vec3
	centerToleranceSqrd float64
	maximumRadius       float64
	minimumRadius       float64
}

// WGS84 radii in meters.
const (
	WGS84SemiMajorAxis = 6378137.0
	WGS84SemiMinorAxis = 6356752.3142451793
)

// WGS84 is the World Geodetic System 1984 ellipsoid.
var WGS84 = New(WGS84SemiMajorAxis, WGS84SemiMajorAxis, WGS84SemiMinorAxis)

// New creates an ellipsoid with the given radii. Radii must be positive.
func New(x, y, z float64) *Ellipsoid {
	return &Ellipsoid{
		radii:               mgl64.Vec3{x, y, z},
		radiiSquared:        mgl64.Vec3{x * x, y * y, z * z},
		oneOverRadii:        mgl64.Vec3{1 / x, 1 / y, 1 / z},
		oneOverRadiiSquared: mgl64.Vec3{1 / (x * x), 1 / (y * y), 1 / (z * z)},
		centerToleranceSqrd: 0.1,
		maximumRadius:       math.Max(x, math.Max(y, z)),
		minimumRadius:       math.Min(x, math.Min(y, z)),
	}
}

// Sphere creates a spherical ellipsoid with the given radius.
func Sphere(radius float64) *Ellipsoid {
	return New(radius, radius, radius)
}

// Radii returns the radii along each axis.
func (e *Ellipsoid) Radii() mgl64.Vec3 {
	return e.radii
}

// MaximumRadius returns the largest of the three radii.
func (e *Ellipsoid) MaximumRadius() float64 {
	return e.maximumRadius
}

// MinimumRadius returns the smallest of the three radii.
func (e *Ellipsoid) MinimumRadius() float64 {
	return e.minimumRadius
}

// SurfaceNormal returns the unit normal of the geodetic surface passing
// through p. The zero vector yields the zero vector.
func (e *Ellipsoid) SurfaceNormal(p mgl64.Vec3) mgl64.Vec3 {
	n := mgl64.Vec3{
		p[0] * e.oneOverRadiiSquared[0],
		p[1] * e.oneOverRadiiSquared[1],
		p[2] * e.oneOverRadiiSquared[2],
	}
	l := n.Len()
	if l == 0 {
		return mgl64.Vec3{}
	}
	return n.Mul(1 / l)
}

// maxNewtonIterations bounds the projection loop. Finite inputs converge in
// a handful of steps.
const maxNewtonIterations = 64

// ScaleToGeodeticSurface moves p along the geodetic surface normal until it
// lies on the surface. The second result is false when p is too close to the
// center for the projection to be defined, is not finite, or the iteration
// does not converge.
func (e *Ellipsoid) ScaleToGeodeticSurface(p mgl64.Vec3) (mgl64.Vec3, bool) {
	if !IsFinite(p) {
		return mgl64.Vec3{}, false
	}
	px, py, pz := p[0], p[1], p[2]
	ox, oy, oz := e.oneOverRadii[0], e.oneOverRadii[1], e.oneOverRadii[2]

	x2 := px * px * ox * ox
	y2 := py * py * oy * oy
	z2 := pz * pz * oz * oz

	squaredNorm := x2 + y2 + z2
	ratio := math.Sqrt(1 / squaredNorm)

	intersection := p.Mul(ratio)
	if squaredNorm < e.centerToleranceSqrd {
		if math.IsInf(ratio, 0) || math.IsNaN(ratio) {
			return mgl64.Vec3{}, false
		}
		return intersection, true
	}

	sq := e.oneOverRadiiSquared
	gradient := mgl64.Vec3{
		intersection[0] * sq[0] * 2,
		intersection[1] * sq[1] * 2,
		intersection[2] * sq[2] * 2,
	}

	lambda := (1 - ratio) * p.Len() / (0.5 * gradient.Len())
	correction := 0.0

	var xMul, yMul, zMul float64
	var fn float64
	converged := false
	for i := 0; i < maxNewtonIterations; i++ {
		lambda -= correction

		xMul = 1 / (1 + lambda*sq[0])
		yMul = 1 / (1 + lambda*sq[1])
		zMul = 1 / (1 + lambda*sq[2])

		xMul2, yMul2, zMul2 := xMul*xMul, yMul*yMul, zMul*zMul
		xMul3, yMul3, zMul3 := xMul2*xMul, yMul2*yMul, zMul2*zMul

		fn = x2*xMul2 + y2*yMul2 + z2*zMul2 - 1

		denominator := x2*xMul3*sq[0] + y2*yMul3*sq[1] + z2*zMul3*sq[2]
		derivative := -2 * denominator
		correction = fn / derivative

		if math.Abs(fn) <= 1e-12 {
			converged = true
			break
		}
	}
	if !converged {
		return mgl64.Vec3{}, false
	}

	return mgl64.Vec3{px * xMul, py * yMul, pz * zMul}, true
}

// IsFinite reports whether every component of p is neither NaN nor infinite.
func IsFinite(p mgl64.Vec3) bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Cartographic is a position in longitude and latitude (radians) and height
// above the ellipsoid (meters).
type Cartographic struct {
	Longitude float64
	Latitude  float64
	Height    float64
}

// FromDegrees builds a Cartographic from degrees.
func FromDegrees(lon, lat, height float64) Cartographic {
	return Cartographic{
		Longitude: lon * math.Pi / 180,
		Latitude:  lat * math.Pi / 180,
		Height:    height,
	}
}

// GeodeticSurfaceNormalCartographic returns the surface normal at c.
func (e *Ellipsoid) GeodeticSurfaceNormalCartographic(c Cartographic) mgl64.Vec3 {
	cosLat := math.Cos(c.Latitude)
	return mgl64.Vec3{
		cosLat * math.Cos(c.Longitude),
		cosLat * math.Sin(c.Longitude),
		math.Sin(c.Latitude),
	}.Normalize()
}

// CartographicToCartesian converts c to Earth-fixed cartesian coordinates.
func (e *Ellipsoid) CartographicToCartesian(c Cartographic) mgl64.Vec3 {
	n := e.GeodeticSurfaceNormalCartographic(c)
	k := mgl64.Vec3{
		e.radiiSquared[0] * n[0],
		e.radiiSquared[1] * n[1],
		e.radiiSquared[2] * n[2],
	}
	gamma := math.Sqrt(n.Dot(k))
	k = k.Mul(1 / gamma)
	return k.Add(n.Mul(c.Height))
}

// CartesianToCartographic converts p to longitude, latitude and height. The
// second result is false when p is at the center of the ellipsoid.
func (e *Ellipsoid) CartesianToCartographic(p mgl64.Vec3) (Cartographic, bool) {
	surface, ok := e.ScaleToGeodeticSurface(p)
	if !ok {
		return Cartographic{}, false
	}
	n := e.SurfaceNormal(surface)
	h := p.Sub(surface)

	height := h.Len()
	if h.Dot(p) < 0 {
		height = -height
	}
	return Cartographic{
		Longitude: math.Atan2(n[1], n[0]),
		Latitude:  math.Asin(n[2]),
		Height:    height,
	}, true
}
