// Package camera provides a camera that orbits a point on the globe.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vmora/cesium/pkg/ellipsoid"
)

// GlobeCamera looks at a focus point on the ellipsoid surface from a height
// above it. Tilt 0 looks straight down; larger tilts lean toward the horizon
// with north at the top of the screen.
type GlobeCamera struct {
	Ellipsoid *ellipsoid.Ellipsoid

	// Focus point, radians
	Longitude float64
	Latitude  float64

	Height float64 // meters above the focus point
	Tilt   float64 // radians from straight down

	// Constraints
	MinHeight float64
	MaxHeight float64
	MaxTilt   float64

	// Sensitivity
	DragSensitivity float64
	ZoomSensitivity float64

	FieldOfView float64 // vertical, radians
}

// NewGlobeCamera creates a camera over lon/lat 0 at height meters.
func NewGlobeCamera(e *ellipsoid.Ellipsoid, height float64) *GlobeCamera {
	return &GlobeCamera{
		Ellipsoid:       e,
		Height:          height,
		MinHeight:       10.0,
		MaxHeight:       4 * e.MaximumRadius(),
		MaxTilt:         1.3,
		DragSensitivity: 0.002,
		ZoomSensitivity: 0.1,
		FieldOfView:     mgl64.DegToRad(60),
	}
}

// frame returns the focus point and its east/north/up axes.
func (c *GlobeCamera) frame() (focus, east, north, up mgl64.Vec3) {
	carto := ellipsoid.Cartographic{Longitude: c.Longitude, Latitude: c.Latitude}
	focus = c.Ellipsoid.CartographicToCartesian(carto)
	up = c.Ellipsoid.GeodeticSurfaceNormalCartographic(carto)
	east = mgl64.Vec3{-math.Sin(c.Longitude), math.Cos(c.Longitude), 0}
	north = up.Cross(east)
	return focus, east, north, up
}

// Focus returns the surface point the camera looks at.
func (c *GlobeCamera) Focus() mgl64.Vec3 {
	focus, _, _, _ := c.frame()
	return focus
}

// Position returns the camera position in world space.
func (c *GlobeCamera) Position() mgl64.Vec3 {
	focus, _, north, up := c.frame()
	offset := up.Mul(math.Cos(c.Tilt)).Sub(north.Mul(math.Sin(c.Tilt)))
	return focus.Add(offset.Mul(c.Height))
}

// ViewMatrix returns the view matrix for this camera.
func (c *GlobeCamera) ViewMatrix() mgl64.Mat4 {
	focus, _, north, up := c.frame()
	offset := up.Mul(math.Cos(c.Tilt)).Sub(north.Mul(math.Sin(c.Tilt)))
	eye := focus.Add(offset.Mul(c.Height))
	// Screen-up is perpendicular to the view direction, leaning north.
	screenUp := north.Mul(math.Cos(c.Tilt)).Add(up.Mul(math.Sin(c.Tilt)))
	return mgl64.LookAtV(eye, focus, screenUp)
}

// ProjectionMatrix returns a perspective projection whose clip planes follow
// the camera height.
func (c *GlobeCamera) ProjectionMatrix(aspect float64) mgl64.Mat4 {
	near := math.Max(1, c.Height*0.01)
	far := c.Height + 2*c.Ellipsoid.MaximumRadius()
	return mgl64.Perspective(c.FieldOfView, aspect, near, far)
}

// HandleDrag moves the focus point. Motion scales with height so the
// surface follows the mouse at any zoom.
func (c *GlobeCamera) HandleDrag(deltaX, deltaY float64) {
	scale := c.DragSensitivity * c.Height / c.Ellipsoid.MaximumRadius()
	c.Longitude -= deltaX * scale / math.Max(math.Cos(c.Latitude), 0.01)
	c.Latitude += deltaY * scale

	c.Latitude = mgl64.Clamp(c.Latitude, -math.Pi/2+1e-6, math.Pi/2-1e-6)
	c.Longitude = math.Remainder(c.Longitude, 2*math.Pi)
}

// HandleZoom updates height based on scroll wheel delta.
func (c *GlobeCamera) HandleZoom(delta float64) {
	c.Height -= delta * c.Height * c.ZoomSensitivity
	c.Height = mgl64.Clamp(c.Height, c.MinHeight, c.MaxHeight)
}

// HandleTilt leans the camera toward or away from the horizon.
func (c *GlobeCamera) HandleTilt(delta float64) {
	c.Tilt = mgl64.Clamp(c.Tilt+delta, 0, c.MaxTilt)
}

// FitToPoints centers the camera over points and backs off until their
// extent fits the field of view.
func (c *GlobeCamera) FitToPoints(points []mgl64.Vec3) {
	if len(points) == 0 {
		return
	}

	var center mgl64.Vec3
	for _, p := range points {
		center = center.Add(p)
	}
	center = center.Mul(1 / float64(len(points)))

	carto, ok := c.Ellipsoid.CartesianToCartographic(center)
	if !ok {
		return
	}
	surface := c.Ellipsoid.CartographicToCartesian(ellipsoid.Cartographic{
		Longitude: carto.Longitude,
		Latitude:  carto.Latitude,
	})

	radius := 0.0
	for _, p := range points {
		radius = math.Max(radius, p.Sub(surface).Len())
	}

	c.Longitude = carto.Longitude
	c.Latitude = carto.Latitude
	c.Tilt = 0
	c.Height = mgl64.Clamp(radius/math.Tan(c.FieldOfView/2)*1.5, c.MinHeight, c.MaxHeight)
}
