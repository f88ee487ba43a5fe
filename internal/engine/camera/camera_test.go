package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vmora/cesium/pkg/ellipsoid"
)

const radius = 1000.0

func TestPositionStraightDown(t *testing.T) {
	c := NewGlobeCamera(ellipsoid.Sphere(radius), 500)

	got := c.Position()
	want := mgl64.Vec3{radius + 500, 0, 0}
	if !got.ApproxEqualThreshold(want, 1e-9) {
		t.Errorf("expected position %v, got %v", want, got)
	}
}

func TestViewMatrixCentersFocus(t *testing.T) {
	c := NewGlobeCamera(ellipsoid.Sphere(radius), 500)
	c.Longitude = 0.3
	c.Latitude = -0.2
	c.Tilt = 0.4

	focus := c.Focus()
	v := c.ViewMatrix().Mul4x1(focus.Vec4(1))
	if math.Abs(v[0]) > 1e-6 || math.Abs(v[1]) > 1e-6 {
		t.Errorf("expected focus on the view axis, got %v", v)
	}
	if math.Abs(v[2]+500) > 1e-6 {
		t.Errorf("expected focus 500 in front of the camera, got z=%v", v[2])
	}
}

func TestZoomClamps(t *testing.T) {
	c := NewGlobeCamera(ellipsoid.Sphere(radius), 500)

	for i := 0; i < 200; i++ {
		c.HandleZoom(5)
	}
	if c.Height != c.MinHeight {
		t.Errorf("expected height clamped to %v, got %v", c.MinHeight, c.Height)
	}

	for i := 0; i < 200; i++ {
		c.HandleZoom(-5)
	}
	if c.Height != c.MaxHeight {
		t.Errorf("expected height clamped to %v, got %v", c.MaxHeight, c.Height)
	}
}

func TestDragAndTilt(t *testing.T) {
	c := NewGlobeCamera(ellipsoid.Sphere(radius), 500)

	c.HandleDrag(-100, 0)
	if c.Longitude <= 0 {
		t.Errorf("expected dragging left to move east, got longitude %v", c.Longitude)
	}

	c.HandleDrag(0, 1e9)
	if c.Latitude >= math.Pi/2 {
		t.Errorf("expected latitude below the pole, got %v", c.Latitude)
	}

	c.HandleTilt(10)
	if c.Tilt != c.MaxTilt {
		t.Errorf("expected tilt clamped to %v, got %v", c.MaxTilt, c.Tilt)
	}
	c.HandleTilt(-10)
	if c.Tilt != 0 {
		t.Errorf("expected tilt clamped to 0, got %v", c.Tilt)
	}
}

func TestFitToPoints(t *testing.T) {
	e := ellipsoid.Sphere(radius)
	c := NewGlobeCamera(e, 5000)

	points := []mgl64.Vec3{
		e.CartographicToCartesian(ellipsoid.FromDegrees(10, 10, 0)),
		e.CartographicToCartesian(ellipsoid.FromDegrees(12, 10, 0)),
		e.CartographicToCartesian(ellipsoid.FromDegrees(11, 12, 0)),
	}
	c.FitToPoints(points)

	if math.Abs(mgl64.RadToDeg(c.Longitude)-11) > 0.5 {
		t.Errorf("expected longitude near 11, got %v", mgl64.RadToDeg(c.Longitude))
	}
	if c.Height <= c.MinHeight || c.Height >= 5000 {
		t.Errorf("unexpected fitted height %v", c.Height)
	}
}

func TestProjectionClipPlanes(t *testing.T) {
	c := NewGlobeCamera(ellipsoid.Sphere(radius), 500)
	p := c.ProjectionMatrix(16.0 / 9.0)

	// A point on the view axis at the focus distance lands inside the depth range.
	clip := p.Mul4x1(mgl64.Vec4{0, 0, -500, 1})
	ndcZ := clip[2] / clip[3]
	if ndcZ <= -1 || ndcZ >= 1 {
		t.Errorf("expected focus inside the depth range, got %v", ndcZ)
	}
}
